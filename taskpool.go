// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import "sync"

// PoolTask is a pooled per-page work record: render or extract-text a
// single page and report the outcome. WorkerPool consumes RenderTask,
// not PoolTask, and the controller does not allocate PoolTasks;
// GetRenderTask/PutRenderTask recycle them for callers that create one
// per page.
type PoolTask struct {
	PageIndex int
	Op        RenderOp
	Result    error
	Done      chan struct{}
}

// RenderOp identifies what a PoolTask asks a worker to do.
type RenderOp int

const (
	OpRenderImage RenderOp = iota
	OpExtractText
	OpRenderAndExtract
)

var renderTaskPool = sync.Pool{
	New: func() interface{} {
		return &PoolTask{Done: make(chan struct{})}
	},
}

// GetRenderTask retrieves a zeroed PoolTask from the pool.
func GetRenderTask() *PoolTask {
	t := renderTaskPool.Get().(*PoolTask)
	t.PageIndex = 0
	t.Op = OpRenderImage
	t.Result = nil
	select {
	case <-t.Done:
		t.Done = make(chan struct{})
	default:
	}
	return t
}

// PutRenderTask returns a PoolTask to the pool. Callers must not touch
// t after this call.
func PutRenderTask(t *PoolTask) {
	if t == nil {
		return
	}
	renderTaskPool.Put(t)
}

// intSlicePool backs small per-task scratch slices, e.g. a worker's
// running tally of failed page indices before it reports back to the
// controller.
var intSlicePool = sync.Pool{
	New: func() interface{} {
		s := make([]int, 0, 64)
		return &s
	},
}

// GetIntSlice returns an int slice with at least the requested capacity.
func GetIntSlice(minCap int) []int {
	sp := intSlicePool.Get().(*[]int)
	s := *sp
	if cap(s) < minCap {
		return make([]int, 0, minCap)
	}
	return s[:0]
}

// PutIntSlice returns an int slice to the pool. Slices larger than 4096
// are dropped rather than pooled, to bound the pool's worst-case
// footprint.
func PutIntSlice(s []int) {
	if cap(s) > 4096 {
		return
	}
	s = s[:0]
	intSlicePool.Put(&s)
}
