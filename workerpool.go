// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// RenderFlagGrayscale is OR'd into a RenderTask's Flags when the
// requested pixel format is grayscale, per §4.5 step 6: "If the format
// is grayscale, set the grayscale-render flag in addition."
const RenderFlagGrayscale = 1 << 30

// RenderResult is delivered to a task's CompletionFunc. For a V1 task,
// Bitmap carries the rendered bitmap and ownership transfers to the
// callback (the callback, or its caller, must eventually call
// bmp.Destroy(); the worker pool does not reclaim it). For a V2 task,
// Buffer is a slice into the bitmap's backing buffer valid only for the
// duration of the callback — the bitmap is returned to the pool the
// instant the callback returns, so a V2 callback that wants to keep the
// pixels must copy Buffer.
type RenderResult struct {
	PageIndex int
	Cookie    any
	Err       error

	Bitmap Bitmap // V1 only
	Buffer []byte // V2 only, valid only during the callback
	Width  int
	Height int
	Stride int
	Format PixelFormat
}

// CompletionFunc is invoked exactly once per task, on some worker
// goroutine, in no guaranteed order relative to other tasks (§5
// "Ordering guarantees").
type CompletionFunc func(RenderResult)

// RenderTask is one unit of work for the worker pool (§3 Data Model,
// RenderTask(V1/V2) row). V2 set to true selects the raw-buffer
// (pool-reclaiming) protocol; false selects the ownership-transferring
// V1 protocol.
type RenderTask struct {
	Doc        Document
	PageIndex  int
	W, H       int
	Rotation   int
	Flags      int
	Format     PixelFormat
	DPI        float64
	Form       FormEnv
	Collection *PageHandleCollection
	Callback   CompletionFunc
	Cookie     any
	V2         bool

	// Meta, if set, is consulted for cached page dimensions/transparency
	// before querying the page directly, and populated on a miss (the
	// same cache §4.6's pre-warm pass fills). Nil disables caching.
	Meta *MetadataCache
}

// WorkerPool is the process-global persistent pool of render worker
// goroutines (§4.5). Task queues are plain mutex-guarded slices rather
// than the C++ original's lock-free MPMC ring buffers — contention is
// low (the controller is the only enqueuer; Go's scheduler multiplexes
// worker goroutines onto OS threads far more cheaply than spinning up a
// lock-free structure would save) — with a single sync.Cond standing in
// for the three condition variables spec.md names (not-empty,
// done, backpressure), since all three are guarded by the same mutex
// and a spurious wakeup only costs a cheap recheck of the guard clause.
type WorkerPool struct {
	mu   sync.Mutex
	cond *sync.Cond

	v1Queue []*RenderTask
	v2Queue []*RenderTask

	outstanding   int64
	maxQueueDepth int64
	stop          bool
	clearGen      atomic.Int64

	numWorkers int
	wg         sync.WaitGroup

	factory BitmapFactory
	logger  *logrus.Entry
}

// NewWorkerPool creates a pool with zero workers; call EnsureWorkerCount
// to spawn some. factory supplies bitmap allocation on a pool miss.
func NewWorkerPool(factory BitmapFactory, logger *logrus.Logger) *WorkerPool {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	p := &WorkerPool{factory: factory, logger: logger.WithField("component", "worker_pool")}
	p.cond = sync.NewCond(&p.mu)
	return p
}

var (
	globalWorkerPool   *WorkerPool
	globalWorkerPoolMu sync.Mutex
)

// GetOrCreateWorkerPool returns the process-global worker pool, creating
// it on first call (§4.5.1 supplement). factory/logger are only used if
// the pool does not already exist.
func GetOrCreateWorkerPool(factory BitmapFactory, logger *logrus.Logger) *WorkerPool {
	globalWorkerPoolMu.Lock()
	defer globalWorkerPoolMu.Unlock()
	if globalWorkerPool == nil {
		globalWorkerPool = NewWorkerPool(factory, logger)
	}
	return globalWorkerPool
}

// DestroyWorkerPool stops and discards the process-global worker pool.
// Idempotent: calling it when no pool exists is a no-op, matching
// pdfium_fast's DestroyThreadPool().
func DestroyWorkerPool() {
	globalWorkerPoolMu.Lock()
	p := globalWorkerPool
	globalWorkerPool = nil
	globalWorkerPoolMu.Unlock()

	if p != nil {
		p.Stop()
	}
}

// EnsureWorkerCount spawns workers up to n. Worker goroutines are never
// reduced in number once started (§4.5 invariant).
func (p *WorkerPool) EnsureWorkerCount(n int) {
	p.mu.Lock()
	toSpawn := n - p.numWorkers
	if toSpawn <= 0 {
		p.mu.Unlock()
		return
	}
	start := p.numWorkers
	p.numWorkers = n
	p.mu.Unlock()

	for i := start; i < n; i++ {
		p.wg.Add(1)
		go p.workerLoop(i)
	}
	p.logger.WithField("workers", n).Debug("worker pool grown")
}

// SetMaxQueueDepth sets the backpressure bound. d<=0 disables
// backpressure entirely.
func (p *WorkerPool) SetMaxQueueDepth(d int) {
	p.mu.Lock()
	p.maxQueueDepth = int64(d)
	p.cond.Broadcast()
	p.mu.Unlock()
}

// SignalClearPools asks every worker to clear its thread-local bitmap
// pool the next time it wakes. Missing a signal is non-fatal — the pool
// is re-cleared on the next SignalClearPools call, per §4.5.
func (p *WorkerPool) SignalClearPools() {
	p.clearGen.Add(1)
	p.mu.Lock()
	p.cond.Broadcast()
	p.mu.Unlock()
}

// OutstandingTasks returns the current value of the outstanding-task
// counter, for tests and diagnostics (§8 "Outstanding-task balance").
func (p *WorkerPool) OutstandingTasks() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outstanding
}

// Enqueue submits a single task, applying backpressure per
// SetMaxQueueDepth.
func (p *WorkerPool) Enqueue(task *RenderTask) {
	p.EnqueueBatch([]*RenderTask{task})
}

// EnqueueBatch submits tasks together, one sub-batch of at most
// maxQueueDepth at a time: a batch larger than the configured depth
// never bumps outstanding past maxQueueDepth in one step, it waits for
// the queue to drain enough for each sub-batch in turn instead (§8
// "at no observation point does outstanding_tasks exceed the
// configured depth").
func (p *WorkerPool) EnqueueBatch(tasks []*RenderTask) {
	for len(tasks) > 0 {
		p.mu.Lock()

		depth := p.maxQueueDepth
		chunkLen := int64(len(tasks))
		if depth > 0 {
			if chunkLen > depth {
				chunkLen = depth
			}
			for p.outstanding > depth-chunkLen {
				p.cond.Wait()
			}
		}

		chunk := tasks[:chunkLen]
		p.outstanding += chunkLen
		for _, t := range chunk {
			if t.V2 {
				p.v2Queue = append(p.v2Queue, t)
			} else {
				p.v1Queue = append(p.v1Queue, t)
			}
		}
		p.cond.Broadcast()
		p.mu.Unlock()

		tasks = tasks[chunkLen:]
	}
}

// WaitForCompletion blocks until the outstanding-task counter reaches
// zero (§4.5, §8 "Outstanding-task balance").
func (p *WorkerPool) WaitForCompletion() {
	p.mu.Lock()
	for p.outstanding != 0 {
		p.cond.Wait()
	}
	p.mu.Unlock()
}

// Stop requests every worker to exit once it has no more work, and
// blocks until they do.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	p.stop = true
	p.cond.Broadcast()
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *WorkerPool) workerLoop(id int) {
	defer p.wg.Done()
	pool := NewBitmapPool(p.factory)
	var localClearGen int64
	log := p.logger.WithField("worker_id", id)

	for {
		p.mu.Lock()
		for len(p.v2Queue) == 0 && len(p.v1Queue) == 0 && !(p.stop && p.outstanding == 0) {
			p.cond.Wait()
		}

		var task *RenderTask
		isV2 := false
		switch {
		case len(p.v2Queue) > 0:
			task = p.v2Queue[0]
			p.v2Queue = p.v2Queue[1:]
			isV2 = true
		case len(p.v1Queue) > 0:
			task = p.v1Queue[0]
			p.v1Queue = p.v1Queue[1:]
		}
		shouldExit := task == nil && p.stop && p.outstanding == 0
		p.mu.Unlock()

		if gen := p.clearGen.Load(); gen != localClearGen {
			pool.Clear()
			localClearGen = gen
		}

		if shouldExit {
			pool.Clear()
			log.Debug("worker exiting")
			return
		}
		if task == nil {
			continue
		}

		p.processTask(task, isV2, pool)

		p.mu.Lock()
		p.outstanding--
		p.cond.Broadcast()
		p.mu.Unlock()
	}
}

// processTask runs the §4.5 task-processing sequence: the entire
// load->render->close span executes under the document's page-load
// mutex; the completion callback runs after the mutex is released.
func (p *WorkerPool) processTask(task *RenderTask, isV2 bool, pool *BitmapPool) {
	doc := task.Doc
	mutex := doc.PageLoadMutex()
	mutex.Lock()

	page, err := doc.LoadPage(task.PageIndex)
	if err != nil {
		mutex.Unlock()
		task.Callback(RenderResult{PageIndex: task.PageIndex, Cookie: task.Cookie, Err: wrapPageError("load", task.PageIndex, err)})
		return
	}

	if task.Form != nil {
		page.OnAfterLoad(task.Form)
		page.OnOpenAction(task.Form)
	}

	var metaKey string
	var cached PageMeta
	haveCached := false
	if task.Meta != nil {
		metaKey = Key(task.Doc, task.PageIndex)
		cached, haveCached = task.Meta.Get(metaKey)
	}

	w, h := task.W, task.H
	var ptsW, ptsH float64
	haveDims := false
	if isV2 && task.DPI > 0 && w == 0 && h == 0 {
		scale := ScaleForDPI(task.DPI)
		if haveCached {
			ptsW, ptsH = cached.WidthPts, cached.HeightPts
		} else {
			ptsW, ptsH = page.SizePoints()
		}
		haveDims = true
		w = DimensionPixels(ptsW, scale)
		h = DimensionPixels(ptsH, scale)
	}

	bmp, err := pool.Acquire(w, h, task.Format)
	if err != nil {
		p.closePage(page, task.Form, task.Collection)
		mutex.Unlock()
		task.Callback(RenderResult{PageIndex: task.PageIndex, Cookie: task.Cookie, Err: wrapPageError("acquire-bitmap", task.PageIndex, err)})
		return
	}

	transparent := cached.Transparent
	if !haveCached {
		transparent = page.HasTransparency()
	}
	if transparent {
		bmp.FillRect(0x00000000)
	} else {
		bmp.FillRect(0xFFFFFFFF)
	}

	if task.Meta != nil && !haveCached && haveDims {
		task.Meta.Put(metaKey, PageMeta{WidthPts: ptsW, HeightPts: ptsH, Transparent: transparent})
	}

	flags := task.Flags
	if task.Format == FormatGray {
		flags |= RenderFlagGrayscale
	}

	renderErr := page.RenderBitmap(bmp, 0, 0, w, h, task.Rotation, flags)
	if renderErr == nil && task.Form != nil {
		renderErr = task.Form.DrawOverlay(bmp, page, 0, 0, w, h, task.Rotation, flags)
	}

	p.closePage(page, task.Form, task.Collection)
	mutex.Unlock()

	result := RenderResult{
		PageIndex: task.PageIndex,
		Cookie:    task.Cookie,
		Width:     w,
		Height:    h,
		Stride:    bmp.Stride(),
		Format:    task.Format,
	}
	if renderErr != nil {
		result.Err = wrapPageError("render", task.PageIndex, renderErr)
	} else if isV2 {
		result.Buffer = bmp.Buffer()
	} else {
		result.Bitmap = bmp
	}

	task.Callback(result)

	if isV2 {
		pool.Release(bmp)
	}
}

// closePage issues close-action/before-close form events and either
// defers the page's destruction into collection or closes it
// immediately, per §4.5 steps 8-9. Caller holds the page-load mutex.
func (p *WorkerPool) closePage(page Page, form FormEnv, collection *PageHandleCollection) {
	if form != nil {
		page.OnCloseAction(form)
		page.OnBeforeClose(form)
	}
	if collection != nil {
		collection.Append(page)
	} else {
		page.Close()
	}
}
