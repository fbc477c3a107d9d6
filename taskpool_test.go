// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import "testing"

func TestRenderTaskPoolResetsFields(t *testing.T) {
	t1 := GetRenderTask()
	t1.PageIndex = 7
	t1.Op = OpExtractText
	t1.Result = ErrInvalidArgument
	close(t1.Done)
	PutRenderTask(t1)

	t2 := GetRenderTask()
	if t2.PageIndex != 0 || t2.Op != OpRenderImage || t2.Result != nil {
		t.Fatalf("GetRenderTask did not reset fields: %+v", t2)
	}
	select {
	case <-t2.Done:
		t.Fatal("Done channel should be open (not already closed) after reset")
	default:
	}
}

func TestPutRenderTaskNilIsNoop(t *testing.T) {
	PutRenderTask(nil)
}

func TestIntSlicePoolMinCapacity(t *testing.T) {
	s := GetIntSlice(100)
	if cap(s) < 100 {
		t.Fatalf("cap = %d, want >= 100", cap(s))
	}
	if len(s) != 0 {
		t.Fatalf("len = %d, want 0", len(s))
	}
}

func TestIntSlicePoolOversizeDropped(t *testing.T) {
	s := make([]int, 0, 5000)
	PutIntSlice(s) // should not panic, and should not be recycled

	got := GetIntSlice(1)
	if cap(got) >= 5000 {
		t.Fatal("an oversized slice should not have been pooled")
	}
}
