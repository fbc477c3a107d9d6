// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import "testing"

func TestBufferPoolGetMinCapacity(t *testing.T) {
	bp := NewBufferPool()
	buf := bp.Get(100)
	if cap(buf) < 100 {
		t.Fatalf("cap = %d, want >= 100", cap(buf))
	}
	if len(buf) != 0 {
		t.Fatalf("len = %d, want 0", len(buf))
	}
}

func TestBufferPoolRoundTrip(t *testing.T) {
	bp := NewBufferPool()
	buf := bp.Get(64)
	buf = append(buf, []byte("hello")...)
	bp.Put(buf)

	got := bp.Get(64)
	if cap(got) != 64 {
		t.Fatalf("cap = %d, want the exact 64 bucket reused", cap(got))
	}
	if len(got) != 0 {
		t.Fatal("reused buffer should be reset to len 0")
	}
}

func TestBufferPoolOversizeBypassesBuckets(t *testing.T) {
	bp := NewBufferPool()
	buf := bp.Get(1 << 20)
	if cap(buf) < 1<<20 {
		t.Fatalf("cap = %d, want >= 1MiB", cap(buf))
	}
	// Putting an oversized buffer back should not panic and should be a no-op.
	bp.Put(buf)
}

func TestBufferPoolPutNilIsNoop(t *testing.T) {
	bp := NewBufferPool()
	bp.Put(nil)
}

func TestBufferPoolBucketIndexBoundaries(t *testing.T) {
	bp := NewBufferPool()
	cases := []struct {
		size int
		want int
	}{
		{1, 0}, {16, 0}, {17, 1}, {32, 1}, {33, 2}, {4096, 7}, {4097, 8},
	}
	for _, c := range cases {
		if got := bp.bucketIndex(c.size); got != c.want {
			t.Errorf("bucketIndex(%d) = %d, want %d", c.size, got, c.want)
		}
	}
}

func TestGlobalBufferPoolHelpers(t *testing.T) {
	buf := GetBuffer(32)
	buf = append(buf, 1, 2, 3)
	PutBuffer(buf)
	got := GetBuffer(32)
	if cap(got) != 32 {
		t.Fatalf("cap = %d, want 32", cap(got))
	}
}
