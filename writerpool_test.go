// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriterPoolWritesAllFiles(t *testing.T) {
	dir := t.TempDir()
	p := NewWriterPool(3)

	for i := 0; i < 10; i++ {
		path := filepath.Join(dir, pageFileName(i, "txt"))
		p.SubmitWrite(path, []byte("page"))
	}
	if err := p.WaitAll(); err != nil {
		t.Fatalf("WaitAll: %v", err)
	}

	for i := 0; i < 10; i++ {
		path := filepath.Join(dir, pageFileName(i, "txt"))
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("page %d: %v", i, err)
		}
		if string(data) != "page" {
			t.Fatalf("page %d contents = %q", i, data)
		}
	}
}

func TestWriterPoolCollectsErrors(t *testing.T) {
	p := NewWriterPool(2)
	// A path under a file (not a directory) cannot be written to.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	p.SubmitWrite(filepath.Join(blocker, "child.txt"), []byte("data"))

	if err := p.WaitAll(); err == nil {
		t.Fatal("expected WaitAll to surface the write failure")
	}
}

func TestWriterPoolZeroWorkersDefaultsToOne(t *testing.T) {
	p := NewWriterPool(0)
	dir := t.TempDir()
	p.SubmitWrite(filepath.Join(dir, "a.txt"), []byte("x"))
	if err := p.WaitAll(); err != nil {
		t.Fatalf("WaitAll: %v", err)
	}
}

func TestWriterPoolErrorsReturnsCopy(t *testing.T) {
	p := NewWriterPool(1)
	if err := p.WaitAll(); err != nil {
		t.Fatalf("WaitAll on an empty pool: %v", err)
	}
	if len(p.Errors()) != 0 {
		t.Fatal("expected no errors from an empty pool")
	}
}
