// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Geek0x0/pdfpar"
	"github.com/Geek0x0/pdfpar/internal/testdoc"
)

func newOutDir(t *testing.T) *pdfpar.OutputDir {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "out")
	outDir, err := pdfpar.OpenOutputDir(dir)
	if err != nil {
		t.Fatalf("OpenOutputDir: %v", err)
	}
	t.Cleanup(func() { outDir.Close() })
	return outDir
}

func TestRenderPagesParallelSequentialFastPath(t *testing.T) {
	doc := testdoc.New([]testdoc.PageSpec{{Width: 72, Height: 72}}, 0)
	factory := &testdoc.Factory{}
	outDir := newOutDir(t)

	opts := pdfpar.RenderOptions{W: 20, H: 20, Container: pdfpar.ImagePNG, ThreadCount: 1}
	summary, err := pdfpar.RenderPagesParallel(doc, factory, outDir, nil, 0, 1, opts, pdfpar.HardwareInfo{NumCPU: 4}, nil, nil)
	if err != nil {
		t.Fatalf("RenderPagesParallel: %v", err)
	}
	if summary.ModeNotice != "single-threaded" {
		t.Fatalf("ModeNotice = %q, want single-threaded", summary.ModeNotice)
	}
	if summary.PagesRendered != 1 || summary.Failures != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if _, err := os.Stat(outDir.JoinPage(0, "png")); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
}

func TestRenderPagesParallelMultiThreaded(t *testing.T) {
	pdfpar.DestroyWorkerPool()
	t.Cleanup(pdfpar.DestroyWorkerPool)

	pages := make([]testdoc.PageSpec, 6)
	for i := range pages {
		pages[i] = testdoc.PageSpec{Width: 72, Height: 72}
	}
	doc := testdoc.New(pages, 0)
	factory := &testdoc.Factory{}
	outDir := newOutDir(t)

	opts := pdfpar.RenderOptions{W: 10, H: 10, Container: pdfpar.ImagePNG, ThreadCount: 3}
	summary, err := pdfpar.RenderPagesParallel(doc, factory, outDir, nil, 0, len(pages), opts, pdfpar.HardwareInfo{NumCPU: 4}, nil, nil)
	if err != nil {
		t.Fatalf("RenderPagesParallel: %v", err)
	}
	if summary.ModeNotice != "multi-threaded" {
		t.Fatalf("ModeNotice = %q, want multi-threaded", summary.ModeNotice)
	}
	if summary.PagesRendered != len(pages) {
		t.Fatalf("PagesRendered = %d, want %d", summary.PagesRendered, len(pages))
	}
	for i := range pages {
		if _, err := os.Stat(outDir.JoinPage(i, "png")); err != nil {
			t.Fatalf("page %d: expected output file: %v", i, err)
		}
	}
}

func TestRenderPagesParallelSmartModePassthrough(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02, 0x03}
	pages := []testdoc.PageSpec{
		{
			Width: 100, Height: 100,
			Objects: []testdoc.Object{{
				Kind: pdfpar.ObjectImage, Area: 10000, Filter: "DCTDecode", RawData: jpeg,
			}},
		},
	}
	doc := testdoc.New(pages, 0)
	factory := &testdoc.Factory{}
	outDir := newOutDir(t)

	opts := pdfpar.RenderOptions{W: 100, H: 100, Container: pdfpar.ImagePNG, ThreadCount: 1}
	summary, err := pdfpar.RenderPagesParallel(doc, factory, outDir, nil, 0, 1, opts, pdfpar.HardwareInfo{NumCPU: 4}, nil, nil)
	if err != nil {
		t.Fatalf("RenderPagesParallel: %v", err)
	}
	if summary.SmartModeHits != 1 {
		t.Fatalf("SmartModeHits = %d, want 1", summary.SmartModeHits)
	}
	data, err := os.ReadFile(outDir.JoinPage(0, "jpg"))
	if err != nil {
		t.Fatalf("expected passthrough jpg file: %v", err)
	}
	if string(data) != string(jpeg) {
		t.Fatalf("passthrough bytes were re-encoded instead of copied verbatim")
	}
	if factory.Created != 0 {
		t.Fatalf("smart-mode passthrough should never allocate a bitmap, created = %d", factory.Created)
	}
}

func TestAdaptiveThreadCountTextHeavySmallDoc(t *testing.T) {
	if got := pdfpar.AdaptiveThreadCount(10, 10*10000, 8); got != 8 {
		t.Fatalf("got %d, want min(10, 16, 8) = 8", got)
	}
}

func TestAdaptiveThreadCountBelowFloor(t *testing.T) {
	if got := pdfpar.AdaptiveThreadCount(2, 2*10000, 8); got != 1 {
		t.Fatalf("got %d, want 1 for page count below the floor", got)
	}
}

func TestAdaptiveThreadCountImageHeavyLargeDoc(t *testing.T) {
	if got := pdfpar.AdaptiveThreadCount(500, 500*200000, 8); got != 8 {
		t.Fatalf("got %d, want min(500, 8, 8) = 8", got)
	}
}
