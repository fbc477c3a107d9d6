// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCeilDiv(t *testing.T) {
	cases := []struct{ a, b, want int }{
		{10, 3, 4},
		{9, 3, 3},
		{0, 3, 0},
		{5, 0, 5},
	}
	for _, c := range cases {
		if got := ceilDiv(c.a, c.b); got != c.want {
			t.Errorf("ceilDiv(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestWorkerArgsTextMode(t *testing.T) {
	opts := MultiProcessOptions{Mode: ModeTextExtract, Encoding: "utf32le", PDFPath: "/tmp/in.pdf"}
	args := workerArgs(opts, "/tmp/out", 0, 10, 2, 1)
	want := []string{"--worker", "/tmp/in.pdf", "/tmp/out", "0", "10", "2", "utf32le"}
	if len(args) != len(want) {
		t.Fatalf("got %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d: got %q, want %q", i, args[i], want[i])
		}
	}
}

func TestWorkerArgsTextModeDefaultsEncoding(t *testing.T) {
	args := workerArgs(MultiProcessOptions{Mode: ModeTextExtract}, "out", 0, 1, 0, 1)
	if args[len(args)-1] != "utf8" {
		t.Fatalf("got %v, want trailing utf8", args)
	}
}

func TestWorkerArgsRenderMode(t *testing.T) {
	opts := MultiProcessOptions{
		Mode: ModeRender, DPI: 150, Format: "png", RenderQuality: 2, ForceAlpha: true,
	}
	args := workerArgs(opts, "/tmp/outdir", 0, 5, 1, 4)
	if len(args) != 11 {
		t.Fatalf("got %d args, want 11: %v", len(args), args)
	}
	if args[9] != "1" {
		t.Errorf("force_alpha arg = %q, want 1", args[9])
	}
	if args[10] != "4" {
		t.Errorf("thread_count arg = %q, want 4", args[10])
	}
}

func TestWorkerArgsRenderModeJPEGAndBenchmark(t *testing.T) {
	opts := MultiProcessOptions{Mode: ModeRender, Format: "jpg", JPEGQuality: 80, BenchmarkMode: true}
	args := workerArgs(opts, "out", 0, 1, 0, 1)
	if len(args) != 13 {
		t.Fatalf("got %d args, want 13: %v", len(args), args)
	}
	if args[11] != "80" {
		t.Errorf("jpeg_quality arg = %q, want 80", args[11])
	}
	if args[12] != "1" {
		t.Errorf("benchmark arg = %q, want 1", args[12])
	}
}

func TestDefaultEncoding(t *testing.T) {
	if defaultEncoding("") != "utf8" {
		t.Error("want utf8 default")
	}
	if defaultEncoding("utf32le") != "utf32le" {
		t.Error("want passthrough of explicit encoding")
	}
}

func TestMergeTextWorkerOutputs(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.tmp")
	b := filepath.Join(dir, "b.tmp")
	if err := os.WriteFile(a, []byte("hello "), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("world"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "merged.txt")
	children := []mpChild{{tempPath: a}, {tempPath: b}}
	if err := mergeTextWorkerOutputs(out, "utf8", children); err != nil {
		t.Fatalf("mergeTextWorkerOutputs: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := append(append([]byte{}, utf8BOM...), []byte("hello world")...)
	if string(data) != string(want) {
		t.Fatalf("got %q, want %q", data, want)
	}
}
