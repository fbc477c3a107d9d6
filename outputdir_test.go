// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import (
	"path/filepath"
	"testing"
)

func TestOpenOutputDirCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	d, err := OpenOutputDir(dir)
	if err != nil {
		t.Fatalf("OpenOutputDir: %v", err)
	}
	defer d.Close()

	if d.Path() != dir {
		t.Fatalf("Path() = %q, want %q", d.Path(), dir)
	}
}

func TestOutputDirJoinPage(t *testing.T) {
	d, err := OpenOutputDir(t.TempDir())
	if err != nil {
		t.Fatalf("OpenOutputDir: %v", err)
	}
	defer d.Close()

	got := d.JoinPage(7, "png")
	want := filepath.Join(d.Path(), "page_00007.png")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestOpenOutputDirLocksAgainstConcurrentOpen(t *testing.T) {
	dir := t.TempDir()
	d1, err := OpenOutputDir(dir)
	if err != nil {
		t.Fatalf("first OpenOutputDir: %v", err)
	}
	defer d1.Close()

	if _, err := OpenOutputDir(dir); err == nil {
		t.Fatal("expected second OpenOutputDir on the same dir to fail while the first holds the lock")
	}
}

func TestOpenOutputDirSharedAllowsConcurrentSiblings(t *testing.T) {
	dir := t.TempDir()
	d1, err := OpenOutputDirShared(dir)
	if err != nil {
		t.Fatalf("first OpenOutputDirShared: %v", err)
	}
	defer d1.Close()

	d2, err := OpenOutputDirShared(dir)
	if err != nil {
		t.Fatalf("second OpenOutputDirShared should succeed alongside the first: %v", err)
	}
	defer d2.Close()

	if _, err := OpenOutputDir(dir); err == nil {
		t.Fatal("expected exclusive OpenOutputDir to fail while shared locks are held")
	}
}
