// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"testing"

	"github.com/Geek0x0/pdfpar"
	"github.com/urfave/cli/v2"
)

func TestParseImageFormat(t *testing.T) {
	cases := map[string]pdfpar.ImageFormat{
		"":     pdfpar.ImagePNG,
		"png":  pdfpar.ImagePNG,
		"jpg":  pdfpar.ImageJPEG,
		"jpeg": pdfpar.ImageJPEG,
		"ppm":  pdfpar.ImagePPM,
		"bgra": pdfpar.ImageRawBGRA,
	}
	for in, want := range cases {
		got, err := parseImageFormat(in)
		if err != nil {
			t.Fatalf("parseImageFormat(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("parseImageFormat(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseImageFormatUnknown(t *testing.T) {
	if _, err := parseImageFormat("tiff"); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

func workerCountFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "workers", Value: 1},
		&cli.BoolFlag{Name: "bulk"},
		&cli.IntFlag{Name: "fast"},
	}
}

func newTestContext(t *testing.T, args []string) *cli.Context {
	t.Helper()
	app := &cli.App{Flags: workerCountFlags()}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range app.Flags {
		if err := f.Apply(fs); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return cli.NewContext(app, fs, nil)
}

func TestResolveWorkerCountDefault(t *testing.T) {
	c := newTestContext(t, nil)
	if got := resolveWorkerCount(c); got != 1 {
		t.Fatalf("resolveWorkerCount() = %d, want 1", got)
	}
}

func TestResolveWorkerCountExplicit(t *testing.T) {
	c := newTestContext(t, []string{"--workers", "6"})
	if got := resolveWorkerCount(c); got != 6 {
		t.Fatalf("resolveWorkerCount() = %d, want 6", got)
	}
}

func TestResolveWorkerCountBulkPinsToOne(t *testing.T) {
	c := newTestContext(t, []string{"--workers", "6", "--bulk"})
	if got := resolveWorkerCount(c); got != 1 {
		t.Fatalf("resolveWorkerCount() = %d, want 1", got)
	}
}

func TestResolveWorkerCountFastDefaultsToFour(t *testing.T) {
	c := newTestContext(t, []string{"--fast"})
	if got := resolveWorkerCount(c); got != 4 {
		t.Fatalf("resolveWorkerCount() = %d, want 4", got)
	}
}

func TestResolveWorkerCountFastExplicitN(t *testing.T) {
	c := newTestContext(t, []string{"--fast", "12"})
	if got := resolveWorkerCount(c); got != 12 {
		t.Fatalf("resolveWorkerCount() = %d, want 12", got)
	}
}

func TestResolveWorkerCountFastOverridesBulk(t *testing.T) {
	c := newTestContext(t, []string{"--bulk", "--fast", "8"})
	if got := resolveWorkerCount(c); got != 8 {
		t.Fatalf("resolveWorkerCount() = %d, want 8 (fast is declared after bulk)", got)
	}
}

func TestRunWorkerProtocolWrongArgCount(t *testing.T) {
	if got := runWorkerProtocol([]string{"only", "three", "args"}); got != int(pdfpar.ExitGenericFatal) {
		t.Fatalf("runWorkerProtocol() = %d, want ExitGenericFatal", got)
	}
}

func TestRunTextWorkerRejectsMalformedRange(t *testing.T) {
	args := []string{"/in.pdf", "/out.txt", "not-a-number", "5", "0", "utf8"}
	if got := runTextWorker(args); got != int(pdfpar.ExitGenericFatal) {
		t.Fatalf("runTextWorker() = %d, want ExitGenericFatal", got)
	}
}

func TestRunTextWorkerRejectsBadEncoding(t *testing.T) {
	args := []string{"/in.pdf", "/out.txt", "0", "5", "0", "latin1"}
	if got := runTextWorker(args); got != int(pdfpar.ExitGenericFatal) {
		t.Fatalf("runTextWorker() = %d, want ExitGenericFatal", got)
	}
}

func TestRunTextWorkerNoBackendLinkedFailsToOpenDocument(t *testing.T) {
	args := []string{"/in.pdf", "/out.txt", "0", "5", "0", "utf8"}
	if got := runTextWorker(args); got != int(pdfpar.ExitDocumentOpenError) {
		t.Fatalf("runTextWorker() = %d, want ExitDocumentOpenError with the stub backend", got)
	}
}

func TestRunRenderWorkerRejectsMalformedArgs(t *testing.T) {
	args := []string{"/in.pdf", "/out", "0", "5", "0", "not-a-float", "png", "0", "0", "1"}
	if got := runRenderWorker(args); got != int(pdfpar.ExitGenericFatal) {
		t.Fatalf("runRenderWorker() = %d, want ExitGenericFatal", got)
	}
}

func TestRunRenderWorkerRejectsUnknownFormat(t *testing.T) {
	args := []string{"/in.pdf", "/out", "0", "5", "0", "150", "tiff", "0", "0", "1"}
	if got := runRenderWorker(args); got != int(pdfpar.ExitGenericFatal) {
		t.Fatalf("runRenderWorker() = %d, want ExitGenericFatal", got)
	}
}

func TestRunRenderWorkerNoBackendLinkedFailsToOpenDocument(t *testing.T) {
	args := []string{"/in.pdf", "/out", "0", "5", "0", "150", "png", "0", "0", "1"}
	if got := runRenderWorker(args); got != int(pdfpar.ExitDocumentOpenError) {
		t.Fatalf("runRenderWorker() = %d, want ExitDocumentOpenError with the stub backend", got)
	}
}

func TestNoBackendOpenDocumentReturnsAnError(t *testing.T) {
	_, _, err := backend.OpenDocument("/anything.pdf")
	if err == nil {
		t.Fatal("expected the stub backend to report an error")
	}
}
