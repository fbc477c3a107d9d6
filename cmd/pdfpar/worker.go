// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"strconv"

	"github.com/Geek0x0/pdfpar"
	"github.com/sirupsen/logrus"
)

// runWorkerProtocol implements the §6.3 --worker subprocess protocol that
// RunMultiProcess's children re-exec into. args is os.Args with the
// leading "--worker" already stripped. It returns the process exit code;
// it never calls os.Exit itself so tests can drive it directly.
func runWorkerProtocol(args []string) int {
	switch len(args) {
	case 6:
		return runTextWorker(args)
	case 10, 11, 12:
		return runRenderWorker(args)
	default:
		os.Stderr.WriteString("pdfpar --worker: wrong argument count\n")
		return int(pdfpar.ExitGenericFatal)
	}
}

// runTextWorker handles: pdf_path output_path start end worker_id encoding
func runTextWorker(args []string) int {
	pdfPath, outputPath, startStr, endStr, _, encodingStr := args[0], args[1], args[2], args[3], args[4], args[5]

	start, err1 := strconv.Atoi(startStr)
	end, err2 := strconv.Atoi(endStr)
	if err1 != nil || err2 != nil || end < start {
		return int(pdfpar.ExitGenericFatal)
	}

	encoding, err := pdfpar.ParseTextEncoding(encodingStr)
	if err != nil {
		return int(pdfpar.ExitGenericFatal)
	}

	doc, _, err := backend.OpenDocument(pdfPath)
	if err != nil {
		return int(pdfpar.ExitDocumentOpenError)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return int(pdfpar.ExitWorkerFailure)
	}
	defer f.Close()

	// includeLeadingBOM is false: the coordinator writes one file-level
	// BOM when it merges every worker's temp file (§4.7 step 4).
	if err := pdfpar.ExtractTextRange(doc, start, end-start, encoding, false, f); err != nil {
		return int(pdfpar.ExitWorkerFailure)
	}
	return int(pdfpar.ExitSuccess)
}

// runRenderWorker handles:
// pdf_path output_dir start end worker_id dpi format render_quality force_alpha thread_count [jpeg_quality [benchmark]]
func runRenderWorker(args []string) int {
	pdfPath, outputPath, startStr, endStr := args[0], args[1], args[2], args[3]
	dpiStr, formatStr, renderQualityStr, forceAlphaStr, threadCountStr := args[5], args[6], args[7], args[8], args[9]

	start, err1 := strconv.Atoi(startStr)
	end, err2 := strconv.Atoi(endStr)
	dpi, err3 := strconv.ParseFloat(dpiStr, 64)
	renderQuality, err4 := strconv.Atoi(renderQualityStr)
	threadCount, err5 := strconv.Atoi(threadCountStr)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || end < start {
		return int(pdfpar.ExitGenericFatal)
	}

	container, err := parseImageFormat(formatStr)
	if err != nil {
		return int(pdfpar.ExitGenericFatal)
	}

	jpegQuality := 0
	benchmark := false
	if len(args) >= 11 {
		jpegQuality, _ = strconv.Atoi(args[10])
	}
	if len(args) == 12 {
		benchmark = args[11] == "1"
	}

	doc, factory, err := backend.OpenDocument(pdfPath)
	if err != nil {
		return int(pdfpar.ExitDocumentOpenError)
	}

	outDir, err := pdfpar.OpenOutputDirShared(outputPath)
	if err != nil {
		return int(pdfpar.ExitWorkerFailure)
	}
	defer outDir.Close()

	opts := pdfpar.RenderOptions{
		DPI:           dpi,
		PixelFormat:   pdfpar.FormatBGRx,
		Container:     container,
		RenderQuality: renderQuality,
		ForceAlpha:    forceAlphaStr == "1",
		JPEGQuality:   jpegQuality,
		BenchmarkMode: benchmark,
		ThreadCount:   threadCount,
	}

	hw := pdfpar.DetectHardware()
	logger := logrus.StandardLogger()

	meta, startupErr := pdfpar.Startup(nil)
	if startupErr != nil {
		return int(pdfpar.ExitWorkerFailure)
	}
	defer meta.Close()

	_, err = pdfpar.RenderPagesParallel(doc, factory, outDir, doc.FormEnv(), start, end-start, opts, hw, logger, meta)
	if err != nil {
		return int(pdfpar.ExitWorkerFailure)
	}
	return int(pdfpar.ExitSuccess)
}
