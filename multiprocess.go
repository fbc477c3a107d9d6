// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// WorkerExitCode enumerates the §6.3 worker subprocess exit codes.
type WorkerExitCode int

const (
	ExitSuccess           WorkerExitCode = 0
	ExitGenericFatal      WorkerExitCode = 1
	ExitDocumentOpenError WorkerExitCode = 2
	ExitWorkerFailure     WorkerExitCode = 3
)

// MultiProcessMode selects which §6.3 command form each child runs.
type MultiProcessMode int

const (
	ModeTextExtract MultiProcessMode = iota
	ModeRender
)

// MultiProcessOptions configures the §4.7 coordinator.
type MultiProcessOptions struct {
	BinaryPath    string // path to re-exec, typically os.Args[0]
	PDFPath       string
	OutputPath    string // output file (text) or output dir (render)
	Mode          MultiProcessMode
	WorkerCount   int
	ThreadCount   int
	Encoding      string // "utf8" | "utf32le", text mode
	Format        string // "png" | "jpg" | "ppm" | "bgra", render mode
	DPI           float64
	RenderQuality int
	ForceAlpha    bool
	JPEGQuality   int
	BenchmarkMode bool
}

// mpChild tracks one forked worker and the temp file it wrote to, if any.
type mpChild struct {
	cmd      *exec.Cmd
	tempPath string
}

// ceilDiv computes ceil(a/b) for positive ints.
func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}

// RunMultiProcess implements §4.7: the controller itself does not
// render; it forks one child per worker, each re-exec'ing binaryPath
// with the --worker protocol (§6.3), then merges outputs.
func RunMultiProcess(opts MultiProcessOptions, start, count, hardwareThreads int, logger *logrus.Logger) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	log := logger.WithField("component", "multiprocess")

	if opts.WorkerCount < 1 || opts.WorkerCount > 16 {
		return wrapError("multiprocess", ErrWorkerCountInvalid)
	}

	threadCount := opts.ThreadCount
	hybrid := threadCount > 1 && opts.WorkerCount > 1
	if hybrid {
		capped := hardwareThreads / opts.WorkerCount
		if capped < 1 {
			capped = 1
		}
		if threadCount > capped {
			threadCount = capped
		}
		log.WithFields(logrus.Fields{
			"mode":         fmt.Sprintf("hybrid %dx%d", opts.WorkerCount, threadCount),
			"worker_count": opts.WorkerCount,
			"thread_count": threadCount,
		}).Info("render dispatch")
	} else if opts.WorkerCount > 1 {
		log.WithField("mode", "multi-process").WithField("worker_count", opts.WorkerCount).Info("render dispatch")
	}

	pagesPerWorker := ceilDiv(count, opts.WorkerCount)

	children := make([]mpChild, 0, opts.WorkerCount)

	cleanup := func() {
		for _, c := range children {
			if c.cmd.Process != nil {
				_ = c.cmd.Process.Kill()
			}
			if c.tempPath != "" {
				_ = os.Remove(c.tempPath)
			}
		}
	}

	for i := 0; i < opts.WorkerCount; i++ {
		subStart := start + i*pagesPerWorker
		subEnd := subStart + pagesPerWorker
		if subEnd > start+count {
			subEnd = start + count
		}
		if subStart >= subEnd {
			continue
		}

		var dest, tempPath string
		if opts.Mode == ModeTextExtract {
			tempPath = filepath.Join(os.TempDir(), "pdfpar-"+uuid.NewString()+".tmp")
			dest = tempPath
		} else {
			dest = opts.OutputPath
		}

		args := workerArgs(opts, dest, subStart, subEnd, i, threadCount)
		cmd := exec.Command(opts.BinaryPath, args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Start(); err != nil {
			cleanup()
			return wrapError("multiprocess", ErrCannotOpen)
		}
		children = append(children, mpChild{cmd: cmd, tempPath: tempPath})
	}

	var waitErr error
	for _, c := range children {
		if err := c.cmd.Wait(); err != nil {
			waitErr = err
			log.WithError(err).Warn("worker exited non-zero")
		}
	}
	if waitErr != nil {
		cleanup()
		return wrapError("multiprocess", ErrInvalidDocument)
	}

	if opts.Mode == ModeTextExtract {
		if err := mergeTextWorkerOutputs(opts.OutputPath, opts.Encoding, children); err != nil {
			cleanup()
			return err
		}
	}

	for _, c := range children {
		if c.tempPath != "" {
			_ = os.Remove(c.tempPath)
		}
	}
	return nil
}

func workerArgs(opts MultiProcessOptions, dest string, start, end, workerID, threadCount int) []string {
	args := []string{"--worker", opts.PDFPath, dest, strconv.Itoa(start), strconv.Itoa(end), strconv.Itoa(workerID)}
	if opts.Mode == ModeTextExtract {
		encoding := opts.Encoding
		if encoding == "" {
			encoding = "utf8"
		}
		return append(args, encoding)
	}

	forceAlpha := "0"
	if opts.ForceAlpha {
		forceAlpha = "1"
	}
	args = append(args,
		strconv.FormatFloat(opts.DPI, 'f', -1, 64),
		opts.Format,
		strconv.Itoa(opts.RenderQuality),
		forceAlpha,
		strconv.Itoa(threadCount),
	)
	if opts.JPEGQuality > 0 {
		args = append(args, strconv.Itoa(opts.JPEGQuality))
		if opts.BenchmarkMode {
			args = append(args, "1")
		}
	}
	return args
}

// mergeTextWorkerOutputs implements §4.7 step 4 for text extraction: one
// leading byte-order mark, then the worker temp files concatenated in
// worker-id order.
func mergeTextWorkerOutputs(outputPath, encoding string, children []mpChild) error {
	enc, err := ParseTextEncoding(defaultEncoding(encoding))
	if err != nil {
		return err
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return wrapPathError("merge-text-output", outputPath, err)
	}
	defer out.Close()

	bom := utf8BOM
	if enc == EncodingUTF32LE {
		bom = utf32leBOM
	}
	if _, err := out.Write(bom); err != nil {
		return wrapPathError("merge-text-output", outputPath, err)
	}

	for _, c := range children {
		data, err := os.ReadFile(c.tempPath)
		if err != nil {
			return wrapPathError("merge-text-output", c.tempPath, err)
		}
		if _, err := out.Write(data); err != nil {
			return wrapPathError("merge-text-output", outputPath, err)
		}
	}
	return nil
}

func defaultEncoding(s string) string {
	if s == "" {
		return "utf8"
	}
	return s
}
