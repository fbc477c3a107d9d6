// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/Geek0x0/pdfpar"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--worker" {
		os.Exit(runWorkerProtocol(os.Args[2:]))
	}

	app := &cli.App{
		Name:  "pdfpar",
		Usage: "parallel PDF page rendering and text extraction",
		Commands: []*cli.Command{
			renderCommand(),
			textCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseImageFormat(s string) (pdfpar.ImageFormat, error) {
	switch s {
	case "", "png":
		return pdfpar.ImagePNG, nil
	case "jpg", "jpeg":
		return pdfpar.ImageJPEG, nil
	case "ppm":
		return pdfpar.ImagePPM, nil
	case "bgra":
		return pdfpar.ImageRawBGRA, nil
	default:
		return 0, fmt.Errorf("pdfpar: unknown --format %q", s)
	}
}

// resolveWorkerCount implements the §4.6.4 --bulk/--fast N aliases on
// top of --workers with a fixed precedence that does not depend on the
// order of the flags on the command line: --fast beats --bulk, which
// beats --workers. --bulk pins worker_count to 1; --fast N pins it to N,
// and an N of zero or less selects 4. --fast is an integer flag and
// always takes a value; a bare --fast with no N fails to parse.
func resolveWorkerCount(c *cli.Context) int {
	workerCount := 1
	if c.IsSet("workers") {
		workerCount = c.Int("workers")
	}
	if c.Bool("bulk") {
		workerCount = 1
	}
	if c.IsSet("fast") {
		n := c.Int("fast")
		if n <= 0 {
			n = 4
		}
		workerCount = n
	}
	if workerCount < 1 {
		workerCount = 1
	}
	return workerCount
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "render a page range to image files",
		ArgsUsage: "PDF_PATH",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "pages", Required: true, Usage: "N or A-B, 0-based"},
			&cli.StringFlag{Name: "out", Required: true, Usage: "output directory"},
			&cli.Float64Flag{Name: "dpi", Usage: "render at this DPI instead of --width/--height"},
			&cli.IntFlag{Name: "width"},
			&cli.IntFlag{Name: "height"},
			&cli.IntFlag{Name: "rotation"},
			&cli.StringFlag{Name: "format", Value: "png", Usage: "png|jpg|ppm|bgra"},
			&cli.IntFlag{Name: "jpeg-quality"},
			&cli.IntFlag{Name: "render-quality"},
			&cli.BoolFlag{Name: "force-alpha"},
			&cli.BoolFlag{Name: "grayscale"},
			&cli.BoolFlag{Name: "benchmark"},
			&cli.IntFlag{Name: "threads", Usage: "0 selects the adaptive thread count"},
			&cli.IntFlag{Name: "workers", Value: 1},
			&cli.BoolFlag{Name: "bulk", Usage: "alias for --workers=1"},
			&cli.IntFlag{Name: "fast", Usage: "alias for --workers=N; N <= 0 selects 4"},
		},
		Action: runRenderCommand,
	}
}

func runRenderCommand(c *cli.Context) error {
	pdfPath := c.Args().First()
	if pdfPath == "" {
		return cli.Exit("pdfpar render: missing PDF_PATH", int(pdfpar.ExitGenericFatal))
	}

	start, end, err := pdfpar.ParsePageRange(c.String("pages"))
	if err != nil {
		return cli.Exit(err, int(pdfpar.ExitGenericFatal))
	}
	container, err := parseImageFormat(c.String("format"))
	if err != nil {
		return cli.Exit(err, int(pdfpar.ExitGenericFatal))
	}

	doc, factory, err := backend.OpenDocument(pdfPath)
	if err != nil {
		return cli.Exit(err, int(pdfpar.ExitDocumentOpenError))
	}
	start, count := pdfpar.ClampPageRange(start, end, doc.PageCount())
	if count <= 0 {
		return cli.Exit("pdfpar render: page range is empty", int(pdfpar.ExitGenericFatal))
	}

	workerCount := resolveWorkerCount(c)
	threadCount := c.Int("threads")
	hw := pdfpar.DetectHardware()
	logger := logrus.StandardLogger()

	meta, err := pdfpar.Startup(nil)
	if err != nil {
		return cli.Exit(err, int(pdfpar.ExitWorkerFailure))
	}
	defer meta.Close()

	opts := pdfpar.RenderOptions{
		W:             c.Int("width"),
		H:             c.Int("height"),
		Rotation:      c.Int("rotation"),
		DPI:           c.Float64("dpi"),
		PixelFormat:   pdfpar.FormatBGRx,
		Container:     container,
		JPEGQuality:   c.Int("jpeg-quality"),
		RenderQuality: c.Int("render-quality"),
		ForceAlpha:    c.Bool("force-alpha"),
		BenchmarkMode: c.Bool("benchmark"),
		ThreadCount:   threadCount,
	}
	if c.Bool("grayscale") {
		opts.PixelFormat = pdfpar.FormatGray
	}

	if workerCount > 1 {
		mpOpts := pdfpar.MultiProcessOptions{
			BinaryPath:    os.Args[0],
			PDFPath:       pdfPath,
			OutputPath:    c.String("out"),
			Mode:          pdfpar.ModeRender,
			WorkerCount:   workerCount,
			ThreadCount:   threadCount,
			Format:        c.String("format"),
			DPI:           opts.DPI,
			RenderQuality: opts.RenderQuality,
			ForceAlpha:    opts.ForceAlpha,
			JPEGQuality:   opts.JPEGQuality,
			BenchmarkMode: opts.BenchmarkMode,
		}
		return pdfpar.RunMultiProcess(mpOpts, start, count, hw.NumCPU, logger)
	}

	outDir, err := pdfpar.OpenOutputDir(c.String("out"))
	if err != nil {
		return cli.Exit(err, int(pdfpar.ExitWorkerFailure))
	}
	defer outDir.Close()

	summary, err := pdfpar.RenderPagesParallel(doc, factory, outDir, doc.FormEnv(), start, count, opts, hw, logger, meta)
	logger.WithFields(logrus.Fields{
		"mode":     summary.ModeNotice,
		"rendered": summary.PagesRendered,
		"smart":    summary.SmartModeHits,
		"failures": summary.Failures,
		"wall":     summary.WallTime,
	}).Info("render complete")
	if err != nil {
		return cli.Exit(err, int(pdfpar.ExitWorkerFailure))
	}
	return nil
}

func textCommand() *cli.Command {
	return &cli.Command{
		Name:      "text",
		Usage:     "extract page text",
		ArgsUsage: "PDF_PATH",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "pages", Required: true, Usage: "N or A-B, 0-based"},
			&cli.StringFlag{Name: "out", Required: true, Usage: "output file"},
			&cli.StringFlag{Name: "encoding", Value: "utf8", Usage: "utf8|utf32le"},
			&cli.BoolFlag{Name: "jsonl", Usage: "one JSON object per character instead of a text stream"},
			&cli.IntFlag{Name: "workers", Value: 1},
			&cli.BoolFlag{Name: "bulk", Usage: "alias for --workers=1"},
			&cli.IntFlag{Name: "fast", Usage: "alias for --workers=N; N <= 0 selects 4"},
		},
		Action: runTextCommand,
	}
}

func runTextCommand(c *cli.Context) error {
	pdfPath := c.Args().First()
	if pdfPath == "" {
		return cli.Exit("pdfpar text: missing PDF_PATH", int(pdfpar.ExitGenericFatal))
	}

	start, end, err := pdfpar.ParsePageRange(c.String("pages"))
	if err != nil {
		return cli.Exit(err, int(pdfpar.ExitGenericFatal))
	}

	doc, _, err := backend.OpenDocument(pdfPath)
	if err != nil {
		return cli.Exit(err, int(pdfpar.ExitDocumentOpenError))
	}
	start, count := pdfpar.ClampPageRange(start, end, doc.PageCount())
	if count <= 0 {
		return cli.Exit("pdfpar text: page range is empty", int(pdfpar.ExitGenericFatal))
	}

	if c.Bool("jsonl") {
		return runTextJSONL(doc, start, count, c.String("out"))
	}

	workerCount := resolveWorkerCount(c)
	if workerCount > 1 {
		mpOpts := pdfpar.MultiProcessOptions{
			BinaryPath:  os.Args[0],
			PDFPath:     pdfPath,
			OutputPath:  c.String("out"),
			Mode:        pdfpar.ModeTextExtract,
			WorkerCount: workerCount,
			Encoding:    c.String("encoding"),
		}
		hw := pdfpar.DetectHardware()
		return pdfpar.RunMultiProcess(mpOpts, start, count, hw.NumCPU, logrus.StandardLogger())
	}

	encoding, err := pdfpar.ParseTextEncoding(c.String("encoding"))
	if err != nil {
		return cli.Exit(err, int(pdfpar.ExitGenericFatal))
	}

	f, err := os.Create(c.String("out"))
	if err != nil {
		return cli.Exit(err, int(pdfpar.ExitWorkerFailure))
	}
	defer f.Close()

	if err := pdfpar.ExtractTextRange(doc, start, count, encoding, true, f); err != nil {
		return cli.Exit(err, int(pdfpar.ExitWorkerFailure))
	}
	return nil
}

// runTextJSONL writes the §6.4 JSONL schema directly, one page at a
// time under the document's page-load mutex. It has no multi-process
// form: the schema is one page's worth of lines at a time and is cheap
// enough that splitting it across worker processes buys nothing.
func runTextJSONL(doc pdfpar.Document, start, count int, outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return cli.Exit(err, int(pdfpar.ExitWorkerFailure))
	}
	defer f.Close()

	mutex := doc.PageLoadMutex()
	for i := 0; i < count; i++ {
		pageIndex := start + i
		mutex.Lock()
		page, err := doc.LoadPage(pageIndex)
		if err != nil {
			mutex.Unlock()
			return cli.Exit(err, int(pdfpar.ExitWorkerFailure))
		}
		err = pdfpar.WriteJSONL(f, page.Text())
		page.Close()
		mutex.Unlock()
		if err != nil {
			return cli.Exit(err, int(pdfpar.ExitWorkerFailure))
		}
	}
	return nil
}
