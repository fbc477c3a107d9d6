// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// RenderOptions configures render_pages_parallel (§4.6).
type RenderOptions struct {
	W, H          int
	Rotation      int
	Flags         int
	DPI           float64
	PixelFormat   PixelFormat
	Container     ImageFormat
	JPEGQuality   int
	RenderQuality int
	ForceAlpha    bool
	BenchmarkMode bool
	ThreadCount   int
	MaxQueueDepth int
}

// RenderSummary is the §4.6.6 metrics-summary supplement.
type RenderSummary struct {
	PagesRendered int
	SmartModeHits int
	Failures      int
	WallTime      time.Duration
	ThreadCount   int
	ModeNotice    string
}

// AdaptiveThreadCount implements §4.6.1: P is the document's total page
// count, S its file size in bytes, H the hardware thread count (pass 4
// when unknown).
func AdaptiveThreadCount(pageCount int, fileSize int64, hardwareThreads int) int {
	if hardwareThreads <= 0 {
		hardwareThreads = 4
	}
	if pageCount < 4 {
		return 1
	}

	min3 := func(a, b, c int) int {
		m := a
		if b < m {
			m = b
		}
		if c < m {
			m = c
		}
		return m
	}

	bytesPerPage := fileSize / int64(pageCount)
	switch {
	case bytesPerPage < 15000: // text-heavy
		if pageCount < 400 {
			return min3(pageCount, 16, hardwareThreads)
		}
		return min3(pageCount, 4, hardwareThreads)
	case bytesPerPage >= 100000: // image-heavy
		if pageCount < 150 {
			return min3(pageCount, 4, hardwareThreads)
		}
		if pageCount < 300 {
			return min3(pageCount, 16, hardwareThreads)
		}
		return min3(pageCount, 8, hardwareThreads)
	default: // mixed
		if pageCount < 150 {
			return min3(pageCount, 4, hardwareThreads)
		}
		if pageCount < 300 {
			return min3(pageCount, 8, hardwareThreads)
		}
		return min3(pageCount, 4, hardwareThreads)
	}
}

// resultBitmap adapts a V2 RenderResult's raw fields to the Bitmap
// interface so the output encoders can consume either a live Bitmap or
// a worker-pool result with the same code path.
type resultBitmap struct {
	w, h, stride int
	format       PixelFormat
	buf          []byte
}

func (b *resultBitmap) Width() int           { return b.w }
func (b *resultBitmap) Height() int          { return b.h }
func (b *resultBitmap) Format() PixelFormat  { return b.format }
func (b *resultBitmap) Stride() int          { return b.stride }
func (b *resultBitmap) Buffer() []byte       { return b.buf }
func (b *resultBitmap) FillRect(_ uint32)    {}
func (b *resultBitmap) Destroy()             {}

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

// writerPoolSize picks how many goroutines back the §5.1 async writer
// pool for one render batch: one per render worker, so a fully-loaded
// render pool never outruns its own write capacity.
func writerPoolSize(threadCount int) int {
	if threadCount < 1 {
		return 1
	}
	return threadCount
}

// drainWriterPool waits for every outstanding write and folds any write
// failures into the summary. A page whose encode succeeded but whose
// write failed later was optimistically counted as rendered by the
// caller; this corrects that count down per §7 ("any write error on the
// final output is fatal for the current file").
func drainWriterPool(writer *WriterPool, summary *RenderSummary, log *logrus.Entry) {
	writer.WaitAll()
	for _, err := range writer.Errors() {
		log.WithError(err).Warn("write failed")
		summary.Failures++
		if summary.PagesRendered > 0 {
			summary.PagesRendered--
		}
	}
}

// RenderPagesParallel is the §4.6 entry point. factory supplies bitmap
// allocation, outDir is where page_NNNNN.<ext> files land, form may be
// nil. meta, typically the cache returned by Startup, memoizes per-page
// dimensions/transparency across the pre-warm and render steps; nil
// disables the memoization.
func RenderPagesParallel(doc Document, factory BitmapFactory, outDir *OutputDir, form FormEnv, start, count int, opts RenderOptions, hw HardwareInfo, logger *logrus.Logger, meta *MetadataCache) (RenderSummary, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	log := logger.WithField("component", "controller")
	begin := time.Now()

	if doc == nil || count <= 0 || start < 0 {
		return RenderSummary{}, wrapError("render-pages-parallel", ErrInvalidArgument)
	}
	pageCount := doc.PageCount()
	if start >= pageCount {
		return RenderSummary{}, wrapError("render-pages-parallel", ErrInvalidArgument)
	}
	if count > pageCount-start {
		count = pageCount - start
	}
	if opts.W == 0 && opts.H == 0 && opts.DPI <= 0 {
		return RenderSummary{}, wrapError("render-pages-parallel", ErrInvalidArgument)
	}

	threadCount := opts.ThreadCount
	if threadCount <= 0 {
		threadCount = AdaptiveThreadCount(pageCount, doc.FileSize(), hw.NumCPU)
	}

	summary := RenderSummary{ThreadCount: threadCount}

	if threadCount == 1 || count == 1 {
		summary.ModeNotice = "single-threaded"
		log.WithField("mode", summary.ModeNotice).Info("render dispatch")
		writer := NewWriterPool(writerPoolSize(threadCount))
		renderSequential(doc, factory, outDir, form, start, count, opts, &summary, log, writer, meta)
		drainWriterPool(writer, &summary, log)
		summary.WallTime = time.Since(begin)
		return summary, finalErr(summary)
	}

	summary.ModeNotice = "multi-threaded"
	log.WithFields(logrus.Fields{"mode": summary.ModeNotice, "threads": threadCount}).Info("render dispatch")

	done := make([]bool, count)
	if !opts.BenchmarkMode && opts.Container != ImagePPM && opts.Container != ImageRawBGRA {
		runSmartModePrePass(doc, outDir, start, count, done, &summary, log)
	}

	prewarmNonSmartPages(doc, form, start, count, done, meta)

	pool := GetOrCreateWorkerPool(factory, logger)
	pool.EnsureWorkerCount(threadCount)

	depth := opts.MaxQueueDepth
	if depth == 0 && count > 256 {
		depth = 256
	}
	pool.SetMaxQueueDepth(depth)

	writer := NewWriterPool(writerPoolSize(threadCount))
	collection := NewPageHandleCollection()
	var failures, rendered int64

	for _, run := range contiguousRuns(done, start, count) {
		tasks := make([]*RenderTask, 0, run.count)
		for i := 0; i < run.count; i++ {
			pageIndex := run.start + i
			tasks = append(tasks, &RenderTask{
				Doc:        doc,
				PageIndex:  pageIndex,
				W:          opts.W,
				H:          opts.H,
				Rotation:   opts.Rotation,
				Flags:      opts.Flags | opts.RenderQuality,
				Format:     FormatBGRx, // §4.6.3: always BGRx internally
				DPI:        opts.DPI,
				Form:       form,
				Collection: collection,
				V2:         true,
				Meta:       meta,
				Callback:   makeRenderCallback(outDir, opts, &failures, &rendered, log, writer),
			})
		}
		pool.EnqueueBatch(tasks)
	}

	pool.WaitForCompletion()

	mutex := doc.PageLoadMutex()
	mutex.Lock()
	collection.CloseAll()
	mutex.Unlock()

	pool.SignalClearPools()

	summary.PagesRendered = int(rendered) + summary.SmartModeHits
	summary.Failures += int(failures)
	drainWriterPool(writer, &summary, log)
	summary.WallTime = time.Since(begin)
	return summary, finalErr(summary)
}

func finalErr(s RenderSummary) error {
	if s.Failures > 0 {
		return wrapError("render-pages-parallel", ErrInvalidDocument)
	}
	return nil
}

// makeRenderCallback's write step never touches disk itself: it submits
// to writer and counts the page as rendered immediately, per §5.1 ("never
// blocks the calling render callback"). drainWriterPool corrects
// PagesRendered/Failures afterward for any write that failed.
func makeRenderCallback(outDir *OutputDir, opts RenderOptions, failures, rendered *int64, log *logrus.Entry, writer *WriterPool) CompletionFunc {
	return func(res RenderResult) {
		if res.Err != nil {
			atomic.AddInt64(failures, 1)
			log.WithError(res.Err).WithField("page", res.PageIndex).Warn("render failed")
			return
		}
		bmp := &resultBitmap{w: res.Width, h: res.Height, stride: res.Stride, format: res.Format, buf: res.Buffer}
		data, err := EncodeBitmap(bmp, opts.PixelFormat, opts.Container, opts.JPEGQuality, opts.ForceAlpha)
		if err != nil {
			atomic.AddInt64(failures, 1)
			log.WithError(err).WithField("page", res.PageIndex).Warn("encode failed")
			return
		}
		path := outDir.JoinPage(res.PageIndex, opts.Container.Ext())
		writer.SubmitWrite(path, data)
		atomic.AddInt64(rendered, 1)
	}
}

// renderSequential is the §4.6 step 3 fast path: no worker pool, no
// pre-warm, no smart-mode batching distinction — each page still gets
// the smart-mode shortcut individually when eligible, to preserve
// byte-exact equivalence with the multi-worker path (§8).
func renderSequential(doc Document, factory BitmapFactory, outDir *OutputDir, form FormEnv, start, count int, opts RenderOptions, summary *RenderSummary, log *logrus.Entry, writer *WriterPool, meta *MetadataCache) {
	pool := NewBitmapPool(factory)
	mutex := doc.PageLoadMutex()

	for i := 0; i < count; i++ {
		pageIndex := start + i
		mutex.Lock()

		if !opts.BenchmarkMode && opts.Container != ImagePPM && opts.Container != ImageRawBGRA {
			if tryWriteSmartModePassthrough(doc, outDir, pageIndex) {
				mutex.Unlock()
				summary.SmartModeHits++
				continue
			}
		}

		page, err := doc.LoadPage(pageIndex)
		if err != nil {
			mutex.Unlock()
			summary.Failures++
			log.WithError(err).WithField("page", pageIndex).Warn("load failed")
			continue
		}
		if form != nil {
			page.OnAfterLoad(form)
			page.OnOpenAction(form)
		}

		var metaKey string
		var cached PageMeta
		haveCached := false
		if meta != nil {
			metaKey = Key(doc, pageIndex)
			cached, haveCached = meta.Get(metaKey)
		}

		w, h := opts.W, opts.H
		var ptsW, ptsH float64
		haveDims := false
		if opts.DPI > 0 && w == 0 && h == 0 {
			scale := ScaleForDPI(opts.DPI)
			if haveCached {
				ptsW, ptsH = cached.WidthPts, cached.HeightPts
			} else {
				ptsW, ptsH = page.SizePoints()
			}
			haveDims = true
			w = DimensionPixels(ptsW, scale)
			h = DimensionPixels(ptsH, scale)
		}

		bmp, err := pool.Acquire(w, h, FormatBGRx)
		if err != nil {
			closeSequentialPage(page, form)
			mutex.Unlock()
			summary.Failures++
			log.WithError(err).WithField("page", pageIndex).Warn("acquire bitmap failed")
			continue
		}

		transparent := cached.Transparent
		if !haveCached {
			transparent = page.HasTransparency()
		}
		if transparent {
			bmp.FillRect(0x00000000)
		} else {
			bmp.FillRect(0xFFFFFFFF)
		}

		if meta != nil && !haveCached && haveDims {
			meta.Put(metaKey, PageMeta{WidthPts: ptsW, HeightPts: ptsH, Transparent: transparent})
		}

		renderErr := page.RenderBitmap(bmp, 0, 0, w, h, opts.Rotation, opts.Flags|opts.RenderQuality)
		if renderErr == nil && form != nil {
			renderErr = form.DrawOverlay(bmp, page, 0, 0, w, h, opts.Rotation, opts.Flags|opts.RenderQuality)
		}

		closeSequentialPage(page, form)
		mutex.Unlock()

		if renderErr != nil {
			pool.Release(bmp)
			summary.Failures++
			log.WithError(renderErr).WithField("page", pageIndex).Warn("render failed")
			continue
		}

		data, err := EncodeBitmap(bmp, opts.PixelFormat, opts.Container, opts.JPEGQuality, opts.ForceAlpha)
		pool.Release(bmp)
		if err != nil {
			summary.Failures++
			log.WithError(err).WithField("page", pageIndex).Warn("encode failed")
			continue
		}
		writer.SubmitWrite(outDir.JoinPage(pageIndex, opts.Container.Ext()), data)
		summary.PagesRendered++
	}
}

func closeSequentialPage(page Page, form FormEnv) {
	if form != nil {
		page.OnCloseAction(form)
		page.OnBeforeClose(form)
	}
	page.Close()
}

// runSmartModePrePass implements §4.6 step 4.
func runSmartModePrePass(doc Document, outDir *OutputDir, start, count int, done []bool, summary *RenderSummary, log *logrus.Entry) {
	mutex := doc.PageLoadMutex()
	for i := 0; i < count; i++ {
		pageIndex := start + i
		mutex.Lock()
		hit := tryWriteSmartModePassthrough(doc, outDir, pageIndex)
		mutex.Unlock()
		if hit {
			done[i] = true
			summary.SmartModeHits++
		}
	}
	_ = log
}

// tryWriteSmartModePassthrough implements the §4.6 step 4 / §9 "smart
// mode is a predicate, not a heuristic" exact test. Caller holds the
// document's page-load mutex.
func tryWriteSmartModePassthrough(doc Document, outDir *OutputDir, pageIndex int) bool {
	page, err := doc.LoadPage(pageIndex)
	if err != nil {
		return false
	}
	defer page.Close()

	if page.ObjectCount() != 1 {
		return false
	}
	obj := page.Object(0)
	if obj.Type() != ObjectImage || obj.ImageFilter() != "DCTDecode" {
		return false
	}

	ptsW, ptsH := page.SizePoints()
	pageArea := ptsW * ptsH
	if pageArea <= 0 || obj.BoundsArea() < 0.95*pageArea {
		return false
	}

	data, err := obj.ImageRawData()
	if err != nil || len(data) == 0 || !ValidJPEGSignature(data) {
		return false
	}

	return writeFile(outDir.JoinPage(pageIndex, "jpg"), data) == nil
}

// prewarmNonSmartPages implements §4.6 step 5. While each page is loaded
// to page it in, it also memoizes the page's dimensions and transparency
// into meta (when set) so the worker that later renders it can skip
// re-querying the parser for the same facts.
func prewarmNonSmartPages(doc Document, form FormEnv, start, count int, done []bool, meta *MetadataCache) {
	mutex := doc.PageLoadMutex()
	for i := 0; i < count; i++ {
		if done[i] {
			continue
		}
		pageIndex := start + i
		mutex.Lock()
		page, err := doc.LoadPage(pageIndex)
		if err == nil {
			if meta != nil {
				ptsW, ptsH := page.SizePoints()
				meta.Put(Key(doc, pageIndex), PageMeta{
					WidthPts:    ptsW,
					HeightPts:   ptsH,
					Transparent: page.HasTransparency(),
				})
			}
			closeSequentialPage(page, form)
		}
		mutex.Unlock()
	}
}

type pageRun struct {
	start, count int
}

// contiguousRuns implements §4.6 step 6: maximal contiguous runs of
// non-smart page indices within [start, start+count).
func contiguousRuns(done []bool, start, count int) []pageRun {
	var runs []pageRun
	runStart := -1
	for i := 0; i < count; i++ {
		if done[i] {
			if runStart >= 0 {
				runs = append(runs, pageRun{start: start + runStart, count: i - runStart})
				runStart = -1
			}
			continue
		}
		if runStart < 0 {
			runStart = i
		}
	}
	if runStart >= 0 {
		runs = append(runs, pageRun{start: start + runStart, count: count - runStart})
	}
	return runs
}
