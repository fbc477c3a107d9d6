// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package testdoc is a small in-memory implementation of the pdfpar
// parser contract (pdfpar.Document, pdfpar.Page, pdfpar.Bitmap, ...). It
// exists only to drive the pdfpar package's own tests; nothing in this
// repository ships it as a production parser backend.
package testdoc

import (
	"sync"

	"github.com/Geek0x0/pdfpar"
)

// Char is one character on a fake page's text layer.
type Char struct {
	Unicode    uint32
	Box        [4]float64
	Origin     [2]float64
	Angle      float64
	FontSize   float64
	FillColor  [4]uint8
	StrokeColor [4]uint8
	Matrix     [6]float64
	Generated  bool
	Hyphen     bool
	FontName   string
	FontFlags  int
	FontWeight int
}

// PageSpec describes one page of a fake Document.
type PageSpec struct {
	Width, Height float64 // points
	Transparent   bool
	Chars         []Char
	Objects       []Object
	RenderErr     error
}

// Object is a fake PageObject.
type Object struct {
	Kind        pdfpar.ObjectType
	Area        float64
	Filter      string
	RawData     []byte
	RawDataErr  error
}

// Document is a fake pdfpar.Document backed entirely by in-memory data.
type Document struct {
	pages    []PageSpec
	fileSize int64
	mu       sync.Mutex
	form     pdfpar.FormEnv

	mtx sync.Mutex // the page-load mutex handed out via PageLoadMutex

	// LoadCount and CloseCount track LoadPage/Page.Close calls for tests
	// that assert on the worker pool's deferred-destruction discipline.
	LoadCount  int
	CloseCount int
}

// New builds a Document from the given pages. fileSize feeds the §4.6.1
// adaptive thread-count heuristic; pass 0 when the test doesn't care.
func New(pages []PageSpec, fileSize int64) *Document {
	return &Document{pages: pages, fileSize: fileSize}
}

// SetFormEnv attaches a form environment; nil (the default) means no form.
func (d *Document) SetFormEnv(f pdfpar.FormEnv) { d.form = f }

func (d *Document) PageCount() int       { return len(d.pages) }
func (d *Document) FileSize() int64      { return d.fileSize }
func (d *Document) FormEnv() pdfpar.FormEnv { return d.form }
func (d *Document) PageLoadMutex() pdfpar.Locker { return &d.mtx }

func (d *Document) LoadPage(index int) (pdfpar.Page, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, pdfpar.ErrInvalidArgument
	}
	d.mu.Lock()
	d.LoadCount++
	d.mu.Unlock()
	spec := d.pages[index]
	return &page{doc: d, spec: spec}, nil
}

type page struct {
	doc  *Document
	spec PageSpec
}

func (p *page) Close() {
	p.doc.mu.Lock()
	p.doc.CloseCount++
	p.doc.mu.Unlock()
}

func (p *page) SizePoints() (float64, float64) { return p.spec.Width, p.spec.Height }
func (p *page) HasTransparency() bool           { return p.spec.Transparent }

func (p *page) RenderBitmap(bmp pdfpar.Bitmap, x, y, w, h, rotation, flags int) error {
	return p.spec.RenderErr
}

func (p *page) ObjectCount() int { return len(p.spec.Objects) }

func (p *page) Object(i int) pdfpar.PageObject {
	return &pageObject{spec: p.spec.Objects[i]}
}

func (p *page) Text() pdfpar.TextEnumerator {
	return &textEnumerator{chars: p.spec.Chars}
}

func (p *page) OnAfterLoad(pdfpar.FormEnv)   {}
func (p *page) OnOpenAction(pdfpar.FormEnv)  {}
func (p *page) OnCloseAction(pdfpar.FormEnv) {}
func (p *page) OnBeforeClose(pdfpar.FormEnv) {}

type pageObject struct {
	spec Object
}

func (o *pageObject) Type() pdfpar.ObjectType { return o.spec.Kind }
func (o *pageObject) BoundsArea() float64     { return o.spec.Area }
func (o *pageObject) ImageFilter() string     { return o.spec.Filter }
func (o *pageObject) ImageRawData() ([]byte, error) {
	return o.spec.RawData, o.spec.RawDataErr
}

type textEnumerator struct {
	chars []Char
}

func (t *textEnumerator) CharCount() int { return len(t.chars) }
func (t *textEnumerator) CharUnicode(i int) uint32 { return t.chars[i].Unicode }
func (t *textEnumerator) CharBox(i int) (x0, y0, x1, y1 float64) {
	b := t.chars[i].Box
	return b[0], b[1], b[2], b[3]
}
func (t *textEnumerator) CharOrigin(i int) (x, y float64) {
	o := t.chars[i].Origin
	return o[0], o[1]
}
func (t *textEnumerator) CharAngle(i int) float64    { return t.chars[i].Angle }
func (t *textEnumerator) CharFontSize(i int) float64 { return t.chars[i].FontSize }
func (t *textEnumerator) CharFillColor(i int) (r, g, b, a uint8) {
	c := t.chars[i].FillColor
	return c[0], c[1], c[2], c[3]
}
func (t *textEnumerator) CharStrokeColor(i int) (r, g, b, a uint8) {
	c := t.chars[i].StrokeColor
	return c[0], c[1], c[2], c[3]
}
func (t *textEnumerator) CharMatrix(i int) (a, b, c, d, e, f float64) {
	m := t.chars[i].Matrix
	return m[0], m[1], m[2], m[3], m[4], m[5]
}
func (t *textEnumerator) CharIsGenerated(i int) bool { return t.chars[i].Generated }
func (t *textEnumerator) CharIsHyphen(i int) bool    { return t.chars[i].Hyphen }
func (t *textEnumerator) CharFontName(i int) string  { return t.chars[i].FontName }
func (t *textEnumerator) CharFontFlags(i int) int    { return t.chars[i].FontFlags }
func (t *textEnumerator) CharFontWeight(i int) int   { return t.chars[i].FontWeight }

// Bitmap is a fake pdfpar.Bitmap backed by a plain byte slice.
type Bitmap struct {
	w, h   int
	format pdfpar.PixelFormat
	buf    []byte

	mu        sync.Mutex
	Destroyed bool
}

func newBitmap(w, h int, format pdfpar.PixelFormat) *Bitmap {
	stride := w * format.BytesPerPixel()
	return &Bitmap{w: w, h: h, format: format, buf: make([]byte, stride*h)}
}

func (b *Bitmap) Width() int                 { return b.w }
func (b *Bitmap) Height() int                { return b.h }
func (b *Bitmap) Format() pdfpar.PixelFormat { return b.format }
func (b *Bitmap) Stride() int                { return b.w * b.format.BytesPerPixel() }
func (b *Bitmap) Buffer() []byte             { return b.buf }

func (b *Bitmap) FillRect(color uint32) {
	bpp := b.format.BytesPerPixel()
	var px [4]byte
	px[0] = byte(color)
	px[1] = byte(color >> 8)
	px[2] = byte(color >> 16)
	px[3] = byte(color >> 24)
	for i := 0; i+bpp <= len(b.buf); i += bpp {
		copy(b.buf[i:i+bpp], px[:bpp])
	}
}

func (b *Bitmap) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Destroyed = true
}

// Factory is a fake pdfpar.BitmapFactory that allocates plain Bitmaps.
type Factory struct {
	mu      sync.Mutex
	Created int
}

func (f *Factory) CreateBitmap(w, h int, format pdfpar.PixelFormat) (pdfpar.Bitmap, error) {
	f.mu.Lock()
	f.Created++
	f.mu.Unlock()
	return newBitmap(w, h, format), nil
}
