// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

// This file is the §6.1/§6.2 contract: the shape of the underlying PDF
// parser library that the rest of this package treats as an external
// collaborator. Nothing in this module implements these interfaces for
// production use — a real backend (CGo pdfium bindings, a pure-Go parser,
// whatever) satisfies them from outside. internal/testdoc provides the
// only concrete implementation in this repository, and it exists solely
// to drive this package's own tests.

// PixelFormat enumerates the three output pixel layouts the core supports.
type PixelFormat int

const (
	// FormatBGRx is 4 bytes/pixel, B,G,R,unused. Always the internal
	// rendering format (§4.6.3) regardless of the requested output format.
	FormatBGRx PixelFormat = 0
	// FormatBGR is 3 bytes/pixel, B,G,R.
	FormatBGR PixelFormat = 1
	// FormatGray is 1 byte/pixel, grayscale.
	FormatGray PixelFormat = 2
)

// BytesPerPixel returns the pixel stride contribution of the format.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatBGR:
		return 3
	case FormatGray:
		return 1
	default:
		return 4
	}
}

func (f PixelFormat) String() string {
	switch f {
	case FormatBGR:
		return "bgr"
	case FormatGray:
		return "gray"
	default:
		return "bgrx"
	}
}

// ObjectType enumerates the page-object kinds the smart-mode predicate
// and text extraction need to distinguish (§4.6 step 4, §6.1).
type ObjectType int

const (
	ObjectUnknown ObjectType = iota
	ObjectText
	ObjectPath
	ObjectImage
	ObjectShading
	ObjectForm
)

// Document is the §6.1 parser-library handle for an opened PDF.
type Document interface {
	// PageCount returns the number of pages (>= 0).
	PageCount() int
	// FileSize returns the size in bytes of the backing file, used by
	// §4.6.1's bytes-per-page heuristic. Returns 0 if unknown.
	FileSize() int64
	// LoadPage loads a page by 0-based index. Must be called with the
	// document's page-load mutex held by the caller (see PageLoadMutex).
	LoadPage(index int) (Page, error)
	// PageLoadMutex returns the document-scoped serialization lock
	// covering the entire load-render-close span (§4.5, GLOSSARY).
	PageLoadMutex() Locker
	// FormEnv returns the form environment for this document, or nil if
	// none was attached.
	FormEnv() FormEnv
}

// Locker is satisfied by *sync.Mutex; declared locally so parser.go does
// not have to import sync for a one-method contract.
type Locker interface {
	Lock()
	Unlock()
}

// Page is a loaded page handle, §6.1.
type Page interface {
	// Close releases the page. Must be called with the page's document's
	// page-load mutex held (§4.5 step 11, §9 "Deferred page destruction").
	Close()
	// SizePoints returns (width, height) in PDF points.
	SizePoints() (width, height float64)
	// HasTransparency reports whether the page content requires an
	// alpha-aware fill color (§4.5 step 5).
	HasTransparency() bool
	// RenderBitmap renders into bmp at (x,y) with the given pixel
	// dimensions, rotation (0,90,180,270) and parser-specific flags.
	RenderBitmap(bmp Bitmap, x, y, w, h, rotation, flags int) error
	// ObjectCount returns the number of direct page objects (§4.6 step 4).
	ObjectCount() int
	// Object returns the i'th page object, 0-based.
	Object(i int) PageObject
	// Text returns the text enumerator for this page (§6.1 text-extraction
	// interface).
	Text() TextEnumerator
	// OnAfterLoad, OnOpenAction, OnCloseAction, OnBeforeClose are the
	// per-page form lifecycle events (§4.5 step 2, step 7-8), no-ops when
	// the document has no form environment.
	OnAfterLoad(env FormEnv)
	OnOpenAction(env FormEnv)
	OnCloseAction(env FormEnv)
	OnBeforeClose(env FormEnv)
}

// PageObject is one direct content object on a page (§6.1).
type PageObject interface {
	Type() ObjectType
	// BoundsArea returns the object's bounding-box area in points^2.
	BoundsArea() float64
	// ImageFilter returns the applied stream filter name for an image
	// object (e.g. "DCTDecode"), or "" if not an image / not filtered.
	ImageFilter() string
	// ImageRawData returns the raw (still-filtered) stream bytes for an
	// image object. Only meaningful when ImageFilter() != "".
	ImageRawData() ([]byte, error)
}

// FormEnv is the form environment handle (§6.1, "Form environment
// init/exit").
type FormEnv interface {
	// DrawOverlay draws form-field overlays into bmp with the page's
	// dimensions and rotation (§4.5 step 7).
	DrawOverlay(bmp Bitmap, page Page, x, y, w, h, rotation, flags int) error
}

// BitmapFactory is the §6.1 create_bitmap/destroy_bitmap surface: the
// parser library is the only thing that knows how to allocate a bitmap
// backed by its own rendering surface, so pdfpar asks for one through
// this interface rather than constructing Bitmap values itself.
type BitmapFactory interface {
	CreateBitmap(w, h int, format PixelFormat) (Bitmap, error)
}

// Bitmap is a pixel buffer (§3 Data Model, §6.2).
type Bitmap interface {
	Width() int
	Height() int
	Format() PixelFormat
	// Stride returns the byte offset between successive rows. Callers
	// must consult this, never compute width*bytesPerPixel, since it may
	// be larger for alignment (§6.2).
	Stride() int
	// Buffer returns the raw pixel bytes, length >= Stride()*Height().
	Buffer() []byte
	// FillRect fills the full bitmap with the given BGRx-packed color.
	FillRect(color uint32)
	// Destroy releases any backing allocation. Pool-acquired bitmaps are
	// destroyed only by BitmapPool.Clear, or by BitmapPool.Release when
	// the pool is already full, never from a worker mid-task.
	Destroy()
}

// TextEnumerator is the §6.1 text-extraction interface used by the
// text-worker path: one char at a time, 0-based index.
type TextEnumerator interface {
	CharCount() int
	CharUnicode(i int) uint32 // UTF-16 code unit, possibly a surrogate half
	CharBox(i int) (x0, y0, x1, y1 float64)
	CharOrigin(i int) (x, y float64)
	CharAngle(i int) float64
	CharFontSize(i int) float64
	CharFillColor(i int) (r, g, b, a uint8)
	CharStrokeColor(i int) (r, g, b, a uint8)
	CharMatrix(i int) (a, b, c, d, e, f float64)
	CharIsGenerated(i int) bool
	CharIsHyphen(i int) bool
	CharFontName(i int) string
	CharFontFlags(i int) int
	CharFontWeight(i int) int
}
