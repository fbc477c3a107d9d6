// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

type fakeBitmap struct {
	w, h      int
	format    PixelFormat
	buf       []byte
	destroyed bool
}

func newFakeBitmap(w, h int, format PixelFormat) *fakeBitmap {
	return &fakeBitmap{w: w, h: h, format: format, buf: make([]byte, w*h*format.BytesPerPixel())}
}

func (b *fakeBitmap) Width() int          { return b.w }
func (b *fakeBitmap) Height() int         { return b.h }
func (b *fakeBitmap) Format() PixelFormat { return b.format }
func (b *fakeBitmap) Stride() int         { return b.w * b.format.BytesPerPixel() }
func (b *fakeBitmap) Buffer() []byte      { return b.buf }
func (b *fakeBitmap) FillRect(uint32)     {}
func (b *fakeBitmap) Destroy()            { b.destroyed = true }

func TestPageFileName(t *testing.T) {
	if got := pageFileName(3, "png"); got != "page_00003.png" {
		t.Fatalf("got %q", got)
	}
	if got := pageFileName(123456, "jpg"); got != "page_123456.jpg" {
		t.Fatalf("got %q", got)
	}
}

func TestEncodePPM(t *testing.T) {
	bmp := newFakeBitmap(2, 1, FormatBGRx)
	// pixel 0: blue=0x10 green=0x20 red=0x30; pixel 1: all zero.
	bmp.buf[0], bmp.buf[1], bmp.buf[2] = 0x10, 0x20, 0x30

	out := encodePPM(bmp)
	want := "P6\n2 1\n255\n"
	if !bytes.HasPrefix(out, []byte(want)) {
		t.Fatalf("header mismatch, got %q", out[:len(want)])
	}
	body := out[len(want):]
	if len(body) != 2*3 {
		t.Fatalf("body length = %d, want 6", len(body))
	}
	if body[0] != 0x30 || body[1] != 0x20 || body[2] != 0x10 {
		t.Fatalf("BGR not swapped to RGB: got %v", body[:3])
	}
}

func TestEncodeRawBGRAForceAlpha(t *testing.T) {
	bmp := newFakeBitmap(1, 1, FormatBGRx)
	bmp.buf[0], bmp.buf[1], bmp.buf[2], bmp.buf[3] = 1, 2, 3, 0x00

	out := encodeRawBGRA(bmp, true)
	if len(out) != 4 || out[3] != 0xFF {
		t.Fatalf("forceAlpha did not set alpha to 0xFF: %v", out)
	}

	out = encodeRawBGRA(bmp, false)
	if out[3] != 0x00 {
		t.Fatalf("passthrough alpha mismatch: %v", out)
	}
}

func TestEncodeBitmapPNGGrayscaleTarget(t *testing.T) {
	bmp := newFakeBitmap(1, 1, FormatBGRx)
	bmp.buf[0], bmp.buf[1], bmp.buf[2] = 10, 20, 30

	data, err := EncodeBitmap(bmp, FormatGray, ImagePNG, 0, false)
	if err != nil {
		t.Fatalf("EncodeBitmap: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if _, ok := img.(*image.Gray); !ok {
		t.Fatalf("got %T, want *image.Gray", img)
	}
}

func TestClampJPEGQuality(t *testing.T) {
	if clampJPEGQuality(0) != 90 {
		t.Errorf("clampJPEGQuality(0) want 90")
	}
	if clampJPEGQuality(200) != 100 {
		t.Errorf("clampJPEGQuality(200) want 100")
	}
	if clampJPEGQuality(55) != 55 {
		t.Errorf("clampJPEGQuality(55) want 55")
	}
}

func TestValidJPEGSignature(t *testing.T) {
	if !ValidJPEGSignature([]byte{0xFF, 0xD8, 0xFF, 0xE0}) {
		t.Error("want true for valid signature")
	}
	if ValidJPEGSignature([]byte{0x89, 0x50, 0x4E, 0x47}) {
		t.Error("want false for PNG signature")
	}
	if ValidJPEGSignature([]byte{0xFF}) {
		t.Error("want false for short input")
	}
}
