// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
)

// ImageFormat enumerates the §6.4/§6.3 render worker output file formats.
type ImageFormat int

const (
	ImagePNG ImageFormat = iota
	ImageJPEG
	ImagePPM
	ImageRawBGRA
)

func (f ImageFormat) Ext() string {
	switch f {
	case ImageJPEG:
		return "jpg"
	case ImagePPM:
		return "ppm"
	case ImageRawBGRA:
		return "bgra"
	default:
		return "png"
	}
}

// pageFileName formats the §6.4 "page_<NNNNN>.<ext>" naming: zero-padded
// five-digit page index, naturally widening past 100000 with no
// collisions since strconv-style width specifiers never truncate.
func pageFileName(pageIndex int, ext string) string {
	return fmt.Sprintf("page_%05d.%s", pageIndex, ext)
}

// EncodeBitmap renders bmp's pixels into the requested file format.
// target is the requested §6.2 pixel format (BGRx/BGR/Gray) — distinct
// from bmp.Format(), since §4.6.3 always renders into a BGRx bitmap and
// leaves format conversion to the encoder. forceAlpha forces the alpha
// channel to fully opaque in the encoded output (the pdfium_fast
// force_alpha supplement) instead of the default passthrough of
// whatever FillRect/render left in the unused byte.
func EncodeBitmap(bmp Bitmap, target PixelFormat, format ImageFormat, jpegQuality int, forceAlpha bool) ([]byte, error) {
	switch format {
	case ImagePPM:
		return encodePPM(bmp), nil
	case ImageRawBGRA:
		return encodeRawBGRA(bmp, forceAlpha), nil
	case ImageJPEG:
		img := bitmapToImage(bmp, target)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: clampJPEGQuality(jpegQuality)}); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		img := bitmapToImage(bmp, target)
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

func clampJPEGQuality(q int) int {
	if q <= 0 {
		return 90
	}
	if q > 100 {
		return 100
	}
	return q
}

// encodePPM produces the §6.4 ASCII-header PPM: "P6\n<w> <h>\n255\n"
// followed by R,G,B triples with BGR channels swapped and alpha
// discarded.
func encodePPM(bmp Bitmap) []byte {
	w, h := bmp.Width(), bmp.Height()
	header := fmt.Sprintf("P6\n%d %d\n255\n", w, h)
	out := make([]byte, 0, len(header)+w*h*3)
	out = append(out, header...)

	buf := bmp.Buffer()
	stride := bmp.Stride()
	bpp := bmp.Format().BytesPerPixel()

	// One row's worth of RGB triples, pulled from the shared BufferPool
	// instead of growing a fresh slice per row.
	scratch := GetBuffer(w * 3)
	defer PutBuffer(scratch)
	for y := 0; y < h; y++ {
		src := buf[y*stride:]
		scratch = scratch[:0]
		for x := 0; x < w; x++ {
			px := src[x*bpp : x*bpp+bpp]
			r, g, b := pixelRGB(px, bmp.Format())
			scratch = append(scratch, r, g, b)
		}
		out = append(out, scratch...)
	}
	return out
}

// encodeRawBGRA emits the bitmap's native BGRx buffer as packed BGRA,
// row by row using Stride (never width*4) to skip any alignment padding.
func encodeRawBGRA(bmp Bitmap, forceAlpha bool) []byte {
	w, h := bmp.Width(), bmp.Height()
	buf := bmp.Buffer()
	stride := bmp.Stride()
	bpp := bmp.Format().BytesPerPixel()
	out := make([]byte, 0, w*h*4)

	scratch := GetBuffer(w * 4)
	defer PutBuffer(scratch)
	for y := 0; y < h; y++ {
		src := buf[y*stride:]
		scratch = scratch[:0]
		for x := 0; x < w; x++ {
			px := src[x*bpp : x*bpp+bpp]
			b, g, r := px[0], px[1], px[2]
			a := byte(0xFF)
			if !forceAlpha && bpp == 4 {
				a = px[3]
			}
			scratch = append(scratch, b, g, r, a)
		}
		out = append(out, scratch...)
	}
	return out
}

func pixelRGB(px []byte, format PixelFormat) (r, g, b byte) {
	if format == FormatGray {
		return px[0], px[0], px[0]
	}
	return px[2], px[1], px[0]
}

// bitmapToImage adapts a Bitmap to image.Image for the stdlib encoders,
// converting to grayscale at encode time when target requests it rather
// than when the source bitmap happens to already be gray (§4.6.3: the
// source is always BGRx).
func bitmapToImage(bmp Bitmap, target PixelFormat) image.Image {
	w, h := bmp.Width(), bmp.Height()
	buf := bmp.Buffer()
	stride := bmp.Stride()
	bpp := bmp.Format().BytesPerPixel()

	if target == FormatGray || bmp.Format() == FormatGray {
		img := image.NewGray(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			row := buf[y*stride:]
			for x := 0; x < w; x++ {
				px := row[x*bpp : x*bpp+bpp]
				r, g, b := pixelRGB(px, bmp.Format())
				img.SetGray(x, y, color.Gray{Y: luma(r, g, b)})
			}
		}
		return img
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := buf[y*stride:]
		for x := 0; x < w; x++ {
			px := row[x*bpp : x*bpp+bpp]
			r, g, b := pixelRGB(px, bmp.Format())
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 0xFF})
		}
	}
	return img
}

// luma computes ITU-R BT.601 relative luminance for grayscale encoding.
func luma(r, g, b byte) byte {
	return byte((299*int(r) + 587*int(g) + 114*int(b)) / 1000)
}

// ValidJPEGSignature reports whether data begins with the JPEG magic
// bytes FF D8 FF, used by the §4.6 step 4 smart-mode predicate before
// trusting a raw stream as passthrough-safe.
func ValidJPEGSignature(data []byte) bool {
	return len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF
}
