// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// TextEncoding selects the §6.4 text-stream output encoding.
type TextEncoding int

const (
	EncodingUTF8 TextEncoding = iota
	EncodingUTF32LE
)

func ParseTextEncoding(s string) (TextEncoding, error) {
	switch strings.ToLower(s) {
	case "utf8", "utf-8":
		return EncodingUTF8, nil
	case "utf32le", "utf-32le":
		return EncodingUTF32LE, nil
	default:
		return 0, wrapError("parse-encoding", ErrInvalidArgument)
	}
}

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf32leBOM = []byte{0xFF, 0xFE, 0x00, 0x00}
)

// pageRunes decodes every character on the page from UTF-16 code units
// to scalar runes via unicode/utf16.Decode, which already maps a lone or
// invalid surrogate to U+FFFD per §6.4.
func pageRunes(te TextEnumerator) []rune {
	n := te.CharCount()
	units := make([]uint16, n)
	for i := 0; i < n; i++ {
		units[i] = uint16(te.CharUnicode(i))
	}
	return utf16.Decode(units)
}

// WriteTextStream writes the §6.4 text-stream output for a sequence of
// pages: one leading byte-order mark, then each page's decoded text. For
// UTF-32LE every page after the first opens with a fresh BOM as an
// in-band page separator; UTF-8 emits no separators. includeLeadingBOM
// is false only for a multi-process worker's per-range output, whose
// bytes the coordinator concatenates after writing its own single
// file-level BOM (§4.7 step 4).
func WriteTextStream(w io.Writer, pages []TextEnumerator, encoding TextEncoding, includeLeadingBOM bool) error {
	switch encoding {
	case EncodingUTF32LE:
		if includeLeadingBOM {
			if _, err := w.Write(utf32leBOM); err != nil {
				return err
			}
		}
		for i, page := range pages {
			if i > 0 {
				if _, err := w.Write(utf32leBOM); err != nil {
					return err
				}
			}
			if err := writeUTF32LE(w, pageRunes(page)); err != nil {
				return err
			}
		}
		return nil
	default:
		if includeLeadingBOM {
			if _, err := w.Write(utf8BOM); err != nil {
				return err
			}
		}
		for _, page := range pages {
			if _, err := io.WriteString(w, string(pageRunes(page))); err != nil {
				return err
			}
		}
		return nil
	}
}

// ExtractTextRange is the page-by-page counterpart to WriteTextStream
// for production use: it loads and closes one page at a time under the
// document's page-load mutex rather than holding every page in the
// range open at once, which a real parser backend could not sustain
// for a large document.
func ExtractTextRange(doc Document, start, count int, encoding TextEncoding, includeLeadingBOM bool, w io.Writer) error {
	mutex := doc.PageLoadMutex()

	if includeLeadingBOM {
		bom := utf8BOM
		if encoding == EncodingUTF32LE {
			bom = utf32leBOM
		}
		if _, err := w.Write(bom); err != nil {
			return err
		}
	}

	for i := 0; i < count; i++ {
		pageIndex := start + i
		mutex.Lock()
		page, err := doc.LoadPage(pageIndex)
		if err != nil {
			mutex.Unlock()
			return wrapPageError("extract-text", pageIndex, err)
		}
		runes := pageRunes(page.Text())
		page.Close()
		mutex.Unlock()

		if encoding == EncodingUTF32LE {
			if i > 0 {
				if _, err := w.Write(utf32leBOM); err != nil {
					return err
				}
			}
			if err := writeUTF32LE(w, runes); err != nil {
				return err
			}
			continue
		}
		if _, err := io.WriteString(w, string(runes)); err != nil {
			return err
		}
	}
	return nil
}

func writeUTF32LE(w io.Writer, runes []rune) error {
	var buf [4]byte
	for _, r := range runes {
		binary.LittleEndian.PutUint32(buf[:], uint32(r))
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSONL writes one JSON object per character on the page, per the
// §6.4 schema. It hand-rolls string escaping rather than delegating to
// encoding/json, since the schema requires every non-ASCII rune escaped
// as \uXXXX rather than emitted as raw UTF-8 — encoding/json's default
// string encoder does not do that.
func WriteJSONL(w io.Writer, te TextEnumerator) error {
	n := te.CharCount()
	var buf strings.Builder
	for i := 0; i < n; i++ {
		buf.Reset()
		unit := te.CharUnicode(i)
		runes := utf16.Decode([]uint16{uint16(unit)})
		hasErr := len(runes) == 1 && runes[0] == utf8.RuneError && unit != uint32(utf8.RuneError)
		char := string(runes)

		x0, y0, x1, y1 := te.CharBox(i)
		ox, oy := te.CharOrigin(i)
		fr, fg, fb, fa := te.CharFillColor(i)
		sr, sg, sb, sa := te.CharStrokeColor(i)
		a, b, c, d, e, f := te.CharMatrix(i)

		buf.WriteString(`{"char":`)
		writeJSONString(&buf, char)
		buf.WriteString(`,"unicode":`)
		buf.WriteString(strconv.FormatUint(uint64(unit), 10))
		buf.WriteString(`,"bbox":[`)
		writeJSONFloats(&buf, x0, y0, x1, y1)
		buf.WriteString(`],"origin":[`)
		writeJSONFloats(&buf, ox, oy)
		buf.WriteString(`],"font_size":`)
		writeJSONFloat(&buf, te.CharFontSize(i))
		buf.WriteString(`,"font_name":`)
		writeJSONString(&buf, te.CharFontName(i))
		buf.WriteString(`,"font_flags":`)
		buf.WriteString(strconv.Itoa(te.CharFontFlags(i)))
		buf.WriteString(`,"font_weight":`)
		buf.WriteString(strconv.Itoa(te.CharFontWeight(i)))
		buf.WriteString(`,"fill_color":[`)
		writeJSONBytes(&buf, fr, fg, fb, fa)
		buf.WriteString(`],"stroke_color":[`)
		writeJSONBytes(&buf, sr, sg, sb, sa)
		buf.WriteString(`],"angle":`)
		writeJSONFloat(&buf, te.CharAngle(i))
		buf.WriteString(`,"matrix":[`)
		writeJSONFloats(&buf, a, b, c, d, e, f)
		buf.WriteString(`],"is_generated":`)
		buf.WriteString(strconv.FormatBool(te.CharIsGenerated(i)))
		buf.WriteString(`,"is_hyphen":`)
		buf.WriteString(strconv.FormatBool(te.CharIsHyphen(i)))
		buf.WriteString(`,"has_unicode_error":`)
		buf.WriteString(strconv.FormatBool(hasErr))
		buf.WriteString("}\n")

		if _, err := io.WriteString(w, buf.String()); err != nil {
			return err
		}
	}
	return nil
}

func writeJSONFloats(buf *strings.Builder, vs ...float64) {
	for i, v := range vs {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONFloat(buf, v)
	}
}

func writeJSONFloat(buf *strings.Builder, v float64) {
	buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
}

func writeJSONBytes(buf *strings.Builder, vs ...uint8) {
	for i, v := range vs {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Itoa(int(v)))
	}
}

// writeJSONString appends s to buf as a double-quoted JSON string,
// escaping `"`, `\`, the C0 control range, and every non-ASCII rune as
// \uXXXX (surrogate-pairing runes above the BMP, as JSON itself requires).
func writeJSONString(buf *strings.Builder, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\\':
			buf.WriteString(`\\`)
		case r < 0x20:
			fmt.Fprintf(buf, `\u%04x`, r)
		case r < 0x80:
			buf.WriteRune(r)
		case r <= 0xFFFF:
			fmt.Fprintf(buf, `\u%04x`, r)
		default:
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(buf, `\u%04x\u%04x`, hi, lo)
		}
	}
	buf.WriteByte('"')
}
