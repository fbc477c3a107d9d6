// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import (
	"strconv"
	"strings"
)

// ParsePageRange parses the §6.5 grammar: a single non-negative index
// "N", or a closed range "A-B" with A <= B. Both forms are 0-based on
// input and output — there is no separate user-facing 1-based form.
// Supplemented from pdfium_cli.cpp's --pages flag.
func ParsePageRange(s string) (start, end int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, wrapError("parse-page-range", ErrPageRangeInvalid)
	}

	if idx := strings.IndexByte(s, '-'); idx > 0 {
		a, aerr := strconv.Atoi(strings.TrimSpace(s[:idx]))
		b, berr := strconv.Atoi(strings.TrimSpace(s[idx+1:]))
		if aerr != nil || berr != nil || a < 0 || b < a {
			return 0, 0, wrapError("parse-page-range", ErrPageRangeInvalid)
		}
		return a, b, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, 0, wrapError("parse-page-range", ErrPageRangeInvalid)
	}
	return n, n, nil
}

// ClampPageRange clamps [start, end] (inclusive) to a document with
// pageCount pages, returning a count suitable for render_pages_parallel's
// (start, count) form. Returns count 0 if the range is entirely outside
// the document.
func ClampPageRange(start, end, pageCount int) (clampedStart, count int) {
	if pageCount <= 0 || start >= pageCount {
		return start, 0
	}
	if end >= pageCount {
		end = pageCount - 1
	}
	if start < 0 {
		start = 0
	}
	if end < start {
		return start, 0
	}
	return start, end - start + 1
}
