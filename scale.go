// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import "math"

// scalePrecision is the six-decimal truncation applied to dpi/72 so that
// pixel dimensions are identical across platforms regardless of
// floating-point rounding mode (§4.6.2, GLOSSARY "Scale floor").
const scalePrecision = 1e6

// ScaleForDPI computes the mandatory scale floor: floor((dpi/72) * 1e6) / 1e6.
func ScaleForDPI(dpi float64) float64 {
	return math.Floor((dpi/72)*scalePrecision) / scalePrecision
}

// DimensionPixels converts a page dimension in points to pixels at the
// given scale, truncating per §4.6.2.
func DimensionPixels(points, scale float64) int {
	return int(math.Floor(points * scale))
}
