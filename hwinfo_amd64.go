// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build amd64

package pdfpar

import "golang.org/x/sys/cpu"

// hasAVX2 reports whether the CPU supports AVX2.
func hasAVX2() bool {
	return cpu.X86.HasAVX2
}
