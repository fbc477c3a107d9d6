// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import "testing"

func TestDetectHardwareReportsAtLeastOneCPU(t *testing.T) {
	hw := DetectHardware()
	if hw.NumCPU < 1 {
		t.Fatalf("NumCPU = %d, want >= 1", hw.NumCPU)
	}
}
