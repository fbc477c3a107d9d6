// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import "runtime"

// HardwareInfo summarizes the machine facts DetectHardware probes: the
// CPU count the adaptive worker-count selector (§4.6.1) uses, and AVX2
// support. Nothing in this package reads HasAVX2.
type HardwareInfo struct {
	NumCPU  int
	HasAVX2 bool
}

// DetectHardware probes the running machine once; callers typically
// cache the result for the lifetime of the process.
func DetectHardware() HardwareInfo {
	return HardwareInfo{
		NumCPU:  runtime.NumCPU(),
		HasAVX2: hasAVX2(),
	}
}
