// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/Geek0x0/pdfpar"
)

// backend opens a PDF and supplies the BitmapFactory that goes with it.
// pdfpar itself only defines the Document/Bitmap contract (see parser.go
// in the root package); this binary does not ship a concrete PDF parser,
// since that is an external collaborator (a CGo pdfium binding, a pure-Go
// parser, whatever the deployment links in). A real build replaces this
// var in an init() from a build-tag-gated file that imports the actual
// parser library.
var backend Backend = noBackend{}

// Backend is the seam a production build fills in.
type Backend interface {
	OpenDocument(path string) (pdfpar.Document, pdfpar.BitmapFactory, error)
}

type noBackend struct{}

func (noBackend) OpenDocument(path string) (pdfpar.Document, pdfpar.BitmapFactory, error) {
	return nil, nil, fmt.Errorf("pdfpar: no parser backend linked into this binary (cannot open %s)", path)
}
