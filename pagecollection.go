// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import "sync"

// PageHandleCollection is the deferred-destruction list every render
// invocation owns (§3): workers append pages as they load and render
// them (close-action/before-close events already fired at that point,
// per §4.5 task processing steps 8-9) and never close a page
// themselves; the controller closes the whole collection in reverse
// order under the document's page-load mutex after join, which
// minimizes shared-resource-lifetime conflicts in the underlying parser
// (§9 "Deferred page destruction").
type PageHandleCollection struct {
	mu    sync.Mutex
	pages []Page
}

// NewPageHandleCollection creates an empty collection.
func NewPageHandleCollection() *PageHandleCollection {
	return &PageHandleCollection{}
}

// Append registers a loaded page for deferred close. Callers must hold
// the document's page-load mutex when calling this, per the invariant
// "every page loaded by a worker is registered with the
// PageHandleCollection before its worker releases the page-load mutex."
func (c *PageHandleCollection) Append(page Page) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages = append(c.pages, page)
}

// Len reports how many pages are registered, for tests and diagnostics.
func (c *PageHandleCollection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}

// CloseAll closes every registered page in reverse registration order.
// The caller must hold the document's page-load mutex for the duration
// of this call.
func (c *PageHandleCollection) CloseAll() {
	c.mu.Lock()
	pages := c.pages
	c.pages = nil
	c.mu.Unlock()

	for i := len(pages) - 1; i >= 0; i-- {
		pages[i].Close()
	}
}
