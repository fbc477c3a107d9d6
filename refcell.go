// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import "sync/atomic"

// RefCell is the minimal shared-ownership primitive for all cacheable
// parser objects (§4.1). The object graph inside a parsed document is
// cyclic — pages reference resources that back-reference the document —
// so a tracing collector is avoided in favor of ref counts plus explicit
// weak observers, the only discipline that survives parallel access
// without one.
type RefCell struct {
	count atomic.Int32
	value any
	onZero func(any)
}

// maxRefCount guards against silent overflow corrupting the count; no
// legitimate caller of this package retains an object anywhere near this
// many times.
const maxRefCount = 1 << 30

// NewRefCell wraps value with a ref count of 1. onZero, if non-nil, is
// invoked exactly once when the count transitions 1->0 (§8 "Ref-count
// soundness").
func NewRefCell(value any, onZero func(any)) *RefCell {
	c := &RefCell{value: value, onZero: onZero}
	c.count.Store(1)
	return c
}

// Retain increments the count. Ordering is relaxed: retain never
// synchronizes destruction, only release does.
func (c *RefCell) Retain() {
	n := c.count.Add(1)
	if n > maxRefCount {
		panic("pdfpar: RefCell count overflow")
	}
}

// Release decrements the count and destroys the value on a 1->0
// transition. The decrement uses acquire-release ordering (Go's
// atomic.Int32.Add provides a full barrier), which is the synchronization
// edge required before destruction runs.
func (c *RefCell) Release() {
	n := c.count.Add(-1)
	if n < 0 {
		panic("pdfpar: RefCell released more times than retained")
	}
	if n == 0 && c.onZero != nil {
		c.onZero(c.value)
	}
}

// HasOne reports whether this cell is the sole owner.
func (c *RefCell) HasOne() bool {
	return c.count.Load() == 1
}

// Value returns the wrapped value. Callers must hold a retain (their own
// or one implied by the handle they received this cell through); the
// cell does not itself prevent use-after-release.
func (c *RefCell) Value() any {
	return c.value
}

// Observer is a non-owning reference to a RefCell: it never contributes
// to the count, and it knows when the object has been destroyed (§4.1
// "observer pointer", GLOSSARY). Construct via NewObserver; the validity
// bit is cleared by the owning cell's destruction path, never by the
// observer itself.
type Observer struct {
	valid atomic.Bool
	cell  *RefCell
}

// NewObserver creates an observer bound to cell. The caller is
// responsible for calling Invalidate from cell's onZero callback (or an
// equivalent destruction hook) since RefCell has no registry of the
// observers pointed at it — this mirrors the C++ original, where the
// observer is threaded through by the owner of the destruction path, not
// discovered by the cell.
func NewObserver(cell *RefCell) *Observer {
	o := &Observer{cell: cell}
	o.valid.Store(true)
	return o
}

// Invalidate clears the observer's validity bit. Safe to call more than
// once; idempotent.
func (o *Observer) Invalidate() {
	o.valid.Store(false)
}

// Get returns the observed cell's value and true if still valid, or
// (nil, false) once invalidated. It never retains.
func (o *Observer) Get() (any, bool) {
	if !o.valid.Load() {
		return nil, false
	}
	return o.cell.Value(), true
}
