// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// GlyphEntry is one cached per-face glyph-cache handle (§3 Data Model,
// GlyphCache row); the payload is opaque to pdfpar, which only manages
// its lifetime.
type GlyphEntry struct {
	Face string
	Data any
}

const glyphShardCount = 16
const glyphShardMask = glyphShardCount - 1

// glyphShard is one lock-free-read shard of the read-only-mode cache,
// directly grounded on the teacher's font_cache_optimized.go cacheShard:
// an atomically-swapped pointer to an immutable map gives readers a
// lock-free path once the cache stops accepting writes.
type glyphShard struct {
	entries unsafe.Pointer // *map[string]*GlyphEntry
}

func newGlyphShard() *glyphShard {
	m := make(map[string]*GlyphEntry)
	s := &glyphShard{}
	atomic.StorePointer(&s.entries, unsafe.Pointer(&m))
	return s
}

func (s *glyphShard) get(key string) (*GlyphEntry, bool) {
	p := atomic.LoadPointer(&s.entries)
	m := *(*map[string]*GlyphEntry)(p)
	e, ok := m[key]
	return e, ok
}

// fnv1a is the shard-selection hash, kept identical to the teacher's
// fastHash in font_cache_optimized.go.
func fnv1a(s string) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}

// faceMap is one namespace (internal or external) of the glyph cache, in
// warm-up mode a plain RWMutex map (grounded on font_cache_global.go's
// GlobalFontCache) and in read-only mode the shard array above.
type faceMap struct {
	mu   sync.RWMutex
	warm map[string]*GlyphEntry

	shards [glyphShardCount]*glyphShard
}

func newFaceMap() *faceMap {
	fm := &faceMap{warm: make(map[string]*GlyphEntry)}
	for i := range fm.shards {
		fm.shards[i] = newGlyphShard()
	}
	return fm
}

func (fm *faceMap) get(key string, readOnly bool) (*GlyphEntry, bool) {
	if readOnly {
		return fm.shards[fnv1a(key)&glyphShardMask].get(key)
	}
	fm.mu.RLock()
	e, ok := fm.warm[key]
	fm.mu.RUnlock()
	return e, ok
}

// getOrInsert implements §4.3's warm-up mode: shared-lock lookup, upgrade
// to exclusive and double-check on miss, insert under the writer lock
// (§9 "Double-checked insertion under reader-writer locks" — the upgrade
// path must re-read under the writer lock; never assume the condition
// held at read time).
func (fm *faceMap) getOrInsert(key string, compute func() *GlyphEntry) *GlyphEntry {
	fm.mu.RLock()
	if e, ok := fm.warm[key]; ok {
		fm.mu.RUnlock()
		return e
	}
	fm.mu.RUnlock()

	fm.mu.Lock()
	defer fm.mu.Unlock()
	if e, ok := fm.warm[key]; ok {
		return e
	}
	e := compute()
	fm.warm[key] = e
	return e
}

// promote builds the lock-free shards from the current warm-up map and
// swaps them in. Caller holds the GlyphCache's write lock for the whole
// promotion, per §4.3: "the implementation makes the transition itself
// under the writer lock so no reader is mid-shared-access."
func (fm *faceMap) promote() {
	perShard := make([]map[string]*GlyphEntry, glyphShardCount)
	for i := range perShard {
		perShard[i] = make(map[string]*GlyphEntry)
	}
	for k, v := range fm.warm {
		i := fnv1a(k) & glyphShardMask
		perShard[i][k] = v
	}
	for i, m := range perShard {
		mm := m
		atomic.StorePointer(&fm.shards[i].entries, unsafe.Pointer(&mm))
	}
}

// GlyphCache is the §4.3 per-document (or process font manager) cache:
// two maps (internal and external faces) of face -> glyph-cache entry,
// with an explicit warm-up -> read-only transition.
type GlyphCache struct {
	mu       sync.RWMutex // guards the mode flag and the promotion itself
	readOnly atomic.Bool
	internal *faceMap
	external *faceMap
}

// NewGlyphCache creates a cache starting in warm-up mode.
func NewGlyphCache() *GlyphCache {
	return &GlyphCache{internal: newFaceMap(), external: newFaceMap()}
}

// Get looks up a face's glyph-cache entry. external selects which of the
// two namespaces to query.
func (c *GlyphCache) Get(face string, external bool) (*GlyphEntry, bool) {
	ro := c.readOnly.Load()
	if external {
		return c.external.get(face, ro)
	}
	return c.internal.get(face, ro)
}

// GetOrCompute returns the cached entry for face, computing and storing
// it via compute on a miss. In read-only mode, per §4.3's promise that no
// writes will ever occur once promoted, a miss is served from compute
// without being cached, so a miss after promotion degrades rather than
// panics.
func (c *GlyphCache) GetOrCompute(face string, external bool, compute func() *GlyphEntry) *GlyphEntry {
	fm := c.internal
	if external {
		fm = c.external
	}
	if c.readOnly.Load() {
		if e, ok := fm.get(face, true); ok {
			return e
		}
		return compute()
	}
	return fm.getOrInsert(face, compute)
}

// PromoteToReadOnly is the explicit call that ends warm-up mode (§4.3).
// It takes the writer lock so that no concurrent reader observes a
// partially-published shard set, builds both namespaces' lock-free
// shards, and then flips the atomic read-only flag.
func (c *GlyphCache) PromoteToReadOnly() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.internal.mu.Lock()
	c.internal.promote()
	c.internal.mu.Unlock()
	c.external.mu.Lock()
	c.external.promote()
	c.external.mu.Unlock()
	c.readOnly.Store(true)
}

// ReadOnly reports whether the cache has been promoted.
//
// DESIGN.md Open Question resolution: the source (pdfium_fast) exposes a
// setter but no caller ever flips it back, and nothing in spec.md
// describes a legitimate reason to return to warm-up mode once glyphs are
// shared lock-free across worker threads — a demotion could race a
// reader against a write with no synchronization at all. pdfpar therefore
// does not expose a way back to warm-up mode; PromoteToReadOnly is
// one-way.
func (c *GlyphCache) ReadOnly() bool {
	return c.readOnly.Load()
}
