// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import "testing"

func TestPoolWarmerWarmupIsIdempotent(t *testing.T) {
	pw := &PoolWarmer{bytePool: NewBufferPool()}
	if pw.IsWarmed() {
		t.Fatal("fresh PoolWarmer should not report warmed")
	}

	cfg := LightWarmupConfig()
	if err := pw.Warmup(cfg); err != nil {
		t.Fatalf("Warmup: %v", err)
	}
	if !pw.IsWarmed() {
		t.Fatal("expected IsWarmed() == true after Warmup")
	}

	// Second call should be a no-op, not re-warm or error.
	if err := pw.Warmup(cfg); err != nil {
		t.Fatalf("second Warmup: %v", err)
	}
}

func TestPoolWarmerReset(t *testing.T) {
	pw := &PoolWarmer{bytePool: NewBufferPool()}
	pw.Warmup(LightWarmupConfig())
	pw.Reset()
	if pw.IsWarmed() {
		t.Fatal("expected IsWarmed() == false after Reset")
	}
}

func TestPoolWarmerSequentialConfig(t *testing.T) {
	pw := &PoolWarmer{bytePool: NewBufferPool()}
	cfg := LightWarmupConfig()
	cfg.Concurrent = false
	if err := pw.Warmup(cfg); err != nil {
		t.Fatalf("Warmup: %v", err)
	}
	if !pw.IsWarmed() {
		t.Fatal("expected warmed after sequential warmup")
	}
}

func TestDefaultWarmupConfigBuckets(t *testing.T) {
	cfg := DefaultWarmupConfig()
	for _, size := range []int{16, 32, 64, 128, 256, 512, 1024, 4096} {
		if _, ok := cfg.BytePoolWarmup[size]; !ok {
			t.Fatalf("DefaultWarmupConfig missing bucket %d", size)
		}
	}
}

func TestStartupReturnsUsableMetadataCache(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.WarmupPools = false
	cfg.TuneGC = false
	cfg.SetMaxProcs = false

	meta, err := Startup(cfg)
	if err != nil {
		t.Fatalf("Startup: %v", err)
	}
	defer meta.Close()

	meta.Put("k", PageMeta{WidthPts: 1})
	if _, ok := meta.Get("k"); !ok {
		t.Fatal("expected the cache returned by Startup to be usable")
	}
}

func TestStartupCustomMetaCacheSize(t *testing.T) {
	meta, err := Startup(&EngineConfig{WarmupPools: false, TuneGC: false, SetMaxProcs: false, MetaCacheSize: 5})
	if err != nil {
		t.Fatalf("Startup: %v", err)
	}
	defer meta.Close()
}
