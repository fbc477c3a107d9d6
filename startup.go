// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import (
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// PoolWarmer pre-fills the shared BufferPool at startup so the first
// batch of pages does not pay allocation cost for buckets the controller
// already knows it will need.
type PoolWarmer struct {
	bytePool     *BufferPool
	warmed       atomic.Bool
	warmingMutex sync.Mutex
}

var GlobalPoolWarmer = &PoolWarmer{bytePool: globalBufferPool}

// WarmupConfig controls how many buffers to pre-fill per size bucket.
type WarmupConfig struct {
	BytePoolWarmup map[int]int
	Concurrent     bool
	MaxGoroutines  int
}

func DefaultWarmupConfig() *WarmupConfig {
	return &WarmupConfig{
		BytePoolWarmup: map[int]int{
			16: 100, 32: 100, 64: 80, 128: 60,
			256: 40, 512: 30, 1024: 20, 4096: 10,
		},
		Concurrent:    true,
		MaxGoroutines: runtime.NumCPU(),
	}
}

func AggressiveWarmupConfig() *WarmupConfig {
	return &WarmupConfig{
		BytePoolWarmup: map[int]int{
			16: 500, 32: 500, 64: 400, 128: 300,
			256: 200, 512: 150, 1024: 100, 4096: 50,
		},
		Concurrent:    true,
		MaxGoroutines: runtime.NumCPU() * 2,
	}
}

func LightWarmupConfig() *WarmupConfig {
	return &WarmupConfig{
		BytePoolWarmup: map[int]int{
			16: 20, 32: 20, 64: 15, 128: 10,
			256: 8, 512: 5, 1024: 3, 4096: 2,
		},
		Concurrent:    false,
		MaxGoroutines: 1,
	}
}

// Warmup fills the buffer pool per config. Safe to call more than once;
// only the first call does work.
func (pw *PoolWarmer) Warmup(config *WarmupConfig) error {
	pw.warmingMutex.Lock()
	defer pw.warmingMutex.Unlock()

	if pw.warmed.Load() {
		return nil
	}
	if config == nil {
		config = DefaultWarmupConfig()
	}
	if config.Concurrent {
		pw.warmupConcurrent(config)
	} else {
		pw.warmupSequential(config)
	}
	pw.warmed.Store(true)
	return nil
}

func (pw *PoolWarmer) warmupSequential(config *WarmupConfig) {
	for size, count := range config.BytePoolWarmup {
		buffers := make([][]byte, count)
		for i := 0; i < count; i++ {
			buffers[i] = pw.bytePool.Get(size)
		}
		for _, buf := range buffers {
			pw.bytePool.Put(buf)
		}
	}
}

func (pw *PoolWarmer) warmupConcurrent(config *WarmupConfig) {
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, config.MaxGoroutines)

	for size, count := range config.BytePoolWarmup {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(sz, cnt int) {
			defer wg.Done()
			defer func() { <-semaphore }()
			buffers := make([][]byte, cnt)
			for i := 0; i < cnt; i++ {
				buffers[i] = pw.bytePool.Get(sz)
			}
			for _, buf := range buffers {
				pw.bytePool.Put(buf)
			}
		}(size, count)
	}
	wg.Wait()
}

func (pw *PoolWarmer) IsWarmed() bool {
	return pw.warmed.Load()
}

func (pw *PoolWarmer) Reset() {
	pw.warmingMutex.Lock()
	defer pw.warmingMutex.Unlock()
	pw.warmed.Store(false)
}

func WarmupGlobal(config *WarmupConfig) error {
	return GlobalPoolWarmer.Warmup(config)
}

// AutoWarmup picks a warmup profile based on how much memory the process
// already has reserved from the OS.
func AutoWarmup() error {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	var config *WarmupConfig
	switch {
	case ms.Sys > 1024*1024*1024:
		config = AggressiveWarmupConfig()
	case ms.Sys > 256*1024*1024:
		config = DefaultWarmupConfig()
	default:
		config = LightWarmupConfig()
	}
	return GlobalPoolWarmer.Warmup(config)
}

// EngineConfig is the engine-wide startup configuration: pool warmup,
// cache sizing, and runtime tuning, applied once before the controller
// starts dispatching pages.
type EngineConfig struct {
	WarmupPools   bool
	WarmupConfig  *WarmupConfig
	MetaCacheSize int
	TuneGC        bool
	GCPercent     int
	MemoryBallast int64
	SetMaxProcs   bool
	MaxProcs      int
}

func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		WarmupPools:   true,
		WarmupConfig:  DefaultWarmupConfig(),
		MetaCacheSize: 10000,
		TuneGC:        true,
		GCPercent:     200,
		MemoryBallast: 10 * 1024 * 1024,
		SetMaxProcs:   true,
		MaxProcs:      0, // auto-detect
	}
}

// Startup runs the engine's one-time startup sequence: warm the buffer
// pool, size the metadata cache, and tune GC/GOMAXPROCS. Returns the
// MetadataCache the caller should hand to the controller.
func Startup(config *EngineConfig) (*MetadataCache, error) {
	if config == nil {
		config = DefaultEngineConfig()
	}

	if config.WarmupPools {
		if err := GlobalPoolWarmer.Warmup(config.WarmupConfig); err != nil {
			return nil, err
		}
	}

	meta := NewMetadataCache(config.MetaCacheSize, 0)

	if config.TuneGC {
		if config.GCPercent > 0 {
			debug.SetGCPercent(config.GCPercent)
		}
		if config.MemoryBallast > 0 {
			_ = make([]byte, config.MemoryBallast)
		}
	}

	if config.SetMaxProcs {
		maxProcs := config.MaxProcs
		if maxProcs <= 0 {
			maxProcs = runtime.NumCPU()
		}
		runtime.GOMAXPROCS(maxProcs)
	}

	return meta, nil
}
