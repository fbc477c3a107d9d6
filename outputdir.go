// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// OutputDir wraps a rendering destination directory with an advisory
// lock held for the duration of a batch, so a multi-process run (§4.7)
// and a directly-invoked single-process run never interleave writes
// into the same directory undetected.
type OutputDir struct {
	path string
	lock *flock.Flock
}

// OpenOutputDir creates path if missing and acquires an exclusive
// advisory lock on it, for a directly-invoked single-process run.
// Surfaces ErrOutputDirCreationFailed on either failure, per §7.
func OpenOutputDir(path string) (*OutputDir, error) {
	return openOutputDir(path, false)
}

// OpenOutputDirShared creates path if missing and acquires a shared
// advisory lock: every §4.7 worker child of the same multi-process batch
// calls this on the same directory, and shared locks are mutually
// compatible. It still excludes an unrelated OpenOutputDir caller from
// writing into the directory concurrently.
func OpenOutputDirShared(path string) (*OutputDir, error) {
	return openOutputDir(path, true)
}

func openOutputDir(path string, shared bool) (*OutputDir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, wrapPathError("create-output-dir", path, fmt.Errorf("%w: %v", ErrOutputDirCreationFailed, err))
	}

	lockPath := filepath.Join(path, ".pdfpar.lock")
	lock := flock.New(lockPath)
	var ok bool
	var lockErr error
	if shared {
		ok, lockErr = lock.TryRLock()
	} else {
		ok, lockErr = lock.TryLock()
	}
	if lockErr != nil {
		return nil, wrapPathError("lock-output-dir", path, fmt.Errorf("%w: %v", ErrOutputDirCreationFailed, lockErr))
	}
	if !ok {
		return nil, wrapPathError("lock-output-dir", path, fmt.Errorf("%w: directory is in use by another pdfpar run", ErrOutputDirCreationFailed))
	}
	return &OutputDir{path: path, lock: lock}, nil
}

// Path returns the directory's filesystem path.
func (d *OutputDir) Path() string {
	return d.path
}

// JoinPage returns the full path for a page's output file under this
// directory, per the §6.4 file-naming rule.
func (d *OutputDir) JoinPage(pageIndex int, ext string) string {
	return filepath.Join(d.path, pageFileName(pageIndex, ext))
}

// Close releases the advisory lock. Safe to call once.
func (d *OutputDir) Close() error {
	return d.lock.Unlock()
}
