// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdfpar

import (
	"errors"
	"fmt"
)

// ErrorKind enumerates the error kinds surfaced to callers (§7).
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindFileNotFound
	KindDirectoryNotFound
	KindCannotOpen
	KindPasswordProtected
	KindInvalidDocument
	KindOutOfMemory
	KindPermissionDenied
	KindUnsupportedFeature
	KindPageRangeInvalid
	KindWorkerCountInvalid
	KindThreadCountInvalid
	KindInvalidArgument
	KindOutputDirCreationFailed
)

func (k ErrorKind) String() string {
	switch k {
	case KindFileNotFound:
		return "file-not-found"
	case KindDirectoryNotFound:
		return "directory-not-found"
	case KindCannotOpen:
		return "cannot-open"
	case KindPasswordProtected:
		return "password-protected"
	case KindInvalidDocument:
		return "invalid-document"
	case KindOutOfMemory:
		return "out-of-memory"
	case KindPermissionDenied:
		return "permission-denied"
	case KindUnsupportedFeature:
		return "unsupported-feature"
	case KindPageRangeInvalid:
		return "page-range-invalid"
	case KindWorkerCountInvalid:
		return "worker-count-invalid"
	case KindThreadCountInvalid:
		return "thread-count-invalid"
	case KindInvalidArgument:
		return "invalid-argument"
	case KindOutputDirCreationFailed:
		return "output-dir-creation-failed"
	default:
		return "unknown"
	}
}

// remediations pairs each kind with a one-line suggested fix (§7, closing
// note; SPEC_FULL.md §6.3.1). Presentation belongs to the CLI collaborator,
// but the text lives here so any collaborator can reuse it.
var remediations = map[ErrorKind]string{
	KindFileNotFound:            "check the input path for typos",
	KindDirectoryNotFound:       "create the output directory first or pass an existing one",
	KindCannotOpen:              "confirm the file is a valid PDF and is not locked by another process",
	KindPasswordProtected:       "supply the document password",
	KindInvalidDocument:         "the PDF structure could not be parsed; try re-saving it with another tool",
	KindOutOfMemory:             "try processing fewer pages at once, or reduce --workers",
	KindPermissionDenied:        "check file and directory permissions",
	KindUnsupportedFeature:      "this document uses a feature the engine does not support",
	KindPageRangeInvalid:        "pages must be a single index N or a closed range A-B with A <= B",
	KindWorkerCountInvalid:      "worker count must be between 1 and 16",
	KindThreadCountInvalid:      "thread count must be between 1 and 32 and is clamped to hardware",
	KindInvalidArgument:         "check the command's arguments against its usage",
	KindOutputDirCreationFailed: "check that the parent directory exists and is writable",
}

// PDFError represents an error that occurred during engine processing,
// carrying contextual information about where it occurred (extended from
// the teacher's Op/Page/Path/Err shape with a Kind for §7's enumeration).
type PDFError struct {
	Kind ErrorKind
	Op   string // Operation that failed (e.g. "render", "extract-text")
	Page int    // Page number where error occurred (0 if not page-specific)
	Path string // File path if applicable
	Err  error  // Underlying error
}

func (e *PDFError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("pdfpar: %s on page %d: %v", e.Op, e.Page, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("pdfpar: %s (%s): %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("pdfpar: %s: %v", e.Op, e.Err)
}

func (e *PDFError) Unwrap() error {
	return e.Err
}

// Remediation returns the one-line suggested fix for this error's kind.
func (e *PDFError) Remediation() string {
	return remediations[e.Kind]
}

// Sentinel errors, one per §7 error kind plus the two object-cache
// failures this package raises internally.
var (
	ErrFileNotFound            = errors.New("file not found")
	ErrDirectoryNotFound       = errors.New("directory not found")
	ErrCannotOpen              = errors.New("cannot open document")
	ErrPasswordProtected       = errors.New("document is password protected")
	ErrInvalidDocument         = errors.New("invalid document")
	ErrOutOfMemory             = errors.New("out of memory")
	ErrPermissionDenied        = errors.New("permission denied")
	ErrUnsupportedFeature      = errors.New("unsupported feature")
	ErrPageRangeInvalid        = errors.New("invalid page range")
	ErrWorkerCountInvalid      = errors.New("worker count must be between 1 and 16")
	ErrThreadCountInvalid      = errors.New("thread count must be between 1 and 32")
	ErrInvalidArgument         = errors.New("invalid argument")
	ErrOutputDirCreationFailed = errors.New("failed to create output directory")

	ErrInvalidObjectNumber = errors.New("invalid or sentinel object number")
	ErrObjectParseFailed   = errors.New("object parse failed")
)

// kindOf maps a sentinel error to its ErrorKind, for kindFor below.
var kindOf = map[error]ErrorKind{
	ErrFileNotFound:            KindFileNotFound,
	ErrDirectoryNotFound:       KindDirectoryNotFound,
	ErrCannotOpen:              KindCannotOpen,
	ErrPasswordProtected:       KindPasswordProtected,
	ErrInvalidDocument:         KindInvalidDocument,
	ErrOutOfMemory:             KindOutOfMemory,
	ErrPermissionDenied:        KindPermissionDenied,
	ErrUnsupportedFeature:      KindUnsupportedFeature,
	ErrPageRangeInvalid:        KindPageRangeInvalid,
	ErrWorkerCountInvalid:      KindWorkerCountInvalid,
	ErrThreadCountInvalid:      KindThreadCountInvalid,
	ErrInvalidArgument:         KindInvalidArgument,
	ErrOutputDirCreationFailed: KindOutputDirCreationFailed,
}

// wrapError wraps err with operation context (kept from the teacher).
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PDFError{Kind: kindFor(err), Op: op, Err: err}
}

// wrapPageError wraps err with page-specific context (kept from the
// teacher, now attaching a Kind via the sentinel lookup).
func wrapPageError(op string, page int, err error) error {
	if err == nil {
		return nil
	}
	return &PDFError{Kind: kindFor(err), Op: op, Page: page, Err: err}
}

// wrapPathError wraps err with a file-path-specific context.
func wrapPathError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &PDFError{Kind: kindFor(err), Op: op, Path: path, Err: err}
}

func kindFor(err error) ErrorKind {
	for sentinel, kind := range kindOf {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindUnknown
}
