// Package dberr holds the sentinel errors shared across the storage engine's
// layers (buffer pool, record manager, B+-tree) so callers can test the same
// failure kind with errors.Is regardless of which layer raised it. Each layer
// also declares its own narrower sentinels alongside these.
package dberr

import "errors"

var (
	// ErrInvalidArgument is returned (wrapped) by bufferpool.Init for a
	// non-positive frame count.
	ErrInvalidArgument = errors.New("dberr: invalid argument")

	// ErrIoFailure wraps an underlying page-store read/write failure that a
	// higher layer could not recover from.
	ErrIoFailure = errors.New("dberr: io failure")

	// ErrMemoryFailure is returned when an allocation needed to satisfy a
	// request could not be made.
	ErrMemoryFailure = errors.New("dberr: memory allocation failed")
)
