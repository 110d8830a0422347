// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package indexstore

import "github.com/cockroachdb/errors"

var (
	// ErrResourceLimit marks an error returned when the configured disk budget
	// would be exceeded. It is recoverable: abort the build and retry after
	// freeing space.
	ErrResourceLimit = errors.New("indexstore: disk budget exceeded")

	// ErrEngineOpen marks a failure to open the embedded engine, typically an
	// I/O error or on-disk corruption.
	ErrEngineOpen = errors.New("indexstore: unable to open engine")

	// ErrSync marks a failure to make prior writes durable.
	ErrSync = errors.New("indexstore: sync failed")

	// ErrInternal marks an engine-level failure that is not one of the more
	// specific kinds above.
	ErrInternal = errors.New("indexstore: internal error")

	// ErrNotSupported marks caller misuse, such as writing to a destination
	// the writer was not created for.
	ErrNotSupported = errors.New("indexstore: not supported")

	// ErrClosed is returned when operating on a closed handle or writer.
	ErrClosed = errors.New("indexstore: closed")
)

// markf wraps err with a formatted message and marks it as kind, so that
// errors.Is(err, kind) holds while the original cause is preserved.
func markf(err error, kind error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), kind)
}
