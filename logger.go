// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package indexstore

import "github.com/cockroachdb/indexstore/internal/base"

// Logger defines an interface for writing log messages. It is the same shape
// as pebble.Logger so a single implementation can be handed to the engine.
type Logger = base.Logger

// DefaultLogger logs to the Go stdlib logs.
type DefaultLogger = base.DefaultLogger

// NoopLogger discards all log output and panics on Fatalf.
type NoopLogger = base.NoopLogger
