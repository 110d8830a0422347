// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build windows

package logdir

// Directories cannot be synced on Windows; creation is assumed durable.
const dirSyncSupported = false
