// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build !windows

package logdir

// dirSyncSupported is true where a new directory entry is only durable once
// its parent directory has been synced.
const dirSyncSupported = true
