// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package indexstore

import (
	"testing"

	"github.com/cockroachdb/errors/oserror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTempDirectory(t *testing.T) {
	h := openTestHandle(t, nil)
	fs := h.FS()

	// Leftovers of a previous process are removed on open.
	require.NoError(t, fs.MkdirAll(h.TempDirPath(), 0755))
	f, err := fs.Create(fs.PathJoin(h.TempDirPath(), "stale.sst"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	usage := NewUsageTracker(0)
	td, err := OpenTempDirectory(fs, h.TempDirPath(), usage, NoopLogger{})
	require.NoError(t, err)
	require.Equal(t, h.TempDirPath(), td.Path())
	require.Empty(t, listTempFiles(t, h))

	w, err := NewBulkWriter(h, usage, h.DefaultDestination("idx", nil), BulkWriterOptions{Dir: td.Path()})
	require.NoError(t, err)
	require.NoError(t, w.Put(w.Destination(), testKey(1), []byte("v")))
	files, err := w.StealFiles()
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.NotZero(t, usage.CurrentUsage())

	// Files that were stolen but never ingested are reclaimed on close.
	require.NoError(t, td.Close())
	require.Zero(t, usage.CurrentUsage())
	_, err = fs.Stat(h.TempDirPath())
	require.True(t, oserror.IsNotExist(err))
}

func TestUsageCollector(t *testing.T) {
	usage := NewUsageTracker(1000)
	require.NoError(t, usage.IncreaseUsage(250))
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewUsageCollector(usage)...)

	collectors := NewUsageCollector(usage)
	require.Equal(t, 250.0, testutil.ToFloat64(collectors[0]))
	require.Equal(t, 1000.0, testutil.ToFloat64(collectors[1]))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}
