// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package indexstore

import (
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/require"
)

func openTestHandle(t *testing.T, opts *Options) *Handle {
	t.Helper()
	opts = opts.Clone()
	if opts.FS == nil {
		opts.FS = vfs.NewMem()
	}
	opts.Logger = NoopLogger{}
	h, err := Open(opts, StaticPaths("/data"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, h.Close()) })
	return h
}

// parseTestKey parses "db/coll/idx/suffix" into a key. The suffix may
// contain Go escape sequences.
func parseTestKey(t *testing.T, s string) []byte {
	t.Helper()
	parts := strings.SplitN(s, "/", 4)
	require.Len(t, parts, 4, "malformed key %q", s)
	var ids [3]uint64
	for i := range ids {
		id, err := strconv.ParseUint(parts[i], 10, 64)
		require.NoError(t, err)
		ids[i] = id
	}
	suffix, err := strconv.Unquote(`"` + parts[3] + `"`)
	require.NoError(t, err)
	return IndexPrefix(ids[0], ids[1], ids[2]).Key([]byte(suffix))
}

func formatTestKey(key []byte) string {
	if len(key) < MinKeyWidth {
		return string(key)
	}
	return PrefixKey(key[:MinKeyWidth]).String() + " " + string(key[MinKeyWidth:])
}

func get(t *testing.T, h *Handle, key []byte) (string, bool) {
	t.Helper()
	v, closer, err := h.DB().Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return "", false
	}
	require.NoError(t, err)
	defer closer.Close()
	return string(v), true
}

func countKeys(t *testing.T, h *Handle, prefix PrefixKey) int {
	t.Helper()
	low, high := prefix.Bounds()
	iter, err := h.DB().NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: high})
	require.NoError(t, err)
	n := 0
	for valid := iter.First(); valid; valid = iter.Next() {
		n++
	}
	require.NoError(t, iter.Close())
	return n
}

func TestOpenCreatesEngineDirectory(t *testing.T) {
	mem := vfs.NewMem()
	h := openTestHandle(t, &Options{FS: mem})
	require.Equal(t, "/data/engine", h.Dirname())
	require.Equal(t, "/data/tmp-sst", h.TempDirPath())
	names, err := mem.List("/data/engine")
	require.NoError(t, err)
	require.Contains(t, names, "CURRENT")
}

func TestOpenCorruption(t *testing.T) {
	mem := vfs.NewMem()
	require.NoError(t, mem.MkdirAll("/data/engine", 0755))
	f, err := mem.Create("/data/engine/CURRENT")
	require.NoError(t, err)
	_, err = io.WriteString(f, "MANIFEST-999999\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Open(&Options{FS: mem, Logger: NoopLogger{}}, StaticPaths("/data"))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrEngineOpen))
}

func TestOpenInvalidOptions(t *testing.T) {
	_, err := Open(&Options{FS: vfs.NewMem(), Logger: NoopLogger{}, Compression: "lz77"},
		StaticPaths("/data"))
	require.True(t, errors.Is(err, ErrEngineOpen))
}

func TestSyncWAL(t *testing.T) {
	h := openTestHandle(t, nil)
	require.NoError(t, h.DB().Set([]byte("a"), []byte("1"), pebble.NoSync))
	require.NoError(t, h.SyncWAL())
	v, ok := get(t, h, []byte("a"))
	require.True(t, ok)
	require.Equal(t, "1", v)

	// Without a WAL there is nothing to sync.
	h = openTestHandle(t, &Options{DisableWAL: true})
	require.NoError(t, h.DB().Set([]byte("a"), []byte("1"), pebble.NoSync))
	require.NoError(t, h.SyncWAL())
}

func TestWriteSeqNum(t *testing.T) {
	h := openTestHandle(t, nil)
	s1, err := h.WriteSeqNum()
	require.NoError(t, err)
	require.NoError(t, h.DB().Set([]byte("a"), []byte("1"), pebble.NoSync))
	s2, err := h.WriteSeqNum()
	require.NoError(t, err)
	require.Greater(t, s2, s1)
}
