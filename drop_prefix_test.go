// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package indexstore

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestDropPrefix(t *testing.T) {
	h := openTestHandle(t, nil)
	usage := NewUsageTracker(0)
	defaultPhaseA := h.deleteFilesInRange

	datadriven.RunTest(t, "testdata/drop_prefix", func(t *testing.T, td *datadriven.TestData) string {
		switch td.Cmd {
		case "put":
			b := h.DB().NewBatch()
			defer b.Close()
			for _, line := range strings.Split(td.Input, "\n") {
				fields := strings.Fields(line)
				if len(fields) != 2 {
					return fmt.Sprintf("malformed line %q", line)
				}
				require.NoError(t, b.Set(parseTestKey(t, fields[0]), []byte(fields[1]), nil))
			}
			require.NoError(t, b.Commit(pebble.Sync))
			return ""

		case "bulk":
			w, err := NewBulkWriter(h, usage, h.DefaultDestination("test", nil), BulkWriterOptions{})
			require.NoError(t, err)
			defer w.Cleanup()
			dest := w.Destination()
			for _, line := range strings.Split(td.Input, "\n") {
				fields := strings.Fields(line)
				if len(fields) != 2 {
					return fmt.Sprintf("malformed line %q", line)
				}
				require.NoError(t, w.Put(dest, parseTestKey(t, fields[0]), []byte(fields[1])))
			}
			files, err := w.StealFiles()
			require.NoError(t, err)
			require.NoError(t, h.Ingest(files, usage))
			return fmt.Sprintf("ingested %d files\n", len(files))

		case "flush":
			require.NoError(t, h.DB().Flush())
			return ""

		case "drop":
			var db, coll, idx int
			td.ScanArgs(t, "db", &db)
			prefix := DatabasePrefix(uint64(db))
			if td.HasArg("coll") {
				td.ScanArgs(t, "coll", &coll)
				prefix = CollectionPrefix(uint64(db), uint64(coll))
				if td.HasArg("idx") {
					td.ScanArgs(t, "idx", &idx)
					prefix = IndexPrefix(uint64(db), uint64(coll), uint64(idx))
				}
			}
			h.deleteFilesInRange = defaultPhaseA
			if td.HasArg("coarse") {
				var coarse string
				td.ScanArgs(t, "coarse", &coarse)
				switch coarse {
				case "skip":
					h.deleteFilesInRange = func(low, high []byte) error { return nil }
				case "fail":
					h.deleteFilesInRange = func(low, high []byte) error {
						return errors.New("injected coarse failure")
					}
				default:
					return fmt.Sprintf("unknown coarse mode %q", coarse)
				}
			}
			before := testutil.ToFloat64(h.Metrics().DropPrefixKeysDeleted)
			if err := h.DropPrefix(prefix); err != nil {
				return err.Error()
			}
			residual := testutil.ToFloat64(h.Metrics().DropPrefixKeysDeleted) - before
			return fmt.Sprintf("dropped %s: %d residual keys\n", prefix, int(residual))

		case "scan":
			iter, err := h.DB().NewIter(nil)
			require.NoError(t, err)
			var buf strings.Builder
			for valid := iter.First(); valid; valid = iter.Next() {
				fmt.Fprintf(&buf, "%s: %s\n", formatTestKey(iter.Key()), iter.Value())
			}
			require.NoError(t, iter.Close())
			if buf.Len() == 0 {
				return "(empty)\n"
			}
			return buf.String()

		default:
			return fmt.Sprintf("unknown command: %s", td.Cmd)
		}
	})
	require.Zero(t, usage.CurrentUsage())
}

func TestDropPrefixIdempotent(t *testing.T) {
	h := openTestHandle(t, nil)
	for db := uint64(1); db <= 3; db++ {
		for i := 0; i < 100; i++ {
			key := CollectionPrefix(db, uint64(i%4)).Key([]byte(fmt.Sprintf("idx-%08d", i)))
			require.NoError(t, h.DB().Set(key, []byte("v"), pebble.NoSync))
		}
	}
	require.NoError(t, h.DB().Flush())

	for i := 0; i < 2; i++ {
		require.NoError(t, h.DropDatabase(2))
		require.Zero(t, countKeys(t, h, DatabasePrefix(2)))
		require.Equal(t, 100, countKeys(t, h, DatabasePrefix(1)))
		require.Equal(t, 100, countKeys(t, h, DatabasePrefix(3)))
	}

	require.NoError(t, h.DropCollection(1, 0))
	require.Equal(t, 75, countKeys(t, h, DatabasePrefix(1)))
	require.NoError(t, h.DropIndex(3, 1, 0))
	require.Equal(t, 100, countKeys(t, h, DatabasePrefix(3)))
}

func TestDropPrefixCoarseFailureIsNotFatal(t *testing.T) {
	h := openTestHandle(t, nil)
	var calls int
	h.deleteFilesInRange = func(low, high []byte) error {
		calls++
		return errors.New("injected")
	}
	for i := 0; i < 10; i++ {
		key := IndexPrefix(5, 1, 0).Key([]byte{byte(i)})
		require.NoError(t, h.DB().Set(key, nil, pebble.NoSync))
	}
	require.NoError(t, h.DropCollection(5, 1))
	require.Equal(t, 1, calls)
	require.Zero(t, countKeys(t, h, DatabasePrefix(5)))
	require.Equal(t, 1.0, testutil.ToFloat64(h.Metrics().DropPrefixCoarseFailures))
	require.Equal(t, 10.0, testutil.ToFloat64(h.Metrics().DropPrefixKeysDeleted))
}

func TestDropPrefixFineFailureIsRetryable(t *testing.T) {
	h := openTestHandle(t, nil)
	h.deleteFilesInRange = func(low, high []byte) error { return nil }
	for i := 0; i < 10; i++ {
		key := IndexPrefix(8, 1, 0).Key([]byte{byte(i)})
		require.NoError(t, h.DB().Set(key, nil, pebble.NoSync))
	}
	other := IndexPrefix(9, 0, 0).Key([]byte("x"))
	require.NoError(t, h.DB().Set(other, nil, pebble.NoSync))

	// Delete part of the prefix and then fail, as a fine phase interrupted
	// midway would.
	h.deleteKeysInRange = func(low, high []byte) (int, error) {
		for i := 0; i < 4; i++ {
			key := IndexPrefix(8, 1, 0).Key([]byte{byte(i)})
			if err := h.DB().Delete(key, pebble.NoSync); err != nil {
				return 0, err
			}
		}
		return 0, errors.New("injected commit failure")
	}
	err := h.DropDatabase(8)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInternal), "%v", err)
	require.ErrorContains(t, err, "injected commit failure")
	require.Equal(t, 6, countKeys(t, h, DatabasePrefix(8)))
	require.Equal(t, 1.0, testutil.ToFloat64(h.Metrics().DropPrefixCalls.WithLabelValues("error")))

	h.deleteKeysInRange = h.deleteVisibleKeys
	require.NoError(t, h.DropDatabase(8))
	require.Zero(t, countKeys(t, h, DatabasePrefix(8)))
	require.Equal(t, 1, countKeys(t, h, DatabasePrefix(9)))
	require.Equal(t, 1.0, testutil.ToFloat64(h.Metrics().DropPrefixCalls.WithLabelValues("ok")))
	require.Equal(t, 6.0, testutil.ToFloat64(h.Metrics().DropPrefixKeysDeleted))
}
