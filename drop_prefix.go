// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package indexstore

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
)

// DropDatabase removes every key of a database.
func (h *Handle) DropDatabase(databaseID uint64) error {
	return h.DropPrefix(DatabasePrefix(databaseID))
}

// DropCollection removes every key of a collection.
func (h *Handle) DropCollection(databaseID, collectionID uint64) error {
	return h.DropPrefix(CollectionPrefix(databaseID, collectionID))
}

// DropIndex removes every key of an index.
func (h *Handle) DropIndex(databaseID, collectionID, indexID uint64) error {
	return h.DropPrefix(IndexPrefix(databaseID, collectionID, indexID))
}

// DropPrefix removes every key under prefix. It proceeds in two phases:
//
//  1. A coarse phase asks the engine to drop the files fully contained in
//     the prefix's span without reading them. The engine records a range
//     tombstone and reclaims covered files with delete-only compactions.
//     This phase is best effort; a failure is logged and ignored.
//  2. A fine phase iterates over whatever remains visible in the span and
//     deletes each key in one batch, committed atomically once the scan is
//     done.
//
// On success no key under prefix is visible to iterators created afterwards.
// Iterators created before the call may still observe the old keys. On
// failure, marked with ErrInternal, the prefix may be partially deleted; the
// call may simply be retried since deleting an absent key is a no-op.
//
// Keys shorter than MinKeyWidth are not covered. BulkWriter never produces
// them, but writes made directly through DB() must respect the same width.
//
// DropPrefix blocks for I/O proportional to the number of residual keys.
func (h *Handle) DropPrefix(prefix PrefixKey) error {
	h.closed.AssertNotClosed()
	low, high := prefix.Bounds()

	if err := h.deleteFilesInRange(low, high); err != nil {
		h.opts.Metrics.DropPrefixCoarseFailures.Inc()
		h.opts.Logger.Errorf("drop prefix %s: coarse file deletion failed: %v", prefix, err)
	}

	n, err := h.deleteKeysInRange(low, high)
	if err != nil {
		h.opts.Metrics.DropPrefixCalls.WithLabelValues("error").Inc()
		return markf(err, ErrInternal, "indexstore: dropping prefix %s", prefix)
	}
	h.opts.Metrics.DropPrefixKeysDeleted.Add(float64(n))
	h.opts.Metrics.DropPrefixCalls.WithLabelValues("ok").Inc()
	if n > 0 {
		h.opts.Logger.Infof("drop prefix %s: deleted %d residual keys", prefix, n)
	}
	return nil
}

// deleteRangeTombstone is the default coarse phase of DropPrefix.
func (h *Handle) deleteRangeTombstone(low, high []byte) error {
	return h.db.DeleteRange(low, high, h.writeOptions())
}

// deleteVisibleKeys is the default fine phase of DropPrefix. It deletes every
// visible key in [low, high) with a single batch and returns the number of
// keys deleted.
func (h *Handle) deleteVisibleKeys(low, high []byte) (int, error) {
	iter, err := h.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: high})
	if err != nil {
		return 0, err
	}
	b := h.db.NewBatch()
	defer b.Close()

	n := 0
	for valid := iter.First(); valid; valid = iter.Next() {
		if err := b.Delete(iter.Key(), nil); err != nil {
			return 0, errors.CombineErrors(err, iter.Close())
		}
		n++
	}
	if err := iter.Close(); err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	if err := b.Commit(h.writeOptions()); err != nil {
		return 0, err
	}
	return n, nil
}
