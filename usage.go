// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package indexstore

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/indexstore/internal/invariants"
)

// UsageTracker accounts for the disk space consumed by sorted files that
// have been written but not yet ingested or removed. A single tracker is
// shared by every BulkWriter of a process.
//
// It is a soft admission control: an increase that would push the usage
// above the configured capacity is rejected, but nothing is reserved ahead
// of time, and contributions from unrelated builds interleave freely.
//
// All UsageTracker methods are safe for concurrent use and never block.
type UsageTracker struct {
	// The maximum allowed space (in bytes). Zero disables the limit.
	maxCapacity atomic.Uint64
	// The sum of all bytes accounted for by IncreaseUsage and not yet
	// released by DecreaseUsage.
	currentUsage atomic.Uint64
	// Number of rejected increases, for metrics.
	rejections atomic.Uint64
}

// NewUsageTracker returns a tracker with the given capacity. A capacity of
// zero means unlimited.
func NewUsageTracker(maxCapacity uint64) *UsageTracker {
	u := &UsageTracker{}
	u.maxCapacity.Store(maxCapacity)
	return u
}

// IncreaseUsage adds n bytes to the current usage. If a capacity is
// configured and the result would exceed it, the usage is left unchanged and
// an error marked with ErrResourceLimit is returned.
func (u *UsageTracker) IncreaseUsage(n uint64) error {
	for {
		cur := u.currentUsage.Load()
		next := cur + n
		if limit := u.maxCapacity.Load(); limit > 0 && (next > limit || next < cur) {
			u.rejections.Add(1)
			return errors.Mark(
				errors.Newf("indexstore: cannot add %d bytes: usage %d, capacity %d", n, cur, limit),
				ErrResourceLimit)
		}
		if u.currentUsage.CompareAndSwap(cur, next) {
			return nil
		}
	}
}

// DecreaseUsage releases n bytes. Releasing more than is currently in use is
// a programming error: it panics in invariant builds and clamps the usage at
// zero otherwise.
func (u *UsageTracker) DecreaseUsage(n uint64) {
	for {
		cur := u.currentUsage.Load()
		if u.currentUsage.CompareAndSwap(cur, invariants.SafeSub(cur, n)) {
			return
		}
	}
}

// CurrentUsage returns the number of bytes currently accounted for.
func (u *UsageTracker) CurrentUsage() uint64 {
	return u.currentUsage.Load()
}

// MaxCapacity returns the configured capacity; zero means unlimited.
func (u *UsageTracker) MaxCapacity() uint64 {
	return u.maxCapacity.Load()
}

// SetMaxCapacity updates the capacity. Usage above a lowered capacity is not
// reclaimed; only subsequent increases are rejected.
func (u *UsageTracker) SetMaxCapacity(maxCapacity uint64) {
	u.maxCapacity.Store(maxCapacity)
}

// IsMaxCapacityReached returns true if a capacity is configured and the
// current usage has reached it.
func (u *UsageTracker) IsMaxCapacityReached() bool {
	limit := u.maxCapacity.Load()
	return limit > 0 && u.currentUsage.Load() >= limit
}

// Rejections returns the number of increases rejected so far.
func (u *UsageTracker) Rejections() uint64 {
	return u.rejections.Load()
}

// reset returns the usage to zero. It is only called once every file the
// usage accounted for has been removed.
func (u *UsageTracker) reset() {
	u.currentUsage.Store(0)
}
