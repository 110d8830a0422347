// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package selectivity implements an approximate selectivity estimator for
// secondary indexes: the ratio of distinct indexed values to index entries.
//
// Updates are either applied immediately with Insert, or buffered with the
// engine write sequence number at which they were produced and replayed with
// ApplyBuffered once that sequence number is known to be durable.
package selectivity

import (
	"encoding/binary"
	"slices"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// DefaultFalsePositiveRate is the false positive rate of the distinct-value
// filter used by New when none is given.
const DefaultFalsePositiveRate = 0.01

type bufferedUpdate struct {
	seq    uint64
	hashes []uint64
}

// Estimator approximates the selectivity of an index. Distinct values are
// counted with a bloom filter, so the estimate may undercount distinct values
// by the filter's false positive rate. It is safe for concurrent use.
type Estimator struct {
	mu struct {
		sync.Mutex
		filter   *bloom.BloomFilter
		distinct uint64
		total    uint64
		buffered []bufferedUpdate
	}
	expected uint
	fpRate   float64
}

// New returns an estimator sized for expected distinct values. A
// non-positive fpRate selects DefaultFalsePositiveRate.
func New(expected uint, fpRate float64) *Estimator {
	if expected == 0 {
		expected = 1
	}
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = DefaultFalsePositiveRate
	}
	e := &Estimator{expected: expected, fpRate: fpRate}
	e.mu.filter = bloom.NewWithEstimates(expected, fpRate)
	return e
}

// Insert records one index entry per hash.
func (e *Estimator) Insert(hashes []uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.insertLocked(hashes)
}

func (e *Estimator) insertLocked(hashes []uint64) {
	var buf [8]byte
	for _, h := range hashes {
		binary.LittleEndian.PutUint64(buf[:], h)
		if !e.mu.filter.TestAndAdd(buf[:]) {
			e.mu.distinct++
		}
		e.mu.total++
	}
}

// Estimate returns the estimated selectivity in (0, 1]. An empty index has
// selectivity 1.
func (e *Estimator) Estimate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mu.total == 0 {
		return 1
	}
	return float64(e.mu.distinct) / float64(e.mu.total)
}

// Counts returns the estimated number of distinct values and the number of
// entries applied so far.
func (e *Estimator) Counts() (distinct, total uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mu.distinct, e.mu.total
}

// BufferUpdates records hashes produced at write sequence number seq without
// applying them. hashes must not be modified afterwards.
func (e *Estimator) BufferUpdates(seq uint64, hashes []uint64) {
	if len(hashes) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mu.buffered = append(e.mu.buffered, bufferedUpdate{seq: seq, hashes: hashes})
}

// ApplyBuffered applies, in sequence number order, every buffered update
// with a sequence number less than or equal to upTo, and returns the number
// of hashes applied. Later updates stay buffered.
func (e *Estimator) ApplyBuffered(upTo uint64) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	slices.SortStableFunc(e.mu.buffered, func(a, b bufferedUpdate) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	n, applied := 0, 0
	for ; n < len(e.mu.buffered) && e.mu.buffered[n].seq <= upTo; n++ {
		e.insertLocked(e.mu.buffered[n].hashes)
		applied += len(e.mu.buffered[n].hashes)
	}
	e.mu.buffered = slices.Delete(e.mu.buffered, 0, n)
	return applied
}

// NumBuffered returns the number of hashes buffered and not yet applied.
func (e *Estimator) NumBuffered() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, u := range e.mu.buffered {
		n += len(u.hashes)
	}
	return n
}

// Clear resets the estimator to its empty state, dropping buffered updates.
func (e *Estimator) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mu.filter = bloom.NewWithEstimates(e.expected, e.fpRate)
	e.mu.distinct = 0
	e.mu.total = 0
	e.mu.buffered = nil
}
