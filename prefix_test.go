// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package indexstore

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrefixKeyEncoding(t *testing.T) {
	require.Equal(t, PrefixKey{0, 0, 0, 0, 0, 0, 0, 5}, DatabasePrefix(5))
	require.Len(t, CollectionPrefix(5, 1), 16)
	require.Len(t, IndexPrefix(5, 1, 2), MinKeyWidth)

	require.Equal(t, "db=5", DatabasePrefix(5).String())
	require.Equal(t, "db=5/coll=1", CollectionPrefix(5, 1).String())
	require.Equal(t, "db=5/coll=1/idx=2", IndexPrefix(5, 1, 2).String())
}

func TestPrefixKeyNesting(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		db, coll, idx := rng.Uint64(), rng.Uint64(), rng.Uint64()
		dbLow, dbHigh := DatabasePrefix(db).Bounds()
		collLow, collHigh := CollectionPrefix(db, coll).Bounds()
		idxLow, idxHigh := IndexPrefix(db, coll, idx).Bounds()

		// Each nested keyspace is a sub-range of its parent.
		require.LessOrEqual(t, bytes.Compare(dbLow, collLow), 0)
		require.LessOrEqual(t, bytes.Compare(collHigh, dbHigh), 0)
		require.LessOrEqual(t, bytes.Compare(collLow, idxLow), 0)
		require.LessOrEqual(t, bytes.Compare(idxHigh, collHigh), 0)

		key := IndexPrefix(db, coll, idx).Key([]byte{0xff, 0xff, byte(i)})
		for _, p := range []PrefixKey{
			DatabasePrefix(db), CollectionPrefix(db, coll), IndexPrefix(db, coll, idx),
		} {
			require.True(t, p.Contains(key))
			low, high := p.Bounds()
			require.True(t, bytes.Compare(low, key) <= 0, "%s: %x < %x", p, key, low)
			require.True(t, bytes.Compare(key, high) < 0, "%s: %x >= %x", p, key, high)
		}
	}
}

func TestPrefixKeyOrderMatchesIDs(t *testing.T) {
	require.Negative(t, bytes.Compare(DatabasePrefix(5), DatabasePrefix(6)))
	require.Negative(t, bytes.Compare(DatabasePrefix(255), DatabasePrefix(256)))
	_, high5 := DatabasePrefix(5).Bounds()
	low6, _ := DatabasePrefix(6).Bounds()
	require.LessOrEqual(t, bytes.Compare(high5, low6), 0)
}

func TestPrefixKeyBoundsNoSuccessor(t *testing.T) {
	p := DatabasePrefix(math.MaxUint64)
	low, high := p.Bounds()
	require.Len(t, low, MinKeyWidth)
	require.Equal(t, bytes.Repeat([]byte{0xff}, MinKeyWidth+1), high)
	require.True(t, bytes.Compare(p.Key(make([]byte, 16)), high) < 0)
}
