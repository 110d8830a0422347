// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package indexstore

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/redact"
)

// idWidth is the encoded width of a database, collection or index id.
const idWidth = 8

// MinKeyWidth is the minimum width of every key stored by the engine: an
// index key always starts with the full {database, collection, index}
// prefix.
const MinKeyWidth = 3 * idWidth

// PrefixKey is the byte prefix shared by every key of a database, collection
// or index:
//
//	{8B databaseID}[{8B collectionID}[{8B indexID}]]
//
// Ids are encoded big-endian so that byte order equals numeric order, and
// the keyspace of a collection is a strict sub-range of the keyspace of its
// database (likewise for an index and its collection).
type PrefixKey []byte

// DatabasePrefix returns the prefix of every key of a database.
func DatabasePrefix(databaseID uint64) PrefixKey {
	return binary.BigEndian.AppendUint64(make(PrefixKey, 0, idWidth), databaseID)
}

// CollectionPrefix returns the prefix of every key of a collection.
func CollectionPrefix(databaseID, collectionID uint64) PrefixKey {
	k := make(PrefixKey, 0, 2*idWidth)
	k = binary.BigEndian.AppendUint64(k, databaseID)
	return binary.BigEndian.AppendUint64(k, collectionID)
}

// IndexPrefix returns the prefix of every key of an index.
func IndexPrefix(databaseID, collectionID, indexID uint64) PrefixKey {
	k := make(PrefixKey, 0, MinKeyWidth)
	k = binary.BigEndian.AppendUint64(k, databaseID)
	k = binary.BigEndian.AppendUint64(k, collectionID)
	return binary.BigEndian.AppendUint64(k, indexID)
}

// Key returns a new key made of the prefix followed by suffix.
func (p PrefixKey) Key(suffix []byte) []byte {
	k := make([]byte, 0, len(p)+len(suffix))
	k = append(k, p...)
	return append(k, suffix...)
}

// Contains returns true if key lies in the keyspace of p.
func (p PrefixKey) Contains(key []byte) bool {
	return bytes.HasPrefix(key, p)
}

// Bounds returns the [low, high) span covering every key under p.
//
// low is p padded with 0x00 up to MinKeyWidth; since no stored key is shorter
// than MinKeyWidth, no key under p sorts before it. high is the immediate
// successor of p, so that keys whose suffix begins with 0xff bytes are still
// covered. When p is all 0xff and has no successor, high falls back to p
// padded with 0xff to MinKeyWidth and suffixed with one more 0xff.
func (p PrefixKey) Bounds() (low, high []byte) {
	low = make([]byte, max(len(p), MinKeyWidth))
	copy(low, p)

	for i := len(p) - 1; i >= 0; i-- {
		if p[i] != 0xff {
			high = make([]byte, i+1)
			copy(high, p[:i+1])
			high[i]++
			return low, high
		}
	}
	high = bytes.Repeat([]byte{0xff}, max(len(p), MinKeyWidth)+1)
	return low, high
}

// SafeFormat implements redact.SafeFormatter. Ids are not user data.
func (p PrefixKey) SafeFormat(w redact.SafePrinter, _ rune) {
	names := [...]string{"db", "coll", "idx"}
	for i := 0; i*idWidth < len(p); i++ {
		if i > 0 {
			w.SafeRune('/')
		}
		if (i+1)*idWidth > len(p) || i >= len(names) {
			w.Printf("%x", p[i*idWidth:])
			return
		}
		w.Printf("%s=%d", redact.SafeString(names[i]),
			redact.SafeUint(binary.BigEndian.Uint64(p[i*idWidth:])))
	}
}

// String implements fmt.Stringer.
func (p PrefixKey) String() string {
	return redact.StringWithoutMarkers(p)
}
