// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/indexstore"
	"github.com/spf13/cobra"
)

var dropCmd = &cobra.Command{
	Use:   "drop <dir> <db> [<coll> [<idx>]]",
	Short: "drop a database, collection or index",
	Long: `
Removes every key of a database, of a collection of a database, or of an
index of a collection.
`,
	Args: cobra.RangeArgs(2, 4),
	RunE: runDrop,
}

func runDrop(cmd *cobra.Command, args []string) (err error) {
	ids := make([]uint64, 0, 3)
	for _, arg := range args[1:] {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid id %q", arg)
		}
		ids = append(ids, id)
	}
	var prefix indexstore.PrefixKey
	switch len(ids) {
	case 1:
		prefix = indexstore.DatabasePrefix(ids[0])
	case 2:
		prefix = indexstore.CollectionPrefix(ids[0], ids[1])
	default:
		prefix = indexstore.IndexPrefix(ids[0], ids[1], ids[2])
	}

	s, err := openStore(args[0])
	if err != nil {
		return err
	}
	defer func() { err = errors.CombineErrors(err, s.close()) }()

	if err := s.h.DropPrefix(prefix); err != nil {
		return err
	}
	fmt.Printf("dropped %s\n", prefix)
	return nil
}
