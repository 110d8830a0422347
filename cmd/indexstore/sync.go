// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync <dir>",
	Short: "force the write-ahead log to stable storage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		s, err := openStore(args[0])
		if err != nil {
			return err
		}
		defer func() { err = errors.CombineErrors(err, s.close()) }()

		seq, err := s.h.WriteSeqNum()
		if err != nil {
			return err
		}
		if err := s.h.SyncWAL(); err != nil {
			return err
		}
		fmt.Printf("synced through seqnum %d\n", seq)
		return nil
	},
}
