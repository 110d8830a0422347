// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/indexstore"
	"github.com/cockroachdb/indexstore/logdir"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var mklogCmd = &cobra.Command{
	Use:   "mklog <root> <log-id>...",
	Short: "provision durable log directories",
	Long: `
Creates the shared log root and one directory per log id below it, syncing
each new directory and its parents.
`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMklog,
}

func runMklog(cmd *cobra.Command, args []string) error {
	ids := make([]logdir.LogID, 0, len(args)-1)
	for _, arg := range args[1:] {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid log id %q", arg)
		}
		ids = append(ids, logdir.LogID(id))
	}

	logger := indexstore.DefaultLogger{}
	p := logdir.New(vfs.Default, args[0], logger)
	if err := p.EnsureRoot(); err != nil {
		logger.Fatalf("%v", err)
	}

	var g errgroup.Group
	for _, id := range ids {
		id := id // per-iteration copy (go directive lowered to 1.21)
		g.Go(func() error {
			return p.EnsureDirectory(p.LogPath(id))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(p.LogPath(id))
	}
	return nil
}
