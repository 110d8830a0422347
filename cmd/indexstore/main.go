// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var (
	optionsFile  string
	maxDiskUsage uint64
	printMetrics bool
)

var rootCmd = &cobra.Command{
	Use:   "indexstore [command] (flags)",
	Short: "index artifact management tool",
	Long:  ``,
}

func main() {
	log.SetFlags(0)

	cobra.EnableCommandSorting = false
	rootCmd.AddCommand(
		buildCmd,
		dropCmd,
		filesCmd,
		syncCmd,
		mklogCmd,
	)

	for _, cmd := range []*cobra.Command{buildCmd, dropCmd, filesCmd, syncCmd} {
		cmd.Flags().StringVar(
			&optionsFile, "options", "", "YAML file with engine and bulk build options")
		cmd.Flags().Uint64Var(
			&maxDiskUsage, "max-disk-usage", 0,
			"maximum bytes of sorted files awaiting ingestion (0 means the options file value)")
		cmd.Flags().BoolVar(
			&printMetrics, "metrics", false, "print metrics on exit")
	}

	buildCmd.Flags().IntVarP(
		&buildConfig.shards, "shards", "s", 4, "number of concurrent writers")
	buildCmd.Flags().IntVarP(
		&buildConfig.keys, "keys", "n", 100000, "number of index entries to write")
	buildCmd.Flags().IntVar(
		&buildConfig.valueSize, "value", 64, "size of values")
	buildCmd.Flags().IntVar(
		&buildConfig.distinct, "distinct", 1000, "number of distinct indexed values")
	buildCmd.Flags().Uint64Var(
		&buildConfig.flushThreshold, "flush-threshold", 0,
		"buffered bytes per writer before a flush (0 means the options file value)")
	buildCmd.Flags().BoolVar(
		&buildConfig.background, "background-estimator", false,
		"buffer estimator updates instead of applying them during flushes")
	buildCmd.Flags().Int64Var(
		&buildConfig.seed, "seed", 1, "random seed")
	buildCmd.Flags().Uint64Var(&buildConfig.db, "db", 1, "database id")
	buildCmd.Flags().Uint64Var(&buildConfig.coll, "coll", 1, "collection id")
	buildCmd.Flags().Uint64Var(&buildConfig.idx, "idx", 1, "index id")

	if err := rootCmd.Execute(); err != nil {
		// Cobra has already printed the error message.
		os.Exit(1)
	}
}
