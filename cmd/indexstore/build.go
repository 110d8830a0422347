// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/indexstore"
	"github.com/cockroachdb/indexstore/selectivity"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	minLatency = 10 * time.Microsecond
	maxLatency = 10 * time.Second
)

var buildConfig struct {
	shards         int
	keys           int
	valueSize      int
	distinct       int
	flushThreshold uint64
	background     bool
	seed           int64
	db, coll, idx  uint64
}

var buildCmd = &cobra.Command{
	Use:   "build <dir>",
	Short: "build an index from random entries with concurrent bulk writers",
	Long: `
Generates random index entries, writes them with one bulk writer per shard,
and ingests the resulting sorted files. Prints flush latencies and the
selectivity estimate of the index.
`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func newHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(minLatency.Nanoseconds(), maxLatency.Nanoseconds(), 2)
}

func recordLatency(h *hdrhistogram.Histogram, elapsed time.Duration) {
	if elapsed < minLatency {
		elapsed = minLatency
	} else if elapsed > maxLatency {
		elapsed = maxLatency
	}
	_ = h.RecordValue(elapsed.Nanoseconds())
}

func runBuild(cmd *cobra.Command, args []string) (err error) {
	cfg := buildConfig
	if cfg.shards <= 0 || cfg.distinct <= 0 {
		return errors.New("--shards and --distinct must be positive")
	}
	s, err := openStore(args[0])
	if err != nil {
		return err
	}
	defer func() { err = errors.CombineErrors(err, s.close()) }()

	estimator := selectivity.New(uint(cfg.distinct), 0)
	dest := s.h.DefaultDestination(indexstore.IndexPrefix(cfg.db, cfg.coll, cfg.idx).String(), estimator)
	mode := indexstore.EstimatorForeground
	if cfg.background {
		mode = indexstore.EstimatorBackground
	}
	// Entries are {index prefix}{8B value}{8B document}; the estimator only
	// looks at the value.
	prefix := indexstore.IndexPrefix(cfg.db, cfg.coll, cfg.idx)
	valueOf := func(key []byte) []byte { return key[:len(prefix)+8] }

	start := time.Now()
	results := make([][]indexstore.SortedFile, cfg.shards)
	hists := make([]*hdrhistogram.Histogram, cfg.shards)
	var g errgroup.Group
	for shard := 0; shard < cfg.shards; shard++ {
		shard := shard // per-iteration copy (go directive lowered to 1.21)
		g.Go(func() error {
			w, err := indexstore.NewBulkWriter(s.h, s.usage, dest, indexstore.BulkWriterOptions{
				Dir:            s.tmp.Path(),
				FlushThreshold: cfg.flushThreshold,
				EstimatorMode:  mode,
				EstimatorKey:   valueOf,
			})
			if err != nil {
				return err
			}
			defer w.Cleanup()

			rng := rand.New(rand.NewSource(cfg.seed + int64(shard)))
			hist := newHistogram()
			value := make([]byte, cfg.valueSize)
			for doc := shard; doc < cfg.keys; doc += cfg.shards {
				key := binary.BigEndian.AppendUint64(prefix.Key(nil), uint64(rng.Intn(cfg.distinct)))
				key = binary.BigEndian.AppendUint64(key, uint64(doc))
				rng.Read(value)

				numFiles := w.NumFiles()
				begin := time.Now()
				if err := w.Put(dest, key, value); err != nil {
					return errors.Wrapf(err, "shard %d", shard)
				}
				if w.NumFiles() != numFiles {
					recordLatency(hist, time.Since(begin))
				}
			}
			begin := time.Now()
			files, err := w.StealFiles()
			if err != nil {
				return errors.Wrapf(err, "shard %d", shard)
			}
			if len(files) > 0 {
				recordLatency(hist, time.Since(begin))
			}
			results[shard], hists[shard] = files, hist
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Files stolen by the shards that succeeded are removed when the
		// temporary directory is closed.
		return err
	}
	written := s.usage.CurrentUsage()

	var numFiles int
	for _, files := range results {
		numFiles += len(files)
		if err := s.h.Ingest(files, s.usage); err != nil {
			return err
		}
	}
	if cfg.background {
		seq, err := s.h.WriteSeqNum()
		if err != nil {
			return err
		}
		if err := s.h.SyncWAL(); err != nil {
			return err
		}
		estimator.ApplyBuffered(seq)
	}

	merged := newHistogram()
	for _, h := range hists {
		merged.Merge(h)
	}
	fmt.Printf("entries:      %d\n", cfg.keys)
	fmt.Printf("files:        %d (%d bytes)\n", numFiles, written)
	fmt.Printf("elapsed:      %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("flush(ms):    p50 %.1f  p95 %.1f  p99 %.1f  max %.1f\n",
		time.Duration(merged.ValueAtQuantile(50)).Seconds()*1000,
		time.Duration(merged.ValueAtQuantile(95)).Seconds()*1000,
		time.Duration(merged.ValueAtQuantile(99)).Seconds()*1000,
		time.Duration(merged.ValueAtQuantile(100)).Seconds()*1000)
	fmt.Printf("selectivity:  %.4f\n", estimator.Estimate())
	return nil
}
