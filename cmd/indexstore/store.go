// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/indexstore"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// store bundles the objects a command needs: the engine handle, the shared
// disk budget and the directory bulk writers write into.
type store struct {
	h     *indexstore.Handle
	usage *indexstore.UsageTracker
	tmp   *indexstore.TempDirectory
	reg   *prometheus.Registry
}

func loadOptions() (*indexstore.Options, error) {
	opts := &indexstore.Options{}
	if optionsFile != "" {
		var err error
		if opts, err = indexstore.LoadOptions(vfs.Default, optionsFile); err != nil {
			return nil, err
		}
	}
	if maxDiskUsage != 0 {
		opts.MaxDiskUsage = maxDiskUsage
	}
	return opts, nil
}

func openStore(dir string) (*store, error) {
	opts, err := loadOptions()
	if err != nil {
		return nil, err
	}
	s := &store{reg: prometheus.NewRegistry()}
	opts.Metrics = indexstore.NewMetrics(s.reg)
	if s.h, err = indexstore.Open(opts, indexstore.StaticPaths(dir)); err != nil {
		return nil, err
	}
	s.usage = indexstore.NewUsageTracker(s.h.Options().MaxDiskUsage)
	s.reg.MustRegister(indexstore.NewUsageCollector(s.usage)...)
	s.tmp, err = indexstore.OpenTempDirectory(s.h.FS(), s.h.TempDirPath(), s.usage, s.h.Logger())
	if err != nil {
		return nil, errors.CombineErrors(err, s.h.Close())
	}
	return s, nil
}

func (s *store) close() error {
	if printMetrics {
		s.dumpMetrics()
	}
	return errors.CombineErrors(s.tmp.Close(), s.h.Close())
}

func (s *store) dumpMetrics() {
	families, err := s.reg.Gather()
	if err != nil {
		s.h.Logger().Errorf("gathering metrics: %v", err)
		return
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
			s.h.Logger().Errorf("writing metrics: %v", err)
			return
		}
	}
}
