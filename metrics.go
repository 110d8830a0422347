// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package indexstore

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "indexstore"

// Metrics holds the collectors updated by Handles and BulkWriters.
type Metrics struct {
	// FlushedFiles counts sorted files finalized by BulkWriters.
	FlushedFiles prometheus.Counter
	// FlushedBytes counts the bytes of sorted files finalized by BulkWriters.
	FlushedBytes prometheus.Counter
	// Aborts counts BulkWriter aborts that removed at least one file.
	Aborts prometheus.Counter
	// BudgetRejections counts flushes rejected by the UsageTracker.
	BudgetRejections prometheus.Counter
	// DropPrefixCalls counts DropPrefix calls by outcome ("ok" or "error").
	DropPrefixCalls *prometheus.CounterVec
	// DropPrefixCoarseFailures counts failed coarse file-deletion phases.
	DropPrefixCoarseFailures prometheus.Counter
	// DropPrefixKeysDeleted counts keys removed by the fine phase.
	DropPrefixKeysDeleted prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg, if non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FlushedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "bulk",
			Name:      "flushed_files_total",
			Help:      "Number of sorted files finalized by bulk writers.",
		}),
		FlushedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "bulk",
			Name:      "flushed_bytes_total",
			Help:      "Bytes of sorted files finalized by bulk writers.",
		}),
		Aborts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "bulk",
			Name:      "aborts_total",
			Help:      "Number of bulk writer aborts that removed files.",
		}),
		BudgetRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "bulk",
			Name:      "budget_rejections_total",
			Help:      "Number of flushes rejected because the disk budget was exhausted.",
		}),
		DropPrefixCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "drop_prefix",
			Name:      "calls_total",
			Help:      "Number of prefix drops by outcome.",
		}, []string{"outcome"}),
		DropPrefixCoarseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "drop_prefix",
			Name:      "coarse_failures_total",
			Help:      "Number of failed coarse file-deletion phases.",
		}),
		DropPrefixKeysDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "drop_prefix",
			Name:      "keys_deleted_total",
			Help:      "Number of keys deleted by the fine phase of prefix drops.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.FlushedFiles,
			m.FlushedBytes,
			m.Aborts,
			m.BudgetRejections,
			m.DropPrefixCalls,
			m.DropPrefixCoarseFailures,
			m.DropPrefixKeysDeleted,
		)
	}
	return m
}

// NewUsageCollector returns gauges reporting the current usage and capacity
// of u.
func NewUsageCollector(u *UsageTracker) []prometheus.Collector {
	return []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "disk_budget",
			Name:      "usage_bytes",
			Help:      "Bytes of sorted files accounted against the disk budget.",
		}, func() float64 { return float64(u.CurrentUsage()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "disk_budget",
			Name:      "capacity_bytes",
			Help:      "Configured disk budget; zero means unlimited.",
		}, func() float64 { return float64(u.MaxCapacity()) }),
	}
}
