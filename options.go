// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package indexstore

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"gopkg.in/yaml.v3"
)

const (
	defaultMemTableSize             = 64 << 20 // 64 MB
	defaultMaxConcurrentCompactions = 2
	defaultMaxOpenFiles             = 1000
	defaultL0CompactionThreshold    = 4
	defaultFlushThreshold           = 64 << 20 // 64 MB
	defaultCompression              = "snappy"
	numLevels                       = 7
)

// Options holds the optional parameters for a Handle and the BulkWriters
// created against it. The zero value is usable once EnsureDefaults is
// called; Open does so on a copy.
type Options struct {
	// FS is the filesystem the engine, the temporary sst directory and the
	// log directories live on. Defaults to vfs.Default.
	FS vfs.FS `yaml:"-"`

	// Logger is used for informational and error messages. It is also handed
	// to the engine. Defaults to DefaultLogger.
	Logger Logger `yaml:"-"`

	// Comparer orders the keys of the default destination. Defaults to
	// pebble.DefaultComparer.
	Comparer *pebble.Comparer `yaml:"-"`

	// Metrics receives counters for flushes, aborts and prefix drops. When
	// nil, unregistered collectors are created.
	Metrics *Metrics `yaml:"-"`

	// MemTableSize is the size of the engine's in-memory write buffer.
	MemTableSize uint64 `yaml:"mem_table_size"`

	// MaxConcurrentCompactions is the number of background compaction jobs.
	MaxConcurrentCompactions int `yaml:"max_concurrent_compactions"`

	// MaxOpenFiles is a soft limit on the number of open files the engine
	// uses.
	MaxOpenFiles int `yaml:"max_open_files"`

	// L0CompactionThreshold is the number of L0 read-amplification units
	// that triggers an L0 compaction.
	L0CompactionThreshold int `yaml:"l0_compaction_threshold"`

	// Compression names the block compression used on every level: one of
	// "snappy", "zstd" or "none".
	Compression string `yaml:"compression"`

	// DisableWAL disables the engine's write-ahead log. Handle.SyncWAL is a
	// no-op in that case.
	DisableWAL bool `yaml:"disable_wal"`

	// MaxDiskUsage caps the bytes of sorted files written by bulk builds and
	// not yet ingested or removed. Zero means unlimited.
	MaxDiskUsage uint64 `yaml:"max_disk_usage"`

	// FlushThreshold is the number of buffered key and value bytes after
	// which a BulkWriter flushes to a new sorted file.
	FlushThreshold uint64 `yaml:"flush_threshold"`
}

// EnsureDefaults ensures that the default values for all options are set if a
// valid value was not already specified. Returns the new options.
func (o *Options) EnsureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	if o.FS == nil {
		o.FS = vfs.Default
	}
	if o.Logger == nil {
		o.Logger = DefaultLogger{}
	}
	if o.Comparer == nil {
		o.Comparer = pebble.DefaultComparer
	}
	if o.Metrics == nil {
		o.Metrics = NewMetrics(nil)
	}
	if o.MemTableSize == 0 {
		o.MemTableSize = defaultMemTableSize
	}
	if o.MaxConcurrentCompactions <= 0 {
		o.MaxConcurrentCompactions = defaultMaxConcurrentCompactions
	}
	if o.MaxOpenFiles <= 0 {
		o.MaxOpenFiles = defaultMaxOpenFiles
	}
	if o.L0CompactionThreshold <= 0 {
		o.L0CompactionThreshold = defaultL0CompactionThreshold
	}
	if o.Compression == "" {
		o.Compression = defaultCompression
	}
	if o.FlushThreshold == 0 {
		o.FlushThreshold = defaultFlushThreshold
	}
	return o
}

// Clone creates a shallow copy of the supplied options.
func (o *Options) Clone() *Options {
	n := &Options{}
	if o != nil {
		*n = *o
	}
	return n
}

// Validate verifies that the options are mutually consistent.
func (o *Options) Validate() error {
	if _, err := parseCompression(o.Compression); err != nil {
		return err
	}
	return nil
}

func parseCompression(name string) (pebble.Compression, error) {
	switch name {
	case "snappy", "":
		return pebble.SnappyCompression, nil
	case "zstd":
		return pebble.ZstdCompression, nil
	case "none":
		return pebble.NoCompression, nil
	default:
		return pebble.DefaultCompression, errors.Newf("indexstore: unknown compression %q", name)
	}
}

// engineOptions translates o into the options of the embedded engine. o must
// have been passed through EnsureDefaults and Validate.
func (o *Options) engineOptions() *pebble.Options {
	compression, _ := parseCompression(o.Compression)
	concurrency := o.MaxConcurrentCompactions
	opts := &pebble.Options{
		FS:                       o.FS,
		Comparer:                 o.Comparer,
		Logger:                   o.Logger,
		MemTableSize:             o.MemTableSize,
		MaxOpenFiles:             o.MaxOpenFiles,
		L0CompactionThreshold:    o.L0CompactionThreshold,
		MaxConcurrentCompactions: func() int { return concurrency },
		DisableWAL:               o.DisableWAL,
		FormatMajorVersion:       pebble.FormatNewest,
	}
	opts.Levels = make([]pebble.LevelOptions, numLevels)
	for i := range opts.Levels {
		opts.Levels[i].Compression = compression
	}
	return opts.EnsureDefaults()
}

// LoadOptions reads YAML-encoded options from path on fs. Fields that cannot
// be expressed in a file (filesystem, logger, comparer, metrics) are left
// unset.
func LoadOptions(fs vfs.FS, path string) (*Options, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "indexstore: opening options file %q", path)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "indexstore: reading options file %q", path)
	}
	return ParseOptions(data)
}

// ParseOptions decodes YAML-encoded options.
func ParseOptions(data []byte) (*Options, error) {
	o := &Options{}
	if err := yaml.Unmarshal(data, o); err != nil {
		return nil, errors.Wrap(err, "indexstore: parsing options")
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// PathProvider gives the base directory under which persistent data lives.
type PathProvider interface {
	PersistentDir() string
}

// StaticPaths is a PathProvider rooted at a fixed directory.
type StaticPaths string

// PersistentDir implements PathProvider.
func (p StaticPaths) PersistentDir() string { return string(p) }
