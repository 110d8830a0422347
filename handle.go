// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package indexstore

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
	"github.com/cockroachdb/indexstore/internal/invariants"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/sstable"
	"github.com/cockroachdb/pebble/vfs"
)

const (
	engineDirName  = "engine"
	tempSSTDirName = "tmp-sst"
)

// Handle owns the embedded engine instance used for persistent indexes. A
// Handle is created once per process by Open and passed explicitly to every
// consumer; there is no global accessor.
//
// A Handle is safe for concurrent use, with the exception of Close.
type Handle struct {
	db         *pebble.DB
	opts       *Options
	engineOpts *pebble.Options
	dirname    string
	tempDir    string

	// deleteFilesInRange and deleteKeysInRange implement the coarse and fine
	// phases of DropPrefix. They are fields so that tests can inject failures.
	deleteFilesInRange func(low, high []byte) error
	deleteKeysInRange  func(low, high []byte) (int, error)

	closed invariants.CloseChecker
}

// Open opens the engine in a directory below paths.PersistentDir(). Any
// failure, including on-disk corruption, is marked with ErrEngineOpen.
func Open(opts *Options, paths PathProvider) (*Handle, error) {
	opts = opts.Clone().EnsureDefaults()
	if err := opts.Validate(); err != nil {
		return nil, errors.Mark(err, ErrEngineOpen)
	}
	root := paths.PersistentDir()
	h := &Handle{
		opts:       opts,
		engineOpts: opts.engineOptions(),
		dirname:    opts.FS.PathJoin(root, engineDirName),
		tempDir:    opts.FS.PathJoin(root, tempSSTDirName),
	}
	db, err := pebble.Open(h.dirname, h.engineOpts)
	if err != nil {
		return nil, markf(err, ErrEngineOpen, "indexstore: opening engine in %q", h.dirname)
	}
	h.db = db
	h.deleteFilesInRange = h.deleteRangeTombstone
	h.deleteKeysInRange = h.deleteVisibleKeys
	opts.Logger.Infof("opened engine in %s (format %s)", h.dirname, db.FormatMajorVersion())
	return h, nil
}

// Close closes the engine. The Handle must not be used afterwards.
func (h *Handle) Close() error {
	h.closed.Close()
	if err := h.db.Close(); err != nil {
		return markf(err, ErrInternal, "indexstore: closing engine")
	}
	return nil
}

// DB returns the underlying engine, for readers and writers not modeled by
// this package.
func (h *Handle) DB() *pebble.DB { return h.db }

// FS returns the filesystem the engine lives on.
func (h *Handle) FS() vfs.FS { return h.opts.FS }

// Dirname returns the directory of the engine.
func (h *Handle) Dirname() string { return h.dirname }

// TempDirPath returns the directory BulkWriters write sorted files into by
// default. See OpenTempDirectory.
func (h *Handle) TempDirPath() string { return h.tempDir }

// Logger returns the logger the Handle was opened with.
func (h *Handle) Logger() Logger { return h.opts.Logger }

// Metrics returns the collectors the Handle was opened with.
func (h *Handle) Metrics() *Metrics { return h.opts.Metrics }

// Options returns the effective options of the Handle.
func (h *Handle) Options() *Options { return h.opts }

// Comparer returns the comparer of the default destination.
func (h *Handle) Comparer() *pebble.Comparer { return h.opts.Comparer }

// DefaultDestination returns a destination named name that orders keys with
// the engine comparer. estimator may be nil.
func (h *Handle) DefaultDestination(name string, estimator Estimator) Destination {
	return Destination{Name: name, Comparer: h.opts.Comparer, Estimator: estimator}
}

// writerOptions returns the options used to write sorted files that the
// engine can ingest.
func (h *Handle) writerOptions(cmp *pebble.Comparer) sstable.WriterOptions {
	wo := h.engineOpts.MakeWriterOptions(0, h.db.FormatMajorVersion().MaxTableFormat())
	wo.Comparer = cmp
	return wo
}

// writeOptions returns the options for writes that must be durable on
// return. Requesting a sync with the WAL disabled is an error in the engine.
func (h *Handle) writeOptions() *pebble.WriteOptions {
	if h.opts.DisableWAL {
		return pebble.NoSync
	}
	return pebble.Sync
}

// SyncWAL forces all prior writes to durable storage. Failures are marked
// with ErrSync. When the write-ahead log is disabled there is nothing to
// sync and SyncWAL is a no-op.
func (h *Handle) SyncWAL() error {
	h.closed.AssertNotClosed()
	if h.opts.DisableWAL {
		return nil
	}
	b := h.db.NewBatch()
	defer b.Close()
	// An empty log-data record is enough to make the commit pipeline write
	// and sync the WAL up to and including every prior write.
	if err := b.LogData(nil, nil); err != nil {
		return markf(err, ErrSync, "indexstore: syncing WAL")
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return markf(err, ErrSync, "indexstore: syncing WAL")
	}
	return nil
}

// WriteSeqNum returns the sequence number the engine will assign to its next
// write. Every write visible before the call has a smaller sequence number.
func (h *Handle) WriteSeqNum() (uint64, error) {
	b := h.db.NewBatch()
	defer b.Close()
	if err := b.LogData(nil, nil); err != nil {
		return 0, markf(err, ErrInternal, "indexstore: reading sequence number")
	}
	if err := b.Commit(pebble.NoSync); err != nil {
		return 0, markf(err, ErrInternal, "indexstore: reading sequence number")
	}
	return b.SeqNum(), nil
}

// Ingest adds the given sorted files, typically obtained from
// BulkWriter.StealFiles, to the engine. Files later in the slice shadow
// earlier ones for equal keys.
//
// The engine ingests a set of files atomically only if their key ranges do
// not overlap, so files are ingested in consecutive non-overlapping groups.
// Ingest takes ownership of every file: once it returns, all of them have
// been removed and their bytes released from usage (which may be nil),
// whether or not they were ingested. On failure the groups that preceded the
// failing one remain ingested; re-running the whole build is safe.
func (h *Handle) Ingest(files []SortedFile, usage *UsageTracker) error {
	cmp := h.opts.Comparer.Compare
	release := func(files []SortedFile) {
		for _, f := range files {
			if err := h.opts.FS.Remove(f.Path); err != nil && !oserror.IsNotExist(err) {
				h.opts.Logger.Errorf("removing sorted file %s: %v", f.Path, err)
			}
			if usage != nil {
				usage.DecreaseUsage(f.Size)
			}
		}
	}

	var group []SortedFile
	for i, f := range files {
		overlaps := false
		for _, g := range group {
			if cmp(f.Smallest, g.Largest) <= 0 && cmp(g.Smallest, f.Largest) <= 0 {
				overlaps = true
				break
			}
		}
		if overlaps {
			if err := h.ingestGroup(group); err != nil {
				release(files[i-len(group):])
				return err
			}
			release(group)
			group = group[:0:0]
		}
		group = append(group, f)
	}
	if err := h.ingestGroup(group); err != nil {
		release(group)
		return err
	}
	release(group)
	return nil
}

func (h *Handle) ingestGroup(group []SortedFile) error {
	if len(group) == 0 {
		return nil
	}
	paths := make([]string, len(group))
	for i := range group {
		paths[i] = group[i].Path
	}
	if err := h.db.Ingest(paths); err != nil {
		return markf(err, ErrInternal, "indexstore: ingesting %d files", len(paths))
	}
	return nil
}
