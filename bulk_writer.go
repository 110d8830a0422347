// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package indexstore

import (
	"fmt"
	"slices"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/objstorage/objstorageprovider"
	"github.com/cockroachdb/pebble/sstable"
	"github.com/google/uuid"
)

// Estimator is the selectivity estimator of an index. A BulkWriter feeds it
// the hashes of the keys it flushes and never takes them back, also when the
// build is aborted. See package selectivity.
type Estimator interface {
	// Insert applies hashes immediately.
	Insert(hashes []uint64)
	// BufferUpdates records hashes to be applied once the engine's write
	// sequence number seq has been made durable.
	BufferUpdates(seq uint64, hashes []uint64)
}

// Destination is a logically separate keyspace with its own comparer, the
// target of one BulkWriter.
type Destination struct {
	Name     string
	Comparer *pebble.Comparer
	// Estimator is updated as files are flushed. May be nil.
	Estimator Estimator
}

func (d Destination) equal(o Destination) bool {
	return d.Name == o.Name && d.Comparer == o.Comparer
}

// EstimatorMode selects when a BulkWriter applies estimator updates.
type EstimatorMode int8

const (
	// EstimatorForeground applies updates synchronously during each flush.
	EstimatorForeground EstimatorMode = iota
	// EstimatorBackground buffers updates keyed on the engine's current write
	// sequence number, for the estimator owner to replay later.
	EstimatorBackground
)

// String implements fmt.Stringer.
func (m EstimatorMode) String() string {
	switch m {
	case EstimatorForeground:
		return "foreground"
	case EstimatorBackground:
		return "background"
	default:
		return fmt.Sprintf("EstimatorMode(%d)", int8(m))
	}
}

// BulkWriterOptions configures a BulkWriter.
type BulkWriterOptions struct {
	// Dir is the directory sorted files are written to. Defaults to
	// Handle.TempDirPath.
	Dir string
	// FlushThreshold overrides Options.FlushThreshold when non-zero.
	FlushThreshold uint64
	// EstimatorMode is fixed for the lifetime of the writer.
	EstimatorMode EstimatorMode
	// EstimatorKey extracts the bytes of a key that are fed to the
	// estimator. Defaults to the whole key.
	EstimatorKey func(key []byte) []byte
}

// SortedFile is an immutable, finalized sorted file produced by a flush.
type SortedFile struct {
	Path string
	Size uint64
	// Smallest and Largest are the first and last keys of the file.
	Smallest, Largest []byte
}

type pendingEntry struct {
	key, value []byte
}

type bulkWriterState int8

const (
	bulkWriterCollecting bulkWriterState = iota
	bulkWriterDone
)

// BulkWriter accepts an unordered stream of key/value pairs for one index
// build and materializes them as immutable sorted files for later ingestion.
//
// A BulkWriter is not safe for concurrent use. Parallel builds use one writer
// per shard; writers only share the UsageTracker.
type BulkWriter struct {
	h       *Handle
	usage   *UsageTracker
	dest    Destination
	opts    BulkWriterOptions
	buildID string
	state   bulkWriterState

	pending      []pendingEntry
	pendingBytes uint64

	// files are the sorted files owned by the writer, in creation order.
	files        []SortedFile
	fileSeq      int
	bytesWritten uint64
	dirCreated   bool
}

// NewBulkWriter creates a writer for dest. Every file it produces is
// accounted against usage until it is removed or ownership is transferred
// with StealFiles. dest must order keys like the engine does, since its files
// are ingested into it; otherwise an error marked ErrNotSupported is
// returned.
func NewBulkWriter(
	h *Handle, usage *UsageTracker, dest Destination, opts BulkWriterOptions,
) (*BulkWriter, error) {
	if dest.Comparer == nil {
		dest.Comparer = h.Comparer()
	}
	if dest.Comparer.Name != h.Comparer().Name {
		return nil, errors.Mark(
			errors.Newf("indexstore: destination %q uses comparer %q, engine uses %q",
				dest.Name, dest.Comparer.Name, h.Comparer().Name),
			ErrNotSupported)
	}
	if opts.Dir == "" {
		opts.Dir = h.TempDirPath()
	}
	if opts.FlushThreshold == 0 {
		opts.FlushThreshold = h.Options().FlushThreshold
	}
	if opts.EstimatorKey == nil {
		opts.EstimatorKey = func(key []byte) []byte { return key }
	}
	return &BulkWriter{
		h:       h,
		usage:   usage,
		dest:    dest,
		opts:    opts,
		buildID: uuid.NewString(),
	}, nil
}

// Destination returns the destination the writer was created for.
func (w *BulkWriter) Destination() Destination { return w.dest }

// BytesWritten returns the total size of the files currently owned by the
// writer.
func (w *BulkWriter) BytesWritten() uint64 { return w.bytesWritten }

// NumFiles returns the number of files currently owned by the writer.
func (w *BulkWriter) NumFiles() int { return len(w.files) }

// Put buffers a key/value pair for dest. Keys shorter than MinKeyWidth are
// rejected with ErrNotSupported, since DropPrefix could not reach them. The
// key and value are copied. Once
// the buffered bytes reach the flush threshold, the buffer is flushed to a
// new sorted file; an error from that flush is returned, and the writer has
// then been aborted.
func (w *BulkWriter) Put(dest Destination, key, value []byte) error {
	if w.state == bulkWriterDone {
		return ErrClosed
	}
	if !dest.equal(w.dest) {
		return errors.Mark(
			errors.Newf("indexstore: writer for %q cannot write to %q", w.dest.Name, dest.Name),
			ErrNotSupported)
	}
	if len(key) < MinKeyWidth {
		return errors.Mark(
			errors.Newf("indexstore: key of %d bytes is shorter than %d", len(key), MinKeyWidth),
			ErrNotSupported)
	}
	w.pending = append(w.pending, pendingEntry{
		key:   slices.Clone(key),
		value: slices.Clone(value),
	})
	w.pendingBytes += uint64(len(key) + len(value))
	if w.pendingBytes >= w.opts.FlushThreshold {
		return w.Flush()
	}
	return nil
}

// Flush writes the buffered pairs, sorted by the destination comparer, to one
// or more new sorted files. Pairs with equal keys are not merged: a key equal
// to its predecessor starts a new file, so every file is strictly ordered and
// the later pair shadows the earlier one once ingested.
//
// Each finalized file is accounted against the UsageTracker. If that is
// rejected, or any write fails, every file of the writer is removed, its
// bytes released and the writer aborted before the error is returned.
//
// Flushing an empty buffer is a no-op.
func (w *BulkWriter) Flush() error {
	if w.state == bulkWriterDone {
		return ErrClosed
	}
	if len(w.pending) == 0 {
		return nil
	}
	cmp := w.dest.Comparer.Compare
	sort.SliceStable(w.pending, func(i, j int) bool {
		return cmp(w.pending[i].key, w.pending[j].key) < 0
	})

	start := 0
	for i := 1; i <= len(w.pending); i++ {
		if i < len(w.pending) && cmp(w.pending[i-1].key, w.pending[i].key) != 0 {
			continue
		}
		if err := w.writeFile(w.pending[start:i]); err != nil {
			return w.abortWithError(err)
		}
		start = i
	}

	if err := w.updateEstimator(); err != nil {
		return w.abortWithError(err)
	}
	w.pending = w.pending[:0]
	w.pendingBytes = 0
	return nil
}

// writeFile writes entries, which are strictly ordered, to a new file.
func (w *BulkWriter) writeFile(entries []pendingEntry) error {
	fs := w.h.FS()
	if !w.dirCreated {
		if err := fs.MkdirAll(w.opts.Dir, 0755); err != nil {
			return markf(err, ErrInternal, "indexstore: creating %q", w.opts.Dir)
		}
		w.dirCreated = true
	}
	w.fileSeq++
	path := fs.PathJoin(w.opts.Dir, fmt.Sprintf("%s-%06d.sst", w.buildID, w.fileSeq))
	f, err := fs.Create(path)
	if err != nil {
		return markf(err, ErrInternal, "indexstore: creating sorted file")
	}
	tw := sstable.NewWriter(objstorageprovider.NewFileWritable(f), w.h.writerOptions(w.dest.Comparer))

	// removePartial discards a file that is not yet accounted for.
	removePartial := func(err error) error {
		_ = tw.Close()
		if rmErr := fs.Remove(path); rmErr != nil && !oserror.IsNotExist(rmErr) {
			w.h.Logger().Errorf("removing partial sorted file %s: %v", path, rmErr)
		}
		return err
	}
	for _, e := range entries {
		if err := tw.Set(e.key, e.value); err != nil {
			return removePartial(markf(err, ErrInternal, "indexstore: writing sorted file"))
		}
	}

	// Charge the budget before the file is finalized; the charge is corrected
	// to the exact size once it is known.
	estimated := tw.EstimatedSize()
	if err := w.usage.IncreaseUsage(estimated); err != nil {
		w.h.Metrics().BudgetRejections.Inc()
		return removePartial(err)
	}
	w.files = append(w.files, SortedFile{
		Path:     path,
		Size:     estimated,
		Smallest: entries[0].key,
		Largest:  entries[len(entries)-1].key,
	})
	w.bytesWritten += estimated

	// From here on the file is owned and charged; failures are cleaned up by
	// the caller's abort.
	if err := tw.Close(); err != nil {
		return markf(err, ErrInternal, "indexstore: finalizing sorted file")
	}
	meta, err := tw.Metadata()
	if err != nil {
		return markf(err, ErrInternal, "indexstore: finalizing sorted file")
	}
	sf := &w.files[len(w.files)-1]
	if meta.Size > sf.Size {
		if err := w.usage.IncreaseUsage(meta.Size - sf.Size); err != nil {
			w.h.Metrics().BudgetRejections.Inc()
			return err
		}
	} else {
		w.usage.DecreaseUsage(sf.Size - meta.Size)
	}
	w.bytesWritten = w.bytesWritten - sf.Size + meta.Size
	sf.Size = meta.Size

	w.h.Metrics().FlushedFiles.Inc()
	w.h.Metrics().FlushedBytes.Add(float64(meta.Size))
	return nil
}

// updateEstimator feeds the keys of the flushed buffer to the destination's
// estimator.
func (w *BulkWriter) updateEstimator() error {
	est := w.dest.Estimator
	if est == nil {
		return nil
	}
	hashes := make([]uint64, len(w.pending))
	for i := range w.pending {
		hashes[i] = xxhash.Sum64(w.opts.EstimatorKey(w.pending[i].key))
	}
	switch w.opts.EstimatorMode {
	case EstimatorBackground:
		seq, err := w.h.WriteSeqNum()
		if err != nil {
			return err
		}
		est.BufferUpdates(seq, hashes)
	default:
		est.Insert(hashes)
	}
	return nil
}

// StealFiles flushes any buffered pairs and transfers ownership of every
// produced file to the caller, in creation order. The caller becomes
// responsible for removing the files and releasing their bytes from the
// UsageTracker; Handle.Ingest does both. The writer is done afterwards and
// tracks no files, so Abort and Cleanup become no-ops.
func (w *BulkWriter) StealFiles() ([]SortedFile, error) {
	if err := w.Flush(); err != nil {
		return nil, err
	}
	files := w.files
	w.files = nil
	w.bytesWritten = 0
	w.state = bulkWriterDone
	return files, nil
}

// StealFileNames is like StealFiles but only returns the file paths.
func (w *BulkWriter) StealFileNames() ([]string, error) {
	files, err := w.StealFiles()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(files))
	for i := range files {
		names[i] = files[i].Path
	}
	return names, nil
}

// Abort discards buffered pairs, removes every file still owned by the
// writer and releases their bytes from the UsageTracker. It is idempotent.
//
// Hashes already handed to the destination's Estimator by earlier flushes,
// applied or buffered, are not retracted. The owner of the estimator must
// Clear it before the index is rebuilt.
func (w *BulkWriter) Abort() {
	if w.state == bulkWriterDone && len(w.files) == 0 {
		return
	}
	fs := w.h.FS()
	for _, f := range w.files {
		if err := fs.Remove(f.Path); err != nil && !oserror.IsNotExist(err) {
			w.h.Logger().Errorf("removing sorted file %s: %v", f.Path, err)
		}
	}
	w.usage.DecreaseUsage(w.bytesWritten)
	if len(w.files) > 0 {
		w.h.Metrics().Aborts.Inc()
	}
	w.files = nil
	w.bytesWritten = 0
	w.pending = nil
	w.pendingBytes = 0
	w.state = bulkWriterDone
}

// Cleanup is Abort. It is meant to be deferred right after NewBulkWriter:
// once the files have been stolen it does nothing.
func (w *BulkWriter) Cleanup() {
	w.Abort()
}

func (w *BulkWriter) abortWithError(err error) error {
	w.Abort()
	return err
}
