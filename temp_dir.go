// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package indexstore

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
	"github.com/cockroachdb/pebble/vfs"
)

// TempDirectory is the directory BulkWriters write sorted files into while a
// bulk build is in progress. Its lifetime spans the bulk-build feature: it is
// wiped when opened, since files left by a crashed process are never
// ingested, and removed on Close, at which point the UsageTracker returns to
// zero.
type TempDirectory struct {
	fs     vfs.FS
	dir    string
	usage  *UsageTracker
	logger Logger
}

// OpenTempDirectory (re)creates dir on fs, removing any leftover files.
func OpenTempDirectory(
	fs vfs.FS, dir string, usage *UsageTracker, logger Logger,
) (*TempDirectory, error) {
	if logger == nil {
		logger = DefaultLogger{}
	}
	t := &TempDirectory{fs: fs, dir: dir, usage: usage, logger: logger}
	n, err := t.removeContents()
	if err != nil {
		return nil, err
	}
	if n > 0 {
		logger.Infof("removed %d leftover files from %s", n, dir)
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, markf(err, ErrInternal, "indexstore: creating %q", dir)
	}
	return t, nil
}

// Path returns the directory path.
func (t *TempDirectory) Path() string { return t.dir }

// Close removes the directory and everything in it, and resets the
// UsageTracker. No BulkWriter may be in use.
func (t *TempDirectory) Close() error {
	if _, err := t.removeContents(); err != nil {
		return err
	}
	if err := t.fs.Remove(t.dir); err != nil && !oserror.IsNotExist(err) {
		return markf(err, ErrInternal, "indexstore: removing %q", t.dir)
	}
	if t.usage != nil {
		t.usage.reset()
	}
	return nil
}

func (t *TempDirectory) removeContents() (int, error) {
	names, err := t.fs.List(t.dir)
	if oserror.IsNotExist(err) {
		return 0, nil
	} else if err != nil {
		return 0, markf(err, ErrInternal, "indexstore: listing %q", t.dir)
	}
	var errs error
	n := 0
	for _, name := range names {
		if err := t.fs.RemoveAll(t.fs.PathJoin(t.dir, name)); err != nil {
			errs = errors.CombineErrors(errs, err)
			continue
		}
		n++
	}
	if errs != nil {
		return n, markf(errs, ErrInternal, "indexstore: cleaning %q", t.dir)
	}
	return n, nil
}
