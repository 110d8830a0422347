// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package logdir provisions the on-disk directories of replicated logs. Each
// log gets its own directory below a shared root, and the existence of that
// directory is made durable before the log starts writing into it.
package logdir

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/indexstore/internal/base"
	"github.com/cockroachdb/pebble/vfs"
)

// ErrDirectoryCreation marks a failure to create or durably anchor a log
// directory. It is fatal to the startup of the owning log, and to the whole
// process when it concerns the shared root.
var ErrDirectoryCreation = errors.New("logdir: unable to create directory")

// LogID identifies a log.
type LogID uint64

// String implements fmt.Stringer.
func (id LogID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Provisioner creates per-log directories below a root directory.
//
// EnsureDirectory and CreateFileManager are safe for concurrent use, also
// for the same log.
type Provisioner struct {
	fs     vfs.FS
	root   string
	logger base.Logger
}

// New returns a Provisioner for log directories below root on fs.
func New(fs vfs.FS, root string, logger base.Logger) *Provisioner {
	if logger == nil {
		logger = base.DefaultLogger{}
	}
	return &Provisioner{fs: fs, root: root, logger: logger}
}

// Root returns the shared root directory.
func (p *Provisioner) Root() string { return p.root }

// LogPath returns the directory of the log with the given id.
func (p *Provisioner) LogPath(id LogID) string {
	return p.fs.PathJoin(p.root, id.String())
}

// EnsureRoot ensures the shared root directory exists durably. A failure
// prevents any log from starting.
func (p *Provisioner) EnsureRoot() error {
	return p.EnsureDirectory(p.root)
}

// EnsureDirectory creates path and any missing ancestors. Where the platform
// requires it for a new directory entry to survive a crash, path and then
// every one of its parents up to the filesystem root are synced.
//
// Failures are logged and returned marked with ErrDirectoryCreation.
// EnsureDirectory is idempotent.
func (p *Provisioner) EnsureDirectory(path string) error {
	if err := p.fs.MkdirAll(path, 0755); err != nil {
		p.logger.Errorf("unable to create log directory %s: %v", path, err)
		return errors.Mark(errors.Wrapf(err, "logdir: creating %q", path), ErrDirectoryCreation)
	}
	if !dirSyncSupported {
		return nil
	}
	for dir := path; ; {
		if err := syncDir(p.fs, dir); err != nil {
			p.logger.Errorf("unable to sync directory %s: %v", dir, err)
			return errors.Mark(errors.Wrapf(err, "logdir: syncing %q", dir), ErrDirectoryCreation)
		}
		parent := p.fs.PathDir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil
}

// CreateFileManager ensures the directory of the log exists and returns a
// FileManager scoped to it.
func (p *Provisioner) CreateFileManager(id LogID) (*FileManager, error) {
	dir := p.LogPath(id)
	if err := p.EnsureDirectory(dir); err != nil {
		return nil, err
	}
	return &FileManager{fs: p.fs, dir: dir}, nil
}

func syncDir(fs vfs.FS, dir string) error {
	f, err := fs.OpenDir(dir)
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return errors.CombineErrors(err, f.Close())
	}
	return f.Close()
}
