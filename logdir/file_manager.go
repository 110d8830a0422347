// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package logdir

import (
	"sort"

	"github.com/cockroachdb/pebble/vfs"
)

// FileManager gives a log component access to the files of its own
// directory. The layout of those files is up to the log.
type FileManager struct {
	fs  vfs.FS
	dir string
}

// Dir returns the directory of the log.
func (m *FileManager) Dir() string { return m.dir }

// Path returns the path of the named file in the directory.
func (m *FileManager) Path(name string) string { return m.fs.PathJoin(m.dir, name) }

// Create creates the named file for writing, truncating it if it exists.
// Call SyncDir to make the new entry durable.
func (m *FileManager) Create(name string) (vfs.File, error) {
	return m.fs.Create(m.Path(name))
}

// Open opens the named file for reading.
func (m *FileManager) Open(name string) (vfs.File, error) {
	return m.fs.Open(m.Path(name))
}

// Remove removes the named file.
func (m *FileManager) Remove(name string) error {
	return m.fs.Remove(m.Path(name))
}

// List returns the names of the files in the directory, sorted.
func (m *FileManager) List() ([]string, error) {
	names, err := m.fs.List(m.dir)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// SyncDir makes the entries of the directory durable.
func (m *FileManager) SyncDir() error {
	if !dirSyncSupported {
		return nil
	}
	return syncDir(m.fs, m.dir)
}
