// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files <dir>",
	Short: "list the sorted tables of the engine",
	Args:  cobra.ExactArgs(1),
	RunE:  runFiles,
}

type fileRow struct {
	location string
	name     string
	size     int64
}

func listSSTs(fs vfs.FS, location, dir string) ([]fileRow, error) {
	names, err := fs.List(dir)
	if oserror.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	sort.Strings(names)
	var rows []fileRow
	for _, name := range names {
		if !strings.HasSuffix(name, ".sst") {
			continue
		}
		info, err := fs.Stat(fs.PathJoin(dir, name))
		if err != nil {
			return nil, err
		}
		rows = append(rows, fileRow{location: location, name: name, size: info.Size()})
	}
	return rows, nil
}

func runFiles(cmd *cobra.Command, args []string) (err error) {
	s, err := openStore(args[0])
	if err != nil {
		return err
	}
	defer func() { err = errors.CombineErrors(err, s.close()) }()

	rows, err := listSSTs(s.h.FS(), "engine", s.h.Dirname())
	if err != nil {
		return err
	}

	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"location", "file", "bytes"})
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	var total int64
	for _, r := range rows {
		tw.Append([]string{r.location, r.name, strconv.FormatInt(r.size, 10)})
		total += r.size
	}
	tw.SetFooter([]string{"", "total", strconv.FormatInt(total, 10)})
	tw.Render()
	return nil
}
