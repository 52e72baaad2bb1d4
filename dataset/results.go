// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/hpcio/iocontend/iorfmt"
	"github.com/hpcio/iocontend/runfmt"
)

// Options configures the loaders.
type Options struct {
	// Warn receives non-fatal diagnostics: unparseable files,
	// unrecognized filenames, inconsistent columns. The default
	// prints to standard error. Failure to load one file never
	// aborts the others.
	Warn func(format string, args ...interface{})
}

func (o *Options) warn() func(format string, args ...interface{}) {
	if o != nil && o.Warn != nil {
		return o.Warn
	}
	return func(format string, args ...interface{}) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// A ResultTable is the flattened form of one or more parsed runs: one
// Row per reported operation, with the run header fields broadcast
// onto every row plus a filename column and a derived nproc column.
type ResultTable struct {
	Rows []*runfmt.Row
}

// LoadResults parses every IOR output file in paths and flattens the
// results into one table. Files may be plain text, gzipped, or
// tar/tgz archives of outputs. Rows whose bandwidth column is missing
// or undefined are dropped. A file with no parseable runs is reported
// through Warn and skipped; if nothing at all loads, LoadResults
// returns an error.
func LoadResults(paths []string, opts *Options) (*ResultTable, error) {
	warn := opts.warn()
	table := new(ResultTable)
	var expectCols []string
	for _, path := range paths {
		err := forEachStream(path, func(name string, r io.Reader) error {
			rows := loadResultStream(name, r, warn)
			if rows == nil {
				warn("invalid output in %s", name)
				return nil
			}
			cols := columnsOf(rows)
			if expectCols == nil {
				expectCols = cols
			} else if len(cols) != len(expectCols) {
				warn("inconsistent input file: %s (file only has %d of %d expected columns; diff: %s)",
					name, len(cols), len(expectCols),
					strings.Join(symmetricDiff(cols, expectCols), ","))
			}
			table.Rows = append(table.Rows, rows...)
			return nil
		})
		if err != nil {
			warn("%s: %v", path, err)
		}
	}
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("found no valid results in %s", strings.Join(paths, ", "))
	}
	return table, nil
}

// loadResultStream parses one text stream and returns its flattened
// rows, or nil if the stream held no valid output.
func loadResultStream(name string, r io.Reader, warn func(string, ...interface{})) []*runfmt.Row {
	rd := iorfmt.NewReader(r, name)
	rd.SetWarn(warn)
	meta, metaErr := iorfmt.ParseFilename(name)
	if metaErr != nil {
		warn("%v", metaErr)
	}
	var rows []*runfmt.Row
	for rd.Scan() {
		run := rd.Run()
		if len(run.Results) == 0 {
			continue
		}
		if metaErr == nil {
			meta.Apply(&run.Header)
		}
		run.NormalizeResults()
		graftSummaryBytes(run)
		for _, row := range run.Results {
			if _, ok := row.Float("bw(mib/s)"); !ok {
				continue
			}
			row.Set("filename", runfmt.StringValue(name))
			nodes, _ := row.Int("nodes")
			ppn, _ := row.Int("ppn")
			row.Set("nproc", runfmt.IntValue(nodes*ppn))
			rows = append(rows, row)
		}
	}
	return rows
}

// graftSummaryBytes fills a result row's stonewall_bytes_moved from
// the matching summary row's aggs(mib) column. The two sections list
// operations in the same order, and the summary is degenerate with
// the stonewall warning line, which not all files carry.
func graftSummaryBytes(run *runfmt.Run) {
	for i, row := range run.Results {
		if i >= len(run.Summaries) {
			break
		}
		if v, ok := row.Get("stonewall_bytes_moved"); ok && v.Kind != runfmt.None {
			continue
		}
		if aggs, ok := run.Summaries[i].Float("aggs(mib)"); ok {
			row.Set("stonewall_bytes_moved", runfmt.IntValue(int64(aggs*(1<<20))))
		}
	}
}

// columnsOf returns the sorted union of field keys across rows.
func columnsOf(rows []*runfmt.Row) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, f := range row.Fields {
			seen[f.Key] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for col := range seen {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func symmetricDiff(a, b []string) []string {
	count := make(map[string]int)
	for _, x := range a {
		count[x]++
	}
	for _, x := range b {
		count[x] += 2
	}
	var diff []string
	for x, c := range count {
		if c == 1 || c == 2 {
			diff = append(diff, x)
		}
	}
	sort.Strings(diff)
	return diff
}
