// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runfmt defines the record model shared by the benchmark
// output parsers.
//
// A parser turns the stdout of one benchmark invocation into a Run: a
// typed Header of per-run metadata plus ordered Rows of per-operation
// results and per-run summaries. Because different tool versions emit
// different result columns, Rows are ordered key/value field lists
// rather than fixed structs; the Header is converted to generic
// fields only at the serialization boundary.
package runfmt

// A Header holds the per-run metadata printed before a benchmark's
// results. The zero value of a field means the tool did not report
// it.
type Header struct {
	Nodes    int    // number of nodes
	NProc    int    // total process count
	PPN      int    // processes per node
	XferSize int64  // transfer size in bytes
	Ordering string // "sequential" or "random"
	AggSize  int64  // aggregate file size in bytes

	Start int64 // run start, seconds since epoch
	End   int64 // run end, seconds since epoch

	// WalltimeSecs is the tool-reported wall time. Not all tools
	// report it; see Walltime.
	WalltimeSecs int64

	// MD-Workbench metadata.
	TotalObjects    int64
	WorkingSetBytes int64
	Version         string
}

// Walltime returns the run's wall time in seconds: the tool-reported
// value if present, else the difference of the end and start stamps.
// It reports false if neither is available.
func (h *Header) Walltime() (int64, bool) {
	if h.WalltimeSecs != 0 {
		return h.WalltimeSecs, true
	}
	if h.Start != 0 && h.End != 0 {
		return h.End - h.Start, true
	}
	return 0, false
}

// AppendFields appends the set fields of h to row under their
// conventional column names. This is the only point at which the
// typed header becomes generic key/value data.
func (h *Header) AppendFields(row *Row) {
	if h.Nodes != 0 {
		row.Set("nodes", IntValue(int64(h.Nodes)))
	}
	if h.NProc != 0 {
		row.Set("nproc", IntValue(int64(h.NProc)))
	}
	if h.PPN != 0 {
		row.Set("ppn", IntValue(int64(h.PPN)))
	}
	if h.XferSize != 0 {
		row.Set("xfersize", IntValue(h.XferSize))
	}
	if h.Ordering != "" {
		row.Set("ordering", StringValue(h.Ordering))
	}
	if h.AggSize != 0 {
		row.Set("aggsize_bytes", IntValue(h.AggSize))
	}
	if h.Start != 0 {
		row.Set("start", IntValue(h.Start))
	}
	if h.End != 0 {
		row.Set("end", IntValue(h.End))
	}
	if wt, ok := h.Walltime(); ok {
		row.Set("walltime", IntValue(wt))
	}
	if h.TotalObjects != 0 {
		row.Set("total_objects", IntValue(h.TotalObjects))
	}
	if h.WorkingSetBytes != 0 {
		row.Set("workingset_size_bytes", IntValue(h.WorkingSetBytes))
	}
	if h.Version != "" {
		row.Set("version", StringValue(h.Version))
	}
}

// A Run is the parsed output of one benchmark invocation.
//
// Results accumulates one Row per read/write/remove operation, in
// output order. Summaries holds the rows of the trailing summary
// table, if the tool printed one.
type Run struct {
	Header Header

	Results   []*Row
	Summaries []*Row

	// StonewallPairs holds per-rank "stonewalling pairs accessed"
	// reports; StonewallRuntime holds per-rank stonewall runtimes.
	// Each element maps rank to value. Ranks flush to the log in
	// arbitrary order under concurrent I/O, so a repeated rank
	// index is the only indication that a new logical report has
	// begun.
	StonewallPairs   []map[int]int64
	StonewallRuntime []map[int]float64

	maxRead, maxWrite         float64
	haveMaxRead, haveMaxWrite bool
}

// ObserveBandwidth records one operation's bandwidth so that
// MaxBandwidth can report the per-access maximum. Access must be
// "read" or "write"; other access types are ignored.
func (r *Run) ObserveBandwidth(access string, mibs float64) {
	switch access {
	case "read":
		if !r.haveMaxRead || mibs > r.maxRead {
			r.maxRead, r.haveMaxRead = mibs, true
		}
	case "write":
		if !r.haveMaxWrite || mibs > r.maxWrite {
			r.maxWrite, r.haveMaxWrite = mibs, true
		}
	}
}

// MaxBandwidth returns the maximum bandwidth in MiB/s observed for
// the given access type ("read" or "write"), and whether any such
// operation was observed.
func (r *Run) MaxBandwidth(access string) (float64, bool) {
	switch access {
	case "read":
		return r.maxRead, r.haveMaxRead
	case "write":
		return r.maxWrite, r.haveMaxWrite
	}
	return 0, false
}

// AddStonewallPair records one per-rank stonewalling pairs report. A
// repeated rank begins a new report.
func (r *Run) AddStonewallPair(rank int, pairs int64) {
	n := len(r.StonewallPairs)
	if n == 0 {
		r.StonewallPairs = append(r.StonewallPairs, make(map[int]int64))
		n = 1
	} else if _, dup := r.StonewallPairs[n-1][rank]; dup {
		r.StonewallPairs = append(r.StonewallPairs, make(map[int]int64))
		n++
	}
	r.StonewallPairs[n-1][rank] = pairs
}

// AddStonewallRuntime records one per-rank stonewall runtime report.
// A repeated rank begins a new report.
func (r *Run) AddStonewallRuntime(rank int, secs float64) {
	n := len(r.StonewallRuntime)
	if n == 0 {
		r.StonewallRuntime = append(r.StonewallRuntime, make(map[int]float64))
		n = 1
	} else if _, dup := r.StonewallRuntime[n-1][rank]; dup {
		r.StonewallRuntime = append(r.StonewallRuntime, make(map[int]float64))
		n++
	}
	r.StonewallRuntime[n-1][rank] = secs
}

// Empty reports whether nothing at all was parsed into the Run. A
// stream with no recognizable output yields an empty Run, which
// callers must treat as "no data" rather than an error.
func (r *Run) Empty() bool {
	return r.Header == (Header{}) && len(r.Results) == 0 &&
		len(r.Summaries) == 0 && len(r.StonewallPairs) == 0 &&
		len(r.StonewallRuntime) == 0
}

// NormalizeResults copies the header fields onto every result Row, so
// each row is self-contained when flattened into a table. Values are
// copied, not referenced.
func (r *Run) NormalizeResults() {
	for _, row := range r.Results {
		r.Header.AppendFields(row)
	}
}

// A Reader parses a benchmark tool's stdout into Runs. Its API is
// modeled on bufio.Scanner: Scan advances to the next complete run in
// the stream and reports whether one was found, Run returns it, and
// Err reports the first I/O error encountered.
//
// A stream may contain multiple concatenated runs; the Reader
// delivers one Run per run, in stream order. A stream that ends
// mid-run delivers whatever was accumulated.
type Reader interface {
	Scan() bool
	Run() *Run
	Err() error
}
