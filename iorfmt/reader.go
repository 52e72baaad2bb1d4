// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package iorfmt parses the stdout of IOR, the MPI-coordinated
// parallel I/O benchmark.
//
// The parser is a line-oriented state machine. It is not meant to be
// comprehensive: it extracts the performance measurements and the
// metadata relevant to analysis, and it tolerates everything else. It
// supports outputs of IOR 3.3.0 and later.
package iorfmt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hpcio/iocontend/runfmt"
	"github.com/hpcio/iocontend/sizeunit"
)

// cTimeLayout matches IOR's C-locale timestamps, e.g.
// "Tue Jul 20 12:59:31 2021".
const cTimeLayout = "Mon Jan _2 15:04:05 2006"

// A state identifies the parser's position within the expected IOR
// output format.
type state int

const (
	// findRunBegin scans for the banner of a new run. Lines seen
	// in this state belong to no run and are discarded, which is
	// how multiple concatenated runs in one stream are supported.
	findRunBegin state = iota
	// parseRunMetadata extracts the labeled header fields printed
	// at IOR startup.
	parseRunMetadata
	// findResultsBegin scans for the literal "Results:" line.
	findResultsBegin
	// findResultsHeader scans for the results column header.
	findResultsHeader
	// parseResult consumes rows of the results section.
	parseResult
	// findSummary scans for the trailing "Summary of all tests:"
	// section.
	findSummary
	// parseSummary consumes rows of the summary section.
	parseSummary
)

// A Reader reads IOR output. Its API is modeled on bufio.Scanner:
// call Scan to advance to the next complete run and Run to retrieve
// it. Reader implements runfmt.Reader.
//
// Unrecognized or malformed lines are never fatal; the parser simply
// does not advance. Anomalies worth reporting are delivered through
// the warn function, prefixed with file name and line number.
type Reader struct {
	s        *bufio.Scanner
	fileName string
	line     int
	err      error

	state state
	run   *runfmt.Run
	cur   *runfmt.Row // in-progress operation record

	resultCols  []string
	summaryCols []string

	// skipNext consumes the next line raw (the separator under
	// the results header). summaryColsNext captures the next line
	// raw as the summary column header. Both bypass the anywhere
	// rules, mirroring how the tool emits these lines.
	skipNext        bool
	summaryColsNext bool

	done *runfmt.Run

	warnf func(format string, args ...interface{})
}

// NewReader constructs a Reader parsing IOR output from r. fileName
// is used in warnings; it is purely diagnostic.
func NewReader(r io.Reader, fileName string) *Reader {
	if fileName == "" {
		fileName = "<unknown>"
	}
	return &Reader{
		s:        bufio.NewScanner(r),
		fileName: fileName,
		state:    findRunBegin,
		run:      new(runfmt.Run),
		warnf: func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		},
	}
}

// SetWarn redirects the Reader's warnings. Passing nil suppresses
// them.
func (r *Reader) SetWarn(f func(format string, args ...interface{})) {
	if f == nil {
		f = func(string, ...interface{}) {}
	}
	r.warnf = f
}

func (r *Reader) warn(format string, args ...interface{}) {
	r.warnf("%s:%d: "+format, append([]interface{}{r.fileName, r.line}, args...)...)
}

// Scan advances the Reader to the next complete run and reports
// whether one was found. At end of stream a partially accumulated run
// is delivered as-is; a stream with no recognizable output delivers
// nothing.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	r.done = nil
	for r.done == nil && r.s.Scan() {
		r.line++
		r.parseLine(r.s.Text())
	}
	if r.done != nil {
		return true
	}
	if err := r.s.Err(); err != nil {
		r.err = fmt.Errorf("%s:%d: %w", r.fileName, r.line, err)
		return false
	}
	// EOF mid-run: deliver whatever accumulated.
	if !r.run.Empty() {
		r.done = r.run
		r.run = new(runfmt.Run)
		r.cur = nil
		r.state = findRunBegin
		return true
	}
	return false
}

// Run returns the run read by the last call to Scan.
func (r *Reader) Run() *runfmt.Run {
	return r.done
}

// Err returns the first I/O error encountered by the Reader.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) parseLine(line string) {
	if r.skipNext {
		r.skipNext = false
		return
	}
	if r.summaryColsNext {
		r.summaryColsNext = false
		r.summaryCols = lowerFields(line)
		r.state = parseSummary
		return
	}
	if r.parseAnywhere(line) {
		return
	}
	switch r.state {
	case findRunBegin:
		r.findRunBegin(line)
	case parseRunMetadata:
		r.parseRunMetadata(line)
	case findResultsBegin:
		if strings.TrimSpace(line) == "Results:" {
			r.state = findResultsHeader
		}
	case findResultsHeader:
		r.findResultsHeader(line)
	case parseResult:
		r.parseResult(line)
	case findSummary:
		if strings.TrimSpace(line) == "Summary of all tests:" {
			r.summaryColsNext = true
		}
	case parseSummary:
		r.parseSummary(line)
	}
}

// parseAnywhere handles lines that can appear at any point in the
// log. Per-rank stonewall reports and the run-end marker originate
// from concurrently-executing ranks, so their position relative to
// the rest of the output is not deterministic.
func (r *Reader) parseAnywhere(line string) bool {
	if strings.Contains(line, "stonewalling pairs accessed:") {
		tokens := strings.Split(line, ":")
		rank, err1 := strconv.Atoi(strings.TrimSpace(tokens[0]))
		pairs, err2 := strconv.ParseInt(strings.TrimSpace(tokens[len(tokens)-1]), 10, 64)
		if err1 != nil || err2 != nil {
			r.warn("malformed stonewall pairs line %q", line)
			return true
		}
		r.run.AddStonewallPair(rank, pairs)
		return true
	}
	if strings.HasPrefix(line, "Finished            :") {
		if ts, err := parseCTime(strings.SplitN(line, ":", 2)[1]); err == nil {
			r.run.Header.End = ts
		} else {
			r.warn("malformed end timestamp %q", line)
		}
		r.finishRun()
		return true
	}
	return false
}

// finishRun commits the current run and resets for the next one.
func (r *Reader) finishRun() {
	if !r.run.Empty() {
		r.done = r.run
	}
	r.run = new(runfmt.Run)
	r.cur = nil
	r.state = findRunBegin
}

func (r *Reader) findRunBegin(line string) {
	if strings.HasPrefix(line, "IOR") &&
		strings.Contains(line, "MPI Coordinated Test of Parallel I/O") {
		r.run.Header = runfmt.Header{}
		r.state = parseRunMetadata
	}
}

func (r *Reader) parseRunMetadata(line string) {
	h := &r.run.Header
	switch {
	case strings.HasPrefix(line, "nodes               :"):
		h.Nodes = atoiAfterColon(line)
	case strings.HasPrefix(line, "tasks               :"):
		h.NProc = atoiAfterColon(line)
	case strings.HasPrefix(line, "clients per node    :"):
		h.PPN = atoiAfterColon(line)
	case strings.HasPrefix(line, "xfersize            :"):
		if v, err := sizeunit.Parse(afterColon(line)); err == nil {
			h.XferSize = int64(v)
		} else {
			r.warn("bad xfersize: %v", err)
		}
	case strings.HasPrefix(line, "ordering in a file  :"):
		h.Ordering = strings.TrimSpace(afterColon(line))
	case strings.HasPrefix(line, "StartTime           :"):
		if ts, err := parseCTime(strings.SplitN(line, ":", 2)[1]); err == nil {
			h.Start = ts
		} else {
			r.warn("malformed start timestamp %q", line)
		}
	case strings.HasPrefix(strings.TrimSpace(line), "aggregate filesize"):
		if v, err := sizeunit.Parse(afterColon(line)); err == nil {
			h.AggSize = int64(v)
		} else {
			r.warn("bad aggregate filesize: %v", err)
		}
		r.state = findResultsBegin
	}
}

func (r *Reader) findResultsHeader(line string) {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
	case strings.HasPrefix(line, "WARNING: The file"):
	case strings.HasPrefix(line, "Using Time Stamp"):
	case strings.HasPrefix(trimmed, "access"):
		r.resultCols = lowerFields(line)
		r.state = parseResult
		r.skipNext = true // separator line
	}
}

// parseResult consumes the results section. An operation record
// accumulates fields across several lines (timestamp, stonewall
// stats) and is committed only by its read/write/remove result line.
func (r *Reader) parseResult(line string) {
	switch {
	case strings.HasPrefix(line, "Max"):
		r.state = findSummary

	case strings.HasPrefix(line, "read"),
		strings.HasPrefix(line, "write"),
		strings.HasPrefix(line, "remove"):
		if r.cur == nil {
			r.cur = new(runfmt.Row)
		}
		zipFields(r.cur, r.resultCols, strings.Fields(line))
		access := r.cur.Str("access")
		if access == "read" || access == "write" {
			if bw, ok := r.cur.Float("bw(mib/s)"); ok {
				r.run.ObserveBandwidth(access, bw)
			}
		}
		r.run.Results = append(r.run.Results, r.cur)
		r.cur = nil

	case strings.HasPrefix(line, "Commencing"):
		fields := strings.Fields(line)
		ts, err := parseCommencingTime(line)
		if err != nil || len(fields) < 2 {
			r.warn("malformed timestamp line %q", line)
			return
		}
		if r.cur == nil {
			r.cur = new(runfmt.Row)
			r.cur.Set("timestamp", runfmt.IntValue(ts))
			return
		}
		thisAccess := strings.ToLower(fields[1])
		if expected := r.cur.Str("access"); expected != "" && expected != thisAccess {
			r.warn("encountered %s timestamp for a %s record", thisAccess, expected)
			return
		}
		r.cur.Set("timestamp", runfmt.IntValue(ts))

	case strings.HasPrefix(line, "stonewalling pairs accessed "):
		args := strings.Fields(line)
		if len(args) < 7 {
			r.warn("malformed stonewall stats line %q", line)
			return
		}
		if r.cur == nil {
			r.cur = new(runfmt.Row)
		}
		r.cur.Set("stonewall_min_xfers", runfmt.Coerce(args[4]))
		r.cur.Set("stonewall_max_xfers", runfmt.Coerce(args[6]))
		if secs, err := strconv.ParseFloat(strings.TrimSuffix(args[len(args)-1], "s"), 64); err == nil {
			r.cur.Set("stonewall_time_secs", runfmt.FloatValue(secs))
		}

	// Degenerate with aggs(MiB) in the summary line, but not all
	// files have summaries.
	case strings.HasPrefix(line, "WARNING: Using actual aggregate bytes moved"):
		args := strings.Fields(line)
		if n, err := strconv.ParseInt(strings.TrimSuffix(args[len(args)-1], "."), 10, 64); err == nil {
			if r.cur == nil {
				r.cur = new(runfmt.Row)
			}
			r.cur.Set("stonewall_bytes_moved", runfmt.IntValue(n))
		}
	}
}

func (r *Reader) parseSummary(line string) {
	if strings.HasPrefix(line, "write") || strings.HasPrefix(line, "read") {
		row := new(runfmt.Row)
		zipFields(row, r.summaryCols, strings.Fields(line))
		r.run.Summaries = append(r.run.Summaries, row)
	}
}

// zipFields coerces values and pairs them with column names, stopping
// at the shorter of the two lists.
func zipFields(row *runfmt.Row, cols, values []string) {
	for i, col := range cols {
		if i >= len(values) {
			break
		}
		row.Set(col, runfmt.Coerce(values[i]))
	}
}

func lowerFields(line string) []string {
	fields := strings.Fields(line)
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}

func afterColon(line string) string {
	i := strings.LastIndex(line, ":")
	return line[i+1:]
}

func atoiAfterColon(line string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(afterColon(line)))
	return n
}

func parseCTime(s string) (int64, error) {
	t, err := time.ParseInLocation(cTimeLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

// parseCommencingTime extracts the timestamp from a line like
// "Commencing write performance test: Tue Jul 20 12:59:31 2021".
func parseCommencingTime(line string) (int64, error) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("no timestamp in %q", line)
	}
	return parseCTime(parts[1])
}
