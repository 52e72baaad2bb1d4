// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mdwfmt parses the stdout of md-workbench, the metadata
// operations benchmark. It shares the record model and coercion rules
// of package iorfmt but implements md-workbench's grammar, which
// reports each benchmark phase as a single positional summary line.
package mdwfmt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hpcio/iocontend/runfmt"
	"github.com/hpcio/iocontend/sizeunit"
)

// timeLayout matches md-workbench timestamps, e.g.
// "2021-08-30 09:57:39".
const timeLayout = "2006-01-02 15:04:05"

var (
	stonewallRuntimeRe = regexp.MustCompile(`^(\d+): stonewall runtime ([^s]+)s`)

	// opStatsRe matches per-operation-type latency statistics of
	// the form op(min,q1,median,q3,q90,q99,max), all in seconds.
	opStatsRe = regexp.MustCompile(`(\w+)\(([^s]+)s,\s*([^s]+)s,\s*([^s]+)s,\s*([^s]+)s,\s*([^s]+)s,\s*([^s]+)s,\s*([^s]+)s\)`)
)

type state int

const (
	findRunBegin state = iota
	findResultsLine
)

// A Reader reads md-workbench output. It implements runfmt.Reader
// with the same Scan/Run/Err contract as iorfmt.Reader.
type Reader struct {
	s        *bufio.Scanner
	fileName string
	line     int
	err      error

	state state
	run   *runfmt.Run
	done  *runfmt.Run

	warnf func(format string, args ...interface{})
}

// NewReader constructs a Reader parsing md-workbench output from r.
// fileName is used in warnings; it is purely diagnostic.
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
// whether one was found.
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
	if !r.run.Empty() {
		r.done = r.run
		r.run = new(runfmt.Run)
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
	if r.parseAnywhere(line) {
		return
	}
	switch r.state {
	case findRunBegin:
		r.findRunBegin(line)
	case findResultsLine:
		r.findResultsLine(line)
	}
}

// parseAnywhere handles per-rank stonewall runtime lines and the
// "Total runtime" terminator, whose position in the log is not
// deterministic with respect to the rest of the output.
func (r *Reader) parseAnywhere(line string) bool {
	if m := stonewallRuntimeRe.FindStringSubmatch(line); m != nil {
		rank, err1 := strconv.Atoi(m[1])
		secs, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			r.warn("malformed stonewall runtime line %q", line)
			return true
		}
		r.run.AddStonewallRuntime(rank, secs)
		return true
	}
	if strings.HasPrefix(line, "Total runtime") {
		parts := strings.SplitN(line, ":", 3)
		if len(parts) != 3 {
			r.warn("malformed total runtime line %q", line)
			return true
		}
		secsTok := strings.SplitN(strings.TrimSpace(parts[1]), "s", 2)[0]
		if secs, err := strconv.ParseInt(secsTok, 10, 64); err == nil {
			r.run.Header.WalltimeSecs = secs
		}
		if t, err := time.ParseInLocation(timeLayout, strings.TrimSpace(parts[2]), time.Local); err == nil {
			r.run.Header.End = t.Unix()
		} else {
			r.warn("malformed end timestamp %q", line)
		}
		if !r.run.Empty() {
			r.done = r.run
		}
		r.run = new(runfmt.Run)
		r.state = findRunBegin
		return true
	}
	return false
}

// findRunBegin looks for the run banner, e.g.
//
//	MD-Workbench total objects: 100000 workingset size: 3.9 MiB version: 1.1.0 time: 2021-08-30 09:57:39
//
// The fields are positional, not labeled.
func (r *Reader) findRunBegin(line string) {
	if !strings.HasPrefix(line, "MD-Workbench total") {
		return
	}
	args := strings.Fields(line)
	if len(args) < 13 {
		r.warn("malformed run banner %q", line)
		return
	}
	r.run.Header = runfmt.Header{}
	h := &r.run.Header
	if n, err := strconv.ParseInt(args[3], 10, 64); err == nil {
		h.TotalObjects = n
	}
	if v, err := sizeunit.Parse(args[6] + " " + args[7]); err == nil {
		h.WorkingSetBytes = int64(v)
	} else {
		r.warn("bad workingset size: %v", err)
	}
	h.Version = args[9]
	if t, err := time.ParseInLocation(timeLayout, args[11]+" "+args[12], time.Local); err == nil {
		h.Start = t.Unix()
	} else {
		r.warn("malformed start timestamp %q", line)
	}
	r.state = findResultsLine
}

// findResultsLine parses the single summary line md-workbench prints
// for its benchmark phase, e.g.
//
//	benchmark process max:10.99s min:10.90s mean: 10.94s balance:99.2 stddev:0.0 rate:913.8 iops/s objects:100 rate:9.1 obj/s tp:0.1 MiB/s op-max:0.0126s (0 errs) stonewall-cycles:10 read(...) stat(...) ...
//
// The leading fields are positional; the trailing per-operation
// statistics are extracted by repeated regex matching.
func (r *Reader) findResultsLine(line string) {
	if !strings.HasPrefix(line, "benchmark process") {
		return
	}
	args := strings.Fields(line)
	if len(args) < 19 {
		r.warn("malformed benchmark process line %q", line)
		return
	}
	row := new(runfmt.Row)
	row.Set("phase", runfmt.StringValue("2"))
	setSecs(row, "walltime_max_secs", afterColon(args[2]))
	setSecs(row, "walltime_min_secs", afterColon(args[3]))
	setSecs(row, "walltime_mean_secs", args[5])
	setFloat(row, "walltime_std_secs", afterColon(args[7]))
	setSecs(row, "iops", afterColon(args[8]))
	setFloat(row, "num_objects", afterColon(args[10]))
	setFloat(row, "cycle_rate", afterColon(args[11]))
	if v, err := sizeunit.Parse(afterColon(args[13] + " " + args[14])); err == nil {
		row.Set("bw(mib/s)", runfmt.FloatValue(v/(1<<20)))
	} else {
		r.warn("bad throughput: %v", err)
	}
	setSecs(row, "op_max_secs", afterColon(args[15]))
	if n, err := strconv.ParseInt(strings.TrimPrefix(args[16], "("), 10, 64); err == nil {
		row.Set("num_op_errors", runfmt.IntValue(n))
	}
	if n, err := strconv.ParseInt(afterColon(args[18]), 10, 64); err == nil {
		row.Set("stonewall_cycles", runfmt.IntValue(n))
	}

	for _, m := range opStatsRe.FindAllStringSubmatch(line, -1) {
		op := m[1]
		for i, stat := range []string{"min", "q1", "median", "q3", "q90", "q99", "max"} {
			setFloat(row, op+"_"+stat+"_secs", m[2+i])
		}
	}
	r.run.Results = append(r.run.Results, row)
}

// afterColon returns everything after the first colon of tok, or tok
// itself if it has none.
func afterColon(tok string) string {
	parts := strings.SplitN(tok, ":", 2)
	return parts[len(parts)-1]
}

func setFloat(row *runfmt.Row, key, tok string) {
	if v, err := strconv.ParseFloat(tok, 64); err == nil {
		row.Set(key, runfmt.FloatValue(v))
	}
}

func setSecs(row *runfmt.Row, key, tok string) {
	setFloat(row, key, strings.TrimSuffix(tok, "s"))
}
