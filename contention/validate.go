// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package contention

import (
	"fmt"
	"os"
	"sort"
)

// ValidateOptions configures Validate. The zero value of a field
// selects its default.
type ValidateOptions struct {
	// MinWalltime is the floor, in seconds, on every job's
	// duration and on the spacing between quiet job starts.
	// Default 45.
	MinWalltime int64

	// MinOverlap is the minimum acceptable fraction of a noisy
	// pairing's total time during which the jobs actually
	// overlapped. Default 0.80.
	MinOverlap float64

	// MinOverlapWarn is the overlap fraction below which a
	// pairing is reported even when it passes MinOverlap. Default
	// halfway between MinOverlap and 1: 1 − (1−MinOverlap)/2.
	MinOverlapWarn float64

	// Warn receives diagnostic output about suspicious rows. The
	// default prints to standard error.
	Warn func(format string, args ...interface{})
}

// DefaultValidateOptions are the validation thresholds used when none
// are given.
var DefaultValidateOptions = ValidateOptions{
	MinWalltime: 45,
	MinOverlap:  0.80,
}

func (o *ValidateOptions) fill() {
	if o.MinWalltime == 0 {
		o.MinWalltime = DefaultValidateOptions.MinWalltime
	}
	if o.MinOverlap == 0 {
		o.MinOverlap = DefaultValidateOptions.MinOverlap
	}
	if o.MinOverlapWarn == 0 {
		o.MinOverlapWarn = 1 - (1-o.MinOverlap)/2
	}
	if o.Warn == nil {
		o.Warn = func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}
}

// A ShortJobError reports a job whose walltime falls under the
// configured floor.
type ShortJobError struct {
	Record      Record
	Walltime    int64
	MinWalltime int64
}

func (e *ShortJobError) Error() string {
	return fmt.Sprintf("shortest walltime %ds below %ds (dataset=%s nodes=%d %s %s)",
		e.Walltime, e.MinWalltime, e.Record.DatasetID, e.Record.PrimaryNodes,
		e.Record.Contention, e.Record.WorkloadID)
}

// A RapidQuietStartError reports two quiet jobs that started closer
// together than the walltime floor, meaning two "isolated" runs
// overlapped or one is an accidental duplicate.
type RapidQuietStartError struct {
	First, Second Record
	Delta         int64
}

func (e *RapidQuietStartError) Error() string {
	return fmt.Sprintf("rapid quiet starts found: %s (dataset=%s) and %s (dataset=%s) started %ds apart",
		e.First.Workload, e.First.DatasetID, e.Second.Workload, e.Second.DatasetID, e.Delta)
}

// An InsufficientOverlapError reports noisy pairings whose jobs did
// not overlap long enough for their performance to reflect
// contention.
type InsufficientOverlapError struct {
	Keys []OverlapKey
}

func (e *InsufficientOverlapError) Error() string {
	return fmt.Sprintf("insufficient noisy overlap in %d job pairings", len(e.Keys))
}

// Validate runs three independent checks against a loaded dataset:
// that every job ran at least the walltime floor, that quiet jobs
// never started within the floor of one another (dataset-wide, since
// a quiet job must not share the system with any other job), and that
// every noisy pairing overlapped for at least MinOverlap of its total
// time.
//
// Even if two jobs overlapped for their full floor, one job running
// significantly longer reflects the performance of its tail running
// in isolation, which understates contention. Pairings between
// MinOverlap and MinOverlapWarn are reported through Warn but do not
// fail validation.
//
// Callers may treat a validation failure as a dataset-level warning
// rather than a fatal error; the dataset loader does.
func Validate(records []Record, opts *ValidateOptions) error {
	var o ValidateOptions
	if opts != nil {
		o = *opts
	}
	o.fill()

	// All jobs must have run for the minimum time.
	for i := range records {
		rec := &records[i]
		if wt := rec.Walltime(); wt < o.MinWalltime {
			o.Warn("!!! short walltime detected: dataset=%s start=%d end=%d nodes=%d %s %s",
				rec.DatasetID, rec.Start, rec.End, rec.PrimaryNodes,
				rec.Contention, rec.WorkloadID)
			return &ShortJobError{*rec, wt, o.MinWalltime}
		}
	}

	// Quiet jobs must start at least the floor apart, irrespective
	// of dataset_id. This also identifies duplicate jobs.
	var quiet []Record
	for _, rec := range records {
		if rec.Contention == Quiet {
			quiet = append(quiet, rec)
		}
	}
	sort.Slice(quiet, func(i, j int) bool { return quiet[i].Start < quiet[j].Start })
	for i := 1; i < len(quiet); i++ {
		if delta := quiet[i].Start - quiet[i-1].Start; delta < o.MinWalltime {
			o.Warn("!!! rapid quiet starts detected: dataset=%s %s at %d, dataset=%s %s at %d",
				quiet[i-1].DatasetID, quiet[i-1].Workload, quiet[i-1].Start,
				quiet[i].DatasetID, quiet[i].Workload, quiet[i].Start)
			return &RapidQuietStartError{quiet[i-1], quiet[i], delta}
		}
	}

	// Noisy pairings must actually have contended.
	overlaps, err := Overlaps(records)
	if err != nil {
		return err
	}
	keys := make([]OverlapKey, 0, len(overlaps))
	for key := range overlaps {
		if key.Contention == Noisy {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.PrimaryNodes != b.PrimaryNodes {
			return a.PrimaryNodes < b.PrimaryNodes
		}
		return a.DatasetID < b.DatasetID
	})
	var invalid []OverlapKey
	for _, key := range keys {
		ov := overlaps[key]
		frac := ov.Overlapping / ov.Total
		if frac >= o.MinOverlapWarn {
			continue
		}
		mark := "***"
		if frac < o.MinOverlap {
			mark = "!!!"
			invalid = append(invalid, key)
		}
		o.Warn("%s low noisy overlap: nodes=%2d jobid=%s overlap=%5.1f%%/%2.0fs nonoverlap=%2.0fs total=%2.0fs",
			mark, key.PrimaryNodes, key.DatasetID,
			frac*100.0, ov.Overlapping, ov.NonOverlapping, ov.Total)
	}
	if len(invalid) > 0 {
		return &InsufficientOverlapError{invalid}
	}
	return nil
}
