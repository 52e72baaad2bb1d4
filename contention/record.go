// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package contention analyzes datasets of paired I/O benchmark runs
// to quantify the performance a workload loses when it runs
// concurrently with a contending workload versus running alone.
//
// A dataset is a flat table of Records, one per benchmark job. Jobs
// are labeled quiet (measured in isolation) or noisy (measured under
// contention), and primary (the workload of interest) or secondary
// (the contention source). The package computes job time-window
// overlaps, validates that paired runs actually contended, and
// derives per-workload loss tables.
package contention

// Contention labels.
const (
	Quiet = "quiet"
	Noisy = "noisy"
)

// Workload roles.
const (
	Primary   = "primary"
	Secondary = "secondary"
)

// Metric labels.
const (
	MetricBandwidth = "bw"
	MetricIOPS      = "iops"
	MetricMetadata  = "metadata"
)

// MetricNames maps metric labels to display names.
var MetricNames = map[string]string{
	MetricBandwidth: "Bandwidth",
	MetricIOPS:      "IOPS",
	MetricMetadata:  "Metadata",
}

// MetricUnits maps metric labels to the units of their performance
// scalar.
var MetricUnits = map[string]string{
	MetricBandwidth: "MiB/s",
	MetricIOPS:      "IOPS",
	MetricMetadata:  "IOPS",
}

// A Record is one row of a contention dataset: a single benchmark
// job, identified by the experiment it belongs to (DatasetID,
// typically a scheduler job id), its role, and its contention label.
// Records are immutable once loaded.
type Record struct {
	DatasetID string
	Filename  string

	Access   string // read, write, or both
	Metric   string // bw, iops, or metadata
	Workload string // "{access} {metric}"

	Contention string // Quiet or Noisy
	WorkloadID string // Primary or Secondary

	// PrimaryWorkload is the workload deemed primary for this
	// record's dataset (the earliest-starting quiet workload).
	PrimaryWorkload string

	PrimaryNodes   int
	SecondaryNodes int

	// Nodes, PPN and Ordering come from the parsed run header.
	Nodes    int
	PPN      int
	Ordering string

	Start int64 // job start, seconds since epoch
	End   int64 // job end, seconds since epoch

	// Performance is the scalar selected by Metric: bandwidth in
	// MiB/s for bw, IOPS otherwise.
	Performance float64
}

// Walltime returns the job's duration in seconds.
func (r *Record) Walltime() int64 {
	return r.End - r.Start
}
