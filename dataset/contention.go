// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hpcio/iocontend/contention"
	"github.com/hpcio/iocontend/iorfmt"
	"github.com/hpcio/iocontend/mdwfmt"
	"github.com/hpcio/iocontend/runfmt"
)

// fileMeta is job metadata decoded from a contention output file's
// name.
type fileMeta struct {
	datasetID      string // new convention only
	workloadID     string // new convention only
	access         string // legacy convention only
	metric         string // legacy convention only
	contention     string
	primaryNodes   int
	secondaryNodes int
}

// parseContentionFilename decodes the job metadata encoded in a
// contention output file name. Two conventions exist:
//
//	{role}_{contention}.{P}p-{S}s.{dataset_id}.out       (current)
//	{access}_{metric}_{contention}.{P}b-{S}i.{x}.out     (legacy)
//
// The current convention leaves access and metric to be recovered
// from the file's content; the legacy one does not name the role or
// dataset, which the loader fills in itself.
func parseContentionFilename(basename string) (fileMeta, error) {
	parts := strings.Split(basename, ".")
	if len(parts) != 4 {
		return fileMeta{}, fmt.Errorf("unrecognized contention filename %s", basename)
	}
	var m fileMeta
	if strings.HasPrefix(basename, "primary") || strings.HasPrefix(basename, "secondary") {
		roleContention := strings.SplitN(parts[0], "_", 2)
		if len(roleContention) != 2 {
			return fileMeta{}, fmt.Errorf("unrecognized contention filename %s", basename)
		}
		m.workloadID, m.contention = roleContention[0], roleContention[1]
		m.datasetID = parts[2]
		var err error
		if m.primaryNodes, m.secondaryNodes, err = parseNodect(parts[1], "p", "s"); err != nil {
			return fileMeta{}, fmt.Errorf("bad node counts in %s: %v", basename, err)
		}
		return m, nil
	}
	amc := strings.SplitN(parts[0], "_", 3)
	if len(amc) != 3 {
		return fileMeta{}, fmt.Errorf("unrecognized contention filename %s", basename)
	}
	m.access, m.metric, m.contention = amc[0], amc[1], amc[2]
	var err error
	if m.primaryNodes, m.secondaryNodes, err = parseNodect(parts[1], "b", "i"); err != nil {
		return fileMeta{}, fmt.Errorf("bad node counts in %s: %v", basename, err)
	}
	return m, nil
}

// parseNodect splits a node-count token like "7p-1s" (or legacy
// "7b-1i") into its primary and secondary counts.
func parseNodect(tok, psep, ssep string) (primary, secondary int, err error) {
	primary, err = strconv.Atoi(strings.SplitN(tok, psep, 2)[0])
	if err != nil {
		return 0, 0, err
	}
	rest := tok[strings.Index(tok, "-")+1:]
	secondary, err = strconv.Atoi(strings.SplitN(rest, ssep, 2)[0])
	if err != nil {
		return 0, 0, err
	}
	return primary, secondary, nil
}

// parseContentionFile tries each supported grammar against the stream
// and returns the first run with results, with ok distinguishing the
// md-workbench grammar.
func parseContentionFile(path string, warn func(string, ...interface{})) (run *runfmt.Run, isMdw bool, err error) {
	err = forEachStream(path, func(name string, r io.Reader) error {
		if run != nil {
			return nil
		}
		rd := iorfmt.NewReader(r, name)
		rd.SetWarn(warn)
		for rd.Scan() {
			if len(rd.Run().Results) > 0 {
				run = rd.Run()
				return nil
			}
		}
		return rd.Err()
	})
	if err != nil || run != nil {
		return run, false, err
	}
	// Not IOR output; retry with the md-workbench grammar.
	err = forEachStream(path, func(name string, r io.Reader) error {
		if run != nil {
			return nil
		}
		rd := mdwfmt.NewReader(r, name)
		rd.SetWarn(warn)
		for rd.Scan() {
			if len(rd.Run().Results) > 0 {
				run = rd.Run()
				return nil
			}
		}
		return rd.Err()
	})
	return run, run != nil, err
}

// LoadContention loads the contention dataset contained in the named
// files. datasetID labels records whose filename does not encode a
// dataset id of its own. Files that hold no valid output are reported
// through Warn and skipped; a dataset with no valid records at all is
// an error, as is an unknown metric label.
func LoadContention(paths []string, datasetID string, opts *Options) ([]contention.Record, error) {
	warn := opts.warn()
	var records []contention.Record
	for _, path := range paths {
		run, isMdw, err := parseContentionFile(path, warn)
		if err != nil {
			warn("%s: %v", path, err)
			continue
		}
		if run == nil {
			warn("%s does not contain valid output", filepath.Base(path))
			continue
		}
		rec, err := buildRecord(run, isMdw, filepath.Base(path), datasetID)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no valid records in dataset")
	}
	assignPrimaryWorkloads(records)
	return records, nil
}

// buildRecord joins one parsed run with its filename metadata.
func buildRecord(run *runfmt.Run, isMdw bool, basename, datasetID string) (contention.Record, error) {
	meta, err := parseContentionFilename(basename)
	if err != nil {
		return contention.Record{}, err
	}
	row := run.Results[0]
	h := &run.Header

	access := meta.access
	metric := meta.metric
	if meta.datasetID != "" {
		// Current convention: role and dataset come from the
		// filename, access and metric from the content.
		datasetID = meta.datasetID
		access = row.Str("access")
		switch {
		case isMdw:
			metric = contention.MetricMetadata
			access = "both"
		case h.Ordering == "random":
			metric = contention.MetricIOPS
		default:
			metric = contention.MetricBandwidth
		}
	}

	rec := contention.Record{
		DatasetID:      datasetID,
		Filename:       basename,
		Access:         access,
		Metric:         metric,
		Workload:       access + " " + metric,
		Contention:     meta.contention,
		WorkloadID:     meta.workloadID,
		PrimaryNodes:   meta.primaryNodes,
		SecondaryNodes: meta.secondaryNodes,
		Nodes:          h.Nodes,
		PPN:            h.PPN,
		Ordering:       h.Ordering,
		Start:          h.Start,
		End:            h.End,
	}

	var perf float64
	var ok bool
	switch metric {
	case contention.MetricBandwidth:
		perf, ok = row.Float("bw(mib/s)")
	case contention.MetricIOPS, contention.MetricMetadata:
		perf, ok = row.Float("iops")
	default:
		return contention.Record{}, fmt.Errorf("unknown metric %s", metric)
	}
	if ok {
		rec.Performance = perf
	}
	return rec, nil
}

// assignPrimaryWorkloads marks each record with its dataset's primary
// workload: the quiet workload that started earliest. Records the
// filename convention did not assign a role get one by comparison
// with the primary workload.
//
// The earliest-quiet-start definition depends on the ordering of the
// batch script that generated the dataset; it is preserved as-is.
func assignPrimaryWorkloads(records []contention.Record) {
	type minStart struct {
		start    int64
		workload string
	}
	starts := make(map[string]minStart)
	for i := range records {
		rec := &records[i]
		if rec.Contention != contention.Quiet {
			continue
		}
		cur, ok := starts[rec.DatasetID]
		if !ok || cur.start > rec.Start {
			starts[rec.DatasetID] = minStart{rec.Start, rec.Workload}
		}
	}
	for i := range records {
		rec := &records[i]
		rec.PrimaryWorkload = starts[rec.DatasetID].workload
		if rec.WorkloadID == "" {
			if rec.Workload == rec.PrimaryWorkload {
				rec.WorkloadID = contention.Primary
			} else {
				rec.WorkloadID = contention.Secondary
			}
		}
	}
}
