// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hpcio/iocontend/contention"
)

func TestParseContentionFilename(t *testing.T) {
	tests := []struct {
		name string
		want fileMeta
	}{
		{"primary_quiet.7p-1s.1001.out", fileMeta{
			datasetID: "1001", workloadID: "primary", contention: "quiet",
			primaryNodes: 7, secondaryNodes: 1,
		}},
		{"secondary_noisy.16p-2s.20394.out", fileMeta{
			datasetID: "20394", workloadID: "secondary", contention: "noisy",
			primaryNodes: 16, secondaryNodes: 2,
		}},
		{"write_bw_quiet.7b-1i.x.out", fileMeta{
			access: "write", metric: "bw", contention: "quiet",
			primaryNodes: 7, secondaryNodes: 1,
		}},
		{"read_iops_noisy.4b-2i.x.out", fileMeta{
			access: "read", metric: "iops", contention: "noisy",
			primaryNodes: 4, secondaryNodes: 2,
		}},
	}
	for _, test := range tests {
		got, err := parseContentionFilename(test.name)
		if err != nil {
			t.Errorf("parseContentionFilename(%q) error: %v", test.name, err)
			continue
		}
		if got != test.want {
			t.Errorf("parseContentionFilename(%q) = %+v, want %+v", test.name, got, test.want)
		}
	}
}

func TestParseContentionFilenameError(t *testing.T) {
	names := []string{
		"ior-n8ppn16t1m.out",       // not a contention name
		"primary_quiet.1001.out",   // too few parts
		"primaryquiet.7p-1s.1.out", // no role separator
		"primary_quiet.xp-1s.1.out",
	}
	for _, name := range names {
		if _, err := parseContentionFilename(name); err == nil {
			t.Errorf("parseContentionFilename(%q) succeeded, want error", name)
		}
	}
}

var testBase = time.Date(2021, 7, 20, 12, 0, 0, 0, time.Local)

// iorJob renders a minimal IOR log for a job running over the given
// window.
func iorJob(start, end time.Time, ordering string, bw float64) string {
	const layout = "Mon Jan _2 15:04:05 2006"
	return fmt.Sprintf(`IOR-3.3.0: MPI Coordinated Test of Parallel I/O
StartTime           : %s
ordering in a file  : %s
nodes               : 7
tasks               : 112
clients per node    : 16
xfersize            : 1 MiB
aggregate filesize  : 64 GiB
Results:

access    bw(MiB/s)  IOPS       total(s)   iter
------    ---------  ----       --------   ----
write     %.2f    %.2f    54.61      0
Finished            : %s
`, start.Format(layout), ordering, bw, bw, end.Format(layout))
}

// mdwJob renders a minimal md-workbench log for a job running over the
// given window.
func mdwJob(start, end time.Time, iops float64) string {
	const layout = "2006-01-02 15:04:05"
	secs := int64(end.Sub(start).Seconds())
	return fmt.Sprintf(`MD-Workbench total objects: 100000 workingset size: 3.9 MiB version: 1.1.0 time: %s
benchmark process max:10.99s min:10.90s mean: 10.94s balance:99.2 stddev:0.0 rate:%.1f iops/s objects:100 rate:9.1 obj/s tp:0.4 MiB/s op-max:0.0126s (0 errs) stonewall-cycles:10
Total runtime: %ds time: %s
`, start.Format(layout), iops, secs, end.Format(layout))
}

func writeFiles(t *testing.T, files map[string]string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0666); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}
	return paths
}

func TestLoadContention(t *testing.T) {
	at := func(secs int64) time.Time { return testBase.Add(time.Duration(secs) * time.Second) }
	paths := writeFiles(t, map[string]string{
		"primary_quiet.7p-1s.1001.out":   iorJob(at(0), at(100), "sequential", 2500),
		"secondary_quiet.7p-1s.1001.out": mdwJob(at(200), at(260), 913.8),
		"primary_noisy.7p-1s.1001.out":   iorJob(at(400), at(500), "sequential", 1500),
		"secondary_noisy.7p-1s.1001.out": mdwJob(at(401), at(499), 410.2),
	})
	records, err := LoadContention(paths, "", &Options{Warn: func(format string, args ...interface{}) {
		t.Logf(format, args...)
	}})
	if err != nil {
		t.Fatalf("LoadContention: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}

	byFile := make(map[string]*contention.Record)
	for i := range records {
		byFile[records[i].Filename] = &records[i]
	}

	pq := byFile["primary_quiet.7p-1s.1001.out"]
	if pq == nil {
		t.Fatal("primary quiet record missing")
	}
	if pq.DatasetID != "1001" || pq.WorkloadID != contention.Primary || pq.Contention != contention.Quiet {
		t.Errorf("primary quiet identity = %+v", pq)
	}
	if pq.Access != "write" || pq.Metric != contention.MetricBandwidth || pq.Workload != "write bw" {
		t.Errorf("primary quiet workload = %s %s %q", pq.Access, pq.Metric, pq.Workload)
	}
	if pq.Performance != 2500 {
		t.Errorf("primary quiet performance = %v, want 2500", pq.Performance)
	}
	if pq.PrimaryNodes != 7 || pq.SecondaryNodes != 1 {
		t.Errorf("node counts = %d, %d, want 7, 1", pq.PrimaryNodes, pq.SecondaryNodes)
	}
	if pq.Nodes != 7 || pq.PPN != 16 || pq.Ordering != "sequential" {
		t.Errorf("header fields = %+v", pq)
	}
	if pq.Start != at(0).Unix() || pq.End != at(100).Unix() {
		t.Errorf("window = [%d, %d], want [%d, %d]", pq.Start, pq.End, at(0).Unix(), at(100).Unix())
	}

	sq := byFile["secondary_quiet.7p-1s.1001.out"]
	if sq == nil {
		t.Fatal("secondary quiet record missing")
	}
	if sq.Access != "both" || sq.Metric != contention.MetricMetadata || sq.Workload != "both metadata" {
		t.Errorf("md-workbench workload = %s %s %q", sq.Access, sq.Metric, sq.Workload)
	}
	if sq.Performance != 913.8 {
		t.Errorf("md-workbench performance = %v, want 913.8", sq.Performance)
	}

	// The earliest-starting quiet workload is the primary one for
	// every record of the dataset.
	for _, rec := range records {
		if rec.PrimaryWorkload != "write bw" {
			t.Errorf("%s: PrimaryWorkload = %q, want write bw", rec.Filename, rec.PrimaryWorkload)
		}
	}
}

func TestLoadContentionLegacyNames(t *testing.T) {
	at := func(secs int64) time.Time { return testBase.Add(time.Duration(secs) * time.Second) }
	paths := writeFiles(t, map[string]string{
		"write_bw_quiet.7b-1i.x.out":  iorJob(at(0), at(100), "sequential", 2000),
		"read_iops_quiet.7b-1i.x.out": iorJob(at(200), at(300), "random", 100),
	})
	records, err := LoadContention(paths, "88", &Options{Warn: func(format string, args ...interface{}) {
		t.Logf(format, args...)
	}})
	if err != nil {
		t.Fatalf("LoadContention: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	byFile := make(map[string]*contention.Record)
	for i := range records {
		byFile[records[i].Filename] = &records[i]
	}

	// The legacy convention names no dataset; the caller's label
	// applies, and roles are assigned by workload comparison.
	wb := byFile["write_bw_quiet.7b-1i.x.out"]
	if wb.DatasetID != "88" || wb.Workload != "write bw" {
		t.Errorf("record = %+v", wb)
	}
	if wb.WorkloadID != contention.Primary {
		t.Errorf("WorkloadID = %q, want primary (earliest quiet start)", wb.WorkloadID)
	}
	ri := byFile["read_iops_quiet.7b-1i.x.out"]
	if ri.Workload != "read iops" || ri.WorkloadID != contention.Secondary {
		t.Errorf("record = %+v", ri)
	}
	if ri.Performance != 100 {
		t.Errorf("iops performance = %v, want 100", ri.Performance)
	}
}

func TestLoadContentionSkipsInvalidFiles(t *testing.T) {
	at := func(secs int64) time.Time { return testBase.Add(time.Duration(secs) * time.Second) }
	paths := writeFiles(t, map[string]string{
		"primary_quiet.7p-1s.1001.out": iorJob(at(0), at(100), "sequential", 2500),
		"junk.out":                     "not benchmark output\n",
	})
	var warned bool
	records, err := LoadContention(paths, "", &Options{Warn: func(format string, args ...interface{}) {
		warned = true
		t.Logf(format, args...)
	}})
	if err != nil {
		t.Fatalf("LoadContention: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records, want 1", len(records))
	}
	if !warned {
		t.Errorf("no warning for invalid file")
	}
}

func TestLoadContentionEmpty(t *testing.T) {
	paths := writeFiles(t, map[string]string{"junk.out": "noise\n"})
	if _, err := LoadContention(paths, "", &Options{Warn: func(string, ...interface{}) {}}); err == nil {
		t.Errorf("LoadContention succeeded on dataset with no valid records")
	}
}
