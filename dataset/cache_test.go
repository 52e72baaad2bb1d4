// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hpcio/iocontend/contention"
)

func TestCacheRoundTrip(t *testing.T) {
	records := []contention.Record{
		{
			DatasetID:       "1001",
			Filename:        "primary_quiet.7p-1s.1001.out",
			Access:          "write",
			Metric:          contention.MetricBandwidth,
			Workload:        "write bw",
			Contention:      contention.Quiet,
			WorkloadID:      contention.Primary,
			PrimaryWorkload: "write bw",
			PrimaryNodes:    7,
			SecondaryNodes:  1,
			Nodes:           7,
			PPN:             16,
			Ordering:        "sequential",
			Start:           1626782371,
			End:             1626782520,
			Performance:     2500.11,
		},
		{
			DatasetID:       "1001",
			Filename:        "secondary_quiet.7p-1s.1001.out",
			Access:          "both",
			Metric:          contention.MetricMetadata,
			Workload:        "both metadata",
			Contention:      contention.Quiet,
			WorkloadID:      contention.Secondary,
			PrimaryWorkload: "write bw",
			PrimaryNodes:    7,
			SecondaryNodes:  1,
			Start:           1626782600,
			End:             1626782700,
			Performance:     913.8,
		},
	}

	path := filepath.Join(t.TempDir(), "dataset.csv")
	if err := WriteCache(path, records); err != nil {
		t.Fatalf("WriteCache: %v", err)
	}
	got, err := ReadCache(path)
	if err != nil {
		t.Fatalf("ReadCache: %v", err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, records)
	}
}

func TestReadCacheMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.csv")
	if err := os.WriteFile(path, []byte("dataset_id,filename\n1001,a.out\n"), 0666); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadCache(path); err == nil {
		t.Errorf("ReadCache succeeded on cache missing columns")
	}
}

func TestReadCacheMissingFile(t *testing.T) {
	if _, err := ReadCache(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Errorf("ReadCache succeeded on missing file")
	}
}
