// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package contention

import (
	"errors"
	"testing"
)

// rec builds the minimal Record the overlap and validation logic needs.
func rec(datasetID, contention, workloadID string, primaryNodes int, start, end int64) Record {
	return Record{
		DatasetID:    datasetID,
		Contention:   contention,
		WorkloadID:   workloadID,
		PrimaryNodes: primaryNodes,
		Start:        start,
		End:          end,
	}
}

func TestOverlaps(t *testing.T) {
	records := []Record{
		rec("1001", Noisy, Primary, 8, 0, 100),
		rec("1001", Noisy, Secondary, 8, 50, 150),
	}
	table, err := Overlaps(records)
	if err != nil {
		t.Fatalf("Overlaps: %v", err)
	}
	ov := table[OverlapKey{"1001", 8, Noisy}]
	if ov.Overlapping != 50 || ov.NonOverlapping != 100 || ov.Total != 150 {
		t.Errorf("overlap = %+v, want 50/100/150", ov)
	}
}

func TestOverlapsDisjointClampsToZero(t *testing.T) {
	records := []Record{
		rec("1001", Quiet, Primary, 8, 0, 10),
		rec("1001", Quiet, Secondary, 8, 20, 30),
	}
	table, err := Overlaps(records)
	if err != nil {
		t.Fatalf("Overlaps: %v", err)
	}
	ov := table[OverlapKey{"1001", 8, Quiet}]
	if ov.Overlapping != 0 || ov.NonOverlapping != 30 || ov.Total != 30 {
		t.Errorf("overlap = %+v, want 0/30/30", ov)
	}
}

func TestOverlapsAveragesDuplicates(t *testing.T) {
	// Two primary measurements average to the window [5, 105].
	records := []Record{
		rec("1001", Noisy, Primary, 8, 0, 100),
		rec("1001", Noisy, Primary, 8, 10, 110),
		rec("1001", Noisy, Secondary, 8, 50, 150),
	}
	table, err := Overlaps(records)
	if err != nil {
		t.Fatalf("Overlaps: %v", err)
	}
	ov := table[OverlapKey{"1001", 8, Noisy}]
	if ov.Overlapping != 55 || ov.NonOverlapping != 90 || ov.Total != 145 {
		t.Errorf("overlap = %+v, want 55/90/145", ov)
	}
}

func TestOverlapsIncompleteDataset(t *testing.T) {
	records := []Record{
		rec("1001", Noisy, Primary, 8, 0, 100),
		rec("1001", Noisy, Secondary, 8, 50, 150),
		rec("1002", Noisy, Primary, 4, 0, 100),
	}
	table, err := Overlaps(records)
	if table != nil {
		t.Errorf("got partial table %v, want nil", table)
	}
	var ide *IncompleteDatasetError
	if !errors.As(err, &ide) {
		t.Fatalf("err = %v, want *IncompleteDatasetError", err)
	}
	if ide.DatasetID != "1002" || ide.PrimaryNodes != 4 || ide.Contention != Noisy {
		t.Errorf("error = %+v, want dataset 1002 nodes 4 noisy", ide)
	}
}
