// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package contention

import (
	"fmt"
	"sort"
)

// An OverlapKey identifies one primary/secondary job pairing within a
// dataset.
type OverlapKey struct {
	DatasetID    string
	PrimaryNodes int
	Contention   string
}

// An Overlap describes how the time windows of a primary and a
// secondary job relate, in seconds.
//
// Overlapping is the time both jobs were running concurrently: the
// difference between the earliest job completion and the latest job
// start. Jobs that never ran concurrently have a negative raw
// difference, which is clamped to zero since negative overlap has no
// physical meaning downstream.
//
// Total is the span from the earliest job start to the latest job
// completion. In the quiet case it includes any gap between the
// primary and secondary phases. NonOverlapping is Total −
// Overlapping: the time one job ran while the other did not.
type Overlap struct {
	Overlapping    float64
	NonOverlapping float64
	Total          float64
}

// An OverlapTable holds the Overlap of every job pairing in a
// dataset.
type OverlapTable map[OverlapKey]Overlap

// An IncompleteDatasetError reports a job pairing that cannot be
// computed because its primary or secondary counterpart is missing.
type IncompleteDatasetError struct {
	DatasetID    string
	PrimaryNodes int
	Contention   string
}

func (e *IncompleteDatasetError) Error() string {
	return fmt.Sprintf("incomplete dataset %s for primary_nodes=%d contention=%s",
		e.DatasetID, e.PrimaryNodes, e.Contention)
}

// Overlaps computes the OverlapTable of a dataset. Every
// (dataset_id, primary_nodes, contention) combination must have both
// a primary and a secondary record; if one is missing, Overlaps
// returns an *IncompleteDatasetError identifying the combination and
// no partial result.
//
// When a pairing has several records in the same role, their start
// and end stamps are averaged before computing the overlap.
func Overlaps(records []Record) (OverlapTable, error) {
	type window struct {
		start, end float64
		n          int
	}
	wins := make(map[OverlapKey]map[string]*window)
	for i := range records {
		rec := &records[i]
		key := OverlapKey{rec.DatasetID, rec.PrimaryNodes, rec.Contention}
		roles := wins[key]
		if roles == nil {
			roles = make(map[string]*window)
			wins[key] = roles
		}
		w := roles[rec.WorkloadID]
		if w == nil {
			w = new(window)
			roles[rec.WorkloadID] = w
		}
		w.start += float64(rec.Start)
		w.end += float64(rec.End)
		w.n++
	}

	// Deterministic error selection: report the smallest missing
	// combination first.
	keys := make([]OverlapKey, 0, len(wins))
	for key := range wins {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.DatasetID != b.DatasetID {
			return a.DatasetID < b.DatasetID
		}
		if a.PrimaryNodes != b.PrimaryNodes {
			return a.PrimaryNodes < b.PrimaryNodes
		}
		return a.Contention < b.Contention
	})

	table := make(OverlapTable, len(keys))
	for _, key := range keys {
		roles := wins[key]
		pri, sec := roles[Primary], roles[Secondary]
		if pri == nil || sec == nil {
			return nil, &IncompleteDatasetError{key.DatasetID, key.PrimaryNodes, key.Contention}
		}
		pStart, pEnd := pri.start/float64(pri.n), pri.end/float64(pri.n)
		sStart, sEnd := sec.start/float64(sec.n), sec.end/float64(sec.n)

		overlapping := min(pEnd, sEnd) - max(pStart, sStart)
		if overlapping < 0 {
			overlapping = 0
		}
		total := max(pEnd, sEnd) - min(pStart, sStart)
		table[key] = Overlap{
			Overlapping:    overlapping,
			NonOverlapping: total - overlapping,
			Total:          total,
		}
	}
	return table, nil
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
