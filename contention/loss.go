// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package contention

import (
	"math"
	"sort"
)

// A Loss is one row of the loss table: the performance a workload
// achieved in isolation and under contention within one dataset, and
// the difference between the two.
//
// A missing quiet or noisy measurement leaves the corresponding field
// NaN, and a zero or missing quiet baseline makes LossFraction
// non-finite. Consumers must tolerate these rather than treat them as
// errors.
type Loss struct {
	DatasetID    string
	Workload     string
	PrimaryNodes int

	Quiet float64 // performance in isolation
	Noisy float64 // performance under contention

	Loss         float64 // Quiet − Noisy
	LossFraction float64 // Loss / Quiet
}

// Losses reshapes a dataset into one row per (dataset_id, workload,
// primary_nodes), pairing each workload's quiet and noisy
// performance. Duplicate measurements of the same cell are averaged.
// Rows are ordered by dataset, workload, then node count.
func Losses(records []Record) []Loss {
	type cellKey struct {
		datasetID    string
		workload     string
		primaryNodes int
	}
	type cell struct {
		quiet, noisy   float64
		nQuiet, nNoisy int
	}
	cells := make(map[cellKey]*cell)
	for i := range records {
		rec := &records[i]
		key := cellKey{rec.DatasetID, rec.Workload, rec.PrimaryNodes}
		c := cells[key]
		if c == nil {
			c = new(cell)
			cells[key] = c
		}
		switch rec.Contention {
		case Quiet:
			c.quiet += rec.Performance
			c.nQuiet++
		case Noisy:
			c.noisy += rec.Performance
			c.nNoisy++
		}
	}

	losses := make([]Loss, 0, len(cells))
	for key, c := range cells {
		quiet, noisy := math.NaN(), math.NaN()
		if c.nQuiet > 0 {
			quiet = c.quiet / float64(c.nQuiet)
		}
		if c.nNoisy > 0 {
			noisy = c.noisy / float64(c.nNoisy)
		}
		loss := quiet - noisy
		losses = append(losses, Loss{
			DatasetID:    key.datasetID,
			Workload:     key.workload,
			PrimaryNodes: key.primaryNodes,
			Quiet:        quiet,
			Noisy:        noisy,
			Loss:         loss,
			LossFraction: loss / quiet,
		})
	}
	sort.Slice(losses, func(i, j int) bool {
		a, b := &losses[i], &losses[j]
		if a.DatasetID != b.DatasetID {
			return a.DatasetID < b.DatasetID
		}
		if a.Workload != b.Workload {
			return a.Workload < b.Workload
		}
		return a.PrimaryNodes < b.PrimaryNodes
	})
	return losses
}
