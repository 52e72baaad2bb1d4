// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package contention

import (
	"math"
	"math/rand"
	"sort"

	"github.com/aclements/go-moremath/stats"
)

// A LossSummary aggregates the loss fractions of one workload at one
// node count across all of its datasets: the median, and a
// bootstrapped percentile confidence interval around it.
type LossSummary struct {
	Workload     string
	PrimaryNodes int

	Center     float64 // median loss fraction
	Lo, Hi     float64 // bootstrapped confidence interval bounds
	Confidence float64
	N          int // number of finite loss fractions summarized
}

// defaultBootstrapN is the number of bootstrap resamples; 1000 is
// recommended, 500 is good enough for a rough estimate.
const defaultBootstrapN = 1000

// SummarizeLosses condenses a loss table into one row per (workload,
// primary_nodes), summarizing the loss fractions observed across
// datasets. Non-finite loss fractions (from zero or missing quiet
// baselines) are skipped. confidence is the bootstrap interval level,
// e.g. 0.95.
//
// The bootstrap's random source is seeded from the data, so repeated
// calls on the same table give identical intervals.
func SummarizeLosses(losses []Loss, confidence float64) []LossSummary {
	type groupKey struct {
		workload     string
		primaryNodes int
	}
	groups := make(map[groupKey][]float64)
	for _, l := range losses {
		if math.IsNaN(l.LossFraction) || math.IsInf(l.LossFraction, 0) {
			continue
		}
		key := groupKey{l.Workload, l.PrimaryNodes}
		groups[key] = append(groups[key], l.LossFraction)
	}

	keys := make([]groupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.workload != b.workload {
			return a.workload < b.workload
		}
		return a.primaryNodes < b.primaryNodes
	})

	summaries := make([]LossSummary, 0, len(keys))
	for _, key := range keys {
		xs := groups[key]
		sort.Float64s(xs)
		sample := stats.Sample{Xs: xs, Sorted: true}
		center := sample.Quantile(0.5)
		lo, hi := bootstrapCI(xs, confidence)
		summaries = append(summaries, LossSummary{
			Workload:     key.workload,
			PrimaryNodes: key.primaryNodes,
			Center:       center,
			Lo:           lo,
			Hi:           hi,
			Confidence:   confidence,
			N:            len(xs),
		})
	}
	return summaries
}

// bootstrapCI computes a percentile bootstrap confidence interval for
// the median of xs.
func bootstrapCI(xs []float64, confidence float64) (lo, hi float64) {
	if len(xs) == 0 {
		return math.NaN(), math.NaN()
	}
	r := rand.New(rand.NewSource(hashValues(xs)))
	medians := make([]float64, defaultBootstrapN)
	resample := make([]float64, len(xs))
	for i := range medians {
		for j := range resample {
			resample[j] = xs[r.Intn(len(xs))]
		}
		sort.Float64s(resample)
		medians[i] = stats.Sample{Xs: resample, Sorted: true}.Quantile(0.5)
	}
	sort.Float64s(medians)
	p := (1 - confidence) / 2
	s := stats.Sample{Xs: medians, Sorted: true}
	return s.Quantile(p), s.Quantile(1 - p)
}

const rot = 23

// hashValues derives a deterministic random seed from the data.
func hashValues(xs []float64) int64 {
	var x int64
	for _, v := range xs {
		xlow := (x >> (64 - rot)) & (1<<rot - 1)
		x = (x << rot) ^ xlow ^ int64(math.Float64bits(v))
	}
	return x
}
