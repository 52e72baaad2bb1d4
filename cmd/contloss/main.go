// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Contloss computes contention losses from a dataset of paired
// benchmark runs.
//
// Usage:
//
//	contloss [options] file.out [more.out ...]
//
// The inputs are the output files of one or more contention
// experiments, named by either contention filename convention (e.g.
// secondary_quiet.7p-1s.2125435.out). Contloss parses them, validates
// the dataset, and prints one loss row per (dataset, workload, node
// count): the workload's performance in isolation ("quiet"), its
// performance while a contending workload ran concurrently ("noisy"),
// and the loss between the two. A trailing summary gives the median
// loss fraction per workload and node count with a bootstrapped
// confidence interval.
//
// Validation failures (jobs that ran too short, isolated jobs that
// overlapped, noisy pairs that barely overlapped) are reported as
// warnings; the loss table is printed regardless.
//
// With -cache, the parsed dataset is read from, or saved to, a CSV
// cache file so that re-runs skip the raw outputs.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/hpcio/iocontend/contention"
	"github.com/hpcio/iocontend/dataset"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: contloss [options] file.out [more.out ...]\n")
	fmt.Fprintf(os.Stderr, "options:\n")
	flag.PrintDefaults()
	os.Exit(2)
}

var (
	flagDataset     = flag.String("dataset", "", "dataset `id` for files whose names do not encode one")
	flagCache       = flag.String("cache", "", "read dataset from CSV `file`, writing it first if missing")
	flagMinWalltime = flag.Int64("min-walltime", 45, "minimum job walltime in `seconds`")
	flagMinOverlap  = flag.Float64("min-overlap", 0.80, "minimum noisy overlap `fraction`")
	flagConfidence  = flag.Float64("confidence", 0.95, "confidence `level` for the loss summary")
	flagNoValidate  = flag.Bool("novalidate", false, "skip dataset validation")
)

func main() {
	log.SetPrefix("contloss: ")
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()

	records, err := loadRecords()
	if err != nil {
		log.Fatal(err)
	}

	if !*flagNoValidate {
		opts := &contention.ValidateOptions{
			MinWalltime: *flagMinWalltime,
			MinOverlap:  *flagMinOverlap,
			Warn: func(format string, args ...interface{}) {
				log.Printf(format, args...)
			},
		}
		// A failed validation downgrades to a warning: an
		// unvalidated loss table is still worth printing.
		if err := contention.Validate(records, opts); err != nil {
			log.Printf("warning: %v", err)
		}
	}

	losses := contention.Losses(records)

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "dataset\tworkload\tnodes\tquiet\tnoisy\tloss\tloss%")
	for _, l := range losses {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.1f\t%.1f\t%.1f\t%.1f%%\n",
			l.DatasetID, l.Workload, l.PrimaryNodes,
			l.Quiet, l.Noisy, l.Loss, l.LossFraction*100)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "workload\tnodes\tn\tmedian loss%\tCI")
	for _, s := range contention.SummarizeLosses(losses, *flagConfidence) {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f%%\t[%.1f%%, %.1f%%]\n",
			s.Workload, s.PrimaryNodes, s.N,
			s.Center*100, s.Lo*100, s.Hi*100)
	}
	w.Flush()
}

func loadRecords() ([]contention.Record, error) {
	if *flagCache != "" {
		if records, err := dataset.ReadCache(*flagCache); err == nil {
			log.Printf("loaded dataset from %s", *flagCache)
			return records, nil
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}
	if flag.NArg() == 0 {
		usage()
	}
	opts := &dataset.Options{
		Warn: func(format string, args ...interface{}) {
			log.Printf(format, args...)
		},
	}
	records, err := dataset.LoadContention(flag.Args(), *flagDataset, opts)
	if err != nil {
		return nil, err
	}
	if *flagCache != "" {
		if err := dataset.WriteCache(*flagCache, records); err != nil {
			return nil, err
		}
		log.Printf("saved dataset to %s", *flagCache)
	}
	return records, nil
}
