// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Iorstat flattens IOR output files into a CSV table.
//
// Usage:
//
//	iorstat [-q] file.out [more.out ...]
//
// Each input may be a plain IOR stdout capture, a gzipped capture, or
// a tar/tgz archive of captures, and may contain the concatenated
// output of several runs. Iorstat prints one CSV row per reported
// read/write/remove operation, with the run header fields (node
// count, transfer size, timestamps, ...) repeated on every row so the
// table is self-contained.
//
// Columns vary with the IOR version that produced the output; the
// header row of the CSV lists the union of the columns seen.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hpcio/iocontend/dataset"
	"github.com/hpcio/iocontend/runfmt"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: iorstat [-q] file.out [more.out ...]\n")
	fmt.Fprintf(os.Stderr, "options:\n")
	flag.PrintDefaults()
	os.Exit(2)
}

var flagQuiet = flag.Bool("q", false, "suppress warnings about malformed input")

func main() {
	log.SetPrefix("iorstat: ")
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
	}

	opts := &dataset.Options{}
	if *flagQuiet {
		opts.Warn = func(string, ...interface{}) {}
	} else {
		opts.Warn = func(format string, args ...interface{}) {
			log.Printf(format, args...)
		}
	}

	table, err := dataset.LoadResults(flag.Args(), opts)
	if err != nil {
		log.Fatal(err)
	}

	cols := make(map[string]bool)
	var order []string
	for _, row := range table.Rows {
		for _, f := range row.Fields {
			if !cols[f.Key] {
				cols[f.Key] = true
				order = append(order, f.Key)
			}
		}
	}

	w := csv.NewWriter(os.Stdout)
	w.Write(order)
	out := make([]string, len(order))
	for _, row := range table.Rows {
		for i, col := range order {
			out[i] = ""
			if v, ok := row.Get(col); ok && v.Kind != runfmt.None {
				out[i] = v.String()
			}
		}
		w.Write(out)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatal(err)
	}
}
