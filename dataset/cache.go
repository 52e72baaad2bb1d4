// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/hpcio/iocontend/contention"
)

// cacheHeader is the column order of the dataset summary cache, a
// flat delimited table with one row per loaded record. Loading a
// cache skips re-parsing the raw benchmark outputs.
var cacheHeader = []string{
	"dataset_id", "filename", "access", "metric", "workload",
	"contention", "workload_id", "primary_workload",
	"primary_nodes", "secondary_nodes", "nodes", "ppn", "ordering",
	"start", "end", "performance",
}

// WriteCache saves a contention dataset to a CSV cache file.
func WriteCache(path string, records []contention.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	w.Write(cacheHeader)
	for i := range records {
		rec := &records[i]
		w.Write([]string{
			rec.DatasetID, rec.Filename, rec.Access, rec.Metric, rec.Workload,
			rec.Contention, rec.WorkloadID, rec.PrimaryWorkload,
			strconv.Itoa(rec.PrimaryNodes), strconv.Itoa(rec.SecondaryNodes),
			strconv.Itoa(rec.Nodes), strconv.Itoa(rec.PPN), rec.Ordering,
			strconv.FormatInt(rec.Start, 10), strconv.FormatInt(rec.End, 10),
			strconv.FormatFloat(rec.Performance, 'g', -1, 64),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadCache loads a contention dataset from a CSV cache file written
// by WriteCache.
func ReadCache(path string) ([]contention.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty cache", path)
	}
	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	for _, name := range cacheHeader {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%s: cache missing column %s", path, name)
		}
	}

	records := make([]contention.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		get := func(name string) string { return row[col[name]] }
		rec := contention.Record{
			DatasetID:       get("dataset_id"),
			Filename:        get("filename"),
			Access:          get("access"),
			Metric:          get("metric"),
			Workload:        get("workload"),
			Contention:      get("contention"),
			WorkloadID:      get("workload_id"),
			PrimaryWorkload: get("primary_workload"),
			Ordering:        get("ordering"),
		}
		rec.PrimaryNodes, _ = strconv.Atoi(get("primary_nodes"))
		rec.SecondaryNodes, _ = strconv.Atoi(get("secondary_nodes"))
		rec.Nodes, _ = strconv.Atoi(get("nodes"))
		rec.PPN, _ = strconv.Atoi(get("ppn"))
		rec.Start, _ = strconv.ParseInt(get("start"), 10, 64)
		rec.End, _ = strconv.ParseInt(get("end"), 10, 64)
		rec.Performance, _ = strconv.ParseFloat(get("performance"), 64)
		records = append(records, rec)
	}
	return records, nil
}
