// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import (
	"reflect"
	"testing"
)

func TestRowSetGet(t *testing.T) {
	row := new(Row)
	row.Set("access", StringValue("write"))
	row.Set("bw(mib/s)", FloatValue(100))
	row.Set("bw(mib/s)", FloatValue(200)) // overwrite keeps position

	want := []Field{
		{"access", StringValue("write")},
		{"bw(mib/s)", FloatValue(200)},
	}
	if !reflect.DeepEqual(row.Fields, want) {
		t.Errorf("Fields = %+v, want %+v", row.Fields, want)
	}
	if got := row.Str("access"); got != "write" {
		t.Errorf("Str(access) = %q, want write", got)
	}
	if got, ok := row.Float("bw(mib/s)"); !ok || got != 200 {
		t.Errorf("Float(bw(mib/s)) = %v, %v, want 200, true", got, ok)
	}
	if _, ok := row.Get("missing"); ok {
		t.Errorf("Get(missing) ok = true, want false")
	}
}

func TestStonewallPairsNewRecordOnRepeatRank(t *testing.T) {
	// Ranks report in arbitrary order; a repeated rank is the only
	// indication that a new logical record began.
	run := new(Run)
	run.AddStonewallPair(2, 100)
	run.AddStonewallPair(0, 110)
	run.AddStonewallPair(1, 105)
	run.AddStonewallPair(0, 200) // repeat: new record
	run.AddStonewallPair(2, 210)

	want := []map[int]int64{
		{2: 100, 0: 110, 1: 105},
		{0: 200, 2: 210},
	}
	if !reflect.DeepEqual(run.StonewallPairs, want) {
		t.Errorf("StonewallPairs = %v, want %v", run.StonewallPairs, want)
	}
}

func TestObserveBandwidth(t *testing.T) {
	run := new(Run)
	if _, ok := run.MaxBandwidth("read"); ok {
		t.Errorf("MaxBandwidth on empty run ok = true, want false")
	}
	run.ObserveBandwidth("write", 100)
	run.ObserveBandwidth("write", 300)
	run.ObserveBandwidth("write", 200)
	run.ObserveBandwidth("read", 50)
	run.ObserveBandwidth("remove", 999) // ignored

	if got, ok := run.MaxBandwidth("write"); !ok || got != 300 {
		t.Errorf("MaxBandwidth(write) = %v, %v, want 300, true", got, ok)
	}
	if got, ok := run.MaxBandwidth("read"); !ok || got != 50 {
		t.Errorf("MaxBandwidth(read) = %v, %v, want 50, true", got, ok)
	}
	if _, ok := run.MaxBandwidth("remove"); ok {
		t.Errorf("MaxBandwidth(remove) ok = true, want false")
	}
}

func TestNormalizeResults(t *testing.T) {
	run := &Run{
		Header: Header{Nodes: 8, PPN: 16, XferSize: 1 << 20, Ordering: "sequential", Start: 1000, End: 1100},
	}
	row := new(Row)
	row.Set("access", StringValue("write"))
	run.Results = append(run.Results, row)

	run.NormalizeResults()

	checks := []struct {
		key  string
		want Value
	}{
		{"access", StringValue("write")},
		{"nodes", IntValue(8)},
		{"ppn", IntValue(16)},
		{"xfersize", IntValue(1 << 20)},
		{"ordering", StringValue("sequential")},
		{"start", IntValue(1000)},
		{"end", IntValue(1100)},
		{"walltime", IntValue(100)},
	}
	for _, c := range checks {
		if got, ok := row.Get(c.key); !ok || got != c.want {
			t.Errorf("row[%s] = %+v, %v, want %+v", c.key, got, ok, c.want)
		}
	}
	// Unset header fields must not appear.
	if _, ok := row.Get("aggsize_bytes"); ok {
		t.Errorf("row[aggsize_bytes] present, want absent")
	}
}

func TestHeaderWalltime(t *testing.T) {
	h := Header{Start: 1000, End: 1060}
	if wt, ok := h.Walltime(); !ok || wt != 60 {
		t.Errorf("Walltime = %v, %v, want 60, true", wt, ok)
	}
	h = Header{WalltimeSecs: 45, Start: 1000, End: 1100}
	if wt, ok := h.Walltime(); !ok || wt != 45 {
		t.Errorf("Walltime = %v, %v, want tool-reported 45, true", wt, ok)
	}
	h = Header{}
	if _, ok := h.Walltime(); ok {
		t.Errorf("Walltime ok = true on empty header, want false")
	}
}

func TestRunEmpty(t *testing.T) {
	run := new(Run)
	if !run.Empty() {
		t.Errorf("new Run not Empty")
	}
	run.Header.Nodes = 1
	if run.Empty() {
		t.Errorf("Run with header reported Empty")
	}
}
