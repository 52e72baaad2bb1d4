// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iorfmt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hpcio/iocontend/runfmt"
)

var (
	// ior-n8ppn16t1m.out, optionally ior-n8ppn16t1m.3.out
	filenameRe = regexp.MustCompile(`ior-n(\d+)ppn(\d+)t(\d+)([mgkMGK]?)(\.\d+)?.out`)
	// ior-n2p16T90-read.out
	filenameSimpleRe = regexp.MustCompile(`ior-n(\d+)p(pn)?(\d+).*\.out`)
)

// A FileMeta is run metadata recovered from an output file's name,
// for files following the ior-nXXppnYYtZZ.out convention where XX is
// the node count, YY the processes per node, and ZZ the transfer size
// (with an optional k/m/g binary multiplier).
type FileMeta struct {
	Nodes int
	PPN   int

	// XferSize is the transfer size in bytes. The simple naming
	// convention does not encode it; HasXferSize reports whether
	// it was recovered.
	XferSize    int64
	HasXferSize bool
}

// ParseFilename extracts run metadata from the name of an output
// file. An unrecognized name is not fatal to parsing: the caller
// should report the error as a warning and proceed with whatever
// header fields were extracted from the file's content.
func ParseFilename(filename string) (FileMeta, error) {
	if m := filenameRe.FindStringSubmatch(filename); m != nil {
		xfersize, _ := strconv.ParseInt(m[3], 10, 64)
		switch strings.ToLower(m[4]) {
		case "k":
			xfersize <<= 10
		case "m":
			xfersize <<= 20
		case "g":
			xfersize <<= 30
		}
		nodes, _ := strconv.Atoi(m[1])
		ppn, _ := strconv.Atoi(m[2])
		return FileMeta{Nodes: nodes, PPN: ppn, XferSize: xfersize, HasXferSize: true}, nil
	}
	if m := filenameSimpleRe.FindStringSubmatch(filename); m != nil {
		nodes, _ := strconv.Atoi(m[1])
		ppn, _ := strconv.Atoi(m[3])
		return FileMeta{Nodes: nodes, PPN: ppn}, nil
	}
	return FileMeta{}, fmt.Errorf("could not extract metadata from filename %s", filename)
}

// Apply overrides the content-derived header fields with the
// filename-derived ones. Filename metadata wins because concatenated
// or truncated streams may carry a stale header.
func (m FileMeta) Apply(h *runfmt.Header) {
	h.Nodes = m.Nodes
	h.PPN = m.PPN
	if m.HasXferSize {
		h.XferSize = m.XferSize
	}
}
