// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dataset loads benchmark output files into the flat tables
// the analysis packages consume. It is deliberately thin glue: the
// parsers see only streams of text lines, and the contention package
// sees only tables of records.
package dataset

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"strings"
)

// forEachStream opens path and calls fn once per text stream found in
// it: once for a plain or gzipped file, and once per regular member
// of a tar or tgz archive. fn must fully consume the reader before
// returning. Iteration stops at the first error from fn.
func forEachStream(path string, fn func(name string, r io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") || strings.HasSuffix(path, ".tgz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer gz.Close()
		r = gz
	}
	if strings.HasSuffix(path, ".tar") || strings.HasSuffix(path, ".tgz") ||
		strings.HasSuffix(path, ".tar.gz") {
		tr := tar.NewReader(r)
		for {
			hdr, err := tr.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if hdr.Typeflag != tar.TypeReg {
				continue
			}
			if err := fn(hdr.Name, tr); err != nil {
				return err
			}
		}
	}
	return fn(path, r)
}
