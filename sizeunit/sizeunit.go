// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sizeunit parses and formats byte quantities with IEC binary
// unit suffixes, as printed by I/O benchmarking tools.
package sizeunit

import (
	"fmt"
	"strconv"
	"strings"
)

var iecFactors = map[string]float64{
	"bytes": 1,
	"KiB":   1 << 10,
	"MiB":   1 << 20,
	"GiB":   1 << 30,
	"TiB":   1 << 40,
	"PiB":   1 << 50,
	"EiB":   1 << 60,
}

// Parse converts a human-readable quantity like "4 MiB" into a number
// of bytes. The unit may carry a "/s" suffix, which is ignored, so
// rates like "1 GiB/s" parse to the byte count of one second's worth
// of transfer. The quantity may be fractional. Unrecognized units are
// an error.
func Parse(s string) (float64, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, fmt.Errorf("malformed size %q", s)
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("malformed size %q: %v", s, err)
	}
	unit := strings.TrimSuffix(fields[1], "/s")
	factor, ok := iecFactors[unit]
	if !ok {
		return 0, fmt.Errorf("unrecognized unit %q in size %q", unit, s)
	}
	return x * factor, nil
}

// Format converts a quantity of bytes into a value scaled to the
// largest IEC unit that keeps it at or above 1.0, returning the
// scaled value and its unit prefix ("KiB", "MiB", ...). Quantities
// that are not a multiple of 1024 are returned unscaled with an empty
// unit, since scaling them would hide precision.
func Format(quantity int64) (float64, string) {
	q := float64(quantity)
	unit := ""
	if quantity%1024 != 0 {
		return q, unit
	}
	for _, p := range []string{"K", "M", "G", "T", "P", "E", "Z"} {
		if q < 1024.0 {
			break
		}
		q /= 1024.0
		unit = p + "iB"
	}
	return q, unit
}
