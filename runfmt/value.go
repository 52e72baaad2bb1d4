// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import (
	"fmt"
	"strconv"
	"strings"
)

// A Kind indicates which representation a Value carries.
type Kind int

const (
	// None indicates an explicitly undefined value, such as "-" or
	// "NA" in a results table.
	None Kind = iota
	// Int indicates an integer value.
	Int
	// Float indicates a floating-point value.
	Float
	// String indicates a value that could not be interpreted
	// numerically and is kept as the original text.
	String
)

func (k Kind) String() string {
	switch k {
	case None:
		return "None"
	case Int:
		return "Int"
	case Float:
		return "Float"
	case String:
		return "String"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// A Value is a single coerced field value from a benchmark output
// table. Exactly one of the representations is meaningful, selected
// by Kind.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Str   string
}

// Predefined Values for common cases.
var (
	noValue = Value{Kind: None}
)

// IntValue returns a Value holding an integer.
func IntValue(v int64) Value { return Value{Kind: Int, Int: v} }

// FloatValue returns a Value holding a float.
func FloatValue(v float64) Value { return Value{Kind: Float, Float: v} }

// StringValue returns a Value holding uninterpreted text.
func StringValue(s string) Value { return Value{Kind: String, Str: s} }

// Coerce converts one whitespace-delimited token from a benchmark
// output table into a Value. "-" and "NA" mean the tool reported no
// value. Tokens containing a "." are tried as floats first; all
// others as integers first. Tokens that parse as neither are kept as
// text.
func Coerce(tok string) Value {
	if tok == "-" || tok == "NA" {
		return noValue
	}
	if strings.Contains(tok, ".") {
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			return FloatValue(f)
		}
	} else if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return IntValue(i)
	}
	return StringValue(tok)
}

// AsFloat returns the numeric value of v as a float64. It reports
// false for None and String values.
func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case Int:
		return float64(v.Int), true
	case Float:
		return v.Float, true
	}
	return 0, false
}

// String returns the value formatted the way the benchmark tool would
// have printed it.
func (v Value) String() string {
	switch v.Kind {
	case None:
		return "-"
	case Int:
		return strconv.FormatInt(v.Int, 10)
	case Float:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	}
	return v.Str
}
