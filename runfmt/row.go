// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

// A Field is a single key/value pair in a Row. Keys come from the
// column header of the results section that produced the Row, so the
// set of keys varies between tool versions.
type Field struct {
	Key   string
	Value Value
}

// A Row is one record of a benchmark results or summary table: an
// ordered list of fields. Rows are ordered so that output reproduces
// the column order of the tool that emitted them.
//
// Row internally maintains an index of the keys of Fields, so callers
// must use Set to add or update fields. For convenience, new Rows may
// be initialized directly from a Field literal slice.
type Row struct {
	Fields []Field

	// fieldPos maps from Field.Key to index in Fields. This may
	// be nil, which indicates the index needs to be constructed.
	fieldPos map[string]int
}

// Set sets field key to value, overriding or appending the field as
// necessary.
func (r *Row) Set(key string, value Value) {
	if pos, ok := r.index(key); ok {
		r.Fields[pos].Value = value
		return
	}
	r.fieldPos[key] = len(r.Fields)
	r.Fields = append(r.Fields, Field{key, value})
}

// Get returns the value of field key, with ok reporting whether the
// field is present at all. A present field may still hold a None
// value if the tool reported "-" or "NA" in that column.
func (r *Row) Get(key string) (v Value, ok bool) {
	pos, ok := r.index(key)
	if !ok {
		return Value{}, false
	}
	return r.Fields[pos].Value, true
}

// Float returns the numeric value of field key as a float64. It
// reports false if the field is missing or non-numeric.
func (r *Row) Float(key string) (float64, bool) {
	v, ok := r.Get(key)
	if !ok {
		return 0, false
	}
	return v.AsFloat()
}

// Int returns the value of field key as an int64. It reports false if
// the field is missing or not an integer.
func (r *Row) Int(key string) (int64, bool) {
	v, ok := r.Get(key)
	if !ok || v.Kind != Int {
		return 0, false
	}
	return v.Int, true
}

// Str returns the text of field key, or "" if the field is missing or
// numeric.
func (r *Row) Str(key string) string {
	v, ok := r.Get(key)
	if !ok || v.Kind != String {
		return ""
	}
	return v.Str
}

// Clone makes a copy of the Row that shares no state with r.
func (r *Row) Clone() *Row {
	return &Row{Fields: append([]Field(nil), r.Fields...)}
}

func (r *Row) index(key string) (pos int, ok bool) {
	if r.fieldPos == nil {
		r.fieldPos = make(map[string]int)
		for i, f := range r.Fields {
			r.fieldPos[f.Key] = i
		}
	}
	pos, ok = r.fieldPos[key]
	return
}
