// Copyright 2024 The iocontend Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import "testing"

func TestCoerce(t *testing.T) {
	tests := []struct {
		tok  string
		want Value
	}{
		{"-", Value{Kind: None}},
		{"NA", Value{Kind: None}},
		{"12", IntValue(12)},
		{"-7", IntValue(-7)},
		{"3.5", FloatValue(3.5)},
		{"23000.50", FloatValue(23000.50)},
		{"abc", StringValue("abc")},
		// Contains a dot but isn't a float: kept as text.
		{"12.x", StringValue("12.x")},
		// No dot and not an integer: kept as text.
		{"1e5", StringValue("1e5")},
		{"POSIX", StringValue("POSIX")},
	}
	for _, test := range tests {
		if got := Coerce(test.tok); got != test.want {
			t.Errorf("Coerce(%q) = %+v, want %+v", test.tok, got, test.want)
		}
	}
}

func TestValueAsFloat(t *testing.T) {
	if v, ok := IntValue(12).AsFloat(); !ok || v != 12 {
		t.Errorf("IntValue(12).AsFloat() = %v, %v, want 12, true", v, ok)
	}
	if v, ok := FloatValue(3.5).AsFloat(); !ok || v != 3.5 {
		t.Errorf("FloatValue(3.5).AsFloat() = %v, %v, want 3.5, true", v, ok)
	}
	if _, ok := StringValue("x").AsFloat(); ok {
		t.Errorf("StringValue.AsFloat() ok = true, want false")
	}
	if _, ok := (Value{Kind: None}).AsFloat(); ok {
		t.Errorf("None.AsFloat() ok = true, want false")
	}
}
