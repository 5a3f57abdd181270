// Copyright 2026 The mxfgo Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dict

import (
	"testing"

	"github.com/mxfgo/mxfcore"
)

func TestBoolTraitsRoundTrip(t *testing.T) {
	tr := boolTraits{}
	for _, v := range []bool{true, false} {
		raw, err := tr.Write(v)
		if err != nil {
			t.Fatalf("Write(%v): %v", v, err)
		}
		got, err := tr.Read(raw)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if got != v {
			t.Errorf("round trip = %v, want %v", got, v)
		}
	}
}

func TestIntTraitsSignedRoundTrip(t *testing.T) {
	tr := intTraits{size: 4, signed: true}
	raw, err := tr.Write(int64(-1))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := tr.Read(raw)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.(int64) != -1 {
		t.Errorf("round trip = %v, want -1", got)
	}
}

func TestIntTraitsUnsignedRoundTrip(t *testing.T) {
	tr := intTraits{size: 2, signed: false}
	raw, err := tr.Write(uint64(0xBEEF))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := tr.Read(raw)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.(uint64) != 0xBEEF {
		t.Errorf("round trip = %#x, want 0xBEEF", got)
	}
}

func TestIntTraitsReadTruncated(t *testing.T) {
	tr := intTraits{size: 4, signed: false}
	if _, err := tr.Read([]byte{1, 2}); err != mxfcore.ErrTruncatedValue {
		t.Errorf("Read(short) error = %v, want ErrTruncatedValue", err)
	}
}

func TestUTF16TraitsRoundTrip(t *testing.T) {
	tr := utf16Traits{}
	raw, err := tr.Write("hello")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := tr.Read(raw)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "hello" {
		t.Errorf("round trip = %q, want %q", got, "hello")
	}
}

func TestISO7TraitsMasksHighBit(t *testing.T) {
	tr := iso7Traits{}
	got, err := tr.Read([]byte{0xC1}) // 'A' with the high bit set
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "A" {
		t.Errorf("Read(0xC1) = %q, want %q (high bit masked)", got, "A")
	}
}

func TestRawArrayTraitsRoundTrip(t *testing.T) {
	tr := rawArrayTraits{}
	items := [][]byte{{1, 2, 3}, {4, 5, 6}}
	raw, err := tr.Write(items)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := tr.Read(raw)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	gotItems := got.([][]byte)
	if len(gotItems) != 2 || string(gotItems[0]) != "\x01\x02\x03" || string(gotItems[1]) != "\x04\x05\x06" {
		t.Errorf("round trip = %v, want %v", gotItems, items)
	}
}

func TestRawArrayTraitsReadTruncated(t *testing.T) {
	tr := rawArrayTraits{}
	if _, err := tr.Read([]byte{0, 0}); err != mxfcore.ErrTruncatedValue {
		t.Errorf("Read(short header) error = %v, want ErrTruncatedValue", err)
	}
}

func TestRationalTraitsRoundTripAndStringForm(t *testing.T) {
	tr := rationalTraits{}
	r := mxfcore.Rational{Numerator: 24, Denominator: 1}
	raw, err := tr.Write(r)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := tr.Read(raw)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.(mxfcore.Rational) != r {
		t.Errorf("round trip = %v, want %v", got, r)
	}
	if s := tr.ToString(r); s != "24/1" {
		t.Errorf("ToString() = %q, want %q", s, "24/1")
	}
	parsed, err := tr.FromString("30000/1001")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if parsed.(mxfcore.Rational) != (mxfcore.Rational{30000, 1001}) {
		t.Errorf("FromString() = %v, want {30000 1001}", parsed)
	}
}

func TestUUIDTraitsRoundTrip(t *testing.T) {
	tr := uuidTraits{}
	u := mxfcore.NewUUID()
	raw, err := tr.Write(u)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := tr.Read(raw)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.(mxfcore.UUID) != u {
		t.Errorf("round trip = %v, want %v", got, u)
	}
}

func TestLabelTraitsRoundTrip(t *testing.T) {
	tr := labelTraits{}
	ul := mxfcore.UL{0x06, 0x0e}
	raw, err := tr.Write(ul)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := tr.Read(raw)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.(mxfcore.UL) != ul {
		t.Errorf("round trip = %v, want %v", got, ul)
	}
}

func TestWriteWrongTypeErrors(t *testing.T) {
	if _, err := (boolTraits{}).Write("not a bool"); err == nil {
		t.Errorf("boolTraits.Write(wrong type) returned nil error")
	}
	if _, err := (uuidTraits{}).Write(42); err == nil {
		t.Errorf("uuidTraits.Write(wrong type) returned nil error")
	}
	if _, err := (rationalTraits{}).Write("not a rational"); err == nil {
		t.Errorf("rationalTraits.Write(wrong type) returned nil error")
	}
}

func TestCompoundTraitsHandlesSubdataFalse(t *testing.T) {
	if (compoundTraits{}).HandlesSubdata() {
		t.Errorf("compoundTraits.HandlesSubdata() = true, want false (delegates to Members)")
	}
	if !(uuidTraits{}).HandlesSubdata() {
		t.Errorf("uuidTraits.HandlesSubdata() = false, want true (owns its whole range)")
	}
}

func TestRegisterStandardTraitsPopulatesRegistry(t *testing.T) {
	d := New()
	for _, name := range []string{"UInt32", "Boolean", "UUID", "Label", "UMID", "Rational", "TimeStamp"} {
		if _, ok := d.traitsRegistry[name]; !ok {
			t.Errorf("traitsRegistry missing %q after New()", name)
		}
	}
}
