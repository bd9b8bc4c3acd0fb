// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestCanonicalJSONSortsKeysRecursively(t *testing.T) {
	input := []byte(`{"b": 2, "a": {"z": [3, {"y": 1, "x": 2}], "m": true}}`)
	want := `{"a":{"m":true,"z":[3,{"x":2,"y":1}]},"b":2}`

	got, err := CanonicalJSON(input)
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}
	if string(got) != want {
		t.Errorf("canonical = %s, want %s", got, want)
	}
}

func TestCanonicalJSONStableAcrossOrderings(t *testing.T) {
	a := []byte(`{"nonce": 7, "action": {"type": "set", "data": {"p/x": 1}}}`)
	b := []byte(`{"action": {"data": {"p/x": 1}, "type": "set"}, "nonce": 7}`)

	ca, err := CanonicalJSON(a)
	if err != nil {
		t.Fatal(err)
	}
	cb, err := CanonicalJSON(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(ca, cb) {
		t.Errorf("canonical forms differ:\n  %s\n  %s", ca, cb)
	}
}

func TestCanonicalJSONPreservesNumberTokens(t *testing.T) {
	// Large integers and high-precision decimals must survive
	// canonicalization without a float64 round-trip.
	input := []byte(`{"n": 9007199254740993, "d": 0.10000000000000001}`)
	got, err := CanonicalJSON(input)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"d":0.10000000000000001,"n":9007199254740993}`
	if string(got) != want {
		t.Errorf("canonical = %s, want %s", got, want)
	}
}

func TestCanonicalJSONNoHTMLEscaping(t *testing.T) {
	got, err := CanonicalJSON([]byte(`{"s": "<a&b>"}`))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"s":"<a&b>"}` {
		t.Errorf("canonical = %s, want unescaped angle brackets", got)
	}
}

func TestCanonicalJSONRejectsTrailingData(t *testing.T) {
	if _, err := CanonicalJSON([]byte(`{} {}`)); err == nil {
		t.Error("expected error for trailing data")
	}
}

func TestAppendCanonicalValue(t *testing.T) {
	var buf bytes.Buffer
	value := map[string]any{
		"b": json.Number("1"),
		"a": []any{"x", nil, false},
	}
	if err := AppendCanonicalValue(&buf, value); err != nil {
		t.Fatal(err)
	}
	want := `{"a":["x",null,false],"b":1}`
	if buf.String() != want {
		t.Errorf("got %s, want %s", buf.String(), want)
	}
}

func TestCBORRoundTrip(t *testing.T) {
	type record struct {
		Name  string `cbor:"1,keyasint"`
		Level int    `cbor:"2,keyasint"`
	}
	in := record{Name: "alice.near", Level: 3}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out record
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestCBORDeterministic(t *testing.T) {
	value := map[string]any{"b": 1, "a": 2, "c": map[string]any{"y": 1, "x": 2}}
	first, err := Marshal(value)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 16; i++ {
		again, err := Marshal(value)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding %d differs from first", i)
		}
	}
}
