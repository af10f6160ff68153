// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

type sampleRegisters struct {
	Active    string            `cbor:"active,omitempty"`
	Registers map[string]string `cbor:"registers"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleRegisters{
		Active:    "draft",
		Registers: map[string]string{"draft": "a\nb", "todo": "milk"},
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleRegisters
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded.Active != original.Active {
		t.Errorf("Active = %q, want %q", decoded.Active, original.Active)
	}
	if len(decoded.Registers) != 2 || decoded.Registers["draft"] != "a\nb" {
		t.Errorf("Registers = %v, want %v", decoded.Registers, original.Registers)
	}
}

func TestMarshalDeterministicAcrossMapOrder(t *testing.T) {
	// Go map iteration order is randomized; the encoding must not be.
	first := map[string]string{}
	second := map[string]string{}
	keys := []string{"zeta", "alpha", "mid", "beta", "omega"}
	for _, key := range keys {
		first[key] = key + "-value"
	}
	for i := len(keys) - 1; i >= 0; i-- {
		second[keys[i]] = keys[i] + "-value"
	}

	firstData, err := Marshal(first)
	if err != nil {
		t.Fatalf("Marshal first: %v", err)
	}
	secondData, err := Marshal(second)
	if err != nil {
		t.Fatalf("Marshal second: %v", err)
	}
	if !bytes.Equal(firstData, secondData) {
		t.Errorf("deterministic encoding violated: %x != %x", firstData, secondData)
	}
}

func TestOmitemptyRespected(t *testing.T) {
	withActive, err := Marshal(sampleRegisters{Active: "x", Registers: map[string]string{}})
	if err != nil {
		t.Fatal(err)
	}
	withoutActive, err := Marshal(sampleRegisters{Registers: map[string]string{}})
	if err != nil {
		t.Fatal(err)
	}
	if len(withoutActive) >= len(withActive) {
		t.Errorf("omitempty not effective: without=%d bytes, with=%d bytes",
			len(withoutActive), len(withActive))
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var decoded sampleRegisters
	if err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &decoded); err == nil {
		t.Error("Unmarshal should reject invalid CBOR")
	}
}

func TestWellformed(t *testing.T) {
	data, err := Marshal("hello")
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := Wellformed(data); err != nil {
		t.Errorf("Wellformed(valid) = %v", err)
	}
	if err := Wellformed(append(data, 0x01)); err == nil {
		t.Error("Wellformed should reject trailing bytes")
	}
	if err := Wellformed(data[:len(data)-1]); err == nil {
		t.Error("Wellformed should reject truncated input")
	}
}
