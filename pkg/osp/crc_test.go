// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dana Reiter, Lucerna

package osp

import "testing"

func TestChecksumKnownVectors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint8
	}{
		{"empty", nil, 0x00},
		{"reset broadcast header", []byte{0xA0, 0x00, 0x00}, 0x22},
		{"setpwmchn frame", []byte{0xA0, 0x07, 0xCF, 0x00, 0xFF, 0x7F, 0xFF, 0x7F, 0xFF, 0x7F, 0xFF}, 0x74},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum(tt.data); got != tt.want {
				t.Errorf("Checksum() = 0x%02X, want 0x%02X", got, tt.want)
			}
		})
	}
}

func TestChecksumDeterministic(t *testing.T) {
	data := []byte{0xA0, 0x09, 0x02, 0x00, 0x50}
	first := Checksum(data)
	for i := 0; i < 10; i++ {
		if got := Checksum(data); got != first {
			t.Fatalf("Checksum() not deterministic: 0x%02X then 0x%02X", first, got)
		}
	}
}

// Appending the checksum must make the checksum of the whole frame zero;
// that property is what receive-side verification relies on.
func TestChecksumSelfZeroing(t *testing.T) {
	frames := [][]byte{
		{0xA0, 0x00, 0x00},
		{0xA0, 0x07, 0xCF, 0x00, 0xFF, 0x7F, 0xFF, 0x7F, 0xFF, 0x7F, 0xFF},
		{0x00},
		{0xFF, 0xFF, 0xFF, 0xFF},
	}
	for _, frame := range frames {
		full := append(append([]byte(nil), frame...), Checksum(frame))
		if got := Checksum(full); got != 0 {
			t.Errorf("Checksum(% 02X) = 0x%02X, want 0", full, got)
		}
	}
}
