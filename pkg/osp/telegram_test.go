// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dana Reiter, Lucerna

package osp

import "testing"

func TestSizeToPSI(t *testing.T) {
	tests := []struct {
		size int
		want uint8
	}{
		{0, 0}, {1, 1}, {2, 2}, {3, 3}, {6, 6}, {8, 7},
	}
	for _, tt := range tests {
		if got := sizeToPSI(tt.size); got != tt.want {
			t.Errorf("sizeToPSI(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestTelegramHeaderFields(t *testing.T) {
	tests := []struct {
		name    string
		addr    Addr
		tid     uint8
		payload []byte
	}{
		{"broadcast no payload", AddrBroadcast, TIDReset, nil},
		{"unicast one byte", 0x001, TIDSetSetup, []byte{0x33}},
		{"address straddling both header bytes", 0x15A, TIDReadStat, nil},
		{"group max payload", Group(3), TIDSetOTP, make([]byte, 8)},
		{"last unicast", 0x3EF, TIDIdentify, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tele := newTelegram(tt.addr, tt.tid, tt.payload)
			if got := tele.Addr(); got != tt.addr {
				t.Errorf("Addr() = 0x%03X, want 0x%03X", uint16(got), uint16(tt.addr))
			}
			if got := tele.TID(); got != tt.tid {
				t.Errorf("TID() = 0x%02X, want 0x%02X", got, tt.tid)
			}
			if got := tele.PSI(); got != sizeToPSI(len(tt.payload)) {
				t.Errorf("PSI() = %d, want %d", got, sizeToPSI(len(tt.payload)))
			}
			if tele.Data[0]>>4 != Preamble {
				t.Errorf("preamble nibble = 0x%X", tele.Data[0]>>4)
			}
			if got := tele.Size; got != HeaderSize+len(tt.payload)+1 {
				t.Errorf("Size = %d, want %d", got, HeaderSize+len(tt.payload)+1)
			}
			if Checksum(tele.Bytes()) != 0 {
				t.Error("frame checksum does not self-zero")
			}
		})
	}
}

func TestTelegramFromBytes(t *testing.T) {
	valid := newTelegram(0x001, TIDIdentify, nil).Bytes()
	tele, err := TelegramFromBytes(valid)
	if err != nil {
		t.Fatalf("TelegramFromBytes(valid) error: %v", err)
	}
	if tele.Size != len(valid) {
		t.Errorf("Size = %d, want %d", tele.Size, len(valid))
	}

	for _, n := range []int{0, 1, 3, 13, 20} {
		if _, err := TelegramFromBytes(make([]byte, n)); err == nil {
			t.Errorf("TelegramFromBytes accepted %d-byte frame", n)
		}
	}
}
