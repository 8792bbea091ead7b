// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dana Reiter, Lucerna

// Package osp implements the host side of the Open System Protocol used by
// daisy-chained addressable LED driver chips (RGBI drivers and SAID
// channel drivers). It provides the telegram codec (header packing, CRC,
// per-kind encoders and decoders), an exchange client that runs telegrams
// over an injected transport, and higher-level helpers for chain
// initialization, OTP access and the SAID I2C bridge.
package osp

import (
	"encoding/hex"
	"fmt"
)

// Telegram is one OSP frame: a 3-byte header, up to 8 payload bytes and a
// trailing checksum. The backing array is fixed size; Size says how many
// bytes are meaningful.
type Telegram struct {
	Data [MaxFrameSize]byte
	Size int
}

// Bytes returns the wire representation of the telegram.
func (t Telegram) Bytes() []byte {
	return t.Data[:t.Size]
}

// TID returns the 7-bit telegram id from the header.
func (t Telegram) TID() uint8 {
	return t.Data[2] & 0x7F
}

// Addr returns the 10-bit destination (or, on responses, source) address.
func (t Telegram) Addr() Addr {
	return Addr(t.Data[0]&0x0F)<<6 | Addr(t.Data[1]>>2)
}

// PSI returns the 3-bit payload size indicator from the header.
func (t Telegram) PSI() uint8 {
	return (t.Data[1]&0x03)<<1 | t.Data[2]>>7
}

func (t Telegram) String() string {
	return fmt.Sprintf("%s %s", KindName(t.TID()), hex.EncodeToString(t.Bytes()))
}

// newTelegram packs the header for the given destination, payload and id,
// copies the payload in and seals the frame with its checksum.
func newTelegram(addr Addr, tid uint8, payload []byte) Telegram {
	var t Telegram
	psi := sizeToPSI(len(payload))
	t.Data[0] = Preamble<<4 | uint8(addr>>6)&0x0F
	t.Data[1] = uint8(addr&0x3F)<<2 | psi>>1
	t.Data[2] = (psi&0x01)<<7 | tid
	copy(t.Data[HeaderSize:], payload)
	t.Size = HeaderSize + len(payload) + 1
	t.Data[t.Size-1] = Checksum(t.Data[:t.Size-1])
	return t
}

// TelegramFromBytes wraps raw received bytes in a Telegram. Only the frame
// length is checked here; field validation happens in the decoders.
func TelegramFromBytes(raw []byte) (Telegram, error) {
	var t Telegram
	if len(raw) < HeaderSize+1 || len(raw) > MaxFrameSize {
		return t, fmt.Errorf("%w: frame of %d bytes", ErrSize, len(raw))
	}
	copy(t.Data[:], raw)
	t.Size = len(raw)
	return t, nil
}

// checkResponse runs the shared fail-fast validation every response
// decoder starts with: total size, PSI consistency, preamble, telegram id
// and finally the checksum. The first failure wins.
func checkResponse(t Telegram, tid uint8, payloadSize int) error {
	if t.Size != HeaderSize+payloadSize+1 {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrSize, t.Size, HeaderSize+payloadSize+1)
	}
	if t.PSI() != sizeToPSI(payloadSize) {
		return fmt.Errorf("%w: psi %d for %d payload bytes", ErrPSI, t.PSI(), payloadSize)
	}
	if t.Data[0]>>4 != Preamble {
		return fmt.Errorf("%w: first byte 0x%02X", ErrPreamble, t.Data[0])
	}
	if t.TID() != tid {
		return fmt.Errorf("%w: got 0x%02X, want 0x%02X", ErrTID, t.TID(), tid)
	}
	if Checksum(t.Data[:t.Size]) != 0 {
		return fmt.Errorf("%w: residue 0x%02X", ErrCRC, Checksum(t.Data[:t.Size]))
	}
	return nil
}
