// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dana Reiter, Lucerna

package osp

import "fmt"

// ID is the 32-bit identification word an IDENTIFY response carries:
// 4 bits device type, 10 bits manufacturer, 12 bits part, 6 bits revision.
// Manufacturer and part together (ManuPart) pin down the device family.
type ID uint32

// Known manufacturer/part codes.
const (
	ManuPartRGBI uint32 = 0x000000
	ManuPartSAID uint32 = 0x000001
)

func (id ID) Type() uint8 { return uint8(id >> 28 & 0x0F) }

func (id ID) Manufacturer() uint16 { return uint16(id >> 18 & 0x3FF) }

func (id ID) Part() uint16 { return uint16(id >> 6 & 0xFFF) }

func (id ID) Revision() uint8 { return uint8(id & 0x3F) }

// ManuPart returns the combined 22-bit manufacturer+part code.
func (id ID) ManuPart() uint32 { return uint32(id) >> 6 & 0x3FFFFF }

func (id ID) IsRGBI() bool { return id.ManuPart() == ManuPartRGBI }

func (id ID) IsSAID() bool { return id.ManuPart() == ManuPartSAID }

func (id ID) String() string {
	family := "unknown"
	switch {
	case id.IsRGBI():
		family = "rgbi"
	case id.IsSAID():
		family = "said"
	}
	return fmt.Sprintf("%s(id=0x%08X rev=%d)", family, uint32(id), id.Revision())
}
