// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dana Reiter, Lucerna

package osp

// Addr is a 10-bit OSP destination address.
//
// 0x000 broadcasts to every node, 0x001-0x3EF address a single node by its
// chain position, and 0x3F0-0x3FE address the 15 multicast groups. 0x3FF is
// never valid on the wire; Group returns it for out-of-range group numbers
// so the error surfaces in the encoder rather than on the bus.
type Addr uint16

const (
	AddrBroadcast  Addr = 0x000
	AddrUnicastMin Addr = 0x001
	AddrUnicastMax Addr = 0x3EF
	AddrGroupMin   Addr = 0x3F0
	AddrGroupMax   Addr = 0x3FE
	AddrUninit     Addr = 0x3FF

	GroupCount = 15
)

// Group returns the address of multicast group n (0-14).
func Group(n int) Addr {
	if n < 0 || n >= GroupCount {
		return AddrUninit
	}
	return AddrGroupMin + Addr(n)
}

func (a Addr) IsBroadcast() bool { return a == AddrBroadcast }

func (a Addr) IsUnicast() bool { return a >= AddrUnicastMin && a <= AddrUnicastMax }

func (a Addr) IsGroup() bool { return a >= AddrGroupMin && a <= AddrGroupMax }

// IsValid reports whether a may appear as a telegram destination.
func (a Addr) IsValid() bool {
	return a.IsBroadcast() || a.IsUnicast() || a.IsGroup()
}
