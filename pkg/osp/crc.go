// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dana Reiter, Lucerna

package osp

// Checksum computes the CRC-8 used by OSP telegrams (polynomial 0x2F,
// initial value 0x00, MSB first, no final xor). Appending the checksum to
// the data it covers makes the CRC over the whole frame zero, which is how
// received frames are verified.
func Checksum(data []byte) uint8 {
	crc := uint8(crcInitial)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
