// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dana Reiter, Lucerna

package osp

import (
	"encoding/binary"
	"fmt"
)

// Response decoders. Each runs the shared header validation (size, PSI,
// preamble, TID, checksum, in that order) before extracting fields, so a
// corrupt frame reports the first thing wrong with it.

// DecodeInitBidir extracts the result of an INITBIDIR: the address of the
// last node in the chain (from the response header), its raw temperature
// and its status flags.
func DecodeInitBidir(t Telegram) (last Addr, temp, stat uint8, err error) {
	if err = checkResponse(t, TIDInitBidir, 2); err != nil {
		return 0, 0, 0, err
	}
	return t.Addr(), t.Data[3], t.Data[4], nil
}

// DecodeInitLoop extracts the result of an INITLOOP, same shape as
// DecodeInitBidir.
func DecodeInitLoop(t Telegram) (last Addr, temp, stat uint8, err error) {
	if err = checkResponse(t, TIDInitLoop, 2); err != nil {
		return 0, 0, 0, err
	}
	return t.Addr(), t.Data[3], t.Data[4], nil
}

// DecodeIdentify extracts the 32-bit identification word.
func DecodeIdentify(t Telegram) (ID, error) {
	if err := checkResponse(t, TIDIdentify, 4); err != nil {
		return 0, err
	}
	return ID(binary.BigEndian.Uint32(t.Data[3:7])), nil
}

// DecodeReadMult extracts the 15-bit multicast group membership mask.
func DecodeReadMult(t Telegram) (uint16, error) {
	if err := checkResponse(t, TIDReadMult, 2); err != nil {
		return 0, err
	}
	return uint16(t.Data[3])<<8 | uint16(t.Data[4]), nil
}

// DecodeReadLast extracts the size bytes (1-8) the I2C bridge buffered.
// The response payload is always 8 bytes; the data sits at the tail.
func DecodeReadLast(t Telegram, size int) ([]byte, error) {
	if size < 1 || size > 8 {
		return nil, fmt.Errorf("%w: readlast size %d", ErrArg, size)
	}
	if err := checkResponse(t, TIDReadLast, 8); err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	copy(buf, t.Data[11-size:11])
	return buf, nil
}

// DecodeGoActiveSR extracts temperature and status from the serial-cast
// GOACTIVE acknowledgement.
func DecodeGoActiveSR(t Telegram) (temp, stat uint8, err error) {
	if err = checkResponse(t, TIDGoActiveSR, 2); err != nil {
		return 0, 0, err
	}
	return t.Data[3], t.Data[4], nil
}

// DecodeReadStat extracts the status flags.
func DecodeReadStat(t Telegram) (uint8, error) {
	if err := checkResponse(t, TIDReadStat, 1); err != nil {
		return 0, err
	}
	return t.Data[3], nil
}

// DecodeReadTempStat extracts raw temperature and status flags.
func DecodeReadTempStat(t Telegram) (temp, stat uint8, err error) {
	if err = checkResponse(t, TIDReadTempStat, 2); err != nil {
		return 0, 0, err
	}
	return t.Data[3], t.Data[4], nil
}

// DecodeReadComSt extracts the communication status byte.
func DecodeReadComSt(t Telegram) (uint8, error) {
	if err := checkResponse(t, TIDReadComSt, 1); err != nil {
		return 0, err
	}
	return t.Data[3], nil
}

// DecodeReadTemp extracts the raw temperature byte.
func DecodeReadTemp(t Telegram) (uint8, error) {
	if err := checkResponse(t, TIDReadTemp, 1); err != nil {
		return 0, err
	}
	return t.Data[3], nil
}

// DecodeReadSetup extracts the setup flags.
func DecodeReadSetup(t Telegram) (uint8, error) {
	if err := checkResponse(t, TIDReadSetup, 1); err != nil {
		return 0, err
	}
	return t.Data[3], nil
}

// DecodeReadPWM extracts the RGBI PWM settings: 15-bit duty cycles plus
// the 3-bit daytimes mask reassembled from the top bit of each color's
// high byte.
func DecodeReadPWM(t Telegram) (red, green, blue uint16, daytimes uint8, err error) {
	if err = checkResponse(t, TIDReadPWM, 6); err != nil {
		return 0, 0, 0, 0, err
	}
	red = uint16(t.Data[3]&0x7F)<<8 | uint16(t.Data[4])
	green = uint16(t.Data[5]&0x7F)<<8 | uint16(t.Data[6])
	blue = uint16(t.Data[7]&0x7F)<<8 | uint16(t.Data[8])
	daytimes = t.Data[3]>>7<<2 | t.Data[5]>>7<<1 | t.Data[7]>>7
	return red, green, blue, daytimes, nil
}

// DecodeReadPWMChn extracts the SAID per-channel 16-bit duty cycles.
func DecodeReadPWMChn(t Telegram) (red, green, blue uint16, err error) {
	if err = checkResponse(t, TIDReadPWM, 6); err != nil {
		return 0, 0, 0, err
	}
	red = binary.BigEndian.Uint16(t.Data[3:5])
	green = binary.BigEndian.Uint16(t.Data[5:7])
	blue = binary.BigEndian.Uint16(t.Data[7:9])
	return red, green, blue, nil
}

// DecodeReadCurChn extracts the channel current configuration.
func DecodeReadCurChn(t Telegram) (flags, rcur, gcur, bcur uint8, err error) {
	if err = checkResponse(t, TIDReadCurChn, 2); err != nil {
		return 0, 0, 0, 0, err
	}
	return t.Data[3] >> 4, t.Data[3] & 0x0F, t.Data[4] >> 4, t.Data[4] & 0x0F, nil
}

// DecodeReadI2CCfg extracts the I2C bridge flags and speed code.
func DecodeReadI2CCfg(t Telegram) (flags, speed uint8, err error) {
	if err = checkResponse(t, TIDReadI2CCfg, 1); err != nil {
		return 0, 0, err
	}
	return t.Data[3] >> 4, t.Data[3] & 0x0F, nil
}

// DecodeReadOTP extracts size bytes (1-8) of the OTP mirror. The payload
// carries them in reverse order from the frame tail.
func DecodeReadOTP(t Telegram, size int) ([]byte, error) {
	if size < 1 || size > 8 {
		return nil, fmt.Errorf("%w: readotp size %d", ErrArg, size)
	}
	if err := checkResponse(t, TIDReadOTP, 8); err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = t.Data[10-i]
	}
	return buf, nil
}
