// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dana Reiter, Lucerna

package osp

import (
	"errors"
	"fmt"
	"time"
)

// High-level helpers composing multiple telegram exchanges.

const (
	resetSettle  = 150 * time.Microsecond
	i2cPollTries = 10
	i2cPollDelay = time.Millisecond
)

// ResetInit resets the chain and assigns addresses, auto-detecting the
// wiring: it first tries Loop mode (responses travel forward around the
// chain) and, when no response comes back, retries in BiDir mode. If the
// transport can switch the direction mux (DirectionSetter) it is told
// before each attempt. Returns the last assigned address and whether the
// chain runs in Loop mode; when neither direction yields a response the
// error is ErrCabling.
func (c *Client) ResetInit() (last Addr, loop bool, err error) {
	last, err = c.resetInitDir(DirectionLoop)
	if err == nil {
		return last, true, nil
	}
	if !errors.Is(err, ErrNoResponse) {
		return 0, false, err
	}
	last, err = c.resetInitDir(DirectionBiDir)
	if err == nil {
		return last, false, nil
	}
	if errors.Is(err, ErrNoResponse) {
		return 0, false, ErrCabling
	}
	return 0, false, err
}

func (c *Client) resetInitDir(dir Direction) (Addr, error) {
	if err := c.Reset(AddrBroadcast); err != nil {
		return 0, err
	}
	time.Sleep(resetSettle)
	if ds, ok := c.tr.(DirectionSetter); ok {
		if err := ds.SetDirection(dir); err != nil {
			return 0, err
		}
	}
	var last Addr
	var err error
	if dir == DirectionLoop {
		last, _, _, err = c.InitLoop(AddrUnicastMin)
	} else {
		last, _, _, err = c.InitBidir(AddrUnicastMin)
	}
	if err != nil {
		return 0, err
	}
	c.cfgMu.Lock()
	c.lastAddr = last
	c.cfgMu.Unlock()
	return last, nil
}

// LastAddr returns the highest address assigned by the most recent
// ResetInit, or 0 when the chain has not been initialized.
func (c *Client) LastAddr() Addr {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	return c.lastAddr
}

// OTPDump reads the full 32-byte OTP mirror of a SAID in 8-byte steps.
// Tracing is muted for the duration so a dump does not flood the log,
// and restored afterwards.
func (c *Client) OTPDump(addr Addr) ([]byte, error) {
	prev := c.SetLogLevel(LogNone)
	defer c.SetLogLevel(prev)

	otp := make([]byte, OTPSize)
	for offset := 0; offset < OTPSize; offset += 8 {
		buf, err := c.ReadOTP(addr, uint8(offset), 8)
		if err != nil {
			return nil, err
		}
		copy(otp[offset:], buf)
	}
	return otp, nil
}

// SetOTPBits patches one byte of the OTP mirror's customer area
// (0x0D-0x1F): the byte at otpaddr becomes (old & andmask) | ormask.
// The stored test password is presented first and always cleared again on
// every exit path, success or failure, so a failed exchange never leaves
// the device authenticated.
func (c *Client) SetOTPBits(addr Addr, otpaddr, ormask, andmask uint8) (err error) {
	if otpaddr < OTPCustomerFrom || otpaddr >= OTPCustomerTo {
		return fmt.Errorf("%w: otp address 0x%02X outside customer area", ErrArg, otpaddr)
	}
	if err = c.SetTestPW(addr, c.TestPassword()); err != nil {
		return err
	}
	defer func() {
		clrErr := c.SetTestPW(addr, 0)
		if err == nil {
			err = clrErr
		}
	}()

	buf, err := c.ReadOTP(addr, otpaddr, 8)
	if err != nil {
		return err
	}
	buf[0] = buf[0]&andmask | ormask
	return c.SetOTP(addr, otpaddr, buf[:7])
}

// I2CEnableGet reads whether the SAID's I2C bridge function is enabled in
// the OTP mirror.
func (c *Client) I2CEnableGet(addr Addr) (bool, error) {
	buf, err := c.ReadOTP(addr, OTPCustomerFrom, 1)
	if err != nil {
		return false, err
	}
	return buf[0]&OTPI2CBridgeEn != 0, nil
}

// I2CEnableSet flips the I2C bridge enable bit in the OTP mirror.
func (c *Client) I2CEnableSet(addr Addr, enable bool) error {
	if enable {
		return c.SetOTPBits(addr, OTPCustomerFrom, OTPI2CBridgeEn, 0xFF)
	}
	return c.SetOTPBits(addr, OTPCustomerFrom, 0x00, ^OTPI2CBridgeEn)
}

// SyncPinEnableGet reads whether the SAID's sync pin function is enabled
// in the OTP mirror.
func (c *Client) SyncPinEnableGet(addr Addr) (bool, error) {
	buf, err := c.ReadOTP(addr, OTPCustomerFrom, 1)
	if err != nil {
		return false, err
	}
	return buf[0]&OTPSyncPinEn != 0, nil
}

// SyncPinEnableSet flips the sync pin enable bit in the OTP mirror.
func (c *Client) SyncPinEnableSet(addr Addr, enable bool) error {
	if enable {
		return c.SetOTPBits(addr, OTPCustomerFrom, OTPSyncPinEn, 0xFF)
	}
	return c.SetOTPBits(addr, OTPCustomerFrom, 0x00, ^OTPSyncPinEn)
}

// I2CPower powers the I2C bus hanging off a SAID's channel 2. The node
// must identify as a SAID (ErrNotSAID otherwise) and have the bridge
// enabled in OTP (ErrNoI2CBridge otherwise); the channel current is then
// configured to feed the bus pull-ups.
func (c *Client) I2CPower(addr Addr) error {
	id, err := c.Identify(addr)
	if err != nil {
		return err
	}
	if !id.IsSAID() {
		return fmt.Errorf("%w: %s", ErrNotSAID, id)
	}
	enabled, err := c.I2CEnableGet(addr)
	if err != nil {
		return err
	}
	if !enabled {
		return ErrNoI2CBridge
	}
	return c.SetCurChn(addr, 2, 0, 4, 4, 4)
}

// i2cFinish polls the bridge until the running transaction completes,
// then maps the NACK flag. Polling is bounded; a bridge still busy after
// i2cPollTries rounds reports ErrI2CTimeout.
func (c *Client) i2cFinish(addr Addr) error {
	var flags uint8
	var err error
	for try := 0; try < i2cPollTries; try++ {
		flags, _, err = c.ReadI2CCfg(addr)
		if err != nil {
			return err
		}
		if flags&I2CCfgFlagBusy == 0 {
			if flags&I2CCfgFlagNack != 0 {
				return ErrI2CNack
			}
			return nil
		}
		time.Sleep(i2cPollDelay)
	}
	return ErrI2CTimeout
}

// I2CWrite8 writes buf to an 8-bit register of an I2C device behind the
// SAID's bridge and waits for the transaction to complete.
func (c *Client) I2CWrite8(addr Addr, daddr7, raddr uint8, buf []byte) error {
	if err := c.I2CWrite(addr, daddr7, raddr, buf); err != nil {
		return err
	}
	return c.i2cFinish(addr)
}

// I2CRead8 reads count bytes from an 8-bit register of an I2C device
// behind the SAID's bridge, waiting for completion and fetching the bytes
// with READLAST.
func (c *Client) I2CRead8(addr Addr, daddr7, raddr uint8, count int) ([]byte, error) {
	if err := c.I2CRead(addr, daddr7, raddr, count); err != nil {
		return nil, err
	}
	if err := c.i2cFinish(addr); err != nil {
		return nil, err
	}
	return c.ReadLast(addr, count)
}
