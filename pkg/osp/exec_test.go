// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dana Reiter, Lucerna

package osp

import (
	"bytes"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// tidOf extracts the telegram id from a raw frame.
func tidOf(frame []byte) uint8 { return frame[2] & 0x7F }

// otpResp builds a READOTP response delivering buf (8 bytes); the payload
// carries the mirror bytes reversed.
func otpResp(addr Addr, buf []byte) Telegram {
	payload := make([]byte, 8)
	for i, b := range buf {
		payload[7-i] = b
	}
	return makeResp(addr, TIDReadOTP, payload)
}

// i2cCfgResp builds a READI2CCFG response with the given flags and speed.
func i2cCfgResp(addr Addr, flags, speed uint8) Telegram {
	return makeResp(addr, TIDReadI2CCfg, []byte{flags<<4 | speed})
}

func TestResetInitLoop(t *testing.T) {
	tr := &mockTransport{}
	tr.handle = func(frame []byte, respLen int) ([]byte, error) {
		if tidOf(frame) != TIDInitLoop {
			t.Errorf("unexpected request tid 0x%02X", tidOf(frame))
		}
		return makeResp(0x005, TIDInitLoop, []byte{0x60, 0x80}).Bytes(), nil
	}
	c := NewClient(tr)

	last, loop, err := c.ResetInit()
	if err != nil {
		t.Fatalf("ResetInit() error: %v", err)
	}
	if last != 0x005 || !loop {
		t.Errorf("got last=0x%03X loop=%v, want 0x005 loop", uint16(last), loop)
	}
	if c.LastAddr() != 0x005 {
		t.Errorf("LastAddr() = 0x%03X, want 0x005", uint16(c.LastAddr()))
	}
	if len(tr.dirs) != 1 || tr.dirs[0] != DirectionLoop {
		t.Errorf("directions = %v, want [loop]", tr.dirs)
	}
	frames := tr.frames()
	if len(frames) != 2 || tidOf(frames[0]) != TIDReset || tidOf(frames[1]) != TIDInitLoop {
		t.Errorf("frame sequence wrong: %v", frames)
	}
}

func TestResetInitFallsBackToBidir(t *testing.T) {
	tr := &mockTransport{}
	tr.handle = func(frame []byte, respLen int) ([]byte, error) {
		if tidOf(frame) == TIDInitLoop {
			return nil, ErrNoResponse
		}
		return makeResp(0x003, TIDInitBidir, []byte{0x60, 0x80}).Bytes(), nil
	}
	c := NewClient(tr)

	last, loop, err := c.ResetInit()
	if err != nil {
		t.Fatalf("ResetInit() error: %v", err)
	}
	if last != 0x003 || loop {
		t.Errorf("got last=0x%03X loop=%v, want 0x003 bidir", uint16(last), loop)
	}
	if len(tr.dirs) != 2 || tr.dirs[0] != DirectionLoop || tr.dirs[1] != DirectionBiDir {
		t.Errorf("directions = %v, want [loop bidir]", tr.dirs)
	}
}

func TestResetInitCabling(t *testing.T) {
	tr := &mockTransport{} // nil handler: nothing ever answers
	c := NewClient(tr)
	_, _, err := c.ResetInit()
	if !errors.Is(err, ErrCabling) {
		t.Errorf("error = %v, want ErrCabling", err)
	}
}

func TestResetInitOtherErrorsPassThrough(t *testing.T) {
	boom := errors.New("bridge detached")
	tr := &mockTransport{}
	tr.handle = func(frame []byte, respLen int) ([]byte, error) {
		return nil, boom
	}
	c := NewClient(tr)
	_, _, err := c.ResetInit()
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want the transport error", err)
	}
}

func TestOTPDump(t *testing.T) {
	image := make([]byte, OTPSize)
	for i := range image {
		image[i] = byte(i * 3)
	}
	core, logs := observer.New(zap.InfoLevel)
	tr := &mockTransport{}
	tr.handle = func(frame []byte, respLen int) ([]byte, error) {
		offset := int(frame[3])
		return otpResp(0x001, image[offset:offset+8]).Bytes(), nil
	}
	c := NewClient(tr, WithLogger(zap.New(core)), WithLogLevel(LogBytes))

	otp, err := c.OTPDump(0x001)
	if err != nil {
		t.Fatalf("OTPDump() error: %v", err)
	}
	if !bytes.Equal(otp, image) {
		t.Errorf("otp = % 02X, want the full mirror image", otp)
	}
	if logs.Len() != 0 {
		t.Errorf("dump traced %d lines, want muted", logs.Len())
	}
	if c.LogLevel() != LogBytes {
		t.Errorf("log level not restored: %v", c.LogLevel())
	}
}

func TestSetOTPBits(t *testing.T) {
	tr := &mockTransport{}
	tr.handle = func(frame []byte, respLen int) ([]byte, error) {
		return otpResp(0x001, []byte{0xF0, 1, 2, 3, 4, 5, 6, 7}).Bytes(), nil
	}
	c := NewClient(tr, WithTestPassword(0x0000CAFE))

	if err := c.SetOTPBits(0x001, 0x0D, 0x01, 0x0F); err != nil {
		t.Fatalf("SetOTPBits() error: %v", err)
	}
	frames := tr.frames()
	wantTIDs := []uint8{TIDSetTestPW, TIDReadOTP, TIDSetOTP, TIDSetTestPW}
	if len(frames) != len(wantTIDs) {
		t.Fatalf("sent %d frames, want %d", len(frames), len(wantTIDs))
	}
	for i, want := range wantTIDs {
		if tidOf(frames[i]) != want {
			t.Errorf("frame %d tid = 0x%02X, want 0x%02X", i, tidOf(frames[i]), want)
		}
	}
	// the stored password goes out first, little endian
	if !bytes.Equal(frames[0][3:9], []byte{0xFE, 0xCA, 0x00, 0x00, 0x00, 0x00}) {
		t.Errorf("password payload = % 02X", frames[0][3:9])
	}
	// patched byte: (0xF0 & 0x0F) | 0x01, written reversed with addr last
	setotp := frames[2]
	if setotp[9] != 0x01 || setotp[10] != 0x0D {
		t.Errorf("setotp payload = % 02X, want patched byte 01 at mirror 0D", setotp[3:11])
	}
	// the final telegram clears the password again
	if !bytes.Equal(frames[3][3:9], make([]byte, 6)) {
		t.Errorf("password not cleared: % 02X", frames[3][3:9])
	}
}

func TestSetOTPBitsClearsPasswordOnFailure(t *testing.T) {
	tr := &mockTransport{} // READOTP gets no response
	c := NewClient(tr, WithTestPassword(0x0000CAFE))

	err := c.SetOTPBits(0x001, 0x0D, 0x01, 0xFF)
	if !errors.Is(err, ErrNoResponse) {
		t.Fatalf("error = %v, want ErrNoResponse", err)
	}
	frames := tr.frames()
	lastFrame := frames[len(frames)-1]
	if tidOf(lastFrame) != TIDSetTestPW || !bytes.Equal(lastFrame[3:9], make([]byte, 6)) {
		t.Errorf("device left authenticated, last frame % 02X", lastFrame)
	}
}

func TestSetOTPBitsRejectsOutsideCustomerArea(t *testing.T) {
	tr := &mockTransport{}
	c := NewClient(tr)
	for _, otpaddr := range []uint8{0x00, 0x0C, 0x20} {
		if err := c.SetOTPBits(0x001, otpaddr, 0x01, 0xFF); !errors.Is(err, ErrArg) {
			t.Errorf("otpaddr 0x%02X: error = %v, want ErrArg", otpaddr, err)
		}
	}
	if len(tr.frames()) != 0 {
		t.Error("rejected address still hit the bus")
	}
}

func TestI2CEnable(t *testing.T) {
	tr := &mockTransport{}
	tr.handle = func(frame []byte, respLen int) ([]byte, error) {
		return otpResp(0x001, []byte{OTPI2CBridgeEn, 0, 0, 0, 0, 0, 0, 0}).Bytes(), nil
	}
	c := NewClient(tr)

	enabled, err := c.I2CEnableGet(0x001)
	if err != nil {
		t.Fatalf("I2CEnableGet() error: %v", err)
	}
	if !enabled {
		t.Error("bridge bit set but reported disabled")
	}
	syncEn, err := c.SyncPinEnableGet(0x001)
	if err != nil {
		t.Fatalf("SyncPinEnableGet() error: %v", err)
	}
	if syncEn {
		t.Error("sync bit clear but reported enabled")
	}
}

func TestI2CPower(t *testing.T) {
	t.Run("not a said", func(t *testing.T) {
		tr := &mockTransport{handle: respondWith(makeResp(0x001, TIDIdentify, []byte{0, 0, 0, 1}))}
		c := NewClient(tr)
		if err := c.I2CPower(0x001); !errors.Is(err, ErrNotSAID) {
			t.Errorf("error = %v, want ErrNotSAID", err)
		}
	})

	t.Run("bridge disabled", func(t *testing.T) {
		tr := &mockTransport{}
		tr.handle = func(frame []byte, respLen int) ([]byte, error) {
			if tidOf(frame) == TIDIdentify {
				return makeResp(0x001, TIDIdentify, []byte{0, 0, 0, 0x40}).Bytes(), nil
			}
			return otpResp(0x001, make([]byte, 8)).Bytes(), nil
		}
		c := NewClient(tr)
		if err := c.I2CPower(0x001); !errors.Is(err, ErrNoI2CBridge) {
			t.Errorf("error = %v, want ErrNoI2CBridge", err)
		}
	})

	t.Run("powers channel 2", func(t *testing.T) {
		tr := &mockTransport{}
		tr.handle = func(frame []byte, respLen int) ([]byte, error) {
			if tidOf(frame) == TIDIdentify {
				return makeResp(0x001, TIDIdentify, []byte{0, 0, 0, 0x40}).Bytes(), nil
			}
			return otpResp(0x001, []byte{OTPI2CBridgeEn, 0, 0, 0, 0, 0, 0, 0}).Bytes(), nil
		}
		c := NewClient(tr)
		if err := c.I2CPower(0x001); err != nil {
			t.Fatalf("I2CPower() error: %v", err)
		}
		frames := tr.frames()
		last := frames[len(frames)-1]
		if tidOf(last) != TIDSetCurChn || !bytes.Equal(last[3:6], []byte{0x02, 0x04, 0x44}) {
			t.Errorf("final frame = % 02X, want setcurchn chn 2", last)
		}
	})
}

func TestI2CWrite8(t *testing.T) {
	t.Run("waits out busy", func(t *testing.T) {
		polls := 0
		tr := &mockTransport{}
		tr.handle = func(frame []byte, respLen int) ([]byte, error) {
			polls++
			flags := I2CCfgFlagBusy
			if polls >= 3 {
				flags = 0
			}
			return i2cCfgResp(0x001, flags, I2CCfgSpeedDefault).Bytes(), nil
		}
		c := NewClient(tr)
		if err := c.I2CWrite8(0x001, 0x50, 0x10, []byte{0xAA}); err != nil {
			t.Fatalf("I2CWrite8() error: %v", err)
		}
		if polls != 3 {
			t.Errorf("polled %d times, want 3", polls)
		}
	})

	t.Run("nack", func(t *testing.T) {
		tr := &mockTransport{handle: respondWith(i2cCfgResp(0x001, I2CCfgFlagNack, I2CCfgSpeedDefault))}
		c := NewClient(tr)
		if err := c.I2CWrite8(0x001, 0x50, 0x10, []byte{0xAA}); !errors.Is(err, ErrI2CNack) {
			t.Errorf("error = %v, want ErrI2CNack", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		polls := 0
		tr := &mockTransport{}
		tr.handle = func(frame []byte, respLen int) ([]byte, error) {
			polls++
			return i2cCfgResp(0x001, I2CCfgFlagBusy, I2CCfgSpeedDefault).Bytes(), nil
		}
		c := NewClient(tr)
		if err := c.I2CWrite8(0x001, 0x50, 0x10, []byte{0xAA}); !errors.Is(err, ErrI2CTimeout) {
			t.Errorf("error = %v, want ErrI2CTimeout", err)
		}
		if polls != i2cPollTries {
			t.Errorf("polled %d times, want %d", polls, i2cPollTries)
		}
	})
}

func TestI2CRead8(t *testing.T) {
	tr := &mockTransport{}
	tr.handle = func(frame []byte, respLen int) ([]byte, error) {
		switch tidOf(frame) {
		case TIDReadI2CCfg:
			return i2cCfgResp(0x001, 0, I2CCfgSpeedDefault).Bytes(), nil
		case TIDReadLast:
			return makeResp(0x001, TIDReadLast, []byte{0, 0, 0, 0, 0, 0x12, 0x34, 0x56}).Bytes(), nil
		}
		t.Errorf("unexpected request tid 0x%02X", tidOf(frame))
		return nil, ErrNoResponse
	}
	c := NewClient(tr)

	buf, err := c.I2CRead8(0x001, 0x50, 0x10, 3)
	if err != nil {
		t.Fatalf("I2CRead8() error: %v", err)
	}
	if !bytes.Equal(buf, []byte{0x12, 0x34, 0x56}) {
		t.Errorf("buf = % 02X, want 12 34 56", buf)
	}
	if tidOf(tr.frames()[0]) != TIDI2CRead {
		t.Errorf("first frame tid = 0x%02X, want i2cread", tidOf(tr.frames()[0]))
	}
}
