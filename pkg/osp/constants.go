// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dana Reiter, Lucerna

package osp

const (
	// Framing
	Preamble     = 0xA  // high nibble of every telegram's first byte
	MaxFrameSize = 12   // header (3) + payload (up to 8) + checksum (1)
	HeaderSize   = 3
	MaxPayload   = 8

	// CRC-8 (poly 0x2F, init 0x00, MSB first, no final xor)
	crcPolynomial = 0x2F
	crcInitial    = 0x00
)

// Telegram IDs (7-bit, bits [0,7) of header byte 2)
const (
	TIDReset        uint8 = 0x00
	TIDClrError     uint8 = 0x01
	TIDInitBidir    uint8 = 0x02
	TIDInitLoop     uint8 = 0x03
	TIDGoSleep      uint8 = 0x04
	TIDGoActive     uint8 = 0x05
	TIDIdentify     uint8 = 0x07
	TIDReadMult     uint8 = 0x0C
	TIDSetMult      uint8 = 0x0D
	TIDSync         uint8 = 0x0F
	TIDIdle         uint8 = 0x11
	TIDFoundry      uint8 = 0x12
	TIDCust         uint8 = 0x13
	TIDBurn         uint8 = 0x14
	TIDI2CRead      uint8 = 0x18
	TIDI2CWrite     uint8 = 0x19
	TIDReadLast     uint8 = 0x1E
	TIDGoActiveSR   uint8 = 0x25
	TIDReadStat     uint8 = 0x40
	TIDReadTempStat uint8 = 0x42
	TIDReadComSt    uint8 = 0x44
	TIDReadTemp     uint8 = 0x48
	TIDReadSetup    uint8 = 0x4C
	TIDSetSetup     uint8 = 0x4D
	TIDReadPWM      uint8 = 0x4E // also READPWMCHN on SAID (payload selects)
	TIDSetPWM       uint8 = 0x4F // also SETPWMCHN on SAID
	TIDReadCurChn   uint8 = 0x50
	TIDSetCurChn    uint8 = 0x51
	TIDReadI2CCfg   uint8 = 0x56
	TIDSetI2CCfg    uint8 = 0x57
	TIDReadOTP      uint8 = 0x58
	TIDSetOTP       uint8 = 0x59
	TIDSetTestData  uint8 = 0x5B
	TIDSetTestPW    uint8 = 0x5F
)

// STAT flags (READSTAT / READTEMPSTAT second field).
// RGBI and SAID share the low bits; 0x10 and 0x20 differ per device family.
const (
	StatOTPCRC1      uint8 = 0x20 // SAID: OTP CRC error
	StatTestPWOK     uint8 = 0x20 // SAID alias: test password accepted
	StatOV           uint8 = 0x10 // RGBI: over voltage
	StatDirLoop      uint8 = 0x10 // SAID: direction is Loop
	StatCE           uint8 = 0x08 // communication error
	StatLOS          uint8 = 0x04 // LED open or short
	StatOT           uint8 = 0x02 // over temperature
	StatUV           uint8 = 0x01 // under voltage
	StatStateMask    uint8 = 0xC0 // power state in bits [6,8)
	StatStateUninit  uint8 = 0x00
	StatStateSleep   uint8 = 0x40
	StatStateActive  uint8 = 0x80
	StatStateDeepSlp uint8 = 0xC0
)

// SETUP flags (READSETUP / SETSETUP).
const (
	SetupPWMFast   uint8 = 0x80
	SetupClkInv    uint8 = 0x40
	SetupCRCEn     uint8 = 0x20
	SetupTempCk    uint8 = 0x10 // RGBI; SAID uses this bit for OTP check
	SetupCE        uint8 = 0x08
	SetupLOS       uint8 = 0x04
	SetupOT        uint8 = 0x02
	SetupUV        uint8 = 0x01
	SetupDefault   uint8 = 0x33 // typical power-on value
)

// COM status (READCOMST): SIO configuration per side.
const (
	ComSIO1Mask uint8 = 0x30
	ComSIO2Mask uint8 = 0x03
	ComLVDS     uint8 = 0x00
	ComEOL      uint8 = 0x01
	ComMCU      uint8 = 0x02
	ComCAN      uint8 = 0x03
)

// Channel current flags and codes (READCURCHN / SETCURCHN).
const (
	CurChnFlagReserved uint8 = 0x08
	CurChnFlagSyncEn   uint8 = 0x04
	CurChnFlagHybrid   uint8 = 0x02
	CurChnFlagDither   uint8 = 0x01
)

// I2C bridge configuration (READI2CCFG / SETI2CCFG).
const (
	I2CCfgFlagInt   uint8 = 0x08 // INT pin active
	I2CCfgFlag12Bit uint8 = 0x04 // 12-bit addressing mode
	I2CCfgFlagNack  uint8 = 0x02 // last transaction NACKed
	I2CCfgFlagBusy  uint8 = 0x01 // transaction in progress

	I2CCfgSpeedMax     uint8 = 0x01
	I2CCfgSpeedDefault uint8 = 0x0C
	I2CCfgSpeedMin     uint8 = 0x0F
)

const (
	// OTP mirror geometry. The customer area is the only writable window.
	OTPSize         = 0x20
	OTPCustomerFrom = 0x0D
	OTPCustomerTo   = 0x20 // exclusive

	// OTP 0x0D feature bits
	OTPI2CBridgeEn uint8 = 0x01
	OTPSyncPinEn   uint8 = 0x04

	// SAID test password is device-secret; this sentinel marks "not known".
	TestPWUnknown uint64 = 0x0000FFFFFFFFFFFF
)

// sizeToPSI converts a payload byte count to the 3-bit payload size
// indicator carried in the header. Sizes 0-7 map to themselves, 8 to 7.
func sizeToPSI(payloadSize int) uint8 {
	if payloadSize < 8 {
		return uint8(payloadSize)
	}
	return 7
}
