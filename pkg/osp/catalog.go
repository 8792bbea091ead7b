// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dana Reiter, Lucerna

package osp

// Kind enumerates the telegram kinds this host implements. Two SAID
// variants (READPWMCHN, SETPWMCHN) share a TID with their RGBI
// counterparts and are distinguished by payload size, so the catalog is
// keyed by Kind rather than by TID.
type Kind int

const (
	KindReset Kind = iota
	KindClrError
	KindInitBidir
	KindInitLoop
	KindGoSleep
	KindGoActive
	KindIdentify
	KindReadMult
	KindSetMult
	KindSync
	KindIdle
	KindFoundry
	KindCust
	KindBurn
	KindI2CRead
	KindI2CWrite
	KindReadLast
	KindGoActiveSR
	KindReadStat
	KindReadTempStat
	KindReadComSt
	KindReadTemp
	KindReadSetup
	KindSetSetup
	KindReadPWM
	KindReadPWMChn
	KindSetPWM
	KindSetPWMChn
	KindReadCurChn
	KindSetCurChn
	KindReadI2CCfg
	KindSetI2CCfg
	KindReadOTP
	KindSetOTP
	KindSetTestData
	KindSetTestPW
	kindCount
)

// kindInfo is one catalog row. Payload is the command payload size in
// bytes (variable for I2CREAD/I2CWRITE, marked -1). RespPayload is -1 for
// fire-and-forget telegrams.
type kindInfo struct {
	name        string
	tid         uint8
	payload     int
	respPayload int
}

var catalog = [kindCount]kindInfo{
	KindReset:        {"reset", TIDReset, 0, -1},
	KindClrError:     {"clrerror", TIDClrError, 0, -1},
	KindInitBidir:    {"initbidir", TIDInitBidir, 0, 2},
	KindInitLoop:     {"initloop", TIDInitLoop, 0, 2},
	KindGoSleep:      {"gosleep", TIDGoSleep, 0, -1},
	KindGoActive:     {"goactive", TIDGoActive, 0, -1},
	KindIdentify:     {"identify", TIDIdentify, 0, 4},
	KindReadMult:     {"readmult", TIDReadMult, 0, 2},
	KindSetMult:      {"setmult", TIDSetMult, 2, -1},
	KindSync:         {"sync", TIDSync, 0, -1},
	KindIdle:         {"idle", TIDIdle, 0, -1},
	KindFoundry:      {"foundry", TIDFoundry, 0, -1},
	KindCust:         {"cust", TIDCust, 0, -1},
	KindBurn:         {"burn", TIDBurn, 0, -1},
	KindI2CRead:      {"i2cread", TIDI2CRead, 3, -1},
	KindI2CWrite:     {"i2cwrite", TIDI2CWrite, -1, -1},
	KindReadLast:     {"readlast", TIDReadLast, 0, 8},
	KindGoActiveSR:   {"goactive_sr", TIDGoActiveSR, 0, 2},
	KindReadStat:     {"readstat", TIDReadStat, 0, 1},
	KindReadTempStat: {"readtempstat", TIDReadTempStat, 0, 2},
	KindReadComSt:    {"readcomst", TIDReadComSt, 0, 1},
	KindReadTemp:     {"readtemp", TIDReadTemp, 0, 1},
	KindReadSetup:    {"readsetup", TIDReadSetup, 0, 1},
	KindSetSetup:     {"setsetup", TIDSetSetup, 1, -1},
	KindReadPWM:      {"readpwm", TIDReadPWM, 0, 6},
	KindReadPWMChn:   {"readpwmchn", TIDReadPWM, 1, 6},
	KindSetPWM:       {"setpwm", TIDSetPWM, 6, -1},
	KindSetPWMChn:    {"setpwmchn", TIDSetPWM, 8, -1},
	KindReadCurChn:   {"readcurchn", TIDReadCurChn, 1, 2},
	KindSetCurChn:    {"setcurchn", TIDSetCurChn, 3, -1},
	KindReadI2CCfg:   {"readi2ccfg", TIDReadI2CCfg, 0, 1},
	KindSetI2CCfg:    {"seti2ccfg", TIDSetI2CCfg, 1, -1},
	KindReadOTP:      {"readotp", TIDReadOTP, 1, 8},
	KindSetOTP:       {"setotp", TIDSetOTP, 8, -1},
	KindSetTestData:  {"settestdata", TIDSetTestData, 2, -1},
	KindSetTestPW:    {"settestpw", TIDSetTestPW, 6, -1},
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "unknown"
	}
	return catalog[k].name
}

// TID returns the 7-bit wire id for the kind.
func (k Kind) TID() uint8 { return catalog[k].tid }

// PayloadSize returns the command payload byte count, or -1 when the
// kind has a variable payload.
func (k Kind) PayloadSize() int { return catalog[k].payload }

// HasResponse reports whether the kind elicits a response telegram.
func (k Kind) HasResponse() bool { return catalog[k].respPayload >= 0 }

// RespSize returns the total response frame size in bytes, or 0 for
// fire-and-forget kinds.
func (k Kind) RespSize() int {
	if !k.HasResponse() {
		return 0
	}
	return HeaderSize + catalog[k].respPayload + 1
}

// KindName names a telegram id for traces. Shared TIDs report the base
// (RGBI) kind since the variant is not recoverable from the id alone.
func KindName(tid uint8) string {
	for k := Kind(0); k < kindCount; k++ {
		if catalog[k].tid == tid {
			return catalog[k].name
		}
	}
	return "unknown"
}
