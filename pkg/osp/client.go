// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dana Reiter, Lucerna

package osp

import (
	"encoding/hex"
	"sync"

	"go.uber.org/zap"
)

// Direction selects how responses travel back to the host.
type Direction int

const (
	DirectionLoop  Direction = iota // responses continue forward around the chain
	DirectionBiDir                  // responses return over the first node
)

func (d Direction) String() string {
	if d == DirectionLoop {
		return "loop"
	}
	return "bidir"
}

// Transport moves raw telegram frames to and from the chain. Send is
// fire-and-forget; SendReceive expects exactly respLen response bytes and
// returns ErrNoResponse (possibly wrapped) when nothing comes back.
type Transport interface {
	Send(frame []byte) error
	SendReceive(frame []byte, respLen int) ([]byte, error)
}

// DirectionSetter is implemented by transports whose bridge hardware can
// switch the response direction mux. ResetInit uses it when available.
type DirectionSetter interface {
	SetDirection(Direction) error
}

// LogLevel controls how much each exchange traces.
type LogLevel int

const (
	LogNone  LogLevel = iota // no tracing
	LogArgs                  // one line per exchange: kind, address, args, results
	LogBytes                 // LogArgs plus raw TX/RX frame bytes
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the trace logger. The default discards everything.
func WithLogger(log *zap.Logger) Option { return func(c *Client) { c.log = log } }

// WithLogLevel sets the initial trace level.
func WithLogLevel(level LogLevel) Option { return func(c *Client) { c.level = level } }

// WithTestPassword seeds the SAID test password used by the OTP helpers.
func WithTestPassword(pw uint64) Option { return func(c *Client) { c.testPW = pw } }

// WithJournal attaches an exchange journal; every exchange is recorded
// regardless of log level.
func WithJournal(j *Journal) Option { return func(c *Client) { c.journal = j } }

// Client runs telegram exchanges over a Transport. All configuration
// (logger, trace level, test password) lives on the client; two clients on
// different buses do not share state. Exchanges are serialized, so a
// Client is safe for concurrent use.
type Client struct {
	tr      Transport
	log     *zap.Logger
	journal *Journal

	mu sync.Mutex // serializes bus exchanges

	cfgMu  sync.Mutex
	level  LogLevel
	testPW uint64

	lastAddr Addr // highest address assigned by the most recent ResetInit
}

// NewClient returns a Client driving the given transport.
func NewClient(tr Transport, opts ...Option) *Client {
	c := &Client{
		tr:     tr,
		log:    zap.NewNop(),
		level:  LogNone,
		testPW: TestPWUnknown,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LogLevel returns the current trace level.
func (c *Client) LogLevel() LogLevel {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	return c.level
}

// SetLogLevel changes the trace level and returns the previous one.
func (c *Client) SetLogLevel(level LogLevel) LogLevel {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	prev := c.level
	c.level = level
	return prev
}

// TestPassword returns the stored SAID test password (TestPWUnknown when
// none has been provided).
func (c *Client) TestPassword() uint64 {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	return c.testPW
}

// SetTestPassword stores the SAID test password for the OTP helpers.
func (c *Client) SetTestPassword(pw uint64) {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	c.testPW = pw
}

// trace emits the one-line exchange trace and feeds the journal. Tracing
// never changes the outcome of an exchange.
func (c *Client) trace(op string, err error, tx, rx []byte, fields []zap.Field) {
	if c.journal != nil {
		c.journal.Record(op, tx, rx, err)
	}
	level := c.LogLevel()
	if level == LogNone {
		return
	}
	if level >= LogBytes {
		fields = append(fields, zap.String("tx", hex.EncodeToString(tx)))
		if rx != nil {
			fields = append(fields, zap.String("rx", hex.EncodeToString(rx)))
		}
	}
	if err != nil {
		c.log.Warn(op, append(fields, zap.Error(err))...)
		return
	}
	c.log.Info(op, fields...)
}

// cast runs a fire-and-forget exchange: construct already happened in the
// encoder (encErr), transfer is a bare Send.
func (c *Client) cast(op string, tele Telegram, encErr error, fields ...zap.Field) error {
	if encErr != nil {
		err := phaseErr(op, PhaseConstruct, encErr)
		c.trace(op, err, nil, nil, fields)
		return err
	}
	c.mu.Lock()
	sendErr := c.tr.Send(tele.Bytes())
	c.mu.Unlock()
	err := phaseErr(op, PhaseTransfer, sendErr)
	c.trace(op, err, tele.Bytes(), nil, fields)
	return err
}

// request runs a request-response exchange. decode validates the response
// frame and may return extra fields for the trace line; its error is
// tagged as the destruct phase.
func (c *Client) request(op string, kind Kind, tele Telegram, encErr error,
	decode func(Telegram) ([]zap.Field, error), fields ...zap.Field) error {

	if encErr != nil {
		err := phaseErr(op, PhaseConstruct, encErr)
		c.trace(op, err, nil, nil, fields)
		return err
	}
	c.mu.Lock()
	raw, trErr := c.tr.SendReceive(tele.Bytes(), kind.RespSize())
	c.mu.Unlock()
	if trErr != nil {
		err := phaseErr(op, PhaseTransfer, trErr)
		c.trace(op, err, tele.Bytes(), raw, fields)
		return err
	}
	resp, frErr := TelegramFromBytes(raw)
	if frErr != nil {
		err := phaseErr(op, PhaseDestruct, frErr)
		c.trace(op, err, tele.Bytes(), raw, fields)
		return err
	}
	extra, decErr := decode(resp)
	if decErr != nil {
		err := phaseErr(op, PhaseDestruct, decErr)
		c.trace(op, err, tele.Bytes(), raw, fields)
		return err
	}
	c.trace(op, nil, tele.Bytes(), raw, append(fields, extra...))
	return nil
}

func addrField(addr Addr) zap.Field {
	return zap.Uint16("addr", uint16(addr))
}

// Reset returns the addressed nodes to their power-on state. After a
// broadcast reset the chain has no addresses until the next init telegram.
func (c *Client) Reset(addr Addr) error {
	tele, err := EncodeReset(addr)
	return c.cast("reset", tele, err, addrField(addr))
}

// ClrError clears the latched error flags of the addressed nodes.
func (c *Client) ClrError(addr Addr) error {
	tele, err := EncodeClrError(addr)
	return c.cast("clrerror", tele, err, addrField(addr))
}

// InitBidir starts address assignment at addr with responses returning
// over the first node. It reports the last assigned address plus the last
// node's raw temperature and status.
func (c *Client) InitBidir(addr Addr) (last Addr, temp, stat uint8, err error) {
	tele, encErr := EncodeInitBidir(addr)
	err = c.request("initbidir", KindInitBidir, tele, encErr, func(resp Telegram) ([]zap.Field, error) {
		var derr error
		last, temp, stat, derr = DecodeInitBidir(resp)
		return []zap.Field{zap.Uint16("last", uint16(last)), zap.Uint8("temp", temp), zap.Uint8("stat", stat)}, derr
	}, addrField(addr))
	return last, temp, stat, err
}

// InitLoop starts address assignment at addr with responses continuing
// forward around the loop. Same result shape as InitBidir.
func (c *Client) InitLoop(addr Addr) (last Addr, temp, stat uint8, err error) {
	tele, encErr := EncodeInitLoop(addr)
	err = c.request("initloop", KindInitLoop, tele, encErr, func(resp Telegram) ([]zap.Field, error) {
		var derr error
		last, temp, stat, derr = DecodeInitLoop(resp)
		return []zap.Field{zap.Uint16("last", uint16(last)), zap.Uint8("temp", temp), zap.Uint8("stat", stat)}, derr
	}, addrField(addr))
	return last, temp, stat, err
}

// GoSleep turns the addressed nodes' drivers off, keeping settings.
func (c *Client) GoSleep(addr Addr) error {
	tele, err := EncodeGoSleep(addr)
	return c.cast("gosleep", tele, err, addrField(addr))
}

// GoActive turns the addressed nodes' drivers on.
func (c *Client) GoActive(addr Addr) error {
	tele, err := EncodeGoActive(addr)
	return c.cast("goactive", tele, err, addrField(addr))
}

// Identify reads the identification word of the addressed node.
func (c *Client) Identify(addr Addr) (id ID, err error) {
	tele, encErr := EncodeIdentify(addr)
	err = c.request("identify", KindIdentify, tele, encErr, func(resp Telegram) ([]zap.Field, error) {
		var derr error
		id, derr = DecodeIdentify(resp)
		return []zap.Field{zap.Stringer("id", id)}, derr
	}, addrField(addr))
	return id, err
}

// ReadMult reads the node's multicast group membership mask.
func (c *Client) ReadMult(addr Addr) (groups uint16, err error) {
	tele, encErr := EncodeReadMult(addr)
	err = c.request("readmult", KindReadMult, tele, encErr, func(resp Telegram) ([]zap.Field, error) {
		var derr error
		groups, derr = DecodeReadMult(resp)
		return []zap.Field{zap.Uint16("groups", groups)}, derr
	}, addrField(addr))
	return groups, err
}

// SetMult sets the node's multicast group membership mask.
func (c *Client) SetMult(addr Addr, groups uint16) error {
	tele, err := EncodeSetMult(addr, groups)
	return c.cast("setmult", tele, err, addrField(addr), zap.Uint16("groups", groups))
}

// Sync applies buffered PWM settings on nodes configured for sync.
func (c *Client) Sync(addr Addr) error {
	tele, err := EncodeSync(addr)
	return c.cast("sync", tele, err, addrField(addr))
}

// Idle leaves device test mode.
func (c *Client) Idle(addr Addr) error {
	tele, err := EncodeIdle(addr)
	return c.cast("idle", tele, err, addrField(addr))
}

// Foundry enters foundry test mode (password protected on the device).
func (c *Client) Foundry(addr Addr) error {
	tele, err := EncodeFoundry(addr)
	return c.cast("foundry", tele, err, addrField(addr))
}

// Cust enters customer test mode (password protected on the device).
func (c *Client) Cust(addr Addr) error {
	tele, err := EncodeCust(addr)
	return c.cast("cust", tele, err, addrField(addr))
}

// Burn commits the OTP mirror to fuses. Irreversible on real hardware.
func (c *Client) Burn(addr Addr) error {
	tele, err := EncodeBurn(addr)
	return c.cast("burn", tele, err, addrField(addr))
}

// I2CRead asks the SAID bridge to read count bytes from a device register.
// The transaction runs asynchronously; poll ReadI2CCfg for completion and
// fetch the bytes with ReadLast (or use the I2CRead8 helper).
func (c *Client) I2CRead(addr Addr, daddr7, raddr uint8, count int) error {
	tele, err := EncodeI2CRead(addr, daddr7, raddr, count)
	return c.cast("i2cread", tele, err, addrField(addr),
		zap.Uint8("daddr7", daddr7), zap.Uint8("raddr", raddr), zap.Int("count", count))
}

// I2CWrite asks the SAID bridge to write buf to a device register.
func (c *Client) I2CWrite(addr Addr, daddr7, raddr uint8, buf []byte) error {
	tele, err := EncodeI2CWrite(addr, daddr7, raddr, buf)
	return c.cast("i2cwrite", tele, err, addrField(addr),
		zap.Uint8("daddr7", daddr7), zap.Uint8("raddr", raddr), zap.Int("count", len(buf)))
}

// ReadLast fetches the size bytes buffered by the preceding I2CRead.
func (c *Client) ReadLast(addr Addr, size int) (buf []byte, err error) {
	tele, encErr := EncodeReadLast(addr)
	err = c.request("readlast", KindReadLast, tele, encErr, func(resp Telegram) ([]zap.Field, error) {
		var derr error
		buf, derr = DecodeReadLast(resp, size)
		return []zap.Field{zap.Int("size", size)}, derr
	}, addrField(addr))
	return buf, err
}

// GoActiveSR is the serial-cast GOACTIVE: the addressed node acknowledges
// with temperature and status.
func (c *Client) GoActiveSR(addr Addr) (temp, stat uint8, err error) {
	tele, encErr := EncodeGoActiveSR(addr)
	err = c.request("goactive_sr", KindGoActiveSR, tele, encErr, func(resp Telegram) ([]zap.Field, error) {
		var derr error
		temp, stat, derr = DecodeGoActiveSR(resp)
		return []zap.Field{zap.Uint8("temp", temp), zap.Uint8("stat", stat)}, derr
	}, addrField(addr))
	return temp, stat, err
}

// ReadStat reads the node's status flags.
func (c *Client) ReadStat(addr Addr) (stat uint8, err error) {
	tele, encErr := EncodeReadStat(addr)
	err = c.request("readstat", KindReadStat, tele, encErr, func(resp Telegram) ([]zap.Field, error) {
		var derr error
		stat, derr = DecodeReadStat(resp)
		return []zap.Field{zap.Uint8("stat", stat)}, derr
	}, addrField(addr))
	return stat, err
}

// ReadTempStat reads raw temperature and status in one exchange.
func (c *Client) ReadTempStat(addr Addr) (temp, stat uint8, err error) {
	tele, encErr := EncodeReadTempStat(addr)
	err = c.request("readtempstat", KindReadTempStat, tele, encErr, func(resp Telegram) ([]zap.Field, error) {
		var derr error
		temp, stat, derr = DecodeReadTempStat(resp)
		return []zap.Field{zap.Uint8("temp", temp), zap.Uint8("stat", stat)}, derr
	}, addrField(addr))
	return temp, stat, err
}

// ReadComSt reads the node's communication status byte.
func (c *Client) ReadComSt(addr Addr) (com uint8, err error) {
	tele, encErr := EncodeReadComSt(addr)
	err = c.request("readcomst", KindReadComSt, tele, encErr, func(resp Telegram) ([]zap.Field, error) {
		var derr error
		com, derr = DecodeReadComSt(resp)
		return []zap.Field{zap.Uint8("com", com)}, derr
	}, addrField(addr))
	return com, err
}

// ReadTemp reads the node's raw temperature byte.
func (c *Client) ReadTemp(addr Addr) (temp uint8, err error) {
	tele, encErr := EncodeReadTemp(addr)
	err = c.request("readtemp", KindReadTemp, tele, encErr, func(resp Telegram) ([]zap.Field, error) {
		var derr error
		temp, derr = DecodeReadTemp(resp)
		return []zap.Field{zap.Uint8("temp", temp)}, derr
	}, addrField(addr))
	return temp, err
}

// ReadSetup reads the node's setup flags.
func (c *Client) ReadSetup(addr Addr) (flags uint8, err error) {
	tele, encErr := EncodeReadSetup(addr)
	err = c.request("readsetup", KindReadSetup, tele, encErr, func(resp Telegram) ([]zap.Field, error) {
		var derr error
		flags, derr = DecodeReadSetup(resp)
		return []zap.Field{zap.Uint8("flags", flags)}, derr
	}, addrField(addr))
	return flags, err
}

// SetSetup writes the node's setup flags.
func (c *Client) SetSetup(addr Addr, flags uint8) error {
	tele, err := EncodeSetSetup(addr, flags)
	return c.cast("setsetup", tele, err, addrField(addr), zap.Uint8("flags", flags))
}

// ReadPWM reads the RGBI PWM settings.
func (c *Client) ReadPWM(addr Addr) (red, green, blue uint16, daytimes uint8, err error) {
	tele, encErr := EncodeReadPWM(addr)
	err = c.request("readpwm", KindReadPWM, tele, encErr, func(resp Telegram) ([]zap.Field, error) {
		var derr error
		red, green, blue, daytimes, derr = DecodeReadPWM(resp)
		return []zap.Field{zap.Uint16("red", red), zap.Uint16("green", green),
			zap.Uint16("blue", blue), zap.Uint8("daytimes", daytimes)}, derr
	}, addrField(addr))
	return red, green, blue, daytimes, err
}

// ReadPWMChn reads the SAID per-channel PWM settings.
func (c *Client) ReadPWMChn(addr Addr, chn uint8) (red, green, blue uint16, err error) {
	tele, encErr := EncodeReadPWMChn(addr, chn)
	err = c.request("readpwmchn", KindReadPWMChn, tele, encErr, func(resp Telegram) ([]zap.Field, error) {
		var derr error
		red, green, blue, derr = DecodeReadPWMChn(resp)
		return []zap.Field{zap.Uint16("red", red), zap.Uint16("green", green),
			zap.Uint16("blue", blue)}, derr
	}, addrField(addr), zap.Uint8("chn", chn))
	return red, green, blue, err
}

// SetPWM sets the RGBI duty cycles and daytime bits.
func (c *Client) SetPWM(addr Addr, red, green, blue uint16, daytimes uint8) error {
	tele, err := EncodeSetPWM(addr, red, green, blue, daytimes)
	return c.cast("setpwm", tele, err, addrField(addr),
		zap.Uint16("red", red), zap.Uint16("green", green), zap.Uint16("blue", blue),
		zap.Uint8("daytimes", daytimes))
}

// SetPWMChn sets one SAID channel's duty cycles.
func (c *Client) SetPWMChn(addr Addr, chn uint8, red, green, blue uint16) error {
	tele, err := EncodeSetPWMChn(addr, chn, red, green, blue)
	return c.cast("setpwmchn", tele, err, addrField(addr), zap.Uint8("chn", chn),
		zap.Uint16("red", red), zap.Uint16("green", green), zap.Uint16("blue", blue))
}

// ReadCurChn reads one SAID channel's current configuration.
func (c *Client) ReadCurChn(addr Addr, chn uint8) (flags, rcur, gcur, bcur uint8, err error) {
	tele, encErr := EncodeReadCurChn(addr, chn)
	err = c.request("readcurchn", KindReadCurChn, tele, encErr, func(resp Telegram) ([]zap.Field, error) {
		var derr error
		flags, rcur, gcur, bcur, derr = DecodeReadCurChn(resp)
		return []zap.Field{zap.Uint8("flags", flags), zap.Uint8("rcur", rcur),
			zap.Uint8("gcur", gcur), zap.Uint8("bcur", bcur)}, derr
	}, addrField(addr), zap.Uint8("chn", chn))
	return flags, rcur, gcur, bcur, err
}

// SetCurChn configures one SAID channel's drive current.
func (c *Client) SetCurChn(addr Addr, chn, flags, rcur, gcur, bcur uint8) error {
	tele, err := EncodeSetCurChn(addr, chn, flags, rcur, gcur, bcur)
	return c.cast("setcurchn", tele, err, addrField(addr), zap.Uint8("chn", chn),
		zap.Uint8("flags", flags), zap.Uint8("rcur", rcur), zap.Uint8("gcur", gcur),
		zap.Uint8("bcur", bcur))
}

// ReadI2CCfg reads the SAID I2C bridge flags and speed.
func (c *Client) ReadI2CCfg(addr Addr) (flags, speed uint8, err error) {
	tele, encErr := EncodeReadI2CCfg(addr)
	err = c.request("readi2ccfg", KindReadI2CCfg, tele, encErr, func(resp Telegram) ([]zap.Field, error) {
		var derr error
		flags, speed, derr = DecodeReadI2CCfg(resp)
		return []zap.Field{zap.Uint8("flags", flags), zap.Uint8("speed", speed)}, derr
	}, addrField(addr))
	return flags, speed, err
}

// SetI2CCfg configures the SAID I2C bridge.
func (c *Client) SetI2CCfg(addr Addr, flags, speed uint8) error {
	tele, err := EncodeSetI2CCfg(addr, flags, speed)
	return c.cast("seti2ccfg", tele, err, addrField(addr),
		zap.Uint8("flags", flags), zap.Uint8("speed", speed))
}

// ReadOTP reads size bytes (1-8) of the OTP mirror starting at otpaddr.
func (c *Client) ReadOTP(addr Addr, otpaddr uint8, size int) (buf []byte, err error) {
	tele, encErr := EncodeReadOTP(addr, otpaddr)
	err = c.request("readotp", KindReadOTP, tele, encErr, func(resp Telegram) ([]zap.Field, error) {
		var derr error
		buf, derr = DecodeReadOTP(resp, size)
		return nil, derr
	}, addrField(addr), zap.Uint8("otpaddr", otpaddr), zap.Int("size", size))
	return buf, err
}

// SetOTP writes 7 bytes to the OTP mirror at otpaddr. Needs the test
// password to have been presented first; see SetOTPBits for the guarded
// read-modify-write.
func (c *Client) SetOTP(addr Addr, otpaddr uint8, buf []byte) error {
	tele, err := EncodeSetOTP(addr, otpaddr, buf)
	return c.cast("setotp", tele, err, addrField(addr), zap.Uint8("otpaddr", otpaddr))
}

// SetTestData writes the 16-bit test data register.
func (c *Client) SetTestData(addr Addr, data uint16) error {
	tele, err := EncodeSetTestData(addr, data)
	return c.cast("settestdata", tele, err, addrField(addr), zap.Uint16("data", data))
}

// SetTestPW presents the 48-bit test password to the addressed SAIDs.
// Sending the TestPWUnknown sentinel is legal on the wire but cannot be
// the real device password, so it is logged as suspect.
func (c *Client) SetTestPW(addr Addr, pw uint64) error {
	if pw == TestPWUnknown {
		c.log.Warn("settestpw: password is the unknown sentinel, authentication will fail",
			addrField(addr))
	}
	tele, err := EncodeSetTestPW(addr, pw)
	return c.cast("settestpw", tele, err, addrField(addr))
}
