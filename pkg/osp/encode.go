// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dana Reiter, Lucerna

package osp

import "fmt"

// Telegram encoders. Each validates its arguments, then packs the frame
// deterministically: same arguments, same bytes. Multi-byte fields are big
// endian on the wire except the SETTESTPW password, which the devices
// consume as little-endian bytes.

func encodeSimple(kind Kind, addr Addr) (Telegram, error) {
	if !addr.IsValid() {
		return Telegram{}, fmt.Errorf("%w: 0x%03X", ErrAddress, uint16(addr))
	}
	return newTelegram(addr, kind.TID(), nil), nil
}

// EncodeReset builds a RESET telegram: every addressed node drops back to
// its power-on state and loses its address.
func EncodeReset(addr Addr) (Telegram, error) { return encodeSimple(KindReset, addr) }

// EncodeClrError builds a CLRERROR telegram clearing latched error flags.
func EncodeClrError(addr Addr) (Telegram, error) { return encodeSimple(KindClrError, addr) }

// EncodeInitBidir builds an INITBIDIR telegram: assign addresses along the
// chain with responses returning over the SIO1 side.
func EncodeInitBidir(addr Addr) (Telegram, error) { return encodeSimple(KindInitBidir, addr) }

// EncodeInitLoop builds an INITLOOP telegram: assign addresses with
// responses continuing forward around the loop.
func EncodeInitLoop(addr Addr) (Telegram, error) { return encodeSimple(KindInitLoop, addr) }

// EncodeGoSleep builds a GOSLEEP telegram (drivers off, settings kept).
func EncodeGoSleep(addr Addr) (Telegram, error) { return encodeSimple(KindGoSleep, addr) }

// EncodeGoActive builds a GOACTIVE telegram (drivers on).
func EncodeGoActive(addr Addr) (Telegram, error) { return encodeSimple(KindGoActive, addr) }

// EncodeIdentify builds an IDENTIFY telegram requesting the 32-bit id word.
func EncodeIdentify(addr Addr) (Telegram, error) { return encodeSimple(KindIdentify, addr) }

// EncodeReadMult builds a READMULT telegram requesting group membership.
func EncodeReadMult(addr Addr) (Telegram, error) { return encodeSimple(KindReadMult, addr) }

// EncodeSetMult builds a SETMULT telegram. groups is a 15-bit membership
// mask, bit n selecting multicast group n.
func EncodeSetMult(addr Addr, groups uint16) (Telegram, error) {
	if !addr.IsValid() {
		return Telegram{}, fmt.Errorf("%w: 0x%03X", ErrAddress, uint16(addr))
	}
	if groups&0x8000 != 0 {
		return Telegram{}, fmt.Errorf("%w: groups 0x%04X exceeds 15 bits", ErrArg, groups)
	}
	return newTelegram(addr, TIDSetMult, []byte{byte(groups >> 8), byte(groups)}), nil
}

// EncodeSync builds a SYNC telegram (apply buffered PWM settings).
func EncodeSync(addr Addr) (Telegram, error) { return encodeSimple(KindSync, addr) }

// EncodeIdle builds an IDLE test-mode telegram.
func EncodeIdle(addr Addr) (Telegram, error) { return encodeSimple(KindIdle, addr) }

// EncodeFoundry builds a FOUNDRY test-mode telegram.
func EncodeFoundry(addr Addr) (Telegram, error) { return encodeSimple(KindFoundry, addr) }

// EncodeCust builds a CUST test-mode telegram.
func EncodeCust(addr Addr) (Telegram, error) { return encodeSimple(KindCust, addr) }

// EncodeBurn builds a BURN telegram committing the OTP mirror to fuses.
func EncodeBurn(addr Addr) (Telegram, error) { return encodeSimple(KindBurn, addr) }

// EncodeI2CRead builds an I2CREAD telegram: the SAID's bridge reads count
// bytes (1-8) from register raddr of the 7-bit device daddr7. The result
// is fetched later with READLAST.
func EncodeI2CRead(addr Addr, daddr7, raddr uint8, count int) (Telegram, error) {
	if !addr.IsValid() {
		return Telegram{}, fmt.Errorf("%w: 0x%03X", ErrAddress, uint16(addr))
	}
	if daddr7 > 0x7F {
		return Telegram{}, fmt.Errorf("%w: i2c device address 0x%02X", ErrArg, daddr7)
	}
	if count < 1 || count > 8 {
		return Telegram{}, fmt.Errorf("%w: i2c read count %d", ErrArg, count)
	}
	return newTelegram(addr, TIDI2CRead, []byte{daddr7 << 1, raddr, byte(count)}), nil
}

// EncodeI2CWrite builds an I2CWRITE telegram writing buf to register raddr
// of device daddr7. The payload holds the device and register address plus
// the data, so len(buf) must keep the total out of the unsupported payload
// sizes 5 and 7 and within 8: valid lengths are 1, 2, 4 and 6.
func EncodeI2CWrite(addr Addr, daddr7, raddr uint8, buf []byte) (Telegram, error) {
	if !addr.IsValid() {
		return Telegram{}, fmt.Errorf("%w: 0x%03X", ErrAddress, uint16(addr))
	}
	if daddr7 > 0x7F {
		return Telegram{}, fmt.Errorf("%w: i2c device address 0x%02X", ErrArg, daddr7)
	}
	n := len(buf)
	if n < 1 || n+2 > MaxPayload || n+2 == 5 || n+2 == 7 {
		return Telegram{}, fmt.Errorf("%w: i2c write length %d", ErrArg, n)
	}
	payload := make([]byte, 0, n+2)
	payload = append(payload, daddr7<<1, raddr)
	payload = append(payload, buf...)
	return newTelegram(addr, TIDI2CWrite, payload), nil
}

// EncodeReadLast builds a READLAST telegram fetching the bytes the bridge
// collected during the preceding I2CREAD.
func EncodeReadLast(addr Addr) (Telegram, error) { return encodeSimple(KindReadLast, addr) }

// EncodeGoActiveSR builds the serial-cast GOACTIVE variant, which answers
// with temperature and status.
func EncodeGoActiveSR(addr Addr) (Telegram, error) { return encodeSimple(KindGoActiveSR, addr) }

// EncodeReadStat builds a READSTAT telegram.
func EncodeReadStat(addr Addr) (Telegram, error) { return encodeSimple(KindReadStat, addr) }

// EncodeReadTempStat builds a READTEMPSTAT telegram.
func EncodeReadTempStat(addr Addr) (Telegram, error) { return encodeSimple(KindReadTempStat, addr) }

// EncodeReadComSt builds a READCOMST telegram.
func EncodeReadComSt(addr Addr) (Telegram, error) { return encodeSimple(KindReadComSt, addr) }

// EncodeReadTemp builds a READTEMP telegram.
func EncodeReadTemp(addr Addr) (Telegram, error) { return encodeSimple(KindReadTemp, addr) }

// EncodeReadSetup builds a READSETUP telegram.
func EncodeReadSetup(addr Addr) (Telegram, error) { return encodeSimple(KindReadSetup, addr) }

// EncodeSetSetup builds a SETSETUP telegram with the Setup* flags.
func EncodeSetSetup(addr Addr, flags uint8) (Telegram, error) {
	if !addr.IsValid() {
		return Telegram{}, fmt.Errorf("%w: 0x%03X", ErrAddress, uint16(addr))
	}
	return newTelegram(addr, TIDSetSetup, []byte{flags}), nil
}

// EncodeReadPWM builds the RGBI READPWM telegram.
func EncodeReadPWM(addr Addr) (Telegram, error) { return encodeSimple(KindReadPWM, addr) }

// EncodeReadPWMChn builds the SAID READPWMCHN telegram for channel chn (0-2).
func EncodeReadPWMChn(addr Addr, chn uint8) (Telegram, error) {
	if !addr.IsValid() {
		return Telegram{}, fmt.Errorf("%w: 0x%03X", ErrAddress, uint16(addr))
	}
	if chn > 2 {
		return Telegram{}, fmt.Errorf("%w: channel %d", ErrArg, chn)
	}
	return newTelegram(addr, TIDReadPWM, []byte{chn}), nil
}

// EncodeSetPWM builds the RGBI SETPWM telegram. The color values are
// 15-bit; daytimes is a 3-bit mask enabling the high-current day mode per
// color (bit 2 red, bit 1 green, bit 0 blue). The daytime bits ride in the
// top bit of each color's high byte.
func EncodeSetPWM(addr Addr, red, green, blue uint16, daytimes uint8) (Telegram, error) {
	if !addr.IsValid() {
		return Telegram{}, fmt.Errorf("%w: 0x%03X", ErrAddress, uint16(addr))
	}
	if red&0x8000 != 0 || green&0x8000 != 0 || blue&0x8000 != 0 {
		return Telegram{}, fmt.Errorf("%w: pwm value exceeds 15 bits", ErrArg)
	}
	if daytimes&^uint8(0x07) != 0 {
		return Telegram{}, fmt.Errorf("%w: daytimes 0x%02X exceeds 3 bits", ErrArg, daytimes)
	}
	payload := []byte{
		(daytimes>>2&1)<<7 | byte(red>>8), byte(red),
		(daytimes>>1&1)<<7 | byte(green>>8), byte(green),
		(daytimes&1)<<7 | byte(blue>>8), byte(blue),
	}
	return newTelegram(addr, TIDSetPWM, payload), nil
}

// EncodeSetPWMChn builds the SAID SETPWMCHN telegram setting the full
// 16-bit red, green and blue duty cycles of channel chn (0-2). The second
// payload byte is a fixed 0xFF filler the devices require.
func EncodeSetPWMChn(addr Addr, chn uint8, red, green, blue uint16) (Telegram, error) {
	if !addr.IsValid() {
		return Telegram{}, fmt.Errorf("%w: 0x%03X", ErrAddress, uint16(addr))
	}
	if chn > 2 {
		return Telegram{}, fmt.Errorf("%w: channel %d", ErrArg, chn)
	}
	payload := []byte{
		chn, 0xFF,
		byte(red >> 8), byte(red),
		byte(green >> 8), byte(green),
		byte(blue >> 8), byte(blue),
	}
	return newTelegram(addr, TIDSetPWM, payload), nil
}

// EncodeReadCurChn builds a READCURCHN telegram for channel chn (0-2).
func EncodeReadCurChn(addr Addr, chn uint8) (Telegram, error) {
	if !addr.IsValid() {
		return Telegram{}, fmt.Errorf("%w: 0x%03X", ErrAddress, uint16(addr))
	}
	if chn > 2 {
		return Telegram{}, fmt.Errorf("%w: channel %d", ErrArg, chn)
	}
	return newTelegram(addr, TIDReadCurChn, []byte{chn}), nil
}

// validCurCode reports whether c is a legal 4-bit drive current code.
// Codes 5-7 are a hardware gap: the high bit selects the extended range,
// so only 0-4 and 8-11 exist.
func validCurCode(c uint8) bool {
	return c <= 4 || (c >= 8 && c <= 11)
}

// EncodeSetCurChn builds a SETCURCHN telegram configuring the drive
// current of channel chn: flags are the CurChnFlag* bits (reserved bit
// must be clear), rcur/gcur/bcur the per-color current codes.
func EncodeSetCurChn(addr Addr, chn, flags, rcur, gcur, bcur uint8) (Telegram, error) {
	if !addr.IsValid() {
		return Telegram{}, fmt.Errorf("%w: 0x%03X", ErrAddress, uint16(addr))
	}
	if chn > 2 {
		return Telegram{}, fmt.Errorf("%w: channel %d", ErrArg, chn)
	}
	if flags&^uint8(0x07) != 0 {
		return Telegram{}, fmt.Errorf("%w: current flags 0x%02X", ErrArg, flags)
	}
	if !validCurCode(rcur) || !validCurCode(gcur) || !validCurCode(bcur) {
		return Telegram{}, fmt.Errorf("%w: current code", ErrArg)
	}
	return newTelegram(addr, TIDSetCurChn, []byte{chn, flags<<4 | rcur, gcur<<4 | bcur}), nil
}

// EncodeReadI2CCfg builds a READI2CCFG telegram.
func EncodeReadI2CCfg(addr Addr) (Telegram, error) { return encodeSimple(KindReadI2CCfg, addr) }

// EncodeSetI2CCfg builds a SETI2CCFG telegram: flags are the I2CCfgFlag*
// bits, speed a nonzero 4-bit bus speed code (I2CCfgSpeedDefault is 100 kHz).
func EncodeSetI2CCfg(addr Addr, flags, speed uint8) (Telegram, error) {
	if !addr.IsValid() {
		return Telegram{}, fmt.Errorf("%w: 0x%03X", ErrAddress, uint16(addr))
	}
	if flags&^uint8(0x0F) != 0 {
		return Telegram{}, fmt.Errorf("%w: i2c flags 0x%02X", ErrArg, flags)
	}
	if speed&^uint8(0x0F) != 0 || speed == 0 {
		return Telegram{}, fmt.Errorf("%w: i2c speed 0x%02X", ErrArg, speed)
	}
	return newTelegram(addr, TIDSetI2CCfg, []byte{flags<<4 | speed}), nil
}

// EncodeReadOTP builds a READOTP telegram for the 8 mirror bytes starting
// at otpaddr (0x00-0x1F).
func EncodeReadOTP(addr Addr, otpaddr uint8) (Telegram, error) {
	if !addr.IsValid() {
		return Telegram{}, fmt.Errorf("%w: 0x%03X", ErrAddress, uint16(addr))
	}
	if otpaddr >= OTPSize {
		return Telegram{}, fmt.Errorf("%w: otp address 0x%02X", ErrArg, otpaddr)
	}
	return newTelegram(addr, TIDReadOTP, []byte{otpaddr}), nil
}

// EncodeSetOTP builds a SETOTP telegram writing exactly 7 bytes to the OTP
// mirror at otpaddr. The data rides in the payload in reverse order with
// the mirror address last.
func EncodeSetOTP(addr Addr, otpaddr uint8, buf []byte) (Telegram, error) {
	if !addr.IsValid() {
		return Telegram{}, fmt.Errorf("%w: 0x%03X", ErrAddress, uint16(addr))
	}
	if otpaddr >= OTPSize {
		return Telegram{}, fmt.Errorf("%w: otp address 0x%02X", ErrArg, otpaddr)
	}
	if len(buf) != 7 {
		return Telegram{}, fmt.Errorf("%w: otp write needs 7 bytes, got %d", ErrArg, len(buf))
	}
	payload := make([]byte, 8)
	for i, b := range buf {
		payload[6-i] = b
	}
	payload[7] = otpaddr
	return newTelegram(addr, TIDSetOTP, payload), nil
}

// EncodeSetTestData builds a SETTESTDATA telegram.
func EncodeSetTestData(addr Addr, data uint16) (Telegram, error) {
	if !addr.IsValid() {
		return Telegram{}, fmt.Errorf("%w: 0x%03X", ErrAddress, uint16(addr))
	}
	return newTelegram(addr, TIDSetTestData, []byte{byte(data >> 8), byte(data)}), nil
}

// EncodeSetTestPW builds a SETTESTPW telegram authenticating with the
// 48-bit SAID test password. Unlike every other multi-byte field the
// password goes out little endian.
func EncodeSetTestPW(addr Addr, pw uint64) (Telegram, error) {
	if !addr.IsValid() {
		return Telegram{}, fmt.Errorf("%w: 0x%03X", ErrAddress, uint16(addr))
	}
	if pw&^uint64(0x0000FFFFFFFFFFFF) != 0 {
		return Telegram{}, fmt.Errorf("%w: password exceeds 48 bits", ErrArg)
	}
	payload := make([]byte, 6)
	for i := range payload {
		payload[i] = byte(pw >> (8 * i))
	}
	return newTelegram(addr, TIDSetTestPW, payload), nil
}
