// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Dana Reiter, Lucerna

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucerna/osphost/pkg/osp"
	"github.com/spf13/cobra"
)

var otpCmd = &cobra.Command{
	Use:   "otp",
	Short: "Inspect and patch a SAID's OTP mirror",
}

var otpDumpCmd = &cobra.Command{
	Use:   "dump <addr>",
	Short: "Hex dump the 32-byte OTP mirror",
	Args:  cobra.ExactArgs(1),
	RunE:  runOTPDump,
}

var otpSetCmd = &cobra.Command{
	Use:   "set <addr> <otpaddr> <ormask> [andmask]",
	Short: "Patch one byte of the OTP customer area",
	Long: `Rewrites the mirror byte at otpaddr to (old & andmask) | ormask.
Restricted to the customer area (0x0D-0x1F). Requires the SAID test
password, taken from the OSPHOST_PASSWORD environment variable (as hex)
or prompted interactively.`,
	Args: cobra.RangeArgs(3, 4),
	RunE: runOTPSet,
}

func init() {
	otpCmd.AddCommand(otpDumpCmd)
	otpCmd.AddCommand(otpSetCmd)
	rootCmd.AddCommand(otpCmd)
}

func runOTPDump(cmd *cobra.Command, args []string) error {
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}

	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	otp, err := client.OTPDump(addr)
	if err != nil {
		return err
	}
	for offset := 0; offset < len(otp); offset += 8 {
		fmt.Printf("0x%02X:", offset)
		for _, b := range otp[offset : offset+8] {
			fmt.Printf(" %02X", b)
		}
		fmt.Println()
	}
	fmt.Printf("\ni2c bridge: %v  sync pin: %v\n",
		otp[osp.OTPCustomerFrom]&osp.OTPI2CBridgeEn != 0,
		otp[osp.OTPCustomerFrom]&osp.OTPSyncPinEn != 0)
	return nil
}

func parseByte(arg string) (uint8, error) {
	v, err := strconv.ParseUint(arg, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q: %v", arg, err)
	}
	return uint8(v), nil
}

func runOTPSet(cmd *cobra.Command, args []string) error {
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	otpaddr, err := parseByte(args[1])
	if err != nil {
		return err
	}
	ormask, err := parseByte(args[2])
	if err != nil {
		return err
	}
	andmask := uint8(0xFF)
	if len(args) == 4 {
		if andmask, err = parseByte(args[3]); err != nil {
			return err
		}
	}

	pwStr, err := GetPassword()
	if err != nil {
		return err
	}
	pw, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(pwStr), "0x"), 16, 64)
	if err != nil {
		return fmt.Errorf("password must be a hex number: %v", err)
	}

	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	client.SetTestPassword(pw)
	if err := client.SetOTPBits(addr, otpaddr, ormask, andmask); err != nil {
		return err
	}
	fmt.Printf("otp 0x%02X patched (or 0x%02X, and 0x%02X)\n", otpaddr, ormask, andmask)
	return nil
}
