// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Dana Reiter, Lucerna

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var i2cCmd = &cobra.Command{
	Use:   "i2c",
	Short: "Talk to I2C devices behind a SAID's bridge",
}

var i2cPowerCmd = &cobra.Command{
	Use:   "power <addr>",
	Short: "Power the I2C bus on the SAID's channel 2",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := parseAddr(args[0])
		if err != nil {
			return err
		}
		client, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := client.I2CPower(addr); err != nil {
			return err
		}
		fmt.Println("I2C bus powered.")
		return nil
	},
}

var i2cReadCmd = &cobra.Command{
	Use:   "read <addr> <device> <register> <count>",
	Short: "Read bytes from a device register",
	Args:  cobra.ExactArgs(4),
	RunE:  runI2CRead,
}

var i2cWriteCmd = &cobra.Command{
	Use:   "write <addr> <device> <register> <byte>...",
	Short: "Write bytes to a device register",
	Args:  cobra.MinimumNArgs(4),
	RunE:  runI2CWrite,
}

func init() {
	i2cCmd.AddCommand(i2cPowerCmd)
	i2cCmd.AddCommand(i2cReadCmd)
	i2cCmd.AddCommand(i2cWriteCmd)
	rootCmd.AddCommand(i2cCmd)
}

func runI2CRead(cmd *cobra.Command, args []string) error {
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	device, err := parseByte(args[1])
	if err != nil {
		return err
	}
	register, err := parseByte(args[2])
	if err != nil {
		return err
	}
	count, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("invalid count %q: %v", args[3], err)
	}

	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	buf, err := client.I2CRead8(addr, device, register, count)
	if err != nil {
		return err
	}
	fmt.Printf("dev 0x%02X reg 0x%02X:", device, register)
	for _, b := range buf {
		fmt.Printf(" %02X", b)
	}
	fmt.Println()
	return nil
}

func runI2CWrite(cmd *cobra.Command, args []string) error {
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	device, err := parseByte(args[1])
	if err != nil {
		return err
	}
	register, err := parseByte(args[2])
	if err != nil {
		return err
	}
	buf := make([]byte, 0, len(args)-3)
	for _, arg := range args[3:] {
		b, err := parseByte(arg)
		if err != nil {
			return err
		}
		buf = append(buf, b)
	}

	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := client.I2CWrite8(addr, device, register, buf); err != nil {
		return err
	}
	fmt.Printf("wrote %d byte(s) to dev 0x%02X reg 0x%02X\n", len(buf), device, register)
	return nil
}
