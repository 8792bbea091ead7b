// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Dana Reiter, Lucerna

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var pwmChannel uint8

var pwmCmd = &cobra.Command{
	Use:   "pwm <addr> <red> <green> <blue>",
	Short: "Set a node's color and activate its drivers",
	Long: `Identifies the node and sets its PWM duty cycles: SAIDs take full
16-bit values on the selected channel (--channel), RGBIs take 15-bit
values. Values may be decimal or 0x-prefixed hex.`,
	Args: cobra.ExactArgs(4),
	RunE: runPWM,
}

func init() {
	pwmCmd.Flags().Uint8Var(&pwmChannel, "channel", 0, "SAID channel (0-2)")
	rootCmd.AddCommand(pwmCmd)
}

func parseDuty(arg string) (uint16, error) {
	v, err := strconv.ParseUint(arg, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid duty cycle %q: %v", arg, err)
	}
	return uint16(v), nil
}

func runPWM(cmd *cobra.Command, args []string) error {
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	var rgb [3]uint16
	for i, arg := range args[1:] {
		if rgb[i], err = parseDuty(arg); err != nil {
			return err
		}
	}

	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	id, err := client.Identify(addr)
	if err != nil {
		return err
	}
	if err := client.GoActive(addr); err != nil {
		return err
	}

	switch {
	case id.IsSAID():
		err = client.SetPWMChn(addr, pwmChannel, rgb[0], rgb[1], rgb[2])
	case id.IsRGBI():
		err = client.SetPWM(addr, rgb[0], rgb[1], rgb[2], 0)
	default:
		return fmt.Errorf("node %s has no known PWM layout", id)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s: rgb set to %04X %04X %04X\n", id, rgb[0], rgb[1], rgb[2])
	return nil
}
