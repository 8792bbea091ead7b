// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Dana Reiter, Lucerna

package cmd

import (
	"fmt"

	"github.com/lucerna/osphost/pkg/osp"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Initialize the chain and identify every node",
	Long: `Resets the chain, assigns addresses (auto-detecting Loop or BiDir
wiring) and walks every node, printing its identity, temperature and
status.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	last, loop, err := client.ResetInit()
	if err != nil {
		return fmt.Errorf("chain init failed: %w", err)
	}
	mode := "BiDir"
	if loop {
		mode = "Loop"
	}
	fmt.Printf("Chain: %d node(s), %s mode\n\n", uint16(last), mode)
	fmt.Printf("%-6s %-28s %-6s %-6s\n", "ADDR", "IDENTITY", "TEMP", "STAT")

	for addr := osp.AddrUnicastMin; addr <= last; addr++ {
		id, err := client.Identify(addr)
		if err != nil {
			fmt.Printf("0x%03X  identify failed: %v\n", uint16(addr), err)
			continue
		}
		temp, stat, err := client.ReadTempStat(addr)
		if err != nil {
			fmt.Printf("0x%03X  %-28s readtempstat failed: %v\n", uint16(addr), id, err)
			continue
		}
		fmt.Printf("0x%03X  %-28s 0x%02X   0x%02X %s\n",
			uint16(addr), id, temp, stat, statStateName(stat))
	}
	return nil
}

// statStateName names the power state bits of a status byte.
func statStateName(stat uint8) string {
	switch stat & osp.StatStateMask {
	case osp.StatStateUninit:
		return "uninit"
	case osp.StatStateSleep:
		return "sleep"
	case osp.StatStateActive:
		return "active"
	default:
		return "deepsleep"
	}
}
