// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Dana Reiter, Lucerna

package cmd

import (
	"fmt"

	"github.com/lucerna/osphost/pkg/osp"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Broadcast a reset, returning every node to its power-on state",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := client.Reset(osp.AddrBroadcast); err != nil {
			return err
		}
		fmt.Println("Chain reset; addresses cleared until the next init.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
