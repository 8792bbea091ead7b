// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Dana Reiter, Lucerna

package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/lucerna/osphost/pkg/osp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Tracing flags
	logLevelName string
	capturePath  string
)

var rootCmd = &cobra.Command{
	Use:   "osphost",
	Short: "OSP chain commissioning and diagnostics tool",
	Long: `osphost drives a chain of OSP nodes (RGBI and SAID LED drivers) through
a bridge MCU, over a local serial port or a remote WebSocket bridge.

Provides commands for chain initialization and scanning, PWM control,
OTP inspection and the SAID I2C bridge, plus a live monitor TUI.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the OSPHOST_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version: "1.0.0",
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket bridge flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Tracing flags
	rootCmd.PersistentFlags().StringVar(&logLevelName, "log-level", "none", "Exchange tracing: none, args or bytes")
	rootCmd.PersistentFlags().StringVar(&capturePath, "capture", "", "Record every exchange to a CBOR capture file")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func parseLogLevel(name string) (osp.LogLevel, error) {
	switch name {
	case "none":
		return osp.LogNone, nil
	case "args":
		return osp.LogArgs, nil
	case "bytes":
		return osp.LogBytes, nil
	}
	return osp.LogNone, fmt.Errorf("unknown log level %q (use none, args or bytes)", name)
}

// parseAddr parses a node address argument (decimal or 0x-prefixed hex).
func parseAddr(arg string) (osp.Addr, error) {
	v, err := strconv.ParseUint(arg, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %v", arg, err)
	}
	addr := osp.Addr(v)
	if !addr.IsValid() {
		return 0, fmt.Errorf("address 0x%03X is not broadcast, unicast or group", v)
	}
	return addr, nil
}

// openClient connects to the bridge and builds a client with the tracing
// flags applied. The returned cleanup closes the connection and, when
// --capture is set, writes the journal.
func openClient() (*osp.Client, func(), error) {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return nil, nil, err
	}

	level, err := parseLogLevel(logLevelName)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	opts := []osp.Option{osp.WithLogLevel(level)}

	if level != osp.LogNone {
		cfg := zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
		logger, err := cfg.Build()
		if err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("failed to build logger: %v", err)
		}
		opts = append(opts, osp.WithLogger(logger))
	}

	var journal *osp.Journal
	if capturePath != "" {
		journal = osp.NewJournal()
		opts = append(opts, osp.WithJournal(journal))
	}

	client := osp.NewClient(newBridgeTransport(conn), opts...)

	cleanup := func() {
		if journal != nil {
			f, err := os.Create(capturePath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "capture: %v\n", err)
			} else {
				if err := journal.Save(f); err != nil {
					fmt.Fprintf(os.Stderr, "capture: %v\n", err)
				}
				f.Close()
			}
		}
		conn.Close()
	}

	fmt.Printf("Connection: %s\n", connInfo)
	return client, cleanup, nil
}
