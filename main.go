// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dana Reiter, Lucerna
//
// osphost - OSP chain commissioning and diagnostics tool
//
// A CLI tool for driving daisy-chained OSP LED driver nodes through a
// bridge MCU: chain initialization, node identification, PWM control,
// OTP access and the SAID I2C bridge.

package main

import (
	"os"

	"github.com/lucerna/osphost/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
