// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// ./cmd/calibration/main.go
//
// Computes the gyro/accelerometer bias profile from the static warm-up
// window, either of a recorded trace (-trace) or of the live board on
// SERIAL_PORT, and writes it as JSON with a stillness confidence.
//
// Run:
//
//	go run ./cmd/calibration -trace imu_trace.json
package main

import (
	"flag"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_tracking/internal/app"
	"github.com/relabs-tech/orientation_tracking/internal/config"
)

func main() {
	configPath := flag.String("config", "./orientation_config.txt", "path to configuration file")
	tracePath := flag.String("trace", "", "trace file; empty reads the serial port")
	outDir := flag.String("out", "./calibration", "output directory")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	app.ConfigureLogging(config.Get())

	name, err := app.RunCalibration(config.Get(), *tracePath, *outDir)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	fmt.Printf("\nWrote: %s\n", name)
}
