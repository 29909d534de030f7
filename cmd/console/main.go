// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"os"

	"github.com/golang/geo/r3"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_tracking/internal/app"
	"github.com/relabs-tech/orientation_tracking/internal/config"
	"github.com/relabs-tech/orientation_tracking/internal/trace"
)

func main() {
	configPath := flag.String("config", "./orientation_config.txt", "path to configuration file")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	app.ConfigureLogging(config.Get())

	p := trace.DefaultSyntheticParams()
	p.Rate = r3.Vector{X: 0.3, Y: -0.2, Z: 0.5}
	p.NoiseStd = 1

	if err := app.RunMockConsole(config.Get(), p, os.Stdout); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
