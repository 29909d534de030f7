// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_tracking/internal/app"
	"github.com/relabs-tech/orientation_tracking/internal/config"
)

func main() {
	configPath := flag.String("config", "./orientation_config.txt", "path to configuration file")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	app.ConfigureLogging(config.Get())

	if err := app.RunLive(config.Get()); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
