// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_tracking/internal/config"
)

// ConfigureLogging applies LOG_LEVEL. An unknown level falls back to info.
func ConfigureLogging(cfg *config.Config) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// phase logs how long a named stage took: defer phase("calibration", time.Now()).
func phase(name string, start time.Time) {
	log.WithFields(log.Fields{
		"phase":   name,
		"elapsed": time.Since(start).String(),
	}).Info("phase done")
}
