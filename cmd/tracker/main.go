// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"

	"github.com/golang/geo/r3"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_tracking/internal/app"
	"github.com/relabs-tech/orientation_tracking/internal/config"
	"github.com/relabs-tech/orientation_tracking/internal/trace"
)

func main() {
	configPath := flag.String("config", "./orientation_config.txt", "path to configuration file")
	tracePath := flag.String("trace", "", "path to a JSON trace (ts, vals, rots)")
	estimator := flag.String("estimator", "", "override ESTIMATOR (integrator or ukf)")
	synthetic := flag.Bool("synthetic", false, "replay a generated constant-rate trace instead of -trace")
	rateX := flag.Float64("rate-x", 0, "synthetic body rate about x, rad/s")
	rateY := flag.Float64("rate-y", 0, "synthetic body rate about y, rad/s")
	rateZ := flag.Float64("rate-z", 0.5, "synthetic body rate about z, rad/s")
	steps := flag.Int("steps", 500, "synthetic samples after the warm-up window")
	noise := flag.Float64("noise", 0, "synthetic noise std, raw counts")
	publish := flag.Bool("publish", false, "publish every step to MQTT")
	save := flag.String("save", "", "write the replayed trace to this JSON file")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()
	if *estimator != "" {
		cfg.Estimator = *estimator
	}
	app.ConfigureLogging(cfg)

	if !*synthetic && *tracePath == "" {
		log.Fatal("-trace or -synthetic required")
	}

	log.Println("starting orientation tracker (trace replay)")

	p := trace.DefaultSyntheticParams()
	p.Rate = r3.Vector{X: *rateX, Y: *rateY, Z: *rateZ}
	p.Steps = *steps
	p.NoiseStd = *noise

	opts := app.ReplayOptions{
		Synthetic:       *synthetic,
		SyntheticParams: p,
		Publish:         *publish,
		SaveTrace:       *save,
	}
	if _, err := app.RunReplay(cfg, *tracePath, opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
