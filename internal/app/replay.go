// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_tracking/internal/calibration"
	"github.com/relabs-tech/orientation_tracking/internal/config"
	"github.com/relabs-tech/orientation_tracking/internal/orientation"
	"github.com/relabs-tech/orientation_tracking/internal/trace"
)

// stillThreshold is the gyro standard deviation, in raw counts, above which
// the warm-up window is reported as not static.
const stillThreshold = 5.0

// ReplayOptions select what RunReplay feeds and where it sends results.
type ReplayOptions struct {
	// Synthetic replaces the trace file with a generated constant-rate
	// recording using SyntheticParams.
	Synthetic       bool
	SyntheticParams trace.SyntheticParams

	// Publish sends every step to MQTT.
	Publish bool

	// SaveTrace, when set, writes the replayed trace there as JSON.
	SaveTrace string
}

// RunReplay estimates the orientation over a recorded trace (or a synthetic
// one) and logs how far it is from the ground truth.
func RunReplay(cfg *config.Config, path string, opts ReplayOptions) (*orientation.Sequence, error) {
	start := time.Now()
	var tr *trace.Trace
	if opts.Synthetic {
		p := opts.SyntheticParams
		p.Calibration = cfg.CalibrationParams()
		tr = trace.Synthetic(p)
		log.Printf("synthetic trace: %d samples, rate %v rad/s", len(tr.Ts), p.Rate)
	} else {
		var err error
		if tr, err = trace.Load(path); err != nil {
			return nil, err
		}
		log.Printf("loaded trace %s: %d samples, %d ground-truth steps", path, len(tr.Ts), len(tr.Rots))
	}
	phase("trace load", start)

	if opts.SaveTrace != "" {
		if err := tr.Save(opts.SaveTrace); err != nil {
			return nil, err
		}
		log.Printf("trace saved to %s", opts.SaveTrace)
	}

	var sinks []orientation.Sink
	if opts.Publish {
		client, err := connectMQTT(cfg, "replay")
		if err != nil {
			return nil, err
		}
		defer client.Disconnect(250)
		sinks = append(sinks, NewMQTTSink(mqttPublisher{client: client}, cfg, true))
	}

	seq, err := Replay(cfg, tr, sinks...)
	if err != nil {
		return seq, err
	}

	rmse := seq.RMSE().Degrees()
	log.WithFields(log.Fields{
		"steps":      seq.Len(),
		"rmse_roll":  rmse.Roll,
		"rmse_pitch": rmse.Pitch,
		"rmse_yaw":   rmse.Yaw,
	}).Info("replay finished (degrees)")
	return seq, nil
}

// Replay calibrates from the trace's warm-up window and runs the configured
// estimator over the whole trace.
func Replay(cfg *config.Config, tr *trace.Trace, sinks ...orientation.Sink) (*orientation.Sequence, error) {
	samples, err := tr.Samples()
	if err != nil {
		return nil, err
	}
	truth, err := tr.Truth()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	profile, err := calibration.Compute(samples, cfg.CalibrationParams())
	if err != nil {
		return nil, err
	}
	logProfile(profile)
	phase("calibration", start)

	kind, err := cfg.EstimatorKind()
	if err != nil {
		return nil, err
	}
	est, err := orientation.NewEstimator(kind, profile, cfg.AxisMap(), cfg.FilterParams())
	if err != nil {
		return nil, errors.Wrap(err, "build estimator")
	}
	log.Printf("estimator: %s", kind)

	start = time.Now()
	seq, err := orientation.Run(samples, truth, est, append([]orientation.Sink{stepLogger()}, sinks...)...)
	phase("estimation", start)
	if err != nil {
		return seq, errors.Wrapf(err, "%s estimator stopped after %d steps", kind, seq.Len())
	}
	return seq, nil
}

func logProfile(p calibration.Profile) {
	log.WithFields(log.Fields{
		"gyro_bias":  p.GyroBias,
		"accel_bias": p.AccelBias,
		"gyro_std":   p.GyroStdDev,
		"window":     p.Window,
	}).Info("calibration profile")
	if !p.Still(stillThreshold) {
		log.Warnf("gyro moved during the %d-sample warm-up window (std %v counts); bias will be off", p.Window, p.GyroStdDev)
	}
}
