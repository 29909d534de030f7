// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_tracking/internal/calibration"
	"github.com/relabs-tech/orientation_tracking/internal/config"
	"github.com/relabs-tech/orientation_tracking/internal/imu"
	"github.com/relabs-tech/orientation_tracking/internal/orientation"
	"github.com/relabs-tech/orientation_tracking/internal/sensors"
)

// RunLive reads the board over serial, calibrates from the first window of
// samples (keep the board still while it starts) and publishes every
// estimate to MQTT until the port closes.
func RunLive(cfg *config.Config) error {
	log.Println("starting orientation producer (serial → MQTT)")

	client, err := connectMQTT(cfg, "producer")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	src, err := sensors.OpenSerial(cfg.SerialPort, cfg.SerialBaudRate)
	if err != nil {
		return err
	}
	defer src.Close()
	log.Printf("serial port opened on %s at %d baud", cfg.SerialPort, cfg.SerialBaudRate)

	sink := NewMQTTSink(mqttPublisher{client: client}, cfg, false)
	sink.Interval = 0
	steps, err := Track(cfg, src, sink)
	log.Printf("producer stopped after %d steps", steps)
	return err
}

// Track calibrates from the first CALIBRATION_WINDOW samples of src, then
// estimates one step per further sample and hands it to sinks. Live data has
// no ground truth, so Step.Truth stays zero. It returns the number of steps
// produced; io.EOF from src ends tracking without error.
func Track(cfg *config.Config, src imu.SampleSource, sinks ...orientation.Sink) (int, error) {
	params := cfg.CalibrationParams()
	window, err := imu.Take(src, params.Window)
	if err != nil {
		return 0, err
	}
	profile, err := calibration.Compute(window, params)
	if err != nil {
		return 0, err
	}
	logProfile(profile)

	kind, err := cfg.EstimatorKind()
	if err != nil {
		return 0, err
	}
	est, err := orientation.NewEstimator(kind, profile, cfg.AxisMap(), cfg.FilterParams())
	if err != nil {
		return 0, err
	}
	sinks = append([]orientation.Sink{stepLogger()}, sinks...)

	cur := window[len(window)-1]
	for i := 0; ; i++ {
		next, err := src.Next()
		if errors.Is(err, io.EOF) {
			return i, nil
		}
		if err != nil {
			return i, err
		}

		q, err := est.Step(cur, next)
		if err != nil {
			return i, errors.Wrapf(err, "step %d", i)
		}
		if !q.IsFinite() {
			return i, errors.Wrapf(orientation.ErrNumericalInstability, "step %d: non-finite attitude", i)
		}

		st := orientation.Step{
			Index:     i,
			Timestamp: next.Timestamp,
			Attitude:  q,
			Estimated: orientation.PoseFromQuaternion(q),
		}
		for _, s := range sinks {
			if err := s.Consume(st); err != nil {
				return i, errors.Wrapf(err, "step %d: sink", i)
			}
		}
		cur = next
	}
}
