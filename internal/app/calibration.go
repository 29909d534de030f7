// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_tracking/internal/calibration"
	"github.com/relabs-tech/orientation_tracking/internal/config"
	"github.com/relabs-tech/orientation_tracking/internal/imu"
	"github.com/relabs-tech/orientation_tracking/internal/sensors"
	"github.com/relabs-tech/orientation_tracking/internal/trace"
)

const (
	stillStdGood = 3.0  // "good" gyro standard deviation for stillness, raw counts
	stillStdBad  = 12.0 // above this confidence drops to the floor

	confFloor = 0.05
)

// CalibrationReport is the JSON written by RunCalibration.
type CalibrationReport struct {
	Date       string              `json:"date"`
	Source     string              `json:"source"`
	Profile    calibration.Profile `json:"profile"`
	Confidence float64             `json:"confidence"`
}

// stillnessConfidence maps the mean gyro standard deviation of the warm-up
// window to [confFloor, 1].
func stillnessConfidence(std [3]float64) float64 {
	s := (std[0] + std[1] + std[2]) / 3
	switch {
	case s <= stillStdGood:
		return 1.0
	case s >= stillStdBad:
		return confFloor
	default:
		// Linear interpolation between good and bad
		t := (s - stillStdGood) / (stillStdBad - stillStdGood)
		return 1.0 - 0.95*t
	}
}

// RunCalibration computes the calibration profile from the warm-up window
// of a trace file, or of the serial port when tracePath is empty, and
// writes it to outDir. It returns the written file name.
func RunCalibration(cfg *config.Config, tracePath, outDir string) (string, error) {
	params := cfg.CalibrationParams()

	var (
		samples []imu.Sample
		source  string
	)
	if tracePath != "" {
		tr, err := trace.Load(tracePath)
		if err != nil {
			return "", err
		}
		if samples, err = tr.Samples(); err != nil {
			return "", err
		}
		source = tracePath
	} else {
		src, err := sensors.OpenSerial(cfg.SerialPort, cfg.SerialBaudRate)
		if err != nil {
			return "", err
		}
		defer src.Close()
		log.Printf("calibration: keep the board still, reading %d samples from %s", params.Window, cfg.SerialPort)
		if samples, err = imu.Take(src, params.Window); err != nil {
			return "", err
		}
		source = cfg.SerialPort
	}

	profile, err := calibration.Compute(samples, params)
	if err != nil {
		return "", err
	}
	logProfile(profile)

	rep := CalibrationReport{
		Source:     source,
		Profile:    profile,
		Confidence: stillnessConfidence(profile.GyroStdDev),
	}
	return WriteCalibration(outDir, rep, time.Now())
}

// WriteCalibration stores rep as indented JSON named after now.
func WriteCalibration(outDir string, rep CalibrationReport, now time.Time) (string, error) {
	rep.Date = now.Format(time.RFC3339)
	name := filepath.Join(outDir, fmt.Sprintf("%s_orientation_calibration.json", now.Format("2006-01-02T15-04-05Z07-00")))

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal calibration results")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create calibration directory")
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write calibration file")
	}

	log.Printf("calibration: saved results to %s (confidence %.2f)", name, rep.Confidence)
	return name, nil
}
