// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package trace holds recorded (or synthesized) IMU logs together with
// their motion-capture ground truth.
package trace

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/relabs-tech/orientation_tracking/internal/imu"
	"github.com/relabs-tech/orientation_tracking/internal/rotation"
)

// Trace is a recording in the layout of the capture rig: a 6-row
// channel-major IMU array with its timestamps, and one row-major 3x3
// rotation matrix per ground-truth step.
type Trace struct {
	Ts   []float64   `json:"ts"`
	Vals [][]float64 `json:"vals"`
	Rots [][]float64 `json:"rots"`
}

// Load reads a JSON trace file.
func Load(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open trace")
	}
	defer f.Close()

	var t Trace
	if err := json.NewDecoder(f).Decode(&t); err != nil {
		return nil, errors.Wrapf(err, "decode trace %s", path)
	}
	return &t, nil
}

// Save writes t as JSON.
func (t *Trace) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create trace")
	}
	if err := json.NewEncoder(f).Encode(t); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode trace %s", path)
	}
	return f.Close()
}

// Samples converts the IMU rows into samples.
func (t *Trace) Samples() ([]imu.Sample, error) {
	return imu.FromChannelMajor(t.Vals, t.Ts)
}

// Truth converts the ground-truth rows into rotation matrices.
func (t *Trace) Truth() ([]rotation.Matrix, error) {
	out := make([]rotation.Matrix, len(t.Rots))
	for i, r := range t.Rots {
		m, err := rotation.MatrixFromSlice(r)
		if err != nil {
			return nil, errors.Wrapf(err, "ground truth step %d", i)
		}
		out[i] = m
	}
	return out, nil
}
