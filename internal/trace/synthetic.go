// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package trace

import (
	"math/rand"

	"github.com/golang/geo/r3"

	"github.com/relabs-tech/orientation_tracking/internal/calibration"
	"github.com/relabs-tech/orientation_tracking/internal/rotation"
)

// SyntheticParams describe a generated recording: a static warm-up, then a
// constant body rate.
type SyntheticParams struct {
	Static int     // leading samples at rest
	Steps  int     // samples while rotating
	Dt     float64 // sample period, s

	Rate r3.Vector // body rate while rotating, rad/s

	// Raw counts read at zero rate / zero g.
	GyroZero  [3]float64
	AccelZero [3]float64

	GyroAxes  [3]int // body axis -> gyro channel
	AccelAxes [3]int // body axis -> accel channel

	// NoiseStd is the standard deviation of Gaussian noise, in raw counts,
	// added to every channel after the static window. Seed makes it
	// reproducible.
	NoiseStd float64
	Seed     int64

	Calibration calibration.Params
}

// DefaultSyntheticParams mirrors the reference board: 100 Hz, mid-scale
// zero offsets and the board's gyro channel order.
func DefaultSyntheticParams() SyntheticParams {
	return SyntheticParams{
		Static:      10,
		Steps:       200,
		Dt:          0.01,
		GyroZero:    [3]float64{373.7, 375.6, 369.8},
		AccelZero:   [3]float64{510, 501, 503},
		GyroAxes:    [3]int{1, 2, 0},
		AccelAxes:   [3]int{0, 1, 2},
		Calibration: calibration.DefaultParams(),
	}
}

// Synthetic generates a trace whose ground truth is the exact integral of
// the commanded rate and whose accelerometer rows read gravity in the body
// frame.
func Synthetic(p SyntheticParams) *Trace {
	n := p.Static + p.Steps
	rng := rand.New(rand.NewSource(p.Seed))
	gyroScale := p.Calibration.GyroScale()
	accelScale := p.Calibration.AccelScale()
	gravity := p.Calibration.Gravity

	t := &Trace{
		Ts:   make([]float64, n),
		Vals: make([][]float64, 6),
		Rots: make([][]float64, n),
	}
	for row := range t.Vals {
		t.Vals[row] = make([]float64, n)
	}

	q := rotation.Identity()
	for i := 0; i < n; i++ {
		t.Ts[i] = float64(i) * p.Dt

		m := rotation.ToMatrix(q)
		t.Rots[i] = append([]float64(nil), m[:]...)

		var rate r3.Vector
		if i >= p.Static {
			rate = p.Rate
		}
		noise := func() float64 {
			if i < p.Static || p.NoiseStd == 0 {
				return 0
			}
			return rng.NormFloat64() * p.NoiseStd
		}

		body := [3]float64{rate.X, rate.Y, rate.Z}
		for axis, ch := range p.GyroAxes {
			t.Vals[3+ch][i] = p.GyroZero[ch] + body[axis]/gyroScale + noise()
		}

		a := rotation.Rotate(q.Conj(), gravity)
		acc := [3]float64{a.X, a.Y, a.Z}
		for axis, ch := range p.AccelAxes {
			sign := p.Calibration.AccelSign[ch]
			t.Vals[ch][i] = p.AccelZero[ch] + acc[axis]*sign/accelScale + noise()
		}

		q = rotation.Mul(q, rotation.FromRotationVector(rate.Mul(p.Dt))).Normalize()
	}
	return t
}
