// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration estimates gyroscope and accelerometer bias from the
// static warm-up window at the start of a recording and converts raw ADC
// counts to physical units.
//
// The window is assumed to be taken with the sensor at rest: zero rotation,
// and the accelerometer reading nothing but gravity.
package calibration

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/orientation_tracking/internal/imu"
)

// ErrInsufficientData is returned when fewer samples than the warm-up
// window are available.
var ErrInsufficientData = errors.New("insufficient data for calibration")

// Params are the hardware constants and window length used to build a
// Profile.
type Params struct {
	Vref             float64 // ADC reference voltage, mV
	ADCMax           float64 // full-scale ADC count
	GyroSensitivity  float64 // mV per °/s
	AccelSensitivity float64 // mV per g
	Window           int     // number of static samples averaged for bias

	// Gravity is the specific force (g) the accelerometer channels read at
	// rest, after sign correction.
	Gravity r3.Vector
	// AccelSign flips accelerometer channels whose positive direction is
	// mounted opposite to the body axis.
	AccelSign [3]float64
}

// DefaultParams returns the constants of the reference IMU board:
// 10-bit ADC at 3.3 V, 3.33 mV/(°/s) gyro and 300 mV/g accelerometer, with
// the x and y accelerometer channels mounted inverted.
func DefaultParams() Params {
	return Params{
		Vref:             3300,
		ADCMax:           1023,
		GyroSensitivity:  3.33,
		AccelSensitivity: 300,
		Window:           10,
		Gravity:          r3.Vector{Z: 1},
		AccelSign:        [3]float64{-1, -1, 1},
	}
}

// GyroScale is rad/s per raw gyro count.
func (p Params) GyroScale() float64 {
	return p.Vref / p.ADCMax / p.GyroSensitivity * (math.Pi / 180)
}

// AccelScale is g per raw accelerometer count.
func (p Params) AccelScale() float64 {
	return p.Vref / p.ADCMax / p.AccelSensitivity
}

// Validate checks the constants are usable.
func (p Params) Validate() error {
	if p.Vref <= 0 || p.ADCMax <= 0 {
		return errors.Errorf("calibration: Vref (%v) and ADCMax (%v) must be positive", p.Vref, p.ADCMax)
	}
	if p.GyroSensitivity <= 0 || p.AccelSensitivity <= 0 {
		return errors.Errorf("calibration: sensitivities must be positive, got gyro=%v accel=%v", p.GyroSensitivity, p.AccelSensitivity)
	}
	if p.Window < 1 {
		return errors.Errorf("calibration: window must be at least 1 sample, got %d", p.Window)
	}
	for i, s := range p.AccelSign {
		if s != 1 && s != -1 {
			return errors.Errorf("calibration: accel sign %d must be ±1, got %v", i, s)
		}
	}
	return nil
}

// Profile is the calibration computed once from the warm-up window. It is
// immutable after Compute returns.
type Profile struct {
	GyroBias  [3]float64 `json:"gyro_bias"`  // raw counts, channel order
	AccelBias [3]float64 `json:"accel_bias"` // raw counts, channel order

	// Standard deviation of the raw window; large values mean the sensor
	// was moving while the bias was taken.
	GyroStdDev  [3]float64 `json:"gyro_stddev"`
	AccelStdDev [3]float64 `json:"accel_stddev"`

	Vref            float64    `json:"vref"`
	GyroSensitivity float64    `json:"gyro_sensitivity"`
	GyroScale       float64    `json:"gyro_scale"`  // rad/s per count
	AccelScale      float64    `json:"accel_scale"` // g per count
	AccelSign       [3]float64 `json:"accel_sign"`
	Window          int        `json:"window"`
}

// Compute averages the first p.Window samples into a Profile.
func Compute(samples []imu.Sample, p Params) (Profile, error) {
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	if len(samples) < p.Window {
		return Profile{}, errors.Wrapf(ErrInsufficientData, "need %d samples, have %d", p.Window, len(samples))
	}

	window := samples[:p.Window]
	prof := Profile{
		Vref:            p.Vref,
		GyroSensitivity: p.GyroSensitivity,
		GyroScale:       p.GyroScale(),
		AccelScale:      p.AccelScale(),
		AccelSign:       p.AccelSign,
		Window:          p.Window,
	}

	gravity := [3]float64{p.Gravity.X, p.Gravity.Y, p.Gravity.Z}
	gyro := make([]float64, len(window))
	accel := make([]float64, len(window))
	for axis := 0; axis < 3; axis++ {
		for i, s := range window {
			gyro[i] = s.Gyro[axis]
			accel[i] = s.Accel[axis]
		}
		prof.GyroBias[axis], prof.GyroStdDev[axis] = meanStdDev(gyro)

		var mean float64
		mean, prof.AccelStdDev[axis] = meanStdDev(accel)
		// Remove the gravity component so a resting sensor reads Gravity.
		prof.AccelBias[axis] = mean - gravity[axis]*p.AccelSign[axis]/prof.AccelScale
	}
	return prof, nil
}

func meanStdDev(x []float64) (float64, float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	return stat.MeanStdDev(x, nil)
}

// AngularRate converts raw gyro counts to bias-corrected rad/s, per channel.
func (p Profile) AngularRate(raw [3]float64) [3]float64 {
	var out [3]float64
	for i := range raw {
		out[i] = (raw[i] - p.GyroBias[i]) * p.GyroScale
	}
	return out
}

// Acceleration converts raw accelerometer counts to bias-corrected g, per
// channel, with the mounting signs applied.
func (p Profile) Acceleration(raw [3]float64) [3]float64 {
	var out [3]float64
	for i := range raw {
		out[i] = p.AccelSign[i] * (raw[i] - p.AccelBias[i]) * p.AccelScale
	}
	return out
}

// Still reports whether every gyro channel varied by at most threshold raw
// counts during the warm-up window.
func (p Profile) Still(threshold float64) bool {
	for _, sd := range p.GyroStdDev {
		if sd > threshold {
			return false
		}
	}
	return true
}
