// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package orientation turns calibrated IMU samples into a sequence of
// orientation estimates. Two interchangeable estimators are provided: a
// plain gyro integrator and a sigma-point filter that corrects the
// integrated attitude with the accelerometer's view of gravity.
package orientation

import (
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/relabs-tech/orientation_tracking/internal/calibration"
	"github.com/relabs-tech/orientation_tracking/internal/imu"
	"github.com/relabs-tech/orientation_tracking/internal/rotation"
)

// Estimator advances an orientation estimate by one sample interval.
type Estimator interface {
	// Step integrates the interval from cur to next and returns the new
	// attitude (body to world).
	Step(cur, next imu.Sample) (rotation.Quaternion, error)
	// Attitude returns the current attitude without advancing.
	Attitude() rotation.Quaternion
	// Reset returns the estimator to the identity attitude.
	Reset()
}

// Kind selects an Estimator implementation.
type Kind string

const (
	KindIntegrator Kind = "integrator"
	KindFilter     Kind = "ukf"
)

// ParseKind accepts "integrator", "gyro", "ukf" or "filter" (any case).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "integrator", "gyro":
		return KindIntegrator, nil
	case "ukf", "filter":
		return KindFilter, nil
	}
	return "", errors.Wrapf(rotation.ErrInvalidArgument, "unknown estimator %q", s)
}

// NewEstimator builds the estimator named by kind.
func NewEstimator(kind Kind, profile calibration.Profile, axes AxisMap, params FilterParams) (Estimator, error) {
	switch kind {
	case KindIntegrator:
		g, err := NewIntegrator(profile, axes, params.ExpEpsilon)
		if err != nil {
			return nil, err
		}
		return g, nil
	case KindFilter:
		return NewFilter(profile, axes, params)
	}
	return nil, errors.Wrapf(rotation.ErrInvalidArgument, "unknown estimator %q", kind)
}

// halfRotation returns the bias-corrected half-angle rotation vector of the
// interval starting at cur and lasting dt seconds:
// w = 0.5 * (raw - bias) * scale * dt, remapped to body axes.
func halfRotation(profile calibration.Profile, axes AxisMap, cur imu.Sample, dt float64) r3.Vector {
	rate := axes.gyro(profile.AngularRate(cur.Gyro))
	return rate.Mul(0.5 * dt)
}
