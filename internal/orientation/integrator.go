// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"github.com/relabs-tech/orientation_tracking/internal/calibration"
	"github.com/relabs-tech/orientation_tracking/internal/imu"
	"github.com/relabs-tech/orientation_tracking/internal/rotation"
)

// Integrator is the open-loop estimator: each step composes the running
// attitude with the exponential of the half-step gyro rotation vector.
// It has no correction, so gyro bias error shows up as drift.
type Integrator struct {
	profile calibration.Profile
	axes    AxisMap
	eps     float64
	q       rotation.Quaternion
}

// NewIntegrator starts at the identity attitude. eps <= 0 selects
// rotation.ExpEpsilon.
func NewIntegrator(profile calibration.Profile, axes AxisMap, eps float64) (*Integrator, error) {
	if err := axes.Validate(); err != nil {
		return nil, err
	}
	if eps <= 0 {
		eps = rotation.ExpEpsilon
	}
	return &Integrator{
		profile: profile,
		axes:    axes,
		eps:     eps,
		q:       rotation.Identity(),
	}, nil
}

// Step uses the gyro reading of cur over dt = next.Timestamp - cur.Timestamp.
// Degenerate input (NaN/Inf counts) is not masked: it propagates into the
// attitude and it is up to the caller to stop.
func (g *Integrator) Step(cur, next imu.Sample) (rotation.Quaternion, error) {
	dt := next.Timestamp - cur.Timestamp
	w := halfRotation(g.profile, g.axes, cur, dt)
	g.q = rotation.Mul(g.q, rotation.ExpWithEpsilon(w, g.eps)).Normalize()
	return g.q, nil
}

func (g *Integrator) Attitude() rotation.Quaternion {
	return g.q
}

func (g *Integrator) Reset() {
	g.q = rotation.Identity()
}
