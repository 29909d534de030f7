// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/relabs-tech/orientation_tracking/internal/calibration"
	"github.com/relabs-tech/orientation_tracking/internal/imu"
	"github.com/relabs-tech/orientation_tracking/internal/rotation"
)

// ErrNumericalInstability is returned when a covariance that must be
// positive definite cannot be factored. No regularization is attempted:
// the caller decides whether to inflate the noise or give up.
var ErrNumericalInstability = errors.New("numerical instability")

// FilterParams tune the sigma-point filter. Noise values are variances
// (rad² for process and initial covariance, g² for observation) applied
// isotropically.
type FilterParams struct {
	ProcessNoise      float64 `json:"process_noise" yaml:"process_noise"`
	ObservationNoise  float64 `json:"observation_noise" yaml:"observation_noise"`
	InitialCovariance float64 `json:"initial_covariance" yaml:"initial_covariance"`

	MeanMaxIterations int     `json:"mean_max_iterations" yaml:"mean_max_iterations"`
	MeanTolerance     float64 `json:"mean_tolerance" yaml:"mean_tolerance"`

	// ExpEpsilon is the exponential-map degeneracy threshold.
	ExpEpsilon float64 `json:"exp_epsilon" yaml:"exp_epsilon"`

	// Gravity is the reference direction of gravity's reaction in the
	// world frame, as an accelerometer at rest reads it.
	Gravity r3.Vector `json:"gravity" yaml:"gravity"`
}

// DefaultFilterParams returns the tuning of the reference recordings.
func DefaultFilterParams() FilterParams {
	return FilterParams{
		ProcessNoise:      1e-4,
		ObservationNoise:  1e-4,
		InitialCovariance: 1e-4,
		MeanMaxIterations: 20,
		MeanTolerance:     1e-9,
		ExpEpsilon:        rotation.ExpEpsilon,
		Gravity:           r3.Vector{Z: 1},
	}
}

// Validate checks the noise terms keep the covariances positive definite.
func (p FilterParams) Validate() error {
	if p.ProcessNoise < 0 {
		return errors.Errorf("filter: process noise must be >= 0, got %v", p.ProcessNoise)
	}
	if p.ObservationNoise <= 0 || p.InitialCovariance <= 0 {
		return errors.Errorf("filter: observation noise (%v) and initial covariance (%v) must be > 0",
			p.ObservationNoise, p.InitialCovariance)
	}
	if p.MeanMaxIterations < 1 {
		return errors.Errorf("filter: mean iterations must be >= 1, got %d", p.MeanMaxIterations)
	}
	if p.Gravity.Norm() == 0 {
		return errors.New("filter: gravity reference must be non-zero")
	}
	return nil
}

// FilterState is the filter's belief: a mean attitude and the covariance of
// the attitude error in the body-frame tangent space.
type FilterState struct {
	Mean       rotation.Quaternion
	Covariance *mat.SymDense
}

// Filter is a sigma-point (unscented) attitude filter. The gyro drives the
// process model; the accelerometer, read as the direction of gravity in the
// body frame, is the measurement.
type Filter struct {
	profile calibration.Profile
	axes    AxisMap
	params  FilterParams
	gravity r3.Vector

	q mat.Symmetric // process noise
	r mat.Symmetric // observation noise

	state FilterState
}

// NewFilter starts at the identity attitude with covariance
// InitialCovariance·I.
func NewFilter(profile calibration.Profile, axes AxisMap, params FilterParams) (*Filter, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := axes.Validate(); err != nil {
		return nil, err
	}
	if params.ExpEpsilon <= 0 {
		params.ExpEpsilon = rotation.ExpEpsilon
	}
	f := &Filter{
		profile: profile,
		axes:    axes,
		params:  params,
		gravity: params.Gravity.Normalize(),
		q:       scaledIdentity(params.ProcessNoise),
		r:       scaledIdentity(params.ObservationNoise),
	}
	f.Reset()
	return f, nil
}

func scaledIdentity(v float64) *mat.SymDense {
	return mat.NewSymDense(stateDim, []float64{
		v, 0, 0,
		0, v, 0,
		0, 0, v,
	})
}

func (f *Filter) Reset() {
	f.state = FilterState{
		Mean:       rotation.Identity(),
		Covariance: scaledIdentity(f.params.InitialCovariance),
	}
}

func (f *Filter) Attitude() rotation.Quaternion {
	return f.state.Mean
}

// State returns a copy of the current belief.
func (f *Filter) State() FilterState {
	cov := mat.NewSymDense(stateDim, nil)
	cov.CopySym(f.state.Covariance)
	return FilterState{Mean: f.state.Mean, Covariance: cov}
}

// SetState replaces the current belief.
func (f *Filter) SetState(s FilterState) error {
	if s.Covariance == nil || s.Covariance.SymmetricDim() != stateDim {
		return errors.Wrap(rotation.ErrInvalidArgument, "filter state covariance must be 3x3")
	}
	cov := mat.NewSymDense(stateDim, nil)
	cov.CopySym(s.Covariance)
	f.state = FilterState{Mean: s.Mean.Normalize(), Covariance: cov}
	return nil
}

// Step predicts with the gyro reading of cur over the interval to next and
// corrects with the accelerometer reading of next.
func (f *Filter) Step(cur, next imu.Sample) (rotation.Quaternion, error) {
	dt := next.Timestamp - cur.Timestamp
	delta := rotation.ExpWithEpsilon(halfRotation(f.profile, f.axes, cur, dt), f.params.ExpEpsilon)

	// Sigma offsets from P + Q.
	sigma, err := newSigmaSet(f.state.Covariance, f.q)
	if err != nil {
		return f.state.Mean, err
	}

	// Propagate each sigma attitude through the gyro step.
	points := make([]rotation.Quaternion, len(sigma.offsets))
	for i, w := range sigma.offsets {
		perturbed := rotation.Mul(f.state.Mean, rotation.FromRotationVector(w))
		points[i] = rotation.Mul(perturbed, delta).Normalize()
	}

	// Predicted mean and covariance.
	start := rotation.Mul(f.state.Mean, delta)
	mean, errs := quaternionMean(points, start, f.params.MeanMaxIterations, f.params.MeanTolerance)

	cw := sigma.covWeight()
	pPred := mat.NewDense(stateDim, stateDim, nil)
	for _, e := range errs {
		outer(pPred, cw, e, e)
	}

	// Predicted measurements: gravity seen from each sigma attitude.
	zs := make([]r3.Vector, len(points))
	var zMean r3.Vector
	for i, p := range points {
		zs[i] = rotation.Rotate(p.Conj(), f.gravity)
		zMean = zMean.Add(zs[i])
	}
	zMean = zMean.Mul(sigma.meanWeight())

	pzz := mat.NewDense(stateDim, stateDim, nil)
	pxz := mat.NewDense(stateDim, stateDim, nil)
	for i, z := range zs {
		dz := z.Sub(zMean)
		outer(pzz, cw, dz, dz)
		outer(pxz, cw, errs[i], dz)
	}
	var pvvSum mat.Dense
	pvvSum.Add(pzz, f.r)
	pvv := symmetrize(&pvvSum)

	accel := f.axes.accel(f.profile.Acceleration(next.Accel))
	if accel.Norm() < f.params.ExpEpsilon {
		// No usable gravity direction; keep the prediction.
		f.state = FilterState{Mean: mean, Covariance: symmetrize(pPred)}
		return mean, nil
	}

	// Gain K = Pxz · Pvv⁻¹, solved as Kᵀ = Pvv⁻¹ · Pxzᵀ.
	var chol mat.Cholesky
	if ok := chol.Factorize(pvv); !ok {
		return f.state.Mean, errors.Wrap(ErrNumericalInstability, "innovation covariance is not positive definite")
	}
	var kt mat.Dense
	if err := chol.SolveTo(&kt, pxz.T()); err != nil {
		return f.state.Mean, errors.Wrap(ErrNumericalInstability, err.Error())
	}
	k := kt.T()

	// Update.
	innov := accel.Normalize().Sub(zMean)
	var corr mat.VecDense
	corr.MulVec(k, mat.NewVecDense(stateDim, []float64{innov.X, innov.Y, innov.Z}))
	correction := r3.Vector{X: corr.AtVec(0), Y: corr.AtVec(1), Z: corr.AtVec(2)}
	updated := rotation.Mul(mean, rotation.FromRotationVector(correction)).Normalize()

	var kpvv, kpk, pNew mat.Dense
	kpvv.Mul(k, pvv)
	kpk.Mul(&kpvv, &kt)
	pNew.Sub(pPred, &kpk)

	f.state = FilterState{Mean: updated, Covariance: symmetrize(&pNew)}
	return updated, nil
}
