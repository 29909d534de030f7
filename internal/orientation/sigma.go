// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/relabs-tech/orientation_tracking/internal/rotation"
)

// stateDim is the dimension of the attitude error (tangent) space.
const stateDim = 3

// sigmaSet is a symmetric set of 2n tangent-space offsets ±κ·Lᵢ where
// L is the Cholesky factor of the spread matrix and κ = sqrt(2n).
//
// Outer products of the offsets are weighted by 1/(2κ²) so that the set
// reproduces the spread matrix exactly.
type sigmaSet struct {
	offsets []r3.Vector
	kappa   float64
}

func (s sigmaSet) meanWeight() float64 {
	return 1 / float64(len(s.offsets))
}

func (s sigmaSet) covWeight() float64 {
	return 1 / (2 * s.kappa * s.kappa)
}

// newSigmaSet factors S = P + Q and returns its sigma offsets. It fails
// with ErrNumericalInstability when S is not positive definite.
func newSigmaSet(p, q mat.Symmetric) (sigmaSet, error) {
	var s mat.SymDense
	s.AddSym(p, q)

	var chol mat.Cholesky
	if ok := chol.Factorize(&s); !ok {
		return sigmaSet{}, errors.Wrapf(ErrNumericalInstability, "P+Q is not positive definite:\n%v",
			mat.Formatted(&s, mat.Prefix(" ")))
	}
	var l mat.TriDense
	chol.LTo(&l)

	kappa := math.Sqrt(2 * stateDim)
	set := sigmaSet{
		offsets: make([]r3.Vector, 0, 2*stateDim),
		kappa:   kappa,
	}
	for i := 0; i < stateDim; i++ {
		col := r3.Vector{X: l.At(0, i), Y: l.At(1, i), Z: l.At(2, i)}.Mul(kappa)
		set.offsets = append(set.offsets, col, col.Mul(-1))
	}
	return set, nil
}

// quaternionMean computes the barycentric mean of unit quaternions on the
// rotation group by gradient descent from start: average the tangent
// errors around the current guess, step along that average, repeat until
// the step is below tol or maxIter iterations ran. It also returns each
// point's tangent error around the final mean.
func quaternionMean(points []rotation.Quaternion, start rotation.Quaternion, maxIter int, tol float64) (rotation.Quaternion, []r3.Vector) {
	mean := start.Normalize()
	errs := make([]r3.Vector, len(points))
	if len(points) == 0 {
		return mean, errs
	}
	n := float64(len(points))

	for it := 0; it < maxIter; it++ {
		var sum r3.Vector
		for i, p := range points {
			errs[i] = rotation.RotationVector(rotation.Mul(mean.Conj(), p))
			sum = sum.Add(errs[i])
		}
		step := sum.Mul(1 / n)
		mean = rotation.Mul(mean, rotation.FromRotationVector(step)).Normalize()
		if step.Norm() < tol {
			break
		}
	}

	for i, p := range points {
		errs[i] = rotation.RotationVector(rotation.Mul(mean.Conj(), p))
	}
	return mean, errs
}

// outer accumulates w·a·bᵀ into m.
func outer(m *mat.Dense, w float64, a, b r3.Vector) {
	av := [3]float64{a.X, a.Y, a.Z}
	bv := [3]float64{b.X, b.Y, b.Z}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, m.At(i, j)+w*av[i]*bv[j])
		}
	}
}

// symmetrize returns (m + mᵀ)/2 as a SymDense.
func symmetrize(m mat.Matrix) *mat.SymDense {
	r, _ := m.Dims()
	s := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			s.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}
	return s
}
