// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package rotation

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// gimbalEpsilon is the cos(pitch) below which yaw and roll cannot be told
// apart; yaw is pinned to zero there.
const gimbalEpsilon = 4 * 2.220446049250313e-16

// Matrix is a 3x3 rotation matrix stored row-major.
type Matrix [9]float64

// MatrixFromSlice builds a Matrix from 9 row-major elements.
func MatrixFromSlice(v []float64) (Matrix, error) {
	var m Matrix
	if len(v) != 9 {
		return m, errors.Wrapf(ErrInvalidArgument, "rotation matrix needs 9 elements, got %d", len(v))
	}
	copy(m[:], v)
	return m, nil
}

// At returns element (row i, column j).
func (m Matrix) At(i, j int) float64 {
	return m[3*i+j]
}

// Apply returns m·v.
func (m Matrix) Apply(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		Y: m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		Z: m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

// ToMatrix returns the rotation matrix of q (normalized first).
func ToMatrix(q Quaternion) Matrix {
	q = q.Normalize()
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return Matrix{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}
}

// Euler returns the static-axis x-y-z angles (roll about x, pitch about y,
// yaw about z) such that m = Rz(yaw)·Ry(pitch)·Rx(roll).
//
// Output ranges: roll and yaw in (-pi, pi], pitch in [-pi/2, pi/2].
func (m Matrix) Euler() (roll, pitch, yaw float64) {
	cy := math.Hypot(m.At(0, 0), m.At(1, 0))
	if cy > gimbalEpsilon {
		roll = math.Atan2(m.At(2, 1), m.At(2, 2))
		pitch = math.Atan2(-m.At(2, 0), cy)
		yaw = math.Atan2(m.At(1, 0), m.At(0, 0))
		return roll, pitch, yaw
	}
	roll = math.Atan2(-m.At(1, 2), m.At(1, 1))
	pitch = math.Atan2(-m.At(2, 0), cy)
	return roll, pitch, 0
}
