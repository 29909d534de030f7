// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package rotation holds the quaternion algebra used by the orientation
// estimators: Hamilton product, exponential/logarithmic maps and the
// conversions to and from rotation matrices and Euler angles.
//
// Quaternions are stored in (w, x, y, z) order on top of gonum's quat.Number
// (Real = w, Imag = x, Jmag = y, Kmag = z). A quaternion q rotates a body-frame
// vector v into the world frame as q ⊗ v ⊗ q*.
package rotation

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// ErrInvalidArgument is returned for quaternions or matrices built from a
// slice with the wrong number of elements.
var ErrInvalidArgument = errors.New("invalid argument")

// ExpEpsilon is the rotation-vector magnitude below which Exp returns the
// identity quaternion instead of dividing by a vanishing norm.
const ExpEpsilon = 1e-12

// Quaternion is a (not necessarily unit) quaternion.
type Quaternion quat.Number

// Identity returns the quaternion [1, 0, 0, 0].
func Identity() Quaternion {
	return Quaternion{Real: 1}
}

// New builds a quaternion from its scalar and vector components.
func New(w, x, y, z float64) Quaternion {
	return Quaternion{Real: w, Imag: x, Jmag: y, Kmag: z}
}

// FromSlice builds a quaternion from a 4-element (w, x, y, z) slice.
func FromSlice(v []float64) (Quaternion, error) {
	if len(v) != 4 {
		return Quaternion{}, errors.Wrapf(ErrInvalidArgument, "quaternion needs 4 elements, got %d", len(v))
	}
	return New(v[0], v[1], v[2], v[3]), nil
}

// Pure returns the quaternion [0, v].
func Pure(v r3.Vector) Quaternion {
	return Quaternion{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
}

func (q Quaternion) W() float64 { return q.Real }
func (q Quaternion) X() float64 { return q.Imag }
func (q Quaternion) Y() float64 { return q.Jmag }
func (q Quaternion) Z() float64 { return q.Kmag }

// Vector returns the vector part of q.
func (q Quaternion) Vector() r3.Vector {
	return r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
}

// Array returns q as [w, x, y, z].
func (q Quaternion) Array() [4]float64 {
	return [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag}
}

// Mul returns the Hamilton product a ⊗ b. Composing rotations this way
// applies b in the body frame of a.
func Mul(a, b Quaternion) Quaternion {
	return Quaternion(quat.Mul(quat.Number(a), quat.Number(b)))
}

// Conj returns the conjugate [w, -v].
func (q Quaternion) Conj() Quaternion {
	return Quaternion(quat.Conj(quat.Number(q)))
}

// Norm returns the Euclidean norm of the four components.
func (q Quaternion) Norm() float64 {
	return quat.Abs(quat.Number(q))
}

// Normalize scales q to unit norm. A quaternion whose norm is below
// ExpEpsilon carries no usable direction and is replaced by the identity.
func (q Quaternion) Normalize() Quaternion {
	n := q.Norm()
	if n < ExpEpsilon {
		return Identity()
	}
	return Quaternion(quat.Scale(1/n, quat.Number(q)))
}

// Inverse returns q⁻¹. For unit quaternions this equals the conjugate.
func (q Quaternion) Inverse() Quaternion {
	n2 := q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag
	if n2 < ExpEpsilon*ExpEpsilon {
		return Identity()
	}
	return Quaternion(quat.Scale(1/n2, quat.Number(q.Conj())))
}

// Exp maps the pure quaternion [0, v] to [cos|v|, sin|v| v/|v|].
// v is the half-angle rotation vector: the result rotates by 2|v| about v.
func Exp(v r3.Vector) Quaternion {
	return ExpWithEpsilon(v, ExpEpsilon)
}

// ExpWithEpsilon is Exp with a caller supplied degeneracy threshold.
func ExpWithEpsilon(v r3.Vector, eps float64) Quaternion {
	if v.Norm() < eps {
		return Identity()
	}
	return Quaternion(quat.Exp(quat.Number(Pure(v))))
}

// Log is the inverse of Exp for unit quaternions. The sign of q is chosen so
// the result describes the shortest arc (|Log(q)| <= pi/2).
func Log(q Quaternion) r3.Vector {
	q = q.Normalize()
	if q.Real < 0 {
		q = Quaternion(quat.Scale(-1, quat.Number(q)))
	}
	return Quaternion(quat.Log(quat.Number(q))).Vector()
}

// FromRotationVector returns the unit quaternion rotating by |v| radians
// about v.
func FromRotationVector(v r3.Vector) Quaternion {
	return Exp(v.Mul(0.5))
}

// RotationVector returns the axis-angle vector (radians) of q, the inverse
// of FromRotationVector.
func RotationVector(q Quaternion) r3.Vector {
	return Log(q).Mul(2)
}

// Rotate returns q ⊗ [0, v] ⊗ q*, the body-frame vector v expressed in the
// world frame. q must be a unit quaternion.
func Rotate(q Quaternion, v r3.Vector) r3.Vector {
	return Mul(Mul(q, Pure(v)), q.Conj()).Vector()
}

// Angle returns the rotation angle in [0, pi] between two orientations.
func Angle(a, b Quaternion) float64 {
	return RotationVector(Mul(a.Inverse(), b)).Norm()
}

// FromEuler returns the quaternion for static-axis x-y-z Euler angles,
// i.e. R = Rz(yaw)·Ry(pitch)·Rx(roll).
func FromEuler(roll, pitch, yaw float64) Quaternion {
	qx := Exp(r3.Vector{X: roll / 2})
	qy := Exp(r3.Vector{Y: pitch / 2})
	qz := Exp(r3.Vector{Z: yaw / 2})
	return Mul(qz, Mul(qy, qx))
}

// ToEuler returns the static-axis x-y-z Euler angles of q. It uses the same
// extraction as Matrix.Euler so quaternion and matrix inputs compare directly.
func ToEuler(q Quaternion) (roll, pitch, yaw float64) {
	return ToMatrix(q).Euler()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// IsFinite reports whether every component of q is a finite number.
func (q Quaternion) IsFinite() bool {
	return isFinite(q.Real) && isFinite(q.Imag) && isFinite(q.Jmag) && isFinite(q.Kmag)
}
