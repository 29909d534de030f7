// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"github.com/relabs-tech/orientation_tracking/internal/rotation"
)

// Pose is the Euler-angle view of an orientation, in radians, using the
// static x-y-z convention of rotation.ToEuler.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// PoseFromQuaternion returns the Euler angles of q.
func PoseFromQuaternion(q rotation.Quaternion) Pose {
	r, p, y := rotation.ToEuler(q)
	return Pose{Roll: r, Pitch: p, Yaw: y}
}

// PoseFromMatrix returns the Euler angles of a ground-truth rotation matrix.
func PoseFromMatrix(m rotation.Matrix) Pose {
	r, p, y := m.Euler()
	return Pose{Roll: r, Pitch: p, Yaw: y}
}

// Degrees returns p converted to degrees.
func (p Pose) Degrees() Pose {
	return Pose{
		Roll:  p.Roll * 180.0 / math.Pi,
		Pitch: p.Pitch * 180.0 / math.Pi,
		Yaw:   p.Yaw * 180.0 / math.Pi,
	}
}

// wrapAngle maps a to (-pi, pi].
func wrapAngle(a float64) float64 {
	return math.Atan2(math.Sin(a), math.Cos(a))
}
