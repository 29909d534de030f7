// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/relabs-tech/orientation_tracking/internal/rotation"
)

// AxisMap says which sensor channel feeds each body axis. Index 0 is the
// body x axis, 1 is y, 2 is z; the value is the channel (0-2) within the
// gyro or accelerometer block of a sample.
//
// The reference board has its gyroscope mounted so that channel 0 (log row
// 3) measures z, channel 1 (row 4) measures x and channel 2 (row 5)
// measures y. That is a quirk of that board, hence the map.
type AxisMap struct {
	Gyro  [3]int `json:"gyro" yaml:"gyro"`
	Accel [3]int `json:"accel" yaml:"accel"`
}

// DefaultAxisMap returns the mapping of the reference board.
func DefaultAxisMap() AxisMap {
	return AxisMap{
		Gyro:  [3]int{1, 2, 0},
		Accel: [3]int{0, 1, 2},
	}
}

// Validate checks both maps are permutations of {0, 1, 2}.
func (a AxisMap) Validate() error {
	for name, m := range map[string][3]int{"gyro": a.Gyro, "accel": a.Accel} {
		var seen [3]bool
		for axis, ch := range m {
			if ch < 0 || ch > 2 {
				return errors.Wrapf(rotation.ErrInvalidArgument, "%s axis %d maps to channel %d", name, axis, ch)
			}
			if seen[ch] {
				return errors.Wrapf(rotation.ErrInvalidArgument, "%s channel %d mapped twice", name, ch)
			}
			seen[ch] = true
		}
	}
	return nil
}

func (a AxisMap) gyro(ch [3]float64) r3.Vector {
	return r3.Vector{X: ch[a.Gyro[0]], Y: ch[a.Gyro[1]], Z: ch[a.Gyro[2]]}
}

func (a AxisMap) accel(ch [3]float64) r3.Vector {
	return r3.Vector{X: ch[a.Accel[0]], Y: ch[a.Accel[1]], Z: ch[a.Accel[2]]}
}
