// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"io"

	"github.com/pkg/errors"
)

// Channels is the number of rows in a channel-major IMU log:
// rows 0-2 accelerometer, rows 3-5 gyroscope.
const Channels = 6

// ErrInvalidTrace is returned for logs that do not have the 6-row layout,
// have rows of different length, or whose timestamps do not increase.
var ErrInvalidTrace = errors.New("invalid imu trace")

// Sample represents a single raw IMU sample, in sensor-native units.
// Gyro keeps the gyroscope rows in channel order (rows 3, 4, 5); mapping
// channels to body axes is the estimator's job.
type Sample struct {
	Timestamp float64 `json:"ts"` // seconds

	Accel [3]float64 `json:"accel"` // rows 0-2
	Gyro  [3]float64 `json:"gyro"`  // rows 3-5
}

// SampleSource is anything that produces samples one at a time.
// Implementations return io.EOF once exhausted.
type SampleSource interface {
	Next() (Sample, error)
}

// FromChannelMajor converts a 6-row channel-major array plus a parallel
// timestamp array into samples.
func FromChannelMajor(vals [][]float64, ts []float64) ([]Sample, error) {
	if len(vals) != Channels {
		return nil, errors.Wrapf(ErrInvalidTrace, "expected %d channel rows, got %d", Channels, len(vals))
	}
	n := len(ts)
	for row, v := range vals {
		if len(v) != n {
			return nil, errors.Wrapf(ErrInvalidTrace, "row %d has %d samples, timestamps have %d", row, len(v), n)
		}
	}

	samples := make([]Sample, n)
	for i := 0; i < n; i++ {
		if i > 0 && ts[i] <= ts[i-1] {
			return nil, errors.Wrapf(ErrInvalidTrace, "timestamp %d (%.6f) does not increase from %.6f", i, ts[i], ts[i-1])
		}
		samples[i] = Sample{
			Timestamp: ts[i],
			Accel:     [3]float64{vals[0][i], vals[1][i], vals[2][i]},
			Gyro:      [3]float64{vals[3][i], vals[4][i], vals[5][i]},
		}
	}
	return samples, nil
}

// SliceSource replays pre-loaded samples.
type SliceSource struct {
	samples []Sample
	pos     int
}

func NewSliceSource(samples []Sample) *SliceSource {
	return &SliceSource{samples: samples}
}

func (s *SliceSource) Next() (Sample, error) {
	if s.pos >= len(s.samples) {
		return Sample{}, io.EOF
	}
	smp := s.samples[s.pos]
	s.pos++
	return smp, nil
}

// Take reads up to n samples from src. It stops early, without error, when
// src reports io.EOF.
func Take(src SampleSource, n int) ([]Sample, error) {
	out := make([]Sample, 0, n)
	for len(out) < n {
		smp, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, err
		}
		out = append(out, smp)
	}
	return out, nil
}
