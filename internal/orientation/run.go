// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"github.com/pkg/errors"

	"github.com/relabs-tech/orientation_tracking/internal/imu"
	"github.com/relabs-tech/orientation_tracking/internal/rotation"
)

// Step is the output of one estimation step.
type Step struct {
	Index     int                 `json:"index"`
	Timestamp float64             `json:"ts"`
	Attitude  rotation.Quaternion `json:"-"`
	Estimated Pose                `json:"estimated"`
	Truth     Pose                `json:"truth"`
}

// Sink receives every step as it is produced.
type Sink interface {
	Consume(Step) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Step) error

func (f SinkFunc) Consume(st Step) error { return f(st) }

// Run drives est over consecutive sample pairs (i, i+1) for
// i < min(len(samples), len(truth)) - 1, pairing each estimate with the
// ground truth at i. Every step goes to the returned Sequence and to sinks.
//
// The first failing step ends the run; the Sequence then holds the steps
// produced before it. A non-finite attitude is reported as
// ErrNumericalInstability rather than emitted.
func Run(samples []imu.Sample, truth []rotation.Matrix, est Estimator, sinks ...Sink) (*Sequence, error) {
	num := len(samples)
	if len(truth) < num {
		num = len(truth)
	}
	seq := NewSequence(num - 1)
	for i := 0; i < num-1; i++ {
		q, err := est.Step(samples[i], samples[i+1])
		if err != nil {
			return seq, errors.Wrapf(err, "step %d", i)
		}
		if !q.IsFinite() {
			return seq, errors.Wrapf(ErrNumericalInstability, "step %d: non-finite attitude %v", i, q.Array())
		}

		st := Step{
			Index:     i,
			Timestamp: samples[i+1].Timestamp,
			Attitude:  q,
			Estimated: PoseFromQuaternion(q),
			Truth:     PoseFromMatrix(truth[i]),
		}
		if err := seq.Consume(st); err != nil {
			return seq, err
		}
		for _, s := range sinks {
			if err := s.Consume(st); err != nil {
				return seq, errors.Wrapf(err, "step %d: sink", i)
			}
		}
	}
	return seq, nil
}
