// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"sync"
)

// Sequence collects the estimated and ground-truth poses of a run in two
// parallel, append-only slices. The estimation loop is the only writer;
// readers (web handlers, reports) may run concurrently.
type Sequence struct {
	mu        sync.RWMutex
	estimated []Pose
	truth     []Pose
}

// NewSequence preallocates room for capacity steps.
func NewSequence(capacity int) *Sequence {
	if capacity < 0 {
		capacity = 0
	}
	return &Sequence{
		estimated: make([]Pose, 0, capacity),
		truth:     make([]Pose, 0, capacity),
	}
}

// Append records one step.
func (s *Sequence) Append(est, truth Pose) {
	s.mu.Lock()
	s.estimated = append(s.estimated, est)
	s.truth = append(s.truth, truth)
	s.mu.Unlock()
}

// Consume makes Sequence a Sink.
func (s *Sequence) Consume(st Step) error {
	s.Append(st.Estimated, st.Truth)
	return nil
}

func (s *Sequence) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.estimated)
}

// Estimated returns a copy of the estimated poses.
func (s *Sequence) Estimated() []Pose {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Pose(nil), s.estimated...)
}

// Truth returns a copy of the ground-truth poses.
func (s *Sequence) Truth() []Pose {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Pose(nil), s.truth...)
}

// Last returns the most recent pair; ok is false while empty.
func (s *Sequence) Last() (est, truth Pose, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.estimated)
	if n == 0 {
		return Pose{}, Pose{}, false
	}
	return s.estimated[n-1], s.truth[n-1], true
}

// RMSE returns the per-axis root-mean-square difference between estimate
// and truth, with each difference wrapped to (-pi, pi]. It is zero for an
// empty sequence.
func (s *Sequence) RMSE() Pose {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.estimated)
	if n == 0 {
		return Pose{}
	}
	var sr, sp, sy float64
	for i := range s.estimated {
		dr := wrapAngle(s.estimated[i].Roll - s.truth[i].Roll)
		dp := wrapAngle(s.estimated[i].Pitch - s.truth[i].Pitch)
		dy := wrapAngle(s.estimated[i].Yaw - s.truth[i].Yaw)
		sr += dr * dr
		sp += dp * dp
		sy += dy * dy
	}
	fn := float64(n)
	return Pose{
		Roll:  math.Sqrt(sr / fn),
		Pitch: math.Sqrt(sp / fn),
		Yaw:   math.Sqrt(sy / fn),
	}
}
