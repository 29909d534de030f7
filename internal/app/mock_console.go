// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"time"

	"github.com/relabs-tech/orientation_tracking/internal/config"
	"github.com/relabs-tech/orientation_tracking/internal/orientation"
	"github.com/relabs-tech/orientation_tracking/internal/trace"
)

// consoleSink prints every step with its ground truth, one line each.
func consoleSink(w io.Writer, interval time.Duration) orientation.Sink {
	return orientation.SinkFunc(func(st orientation.Step) error {
		est := PoseMessage{Index: st.Index, Timestamp: st.Timestamp, Pose: st.Estimated}
		truth := PoseMessage{Index: st.Index, Timestamp: st.Timestamp, Pose: st.Truth}
		if _, err := fmt.Fprintf(w, "%s | %s\n", formatPose("EST ", est), formatPose("TRUE", truth)); err != nil {
			return err
		}
		if interval > 0 {
			time.Sleep(interval)
		}
		return nil
	})
}

// RunMockConsole replays a synthetic trace through the configured estimator
// and prints it to w, without MQTT.
func RunMockConsole(cfg *config.Config, p trace.SyntheticParams, w io.Writer) error {
	p.Calibration = cfg.CalibrationParams()
	interval := time.Duration(cfg.PublishInterval) * time.Millisecond

	seq, err := Replay(cfg, trace.Synthetic(p), consoleSink(w, interval))
	if err != nil {
		return err
	}
	rmse := seq.RMSE().Degrees()
	_, err = fmt.Fprintf(w, "RMSE (deg)  ROLL=%.3f  PITCH=%.3f  YAW=%.3f\n", rmse.Roll, rmse.Pitch, rmse.Yaw)
	return err
}
