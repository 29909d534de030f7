package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/orientation_tracking/internal/config"
	"github.com/relabs-tech/orientation_tracking/internal/trace"
)

func TestStillnessConfidence(t *testing.T) {
	assert.Equal(t, 1.0, stillnessConfidence([3]float64{1, 2, 3}))
	assert.Equal(t, confFloor, stillnessConfidence([3]float64{20, 20, 20}))
	assert.InDelta(t, 1-0.95*0.5, stillnessConfidence([3]float64{7.5, 7.5, 7.5}), 1e-12)
}

func TestRunCalibrationFromTrace(t *testing.T) {
	dir := t.TempDir()
	p := trace.DefaultSyntheticParams()
	p.Steps = 5
	tracePath := filepath.Join(dir, "trace.json")
	require.NoError(t, trace.Synthetic(p).Save(tracePath))

	name, err := RunCalibration(config.Default(), tracePath, filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, "_orientation_calibration.json"))

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	var rep CalibrationReport
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, tracePath, rep.Source)
	assert.Equal(t, 1.0, rep.Confidence)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, p.GyroZero[i], rep.Profile.GyroBias[i], 1e-9)
	}
	_, err = time.Parse(time.RFC3339, rep.Date)
	assert.NoError(t, err)
}

func TestRunMockConsole(t *testing.T) {
	cfg := config.Default()
	p := trace.DefaultSyntheticParams()
	p.Steps = 20
	p.Rate = r3.Vector{Z: 0.5}

	var out bytes.Buffer
	require.NoError(t, RunMockConsole(cfg, p, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, p.Static+p.Steps)
	assert.True(t, strings.HasPrefix(lines[0], "[EST ] #0"))
	assert.Contains(t, lines[0], "| [TRUE] #0")
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "RMSE (deg)"))
}
