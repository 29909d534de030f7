package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/orientation_tracking/internal/calibration"
	"github.com/relabs-tech/orientation_tracking/internal/orientation"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultMatchesCore(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())
	assert.Equal(t, calibration.DefaultParams(), cfg.CalibrationParams())
	assert.Equal(t, orientation.DefaultFilterParams(), cfg.FilterParams())
	assert.Equal(t, orientation.DefaultAxisMap(), cfg.AxisMap())

	kind, err := cfg.EstimatorKind()
	require.NoError(t, err)
	assert.Equal(t, orientation.KindFilter, kind)
}

func TestLoadText(t *testing.T) {
	path := writeFile(t, "orientation_config.txt", `
# board
VREF=3000
GYRO_SENSITIVITY = 2.5
CALIBRATION_WINDOW=20
GYRO_AXIS_MAP=2, 0, 1
ACCEL_AXIS_SIGN=1,1,-1
GRAVITY=0,0,-1

ESTIMATOR=integrator
PROCESS_NOISE=1e-3
MQTT_BROKER=tcp://broker:1883
PUBLISH_INTERVAL=10
LOG_LEVEL=DEBUG
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3000.0, cfg.Vref)
	assert.Equal(t, 2.5, cfg.GyroSensitivity)
	assert.Equal(t, 20, cfg.CalibrationWindow)
	assert.Equal(t, [3]int{2, 0, 1}, cfg.GyroAxisMap)
	assert.Equal(t, [3]float64{1, 1, -1}, cfg.AccelAxisSign)
	assert.Equal(t, r3.Vector{Z: -1}, cfg.FilterParams().Gravity)
	assert.Equal(t, 1e-3, cfg.ProcessNoise)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTTBroker)
	assert.Equal(t, 10, cfg.PublishInterval)
	assert.Equal(t, "debug", cfg.LogLevel)

	// Untouched keys keep their defaults.
	assert.Equal(t, Default().ADCMax, cfg.ADCMax)
	assert.Equal(t, Default().TopicPoseTruth, cfg.TopicPoseTruth)

	kind, err := cfg.EstimatorKind()
	require.NoError(t, err)
	assert.Equal(t, orientation.KindIntegrator, kind)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "orientation.yaml", `
VREF: 3000
gyro_axis_map: "1,2,0"
ESTIMATOR: ukf
OBSERVATION_NOISE: 0.01
WEB_SERVER_PORT: 9000
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, cfg.Vref)
	assert.Equal(t, [3]int{1, 2, 0}, cfg.GyroAxisMap)
	assert.Equal(t, 0.01, cfg.ObservationNoise)
	assert.Equal(t, 9000, cfg.WebServerPort)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		msg     string
	}{
		{"no equals", "VREF 3300\n", "invalid config line 1"},
		{"unknown key", "FOO=1\n", "unknown config key"},
		{"bad float", "\nVREF=abc\n", "config line 2"},
		{"short triple", "GYRO_AXIS_MAP=1,2\n", "3 comma-separated"},
		{"duplicate channel", "GYRO_AXIS_MAP=1,1,0\n", "GYRO_AXIS_MAP"},
		{"bad sign", "ACCEL_AXIS_SIGN=1,0.5,1\n", "accel sign"},
		{"bad estimator", "ESTIMATOR=kalman\n", "ESTIMATOR"},
		{"zero window", "CALIBRATION_WINDOW=0\n", "window"},
		{"zero observation noise", "OBSERVATION_NOISE=0\n", "observation noise"},
		{"zero port", "WEB_SERVER_PORT=0\n", "WEB_SERVER_PORT"},
		{"port out of range", "WEB_SERVER_PORT=70000\n", "WEB_SERVER_PORT"},
		{"negative baud", "SERIAL_BAUD_RATE=-9600\n", "SERIAL_BAUD_RATE"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "c.txt", tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestGlobal(t *testing.T) {
	path := writeFile(t, "c.txt", "WEB_SERVER_PORT=8181\n")
	require.NoError(t, InitGlobal(path))
	require.NotNil(t, Get())
	assert.Equal(t, 8181, Get().WebServerPort)

	// Later calls are no-ops.
	require.NoError(t, InitGlobal("does-not-exist.txt"))
	assert.Equal(t, 8181, Get().WebServerPort)
}
