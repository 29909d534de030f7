// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/orientation_tracking/internal/calibration"
	"github.com/relabs-tech/orientation_tracking/internal/orientation"
)

// Config holds all application configuration values.
type Config struct {
	// IMU board constants
	Vref              float64 // mV
	ADCMax            float64
	GyroSensitivity   float64 // mV per °/s
	AccelSensitivity  float64 // mV per g
	CalibrationWindow int     // samples

	// Channel mapping. GyroAxisMap[i] is the gyro channel feeding body axis i.
	GyroAxisMap   [3]int
	AccelAxisMap  [3]int
	AccelAxisSign [3]float64
	Gravity       [3]float64

	// Estimator
	Estimator         string // "integrator" or "ukf"
	ProcessNoise      float64
	ObservationNoise  float64
	InitialCovariance float64
	MeanMaxIterations int
	MeanTolerance     float64
	ExpEpsilon        float64

	// MQTT
	MQTTBroker        string
	MQTTClientID      string
	TopicPoseEstimate string
	TopicPoseTruth    string

	// Web Server
	WebServerPort int

	// Live serial source
	SerialPort     string
	SerialBaudRate int

	// Timing
	PublishInterval int // milliseconds between replayed steps, 0 = no pacing

	LogLevel string
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration of the reference board and recordings.
func Default() *Config {
	cal := calibration.DefaultParams()
	axes := orientation.DefaultAxisMap()
	fp := orientation.DefaultFilterParams()
	return &Config{
		Vref:              cal.Vref,
		ADCMax:            cal.ADCMax,
		GyroSensitivity:   cal.GyroSensitivity,
		AccelSensitivity:  cal.AccelSensitivity,
		CalibrationWindow: cal.Window,

		GyroAxisMap:   axes.Gyro,
		AccelAxisMap:  axes.Accel,
		AccelAxisSign: cal.AccelSign,
		Gravity:       [3]float64{cal.Gravity.X, cal.Gravity.Y, cal.Gravity.Z},

		Estimator:         string(orientation.KindFilter),
		ProcessNoise:      fp.ProcessNoise,
		ObservationNoise:  fp.ObservationNoise,
		InitialCovariance: fp.InitialCovariance,
		MeanMaxIterations: fp.MeanMaxIterations,
		MeanTolerance:     fp.MeanTolerance,
		ExpEpsilon:        fp.ExpEpsilon,

		MQTTBroker:        "tcp://localhost:1883",
		MQTTClientID:      "orientation-tracker",
		TopicPoseEstimate: "orientation/pose/estimate",
		TopicPoseTruth:    "orientation/pose/truth",

		WebServerPort: 8080,

		SerialPort:     "/dev/ttyUSB0",
		SerialBaudRate: 115200,

		LogLevel: "info",
	}
}

// Load reads the configuration file and returns a Config struct. Keys not
// present in the file keep their Default() value. Files ending in .yaml or
// .yml are read as a YAML mapping of the same keys; anything else is the
// KEY=VALUE text format.
func Load(configPath string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		return loadYAML(configPath)
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open config file")
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, errors.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, errors.Wrapf(err, "config line %d", lineNum)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadYAML(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open config file")
	}

	var values map[string]string
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, errors.Wrapf(err, "parse %s", configPath)
	}

	cfg := Default()
	for key, value := range values {
		if err := cfg.setValue(strings.ToUpper(key), strings.TrimSpace(value)); err != nil {
			return nil, errors.Wrapf(err, "config key %s", key)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// IMU board constants
	case "VREF":
		c.Vref, err = parseFloat(key, value)
	case "ADC_MAX":
		c.ADCMax, err = parseFloat(key, value)
	case "GYRO_SENSITIVITY":
		c.GyroSensitivity, err = parseFloat(key, value)
	case "ACCEL_SENSITIVITY":
		c.AccelSensitivity, err = parseFloat(key, value)
	case "CALIBRATION_WINDOW":
		c.CalibrationWindow, err = parseInt(key, value)

	// Channel mapping
	case "GYRO_AXIS_MAP":
		c.GyroAxisMap, err = parseIntTriple(key, value)
	case "ACCEL_AXIS_MAP":
		c.AccelAxisMap, err = parseIntTriple(key, value)
	case "ACCEL_AXIS_SIGN":
		c.AccelAxisSign, err = parseFloatTriple(key, value)
	case "GRAVITY":
		c.Gravity, err = parseFloatTriple(key, value)

	// Estimator
	case "ESTIMATOR":
		c.Estimator = value
	case "PROCESS_NOISE":
		c.ProcessNoise, err = parseFloat(key, value)
	case "OBSERVATION_NOISE":
		c.ObservationNoise, err = parseFloat(key, value)
	case "INITIAL_COVARIANCE":
		c.InitialCovariance, err = parseFloat(key, value)
	case "MEAN_MAX_ITERATIONS":
		c.MeanMaxIterations, err = parseInt(key, value)
	case "MEAN_TOLERANCE":
		c.MeanTolerance, err = parseFloat(key, value)
	case "EXP_EPSILON":
		c.ExpEpsilon, err = parseFloat(key, value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "TOPIC_POSE_ESTIMATE":
		c.TopicPoseEstimate = value
	case "TOPIC_POSE_TRUTH":
		c.TopicPoseTruth = value

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value)

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		c.SerialBaudRate, err = parseInt(key, value)

	// Timing
	case "PUBLISH_INTERVAL":
		c.PublishInterval, err = parseInt(key, value)

	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)

	default:
		return errors.Errorf("unknown config key: %q", key)
	}

	return err
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s %q", key, value)
	}
	return v, nil
}

func parseInt(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s %q", key, value)
	}
	return v, nil
}

func splitTriple(key, value string) ([3]string, error) {
	var out [3]string
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return out, errors.Errorf("%s must have 3 comma-separated values, got %q", key, value)
	}
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out, nil
}

func parseIntTriple(key, value string) ([3]int, error) {
	var out [3]int
	parts, err := splitTriple(key, value)
	if err != nil {
		return out, err
	}
	for i, p := range parts {
		if out[i], err = parseInt(key, p); err != nil {
			return out, err
		}
	}
	return out, nil
}

func parseFloatTriple(key, value string) ([3]float64, error) {
	var out [3]float64
	parts, err := splitTriple(key, value)
	if err != nil {
		return out, err
	}
	for i, p := range parts {
		if out[i], err = parseFloat(key, p); err != nil {
			return out, err
		}
	}
	return out, nil
}

// validate checks that the derived parameter sets are usable.
func (c *Config) validate() error {
	if err := c.CalibrationParams().Validate(); err != nil {
		return err
	}
	if err := c.AxisMap().Validate(); err != nil {
		return errors.Wrap(err, "GYRO_AXIS_MAP/ACCEL_AXIS_MAP")
	}
	if err := c.FilterParams().Validate(); err != nil {
		return err
	}
	if _, err := c.EstimatorKind(); err != nil {
		return errors.Wrap(err, "ESTIMATOR")
	}
	if c.PublishInterval < 0 {
		return errors.Errorf("PUBLISH_INTERVAL must be >= 0, got %d", c.PublishInterval)
	}
	if c.WebServerPort <= 0 || c.WebServerPort > 65535 {
		return errors.Errorf("WEB_SERVER_PORT must be in 1..65535, got %d", c.WebServerPort)
	}
	if c.SerialBaudRate <= 0 {
		return errors.Errorf("SERIAL_BAUD_RATE must be > 0, got %d", c.SerialBaudRate)
	}
	return nil
}

// CalibrationParams returns the hardware constants for calibration.Compute.
func (c *Config) CalibrationParams() calibration.Params {
	return calibration.Params{
		Vref:             c.Vref,
		ADCMax:           c.ADCMax,
		GyroSensitivity:  c.GyroSensitivity,
		AccelSensitivity: c.AccelSensitivity,
		Window:           c.CalibrationWindow,
		Gravity:          r3.Vector{X: c.Gravity[0], Y: c.Gravity[1], Z: c.Gravity[2]},
		AccelSign:        c.AccelAxisSign,
	}
}

// FilterParams returns the estimator tuning.
func (c *Config) FilterParams() orientation.FilterParams {
	return orientation.FilterParams{
		ProcessNoise:      c.ProcessNoise,
		ObservationNoise:  c.ObservationNoise,
		InitialCovariance: c.InitialCovariance,
		MeanMaxIterations: c.MeanMaxIterations,
		MeanTolerance:     c.MeanTolerance,
		ExpEpsilon:        c.ExpEpsilon,
		Gravity:           r3.Vector{X: c.Gravity[0], Y: c.Gravity[1], Z: c.Gravity[2]},
	}
}

func (c *Config) AxisMap() orientation.AxisMap {
	return orientation.AxisMap{Gyro: c.GyroAxisMap, Accel: c.AccelAxisMap}
}

func (c *Config) EstimatorKind() (orientation.Kind, error) {
	return orientation.ParseKind(c.Estimator)
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
