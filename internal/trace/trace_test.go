package trace

import (
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/orientation_tracking/internal/calibration"
	"github.com/relabs-tech/orientation_tracking/internal/rotation"
)

func TestSyntheticLayout(t *testing.T) {
	p := DefaultSyntheticParams()
	p.Rate = r3.Vector{X: 0.4}
	tr := Synthetic(p)

	samples, err := tr.Samples()
	require.NoError(t, err)
	truth, err := tr.Truth()
	require.NoError(t, err)
	require.Len(t, samples, p.Static+p.Steps)
	require.Len(t, truth, p.Static+p.Steps)

	// Body x is gyro channel 1, i.e. log row 4.
	moving := samples[p.Static].Gyro
	assert.InDelta(t, p.GyroZero[0], moving[0], 1e-9)
	assert.InDelta(t, p.GyroZero[1]+0.4/p.Calibration.GyroScale(), moving[1], 1e-9)
	assert.InDelta(t, p.GyroZero[2], moving[2], 1e-9)

	// Ground truth starts at identity and rolls about x.
	assert.Equal(t, rotation.ToMatrix(rotation.Identity()), truth[0])
	r, _, _ := truth[len(truth)-1].Euler()
	assert.InDelta(t, 0.4*float64(p.Steps-1)*p.Dt, r, 1e-9)
}

func TestSyntheticStaticWindowCalibrates(t *testing.T) {
	p := DefaultSyntheticParams()
	p.Rate = r3.Vector{Z: 1}
	p.NoiseStd = 3
	samples, err := Synthetic(p).Samples()
	require.NoError(t, err)

	prof, err := calibration.Compute(samples, p.Calibration)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, p.GyroZero[i], prof.GyroBias[i], 1e-9)
		assert.InDelta(t, p.AccelZero[i], prof.AccelBias[i], 1e-9)
	}
	assert.True(t, prof.Still(1e-9))
}

func TestSaveLoad(t *testing.T) {
	p := DefaultSyntheticParams()
	p.Steps = 5
	p.Rate = r3.Vector{Y: 0.2}
	tr := Synthetic(p)

	path := filepath.Join(t.TempDir(), "trace.json")
	require.NoError(t, tr.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, tr.Ts, loaded.Ts)
	assert.Len(t, loaded.Vals, 6)
	assert.Len(t, loaded.Rots, len(tr.Rots))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	tr := &Trace{Ts: []float64{0}, Vals: make([][]float64, 6), Rots: [][]float64{{1, 0, 0}}}
	_, err = tr.Truth()
	require.ErrorIs(t, err, rotation.ErrInvalidArgument)
}
