package orientation

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/orientation_tracking/internal/calibration"
	"github.com/relabs-tech/orientation_tracking/internal/imu"
	"github.com/relabs-tech/orientation_tracking/internal/trace"
)

func TestSequenceRMSE(t *testing.T) {
	seq := NewSequence(2)
	assert.Equal(t, Pose{}, seq.RMSE())
	_, _, ok := seq.Last()
	assert.False(t, ok)

	seq.Append(Pose{Roll: 0.1, Yaw: math.Pi - 0.01}, Pose{Yaw: -math.Pi + 0.01})
	seq.Append(Pose{Roll: -0.1, Pitch: 0.2}, Pose{Pitch: 0.2})

	rmse := seq.RMSE()
	assert.InDelta(t, 0.1, rmse.Roll, 1e-12)
	assert.InDelta(t, 0, rmse.Pitch, 1e-12)
	// Differences wrap: pi-0.01 vs -pi+0.01 is 0.02 apart.
	assert.InDelta(t, 0.02/math.Sqrt2, rmse.Yaw, 1e-9)

	est, truth, ok := seq.Last()
	require.True(t, ok)
	assert.Equal(t, 0.2, est.Pitch)
	assert.Equal(t, 0.2, truth.Pitch)
	assert.Equal(t, 2, seq.Len())
}

func TestSequenceCopies(t *testing.T) {
	seq := NewSequence(0)
	seq.Append(Pose{Roll: 1}, Pose{Roll: 2})
	est := seq.Estimated()
	est[0].Roll = 5
	assert.Equal(t, 1.0, seq.Estimated()[0].Roll)
	assert.Equal(t, 2.0, seq.Truth()[0].Roll)
}

func TestRunSinksAndIndexing(t *testing.T) {
	p := trace.DefaultSyntheticParams()
	p.Steps = 20
	p.Rate = r3.Vector{Z: 1}
	rec := record(t, p)

	var steps []Step
	sink := SinkFunc(func(st Step) error {
		steps = append(steps, st)
		return nil
	})
	seq, err := Run(rec.samples, rec.truth[:15], mustIntegrator(t, rec.profile, DefaultAxisMap()), sink)
	require.NoError(t, err)

	// The shorter input bounds the run.
	require.Len(t, steps, 14)
	assert.Equal(t, 14, seq.Len())
	for i, st := range steps {
		assert.Equal(t, i, st.Index)
		assert.Equal(t, rec.samples[i+1].Timestamp, st.Timestamp)
		assert.Equal(t, PoseFromMatrix(rec.truth[i]), st.Truth)
		assert.Equal(t, PoseFromQuaternion(st.Attitude), st.Estimated)
	}
}

func TestRunSinkError(t *testing.T) {
	rec := record(t, trace.DefaultSyntheticParams())
	boom := errors.New("boom")
	calls := 0
	sink := SinkFunc(func(Step) error {
		calls++
		if calls == 3 {
			return boom
		}
		return nil
	})
	_, err := Run(rec.samples, rec.truth, mustIntegrator(t, rec.profile, DefaultAxisMap()), sink)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "step 2")
}

func TestRunHaltsOnNonFinite(t *testing.T) {
	rec := record(t, trace.DefaultSyntheticParams())
	samples := append([]imu.Sample(nil), rec.samples...)
	samples[5].Gyro[0] = math.NaN()

	seq, err := Run(samples, rec.truth, mustIntegrator(t, rec.profile, DefaultAxisMap()))
	require.ErrorIs(t, err, ErrNumericalInstability)
	assert.Contains(t, err.Error(), "step 5")
	assert.Equal(t, 5, seq.Len())
}

func TestRunTooShort(t *testing.T) {
	seq, err := Run(nil, nil, mustIntegrator(t, calibration.Profile{}, DefaultAxisMap()))
	require.NoError(t, err)
	assert.Equal(t, 0, seq.Len())
}

func TestPoseDegrees(t *testing.T) {
	deg := Pose{Roll: math.Pi, Pitch: math.Pi / 2}.Degrees()
	assert.InDelta(t, 180, deg.Roll, 1e-12)
	assert.InDelta(t, 90, deg.Pitch, 1e-12)
}
