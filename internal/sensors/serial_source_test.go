package sensors

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/orientation_tracking/internal/imu"
)

func TestParseLine(t *testing.T) {
	smp, err := ParseLine(" 0.01, 510,501,503, 373.5,375,369 ")
	require.NoError(t, err)
	assert.Equal(t, imu.Sample{
		Timestamp: 0.01,
		Accel:     [3]float64{510, 501, 503},
		Gyro:      [3]float64{373.5, 375, 369},
	}, smp)

	_, err = ParseLine("0.01,1,2,3")
	require.ErrorIs(t, err, imu.ErrInvalidTrace)

	_, err = ParseLine("0.01,1,2,3,4,5,x")
	require.ErrorIs(t, err, imu.ErrInvalidTrace)
}

func TestLineSource(t *testing.T) {
	src := NewLineSource(strings.NewReader(`# ts,a0,a1,a2,g0,g1,g2
0.00,510,501,503,373,375,369

0.01,511,500,503,374,375,370
0.02,512,499,504,374,376,370`))

	samples, err := imu.Take(src, 10)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, 0.02, samples[2].Timestamp)
	assert.Equal(t, [3]float64{374, 376, 370}, samples[2].Gyro)

	_, err = src.Next()
	assert.Equal(t, io.EOF, err)
	assert.NoError(t, src.Close())
}

func TestLineSourceRejectsBackwardsTime(t *testing.T) {
	src := NewLineSource(strings.NewReader("0.02,1,2,3,4,5,6\n0.01,1,2,3,4,5,6\n"))
	_, err := src.Next()
	require.NoError(t, err)
	_, err = src.Next()
	require.ErrorIs(t, err, imu.ErrInvalidTrace)
	assert.Contains(t, err.Error(), "line 2")
}
