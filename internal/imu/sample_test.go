package imu

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func channelRows(n int) [][]float64 {
	vals := make([][]float64, Channels)
	for row := range vals {
		vals[row] = make([]float64, n)
		for i := range vals[row] {
			vals[row][i] = float64(100*row + i)
		}
	}
	return vals
}

func TestFromChannelMajor(t *testing.T) {
	samples, err := FromChannelMajor(channelRows(3), []float64{0, 0.01, 0.02})
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, 0.01, samples[1].Timestamp)
	assert.Equal(t, [3]float64{1, 101, 201}, samples[1].Accel)
	assert.Equal(t, [3]float64{301, 401, 501}, samples[1].Gyro)
}

func TestFromChannelMajorRejects(t *testing.T) {
	tests := []struct {
		name string
		vals [][]float64
		ts   []float64
	}{
		{"too few rows", channelRows(2)[:5], []float64{0, 1}},
		{"ragged row", append(channelRows(2)[:5], []float64{1}), []float64{0, 1}},
		{"length mismatch", channelRows(3), []float64{0, 1}},
		{"repeated timestamp", channelRows(3), []float64{0, 1, 1}},
		{"decreasing timestamp", channelRows(3), []float64{0, 2, 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromChannelMajor(tc.vals, tc.ts)
			require.ErrorIs(t, err, ErrInvalidTrace)
		})
	}
}

func TestSliceSourceAndTake(t *testing.T) {
	samples, err := FromChannelMajor(channelRows(4), []float64{0, 1, 2, 3})
	require.NoError(t, err)

	src := NewSliceSource(samples)
	first, err := Take(src, 3)
	require.NoError(t, err)
	assert.Equal(t, samples[:3], first)

	rest, err := Take(src, 3)
	require.NoError(t, err)
	assert.Equal(t, samples[3:], rest)

	_, err = src.Next()
	assert.ErrorIs(t, err, io.EOF)
}
