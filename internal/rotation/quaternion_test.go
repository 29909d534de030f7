package rotation

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
)

const tolerance = 1e-9

func randomUnit(rng *rand.Rand) Quaternion {
	return New(rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()).Normalize()
}

func assertQuatInDelta(t *testing.T, want, got Quaternion, delta float64) {
	t.Helper()
	w, g := want.Array(), got.Array()
	for i := range w {
		assert.InDelta(t, w[i], g[i], delta, "component %d: want %v got %v", i, want, got)
	}
}

func TestMulAssociative(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		a, b, c := randomUnit(rng), randomUnit(rng), randomUnit(rng)
		assertQuatInDelta(t, Mul(Mul(a, b), c), Mul(a, Mul(b, c)), tolerance)
	}
}

func TestMulNotCommutative(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	a, b := randomUnit(rng), randomUnit(rng)
	ab, ba := Mul(a, b), Mul(b, a)
	diff := 0.0
	for i, v := range ab.Array() {
		diff += math.Abs(v - ba.Array()[i])
	}
	assert.Greater(t, diff, 1e-3)
}

func TestMulIdentity(t *testing.T) {
	q := New(0.5, 0.5, -0.5, 0.5)
	assertQuatInDelta(t, q, Mul(Identity(), q), tolerance)
	assertQuatInDelta(t, q, Mul(q, Identity()), tolerance)
	assertQuatInDelta(t, Identity(), Mul(q, q.Inverse()), tolerance)
}

func TestExp(t *testing.T) {
	t.Run("zero vector is identity", func(t *testing.T) {
		assert.Equal(t, Identity(), Exp(r3.Vector{}))
	})

	t.Run("below epsilon is identity", func(t *testing.T) {
		q := Exp(r3.Vector{X: 1e-14})
		assert.Equal(t, Identity(), q)
		assert.True(t, q.IsFinite())
	})

	t.Run("half angle convention", func(t *testing.T) {
		q := Exp(r3.Vector{Z: math.Pi / 4})
		assertQuatInDelta(t, New(math.Cos(math.Pi/4), 0, 0, math.Sin(math.Pi/4)), q, tolerance)
		assert.InDelta(t, 1, q.Norm(), tolerance)
	})
}

func TestLogInvertsExp(t *testing.T) {
	vs := []r3.Vector{
		{X: 0.1},
		{X: 0.3, Y: -0.2, Z: 0.7},
		{Y: 1.2},
		{X: -0.5, Y: 0.5, Z: -0.5},
	}
	for _, v := range vs {
		got := Log(Exp(v))
		assert.InDelta(t, v.X, got.X, tolerance)
		assert.InDelta(t, v.Y, got.Y, tolerance)
		assert.InDelta(t, v.Z, got.Z, tolerance)
	}
	assert.Equal(t, r3.Vector{}, Log(Identity()))
}

func TestRotationVectorShortestArc(t *testing.T) {
	q := FromRotationVector(r3.Vector{Z: 0.4})
	neg := New(-q.W(), -q.X(), -q.Y(), -q.Z())
	v := RotationVector(neg)
	assert.InDelta(t, 0.4, v.Z, tolerance)
	assert.InDelta(t, 0.4, Angle(Identity(), neg), tolerance)

	// Scale does not change the angle.
	a := FromEuler(0.1, 0.2, 0.3)
	b := Mul(a, q)
	scaled := Quaternion(quat.Scale(3, quat.Number(a)))
	assert.InDelta(t, 0.4, Angle(scaled, b), tolerance)
	assert.InDelta(t, 0.4, Angle(a, Quaternion(quat.Scale(0.5, quat.Number(b)))), tolerance)
}

func TestRotateMatchesMatrix(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	v := r3.Vector{X: 0.2, Y: -1.1, Z: 0.4}
	for i := 0; i < 20; i++ {
		q := randomUnit(rng)
		a := Rotate(q, v)
		b := ToMatrix(q).Apply(v)
		assert.InDelta(t, b.X, a.X, tolerance)
		assert.InDelta(t, b.Y, a.Y, tolerance)
		assert.InDelta(t, b.Z, a.Z, tolerance)
	}
}

func TestEulerRoundTrip(t *testing.T) {
	rolls := []float64{0, 0.1, 0.5, 1, 2, 3, -3, -2, -1, -0.5}
	pitches := []float64{0, 0.2, -0.5, 1, 1.4, -1.4, -0.2, 0.3, 0.7, -1}
	yaws := []float64{0, 1, 2, 3, -3, -2.5, -1, 0.1, 0.5, 1.5}

	for i := range rolls {
		q := FromEuler(rolls[i], pitches[i], yaws[i])
		r, p, y := ToEuler(q)
		assert.InDelta(t, rolls[i], r, 1e-9, "roll case %d", i)
		assert.InDelta(t, pitches[i], p, 1e-9, "pitch case %d", i)
		assert.InDelta(t, yaws[i], y, 1e-9, "yaw case %d", i)
	}
}

func TestEulerGimbalLock(t *testing.T) {
	// Rz(0.2)·Ry(pi/2)·Rx(0.3): only roll-yaw is observable at +90° pitch.
	s, c := math.Sincos(0.1)
	m := Matrix{
		0, s, c,
		0, c, -s,
		-1, 0, 0,
	}
	r, p, y := m.Euler()
	assert.InDelta(t, math.Pi/2, p, 1e-12)
	assert.Equal(t, 0.0, y)
	assert.InDelta(t, 0.1, r, 1e-12)
}

func TestMatrixEulerMatchesQuaternion(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 20; i++ {
		q := randomUnit(rng)
		m := ToMatrix(q)
		mr, mp, my := m.Euler()
		qr, qp, qy := ToEuler(q)
		assert.Equal(t, mr, qr)
		assert.Equal(t, mp, qp)
		assert.Equal(t, my, qy)
	}
}

func TestFromSlice(t *testing.T) {
	q, err := FromSlice([]float64{1, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, Identity(), q)

	_, err = FromSlice([]float64{1, 0, 0})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = MatrixFromSlice(make([]float64, 8))
	require.ErrorIs(t, err, ErrInvalidArgument)

	m, err := MatrixFromSlice([]float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	require.NoError(t, err)
	r, p, y := m.Euler()
	assert.Zero(t, r)
	assert.Zero(t, p)
	assert.Zero(t, y)
}

func TestNormalizeDegenerate(t *testing.T) {
	assert.Equal(t, Identity(), Quaternion{}.Normalize())
	assert.Equal(t, Identity(), Quaternion{}.Inverse())
}
