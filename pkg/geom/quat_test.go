package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func TestFromUnitVectorsMapsFromOntoTo(t *testing.T) {
	cases := []struct {
		name string
		to   Vec3
	}{
		{"x", UnitX},
		{"z", UnitZ},
		{"same", UnitY},
		{"diagonal", Vec3{1, 1, 1}.Normalize()},
		{"near-antiparallel", Vec3{1e-7, -1, 0}.Normalize()},
		{"water bond", Vec3{-0.2396, 0.9266, 0}.Normalize()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := FromUnitVectors(UnitY, tc.to)
			require.True(t, q.IsFinite())
			assert.InDelta(t, 1.0, q.Length(), tol)
			got := q.Rotate(UnitY)
			assert.True(t, got.ApproxEqual(tc.to, 1e-6), "got %v want %v", got, tc.to)
		})
	}
}

func TestFromUnitVectorsAntiParallel(t *testing.T) {
	down := Vec3{0, -1, 0}
	q := FromUnitVectors(UnitY, down)
	require.True(t, q.IsFinite())
	assert.True(t, q.Rotate(UnitY).ApproxEqual(down, tol))

	// Deterministic: same input, same quaternion.
	assert.Equal(t, q, FromUnitVectors(UnitY, down))

	// Anti-parallel along X falls back to the Z-based axis.
	qx := FromUnitVectors(UnitX, Vec3{-1, 0, 0})
	require.True(t, qx.IsFinite())
	assert.True(t, qx.Rotate(UnitX).ApproxEqual(Vec3{-1, 0, 0}, tol))
}

func TestFromUnitVectorsZeroInput(t *testing.T) {
	assert.Equal(t, Identity, FromUnitVectors(UnitY, Vec3{}))
}

func TestQuatMulComposes(t *testing.T) {
	a := FromAxisAngle(UnitZ, math.Pi/2)
	b := FromAxisAngle(UnitX, math.Pi/2)
	v := Vec3{1, 2, 3}
	composed := a.Mul(b).Rotate(v)
	stepwise := a.Rotate(b.Rotate(v))
	assert.True(t, composed.ApproxEqual(stepwise, tol))
}

func TestConjugateInverts(t *testing.T) {
	q := FromUnitVectors(UnitY, Vec3{3, -4, 12}.Normalize())
	v := Vec3{0.5, -2, 7}
	assert.True(t, q.Conjugate().Rotate(q.Rotate(v)).ApproxEqual(v, tol))
}

func TestVecBasics(t *testing.T) {
	a := Vec3{1, 2, 2}
	assert.InDelta(t, 3.0, a.Length(), tol)
	assert.Equal(t, Vec3{0.5, 1, 1}, a.Midpoint(Vec3{}))
	assert.Equal(t, UnitZ, UnitX.Cross(UnitY))
	assert.Equal(t, Vec3{}, Vec3{}.Normalize())
	assert.False(t, Vec3{math.NaN(), 0, 0}.IsFinite())
	assert.InDelta(t, 3.0, a.Distance(Vec3{}), tol)
}

func TestEulerZYXReconstructs(t *testing.T) {
	cases := []Quat{
		Identity,
		FromUnitVectors(UnitY, Vec3{1, 1, 1}.Normalize()),
		FromUnitVectors(UnitY, Vec3{0, -1, 0}),
		FromAxisAngle(UnitY, math.Pi/2), // gimbal lock
		FromAxisAngle(Vec3{1, 2, 3}.Normalize(), 2.1),
	}
	v := Vec3{0.3, -1.7, 2.2}
	for i, q := range cases {
		x, y, z := q.EulerZYX()
		r := FromAxisAngle(UnitZ, z).Mul(FromAxisAngle(UnitY, y)).Mul(FromAxisAngle(UnitX, x))
		assert.True(t, r.Rotate(v).ApproxEqual(q.Rotate(v), 1e-6), "case %d", i)
	}
}

func TestMatrixMatchesRotate(t *testing.T) {
	q := FromAxisAngle(Vec3{-1, 0.5, 2}.Normalize(), 0.8)
	m := q.Matrix()
	v := Vec3{1, 2, 3}
	got := Vec3{
		m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
	assert.True(t, got.ApproxEqual(q.Rotate(v), tol))
}
