package geom

import "math"

// Quat is a rotation quaternion (X, Y, Z vector part, W scalar part).
type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Identity is the no-op rotation.
var Identity = Quat{W: 1}

// parallelEpsilon bounds 1+dot below which two unit vectors are treated as
// anti-parallel.
const parallelEpsilon = 1e-12

// FromUnitVectors returns the shortest-arc rotation taking unit vector from
// onto unit vector to. When the vectors are anti-parallel the arc is not
// unique; the rotation is then a half turn about a deterministic axis
// orthogonal to from (from × X, or from × Z when from lies along X).
// Zero-length inputs yield the identity.
func FromUnitVectors(from, to Vec3) Quat {
	if from.Length() == 0 || to.Length() == 0 {
		return Identity
	}
	r := from.Dot(to) + 1
	if r < parallelEpsilon {
		axis := from.Cross(UnitX)
		if axis.Length() < 1e-6 {
			axis = from.Cross(UnitZ)
		}
		axis = axis.Normalize()
		return Quat{X: axis.X, Y: axis.Y, Z: axis.Z, W: 0}
	}
	c := from.Cross(to)
	return Quat{X: c.X, Y: c.Y, Z: c.Z, W: r}.Normalize()
}

// FromAxisAngle returns the rotation of angle radians about axis.
func FromAxisAngle(axis Vec3, angle float64) Quat {
	a := axis.Normalize()
	s := math.Sin(angle / 2)
	return Quat{X: a.X * s, Y: a.Y * s, Z: a.Z * s, W: math.Cos(angle / 2)}
}

// Length returns the quaternion norm.
func (q Quat) Length() float64 {
	return math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

// Normalize returns q scaled to unit norm.
func (q Quat) Normalize() Quat {
	l := q.Length()
	if l == 0 {
		return Identity
	}
	return Quat{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

// Conjugate returns the inverse of a unit quaternion.
func (q Quat) Conjugate() Quat {
	return Quat{-q.X, -q.Y, -q.Z, q.W}
}

// Mul returns the Hamilton product q*o (apply o first, then q).
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// IsFinite reports whether no component is NaN or ±Inf.
func (q Quat) IsFinite() bool {
	return isFinite(q.X) && isFinite(q.Y) && isFinite(q.Z) && isFinite(q.W)
}

// Matrix returns the 3x3 rotation matrix of the normalized quaternion,
// indexed [row][col].
func (q Quat) Matrix() [3][3]float64 {
	q = q.Normalize()
	x, y, z, w := q.X, q.Y, q.Z, q.W
	return [3][3]float64{
		{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w)},
		{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w)},
		{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y)},
	}
}

// EulerZYX decomposes the rotation into angles (radians) such that the
// rotation equals Rz(z) * Ry(y) * Rx(x). At gimbal lock x is fixed to 0.
func (q Quat) EulerZYX() (x, y, z float64) {
	m := q.Matrix()
	cy := math.Hypot(m[2][1], m[2][2])
	y = math.Atan2(-m[2][0], cy)
	if cy < 1e-9 {
		return 0, y, math.Atan2(-m[0][1], m[1][1])
	}
	return math.Atan2(m[2][1], m[2][2]), y, math.Atan2(m[1][0], m[0][0])
}
