package spatial

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/num/quat"
)

// RotX returns the rotation about x given a precomputed sine and cosine.
func RotX(s, c float64) mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{1, 0, 0},
		mgl64.Vec3{0, c, -s},
		mgl64.Vec3{0, s, c},
	)
}

// RotY returns the rotation about y given a precomputed sine and cosine.
func RotY(s, c float64) mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{c, 0, s},
		mgl64.Vec3{0, 1, 0},
		mgl64.Vec3{-s, 0, c},
	)
}

// RotZ returns the rotation about z given a precomputed sine and cosine.
func RotZ(s, c float64) mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{c, -s, 0},
		mgl64.Vec3{s, c, 0},
		mgl64.Vec3{0, 0, 1},
	)
}

// EulerXYZ returns Rx(rx)·Ry(ry)·Rz(rz).
func EulerXYZ(rx, ry, rz float64) mgl64.Mat3 {
	sx, cx := math.Sincos(rx)
	sy, cy := math.Sincos(ry)
	sz, cz := math.Sincos(rz)
	return RotX(sx, cx).Mul3(RotY(sy, cy)).Mul3(RotZ(sz, cz))
}

// QuatToMat converts a unit quaternion to the rotation matrix it represents.
// The quaternion is normalized first so that small integration drift does
// not leak into the rotation.
func QuatToMat(q quat.Number) mgl64.Mat3 {
	n := quat.Abs(q)
	if n == 0 {
		return mgl64.Ident3()
	}
	w, x, y, z := q.Real/n, q.Imag/n, q.Jmag/n, q.Kmag/n
	return mgl64.Mat3FromRows(
		mgl64.Vec3{1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y)},
		mgl64.Vec3{2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x)},
		mgl64.Vec3{2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y)},
	)
}

// QuatFromAxisAngle returns the unit quaternion rotating by angle about axis.
func QuatFromAxisAngle(axis mgl64.Vec3, angle float64) quat.Number {
	l := axis.Len()
	if l == 0 {
		return quat.Number{Real: 1}
	}
	axis = axis.Mul(1 / l)
	s, c := math.Sincos(angle / 2)
	return quat.Number{Real: c, Imag: s * axis[0], Jmag: s * axis[1], Kmag: s * axis[2]}
}

// QuatDerivative returns dq/dt for a body angular velocity w (body frame).
func QuatDerivative(q quat.Number, w mgl64.Vec3) quat.Number {
	return quat.Scale(0.5, quat.Mul(q, quat.Number{Imag: w[0], Jmag: w[1], Kmag: w[2]}))
}
