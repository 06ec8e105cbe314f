package spatial

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// NumParams is the number of inertial parameters per body.
const NumParams = 10

// Params holds the inertial parameters of a rigid body, expressed in the
// body frame about the body origin:
//
//	m, m·cx, m·cy, m·cz, Ixx, Ixy, Ixz, Iyy, Iyz, Izz
//
// Every dynamic quantity is linear in these ten numbers.
type Params [NumParams]float64

// ParamsFromCOM builds parameters from a mass, a centre of mass and an
// inertia tensor taken about the centre of mass, all in the body frame.
func ParamsFromCOM(mass float64, com mgl64.Vec3, ic mgl64.Mat3) Params {
	// Parallel axis: Ī = Ic + m(|c|²·1 − c·cᵀ)
	c2 := com.Dot(com)
	shift := func(i, j int) float64 {
		d := 0.0
		if i == j {
			d = c2
		}
		return mass * (d - com[i]*com[j])
	}
	return Params{
		mass,
		mass * com[0], mass * com[1], mass * com[2],
		ic.At(0, 0) + shift(0, 0),
		ic.At(0, 1) + shift(0, 1),
		ic.At(0, 2) + shift(0, 2),
		ic.At(1, 1) + shift(1, 1),
		ic.At(1, 2) + shift(1, 2),
		ic.At(2, 2) + shift(2, 2),
	}
}

// DiagInertia is a shorthand for a principal-axis inertia tensor.
func DiagInertia(ixx, iyy, izz float64) mgl64.Mat3 {
	return mgl64.Diag3(mgl64.Vec3{ixx, iyy, izz})
}

// Mass returns m.
func (p Params) Mass() float64 { return p[0] }

// FirstMoment returns h = m·c.
func (p Params) FirstMoment() mgl64.Vec3 { return mgl64.Vec3{p[1], p[2], p[3]} }

// COM returns the centre of mass, or the origin for a massless body.
func (p Params) COM() mgl64.Vec3 {
	if p[0] == 0 {
		return mgl64.Vec3{}
	}
	return p.FirstMoment().Mul(1 / p[0])
}

// RotationalInertia returns the symmetric 3×3 tensor about the body origin.
func (p Params) RotationalInertia() mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{p[4], p[5], p[6]},
		mgl64.Vec3{p[5], p[7], p[8]},
		mgl64.Vec3{p[6], p[8], p[9]},
	)
}

// IsZero reports whether all parameters vanish.
func (p Params) IsZero() bool {
	return p == Params{}
}

// IsFinite reports whether no parameter is NaN or Inf.
func (p Params) IsFinite() bool {
	for _, x := range p {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func (p Params) Add(o Params) Params {
	for i := range p {
		p[i] += o[i]
	}
	return p
}

// MulVec returns I·x for a motion vector x = [ω; u]:
//
//	[ Ī·ω + h×u ]
//	[ m·u − h×ω ]
func (p Params) MulVec(x Vec6) Vec6 {
	w, u := x.Angular(), x.Linear()
	h := p.FirstMoment()
	ang := p.RotationalInertia().Mul3x1(w).Add(h.Cross(u))
	lin := u.Mul(p[0]).Sub(h.Cross(w))
	return NewVec6(ang, lin)
}

// Matrix expands the parameters into the 6×6 spatial inertia.
func (p Params) Matrix() Mat6 {
	var out Mat6
	ib := p.RotationalInertia()
	hx := Skew(p.FirstMoment())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = ib.At(i, j)
			out[i][j+3] = hx.At(i, j)
			out[i+3][j] = -hx.At(i, j)
		}
		out[i+3][i+3] = p[0]
	}
	return out
}

// Regressor is a 6×10 block mapping inertial parameters to a spatial force.
type Regressor [6][NumParams]float64

// InertialRegressor returns Y with Y·p = I(p)·x.
func InertialRegressor(x Vec6) Regressor {
	wx, wy, wz := x[0], x[1], x[2]
	ux, uy, uz := x[3], x[4], x[5]
	return Regressor{
		{0, 0, uz, -uy, wx, wy, wz, 0, 0, 0},
		{0, -uz, 0, ux, 0, wx, 0, wy, wz, 0},
		{0, uy, -ux, 0, 0, 0, wx, 0, wy, wz},
		{ux, 0, -wz, wy, 0, 0, 0, 0, 0, 0},
		{uy, wz, 0, -wx, 0, 0, 0, 0, 0, 0},
		{uz, -wy, wx, 0, 0, 0, 0, 0, 0, 0},
	}
}

// BodyRegressor returns Y with Y·p = I(p)·a + v ×* (I(p)·v), the net spatial
// force of a body with velocity v and acceleration a.
func BodyRegressor(a, v Vec6) Regressor {
	ya := InertialRegressor(a)
	yv := InertialRegressor(v)
	for k := 0; k < NumParams; k++ {
		c := CrossForce(v, yv.Col(k))
		for i := 0; i < 6; i++ {
			ya[i][k] += c[i]
		}
	}
	return ya
}

// Col returns column k as a force vector.
func (y *Regressor) Col(k int) Vec6 {
	var v Vec6
	for i := 0; i < 6; i++ {
		v[i] = y[i][k]
	}
	return v
}

// SetCol overwrites column k.
func (y *Regressor) SetCol(k int, v Vec6) {
	for i := 0; i < 6; i++ {
		y[i][k] = v[i]
	}
}

// MulParams returns Y·p.
func (y *Regressor) MulParams(p Params) Vec6 {
	var out Vec6
	for i := 0; i < 6; i++ {
		s := 0.0
		for k := 0; k < NumParams; k++ {
			s += y[i][k] * p[k]
		}
		out[i] = s
	}
	return out
}

// TransposeForce maps every column through Xᵀ, moving the block from the
// child frame of x to its parent.
func (y Regressor) TransposeForce(x Transform) Regressor {
	for k := 0; k < NumParams; k++ {
		y.SetCol(k, x.ApplyTransposeForce(y.Col(k)))
	}
	return y
}
