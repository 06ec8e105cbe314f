package spatial

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec6 is a spatial vector, rotational part first.
type Vec6 [6]float64

// NewVec6 assembles a spatial vector from its rotational and linear parts.
func NewVec6(ang, lin mgl64.Vec3) Vec6 {
	return Vec6{ang[0], ang[1], ang[2], lin[0], lin[1], lin[2]}
}

// Angular returns the rotational part.
func (v Vec6) Angular() mgl64.Vec3 { return mgl64.Vec3{v[0], v[1], v[2]} }

// Linear returns the translational part.
func (v Vec6) Linear() mgl64.Vec3 { return mgl64.Vec3{v[3], v[4], v[5]} }

func (v Vec6) Add(o Vec6) Vec6 {
	for i := range v {
		v[i] += o[i]
	}
	return v
}

func (v Vec6) Sub(o Vec6) Vec6 {
	for i := range v {
		v[i] -= o[i]
	}
	return v
}

func (v Vec6) Scale(s float64) Vec6 {
	for i := range v {
		v[i] *= s
	}
	return v
}

// Dot is the plain inner product. Between a motion and a force vector it is power.
func (v Vec6) Dot(o Vec6) float64 {
	sum := 0.0
	for i := range v {
		sum += v[i] * o[i]
	}
	return sum
}

// IsFinite reports whether no component is NaN or Inf.
func (v Vec6) IsFinite() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// CrossMotion returns v ×m m, the spatial cross product acting on motion vectors.
func CrossMotion(v, m Vec6) Vec6 {
	w, vo := v.Angular(), v.Linear()
	mw, mv := m.Angular(), m.Linear()
	return NewVec6(w.Cross(mw), w.Cross(mv).Add(vo.Cross(mw)))
}

// CrossForce returns v ×* f, the spatial cross product acting on force vectors.
func CrossForce(v, f Vec6) Vec6 {
	w, vo := v.Angular(), v.Linear()
	n, fl := f.Angular(), f.Linear()
	return NewVec6(w.Cross(n).Add(vo.Cross(fl)), w.Cross(fl))
}

// Mat6 is a dense 6×6 matrix in row-major order.
type Mat6 [6][6]float64

// Ident6 returns the identity.
func Ident6() Mat6 {
	var m Mat6
	for i := 0; i < 6; i++ {
		m[i][i] = 1
	}
	return m
}

// MulVec returns m·v.
func (m *Mat6) MulVec(v Vec6) Vec6 {
	var out Vec6
	for i := 0; i < 6; i++ {
		s := 0.0
		for j := 0; j < 6; j++ {
			s += m[i][j] * v[j]
		}
		out[i] = s
	}
	return out
}

// Mul returns m·o.
func (m *Mat6) Mul(o *Mat6) Mat6 {
	var out Mat6
	for i := 0; i < 6; i++ {
		for k := 0; k < 6; k++ {
			a := m[i][k]
			if a == 0 {
				continue
			}
			for j := 0; j < 6; j++ {
				out[i][j] += a * o[k][j]
			}
		}
	}
	return out
}

func (m *Mat6) Add(o *Mat6) {
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			m[i][j] += o[i][j]
		}
	}
}

func (m *Mat6) Transpose() Mat6 {
	var out Mat6
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			out[j][i] = m[i][j]
		}
	}
	return out
}

// Col returns column j.
func (m *Mat6) Col(j int) Vec6 {
	var v Vec6
	for i := 0; i < 6; i++ {
		v[i] = m[i][j]
	}
	return v
}

// SetCol overwrites column j.
func (m *Mat6) SetCol(j int, v Vec6) {
	for i := 0; i < 6; i++ {
		m[i][j] = v[i]
	}
}

// Skew returns the 3×3 cross-product matrix of v, so that Skew(v)·u = v×u.
func Skew(v mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{0, -v[2], v[1]},
		mgl64.Vec3{v[2], 0, -v[0]},
		mgl64.Vec3{-v[1], v[0], 0},
	)
}
