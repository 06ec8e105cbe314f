package spatial

import "github.com/go-gl/mathgl/mgl64"

// Transform is a Plücker coordinate transform from a parent frame A to a
// child frame B.
//
// E rotates A coordinates into B coordinates and R is the origin of B
// expressed in A. The equivalent 6×6 matrix is
//
//	X = [ E       0 ]
//	    [ -E·r×   E ]
type Transform struct {
	E mgl64.Mat3
	R mgl64.Vec3
}

// Identity returns the transform between coincident frames.
func Identity() Transform {
	return Transform{E: mgl64.Ident3()}
}

// FromPose builds the transform into a child frame whose orientation in the
// parent is rot and whose origin sits at offset.
func FromPose(rot mgl64.Mat3, offset mgl64.Vec3) Transform {
	return Transform{E: rot.Transpose(), R: offset}
}

// Pose returns the child's orientation and origin in parent coordinates.
func (x Transform) Pose() (mgl64.Mat3, mgl64.Vec3) {
	return x.E.Transpose(), x.R
}

// ApplyMotion maps a motion vector from parent to child coordinates.
func (x Transform) ApplyMotion(m Vec6) Vec6 {
	w, v := m.Angular(), m.Linear()
	return NewVec6(x.E.Mul3x1(w), x.E.Mul3x1(v.Sub(x.R.Cross(w))))
}

// ApplyInverseMotion maps a motion vector from child to parent coordinates.
func (x Transform) ApplyInverseMotion(m Vec6) Vec6 {
	et := x.E.Transpose()
	w := et.Mul3x1(m.Angular())
	v := et.Mul3x1(m.Linear()).Add(x.R.Cross(w))
	return NewVec6(w, v)
}

// ApplyTransposeForce maps a force vector from child to parent coordinates (Xᵀf).
func (x Transform) ApplyTransposeForce(f Vec6) Vec6 {
	et := x.E.Transpose()
	fl := et.Mul3x1(f.Linear())
	n := et.Mul3x1(f.Angular()).Add(x.R.Cross(fl))
	return NewVec6(n, fl)
}

// Compose returns the transform A→C given x = A→B and next = B→C.
func (x Transform) Compose(next Transform) Transform {
	return Transform{
		E: next.E.Mul3(x.E),
		R: x.R.Add(x.E.Transpose().Mul3x1(next.R)),
	}
}

// Inverse returns the transform B→A.
func (x Transform) Inverse() Transform {
	return Transform{
		E: x.E.Transpose(),
		R: x.E.Mul3x1(x.R).Mul(-1),
	}
}

// Matrix expands the transform into its 6×6 motion form.
func (x Transform) Matrix() Mat6 {
	var out Mat6
	erx := x.E.Mul3(Skew(x.R)).Mul(-1)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = x.E.At(i, j)
			out[i+3][j+3] = x.E.At(i, j)
			out[i+3][j] = erx.At(i, j)
		}
	}
	return out
}

// InertiaToParent returns Xᵀ·I·X, the child inertia expressed in the parent frame.
func (x Transform) InertiaToParent(in *Mat6) Mat6 {
	xm := x.Matrix()
	xt := xm.Transpose()
	tmp := in.Mul(&xm)
	return xt.Mul(&tmp)
}
