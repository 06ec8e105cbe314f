package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/lapack/lapack64"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/armdyn/internal/model"
	"github.com/san-kum/armdyn/internal/spatial"
)

// maxCondition bounds the accepted condition number of a mass matrix, as
// estimated by reducedSystem.solve.
const maxCondition = 1e14

// BaseAccel is the acceleration of a floating base: Linear is the classical
// acceleration of the base origin in world coordinates, Angular the angular
// acceleration in base coordinates.
type BaseAccel struct {
	Linear  mgl64.Vec3
	Angular mgl64.Vec3
}

// ForwardDynamics computes joint accelerations qdd (and the base
// acceleration for a floating base) produced by the joint torques tau under
// gravity and the external wrenches w. The system is assembled with the
// composite rigid body method and solved by Cholesky factorization. Joints of
// inactive bodies are removed from the system and receive zero acceleration.
func (e *Engine) ForwardDynamics(st *model.State, w model.Wrenches, tau, qdd []float64) (BaseAccel, error) {
	const op = "forward dynamics"
	if err := e.checkState(op, st); err != nil {
		return BaseAccel{}, err
	}
	nd := e.tree.NumDOF()
	if err := checkLen(op, "tau", len(tau), nd); err != nil {
		return BaseAccel{}, err
	}
	if err := checkLen(op, "qdd", len(qdd), nd); err != nil {
		return BaseAccel{}, err
	}
	e.prepare(st)

	// Bias forces: everything but the accelerations being solved for.
	e.propagate(st, false, e.gravityAcceleration())
	e.forces(st, w, e.bias[:nd])
	floating := !e.tree.FixedBase()
	if floating {
		copy(e.bias[nd:], e.f[0][:])
	}
	e.massMatrix()

	e.active = e.active[:0]
	for j := 0; j < nd; j++ {
		qdd[j] = 0
		if e.tree.Body(e.tree.DOFBody(j)).IsActive() {
			e.active = append(e.active, j)
		}
	}
	if floating {
		for k := 0; k < 6; k++ {
			e.active = append(e.active, nd+k)
		}
	}
	m := len(e.active)
	if m == 0 {
		return BaseAccel{}, nil
	}

	sys := e.system(m)
	for r, gr := range e.active {
		for c := r; c < m; c++ {
			sys.h.SetSym(r, c, e.h.At(gr, e.active[c]))
		}
		rhs := -e.bias[gr]
		if gr < nd {
			rhs += tau[gr]
		}
		sys.rhs.SetVec(r, rhs)
	}
	if err := sys.solve(op); err != nil {
		return BaseAccel{}, err
	}
	for r, gr := range e.active {
		if gr < nd {
			qdd[gr] = sys.x.AtVec(r)
		}
	}
	if !floating {
		return BaseAccel{}, nil
	}

	var a0 spatial.Vec6
	for k := 0; k < 6; k++ {
		a0[k] = sys.x.AtVec(m - 6 + k)
	}
	vLin := e.v[0].Linear()
	return BaseAccel{
		Linear:  e.baseRot.Mul3x1(a0.Linear().Add(st.Base.AngVel.Cross(vLin))),
		Angular: a0.Angular(),
	}, nil
}

// MassMatrix assembles the joint-space inertia at the configuration in st.
// Rows and columns follow the joint order, followed by six base rows
// ([angular; linear], base coordinates) for a floating base.
func (e *Engine) MassMatrix(st *model.State) (*mat.SymDense, error) {
	if err := e.checkState("mass matrix", st); err != nil {
		return nil, err
	}
	if e.h == nil {
		return nil, &DynamicsError{Op: "mass matrix", Wrapped: errors.Wrap(ErrDimensionMismatch, "tree has no degrees of freedom")}
	}
	e.prepare(st)
	e.massMatrix()
	out := mat.NewSymDense(e.h.SymmetricDim(), nil)
	out.CopySym(e.h)
	return out, nil
}

// massMatrix fills e.h with the composite rigid body algorithm. Entries that
// couple joints on different chains are never written and stay zero.
func (e *Engine) massMatrix() {
	if e.h == nil {
		return
	}
	e.compositeInertia()
	nd := e.tree.NumDOF()
	floating := !e.tree.FixedBase()

	for d := 0; d < nd; d++ {
		i := e.tree.DOFBody(d)
		b := e.tree.Body(i)
		f := e.ic[i].MulVec(b.Subspace)
		e.h.SetSym(d, d, b.Subspace.Dot(f))
		for j := i; j != 0; {
			f = e.xup[j].ApplyTransposeForce(f)
			j = e.tree.Parent(j)
			if pb := e.tree.Body(j); pb.DOF >= 0 {
				e.h.SetSym(pb.DOF, d, pb.Subspace.Dot(f))
			}
		}
		if floating {
			for k := 0; k < 6; k++ {
				e.h.SetSym(nd+k, d, f[k])
			}
		}
	}
	if floating {
		for r := 0; r < 6; r++ {
			for c := r; c < 6; c++ {
				e.h.SetSym(nd+r, nd+c, e.ic[0][r][c])
			}
		}
	}
}

// solve factorizes h = UᵀU in place with LAPACK's Cholesky and substitutes
// twice. The condition number is estimated from the spread of U's diagonal,
// (max uᵢᵢ / min uᵢᵢ)², a lower bound that needs no workspace; gonum's
// Cholesky.Factorize allocates for its norm-based estimate on every call.
func (s *reducedSystem) solve(op string) error {
	u, ok := lapack64.Potrf(s.h.RawSymmetric())
	if !ok {
		return &DynamicsError{Op: op, Wrapped: errors.Wrap(ErrSingularMassMatrix, "not positive definite")}
	}
	lo, hi := math.Inf(1), 0.0
	for i := 0; i < u.N; i++ {
		d := u.Data[i*u.Stride+i]
		lo, hi = math.Min(lo, d), math.Max(hi, d)
	}
	if c := (hi / lo) * (hi / lo); math.IsNaN(c) || c > maxCondition {
		return &DynamicsError{Op: op, Wrapped: errors.Wrapf(ErrSingularMassMatrix, "condition number %g", c)}
	}

	s.x.CopyVec(s.rhs)
	x := s.x.RawVector()
	blas64.Trsv(blas.Trans, u, x)
	blas64.Trsv(blas.NoTrans, u, x)
	for i := 0; i < s.x.Len(); i++ {
		if v := s.x.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
			return &DynamicsError{Op: op, Wrapped: errors.Wrap(ErrSingularMassMatrix, "non-finite solution")}
		}
	}
	return nil
}
