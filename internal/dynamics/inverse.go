package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/armdyn/internal/model"
	"github.com/san-kum/armdyn/internal/spatial"
)

// BaseWrench is the wrench the world must apply to the base to produce the
// given motion, about the base origin in world axes. It is zero when the
// base motion is consistent with a free-floating base.
type BaseWrench struct {
	Torque mgl64.Vec3
	Force  mgl64.Vec3
}

// InverseDynamics computes the joint torques that produce the joint and base
// accelerations in st under gravity and the external wrenches w. tau must
// have one entry per joint.
func (e *Engine) InverseDynamics(st *model.State, w model.Wrenches, tau []float64) (BaseWrench, error) {
	const op = "inverse dynamics"
	if err := e.checkState(op, st); err != nil {
		return BaseWrench{}, err
	}
	if err := checkLen(op, "tau", len(tau), e.tree.NumDOF()); err != nil {
		return BaseWrench{}, err
	}
	e.prepare(st)
	e.propagate(st, true, e.baseAcceleration(st))
	e.forces(st, w, tau)
	return e.baseWrench(), nil
}

// GravityCompensation computes the torques that cancel gravity, Coriolis and
// centrifugal effects and the external wrenches at zero joint acceleration,
// from the measured positions and velocities in st. Commanded joint and base
// accelerations in st are ignored.
//
// With a floating base the base is left free: its acceleration is whatever
// the whole tree, moving rigidly with zero joint acceleration, would
// experience. That acceleration comes from the composite inertia of the
// tree, Ic0·Δa0 = −f0, followed by a second Newton-Euler pass.
func (e *Engine) GravityCompensation(st *model.State, w model.Wrenches, tau []float64) error {
	const op = "gravity compensation"
	if err := e.checkState(op, st); err != nil {
		return err
	}
	if err := checkLen(op, "tau", len(tau), e.tree.NumDOF()); err != nil {
		return err
	}
	e.prepare(st)
	a0 := e.gravityAcceleration()
	e.propagate(st, false, a0)
	e.forces(st, w, tau)
	if e.tree.FixedBase() {
		return nil
	}

	da, err := e.freeBaseAcceleration(op, e.f[0])
	if err != nil {
		return err
	}
	e.propagate(st, false, a0.Add(da))
	e.forces(st, w, tau)
	return nil
}

// BaseForce returns the net spatial force on the base from the last inverse
// dynamics pass, in base coordinates.
func (e *Engine) BaseForce() spatial.Vec6 {
	return e.f[0]
}

// forces runs the leaf-to-root Newton-Euler pass over the velocities and
// accelerations already in the workspace.
func (e *Engine) forces(st *model.State, w model.Wrenches, tau []float64) {
	n := e.tree.NumBodies()
	for i := 0; i < n; i++ {
		b := e.tree.Body(i)
		if b.Inactive {
			e.f[i] = spatial.Vec6{}
			continue
		}
		p := &b.Params
		e.f[i] = p.MulVec(e.a[i]).Add(spatial.CrossForce(e.v[i], p.MulVec(e.v[i])))
		if ext, ok := w[i]; ok {
			e.f[i] = e.f[i].Sub(ext)
		}
	}
	for _, i := range e.tree.Backward() {
		b := e.tree.Body(i)
		if b.DOF >= 0 {
			tau[b.DOF] = b.Subspace.Dot(e.f[i]) - st.Joints[b.DOF].Uex
		}
		if b.Parent >= 0 {
			e.f[b.Parent] = e.f[b.Parent].Add(e.xup[i].ApplyTransposeForce(e.f[i]))
		}
	}
}

func (e *Engine) baseWrench() BaseWrench {
	f := e.f[0]
	return BaseWrench{
		Torque: e.baseRot.Mul3x1(f.Angular()),
		Force:  e.baseRot.Mul3x1(f.Linear()),
	}
}

// compositeInertia accumulates the spatial inertia of every subtree, leaf to
// root, into e.ic.
func (e *Engine) compositeInertia() {
	n := e.tree.NumBodies()
	for i := 0; i < n; i++ {
		b := e.tree.Body(i)
		if b.Inactive {
			e.ic[i] = spatial.Mat6{}
			continue
		}
		e.ic[i] = b.Params.Matrix()
	}
	for _, i := range e.tree.Backward() {
		if p := e.tree.Parent(i); p >= 0 {
			moved := e.xup[i].InertiaToParent(&e.ic[i])
			e.ic[p].Add(&moved)
		}
	}
}

// freeBaseAcceleration solves Ic0·Δa = −f0 for the base acceleration that
// cancels the base force f0 with every joint held rigid.
func (e *Engine) freeBaseAcceleration(op string, f0 spatial.Vec6) (spatial.Vec6, error) {
	e.compositeInertia()
	sys := e.system(6)
	for r := 0; r < 6; r++ {
		for c := r; c < 6; c++ {
			sys.h.SetSym(r, c, e.ic[0][r][c])
		}
		sys.rhs.SetVec(r, -f0[r])
	}
	if err := sys.solve(op); err != nil {
		return spatial.Vec6{}, err
	}
	var da spatial.Vec6
	for r := 0; r < 6; r++ {
		da[r] = sys.x.AtVec(r)
	}
	return da, nil
}

// system returns the cached solver workspace of the given size.
func (e *Engine) system(n int) *reducedSystem {
	sys, ok := e.solver[n]
	if !ok {
		sys = &reducedSystem{
			h:   mat.NewSymDense(n, nil),
			rhs: mat.NewVecDense(n, nil),
			x:   mat.NewVecDense(n, nil),
		}
		e.solver[n] = sys
	}
	return sys
}
