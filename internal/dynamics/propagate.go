package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/armdyn/internal/model"
	"github.com/san-kum/armdyn/internal/spatial"
)

// Propagate computes the spatial velocity and acceleration of every body
// from the joint and base motion in st. Results are read back through
// Velocity and Acceleration.
func (e *Engine) Propagate(st *model.State) error {
	if err := e.checkState("propagate", st); err != nil {
		return err
	}
	e.prepare(st)
	e.propagate(st, true, e.baseAcceleration(st))
	return nil
}

// baseVelocity returns the base spatial velocity in base coordinates.
func (e *Engine) baseVelocity(st *model.State) spatial.Vec6 {
	if e.tree.FixedBase() {
		return spatial.Vec6{}
	}
	return spatial.NewVec6(st.Base.AngVel, e.baseRot.Transpose().Mul3x1(st.Base.Vel))
}

// gravityAcceleration is the fictitious base acceleration that stands in for
// gravity acting on every body.
func (e *Engine) gravityAcceleration() spatial.Vec6 {
	return spatial.NewVec6(mgl64.Vec3{}, e.baseRot.Transpose().Mul3x1(e.gravity).Mul(-1))
}

// baseAcceleration converts the classical base acceleration in st into a
// spatial one and adds gravity.
func (e *Engine) baseAcceleration(st *model.State) spatial.Vec6 {
	ag := e.gravityAcceleration()
	if e.tree.FixedBase() {
		return ag
	}
	rt := e.baseRot.Transpose()
	vLin := rt.Mul3x1(st.Base.Vel)
	lin := rt.Mul3x1(st.Base.Acc).Sub(st.Base.AngVel.Cross(vLin))
	return spatial.NewVec6(st.Base.AngAcc, lin).Add(ag)
}

// jointRate returns the velocity and acceleration seen by the recursion for
// body b. Inactive joints are locked.
func jointRate(b *model.Body, st *model.State, withAcc bool) (qd, qdd float64) {
	if b.DOF < 0 || b.Inactive {
		return 0, 0
	}
	js := &st.Joints[b.DOF]
	if withAcc {
		return js.Vel, js.Acc
	}
	return js.Vel, 0
}

// propagate runs the root-to-leaf pass. withAcc selects whether commanded
// joint accelerations are used or replaced by zero; a0 is the spatial base
// acceleration including gravity.
func (e *Engine) propagate(st *model.State, withAcc bool, a0 spatial.Vec6) {
	e.v[0] = e.baseVelocity(st)
	e.a[0] = a0
	n := e.tree.NumBodies()
	for i := 1; i < n; i++ {
		b := e.tree.Body(i)
		x := e.xup[i]
		qd, qdd := jointRate(b, st, withAcc)
		e.v[i] = x.ApplyMotion(e.v[b.Parent])
		e.a[i] = x.ApplyMotion(e.a[b.Parent])
		if b.DOF >= 0 {
			vj := b.Subspace.Scale(qd)
			e.v[i] = e.v[i].Add(vj)
			e.a[i] = e.a[i].Add(b.Subspace.Scale(qdd)).Add(spatial.CrossMotion(e.v[i], vj))
		}
	}
}
