package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/armdyn/internal/model"
	"github.com/san-kum/armdyn/internal/spatial"
)

// KineticEnergy returns ½·Σ vᵀ·I·v over the active bodies.
func (e *Engine) KineticEnergy(st *model.State) (float64, error) {
	if err := e.checkState("kinetic energy", st); err != nil {
		return 0, err
	}
	e.prepare(st)
	e.propagate(st, false, spatial.Vec6{})
	ke := 0.0
	for i := 0; i < e.tree.NumBodies(); i++ {
		b := e.tree.Body(i)
		if b.Inactive {
			continue
		}
		ke += 0.5 * e.v[i].Dot(b.Params.MulVec(e.v[i]))
	}
	return ke, nil
}

// PotentialEnergy returns the gravitational potential of the active bodies,
// zero at the world origin.
func (e *Engine) PotentialEnergy(st *model.State) (float64, error) {
	if err := e.checkState("potential energy", st); err != nil {
		return 0, err
	}
	e.worldPoses(st)
	pe := 0.0
	for i := 0; i < e.tree.NumBodies(); i++ {
		b := e.tree.Body(i)
		if b.Inactive || b.Params.Mass() == 0 {
			continue
		}
		rot, origin := e.world[i].Pose()
		com := origin.Add(rot.Mul3x1(b.Params.COM()))
		pe -= b.Params.Mass() * e.gravity.Dot(com)
	}
	return pe, nil
}

// Momentum returns the total spatial momentum of the active bodies in world
// coordinates about the world origin.
func (e *Engine) Momentum(st *model.State) (spatial.Vec6, error) {
	if err := e.checkState("momentum", st); err != nil {
		return spatial.Vec6{}, err
	}
	e.worldPoses(st)
	e.propagate(st, false, spatial.Vec6{})
	var h spatial.Vec6
	for i := 0; i < e.tree.NumBodies(); i++ {
		b := e.tree.Body(i)
		if b.Inactive {
			continue
		}
		h = h.Add(e.world[i].ApplyTransposeForce(b.Params.MulVec(e.v[i])))
	}
	return h, nil
}

// BodyPose returns the world orientation and origin of body b.
func (e *Engine) BodyPose(st *model.State, b int) (mgl64.Mat3, mgl64.Vec3) {
	e.worldPoses(st)
	return e.world[b].Pose()
}

func (e *Engine) worldPoses(st *model.State) {
	e.prepare(st)
	if e.worldOK {
		return
	}
	e.world[0] = e.xup[0]
	for i := 1; i < e.tree.NumBodies(); i++ {
		e.world[i] = e.world[e.tree.Parent(i)].Compose(e.xup[i])
	}
	e.worldOK = true
}
