package control

import (
	"github.com/pkg/errors"

	"github.com/san-kum/armdyn/internal/dynamics"
	"github.com/san-kum/armdyn/internal/model"
	"github.com/san-kum/armdyn/internal/sim"
)

// Tunable controllers expose named gains for live adjustment.
type Tunable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64)
}

// GravityCompensation commands the torques that cancel gravity and velocity
// product terms at the measured state. With a floating base the base is left
// free, so the arms hold their shape while the whole platform falls.
type GravityCompensation struct {
	eng      *dynamics.Engine
	layout   sim.Layout
	st       *model.State
	wrenches model.Wrenches

	faults int
}

func NewGravityCompensation(eng *dynamics.Engine) (*GravityCompensation, error) {
	if eng == nil {
		return nil, errors.New("control: nil engine")
	}
	tree := eng.Tree()
	return &GravityCompensation{
		eng:    eng.Clone(),
		layout: sim.NewLayout(tree),
		st:     model.NewState(tree),
	}, nil
}

// SetWrenches sets the external wrenches the controller compensates.
func (g *GravityCompensation) SetWrenches(w model.Wrenches) { g.wrenches = w }

// Faults counts evaluations where the dynamics failed and zero torque was
// commanded instead.
func (g *GravityCompensation) Faults() int { return g.faults }

func (g *GravityCompensation) Compute(x sim.State, t float64) sim.Control {
	u := make(sim.Control, g.layout.DOF)
	g.computeInto(x, u)
	return u
}

func (g *GravityCompensation) computeInto(x sim.State, u sim.Control) {
	if len(x) != g.layout.Dim() {
		g.faults++
		return
	}
	g.layout.Unpack(x, g.st)
	if err := g.eng.GravityCompensation(g.st, g.wrenches, u); err != nil {
		g.faults++
		for i := range u {
			u[i] = 0
		}
	}
}
