package control

import "github.com/san-kum/armdyn/internal/sim"

// Passive applies no actuation. A positive Damping adds viscous joint
// friction, τ = −Damping·q̇, read from the velocity block of the state.
type Passive struct {
	Damping float64

	layout sim.Layout
}

func NewPassive(layout sim.Layout, damping float64) *Passive {
	return &Passive{Damping: damping, layout: layout}
}

func (p *Passive) Compute(x sim.State, t float64) sim.Control {
	u := make(sim.Control, p.layout.DOF)
	if p.Damping == 0 || len(x) != p.layout.Dim() {
		return u
	}
	v := x[p.layout.PositionDim():]
	for j := range u {
		u[j] = -p.Damping * v[j]
	}
	return u
}

func (p *Passive) GetParams() map[string]float64 {
	return map[string]float64{"Damping": p.Damping}
}

func (p *Passive) SetParam(name string, value float64) {
	if name == "Damping" && value >= 0 {
		p.Damping = value
	}
}
