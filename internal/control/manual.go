package control

import "github.com/san-kum/armdyn/internal/sim"

// Manual adds an operator torque offset to the output of another controller.
// The dashboard uses it to push on individual joints.
type Manual struct {
	Inner  sim.Controller
	Offset []float64
}

func NewManual(inner sim.Controller, dim int) *Manual {
	return &Manual{
		Inner:  inner,
		Offset: make([]float64, dim),
	}
}

// Nudge adds delta to the offset of joint j.
func (m *Manual) Nudge(j int, delta float64) {
	if j < 0 || j >= len(m.Offset) {
		return
	}
	m.Offset[j] += delta
}

// Clear zeroes the offset.
func (m *Manual) Clear() {
	for i := range m.Offset {
		m.Offset[i] = 0
	}
}

func (m *Manual) Compute(x sim.State, t float64) sim.Control {
	u := make(sim.Control, len(m.Offset))
	if m.Inner != nil {
		copy(u, m.Inner.Compute(x, t))
	}
	for i, v := range m.Offset {
		u[i] += v
	}
	return u
}
