package integrators

import "github.com/san-kum/armdyn/internal/sim"

// SemiImplicitEuler advances velocities first and then moves positions with
// the new velocities. It needs one forward dynamics evaluation per step and
// keeps energy bounded over long runs. Systems that do not split into
// positions and velocities fall back to explicit Euler.
type SemiImplicitEuler struct {
	scratch sim.State
	rates   sim.State
}

func NewSemiImplicitEuler() *SemiImplicitEuler {
	return &SemiImplicitEuler{}
}

func (s *SemiImplicitEuler) Step(sys sim.System, x sim.State, u sim.Control, t, dt float64) sim.State {
	mech, ok := sys.(sim.Mechanical)
	if !ok {
		return NewEuler().Step(sys, x, u, t, dt)
	}
	n := len(x)
	if len(s.scratch) != n {
		s.scratch = make(sim.State, n)
		s.rates = make(sim.State, n)
	}
	p := mech.PositionDim()

	dx := sys.Derive(x, u, t)
	result := make(sim.State, n)
	copy(result[:p], x[:p])
	for i := p; i < n; i++ {
		result[i] = x[i] + dt*dx[i]
	}

	mech.PositionRate(result, s.rates)
	for i := 0; i < p; i++ {
		result[i] = x[i] + dt*s.rates[i]
	}
	return result
}
