package integrators

import "github.com/san-kum/armdyn/internal/sim"

// Euler is the explicit first-order method. It is mostly useful as a
// reference for the other integrators. Systems implementing sim.Retractor
// take the step themselves, so a floating base orientation turns about its
// angular velocity instead of leaving the unit sphere.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys sim.System, x sim.State, u sim.Control, t float64, dt float64) sim.State {
	dx := sys.Derive(x, u, t)
	result := make(sim.State, len(x))
	if r, ok := sys.(sim.Retractor); ok {
		r.Retract(result, x, dx, dt)
		return result
	}
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
