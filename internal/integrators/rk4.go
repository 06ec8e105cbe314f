package integrators

import "github.com/san-kum/armdyn/internal/sim"

// RK4 is the classical fourth-order Runge-Kutta method. Each step costs four
// forward dynamics evaluations.
type RK4 struct {
	k1, k2, k3, k4 sim.State
	scratch        sim.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(sim.State, n)
		r.k2 = make(sim.State, n)
		r.k3 = make(sim.State, n)
		r.k4 = make(sim.State, n)
		r.scratch = make(sim.State, n)
	}
}

// stage evaluates the derivative at x + h·k into dst.
func (r *RK4) stage(sys sim.System, dst, x, k sim.State, h float64, u sim.Control, t float64) {
	for i := range x {
		r.scratch[i] = x[i] + h*k[i]
	}
	copy(dst, sys.Derive(r.scratch, u, t))
}

func (r *RK4) Step(sys sim.System, x sim.State, u sim.Control, t, dt float64) sim.State {
	n := len(x)
	r.ensureScratch(n)

	copy(r.k1, sys.Derive(x, u, t))
	r.stage(sys, r.k2, x, r.k1, dt/2, u, t+dt/2)
	r.stage(sys, r.k3, x, r.k2, dt/2, u, t+dt/2)
	r.stage(sys, r.k4, x, r.k3, dt, u, t+dt)

	result := make(sim.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
	return result
}
