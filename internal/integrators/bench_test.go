package integrators

import (
	"testing"

	"github.com/san-kum/armdyn/internal/sim"
)

func benchmarkIntegrator(b *testing.B, integ sim.Integrator) {
	sys := &oscillator{}
	x := sim.State{1.0, 0.0}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integ.Step(sys, x, nil, 0, 0.01)
	}
}

func BenchmarkEuler(b *testing.B)             { benchmarkIntegrator(b, NewEuler()) }
func BenchmarkRK4(b *testing.B)               { benchmarkIntegrator(b, NewRK4()) }
func BenchmarkSemiImplicitEuler(b *testing.B) { benchmarkIntegrator(b, NewSemiImplicitEuler()) }
