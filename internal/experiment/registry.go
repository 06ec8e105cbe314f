package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/armdyn/internal/config"
	"github.com/san-kum/armdyn/internal/control"
	"github.com/san-kum/armdyn/internal/dynamics"
	"github.com/san-kum/armdyn/internal/integrators"
	"github.com/san-kum/armdyn/internal/metrics"
	"github.com/san-kum/armdyn/internal/sim"
)

// ControllerFactory builds a controller for an engine. The controller must
// not share the engine's workspace with the simulated system.
type ControllerFactory func(eng *dynamics.Engine, gains config.GainConfig, target []float64) (sim.Controller, error)

type Registry struct {
	integrators map[string]func() sim.Integrator
	controllers map[string]ControllerFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() sim.Integrator),
		controllers: make(map[string]ControllerFactory),
	}

	r.integrators["euler"] = func() sim.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() sim.Integrator { return integrators.NewRK4() }
	r.integrators["semi_implicit"] = func() sim.Integrator { return integrators.NewSemiImplicitEuler() }

	r.controllers["none"] = func(eng *dynamics.Engine, _ config.GainConfig, _ []float64) (sim.Controller, error) {
		return control.NewPassive(sim.NewLayout(eng.Tree()), 0), nil
	}
	r.controllers["damped"] = func(eng *dynamics.Engine, g config.GainConfig, _ []float64) (sim.Controller, error) {
		return control.NewPassive(sim.NewLayout(eng.Tree()), g.Kd), nil
	}
	r.controllers["gravcomp"] = func(eng *dynamics.Engine, _ config.GainConfig, _ []float64) (sim.Controller, error) {
		return control.NewGravityCompensation(eng)
	}
	r.controllers["hold"] = func(eng *dynamics.Engine, g config.GainConfig, target []float64) (sim.Controller, error) {
		return control.NewHold(eng, g.Kp, g.Ki, g.Kd, target)
	}

	return r
}

func (r *Registry) GetIntegrator(name string) (sim.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetController(name string, eng *dynamics.Engine, gains config.GainConfig, target []float64) (sim.Controller, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", name)
	}
	return fn(eng, gains, target)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func (r *Registry) ListControllers() []string {
	return sortedKeys(r.controllers)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics are attached to every run.
func (r *Registry) DefaultMetrics(arm *sim.Arm) []sim.Metric {
	return []sim.Metric{
		metrics.NewEnergyDrift(arm),
		metrics.NewControlEffort(arm.Engine().Tree()),
		metrics.NewBaseForce(arm.Engine()),
		metrics.NewJointLimits(arm.Engine().Tree()),
	}
}
