package experiment

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/san-kum/armdyn/internal/config"
	"github.com/san-kum/armdyn/internal/dynamics"
	"github.com/san-kum/armdyn/internal/metrics"
	"github.com/san-kum/armdyn/internal/model"
	"github.com/san-kum/armdyn/internal/sim"
)

// Experiment wires a configuration into a ready-to-run simulation: tree,
// engine, integrator, controller and metrics.
type Experiment struct {
	cfg        *config.Config
	tree       *model.Tree
	arm        *sim.Arm
	controller sim.Controller
	simulator  *sim.Simulator
	x0         sim.State
	logger     *zap.SugaredLogger
}

func New(cfg *config.Config, logger *zap.SugaredLogger) *Experiment {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Experiment{
		cfg:    cfg,
		logger: logger,
	}
}

func (e *Experiment) Setup(reg *Registry) error {
	tree, err := e.cfg.Tree()
	if err != nil {
		return errors.Wrap(err, "building tree")
	}
	eng := dynamics.New(tree, dynamics.WithGravity(e.cfg.GravityVec()), dynamics.WithLogger(e.logger))

	integ, err := reg.GetIntegrator(e.cfg.Sim.Integrator)
	if err != nil {
		return err
	}
	st0 := e.cfg.InitState(tree)
	target := st0.Positions(nil)
	ctrl, err := reg.GetController(e.cfg.Sim.Controller, eng, e.cfg.Sim.Gains, target)
	if err != nil {
		return err
	}

	e.tree = tree
	e.arm = sim.NewArm(eng)
	e.controller = ctrl
	e.x0 = e.arm.Layout().Pack(st0)
	e.simulator = sim.New(e.arm, integ, ctrl)
	e.simulator.SetLogger(e.logger)
	for _, m := range reg.DefaultMetrics(e.arm) {
		e.simulator.AddMetric(m)
	}
	e.simulator.AddMetric(metrics.NewTrackingError(target))
	e.logger.Infow("experiment ready",
		"robot", tree.Name(),
		"dof", tree.NumDOF(),
		"chains", tree.NumChains(),
		"integrator", e.cfg.Sim.Integrator,
		"controller", e.cfg.Sim.Controller,
	)
	return nil
}

func (e *Experiment) simConfig() sim.Config {
	return sim.Config{
		Dt:            e.cfg.Sim.Dt,
		Duration:      e.cfg.Sim.Duration,
		Seed:          e.cfg.Sim.Seed,
		ValidateState: true,
	}
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.x0, e.simConfig())
}

// RunWithCallback steps the simulation until callback returns false.
func (e *Experiment) RunWithCallback(ctx context.Context, callback func(sim.State, sim.Control, float64) bool) error {
	if e.simulator == nil {
		return fmt.Errorf("experiment not setup")
	}
	return e.simulator.RunWithCallback(ctx, e.x0, e.simConfig(), callback)
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

func (e *Experiment) Arm() *sim.Arm              { return e.arm }
func (e *Experiment) Tree() *model.Tree          { return e.tree }
func (e *Experiment) Controller() sim.Controller { return e.controller }
func (e *Experiment) InitialState() sim.State    { return e.x0.Clone() }
func (e *Experiment) Config() *config.Config     { return e.cfg }
