package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/san-kum/armdyn/internal/config"
	"github.com/san-kum/armdyn/internal/control"
	"github.com/san-kum/armdyn/internal/dynamics"
	"github.com/san-kum/armdyn/internal/experiment"
	"github.com/san-kum/armdyn/internal/model"
	"github.com/san-kum/armdyn/internal/sim"
	"github.com/san-kum/armdyn/internal/storage"
	"github.com/san-kum/armdyn/internal/viz"
)

// loadConfig reads --config, or the --preset robot when no file is given.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}
	return cfg, nil
}

// loadSimConfig applies the simulation flags the user set on top of the
// loaded config.
func loadSimConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Sim.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Sim.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Sim.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Sim.Integrator = integrator
	}
	if flags.Changed("controller") {
		cfg.Sim.Controller = controller
	}
	if flags.Changed("kp") {
		cfg.Sim.Gains.Kp = kp
	}
	if flags.Changed("ki") {
		cfg.Sim.Gains.Ki = ki
	}
	if flags.Changed("kd") {
		cfg.Sim.Gains.Kd = kd
	}
	return cfg, cfg.Validate()
}

func loadTree() (*config.Config, *model.Tree, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	tree, err := cfg.Tree()
	if err != nil {
		return nil, nil, errors.Wrap(err, "building robot")
	}
	return cfg, tree, nil
}

func newExperiment(cmd *cobra.Command) (*experiment.Experiment, error) {
	cfg, err := loadSimConfig(cmd)
	if err != nil {
		return nil, err
	}
	exp := experiment.New(cfg, logger)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return nil, err
	}
	return exp, nil
}

func runInfo(exp *experiment.Experiment) storage.RunInfo {
	cfg := exp.Config()
	return storage.RunInfo{
		Robot:      cfg.Name,
		Dt:         cfg.Sim.Dt,
		Duration:   cfg.Sim.Duration,
		Seed:       cfg.Sim.Seed,
		Integrator: cfg.Sim.Integrator,
		Controller: cfg.Sim.Controller,
		Columns:    sim.Columns(exp.Tree()),
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("running %s simulation...\n", exp.Config().Name)
	start := time.Now()
	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(runInfo(exp), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	for _, e := range result.Errors {
		fmt.Printf("error: %v\n", e)
	}
	if f := exp.Arm().Faults(); f > 0 {
		fmt.Printf("forward dynamics faults: %d (last: %v)\n", f, exp.Arm().LastError())
	}
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, result.Metrics[name])
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment(cmd)
	if err != nil {
		return err
	}
	integ, err := experiment.NewRegistry().GetIntegrator(exp.Config().Sim.Integrator)
	if err != nil {
		return err
	}
	m := viz.NewModel(exp.Config().Name, exp.Arm(), integ, exp.Controller(), exp.InitialState(), exp.Config().Sim.Dt)
	return viz.Run(m)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment(cmd)
	if err != nil {
		return err
	}
	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, runInfo(exp), result)
}

// benchRobot times the dynamics entry points and a second of simulated
// motion with each integrator.
func benchRobot(cmd *cobra.Command, args []string) error {
	cfg, tree, err := loadTree()
	if err != nil {
		return err
	}
	eng := dynamics.New(tree, dynamics.WithGravity(cfg.GravityVec()))
	st := cfg.InitState(tree)
	n := tree.NumDOF()
	tau := make([]float64, n)
	qdd := make([]float64, n)

	fmt.Printf("benchmarking %s (%d bodies, %d dof)\n\n", tree.Name(), tree.NumBodies(), n)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OPERATION\tCALLS\tTIME\tPER CALL")

	timeIt := func(name string, calls int, fn func() error) error {
		start := time.Now()
		for i := 0; i < calls; i++ {
			// perturb a joint so cached trigonometry is not reused
			st.Joints[i%n].Pos += 1e-9
			if err := fn(); err != nil {
				return errors.Wrap(err, name)
			}
		}
		elapsed := time.Since(start)
		fmt.Fprintf(w, "%s\t%d\t%v\t%v\n", name, calls, elapsed, elapsed/time.Duration(calls))
		return nil
	}
	const calls = 2000
	if err := timeIt("inverse dynamics", calls, func() error {
		_, err := eng.InverseDynamics(st, nil, tau)
		return err
	}); err != nil {
		return err
	}
	if err := timeIt("gravity compensation", calls, func() error {
		return eng.GravityCompensation(st, nil, tau)
	}); err != nil {
		return err
	}
	if err := timeIt("forward dynamics", calls, func() error {
		_, err := eng.ForwardDynamics(st, nil, tau, qdd)
		return err
	}); err != nil {
		return err
	}

	arm := sim.NewArm(eng)
	x0 := arm.Layout().Pack(cfg.InitState(tree))
	reg := experiment.NewRegistry()
	for _, name := range reg.ListIntegrators() {
		integ, err := reg.GetIntegrator(name)
		if err != nil {
			return err
		}
		s := sim.New(arm, integ, control.NewPassive(arm.Layout(), 0))
		start := time.Now()
		res, err := s.Run(cmd.Context(), x0, sim.Config{Dt: 0.001, Duration: 1})
		if err != nil {
			return err
		}
		elapsed := time.Since(start)
		fmt.Fprintf(w, "1s with %s\t%d\t%v\t%v\n", name, res.StepsTaken, elapsed, elapsed/time.Duration(max(1, res.StepsTaken)))
	}
	return w.Flush()
}
