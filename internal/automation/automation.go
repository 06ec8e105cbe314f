// Package automation runs scripted batches of simulations: YAML scenarios of
// independent steps, and one-parameter sweeps.
package automation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/armdyn/internal/config"
	"github.com/san-kum/armdyn/internal/experiment"
	"github.com/san-kum/armdyn/internal/sim"
	"github.com/san-kum/armdyn/internal/storage"
)

// Scenario defines a scripted simulation sequence.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`

	// dir resolves relative config paths.
	dir string
}

// ScenarioStep is one simulation. Robot comes from Config, a YAML file, or
// else Preset; zero-valued overrides keep the robot's own settings.
type ScenarioStep struct {
	Name       string             `yaml:"name"`
	Preset     string             `yaml:"preset"`
	Config     string             `yaml:"config"`
	Integrator string             `yaml:"integrator"`
	Controller string             `yaml:"controller"`
	Duration   float64            `yaml:"duration"`
	Dt         float64            `yaml:"dt"`
	Seed       int64              `yaml:"seed"`
	Joints     []float64          `yaml:"joints"`
	Params     map[string]float64 `yaml:"params"`
	Save       bool               `yaml:"save"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Step   string
	RunID  string
	Result *sim.Result
	Faults int
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scenario %s", path)
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, errors.Wrapf(err, "parsing scenario %s", path)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	scenario.dir = filepath.Dir(path)
	return &scenario, nil
}

func (s *Scenario) stepConfig(step ScenarioStep) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case step.Config != "":
		path := step.Config
		if !filepath.IsAbs(path) && s.dir != "" {
			path = filepath.Join(s.dir, path)
		}
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case step.Preset != "":
		cfg = config.GetPreset(step.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", step.Preset)
		}
	default:
		return nil, errors.New("step needs a preset or a config")
	}

	if step.Integrator != "" {
		cfg.Sim.Integrator = step.Integrator
	}
	if step.Controller != "" {
		cfg.Sim.Controller = step.Controller
	}
	if step.Duration > 0 {
		cfg.Sim.Duration = step.Duration
	}
	if step.Dt > 0 {
		cfg.Sim.Dt = step.Dt
	}
	if step.Seed != 0 {
		cfg.Sim.Seed = step.Seed
	}
	if step.Joints != nil {
		cfg.Sim.Init.Joints = append([]float64(nil), step.Joints...)
	}
	for name, v := range step.Params {
		if err := ApplyParam(cfg, name, v); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

// RunScenario executes the steps in order. Steps marked save are written to
// store, which may be nil when nothing is saved. The results of the steps
// completed before a failure are returned with the error.
func RunScenario(ctx context.Context, scenario *Scenario, reg *experiment.Registry, store *storage.Store, logger *zap.SugaredLogger) ([]StepResult, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		logger.Infow("scenario step", "scenario", scenario.Name, "step", name, "index", i+1, "of", len(scenario.Steps))

		cfg, err := scenario.stepConfig(step)
		if err != nil {
			return results, errors.Wrapf(err, "step %s", name)
		}
		exp := experiment.New(cfg, logger)
		if err := exp.Setup(reg); err != nil {
			return results, errors.Wrapf(err, "step %s setup", name)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, errors.Wrapf(err, "step %s run", name)
		}

		sr := StepResult{Step: name, Result: result, Faults: exp.Arm().Faults()}
		if step.Save {
			if store == nil {
				return results, fmt.Errorf("step %s: no store to save to", name)
			}
			info := storage.RunInfo{
				Robot:      cfg.Name,
				Dt:         cfg.Sim.Dt,
				Duration:   cfg.Sim.Duration,
				Seed:       cfg.Sim.Seed,
				Integrator: cfg.Sim.Integrator,
				Controller: cfg.Sim.Controller,
				Columns:    sim.Columns(exp.Tree()),
			}
			if sr.RunID, err = store.Save(info, result); err != nil {
				return results, errors.Wrapf(err, "step %s save", name)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

// ApplyParam sets one named parameter of cfg:
//
//	kp, ki, kd   hold gains
//	dt, duration simulation timing
//	gravity      magnitude of gravity along -z
//	payload      mass of every end effector
func ApplyParam(cfg *config.Config, name string, v float64) error {
	switch name {
	case "kp":
		cfg.Sim.Gains.Kp = v
	case "ki":
		cfg.Sim.Gains.Ki = v
	case "kd":
		cfg.Sim.Gains.Kd = v
	case "dt":
		cfg.Sim.Dt = v
	case "duration":
		cfg.Sim.Duration = v
	case "gravity":
		cfg.Gravity = [3]float64{0, 0, -v}
	case "payload":
		chains := make([]config.ChainConfig, len(cfg.Chains))
		copy(chains, cfg.Chains)
		for i := range chains {
			if chains[i].EndEffector == nil {
				continue
			}
			ee := *chains[i].EndEffector
			ee.Mass = v
			chains[i].EndEffector = &ee
		}
		cfg.Chains = chains
	default:
		return fmt.Errorf("unknown parameter: %s", name)
	}
	return nil
}

// ParameterSweep runs one robot across evenly spaced values of a parameter.
type ParameterSweep struct {
	Param    string
	ParamMin float64
	ParamMax float64
	NumSteps int
	// Workers bounds concurrent runs; zero means one.
	Workers int
}

// SweepResult holds the metrics of one sweep point.
type SweepResult struct {
	ParamValue float64
	Metrics    map[string]float64
	Faults     int
}

// RunSweep executes the sweep on copies of base. Results are in parameter
// order.
func RunSweep(ctx context.Context, base *config.Config, sweep ParameterSweep, reg *experiment.Registry, logger *zap.SugaredLogger) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	if err := ApplyParam(&config.Config{}, sweep.Param, 0); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	step := 0.0
	if sweep.NumSteps > 1 {
		step = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}
	results := make([]SweepResult, sweep.NumSteps)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, sweep.Workers))
	for i := 0; i < sweep.NumSteps; i++ {
		i := i
		val := sweep.ParamMin + float64(i)*step
		g.Go(func() error {
			cfg := *base
			if err := ApplyParam(&cfg, sweep.Param, val); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return errors.Wrapf(err, "%s=%g", sweep.Param, val)
			}
			exp := experiment.New(&cfg, logger)
			if err := exp.Setup(reg); err != nil {
				return errors.Wrapf(err, "%s=%g", sweep.Param, val)
			}
			res, err := exp.Run(ctx)
			if err != nil {
				return errors.Wrapf(err, "%s=%g", sweep.Param, val)
			}
			results[i] = SweepResult{ParamValue: val, Metrics: res.Metrics, Faults: exp.Arm().Faults()}
			logger.Debugw("sweep point", "param", sweep.Param, "value", val, "steps", res.StepsTaken)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
