// Package optim searches controller gains by repeated simulation.
package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/san-kum/armdyn/internal/config"
	"github.com/san-kum/armdyn/internal/experiment"
)

// Builder returns a ready experiment for one point of the grid.
type Builder func(params map[string]float64) (*experiment.Experiment, error)

// Trial is one evaluated grid point.
type Trial struct {
	Params map[string]float64
	Value  float64
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	logger     *zap.SugaredLogger
	trials     []Trial
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, logger: zap.NewNop().Sugar()}
}

func (g *GridSearch) SetLogger(l *zap.SugaredLogger) { g.logger = l }

// Trials returns every point evaluated by the last Search, in grid order.
func (g *GridSearch) Trials() []Trial { return g.trials }

// Search runs every combination of the grid and returns the one with the
// smallest metricName. Failing points are skipped; Search only fails when no
// point could be evaluated or ctx is cancelled.
func (g *GridSearch) Search(ctx context.Context, build Builder, metricName string) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("optim: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}
	g.trials = g.trials[:0]

	best := math.Inf(1)
	var bestParams map[string]float64
	var failures error

	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) {
		val, err := evaluate(ctx, build, params, metricName)
		if err != nil {
			failures = multierr.Append(failures, errors.Wrapf(err, "params %v", params))
			g.logger.Debugw("trial failed", "params", params, "error", err)
			return
		}
		g.trials = append(g.trials, Trial{Params: params, Value: val})
		g.logger.Debugw("trial", "params", params, metricName, val)
		if val < best {
			best = val
			bestParams = params
		}
	})
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		if failures == nil {
			failures = errors.New("optim: empty grid")
		}
		return nil, 0, failures
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, visit func(map[string]float64)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		visit(current)
		return nil
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val
		if err := g.searchRecursive(ctx, depth+1, next, visit); err != nil {
			return err
		}
	}
	return nil
}

func evaluate(ctx context.Context, build Builder, params map[string]float64, metricName string) (float64, error) {
	exp, err := build(params)
	if err != nil {
		return 0, err
	}
	result, err := exp.Run(ctx)
	if err != nil {
		return 0, err
	}
	val, ok := result.Metrics[metricName]
	if !ok {
		return 0, fmt.Errorf("metric %s not recorded", metricName)
	}
	if math.IsNaN(val) {
		return 0, fmt.Errorf("metric %s is NaN", metricName)
	}
	return val, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// HoldBuilder builds hold-controller experiments from base with kp, ki and
// kd taken from the grid point. Missing gains keep the values in base.
func HoldBuilder(base *config.Config, reg *experiment.Registry, logger *zap.SugaredLogger) Builder {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := *base
		cfg.Sim.Controller = "hold"
		if v, ok := params["kp"]; ok {
			cfg.Sim.Gains.Kp = v
		}
		if v, ok := params["ki"]; ok {
			cfg.Sim.Gains.Ki = v
		}
		if v, ok := params["kd"]; ok {
			cfg.Sim.Gains.Kd = v
		}
		exp := experiment.New(&cfg, logger)
		if err := exp.Setup(reg); err != nil {
			return nil, err
		}
		return exp, nil
	}
}
