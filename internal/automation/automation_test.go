package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/armdyn/internal/config"
	"github.com/san-kum/armdyn/internal/experiment"
	"github.com/san-kum/armdyn/internal/storage"
)

const scenarioYAML = `
name: pendulum study
description: hold against a free swing
steps:
  - name: free
    preset: pendulum
    controller: none
    duration: 0.05
    joints: [0.3]
  - preset: pendulum
    controller: hold
    duration: 0.05
    params:
      kp: 40
      kd: 5
    save: true
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestRunScenario(t *testing.T) {
	dir := t.TempDir()
	sc, err := LoadScenario(writeFile(t, dir, "study.yaml", scenarioYAML))
	require.NoError(t, err)
	assert.Equal(t, "pendulum study", sc.Name)
	require.Len(t, sc.Steps, 2)

	store := storage.New(filepath.Join(dir, "runs"))
	require.NoError(t, store.Init())

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), store, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "free", results[0].Step)
	assert.Empty(t, results[0].RunID)
	assert.Equal(t, "step2", results[1].Step)
	require.NotEmpty(t, results[1].RunID)

	meta, err := store.Load(results[1].RunID)
	require.NoError(t, err)
	assert.Equal(t, "hold", meta.Controller)
	assert.Equal(t, 50, meta.Steps)

	// the free swing starts away from horizontal
	assert.InDelta(t, 0.3, results[0].Result.States[0][0], 1e-12)
}

func TestScenarioConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.Save(filepath.Join(dir, "robot.yaml"), config.GetPreset("pendulum")))
	sc, err := LoadScenario(writeFile(t, dir, "s.yaml", "steps:\n  - config: robot.yaml\n    duration: 0.01\n"))
	require.NoError(t, err)

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, results[0].Result.StepsTaken)
}

func TestScenarioErrors(t *testing.T) {
	dir := t.TempDir()
	reg := experiment.NewRegistry()

	_, err := LoadScenario(writeFile(t, dir, "empty.yaml", "name: nothing\n"))
	assert.Error(t, err)

	_, err = LoadScenario(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	tests := []struct {
		name string
		body string
	}{
		{"no robot", "steps:\n  - duration: 0.01\n"},
		{"unknown preset", "steps:\n  - preset: hexapod\n"},
		{"unknown param", "steps:\n  - preset: pendulum\n    params: {stiffness: 1}\n"},
		{"unknown integrator", "steps:\n  - preset: pendulum\n    integrator: leapfrog\n"},
		{"save without store", "steps:\n  - preset: pendulum\n    duration: 0.01\n    save: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := LoadScenario(writeFile(t, dir, "bad.yaml", tt.body))
			require.NoError(t, err)
			results, err := RunScenario(context.Background(), sc, reg, nil, nil)
			assert.Error(t, err)
			assert.Empty(t, results)
		})
	}
}

func TestApplyParamPayload(t *testing.T) {
	base := config.GetPreset("panda4")
	cfg := *base
	require.NoError(t, ApplyParam(&cfg, "payload", 2.5))

	for i := range cfg.Chains {
		assert.Equal(t, 2.5, cfg.Chains[i].EndEffector.Mass)
		assert.Equal(t, 0.73, base.Chains[i].EndEffector.Mass, "base config must not change")
	}
	assert.Error(t, ApplyParam(&cfg, "stiffness", 1))
}

func TestRunSweepGravity(t *testing.T) {
	base := config.GetPreset("pendulum")
	base.Sim.Controller = "gravcomp"
	base.Sim.Duration = 0.02

	sweep := ParameterSweep{Param: "gravity", ParamMin: 0, ParamMax: 10, NumSteps: 3, Workers: 3}
	results, err := RunSweep(context.Background(), base, sweep, experiment.NewRegistry(), nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, want := range []float64{0, 5, 10} {
		assert.Equal(t, want, results[i].ParamValue)
		// a held point mass loads the mount with its weight
		assert.InDelta(t, config.PendulumMass*want, results[i].Metrics["peak_base_force"], 1e-6)
		assert.Zero(t, results[i].Faults)
	}
	assert.Equal(t, [3]float64{0, 0, -9.81}, base.Gravity)
}

func TestRunSweepErrors(t *testing.T) {
	base := config.GetPreset("pendulum")
	reg := experiment.NewRegistry()

	_, err := RunSweep(context.Background(), base, ParameterSweep{Param: "gravity", NumSteps: 0}, reg, nil)
	assert.Error(t, err)
	_, err = RunSweep(context.Background(), base, ParameterSweep{Param: "stiffness", NumSteps: 2}, reg, nil)
	assert.Error(t, err)
	_, err = RunSweep(context.Background(), base, ParameterSweep{Param: "dt", ParamMin: -1, ParamMax: 0, NumSteps: 2}, reg, nil)
	assert.Error(t, err)
}
