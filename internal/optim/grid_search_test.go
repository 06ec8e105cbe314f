package optim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/armdyn/internal/config"
	"github.com/san-kum/armdyn/internal/experiment"
)

func swingingPendulum() *config.Config {
	cfg := config.GetPreset("pendulum")
	cfg.Sim.Duration = 0.5
	cfg.Sim.Dt = 0.002
	cfg.Sim.Init.JointVel = []float64{1}
	return cfg
}

func TestHoldGainSearch(t *testing.T) {
	g := NewGridSearch([]string{"kp", "kd"}, [][]float64{{0, 50}, {0, 20}})
	best, val, err := g.Search(context.Background(), HoldBuilder(swingingPendulum(), experiment.NewRegistry(), nil), "tracking_error")
	require.NoError(t, err)

	assert.Len(t, g.Trials(), 4)
	assert.Equal(t, 20.0, best["kd"])
	for _, tr := range g.Trials() {
		assert.GreaterOrEqual(t, tr.Value, val)
	}
}

func TestSearchFailures(t *testing.T) {
	reg := experiment.NewRegistry()
	cfg := swingingPendulum()
	cfg.Sim.Integrator = "nope"

	g := NewGridSearch([]string{"kp"}, [][]float64{{1, 2}})
	_, _, err := g.Search(context.Background(), HoldBuilder(cfg, reg, nil), "tracking_error")
	assert.Error(t, err)

	g = NewGridSearch([]string{"kp"}, [][]float64{{1}})
	_, _, err = g.Search(context.Background(), HoldBuilder(swingingPendulum(), reg, nil), "missing_metric")
	assert.Error(t, err)

	g = NewGridSearch([]string{"kp", "kd"}, [][]float64{{1}})
	_, _, err = g.Search(context.Background(), HoldBuilder(swingingPendulum(), reg, nil), "tracking_error")
	assert.Error(t, err)
}

func TestSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := NewGridSearch([]string{"kp"}, [][]float64{{1, 2}})
	_, _, err := g.Search(ctx, HoldBuilder(swingingPendulum(), experiment.NewRegistry(), nil), "tracking_error")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{0, 0.5, 1}, Linspace(0, 1, 3))
	assert.Equal(t, []float64{2}, Linspace(2, 5, 1))
}
