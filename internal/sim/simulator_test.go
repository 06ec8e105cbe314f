package sim

import (
	"context"
	"math"
	"testing"
)

type testSystem struct{}

func (t *testSystem) Derive(x State, u Control, time float64) State {
	return State{-x[0]}
}

func (t *testSystem) StateDim() int   { return 1 }
func (t *testSystem) ControlDim() int { return 0 }

type testIntegrator struct{}

func (t *testIntegrator) Step(sys System, x State, u Control, time float64, dt float64) State {
	dx := sys.Derive(x, u, time)
	return State{x[0] + dt*dx[0]}
}

type testController struct{}

func (t *testController) Compute(x State, time float64) Control {
	return Control{}
}

func TestSimulatorRun(t *testing.T) {
	sys := &testSystem{}
	integ := &testIntegrator{}
	ctrl := &testController{}

	sim := New(sys, integ, ctrl)

	cfg := Config{
		Dt:       0.1,
		Duration: 1.0,
	}

	x0 := State{1.0}
	result, err := sim.Run(context.Background(), x0, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}

	if len(result.Times) != 11 {
		t.Errorf("expected 11 times, got %d", len(result.Times))
	}

	finalState := result.States[len(result.States)-1][0]
	expected := 1.0 * math.Exp(-1.0)
	if math.Abs(finalState-expected) > 0.2 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, finalState)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sys := &testSystem{}
	integ := &testIntegrator{}
	ctrl := &testController{}

	sim := New(sys, integ, ctrl)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x0 := State{1.0}
			_, err := sim.Run(context.Background(), x0, tt.cfg)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(x State, u Control, time float64) {
	t.count++
	t.sum += x[0]
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

func TestSimulatorMetrics(t *testing.T) {
	sys := &testSystem{}
	integ := &testIntegrator{}
	ctrl := &testController{}

	sim := New(sys, integ, ctrl)

	metric := &testMetric{}
	sim.AddMetric(metric)

	cfg := Config{Dt: 0.1, Duration: 1.0}
	x0 := State{1.0}

	result, err := sim.Run(context.Background(), x0, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}

	if metric.count != 10 {
		t.Errorf("expected 10 observations, got %d", metric.count)
	}
}

func TestSimulatorRejectsWrongStateSize(t *testing.T) {
	sim := New(&testSystem{}, &testIntegrator{}, &testController{})
	if _, err := sim.Run(context.Background(), State{1, 2}, Config{Dt: 0.1, Duration: 1}); err == nil {
		t.Error("expected error for wrong state size")
	}
}

type diverging struct{ testSystem }

func (d *diverging) Derive(x State, u Control, time float64) State {
	if time > 0.25 {
		return State{math.NaN()}
	}
	return State{1}
}

func TestSimulatorStopsOnInvalidState(t *testing.T) {
	sim := New(&diverging{}, &testIntegrator{}, &testController{})
	result, err := sim.Run(context.Background(), State{0}, Config{Dt: 0.1, Duration: 1, ValidateState: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one error, got %v", result.Errors)
	}
	if result.StepsTaken != 3 {
		t.Errorf("expected 3 steps before divergence, got %d", result.StepsTaken)
	}
}

func TestSimulatorCancel(t *testing.T) {
	sim := New(&testSystem{}, &testIntegrator{}, &testController{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sim.Run(ctx, State{1}, Config{Dt: 0.1, Duration: 1}); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunWithCallback(t *testing.T) {
	sim := New(&testSystem{}, &testIntegrator{}, &testController{})
	calls := 0
	err := sim.RunWithCallback(context.Background(), State{1}, Config{Dt: 0.1, Duration: 1}, func(x State, u Control, time float64) bool {
		calls++
		return calls < 4
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 4 {
		t.Errorf("expected 4 callbacks, got %d", calls)
	}
}
