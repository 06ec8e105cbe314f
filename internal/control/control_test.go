package control

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/armdyn/internal/config"
	"github.com/san-kum/armdyn/internal/dynamics"
	"github.com/san-kum/armdyn/internal/integrators"
	"github.com/san-kum/armdyn/internal/model"
	"github.com/san-kum/armdyn/internal/sim"
)

func presetEngine(t *testing.T, name string) (*dynamics.Engine, *config.Config, *model.Tree) {
	t.Helper()
	cfg := config.GetPreset(name)
	tree, err := cfg.Tree()
	if err != nil {
		t.Fatalf("preset %s: %v", name, err)
	}
	return dynamics.New(tree), cfg, tree
}

func TestPassive(t *testing.T) {
	_, _, tree := presetEngine(t, "panda")
	layout := sim.NewLayout(tree)
	x := make(sim.State, layout.Dim())
	p := layout.PositionDim()
	x[p+2] = 1.5
	x[0] = 4

	ctrl := NewPassive(layout, 0)
	u := ctrl.Compute(x, 0)
	if len(u) != 7 {
		t.Fatalf("expected 7 controls, got %d", len(u))
	}
	for i, v := range u {
		if v != 0 {
			t.Errorf("control[%d] should be 0, got %f", i, v)
		}
	}

	var tunable Tunable = ctrl
	tunable.SetParam("Damping", 2)
	tunable.SetParam("Damping", -1)
	u = ctrl.Compute(x, 0)
	if u[2] != -3 || u[0] != 0 {
		t.Errorf("expected damping against joint 2 velocity only, got %v", u)
	}
	if got := ctrl.Compute(sim.State{1}, 0); len(got) != 7 || got[0] != 0 {
		t.Errorf("malformed state should give zero torque, got %v", got)
	}
}

func TestGravityCompensationPendulum(t *testing.T) {
	eng, _, _ := presetEngine(t, "pendulum")
	gc, err := NewGravityCompensation(eng)
	if err != nil {
		t.Fatal(err)
	}

	want := config.PendulumMass * 9.81 * config.PendulumLength
	tests := []struct {
		name  string
		angle float64
		want  float64
	}{
		{"horizontal", 0, want},
		{"hanging", math.Pi / 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := gc.Compute(sim.State{tt.angle, 0}, 0)
			if math.Abs(math.Abs(u[0])-tt.want) > 1e-9 {
				t.Errorf("expected |tau| = %f, got %f", tt.want, u[0])
			}
		})
	}
	if gc.Faults() != 0 {
		t.Errorf("unexpected faults: %d", gc.Faults())
	}
}

func TestGravityCompensationHoldsArm(t *testing.T) {
	eng, cfg, tree := presetEngine(t, "panda")
	gc, _ := NewGravityCompensation(eng)
	arm := sim.NewArm(eng)
	x := arm.Layout().Pack(cfg.InitState(tree))

	dx := arm.Derive(x, gc.Compute(x, 0), 0)
	p := arm.PositionDim()
	for j := 0; j < tree.NumDOF(); j++ {
		if math.Abs(dx[p+j]) > 1e-9 {
			t.Errorf("joint %d accelerates under gravity compensation: %g", j, dx[p+j])
		}
	}
	// the platform itself falls with g
	v := p + tree.NumDOF()
	if math.Abs(dx[v+2]+9.81) > 1e-9 {
		t.Errorf("expected base to fall at g, got %g", dx[v+2])
	}
}

func TestGravityCompensationBadState(t *testing.T) {
	eng, _, _ := presetEngine(t, "pendulum")
	gc, _ := NewGravityCompensation(eng)
	u := gc.Compute(sim.State{1, 2, 3}, 0)
	if len(u) != 1 || u[0] != 0 {
		t.Errorf("expected zero torque for malformed state, got %v", u)
	}
	if gc.Faults() != 1 {
		t.Errorf("expected one fault, got %d", gc.Faults())
	}

	if _, err := NewGravityCompensation(nil); err == nil {
		t.Error("expected error for nil engine")
	}
}

func TestHoldReachesTarget(t *testing.T) {
	eng, _, _ := presetEngine(t, "pendulum")
	hold, err := NewHold(eng, 100, 0, 20, []float64{0.3})
	if err != nil {
		t.Fatal(err)
	}
	arm := sim.NewArm(eng)
	s := sim.New(arm, integrators.NewRK4(), hold)
	res, err := s.Run(context.Background(), sim.State{0, 0}, sim.Config{Dt: 0.001, Duration: 3, ValidateState: true})
	if err != nil {
		t.Fatal(err)
	}
	final := res.States[len(res.States)-1]
	if math.Abs(final[0]-0.3) > 1e-3 {
		t.Errorf("expected joint at 0.3, got %f", final[0])
	}
}

func TestHoldDefaultsToFirstPosition(t *testing.T) {
	eng, _, _ := presetEngine(t, "pendulum")
	hold, _ := NewHold(eng, 10, 1, 1, nil)
	gc, _ := NewGravityCompensation(eng)

	x := sim.State{0.7, 0}
	u := hold.Compute(x, 0)
	if math.Abs(u[0]-gc.Compute(x, 0)[0]) > 1e-12 {
		t.Errorf("expected pure feed-forward at the captured target, got %f", u[0])
	}
	if hold.Target[0] != 0.7 {
		t.Errorf("expected target 0.7, got %f", hold.Target[0])
	}
}

func TestHoldParams(t *testing.T) {
	eng, _, _ := presetEngine(t, "pendulum")
	hold, _ := NewHold(eng, 1, 2, 3, nil)
	var tunable Tunable = hold
	tunable.SetParam("Kd", 7)
	tunable.SetParam("unknown", 1)
	params := tunable.GetParams()
	if params["Kp"] != 1 || params["Ki"] != 2 || params["Kd"] != 7 {
		t.Errorf("unexpected params %v", params)
	}
}

func TestManual(t *testing.T) {
	m := NewManual(NewPassive(sim.Layout{DOF: 3}, 0), 3)
	m.Nudge(1, 0.5)
	m.Nudge(1, 0.5)
	m.Nudge(5, 1)
	u := m.Compute(nil, 0)
	if u[0] != 0 || u[1] != 1 || u[2] != 0 {
		t.Errorf("unexpected control %v", u)
	}
	m.Clear()
	if u := m.Compute(nil, 0); u[1] != 0 {
		t.Errorf("expected cleared offset, got %v", u)
	}
}
