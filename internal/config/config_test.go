package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Sim.Integrator != "rk4" {
		t.Errorf("expected integrator rk4, got %s", cfg.Sim.Integrator)
	}
	if cfg.Sim.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Gravity[2] != -9.81 {
		t.Errorf("expected gravity -9.81, got %f", cfg.Gravity[2])
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("panda4")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if len(cfg.Chains) != 4 {
		t.Errorf("expected 4 chains, got %d", len(cfg.Chains))
	}
	if len(cfg.Sim.Init.Joints) != 28 {
		t.Errorf("expected 28 initial joints, got %d", len(cfg.Sim.Init.Joints))
	}

	// presets are private copies
	cfg.Chains = nil
	if again := GetPreset("panda4"); len(again.Chains) != 4 {
		t.Error("preset mutated through a returned copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) != 3 {
		t.Fatalf("expected 3 presets, got %v", presets)
	}
	if presets[0] != "panda" || presets[2] != "pendulum" {
		t.Errorf("expected sorted names, got %v", presets)
	}
}

func TestPresetTrees(t *testing.T) {
	tests := []struct {
		name   string
		bodies int
		dof    int
		fixed  bool
	}{
		{"pendulum", 2, 1, true},
		{"panda", 10, 7, false},
		{"panda4", 37, 28, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetPreset(tt.name)
			if err := cfg.Validate(); err != nil {
				t.Fatalf("preset does not validate: %v", err)
			}
			tree, err := cfg.Tree()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tree.NumBodies() != tt.bodies {
				t.Errorf("expected %d bodies, got %d", tt.bodies, tree.NumBodies())
			}
			if tree.NumDOF() != tt.dof {
				t.Errorf("expected %d dof, got %d", tt.dof, tree.NumDOF())
			}
			if tree.FixedBase() != tt.fixed {
				t.Errorf("expected fixed base %v", tt.fixed)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panda.yaml")
	cfg := GetPreset("panda")
	cfg.Chains[0].Links[2].Params = []float64{1, 0, 0, 0.1, 0.02, 0, 0, 0.02, 0, 0.01}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Name != cfg.Name || len(loaded.Chains) != 1 {
		t.Fatalf("round trip lost data: %+v", loaded)
	}
	got := loaded.Chains[0].Links[2].ToParams()
	if got[3] != 0.1 {
		t.Errorf("expected raw params to survive, got %v", got)
	}
	want := cfg.Chains[0].Links[4].ToParams()
	if loaded.Chains[0].Links[4].ToParams() != want {
		t.Error("link parameters changed across round trip")
	}
	if loaded.Chains[0].EndEffector == nil || loaded.Chains[0].EndEffector.Euler[2] != cfg.Chains[0].EndEffector.Euler[2] {
		t.Error("end effector lost")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("sim:\n  dt: -1\nchains: []\n"), 0644)
	if _, err := Load(bad); err == nil {
		t.Error("expected validation error")
	}

	wrongParams := filepath.Join(dir, "params.yaml")
	os.WriteFile(wrongParams, []byte("chains:\n  - links:\n      - params: [1, 2]\n"), 0644)
	if _, err := Load(wrongParams); err == nil {
		t.Error("expected params length error")
	}
}

func TestDisabledChain(t *testing.T) {
	cfg := GetPreset("panda4")
	cfg.Chains[2].Disabled = true
	tree, err := cfg.Tree()
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range tree.Chain(2) {
		if tree.Body(b).IsActive() {
			t.Fatalf("body %d of disabled chain is active", b)
		}
	}
	if !tree.Body(tree.Chain(1)[0]).IsActive() {
		t.Error("other chains must stay active")
	}
}

func TestPandaGripperStartsInactive(t *testing.T) {
	cfg := GetPreset("panda4")
	tree, err := cfg.Tree()
	if err != nil {
		t.Fatal(err)
	}
	total := tree.TotalMass()
	for c := 0; c < tree.NumChains(); c++ {
		ch := tree.Chain(c)
		g := tree.Body(ch[len(ch)-1])
		if g.Name != fmt.Sprintf("arm%d/gripper", c) {
			t.Fatalf("chain %d: expected the gripper at the tip, got %q", c, g.Name)
		}
		if g.IsActive() || g.DOF != -1 {
			t.Errorf("chain %d: gripper should be a fixed inactive body", c)
		}
		if !tree.Body(ch[len(ch)-2]).IsActive() {
			t.Errorf("chain %d: hand must stay active", c)
		}
	}

	ch := tree.Chain(0)
	tree.SetActive(ch[len(ch)-1], true)
	if got := tree.TotalMass() - total; math.Abs(got-0.03) > 1e-12 {
		t.Errorf("expected activating one gripper to add 0.03 kg, got %g", got)
	}
}

func TestInitState(t *testing.T) {
	cfg := GetPreset("panda")
	tree, _ := cfg.Tree()
	st := cfg.InitState(tree)
	if st.Joints[3].Pos != cfg.Sim.Init.Joints[3] {
		t.Errorf("expected joint 4 at %f, got %f", cfg.Sim.Init.Joints[3], st.Joints[3].Pos)
	}
}
