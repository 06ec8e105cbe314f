package model

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/armdyn/internal/spatial"
)

func unitParams() spatial.Params {
	return spatial.ParamsFromCOM(1, mgl64.Vec3{}, spatial.DiagInertia(0.1, 0.1, 0.1))
}

func serialConfig(parents ...int) TreeConfig {
	bodies := []Body{{Name: "base", Parent: -1, Joint: JointFloating, Params: unitParams()}}
	for _, p := range parents {
		bodies = append(bodies, Body{Parent: p, Joint: JointRevolute, Params: unitParams()})
	}
	return TreeConfig{Name: "test", Bodies: bodies}
}

func TestNewTreeTraversal(t *testing.T) {
	tree, err := NewTree(serialConfig(0, 1, 0, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.NumDOF() != 4 {
		t.Errorf("expected 4 dof, got %d", tree.NumDOF())
	}
	if tree.NumChains() != 2 {
		t.Errorf("expected 2 chains, got %d", tree.NumChains())
	}
	if got := tree.Chain(1); len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Errorf("expected chain 1 = [3 4], got %v", got)
	}
	if got := tree.Children(0); len(got) != 2 {
		t.Errorf("expected base to have 2 children, got %v", got)
	}
	back := tree.Backward()
	if back[0] != 4 || back[len(back)-1] != 0 {
		t.Errorf("expected backward order leaf to root, got %v", back)
	}
	for j := 0; j < tree.NumDOF(); j++ {
		if tree.Body(tree.DOFBody(j)).DOF != j {
			t.Errorf("dof %d not mapped back to its body", j)
		}
	}
	if tree.Body(2).Subspace != RevoluteZ {
		t.Errorf("expected default revolute subspace, got %v", tree.Body(2).Subspace)
	}
	if !tree.IsAncestor(1, 2) || tree.IsAncestor(1, 4) || !tree.IsAncestor(0, 4) {
		t.Error("ancestor relation wrong")
	}
}

func TestNewTreeRejectsForwardReference(t *testing.T) {
	_, err := NewTree(serialConfig(0, 2, 1))
	if err == nil {
		t.Fatal("expected error for forward reference")
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *ConfigurationError, got %T", err)
	}
	if len(cerr.Errors()) != 1 {
		t.Errorf("expected 1 problem, got %d: %v", len(cerr.Errors()), cerr)
	}
}

func TestNewTreeProblems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TreeConfig)
		want   int
	}{
		{"parent out of range", func(c *TreeConfig) { c.Bodies[1].Parent = 9 }, 1},
		{"self parent", func(c *TreeConfig) { c.Bodies[2].Parent = 2 }, 1},
		{"base with parent", func(c *TreeConfig) { c.Bodies[0].Parent = 0 }, 1},
		{"floating child", func(c *TreeConfig) { c.Bodies[1].Joint = JointFloating }, 1},
		{"fixed base mismatch", func(c *TreeConfig) { c.FixedBase = true }, 1},
		{"negative mass", func(c *TreeConfig) { c.Bodies[2].Params[0] = -1 }, 1},
		{"joint names", func(c *TreeConfig) { c.JointNames = []string{"a"} }, 1},
		{"inverted limits", func(c *TreeConfig) { c.Bodies[1].Limits = [2]float64{1, -1} }, 1},
		{"several", func(c *TreeConfig) {
			c.Bodies[1].Parent = 5
			c.Bodies[2].Params[0] = math.NaN()
		}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := serialConfig(0, 1)
			tt.mutate(&cfg)
			_, err := NewTree(cfg)
			var cerr *ConfigurationError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *ConfigurationError, got %v", err)
			}
			if got := len(cerr.Errors()); got != tt.want {
				t.Errorf("expected %d problems, got %d: %v", tt.want, got, err)
			}
		})
	}
}

func TestNewTreeEmpty(t *testing.T) {
	if _, err := NewTree(TreeConfig{}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestSetParamsAndActive(t *testing.T) {
	tree, err := NewTree(serialConfig(0, 1))
	if err != nil {
		t.Fatal(err)
	}
	p := unitParams()
	p[0] = 3
	if err := tree.SetParams(2, p); err != nil {
		t.Fatal(err)
	}
	if tree.Body(2).Params.Mass() != 3 {
		t.Errorf("expected mass 3, got %f", tree.Body(2).Params.Mass())
	}
	p[0] = -1
	if err := tree.SetParams(2, p); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
	if err := tree.SetParams(7, p); err == nil {
		t.Error("expected out of range error")
	}

	// chain 0 holds bodies 1 and 2 with masses 1 and 3; only the base stays
	total := tree.TotalMass()
	tree.SetChainActive(0, false)
	if got := tree.TotalMass(); math.Abs(got-(total-4)) > 1e-12 {
		t.Errorf("expected mass %f after deactivation, got %f", total-4, got)
	}
}

func TestStateHelpers(t *testing.T) {
	tree, _ := NewTree(serialConfig(0, 1, 2))
	st := NewState(tree)
	if st.Base.Orient.Real != 1 {
		t.Errorf("expected identity orientation, got %v", st.Base.Orient)
	}
	st.SetPositions([]float64{1, 2, 3})
	c := st.Clone()
	c.Joints[0].Pos = 9
	if st.Joints[0].Pos != 1 {
		t.Error("clone shares joint storage")
	}
	st.Joints[1].U, st.Joints[1].Uff = 1, 0.5
	if got := st.Torques(nil)[1]; got != 1.5 {
		t.Errorf("expected torque 1.5, got %f", got)
	}
	if got := st.Positions(nil); got[2] != 3 {
		t.Errorf("expected position 3, got %v", got)
	}
}
