package model

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/multierr"

	"github.com/san-kum/armdyn/internal/spatial"
)

// TreeConfig is the raw description handed to NewTree.
type TreeConfig struct {
	Name      string
	FixedBase bool
	// Bodies are given in index order; Bodies[0] is the base.
	Bodies []Body
	// JointNames optionally names each revolute joint in DOF order.
	JointNames []string
}

// Tree is a validated kinematic tree. Topology is immutable after
// construction; inertial parameters and activity flags may be updated.
type Tree struct {
	name       string
	fixedBase  bool
	bodies     []Body
	children   [][]int
	forward    []int
	backward   []int
	chains     [][]int
	dofBody    []int
	jointNames []string
}

// NewTree validates cfg and builds the traversal tables. All problems are
// reported together in a *ConfigurationError.
func NewTree(cfg TreeConfig) (*Tree, error) {
	var errs error
	problem := func(format string, args ...interface{}) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	n := len(cfg.Bodies)
	if n == 0 {
		problem("tree has no bodies")
		return nil, &ConfigurationError{Tree: cfg.Name, Problems: errs}
	}

	bodies := make([]Body, n)
	copy(bodies, cfg.Bodies)

	numDOF := 0
	for i := range bodies {
		b := &bodies[i]
		b.Index = i
		b.DOF = -1

		if i == 0 {
			if b.Parent != -1 {
				problem("base body %q has predecessor %d", b.Name, b.Parent)
			}
			want := JointFloating
			if cfg.FixedBase {
				want = JointFixed
			}
			if b.Joint != want {
				problem("base body %q has %s joint, want %s", b.Name, b.Joint, want)
			}
		} else {
			switch {
			case b.Parent < 0 || b.Parent >= n:
				problem("body %d (%q): predecessor %d out of range", i, b.Name, b.Parent)
			case b.Parent >= i:
				problem("body %d (%q): predecessor %d does not precede it", i, b.Name, b.Parent)
			}
			if b.Joint == JointFloating {
				problem("body %d (%q): only the base may float", i, b.Name)
			}
		}

		if b.Params.Mass() < 0 {
			problem("body %d (%q): negative mass %g", i, b.Name, b.Params.Mass())
		}
		if !b.Params.IsFinite() {
			problem("body %d (%q): non-finite inertial parameters", i, b.Name)
		}
		if b.Limits[0] > b.Limits[1] {
			problem("body %d (%q): lower limit %g above upper limit %g", i, b.Name, b.Limits[0], b.Limits[1])
		}
		if b.Rotation == (mgl64.Mat3{}) {
			b.Rotation = mgl64.Ident3()
		} else if math.Abs(b.Rotation.Det()-1) > 1e-6 {
			problem("body %d (%q): fixed rotation is not proper", i, b.Name)
		}

		switch b.Joint {
		case JointRevolute:
			if b.Subspace == (spatial.Vec6{}) {
				b.Subspace = RevoluteZ
			}
			b.DOF = numDOF
			numDOF++
		case JointFixed, JointFloating:
			b.Subspace = spatial.Vec6{}
		default:
			problem("body %d (%q): unknown joint kind %d", i, b.Name, int(b.Joint))
		}
	}

	if cfg.JointNames != nil && len(cfg.JointNames) != numDOF {
		problem("%d joint names declared for %d revolute joints", len(cfg.JointNames), numDOF)
	}
	if errs != nil {
		return nil, &ConfigurationError{Tree: cfg.Name, Problems: errs}
	}

	t := &Tree{
		name:      cfg.Name,
		fixedBase: cfg.FixedBase,
		bodies:    bodies,
		children:  make([][]int, n),
		forward:   make([]int, n),
		backward:  make([]int, n),
		dofBody:   make([]int, 0, numDOF),
	}
	for i := range bodies {
		b := &bodies[i]
		t.forward[i] = i
		t.backward[n-1-i] = i
		if i > 0 {
			t.children[b.Parent] = append(t.children[b.Parent], i)
		}
		if b.DOF >= 0 {
			t.dofBody = append(t.dofBody, i)
		}
		switch {
		case i == 0:
			b.Chain = -1
		case b.Parent == 0:
			b.Chain = len(t.chains)
			t.chains = append(t.chains, nil)
		default:
			b.Chain = bodies[b.Parent].Chain
		}
		if b.Chain >= 0 {
			t.chains[b.Chain] = append(t.chains[b.Chain], i)
		}
	}

	t.jointNames = make([]string, numDOF)
	for j, bi := range t.dofBody {
		if cfg.JointNames != nil {
			t.jointNames[j] = cfg.JointNames[j]
		} else if bodies[bi].Name != "" {
			t.jointNames[j] = bodies[bi].Name
		} else {
			t.jointNames[j] = fmt.Sprintf("joint%d", j)
		}
	}
	return t, nil
}

func (t *Tree) Name() string    { return t.name }
func (t *Tree) NumBodies() int  { return len(t.bodies) }
func (t *Tree) NumDOF() int     { return len(t.dofBody) }
func (t *Tree) NumChains() int  { return len(t.chains) }
func (t *Tree) FixedBase() bool { return t.fixedBase }

// Body returns a pointer into the arena. Callers must not change topology fields.
func (t *Tree) Body(i int) *Body { return &t.bodies[i] }

// Parent returns the predecessor of body i, -1 for the base.
func (t *Tree) Parent(i int) int { return t.bodies[i].Parent }

func (t *Tree) Children(i int) []int { return t.children[i] }

// Forward lists body indices root to leaf.
func (t *Tree) Forward() []int { return t.forward }

// Backward lists body indices leaf to root.
func (t *Tree) Backward() []int { return t.backward }

// Chain lists the bodies of chain c from root to tip.
func (t *Tree) Chain(c int) []int { return t.chains[c] }

// DOFBody returns the body driven by joint j.
func (t *Tree) DOFBody(j int) int { return t.dofBody[j] }

func (t *Tree) JointName(j int) string { return t.jointNames[j] }

// JointNames returns the joint names in DOF order.
func (t *Tree) JointNames() []string {
	out := make([]string, len(t.jointNames))
	copy(out, t.jointNames)
	return out
}

// SetParams overwrites the inertial parameters of body i, typically with a
// calibrated estimate.
func (t *Tree) SetParams(i int, p spatial.Params) error {
	if i < 0 || i >= len(t.bodies) {
		return fmt.Errorf("model: body %d out of range", i)
	}
	if p.Mass() < 0 || !p.IsFinite() {
		return fmt.Errorf("model: body %d: %w", i, ErrConfiguration)
	}
	t.bodies[i].Params = p
	return nil
}

// Params returns the parameters of every body, in index order.
func (t *Tree) Params() []spatial.Params {
	out := make([]spatial.Params, len(t.bodies))
	for i := range t.bodies {
		out[i] = t.bodies[i].Params
	}
	return out
}

// SetActive enables or disables a single body.
func (t *Tree) SetActive(i int, active bool) {
	t.bodies[i].Inactive = !active
}

// SetChainActive enables or disables every body of chain c.
func (t *Tree) SetChainActive(c int, active bool) {
	for _, i := range t.chains[c] {
		t.bodies[i].Inactive = !active
	}
}

// TotalMass sums the mass of every active body.
func (t *Tree) TotalMass() float64 {
	m := 0.0
	for i := range t.bodies {
		if t.bodies[i].IsActive() {
			m += t.bodies[i].Params.Mass()
		}
	}
	return m
}

// IsAncestor reports whether a lies on the path from b to the base (b included).
func (t *Tree) IsAncestor(a, b int) bool {
	for ; b >= a; b = t.bodies[b].Parent {
		if b == a {
			return true
		}
	}
	return false
}
