package sim

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/num/quat"

	"github.com/san-kum/armdyn/internal/dynamics"
	"github.com/san-kum/armdyn/internal/model"
	"github.com/san-kum/armdyn/internal/spatial"
)

// Layout maps a model.State onto a flat simulation state:
//
//	[ q | base pos | base quat (w,x,y,z) | q̇ | base vel | base ω ]
//
// Base entries are present only for floating bases. Base velocity is in
// world coordinates, ω in base coordinates.
type Layout struct {
	DOF      int
	Floating bool
}

// NewLayout returns the layout for tree.
func NewLayout(tree *model.Tree) Layout {
	return Layout{DOF: tree.NumDOF(), Floating: !tree.FixedBase()}
}

// PositionDim is the size of the position block.
func (l Layout) PositionDim() int {
	if l.Floating {
		return l.DOF + 7
	}
	return l.DOF
}

// Dim is the total state size.
func (l Layout) Dim() int {
	if l.Floating {
		return 2*l.DOF + 13
	}
	return 2 * l.DOF
}

// Pack writes st into a new flat state.
func (l Layout) Pack(st *model.State) State {
	x := make(State, l.Dim())
	p := l.PositionDim()
	for j := 0; j < l.DOF; j++ {
		x[j] = st.Joints[j].Pos
		x[p+j] = st.Joints[j].Vel
	}
	if l.Floating {
		b := &st.Base
		copy(x[l.DOF:], b.Pos[:])
		x[l.DOF+3], x[l.DOF+4], x[l.DOF+5], x[l.DOF+6] = b.Orient.Real, b.Orient.Imag, b.Orient.Jmag, b.Orient.Kmag
		copy(x[p+l.DOF:], b.Vel[:])
		copy(x[p+l.DOF+3:], b.AngVel[:])
	}
	return x
}

// Unpack loads positions and velocities from x into st. Accelerations and
// commands are left untouched.
func (l Layout) Unpack(x State, st *model.State) {
	p := l.PositionDim()
	for j := 0; j < l.DOF; j++ {
		st.Joints[j].Pos = x[j]
		st.Joints[j].Vel = x[p+j]
	}
	if l.Floating {
		b := &st.Base
		b.Pos = mgl64.Vec3{x[l.DOF], x[l.DOF+1], x[l.DOF+2]}
		b.Orient = quat.Number{Real: x[l.DOF+3], Imag: x[l.DOF+4], Jmag: x[l.DOF+5], Kmag: x[l.DOF+6]}
		v := p + l.DOF
		b.Vel = mgl64.Vec3{x[v], x[v+1], x[v+2]}
		b.AngVel = mgl64.Vec3{x[v+3], x[v+4], x[v+5]}
	}
}

// Columns names every state entry of tree, in layout order.
func Columns(tree *model.Tree) []string {
	l := NewLayout(tree)
	cols := make([]string, 0, l.Dim())
	for j := 0; j < l.DOF; j++ {
		cols = append(cols, "q:"+tree.JointName(j))
	}
	if l.Floating {
		cols = append(cols, "base_x", "base_y", "base_z", "base_qw", "base_qx", "base_qy", "base_qz")
	}
	for j := 0; j < l.DOF; j++ {
		cols = append(cols, "qd:"+tree.JointName(j))
	}
	if l.Floating {
		cols = append(cols, "base_vx", "base_vy", "base_vz", "base_wx", "base_wy", "base_wz")
	}
	return cols
}

// Arm integrates the forward dynamics of a tree. Control entries are joint
// torques; missing entries count as zero.
type Arm struct {
	eng      *dynamics.Engine
	layout   Layout
	st       *model.State
	wrenches model.Wrenches

	tau     []float64
	scratch []float64
	qdd     []float64
	base    dynamics.BaseAccel

	faults  int
	lastErr error
}

func NewArm(eng *dynamics.Engine) *Arm {
	tree := eng.Tree()
	n := tree.NumDOF()
	return &Arm{
		eng:     eng,
		layout:  NewLayout(tree),
		st:      model.NewState(tree),
		tau:     make([]float64, n),
		scratch: make([]float64, n),
		qdd:     make([]float64, n),
	}
}

func (a *Arm) Layout() Layout               { return a.layout }
func (a *Arm) Engine() *dynamics.Engine     { return a.eng }
func (a *Arm) StateDim() int                { return a.layout.Dim() }
func (a *Arm) ControlDim() int              { return a.layout.DOF }
func (a *Arm) PositionDim() int             { return a.layout.PositionDim() }
func (a *Arm) SetWrenches(w model.Wrenches) { a.wrenches = w }

// Faults counts derivative evaluations where forward dynamics failed and the
// previous accelerations were reused.
func (a *Arm) Faults() int { return a.faults }

func (a *Arm) LastError() error { return a.lastErr }

func (a *Arm) Derive(x State, u Control, t float64) State {
	a.layout.Unpack(x, a.st)
	for j := range a.tau {
		a.tau[j] = 0
		if j < len(u) {
			a.tau[j] = u[j]
		}
		a.st.Joints[j].U = a.tau[j]
	}

	base, err := a.eng.ForwardDynamics(a.st, a.wrenches, a.tau, a.scratch)
	if err != nil {
		a.faults++
		a.lastErr = err
	} else {
		copy(a.qdd, a.scratch)
		a.base = base
	}

	dx := make(State, len(x))
	a.PositionRate(x, dx)
	p := a.layout.PositionDim()
	copy(dx[p:], a.qdd)
	if a.layout.Floating {
		v := p + a.layout.DOF
		copy(dx[v:], a.base.Linear[:])
		copy(dx[v+3:], a.base.Angular[:])
	}
	return dx
}

// PositionRate fills the position block of dst from the velocities in x.
func (a *Arm) PositionRate(x State, dst State) {
	l := a.layout
	p := l.PositionDim()
	copy(dst[:l.DOF], x[p:p+l.DOF])
	if !l.Floating {
		return
	}
	v := p + l.DOF
	copy(dst[l.DOF:l.DOF+3], x[v:v+3])
	q := quat.Number{Real: x[l.DOF+3], Imag: x[l.DOF+4], Jmag: x[l.DOF+5], Kmag: x[l.DOF+6]}
	dq := spatial.QuatDerivative(q, mgl64.Vec3{x[v+3], x[v+4], x[v+5]})
	dst[l.DOF+3], dst[l.DOF+4], dst[l.DOF+5], dst[l.DOF+6] = dq.Real, dq.Imag, dq.Jmag, dq.Kmag
}

// Normalize rescales the base quaternion to unit length.
func (a *Arm) Normalize(x State) {
	if !a.layout.Floating {
		return
	}
	o := a.layout.DOF + 3
	q := quat.Number{Real: x[o], Imag: x[o+1], Jmag: x[o+2], Kmag: x[o+3]}
	n := quat.Abs(q)
	if n == 0 {
		return
	}
	for i := o; i < o+4; i++ {
		x[i] /= n
	}
}

// Retract moves x by h·dx into dst. The base quaternion instead turns by the
// exponential map of the body angular velocity held in x, which keeps it at
// unit length.
func (a *Arm) Retract(dst, x, dx State, h float64) {
	for i := range x {
		dst[i] = x[i] + h*dx[i]
	}
	l := a.layout
	if !l.Floating {
		return
	}
	o := l.DOF + 3
	w := l.PositionDim() + l.DOF + 3
	q := quat.Number{Real: x[o], Imag: x[o+1], Jmag: x[o+2], Kmag: x[o+3]}
	turn := quat.Exp(quat.Number{Imag: h / 2 * x[w], Jmag: h / 2 * x[w+1], Kmag: h / 2 * x[w+2]})
	r := quat.Mul(q, turn)
	dst[o], dst[o+1], dst[o+2], dst[o+3] = r.Real, r.Imag, r.Jmag, r.Kmag
}

// Energy is kinetic plus gravitational potential energy.
func (a *Arm) Energy(x State) float64 {
	a.layout.Unpack(x, a.st)
	ke, err := a.eng.KineticEnergy(a.st)
	if err != nil {
		return 0
	}
	pe, err := a.eng.PotentialEnergy(a.st)
	if err != nil {
		return 0
	}
	return ke + pe
}

// Momentum returns the total spatial momentum in world coordinates.
func (a *Arm) Momentum(x State) spatial.Vec6 {
	a.layout.Unpack(x, a.st)
	h, err := a.eng.Momentum(a.st)
	if err != nil {
		return spatial.Vec6{}
	}
	return h
}
