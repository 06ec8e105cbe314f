package metrics

import (
	"github.com/san-kum/armdyn/internal/dynamics"
	"github.com/san-kum/armdyn/internal/model"
	"github.com/san-kum/armdyn/internal/sim"
)

// BaseForce tracks the peak force the world applies to the base. It solves
// forward dynamics for the commanded torques and feeds the result back
// through inverse dynamics, so a fixed base reports its mount reaction and a
// floating base reports a residual that should stay near zero.
type BaseForce struct {
	name   string
	eng    *dynamics.Engine
	layout sim.Layout
	st     *model.State
	tau    []float64
	qdd    []float64

	peak   float64
	errors int
}

func NewBaseForce(eng *dynamics.Engine) *BaseForce {
	tree := eng.Tree()
	n := tree.NumDOF()
	return &BaseForce{
		name:   "peak_base_force",
		eng:    eng.Clone(),
		layout: sim.NewLayout(tree),
		st:     model.NewState(tree),
		tau:    make([]float64, n),
		qdd:    make([]float64, n),
	}
}

func (b *BaseForce) Name() string { return b.name }

func (b *BaseForce) Observe(x sim.State, u sim.Control, t float64) {
	if len(x) != b.layout.Dim() {
		b.errors++
		return
	}
	b.layout.Unpack(x, b.st)
	for j := range b.tau {
		b.tau[j] = 0
		if j < len(u) {
			b.tau[j] = u[j]
		}
	}
	base, err := b.eng.ForwardDynamics(b.st, nil, b.tau, b.qdd)
	if err != nil {
		b.errors++
		return
	}
	b.st.SetAccelerations(b.qdd)
	b.st.Base.Acc = base.Linear
	b.st.Base.AngAcc = base.Angular

	w, err := b.eng.InverseDynamics(b.st, nil, b.tau)
	if err != nil {
		b.errors++
		return
	}
	if f := w.Force.Len(); f > b.peak {
		b.peak = f
	}
}

func (b *BaseForce) Value() float64 { return b.peak }

// Errors counts samples the dynamics could not evaluate.
func (b *BaseForce) Errors() int { return b.errors }

func (b *BaseForce) Reset() {
	b.peak = 0
	b.errors = 0
}
