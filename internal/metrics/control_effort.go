package metrics

import (
	"math"

	"github.com/san-kum/armdyn/internal/model"
	"github.com/san-kum/armdyn/internal/sim"
)

// ControlEffort is the RMS joint torque over all samples and active joints.
// Joints of inactive bodies never move, so whatever is commanded there is
// left out.
type ControlEffort struct {
	name    string
	active  []bool
	sumSq   []float64
	samples int
}

func NewControlEffort(tree *model.Tree) *ControlEffort {
	n := tree.NumDOF()
	c := &ControlEffort{
		name:   "control_effort",
		active: make([]bool, n),
		sumSq:  make([]float64, n),
	}
	for d := 0; d < n; d++ {
		c.active[d] = tree.Body(tree.DOFBody(d)).IsActive()
	}
	return c
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(x sim.State, u sim.Control, t float64) {
	for j, tau := range u {
		if j < len(c.active) && c.active[j] {
			c.sumSq[j] += tau * tau
		}
	}
	c.samples++
}

// PerJoint returns the RMS torque of every joint; inactive joints read zero.
func (c *ControlEffort) PerJoint() []float64 {
	out := make([]float64, len(c.sumSq))
	if c.samples == 0 {
		return out
	}
	for j, s := range c.sumSq {
		out[j] = math.Sqrt(s / float64(c.samples))
	}
	return out
}

func (c *ControlEffort) Value() float64 {
	total, joints := 0.0, 0
	for j, s := range c.sumSq {
		if c.active[j] {
			total += s
			joints++
		}
	}
	if c.samples == 0 || joints == 0 {
		return 0
	}
	return math.Sqrt(total / float64(c.samples*joints))
}

func (c *ControlEffort) Reset() {
	for j := range c.sumSq {
		c.sumSq[j] = 0
	}
	c.samples = 0
}
