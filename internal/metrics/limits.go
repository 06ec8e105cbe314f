package metrics

import (
	"github.com/san-kum/armdyn/internal/model"
	"github.com/san-kum/armdyn/internal/sim"
)

// JointLimits is the fraction of samples with every limited joint inside its
// range.
type JointLimits struct {
	name       string
	lower      []float64
	upper      []float64
	limited    []bool
	violations int
	samples    int
}

func NewJointLimits(tree *model.Tree) *JointLimits {
	n := tree.NumDOF()
	j := &JointLimits{
		name:    "within_limits",
		lower:   make([]float64, n),
		upper:   make([]float64, n),
		limited: make([]bool, n),
	}
	for d := 0; d < n; d++ {
		b := tree.Body(tree.DOFBody(d))
		if b.HasLimits() {
			j.lower[d], j.upper[d] = b.Limits[0], b.Limits[1]
			j.limited[d] = true
		}
	}
	return j
}

func (j *JointLimits) Name() string {
	return j.name
}

func (j *JointLimits) Observe(x sim.State, u sim.Control, t float64) {
	j.samples++
	for d, ok := range j.limited {
		if !ok || d >= len(x) {
			continue
		}
		if x[d] < j.lower[d] || x[d] > j.upper[d] {
			j.violations++
			break
		}
	}
}

func (j *JointLimits) Value() float64 {
	if j.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(j.violations)/float64(j.samples)
}

func (j *JointLimits) Reset() {
	j.violations = 0
	j.samples = 0
}
