package control

import (
	"github.com/san-kum/armdyn/internal/dynamics"
	"github.com/san-kum/armdyn/internal/sim"
)

// Hold keeps every joint at Target with a PID law on top of gravity
// compensation. The derivative term acts on the measured joint velocity, so
// a target change does not kick the output.
type Hold struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target []float64

	gc       *GravityCompensation
	integral []float64
	prevT    float64
	first    bool
}

// NewHold holds the joints at target. A nil target is replaced by the joint
// positions seen on the first call.
func NewHold(eng *dynamics.Engine, kp, ki, kd float64, target []float64) (*Hold, error) {
	gc, err := NewGravityCompensation(eng)
	if err != nil {
		return nil, err
	}
	n := gc.layout.DOF
	h := &Hold{
		Kp:       kp,
		Ki:       ki,
		Kd:       kd,
		gc:       gc,
		integral: make([]float64, n),
		first:    true,
	}
	if target != nil {
		h.Target = make([]float64, n)
		copy(h.Target, target)
	}
	return h, nil
}

func (h *Hold) Compute(x sim.State, t float64) sim.Control {
	l := h.gc.layout
	u := make(sim.Control, l.DOF)
	h.gc.computeInto(x, u)
	if len(x) != l.Dim() {
		return u
	}
	if h.Target == nil {
		h.Target = make([]float64, l.DOF)
		copy(h.Target, x[:l.DOF])
	}

	dt := 0.0
	if !h.first {
		dt = t - h.prevT
	}
	h.first = false
	h.prevT = t

	p := l.PositionDim()
	for j := 0; j < l.DOF; j++ {
		err := h.Target[j] - x[j]
		if dt > 0 {
			h.integral[j] += err * dt
		}
		u[j] += h.Kp*err + h.Ki*h.integral[j] - h.Kd*x[p+j]
	}
	return u
}

// Reset clears the integral state.
func (h *Hold) Reset() {
	for i := range h.integral {
		h.integral[i] = 0
	}
	h.first = true
}

// GetParams returns tunable parameters for live adjustment
func (h *Hold) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp": h.Kp,
		"Ki": h.Ki,
		"Kd": h.Kd,
	}
}

// SetParam adjusts a gain
func (h *Hold) SetParam(name string, value float64) {
	switch name {
	case "Kp":
		h.Kp = value
	case "Ki":
		h.Ki = value
	case "Kd":
		h.Kd = value
	}
}
