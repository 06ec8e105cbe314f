package metrics

import (
	"math"

	"github.com/san-kum/armdyn/internal/sim"
)

// TrackingError is the RMS joint position error against a fixed target,
// taken over all joints and samples.
type TrackingError struct {
	target []float64
	sumSq  float64
	count  int
}

func NewTrackingError(target []float64) *TrackingError {
	return &TrackingError{target: append([]float64(nil), target...)}
}

func (m *TrackingError) Name() string {
	return "tracking_error"
}

func (m *TrackingError) Observe(x sim.State, u sim.Control, t float64) {
	n := min(len(m.target), len(x))
	for j := 0; j < n; j++ {
		e := x[j] - m.target[j]
		m.sumSq += e * e
	}
	m.count += n
}

func (m *TrackingError) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return math.Sqrt(m.sumSq / float64(m.count))
}

func (m *TrackingError) Reset() {
	m.sumSq = 0
	m.count = 0
}
