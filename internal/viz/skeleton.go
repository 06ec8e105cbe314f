package viz

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/armdyn/internal/dynamics"
	"github.com/san-kum/armdyn/internal/model"
	"github.com/san-kum/armdyn/internal/sim"
)

// Skeleton turns a flat simulation state into line segments joining every
// body origin to its parent. Leaves get a marker.
type Skeleton struct {
	eng    *dynamics.Engine
	layout sim.Layout
	st     *model.State
	origin []mgl64.Vec3
	segs   []Segment
}

func NewSkeleton(eng *dynamics.Engine) *Skeleton {
	tree := eng.Tree()
	return &Skeleton{
		eng:    eng.Clone(),
		layout: sim.NewLayout(tree),
		st:     model.NewState(tree),
		origin: make([]mgl64.Vec3, tree.NumBodies()),
		segs:   make([]Segment, 0, tree.NumBodies()),
	}
}

// Segments returns the skeleton for x. The slice is reused between calls.
func (s *Skeleton) Segments(x sim.State) []Segment {
	s.segs = s.segs[:0]
	if len(x) != s.layout.Dim() {
		return s.segs
	}
	s.layout.Unpack(x, s.st)
	tree := s.eng.Tree()
	for i := 0; i < tree.NumBodies(); i++ {
		_, s.origin[i] = s.eng.BodyPose(s.st, i)
	}
	for i := 1; i < tree.NumBodies(); i++ {
		if !tree.Body(i).IsActive() {
			continue
		}
		s.segs = append(s.segs, Segment{
			From:   s.origin[tree.Parent(i)],
			To:     s.origin[i],
			Marker: len(tree.Children(i)) == 0,
		})
	}
	return s.segs
}

// Origins returns the body origins computed by the last Segments call.
func (s *Skeleton) Origins() []mgl64.Vec3 { return s.origin }
