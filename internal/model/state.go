package model

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/num/quat"

	"github.com/san-kum/armdyn/internal/spatial"
)

// JointState is the per-tick state of one revolute joint.
type JointState struct {
	Pos float64
	Vel float64
	Acc float64
	// U is the commanded torque, Uff an additional feed-forward torque.
	U   float64
	Uff float64
	// Uex is an externally applied joint torque (e.g. a spring or a
	// measured disturbance).
	Uex float64
}

// FloatingBase is the state of a floating base. Linear quantities are in
// world coordinates; angular ones in base coordinates.
type FloatingBase struct {
	Pos    mgl64.Vec3
	Vel    mgl64.Vec3
	Acc    mgl64.Vec3
	Orient quat.Number
	AngVel mgl64.Vec3
	AngAcc mgl64.Vec3
}

// State is the complete per-tick input of the dynamics.
type State struct {
	Joints []JointState
	Base   FloatingBase
}

// NewState returns a zero state for t with an identity base orientation.
func NewState(t *Tree) *State {
	return &State{
		Joints: make([]JointState, t.NumDOF()),
		Base:   FloatingBase{Orient: quat.Number{Real: 1}},
	}
}

func (s *State) Clone() *State {
	out := &State{Joints: make([]JointState, len(s.Joints)), Base: s.Base}
	copy(out.Joints, s.Joints)
	return out
}

// Positions copies joint angles into dst, allocating when dst is too short.
func (s *State) Positions(dst []float64) []float64 {
	if len(dst) < len(s.Joints) {
		dst = make([]float64, len(s.Joints))
	}
	for j := range s.Joints {
		dst[j] = s.Joints[j].Pos
	}
	return dst[:len(s.Joints)]
}

func (s *State) SetPositions(q []float64) {
	for j := range s.Joints {
		s.Joints[j].Pos = q[j]
	}
}

func (s *State) SetVelocities(qd []float64) {
	for j := range s.Joints {
		s.Joints[j].Vel = qd[j]
	}
}

func (s *State) SetAccelerations(qdd []float64) {
	for j := range s.Joints {
		s.Joints[j].Acc = qdd[j]
	}
}

// Torques returns U + Uff for every joint.
func (s *State) Torques(dst []float64) []float64 {
	if len(dst) < len(s.Joints) {
		dst = make([]float64, len(s.Joints))
	}
	for j := range s.Joints {
		dst[j] = s.Joints[j].U + s.Joints[j].Uff
	}
	return dst[:len(s.Joints)]
}

// Wrenches holds external spatial forces [torque; force] by body index, in
// body coordinates about the body origin. Absent bodies receive none.
type Wrenches map[int]spatial.Vec6
