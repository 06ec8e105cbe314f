package model

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/armdyn/internal/spatial"
)

// JointKind is the connection between a body and its predecessor.
type JointKind int

const (
	// JointFixed welds the body to its predecessor (no degree of freedom).
	JointFixed JointKind = iota
	// JointRevolute rotates about the body's local z axis.
	JointRevolute
	// JointFloating gives the base six unactuated degrees of freedom.
	JointFloating
)

func (k JointKind) String() string {
	switch k {
	case JointFixed:
		return "fixed"
	case JointRevolute:
		return "revolute"
	case JointFloating:
		return "floating"
	default:
		return "unknown"
	}
}

// Body is one rigid body of the tree.
type Body struct {
	Index  int
	Name   string
	Parent int
	Chain  int
	Joint  JointKind
	// DOF is the global joint index of a revolute body, -1 otherwise.
	DOF      int
	Subspace spatial.Vec6

	// Offset is the body origin in predecessor coordinates at zero joint
	// angle; Rotation is the matching orientation.
	Offset   mgl64.Vec3
	Rotation mgl64.Mat3

	Params spatial.Params
	// Inactive bodies contribute nothing and their joints are held still.
	Inactive bool
	// Limits bounds the joint angle. A zero pair means unlimited.
	Limits [2]float64
}

// HasLimits reports whether the joint angle is bounded.
func (b *Body) HasLimits() bool {
	return b.Limits != [2]float64{}
}

// IsActive reports whether the body takes part in the dynamics.
func (b *Body) IsActive() bool {
	return !b.Inactive
}

// RevoluteZ is the motion subspace of a revolute joint about local z.
var RevoluteZ = spatial.Vec6{0, 0, 1, 0, 0, 0}
