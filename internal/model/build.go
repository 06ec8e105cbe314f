package model

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/armdyn/internal/spatial"
)

// RobotSpec describes a base carrying any number of serial chains.
type RobotSpec struct {
	Name      string
	FixedBase bool
	Base      spatial.Params
	Chains    []ChainSpec
}

// ChainSpec is one serial chain mounted on the base.
type ChainSpec struct {
	Name string
	// Mount is the chain root position on the base; Yaw rotates the whole
	// chain about the base z axis.
	Mount       mgl64.Vec3
	Yaw         float64
	Links       []LinkSpec
	EndEffector *EndEffector
	// Gripper hangs off the end effector, or the last link without one.
	Gripper *EndEffector
}

// LinkSpec is a revolute link in modified Denavit-Hartenberg form: the joint
// frame is reached from the previous one by Rx(Alpha), a translation A along
// x, and a translation D along the new z.
type LinkSpec struct {
	Name   string
	Alpha  float64
	A      float64
	D      float64
	Limits [2]float64
	Params spatial.Params
	// Inactive builds the link switched off; see Body.Inactive.
	Inactive bool
}

// EndEffector is a rigid tool at the chain tip.
type EndEffector struct {
	Name   string
	Offset mgl64.Vec3
	// Euler holds x, y, z rotations applied in that order.
	Euler    mgl64.Vec3
	Params   spatial.Params
	Inactive bool
}

// LinkOffset returns the fixed rotation and origin of a link frame in its
// predecessor at zero joint angle.
func LinkOffset(l LinkSpec) (mgl64.Mat3, mgl64.Vec3) {
	s, c := math.Sincos(l.Alpha)
	return spatial.RotX(s, c), mgl64.Vec3{l.A, -l.D * s, l.D * c}
}

// Build turns a chain description into a validated tree.
func Build(spec RobotSpec) (*Tree, error) {
	baseJoint := JointFloating
	if spec.FixedBase {
		baseJoint = JointFixed
	}
	bodies := []Body{{
		Name:   "base",
		Parent: -1,
		Joint:  baseJoint,
		Params: spec.Base,
	}}
	var names []string

	for ci, ch := range spec.Chains {
		chainName := ch.Name
		if chainName == "" {
			chainName = fmt.Sprintf("chain%d", ci)
		}
		sy, cy := math.Sincos(ch.Yaw)
		yaw := spatial.RotZ(sy, cy)
		mount := func(rot mgl64.Mat3, off mgl64.Vec3) (mgl64.Mat3, mgl64.Vec3) {
			return yaw.Mul3(rot), ch.Mount.Add(yaw.Mul3x1(off))
		}

		parent := 0
		for li, l := range ch.Links {
			rot, off := LinkOffset(l)
			if parent == 0 {
				rot, off = mount(rot, off)
			}
			name := l.Name
			if name == "" {
				name = fmt.Sprintf("joint%d", li+1)
			}
			name = chainName + "/" + name
			bodies = append(bodies, Body{
				Name:     name,
				Parent:   parent,
				Joint:    JointRevolute,
				Offset:   off,
				Rotation: rot,
				Params:   l.Params,
				Limits:   l.Limits,
				Inactive: l.Inactive,
			})
			names = append(names, name)
			parent = len(bodies) - 1
		}

		tool := func(ee *EndEffector, fallback string) {
			rot := spatial.EulerXYZ(ee.Euler[0], ee.Euler[1], ee.Euler[2])
			off := ee.Offset
			if parent == 0 {
				rot, off = mount(rot, off)
			}
			name := ee.Name
			if name == "" {
				name = fallback
			}
			bodies = append(bodies, Body{
				Name:     chainName + "/" + name,
				Parent:   parent,
				Joint:    JointFixed,
				Offset:   off,
				Rotation: rot,
				Params:   ee.Params,
				Inactive: ee.Inactive,
			})
			parent = len(bodies) - 1
		}
		if ch.EndEffector != nil {
			tool(ch.EndEffector, "ee")
		}
		if ch.Gripper != nil {
			tool(ch.Gripper, "gripper")
		}
	}

	name := spec.Name
	if name == "" {
		name = "robot"
	}
	return NewTree(TreeConfig{
		Name:       name,
		FixedBase:  spec.FixedBase,
		Bodies:     bodies,
		JointNames: names,
	})
}
