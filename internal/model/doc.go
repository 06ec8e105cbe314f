// Package model describes articulated rigid-body systems.
//
// A [Tree] is an index-addressed arena of [Body] values. Body 0 is the base,
// either floating (six unactuated degrees of freedom) or fixed to the world.
// Every other body hangs off a predecessor with a smaller index, so a plain
// index sweep visits parents before children. Several serial chains may share
// the base; each chain may end in a rigidly attached end-effector.
//
// Trees are built either directly from a [TreeConfig] or from a chain
// description ([RobotSpec]) using modified Denavit-Hartenberg link offsets.
// Per-tick inputs are carried by [State] and [Wrenches].
package model
