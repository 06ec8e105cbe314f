// Package dynamics computes the rigid-body dynamics of a [model.Tree].
//
// An [Engine] owns every scratch buffer needed for one tick: the trig cache,
// per-body transforms, spatial velocities, accelerations and forces,
// composite inertias and the joint-space mass matrix. Calls never allocate
// once the engine is warm, and an Engine is not safe for concurrent use;
// give each goroutine its own via [Engine.Clone].
//
// The main entry points are:
//
//   - [Engine.Propagate]: spatial velocity and acceleration of every body
//   - [Engine.InverseDynamics]: joint torques and base wrench from motion (Newton-Euler)
//   - [Engine.GravityCompensation]: gravity and Coriolis torques at rest acceleration
//   - [Engine.ForwardDynamics]: joint and base acceleration from torques (composite rigid body)
//
// Gravity is applied as a fictitious upward acceleration of the base, so no
// per-body gravity force appears anywhere in the recursions.
package dynamics
