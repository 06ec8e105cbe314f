// Package control provides joint torque controllers for the simulator.
//
// Controllers implement [sim.Controller]:
//
//   - [Passive]: zero torque, optionally with viscous joint damping
//   - [GravityCompensation]: feed-forward torque that cancels gravity,
//     Coriolis and centrifugal effects at the measured state
//   - [Hold]: PID about a joint target on top of gravity compensation
//   - [Manual]: adds an operator torque offset to another controller
//
// Controllers that need the dynamics own a clone of the engine, so they can
// run next to the simulated system without sharing its workspace.
//
// # Usage
//
//	gc, _ := control.NewGravityCompensation(eng)
//	s := sim.New(arm, integ, gc)
//
// Controllers implementing Tunable support live adjustment from the
// terminal dashboard.
package control
