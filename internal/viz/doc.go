// Package viz is a live terminal dashboard for arm simulations.
//
// The dashboard runs the simulation on the Bubble Tea event loop, draws the
// body skeleton on a Braille [Canvas] through a rotatable [Camera] and shows
// joint positions, commanded torques and the energy history next to it.
//
// # Key Bindings
//
//	Space   - Pause/Resume simulation
//	R       - Reset to the initial state
//	Tab     - Select next joint
//	+/-     - Push the selected joint (operator torque)
//	0       - Clear operator torques
//	G       - Cycle controller gain
//	Up/Down - Scale selected gain by 5%
//	X/Y/Z   - Rotate camera (shift reverses)
//	[ ]     - Zoom
//	?       - Show help
package viz
