// Package spatial implements the 6-D spatial vector algebra used by the
// dynamics engine.
//
// Spatial vectors are stored as [Vec6] with the rotational part first:
//
//   - motion vectors: [ω; v] (angular velocity, linear velocity of the frame origin)
//   - force vectors:  [n; f] (moment about the frame origin, linear force)
//
// A [Transform] moves motion vectors from a parent frame into a child frame;
// its transpose moves force vectors from the child back to the parent. Rigid
// body inertia is described by ten linear parameters ([Params]) so that every
// quantity derived from it stays linear in those parameters, which is what
// the identification regressor relies on.
//
// All types are fixed-size values; nothing in this package allocates.
package spatial
