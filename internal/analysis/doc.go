// Package analysis inspects recorded trajectories.
//
//   - [PowerSpectrum] and [DominantFrequency]: oscillation content of one
//     state column, e.g. a joint swinging under gravity
//   - [NewPhasePortrait]: position against velocity of one joint, rendered
//     as text
//
// # Usage
//
//	states, _, _ := store.LoadStates(runID)
//	f := analysis.DominantFrequency(analysis.Column(states, 0), meta.Dt)
package analysis
