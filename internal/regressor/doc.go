// Package regressor assembles the linear map between inertial parameters and
// joint torques.
//
// Rigid-body dynamics are linear in the ten inertial parameters of every
// body, so for each sample τ = K·p holds with K built from measured motion
// alone. A [Builder] stacks one block of rows per sample; [Generate] fills
// many samples in parallel. Solving the stacked system is left to package
// identify.
//
// Layout: row sample*RowsPerSample+j carries joint j, followed by six base
// rows ([torque; force] in base coordinates) when the base is included.
// Column 10*body+k carries parameter k of body in spatial.Params order.
package regressor
