// Copyright ©2025 NoemieJaquier. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package priority

import "gonum.org/v1/gonum/mat"

// Model is the capability set a constraint reads from the robot each control
// cycle: Jacobians for named frames, joint limits, and the current dynamics
// terms. Implementations own the state; constraints only read it.
//
// Within one control cycle the model must not change between Update calls,
// so that Update stays a pure function of (model state, x). The caller
// guarantees single-writer-per-cycle semantics; no locking happens here.
type Model interface {
	// DoF returns the number of degrees of freedom (the size of 𝐪).
	DoF() int
	// Positions returns the current joint positions 𝐪.
	Positions() *mat.VecDense
	// Velocities returns the current joint velocities 𝐪̇.
	Velocities() *mat.VecDense
	// Jacobian returns the task Jacobian 𝐉(𝐪) of the named frame.
	// An unknown frame is an error.
	Jacobian(frame string) (*mat.Dense, error)
	// MassMatrix returns the joint-space inertia matrix 𝐌(𝐪).
	MassMatrix() *mat.SymDense
	// BiasForces returns the Coriolis, centrifugal and gravity torques 𝐡(𝐪,𝐪̇).
	BiasForces() *mat.VecDense
	// VelocityBounds returns the per-joint velocity limits.
	// A missing side is ±Inf, following the Bound infinity convention.
	VelocityBounds() (lower, upper *mat.VecDense)
	// AccelerationBounds returns the per-joint acceleration limits.
	AccelerationBounds() (lower, upper *mat.VecDense)
	// EffortBounds returns the per-joint torque limits.
	EffortBounds() (lower, upper *mat.VecDense)
}
