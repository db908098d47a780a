// Copyright ©2025 NoemieJaquier. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package priority

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// JointVelocityLimits bounds the joint velocities directly:
//
//	𝐪̇ₗ ≤ 𝐱 ≤ 𝐪̇ᵤ
//
// for a velocity-level program where 𝐱 = 𝐪̇. Absent limits are ±Inf.
type JointVelocityLimits struct {
	state
}

// NewJointVelocityLimits creates a velocity bound constraint for the model.
func NewJointVelocityLimits(m Model) (*JointVelocityLimits, error) {
	n, err := checkModel(m)
	if err != nil {
		return nil, err
	}
	c := &JointVelocityLimits{}
	c.kind = Bounds | Kinematic
	c.n = n
	return c, nil
}

// Update refreshes the bounds from the model's velocity limits.
func (c *JointVelocityLimits) Update(m Model, _ *mat.VecDense) error {
	lo, hi, err := boundPair(m, c.n, Model.VelocityBounds)
	if err != nil {
		return err
	}
	cloneVec(&c.lower, lo)
	cloneVec(&c.upper, hi)
	c.ready = true
	return nil
}

// JointAccelerationLimits bounds the joint accelerations directly:
//
//	𝐪̈ₗ ≤ 𝐱 ≤ 𝐪̈ᵤ
//
// for an acceleration-level program where 𝐱 = 𝐪̈.
type JointAccelerationLimits struct {
	state
}

// NewJointAccelerationLimits creates an acceleration bound constraint for the model.
func NewJointAccelerationLimits(m Model) (*JointAccelerationLimits, error) {
	n, err := checkModel(m)
	if err != nil {
		return nil, err
	}
	c := &JointAccelerationLimits{}
	c.kind = Bounds | Dynamic
	c.n = n
	return c, nil
}

// Update refreshes the bounds from the model's acceleration limits.
func (c *JointAccelerationLimits) Update(m Model, _ *mat.VecDense) error {
	lo, hi, err := boundPair(m, c.n, Model.AccelerationBounds)
	if err != nil {
		return err
	}
	cloneVec(&c.lower, lo)
	cloneVec(&c.upper, hi)
	c.ready = true
	return nil
}

// JointEffortLimits keeps the torques realizing an acceleration within the
// actuator limits. With the equation of motion 𝛕 = 𝐌(𝐪)𝐪̈ + 𝐡(𝐪,𝐪̇) the
// limits 𝛕ₗ ≤ 𝛕 ≤ 𝛕ᵤ become the bilateral constraint
//
//	𝛕ₗ - 𝐡 ≤ 𝐌𝐱 ≤ 𝛕ᵤ - 𝐡
//
// for an acceleration-level program where 𝐱 = 𝐪̈.
type JointEffortLimits struct {
	state
}

// NewJointEffortLimits creates an effort constraint for the model.
func NewJointEffortLimits(m Model) (*JointEffortLimits, error) {
	n, err := checkModel(m)
	if err != nil {
		return nil, err
	}
	c := &JointEffortLimits{}
	c.kind = Bilateral | Dynamic
	c.n = n
	return c, nil
}

// Update refreshes 𝐌 and 𝛕-limits minus bias from the model.
func (c *JointEffortLimits) Update(m Model, _ *mat.VecDense) error {
	lo, hi, err := boundPair(m, c.n, Model.EffortBounds)
	if err != nil {
		return err
	}
	h := m.BiasForces()
	if h == nil || h.Len() != c.n {
		return fmt.Errorf("%w: bias forces dimension", ErrInvalidArgument)
	}
	mm := m.MassMatrix()
	if mm == nil || mm.SymmetricDim() != c.n {
		return fmt.Errorf("%w: mass matrix dimension", ErrInvalidArgument)
	}
	cloneDense(&c.aIneq, mm)
	cloneVec(&c.bLower, lo)
	cloneVec(&c.bUpper, hi)
	c.bLower.SubVec(c.bLower, h)
	c.bUpper.SubVec(c.bUpper, h)
	c.ready = true
	return nil
}

// CartesianVelocity tracks a reference twist of a named frame:
//
//	𝐉(𝐪)𝐱 = 𝐯ᵣ
//
// for a velocity-level program where 𝐱 = 𝐪̇. The reference is held between
// cycles and may be retargeted with SetReference.
type CartesianVelocity struct {
	state
	frame string
	ref   *mat.VecDense
	rows  int
}

// NewCartesianVelocity creates an equality constraint tracking ref on frame.
func NewCartesianVelocity(m Model, frame string, ref *mat.VecDense) (*CartesianVelocity, error) {
	n, err := checkModel(m)
	if err != nil {
		return nil, err
	}
	j, err := m.Jacobian(frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	r, jc := j.Dims()
	if jc != n {
		return nil, fmt.Errorf("%w: jacobian columns %d != dof %d", ErrInvalidArgument, jc, n)
	}
	if ref == nil || ref.Len() != r {
		return nil, fmt.Errorf("%w: reference dimension must be %d", ErrInvalidArgument, r)
	}
	c := &CartesianVelocity{frame: frame, ref: mat.VecDenseCopyOf(ref), rows: r}
	c.kind = Equality | Kinematic
	c.n = n
	return c, nil
}

// SetReference retargets the tracked twist. Takes effect on the next Update.
func (c *CartesianVelocity) SetReference(ref *mat.VecDense) error {
	if ref == nil || ref.Len() != c.rows {
		return fmt.Errorf("%w: reference dimension must be %d", ErrInvalidArgument, c.rows)
	}
	c.ref.CopyVec(ref)
	return nil
}

// Update refreshes the Jacobian of the tracked frame.
func (c *CartesianVelocity) Update(m Model, _ *mat.VecDense) error {
	if m == nil {
		return fmt.Errorf("%w: nil model", ErrInvalidArgument)
	}
	j, err := m.Jacobian(c.frame)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	cloneDense(&c.aEq, j)
	cloneVec(&c.bEq, c.ref)
	c.ready = true
	return nil
}

// Side selects the active side of a unilateral constraint.
type Side int

const (
	// LowerSide keeps 𝐛ₗ ≤ 𝐀𝐱 and leaves the upper side at +Inf.
	LowerSide Side = iota
	// UpperSide keeps 𝐀𝐱 ≤ 𝐛ᵤ and leaves the lower side at -Inf.
	UpperSide
)

// LinearInequality is a fixed linear inequality 𝐛ₗ ≤ 𝐀𝐱 ≤ 𝐛ᵤ supplied by the
// caller. A unilateral instance carries exactly one finite side: the other
// side is filled with ±Inf, never with a spurious finite value.
type LinearInequality struct {
	state
	a        *mat.Dense
	lo, hi   *mat.VecDense
	infLo    bool
	infHi    bool
	rowCount int
}

// NewUnilateral creates a single-sided inequality on 𝐀𝐱.
func NewUnilateral(m Model, a *mat.Dense, side Side, b *mat.VecDense) (*LinearInequality, error) {
	switch side {
	case LowerSide:
		return newLinearIneq(m, a, b, nil, Unilateral)
	case UpperSide:
		return newLinearIneq(m, a, nil, b, Unilateral)
	}
	return nil, fmt.Errorf("%w: unknown side %d", ErrInvalidArgument, side)
}

// NewBilateral creates a two-sided inequality 𝐛ₗ ≤ 𝐀𝐱 ≤ 𝐛ᵤ.
func NewBilateral(m Model, a *mat.Dense, lower, upper *mat.VecDense) (*LinearInequality, error) {
	if lower == nil || upper == nil {
		return nil, fmt.Errorf("%w: bilateral constraint requires both sides", ErrInvalidArgument)
	}
	return newLinearIneq(m, a, lower, upper, Bilateral)
}

func newLinearIneq(m Model, a *mat.Dense, lo, hi *mat.VecDense, shape Kind) (*LinearInequality, error) {
	n, err := checkModel(m)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%w: nil constraint matrix", ErrInvalidArgument)
	}
	r, ac := a.Dims()
	if ac != n {
		return nil, fmt.Errorf("%w: constraint columns %d != dof %d", ErrInvalidArgument, ac, n)
	}
	if lo != nil && lo.Len() != r {
		return nil, fmt.Errorf("%w: lower side dimension must be %d", ErrInvalidArgument, r)
	}
	if hi != nil && hi.Len() != r {
		return nil, fmt.Errorf("%w: upper side dimension must be %d", ErrInvalidArgument, r)
	}
	for i := 0; i < r && lo != nil && hi != nil; i++ {
		if lo.AtVec(i) > hi.AtVec(i) {
			return nil, fmt.Errorf("%w: crossed sides at row %d", ErrInvalidArgument, i)
		}
	}
	c := &LinearInequality{a: mat.DenseCopyOf(a), rowCount: r, infLo: lo == nil, infHi: hi == nil}
	if lo != nil {
		c.lo = mat.VecDenseCopyOf(lo)
	}
	if hi != nil {
		c.hi = mat.VecDenseCopyOf(hi)
	}
	c.kind = shape
	c.n = n
	return c, nil
}

// Update publishes the fixed matrices into the cycle state.
func (c *LinearInequality) Update(_ Model, _ *mat.VecDense) error {
	cloneDense(&c.aIneq, c.a)
	if c.infLo {
		cloneVec(&c.bLower, infVec(c.rowCount, math.Inf(-1)))
	} else {
		cloneVec(&c.bLower, c.lo)
	}
	if c.infHi {
		cloneVec(&c.bUpper, infVec(c.rowCount, math.Inf(1)))
	} else {
		cloneVec(&c.bUpper, c.hi)
	}
	c.ready = true
	return nil
}

func infVec(n int, v float64) *mat.VecDense {
	d := make([]float64, n)
	for i := range d {
		d[i] = v
	}
	return mat.NewVecDense(n, d)
}

// boundPair reads a (lower, upper) limit pair off the model and checks dimensions.
func boundPair(m Model, n int, get func(Model) (*mat.VecDense, *mat.VecDense)) (lo, hi *mat.VecDense, err error) {
	if m == nil {
		return nil, nil, fmt.Errorf("%w: nil model", ErrInvalidArgument)
	}
	lo, hi = get(m)
	if lo == nil || hi == nil || lo.Len() != n || hi.Len() != n {
		return nil, nil, fmt.Errorf("%w: bound dimension must be %d", ErrInvalidArgument, n)
	}
	return lo, hi, nil
}
