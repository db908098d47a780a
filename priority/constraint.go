// Copyright ©2025 NoemieJaquier. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package priority

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Constraint is one linear(ized) constraint on the optimization variable 𝐱,
// refreshed from the robot model once per control cycle.
//
// A quadratic program is written in standard form as
//
//	𝐱* = 𝚊𝚛𝚐𝚖𝚒𝚗 𝐱ᵀ𝐐𝐱 + 𝐩ᵀ𝐱  𝚜.𝚝  𝐆𝐱 ≤ 𝐡, 𝐅𝐱 = 𝐜
//
// so that 𝐐 = 𝐀ᵀ𝐖𝐀, 𝐩 = -2𝐀ᵀ𝐖𝐛 minimizes ‖ 𝐀𝐱 - 𝐛 ‖²w without rescaling,
//
// and a constraint contributes rows to (𝐆,𝐡) or (𝐅,𝐜) according to its Kind:
//   - equality rows      𝐀ₑ𝐱 = 𝐛ₑ
//   - inequality rows    𝐛ₗ ≤ 𝐀ᵢ𝐱 ≤ 𝐛ᵤ (either side may be absent)
//   - direct bounds      𝐛ₗ ≤ 𝐱 ≤ 𝐛ᵤ
//
// Kind is fixed at construction. The numeric fields are recomputed by every
// Update call and are undefined before the first one: accessors return
// ErrNotInitialized until then. Update must be a pure function of
// (model state, x) with no I/O, so it can run inside a control period.
type Constraint interface {
	// Kind returns the immutable classification of the constraint.
	Kind() Kind
	// Update recomputes the constraint matrices and vectors from the
	// model's current kinematic/dynamic quantities. x holds the current
	// value of the optimization variable; linear constraints may ignore it.
	Update(m Model, x *mat.VecDense) error
	// AEq returns 𝐀ₑ such that 𝐀ₑ𝐱 = 𝐛ₑ (nil unless equality).
	AEq() (*mat.Dense, error)
	// BEq returns 𝐛ₑ such that 𝐀ₑ𝐱 = 𝐛ₑ (nil unless equality).
	BEq() (*mat.VecDense, error)
	// AIneq returns 𝐀ᵢ such that 𝐛ₗ ≤ 𝐀ᵢ𝐱 ≤ 𝐛ᵤ (nil unless inequality).
	AIneq() (*mat.Dense, error)
	// BLower returns 𝐛ₗ of the inequality; absent entries are -Inf.
	BLower() (*mat.VecDense, error)
	// BUpper returns 𝐛ᵤ of the inequality; absent entries are +Inf.
	BUpper() (*mat.VecDense, error)
	// LowerBound returns the direct lower bound on 𝐱 (nil unless bounds).
	LowerBound() (*mat.VecDense, error)
	// UpperBound returns the direct upper bound on 𝐱 (nil unless bounds).
	UpperBound() (*mat.VecDense, error)
}

// checkModel validates the capability set shared by all constructors.
func checkModel(m Model) (n int, err error) {
	if m == nil {
		return 0, fmt.Errorf("%w: nil model", ErrInvalidArgument)
	}
	if n = m.DoF(); n <= 0 {
		return 0, fmt.Errorf("%w: model degrees of freedom must be positive", ErrInvalidArgument)
	}
	return n, nil
}

// state holds the per-cycle numeric fields of a constraint.
// It is refreshed in place by Update; the classification never lives here.
type state struct {
	kind  Kind
	n     int // dimension of 𝐱
	ready bool

	aEq *mat.Dense
	bEq *mat.VecDense

	aIneq  *mat.Dense
	bLower *mat.VecDense
	bUpper *mat.VecDense

	lower *mat.VecDense
	upper *mat.VecDense
}

func (s *state) Kind() Kind { return s.kind }

func (s *state) guard() error {
	if !s.ready {
		return ErrNotInitialized
	}
	return nil
}

func (s *state) AEq() (*mat.Dense, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.aEq, nil
}

func (s *state) BEq() (*mat.VecDense, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.bEq, nil
}

func (s *state) AIneq() (*mat.Dense, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.aIneq, nil
}

func (s *state) BLower() (*mat.VecDense, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.bLower, nil
}

func (s *state) BUpper() (*mat.VecDense, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.bUpper, nil
}

func (s *state) LowerBound() (*mat.VecDense, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.lower, nil
}

func (s *state) UpperBound() (*mat.VecDense, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.upper, nil
}

// cloneVec copies v so the constraint state never aliases model storage.
func cloneVec(dst **mat.VecDense, v *mat.VecDense) {
	if *dst == nil || (*dst).Len() != v.Len() {
		*dst = mat.VecDenseCopyOf(v)
		return
	}
	(*dst).CopyVec(v)
}

// cloneDense copies a so the constraint state never aliases model storage.
func cloneDense(dst **mat.Dense, a mat.Matrix) {
	r, c := a.Dims()
	if *dst == nil {
		*dst = mat.NewDense(r, c, nil)
	} else if dr, dc := (*dst).Dims(); dr != r || dc != c {
		*dst = mat.NewDense(r, c, nil)
	}
	(*dst).Copy(a)
}
