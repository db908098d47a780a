// Copyright ©2025 NoemieJaquier. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package priority

import "errors"

var (
	// ErrInvalidArgument reports a constructor argument that does not
	// satisfy the required capability set (nil model, unknown frame,
	// mismatched dimensions, ...).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotInitialized reports an accessor read before the first Update.
	ErrNotInitialized = errors.New("constraint not updated")
	// ErrInvalidWeight reports a soft-task weight which is not positive semi-definite.
	ErrInvalidWeight = errors.New("weight not positive semi-definite")
)

// Status reports the outcome of assembling or solving a program.
type Status int

const (
	OK Status = iota
	// RankDeficient the stacked equality system lost row rank.
	// The program is still returned: the caller decides whether to solve it.
	RankDeficient
	// Infeasible no point satisfies the constraint set.
	Infeasible
	// Unbounded the objective decreases without limit over the feasible set.
	Unbounded
	// NumericalFailure the solver broke down without classifying the cause.
	NumericalFailure
)

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case RankDeficient:
		return "rank deficient"
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	case NumericalFailure:
		return "numerical failure"
	}
	return "unknown"
}
