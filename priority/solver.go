// Copyright ©2025 NoemieJaquier. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package priority

import "gonum.org/v1/gonum/mat"

// Result is what an external solver reports back for one program.
type Result struct {
	// X is the optimum, valid only when Status is OK.
	X *mat.VecDense
	// Status classifies the outcome (Infeasible, Unbounded, ...).
	Status Status
}

// Solver is the external numerical back end consuming assembled programs.
// This package only assembles and composes; it never solves.
//
// A solver failure is terminal for the current cycle: re-solving a program
// with identical inputs yields the identical failure, so nothing here
// retries. Errors are transport-level faults; solution-quality outcomes
// travel in Result.Status.
type Solver interface {
	Solve(p *Program) (*Result, error)
}
