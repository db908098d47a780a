// Copyright ©2025 NoemieJaquier. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package priority

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

const eps = float64(7)/3 - float64(4)/3 - 1.

// Level is one priority level: soft tasks combined by weighted stacking,
// plus the hard constraints active at that level. An optional linear cost
// term 𝐜 is added to 𝐩.
type Level struct {
	Tasks       []Task
	Constraints []Constraint
	Linear      *mat.VecDense
}

// Cascade composes an ordered sequence of priority levels into a sequence
// of programs with strictly decreasing priority.
//
// Level 1 solves its own program. Every later level i solves its own
// objective subject to the cumulative constraint set: its own (𝐆ᵢ,𝐡ᵢ,𝐅ᵢ,𝐜ᵢ),
// every higher level's (𝐆ⱼ,𝐡ⱼ,𝐅ⱼ,𝐜ⱼ), and one frozen equality per solved
// level
//
//	𝐀ⱼ𝐱 = 𝐀ⱼ𝐱ⱼ*   (j < i)
//
// which pins the value each higher-priority task achieved. Solving level i
// therefore never degrades the optimality reached by levels 1..i-1; omitting
// a frozen equality is a correctness bug, not a performance one.
//
// The frozen stack grows with the number of levels and can lose row rank
// (redundant or conflicting rows). Each level's composed equality system is
// rank-checked; a deficiency is reported as the RankDeficient status on the
// solution instead of being solved silently.
type Cascade struct {
	n      int
	levels []Level
}

// Solution reports the outcome of one cascade pass.
type Solution struct {
	// X holds the optimum of each solved level, highest priority first.
	// On failure it covers only the levels solved before the failing one.
	X []*mat.VecDense
	// Status is OK for a clean pass, RankDeficient when a composed equality
	// stack lost row rank (warning: the solutions are still returned), or
	// the solver's failure status for the level that broke the pass.
	Status Status
	// Level is the first level Status refers to, -1 when Status is OK.
	Level int
}

// NewCascade creates a cascade over an n-dimensional variable.
// Priority decreases with the level index.
func NewCascade(n int, levels ...Level) (*Cascade, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: cascade dimension must be positive", ErrInvalidArgument)
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: cascade needs at least one level", ErrInvalidArgument)
	}
	for i, lv := range levels {
		for j, t := range lv.Tasks {
			if t.Dim() != n {
				return nil, fmt.Errorf("%w: level %d task %d dimension %d != %d",
					ErrInvalidArgument, i, j, t.Dim(), n)
			}
		}
		if lv.Linear != nil && lv.Linear.Len() != n {
			return nil, fmt.Errorf("%w: level %d linear term dimension", ErrInvalidArgument, i)
		}
	}
	return &Cascade{n: n, levels: levels}, nil
}

// Update refreshes every constraint of every level for the current cycle.
// x holds the current value of the optimization variable.
func (cs *Cascade) Update(m Model, x *mat.VecDense) error {
	for i, lv := range cs.levels {
		for j, c := range lv.Constraints {
			if err := c.Update(m, x); err != nil {
				return fmt.Errorf("level %d constraint %d: %w", i, j, err)
			}
		}
	}
	return nil
}

// Solve runs the sequential hard-priority pass with the external solver.
//
// Levels are solved strictly in order: each depends on the previous level's
// optimum, so there is nothing to parallelize here (soft stacking within a
// level is where concurrency belongs). A solver failure stops the pass; the
// remaining levels are not attempted and nothing is retried.
func (cs *Cascade) Solve(s Solver) (*Solution, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil solver", ErrInvalidArgument)
	}

	cumEq := rowStack{n: cs.n}
	cumIneq := rowStack{n: cs.n}
	sol := &Solution{Status: OK, Level: -1}

	for i, lv := range cs.levels {
		aug, err := cs.augment(lv)
		if err != nil {
			return sol, fmt.Errorf("level %d: %w", i, err)
		}
		q, p, err := aug.Objective(lv.Linear)
		if err != nil {
			return sol, fmt.Errorf("level %d: %w", i, err)
		}
		own, err := Assemble(cs.n, lv.Constraints...)
		if err != nil {
			return sol, fmt.Errorf("level %d: %w", i, err)
		}

		prog := &Program{N: cs.n, Q: q, P: p}
		prog.F, prog.C = joinRows(cumEq, own.F, own.C)
		prog.G, prog.H = joinRows(cumIneq, own.G, own.H)

		if prog.F != nil && rankDeficient(prog.F) && sol.Status == OK {
			sol.Status, sol.Level = RankDeficient, i
		}

		res, err := s.Solve(prog)
		if err != nil {
			return sol, fmt.Errorf("level %d: %w", i, err)
		}
		if res.Status != OK {
			sol.Status, sol.Level = res.Status, i
			return sol, nil
		}
		if res.X == nil || res.X.Len() != cs.n {
			return sol, fmt.Errorf("%w: level %d solver returned dimension mismatch", ErrInvalidArgument, i)
		}
		x := mat.VecDenseCopyOf(res.X)
		sol.X = append(sol.X, x)

		// Freeze this level's achieved task value for all lower levels.
		if aug.Rows() > 0 {
			frozen := mat.NewVecDense(aug.Rows(), nil)
			frozen.MulVec(aug.A(), x)
			appendRows(&cumEq, aug.A(), frozen)
		}
		appendRows(&cumEq, own.F, own.C)
		appendRows(&cumIneq, own.G, own.H)
	}
	return sol, nil
}

// augment soft-combines the tasks of one level; a level without tasks
// contributes a zero objective.
func (cs *Cascade) augment(lv Level) (Task, error) {
	if len(lv.Tasks) == 0 {
		return EmptyTask(cs.n)
	}
	return Augment(lv.Tasks)
}

func appendRows(dst *rowStack, a *mat.Dense, b *mat.VecDense) {
	if a == nil {
		return
	}
	r, _ := a.Dims()
	for i := 0; i < r; i++ {
		dst.push(mat.Row(nil, i, a), b.AtVec(i))
	}
}

// joinRows stacks the cumulative rows above the level's own rows.
func joinRows(cum rowStack, a *mat.Dense, b *mat.VecDense) (*mat.Dense, *mat.VecDense) {
	s := rowStack{n: cum.n}
	s.rows = append(s.rows, cum.rows...)
	s.rhs = append(s.rhs, cum.rhs...)
	appendRows(&s, a, b)
	return s.dense()
}

// rankDeficient reports whether the stacked equality system lost row rank.
func rankDeficient(f *mat.Dense) bool {
	r, c := f.Dims()
	var svd mat.SVD
	if !svd.Factorize(f, mat.SVDNone) {
		return true
	}
	vals := svd.Values(nil)
	tol := float64(max(r, c)) * eps * vals[0]
	rank := 0
	for _, v := range vals {
		if v > tol {
			rank++
		}
	}
	return rank < r
}
