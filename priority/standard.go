// Copyright ©2025 NoemieJaquier. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package priority

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Program is the assembled standard form consumed by an external QP solver:
//
//	𝐱* = 𝚊𝚛𝚐𝚖𝚒𝚗 𝐱ᵀ𝐐𝐱 + 𝐩ᵀ𝐱  𝚜.𝚝  𝐆𝐱 ≤ 𝐡, 𝐅𝐱 = 𝐜
//
// It is a per-cycle view derived from the active constraint set, not a
// stored object. Matrices are nil when the corresponding row block is empty:
// a program without constraints is valid and not an error.
type Program struct {
	// N is the dimension of 𝐱.
	N int
	// Q and P define the quadratic objective (nil 𝐐 means zero).
	Q *mat.SymDense
	P *mat.VecDense
	// G and H hold the inequality rows 𝐆𝐱 ≤ 𝐡 (nil when none).
	G *mat.Dense
	H *mat.VecDense
	// F and C hold the equality rows 𝐅𝐱 = 𝐜 (nil when none).
	F *mat.Dense
	C *mat.VecDense
}

// NumIneq returns the number of inequality rows.
func (p *Program) NumIneq() int {
	if p.G == nil {
		return 0
	}
	r, _ := p.G.Dims()
	return r
}

// NumEq returns the number of equality rows.
func (p *Program) NumEq() int {
	if p.F == nil {
		return 0
	}
	r, _ := p.F.Dims()
	return r
}

// rowStack accumulates rows of an (𝐀,𝐛) system before densification.
type rowStack struct {
	n    int
	rows [][]float64
	rhs  []float64
}

func (s *rowStack) push(row []float64, b float64) {
	s.rows = append(s.rows, row)
	s.rhs = append(s.rhs, b)
}

func (s *rowStack) dense() (*mat.Dense, *mat.VecDense) {
	if len(s.rows) == 0 {
		return nil, nil
	}
	a := mat.NewDense(len(s.rows), s.n, nil)
	for i, r := range s.rows {
		a.SetRow(i, r)
	}
	return a, mat.NewVecDense(len(s.rhs), s.rhs)
}

// Assemble folds updated constraints into the standard form (𝐆,𝐡,𝐅,𝐜):
//   - equality rows map to 𝐅𝐱 = 𝐜 unchanged
//   - inequality rows map per finite side: 𝐀ᵢ𝐱 ≤ 𝐛ᵤ contributes (𝐀ᵢ,𝐛ᵤ) and
//     𝐛ₗ ≤ 𝐀ᵢ𝐱 contributes (-𝐀ᵢ,-𝐛ₗ); an infinite side contributes no row
//   - direct bounds contribute identity rows the same way
//
// The objective blocks 𝐐 and 𝐩 are left zero; the caller installs them from
// the soft tasks of the level. Constraints must have been updated this cycle,
// otherwise ErrNotInitialized propagates.
func Assemble(n int, cs ...Constraint) (*Program, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: program dimension must be positive", ErrInvalidArgument)
	}
	eq := rowStack{n: n}
	ineq := rowStack{n: n}
	for i, c := range cs {
		if c == nil {
			return nil, fmt.Errorf("%w: constraint %d is nil", ErrInvalidArgument, i)
		}
		k := c.Kind()
		if !k.valid() {
			return nil, fmt.Errorf("%w: constraint %d has classification %b", ErrInvalidArgument, i, k)
		}
		switch {
		case k.IsEquality():
			if err := foldEquality(&eq, c, i); err != nil {
				return nil, err
			}
		case k.IsInequality():
			if err := foldInequality(&ineq, c, i); err != nil {
				return nil, err
			}
		case k.HasBounds():
			if err := foldBounds(&ineq, c, i); err != nil {
				return nil, err
			}
		}
	}
	p := &Program{N: n}
	p.F, p.C = eq.dense()
	p.G, p.H = ineq.dense()
	return p, nil
}

func foldEquality(s *rowStack, c Constraint, idx int) error {
	a, err := c.AEq()
	if err != nil {
		return fmt.Errorf("constraint %d: %w", idx, err)
	}
	b, err := c.BEq()
	if err != nil {
		return fmt.Errorf("constraint %d: %w", idx, err)
	}
	if a == nil || b == nil {
		return nil
	}
	r, n := a.Dims()
	if n != s.n || b.Len() != r {
		return fmt.Errorf("%w: constraint %d equality dimensions", ErrInvalidArgument, idx)
	}
	for i := 0; i < r; i++ {
		s.push(mat.Row(nil, i, a), b.AtVec(i))
	}
	return nil
}

func foldInequality(s *rowStack, c Constraint, idx int) error {
	a, err := c.AIneq()
	if err != nil {
		return fmt.Errorf("constraint %d: %w", idx, err)
	}
	lo, err := c.BLower()
	if err != nil {
		return fmt.Errorf("constraint %d: %w", idx, err)
	}
	hi, err := c.BUpper()
	if err != nil {
		return fmt.Errorf("constraint %d: %w", idx, err)
	}
	if a == nil {
		return nil
	}
	r, n := a.Dims()
	if n != s.n || (lo != nil && lo.Len() != r) || (hi != nil && hi.Len() != r) {
		return fmt.Errorf("%w: constraint %d inequality dimensions", ErrInvalidArgument, idx)
	}
	for i := 0; i < r; i++ {
		if hi != nil && !math.IsInf(hi.AtVec(i), 1) {
			s.push(mat.Row(nil, i, a), hi.AtVec(i))
		}
		if lo != nil && !math.IsInf(lo.AtVec(i), -1) {
			row := mat.Row(nil, i, a)
			for j := range row {
				row[j] = -row[j]
			}
			s.push(row, -lo.AtVec(i))
		}
	}
	return nil
}

func foldBounds(s *rowStack, c Constraint, idx int) error {
	lo, err := c.LowerBound()
	if err != nil {
		return fmt.Errorf("constraint %d: %w", idx, err)
	}
	hi, err := c.UpperBound()
	if err != nil {
		return fmt.Errorf("constraint %d: %w", idx, err)
	}
	if (lo != nil && lo.Len() != s.n) || (hi != nil && hi.Len() != s.n) {
		return fmt.Errorf("%w: constraint %d bound dimensions", ErrInvalidArgument, idx)
	}
	for j := 0; j < s.n; j++ {
		if hi != nil && !math.IsInf(hi.AtVec(j), 1) {
			row := make([]float64, s.n)
			row[j] = 1
			s.push(row, hi.AtVec(j))
		}
		if lo != nil && !math.IsInf(lo.AtVec(j), -1) {
			row := make([]float64, s.n)
			row[j] = -1
			s.push(row, -lo.AtVec(j))
		}
	}
	return nil
}
