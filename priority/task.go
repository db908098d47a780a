// Copyright ©2025 NoemieJaquier. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package priority

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// psdTol relative tolerance on the smallest eigenvalue of a weight matrix.
const psdTol = 1e-10

// Task is one soft objective ‖ 𝐀𝐱 - 𝐛 ‖²w with a PSD weight 𝐖.
//
// Soft-priority composition stacks n such tasks into a single augmented task
//
//	𝐀 = [𝐀₁ ⋯ 𝐀ₙ]ᵀ, 𝐛 = [𝐛₁ ⋯ 𝐛ₙ]ᵀ, 𝐖 = 𝚋𝚕𝚔𝚍𝚒𝚊𝚐(𝐖₁ ⋯ 𝐖ₙ)
//
// which reduces to the standard quadratic objective
//
//	‖ 𝐀𝐱 - 𝐛 ‖²w = 𝐱ᵀ𝐀ᵀ𝐖𝐀𝐱 - 2𝐛ᵀ𝐖𝐀𝐱 + 𝐛ᵀ𝐖𝐛
//
// with 𝐐 = 𝐀ᵀ𝐖𝐀 and 𝐩 = -2𝐀ᵀ𝐖𝐛 (the constant 𝐛ᵀ𝐖𝐛 is dropped). A task with
// no rows is a no-op: it contributes nothing to 𝐐 and 𝐩.
//
// A non-PSD weight makes the composition ill-defined, so every constructor
// rejects it with ErrInvalidWeight instead of deferring the failure to the
// solver.
type Task struct {
	rows, n int
	a       *mat.Dense
	b       *mat.VecDense
	w       *mat.SymDense
}

// NewTask creates a soft task with the identity weight.
func NewTask(a *mat.Dense, b *mat.VecDense) (Task, error) {
	return NewScaledTask(a, b, 1)
}

// NewScaledTask creates a soft task with scalar weight w ≥ 0.
func NewScaledTask(a *mat.Dense, b *mat.VecDense, w float64) (Task, error) {
	rows, n, err := taskDims(a, b)
	if err != nil {
		return Task{}, err
	}
	if w < 0 || w != w {
		return Task{}, fmt.Errorf("%w: scalar weight %v", ErrInvalidWeight, w)
	}
	wm := mat.NewSymDense(rows, nil)
	for i := 0; i < rows; i++ {
		wm.SetSym(i, i, w)
	}
	return Task{rows: rows, n: n, a: mat.DenseCopyOf(a), b: mat.VecDenseCopyOf(b), w: wm}, nil
}

// NewWeightedTask creates a soft task with a PSD weight matrix.
func NewWeightedTask(a *mat.Dense, b *mat.VecDense, w mat.Symmetric) (Task, error) {
	rows, n, err := taskDims(a, b)
	if err != nil {
		return Task{}, err
	}
	if w == nil || w.SymmetricDim() != rows {
		return Task{}, fmt.Errorf("%w: weight dimension must be %d", ErrInvalidArgument, rows)
	}
	if !isPSD(w) {
		return Task{}, ErrInvalidWeight
	}
	wm := mat.NewSymDense(rows, nil)
	wm.CopySym(w)
	return Task{rows: rows, n: n, a: mat.DenseCopyOf(a), b: mat.VecDenseCopyOf(b), w: wm}, nil
}

// EmptyTask creates a task with no active rows on an n-dimensional variable.
func EmptyTask(n int) (Task, error) {
	if n <= 0 {
		return Task{}, fmt.Errorf("%w: task dimension must be positive", ErrInvalidArgument)
	}
	return Task{n: n}, nil
}

func taskDims(a *mat.Dense, b *mat.VecDense) (rows, n int, err error) {
	if a == nil || b == nil {
		return 0, 0, fmt.Errorf("%w: nil task matrix or target", ErrInvalidArgument)
	}
	rows, n = a.Dims()
	if b.Len() != rows {
		return 0, 0, fmt.Errorf("%w: target dimension %d != task rows %d", ErrInvalidArgument, b.Len(), rows)
	}
	return rows, n, nil
}

// Rows returns the number of active task rows.
func (t Task) Rows() int { return t.rows }

// Dim returns the dimension of the optimization variable.
func (t Task) Dim() int { return t.n }

// A returns the task matrix (nil when the task has no rows).
func (t Task) A() *mat.Dense { return t.a }

// B returns the task target (nil when the task has no rows).
func (t Task) B() *mat.VecDense { return t.b }

// Weight returns the task weight (nil when the task has no rows).
func (t Task) Weight() *mat.SymDense { return t.w }

// Augment stacks tasks into a single augmented task: row-stacked 𝐀 and 𝐛,
// block-diagonal 𝐖. All tasks must share the variable dimension. Tasks with
// no rows are skipped; stacking no rows at all yields an empty task.
func Augment(tasks []Task) (Task, error) {
	if len(tasks) == 0 {
		return Task{}, fmt.Errorf("%w: no tasks to augment", ErrInvalidArgument)
	}
	n, total := 0, 0
	for i, t := range tasks {
		if t.n <= 0 {
			return Task{}, fmt.Errorf("%w: task %d not constructed", ErrInvalidArgument, i)
		}
		if n == 0 {
			n = t.n
		} else if t.n != n {
			return Task{}, fmt.Errorf("%w: task %d dimension %d != %d", ErrInvalidArgument, i, t.n, n)
		}
		total += t.rows
	}
	if total == 0 {
		return Task{n: n}, nil
	}
	a := mat.NewDense(total, n, nil)
	b := mat.NewVecDense(total, nil)
	w := mat.NewSymDense(total, nil)
	at := 0
	for _, t := range tasks {
		if t.rows == 0 {
			continue
		}
		a.Slice(at, at+t.rows, 0, n).(*mat.Dense).Copy(t.a)
		for i := 0; i < t.rows; i++ {
			b.SetVec(at+i, t.b.AtVec(i))
			for j := i; j < t.rows; j++ {
				w.SetSym(at+i, at+j, t.w.At(i, j))
			}
		}
		at += t.rows
	}
	return Task{rows: total, n: n, a: a, b: b, w: w}, nil
}

// Objective reduces the task to the standard quadratic form 𝐐 = 𝐀ᵀ𝐖𝐀 and
// 𝐩 = 𝐜 - 2𝐀ᵀ𝐖𝐛, where 𝐜 is an optional linear cost term (nil for none).
// An empty task yields a zero 𝐐 and 𝐩 = 𝐜.
func (t Task) Objective(c *mat.VecDense) (q *mat.SymDense, p *mat.VecDense, err error) {
	if t.n <= 0 {
		return nil, nil, fmt.Errorf("%w: task not constructed", ErrInvalidArgument)
	}
	if c != nil && c.Len() != t.n {
		return nil, nil, fmt.Errorf("%w: linear term dimension %d != %d", ErrInvalidArgument, c.Len(), t.n)
	}
	q = mat.NewSymDense(t.n, nil)
	p = mat.NewVecDense(t.n, nil)
	if t.rows > 0 {
		var qd mat.Dense
		qd.Product(t.a.T(), t.w, t.a)
		for i := 0; i < t.n; i++ {
			for j := i; j < t.n; j++ {
				q.SetSym(i, j, 0.5*(qd.At(i, j)+qd.At(j, i)))
			}
		}
		wb := mat.NewVecDense(t.rows, nil)
		wb.MulVec(t.w, t.b)
		p.MulVec(t.a.T(), wb)
		p.ScaleVec(-2, p)
	}
	if c != nil {
		p.AddVec(p, c)
	}
	return q, p, nil
}

// isPSD reports whether w is positive semi-definite. A Cholesky success
// settles the definite case; the semi-definite boundary falls back to a
// symmetric eigendecomposition with a small relative tolerance.
func isPSD(w mat.Symmetric) bool {
	var ch mat.Cholesky
	if ch.Factorize(w) {
		return true
	}
	var eig mat.EigenSym
	sd := mat.NewSymDense(w.SymmetricDim(), nil)
	sd.CopySym(w)
	if !eig.Factorize(sd, false) {
		return false
	}
	vals := eig.Values(nil)
	scale := 1.0
	for _, v := range vals {
		if v > scale {
			scale = v
		}
	}
	for _, v := range vals {
		if v < -psdTol*scale {
			return false
		}
	}
	return true
}
