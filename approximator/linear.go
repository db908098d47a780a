// Copyright ©2025 NoemieJaquier. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package approximator

import (
	"encoding/gob"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
)

// Linear is an affine model 𝐲 = 𝐖𝐱 + 𝐛 with parameter blocks "W" and "b".
type Linear struct {
	in, out int
	w       *mat.Dense
	b       *mat.VecDense
}

// NewLinear creates a zero-initialized affine model mapping in inputs to
// out outputs.
func NewLinear(in, out int) (*Linear, error) {
	if in <= 0 || out <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidArgument, out, in)
	}
	return &Linear{
		in:  in,
		out: out,
		w:   mat.NewDense(out, in, nil),
		b:   mat.NewVecDense(out, nil),
	}, nil
}

// InputShape returns the input shape.
func (l *Linear) InputShape() []int { return []int{l.in} }

// OutputShape returns the output shape.
func (l *Linear) OutputShape() []int { return []int{l.out} }

// Predict computes 𝐖𝐱 + 𝐛.
func (l *Linear) Predict(x mat.Vector) (mat.Vector, error) {
	if x == nil || x.Len() != l.in {
		return nil, fmt.Errorf("%w: want input length %d", ErrShapeMismatch, l.in)
	}
	y := mat.NewVecDense(l.out, nil)
	y.MulVec(l.w, x)
	y.AddVec(y, l.b)
	return y, nil
}

// Parameters exposes the weight and bias blocks. The bias is returned as a
// single-column matrix sharing the model's storage.
func (l *Linear) Parameters() map[string]*mat.Dense {
	b := mat.NewDense(l.out, 1, l.b.RawVector().Data)
	return map[string]*mat.Dense{"W": l.w, "b": b}
}

// SetParameters replaces the blocks named in params. Unknown names and
// wrong dimensions are rejected.
func (l *Linear) SetParameters(params map[string]*mat.Dense) error {
	for name, p := range params {
		r, c := p.Dims()
		switch name {
		case "W":
			if r != l.out || c != l.in {
				return fmt.Errorf("%w: W is %dx%d, want %dx%d", ErrShapeMismatch, r, c, l.out, l.in)
			}
			l.w.Copy(p)
		case "b":
			if r != l.out || c != 1 {
				return fmt.Errorf("%w: b is %dx%d, want %dx1", ErrShapeMismatch, r, c, l.out)
			}
			for i := 0; i < r; i++ {
				l.b.SetVec(i, p.At(i, 0))
			}
		default:
			return fmt.Errorf("%w: unknown parameter %q", ErrInvalidArgument, name)
		}
	}
	return nil
}

type linearState struct {
	In, Out int
	W, B    []float64
}

// Save writes the parameters to path.
func (l *Linear) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	state := linearState{
		In:  l.in,
		Out: l.out,
		W:   append([]float64(nil), l.w.RawMatrix().Data...),
		B:   append([]float64(nil), l.b.RawVector().Data...),
	}
	return gob.NewEncoder(f).Encode(&state)
}

// Load restores parameters written by Save. The stored dimensions must
// match the model's.
func (l *Linear) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var state linearState
	if err := gob.NewDecoder(f).Decode(&state); err != nil {
		return err
	}
	if state.In != l.in || state.Out != l.out {
		return fmt.Errorf("%w: stored %dx%d, want %dx%d", ErrShapeMismatch, state.Out, state.In, l.out, l.in)
	}
	l.w = mat.NewDense(l.out, l.in, state.W)
	l.b = mat.NewVecDense(l.out, state.B)
	return nil
}
