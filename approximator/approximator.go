// Copyright ©2025 NoemieJaquier. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package approximator

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Spec specifies an approximator: the inner model and the variables it is
// bound to, with optional processor chains on both sides.
type Spec struct {
	Inputs  Variable
	Outputs Variable
	Model   Model
	// Pre runs on the input before the model, in order.
	Pre []Processor
	// Post runs on the model output, in order.
	Post []Processor
}

// New validates the bindings and creates the approximator. The model's
// declared shapes must agree with the bound variables' flat sizes.
func (s *Spec) New() (*Approximator, error) {

	switch {
	case s.Inputs == nil:
		return nil, fmt.Errorf("%w: nil inputs", ErrInvalidArgument)
	case s.Outputs == nil:
		return nil, fmt.Errorf("%w: nil outputs", ErrInvalidArgument)
	case s.Model == nil:
		return nil, fmt.Errorf("%w: nil model", ErrInvalidArgument)
	}
	for i, p := range s.Pre {
		if p == nil {
			return nil, fmt.Errorf("%w: nil preprocessor %d", ErrInvalidArgument, i)
		}
	}
	for i, p := range s.Post {
		if p == nil {
			return nil, fmt.Errorf("%w: nil postprocessor %d", ErrInvalidArgument, i)
		}
	}

	if in := numElements(s.Model.InputShape()); in != s.Inputs.Size() {
		return nil, fmt.Errorf("%w: model input %d, bound input %d", ErrShapeMismatch, in, s.Inputs.Size())
	}
	if out := numElements(s.Model.OutputShape()); out != s.Outputs.Size() {
		return nil, fmt.Errorf("%w: model output %d, bound output %d", ErrShapeMismatch, out, s.Outputs.Size())
	}

	return &Approximator{
		inputs:  s.Inputs,
		outputs: s.Outputs,
		model:   s.Model,
		pre:     append([]Processor(nil), s.Pre...),
		post:    append([]Processor(nil), s.Post...),
	}, nil
}

// Approximator connects a learnable model to its input and output
// variables. Predict pulls the merged input data, runs it through the
// preprocessors, the model, and the postprocessors, and writes the result
// back into the output variable.
type Approximator struct {
	inputs  Variable
	outputs Variable
	model   Model
	pre     []Processor
	post    []Processor
}

// InputShape returns the inner model's input shape.
func (a *Approximator) InputShape() []int { return a.model.InputShape() }

// OutputShape returns the inner model's output shape.
func (a *Approximator) OutputShape() []int { return a.model.OutputShape() }

// NumParameters returns the total number of learnable parameters.
func (a *Approximator) NumParameters() int {
	total := 0
	for _, p := range a.model.Parameters() {
		r, c := p.Dims()
		total += r * c
	}
	return total
}

// Parameters returns the inner model's named parameter blocks.
func (a *Approximator) Parameters() map[string]*mat.Dense { return a.model.Parameters() }

// SetParameters replaces the inner model's named parameter blocks.
func (a *Approximator) SetParameters(params map[string]*mat.Dense) error {
	return a.model.SetParameters(params)
}

// Vectorized returns all parameters flattened into one vector,
// concatenated in sorted block-name order. A parameterless model
// yields nil.
func (a *Approximator) Vectorized() *mat.VecDense {
	params := a.model.Parameters()
	total := 0
	for _, p := range params {
		r, c := p.Dims()
		total += r * c
	}
	if total == 0 {
		return nil
	}
	v := mat.NewVecDense(total, nil)
	at := 0
	for _, name := range sortedKeys(params) {
		p := params[name]
		r, c := p.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				v.SetVec(at, p.At(i, j))
				at++
			}
		}
	}
	return v
}

// Predict maps the input to the output through the full pipeline. A nil x
// uses the bound input variable's current data. For discrete outputs the
// model's prediction is reduced to the argmax index before being written
// back; the returned vector is the written value.
func (a *Approximator) Predict(x mat.Vector) (*mat.VecDense, error) {

	if x == nil {
		x = a.inputs.Data()
	}
	for _, p := range a.pre {
		x = p(x)
	}
	if x.Len() != numElements(a.model.InputShape()) {
		return nil, fmt.Errorf("%w: processed input length %d", ErrShapeMismatch, x.Len())
	}

	y, err := a.model.Predict(x)
	if err != nil {
		return nil, err
	}
	for _, p := range a.post {
		y = p(y)
	}

	out := mat.VecDenseCopyOf(y)
	if a.outputs.IsDiscrete() {
		out = mat.NewVecDense(1, []float64{float64(argmax(y))})
	}
	if err := a.outputs.SetData(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Save persists the inner model.
func (a *Approximator) Save(path string) error { return a.model.Save(path) }

// Load restores the inner model.
func (a *Approximator) Load(path string) error { return a.model.Load(path) }

func argmax(v mat.Vector) int {
	best, arg := v.AtVec(0), 0
	for i := 1; i < v.Len(); i++ {
		if v.AtVec(i) > best {
			best, arg = v.AtVec(i), i
		}
	}
	return arg
}

func sortedKeys(m map[string]*mat.Dense) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
