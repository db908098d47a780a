// Copyright ©2025 NoemieJaquier. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package approximator wraps a learnable model and connects it to structured
// state/action inputs and outputs, so the inner model stays independent from
// the notions of states and actions. Policies map states to actions, value
// estimators map states to values, dynamics models map state-action pairs to
// next states: all of them are approximators with different bindings.
package approximator

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidArgument reports a nil or unusable constructor argument.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrShapeMismatch reports data whose dimensions disagree with the
	// declared input/output shapes.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Model is the inner learnable model. Implementations own their parameters;
// the approximator only moves data in and out.
type Model interface {
	// InputShape and OutputShape declare the tensor shapes the model
	// consumes and produces (flattened for Predict).
	InputShape() []int
	OutputShape() []int
	// Predict maps a flat input to a flat output.
	// A wrong input length fails with ErrShapeMismatch.
	Predict(x mat.Vector) (mat.Vector, error)
	// Parameters returns the named parameter blocks of the model.
	// Mutating the returned matrices updates the model in place.
	Parameters() map[string]*mat.Dense
	// SetParameters replaces named parameter blocks.
	SetParameters(params map[string]*mat.Dense) error
	// Save and Load persist the parameters.
	Save(path string) error
	Load(path string) error
}

// Variable is satisfied by states and actions: a structured value exposing
// its merged flat data vector. Discrete variables report the cardinality of
// their space through Size and carry the chosen index in Data.
type Variable interface {
	// Data returns the merged flat data vector of the variable.
	Data() *mat.VecDense
	// SetData writes a predicted value back into the variable.
	SetData(v *mat.VecDense) error
	// IsDiscrete reports whether the variable ranges over a finite set.
	IsDiscrete() bool
	// Size returns the flat size: the data length for continuous
	// variables, the number of choices for discrete ones.
	Size() int
}

// Processor is a callable transform applied to data entering or leaving the
// model (normalization, clipping, centering, ...).
type Processor func(mat.Vector) mat.Vector

// numElements flattens a shape.
func numElements(shape []int) int {
	n := 1
	for _, d := range shape {
		if d <= 0 {
			return 0
		}
		n *= d
	}
	if len(shape) == 0 {
		return 0
	}
	return n
}
