// Copyright ©2025 NoemieJaquier. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package approximator

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// fakeVar is a flat continuous variable, or a discrete one holding the
// chosen index when choices > 0.
type fakeVar struct {
	data    *mat.VecDense
	choices int
}

func (v *fakeVar) Data() *mat.VecDense { return v.data }

func (v *fakeVar) SetData(d *mat.VecDense) error {
	v.data = d
	return nil
}

func (v *fakeVar) IsDiscrete() bool { return v.choices > 0 }

func (v *fakeVar) Size() int {
	if v.choices > 0 {
		return v.choices
	}
	return v.data.Len()
}

func TestSpecValidation(t *testing.T) {

	in := &fakeVar{data: mat.NewVecDense(2, nil)}
	out := &fakeVar{data: mat.NewVecDense(3, nil)}
	model, err := NewLinear(2, 3)
	if err != nil {
		t.Fatal(err)
	}

	for i, spec := range []Spec{
		{Outputs: out, Model: model},
		{Inputs: in, Model: model},
		{Inputs: in, Outputs: out},
		{Inputs: in, Outputs: out, Model: model, Pre: []Processor{nil}},
	} {
		if _, err := spec.New(); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("spec %d: want ErrInvalidArgument, got %v", i, err)
		}
	}

	// bound sizes disagreeing with the model shapes
	wide := &fakeVar{data: mat.NewVecDense(4, nil)}
	if _, err := (&Spec{Inputs: wide, Outputs: out, Model: model}).New(); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("want ErrShapeMismatch on input, got %v", err)
	}
	if _, err := (&Spec{Inputs: in, Outputs: wide, Model: model}).New(); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("want ErrShapeMismatch on output, got %v", err)
	}

	if _, err := (&Spec{Inputs: in, Outputs: out, Model: model}).New(); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}
}

func TestPredictPipeline(t *testing.T) {

	in := &fakeVar{data: mat.NewVecDense(2, []float64{1, 2})}
	out := &fakeVar{data: mat.NewVecDense(2, nil)}
	model, _ := NewLinear(2, 2)
	if err := model.SetParameters(map[string]*mat.Dense{
		"W": mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
		"b": mat.NewDense(2, 1, []float64{0.5, -0.5}),
	}); err != nil {
		t.Fatal(err)
	}

	double := func(x mat.Vector) mat.Vector {
		y := mat.NewVecDense(x.Len(), nil)
		y.ScaleVec(2, x)
		return y
	}
	negate := func(x mat.Vector) mat.Vector {
		y := mat.NewVecDense(x.Len(), nil)
		y.ScaleVec(-1, x)
		return y
	}

	approx, err := (&Spec{
		Inputs: in, Outputs: out, Model: model,
		Pre:  []Processor{double},
		Post: []Processor{negate},
	}).New()
	if err != nil {
		t.Fatal(err)
	}

	// y = -(0.5 + 2x₀, -0.5 + 2x₁)
	y, err := approx.Predict(nil)
	switch {
	case err != nil:
		t.Fatal(err)
	case !almostEqual(y.AtVec(0), -2.5) || !almostEqual(y.AtVec(1), -3.5):
		t.Fatalf("got %v", mat.Formatted(y.T()))
	case !almostEqual(out.Data().AtVec(0), -2.5):
		t.Fatal("output variable not updated")
	}

	// explicit input overrides the bound variable
	y, err = approx.Predict(mat.NewVecDense(2, []float64{0, 0}))
	switch {
	case err != nil:
		t.Fatal(err)
	case !almostEqual(y.AtVec(0), -0.5) || !almostEqual(y.AtVec(1), 0.5):
		t.Fatalf("got %v", mat.Formatted(y.T()))
	}
}

func TestPredictDiscrete(t *testing.T) {

	in := &fakeVar{data: mat.NewVecDense(2, []float64{1, 0})}
	out := &fakeVar{data: mat.NewVecDense(1, nil), choices: 3}
	model, _ := NewLinear(2, 3)
	if err := model.SetParameters(map[string]*mat.Dense{
		"W": mat.NewDense(3, 2, []float64{0.1, 0, 0.9, 0, 0.3, 0}),
	}); err != nil {
		t.Fatal(err)
	}

	approx, err := (&Spec{Inputs: in, Outputs: out, Model: model}).New()
	if err != nil {
		t.Fatal(err)
	}

	y, err := approx.Predict(nil)
	switch {
	case err != nil:
		t.Fatal(err)
	case y.Len() != 1:
		t.Fatalf("want index, got length %d", y.Len())
	case y.AtVec(0) != 1:
		t.Fatalf("want argmax 1, got %v", y.AtVec(0))
	case out.Data().AtVec(0) != 1:
		t.Fatal("output variable not updated")
	}
}

func TestParameterRoundTrip(t *testing.T) {

	model, _ := NewLinear(2, 2)
	in := &fakeVar{data: mat.NewVecDense(2, nil)}
	out := &fakeVar{data: mat.NewVecDense(2, nil)}
	approx, err := (&Spec{Inputs: in, Outputs: out, Model: model}).New()
	if err != nil {
		t.Fatal(err)
	}

	if n := approx.NumParameters(); n != 6 {
		t.Fatalf("want 6 parameters, got %d", n)
	}

	want := map[string]*mat.Dense{
		"W": mat.NewDense(2, 2, []float64{1, 2, 3, 4}),
		"b": mat.NewDense(2, 1, []float64{5, 6}),
	}
	if err := approx.SetParameters(want); err != nil {
		t.Fatal(err)
	}
	got := approx.Parameters()
	if !mat.Equal(got["W"], want["W"]) || !mat.Equal(got["b"], want["b"]) {
		t.Fatal("parameters did not round-trip")
	}

	// sorted block order: W before b
	v := approx.Vectorized()
	wantFlat := []float64{1, 2, 3, 4, 5, 6}
	for i, x := range wantFlat {
		if !almostEqual(v.AtVec(i), x) {
			t.Fatalf("vectorized[%d] = %v, want %v", i, v.AtVec(i), x)
		}
	}

	if err := model.SetParameters(map[string]*mat.Dense{"V": want["W"]}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument on unknown block, got %v", err)
	}
	if err := model.SetParameters(map[string]*mat.Dense{"W": want["b"]}); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("want ErrShapeMismatch on wrong block shape, got %v", err)
	}
}

func TestLinearSaveLoad(t *testing.T) {

	model, _ := NewLinear(2, 3)
	if err := model.SetParameters(map[string]*mat.Dense{
		"W": mat.NewDense(3, 2, []float64{1, -2, 3, -4, 5, -6}),
		"b": mat.NewDense(3, 1, []float64{0.25, -0.5, 0.75}),
	}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "linear.gob")
	if err := model.Save(path); err != nil {
		t.Fatal(err)
	}

	fresh, _ := NewLinear(2, 3)
	if err := fresh.Load(path); err != nil {
		t.Fatal(err)
	}
	x := mat.NewVecDense(2, []float64{1, 1})
	want, _ := model.Predict(x)
	got, err := fresh.Predict(x)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < want.Len(); i++ {
		if want.AtVec(i) != got.AtVec(i) {
			t.Fatalf("row %d: %v != %v", i, got.AtVec(i), want.AtVec(i))
		}
	}

	// stored dimensions must match the receiver
	other, _ := NewLinear(3, 2)
	if err := other.Load(path); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("want ErrShapeMismatch, got %v", err)
	}
}

func TestLinearPredictShape(t *testing.T) {
	model, _ := NewLinear(2, 2)
	if _, err := model.Predict(mat.NewVecDense(3, nil)); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("want ErrShapeMismatch, got %v", err)
	}
}
