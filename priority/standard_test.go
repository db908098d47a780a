// Copyright ©2025 NoemieJaquier. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package priority

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// Bilateral rows map to 𝐆 = [𝐀 ; -𝐀], 𝐡 = [𝐛ᵤ ; -𝐛ₗ].
func TestAssembleBilateral(t *testing.T) {

	m := newFakeModel(2)
	a := mat.NewDense(1, 2, []float64{2, -1})
	lo := mat.NewVecDense(1, []float64{-3})
	hi := mat.NewVecDense(1, []float64{5})

	c, err := NewBilateral(m, a, lo, hi)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Update(m, nil); err != nil {
		t.Fatal(err)
	}

	p, err := Assemble(2, c)
	if err != nil {
		t.Fatal(err)
	}

	wantG := mat.NewDense(2, 2, []float64{
		2, -1,
		-2, 1,
	})
	wantH := []float64{5, 3}

	switch {
	case p.NumEq() != 0:
		t.Fatal("TestAssembleBilateral: spurious equality rows")
	case p.NumIneq() != 2:
		t.Fatalf("TestAssembleBilateral: %d inequality rows", p.NumIneq())
	case !mat.Equal(p.G, wantG):
		t.Fatal("TestAssembleBilateral: bad G")
	case !almostEqual(p.H.RawVector().Data, wantH, 0):
		t.Fatal("TestAssembleBilateral: bad h")
	}
}

// A unilateral constraint contributes only its finite side.
func TestAssembleUnilateral(t *testing.T) {

	m := newFakeModel(2)
	a := mat.NewDense(1, 2, []float64{1, 1})
	hi := mat.NewVecDense(1, []float64{4})

	c, err := NewUnilateral(m, a, UpperSide, hi)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Update(m, nil); err != nil {
		t.Fatal(err)
	}

	p, err := Assemble(2, c)
	if err != nil {
		t.Fatal(err)
	}
	if p.NumIneq() != 1 {
		t.Fatalf("TestAssembleUnilateral: %d rows from a single-sided constraint", p.NumIneq())
	}
	if p.H.AtVec(0) != 4 {
		t.Fatal("TestAssembleUnilateral: bad h")
	}
}

// Direct bounds contribute identity rows; infinite entries drop out.
func TestAssembleBounds(t *testing.T) {

	m := newFakeModel(3)
	m.velLo = mat.NewVecDense(3, []float64{-1, math.Inf(-1), -3})
	m.velHi = mat.NewVecDense(3, []float64{1, 2, math.Inf(1)})

	c, err := NewJointVelocityLimits(m)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Update(m, nil); err != nil {
		t.Fatal(err)
	}

	p, err := Assemble(3, c)
	if err != nil {
		t.Fatal(err)
	}
	// Rows: +e0 ≤ 1, -e0 ≤ 1, +e1 ≤ 2, -e2 ≤ 3.
	if p.NumIneq() != 4 {
		t.Fatalf("TestAssembleBounds: %d rows, infinite sides not dropped", p.NumIneq())
	}
	wantG := mat.NewDense(4, 3, []float64{
		1, 0, 0,
		-1, 0, 0,
		0, 1, 0,
		0, 0, -1,
	})
	wantH := []float64{1, 1, 2, 3}
	switch {
	case !mat.Equal(p.G, wantG):
		t.Fatal("TestAssembleBounds: bad G")
	case !almostEqual(p.H.RawVector().Data, wantH, 0):
		t.Fatal("TestAssembleBounds: bad h")
	}
}

// Equality constraints land in (𝐅,𝐜) untouched.
func TestAssembleEquality(t *testing.T) {

	m := newFakeModel(3)
	j := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		4, 5, 6,
	})
	m.jac["ee"] = j
	ref := mat.NewVecDense(2, []float64{0.5, -0.5})

	c, err := NewCartesianVelocity(m, "ee", ref)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Update(m, nil); err != nil {
		t.Fatal(err)
	}

	p, err := Assemble(3, c)
	if err != nil {
		t.Fatal(err)
	}
	switch {
	case p.NumIneq() != 0:
		t.Fatal("TestAssembleEquality: spurious inequality rows")
	case !mat.Equal(p.F, j):
		t.Fatal("TestAssembleEquality: bad F")
	case !vecAlmostEqual(p.C, ref, 0):
		t.Fatal("TestAssembleEquality: bad c")
	}
}

// No active constraints compose to an empty program, not an error.
func TestAssembleEmpty(t *testing.T) {

	p, err := Assemble(4)
	if err != nil {
		t.Fatal(err)
	}
	switch {
	case p.G != nil || p.H != nil || p.F != nil || p.C != nil:
		t.Fatal("TestAssembleEmpty: nonempty matrices")
	case p.NumEq() != 0 || p.NumIneq() != 0:
		t.Fatal("TestAssembleEmpty: nonzero row counts")
	}
}

func TestAssembleNotUpdated(t *testing.T) {

	m := newFakeModel(2)
	c, err := NewJointVelocityLimits(m)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Assemble(2, c); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("assemble before update: got %v", err)
	}
}
