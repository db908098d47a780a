// Copyright ©2025 NoemieJaquier. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package priority

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

func almostEqual(x, y []float64, tol float64) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if math.Abs(x[i]-y[i]) > tol {
			return false
		}
	}
	return true
}

func vecAlmostEqual(x, y *mat.VecDense, tol float64) bool {
	if x == nil || y == nil {
		return x == y
	}
	return almostEqual(x.RawVector().Data, y.RawVector().Data, tol)
}

// fakeModel is a hand-set model for exercising constraints without kinematics.
type fakeModel struct {
	n          int
	q, qd      *mat.VecDense
	jac        map[string]*mat.Dense
	mass       *mat.SymDense
	bias       *mat.VecDense
	velLo      *mat.VecDense
	velHi      *mat.VecDense
	accLo      *mat.VecDense
	accHi      *mat.VecDense
	effLo      *mat.VecDense
	effHi      *mat.VecDense
}

func newFakeModel(n int) *fakeModel {
	inf := func(sign int) *mat.VecDense {
		d := make([]float64, n)
		for i := range d {
			d[i] = math.Inf(sign)
		}
		return mat.NewVecDense(n, d)
	}
	m := &fakeModel{
		n:    n,
		q:    mat.NewVecDense(n, nil),
		qd:   mat.NewVecDense(n, nil),
		jac:  make(map[string]*mat.Dense),
		mass: mat.NewSymDense(n, nil),
		bias: mat.NewVecDense(n, nil),
		velLo: inf(-1), velHi: inf(1),
		accLo: inf(-1), accHi: inf(1),
		effLo: inf(-1), effHi: inf(1),
	}
	for i := 0; i < n; i++ {
		m.mass.SetSym(i, i, 1)
	}
	return m
}

func (m *fakeModel) DoF() int                  { return m.n }
func (m *fakeModel) Positions() *mat.VecDense  { return m.q }
func (m *fakeModel) Velocities() *mat.VecDense { return m.qd }

func (m *fakeModel) Jacobian(frame string) (*mat.Dense, error) {
	j, ok := m.jac[frame]
	if !ok {
		return nil, fmt.Errorf("unknown frame %q", frame)
	}
	return j, nil
}

func (m *fakeModel) MassMatrix() *mat.SymDense { return m.mass }
func (m *fakeModel) BiasForces() *mat.VecDense { return m.bias }

func (m *fakeModel) VelocityBounds() (*mat.VecDense, *mat.VecDense) {
	return m.velLo, m.velHi
}

func (m *fakeModel) AccelerationBounds() (*mat.VecDense, *mat.VecDense) {
	return m.accLo, m.accHi
}

func (m *fakeModel) EffortBounds() (*mat.VecDense, *mat.VecDense) {
	return m.effLo, m.effHi
}
