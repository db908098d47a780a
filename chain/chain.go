// Copyright ©2025 NoemieJaquier. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chain provides a planar serial-link manipulator model: forward
// kinematics, analytic Jacobians, and point-mass dynamics for an n-link
// revolute chain moving in a vertical plane. It backs the priority package's
// Model interface with a real robot structure instead of hand-set matrices.
package chain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// EndEffector names the frame at the tip of the last link.
const EndEffector = "ee"

// Bound represents the limits of one joint. A NaN or infinite side means
// the joint is unbounded on that side.
type Bound struct {
	Lower, Upper float64
}

// Spec specifies a planar chain. Link k is a rigid rod of length Lengths[k]
// with a point mass Masses[k] at its distal end; gravity acts along -y.
type Spec struct {
	Lengths []float64
	Masses  []float64
	// Gravity is the gravitational acceleration magnitude (0 for a
	// horizontal, gravity-free plane).
	Gravity float64
	// Optional per-joint limits; nil means unbounded.
	Velocity     []Bound
	Acceleration []Bound
	Effort       []Bound
}

// New validates the spec and creates the chain at the zero configuration.
func (s *Spec) New() (*Chain, error) {

	n := len(s.Lengths)
	switch {
	case n == 0:
		return nil, errors.New("chain needs at least one link")
	case len(s.Masses) != n:
		return nil, errors.New("masses count must equal link count")
	case s.Gravity < 0 || math.IsNaN(s.Gravity):
		return nil, errors.New("gravity must not be negative")
	}
	for i, l := range s.Lengths {
		if l <= 0 || math.IsNaN(l) || math.IsInf(l, 0) {
			return nil, fmt.Errorf("link %d length must be positive and finite", i)
		}
	}
	for i, m := range s.Masses {
		if m <= 0 || math.IsNaN(m) || math.IsInf(m, 0) {
			return nil, fmt.Errorf("link %d mass must be positive and finite", i)
		}
	}

	c := &Chain{
		n:  n,
		l:  append([]float64(nil), s.Lengths...),
		m:  append([]float64(nil), s.Masses...),
		g:  s.Gravity,
		q:  mat.NewVecDense(n, nil),
		qd: mat.NewVecDense(n, nil),
	}

	var err error
	if c.velLo, c.velHi, err = boundVecs(s.Velocity, n, "velocity"); err != nil {
		return nil, err
	}
	if c.accLo, c.accHi, err = boundVecs(s.Acceleration, n, "acceleration"); err != nil {
		return nil, err
	}
	if c.effLo, c.effHi, err = boundVecs(s.Effort, n, "effort"); err != nil {
		return nil, err
	}
	return c, nil
}

func boundVecs(b []Bound, n int, what string) (lo, hi *mat.VecDense, err error) {
	lo, hi = mat.NewVecDense(n, nil), mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		l, u := math.Inf(-1), math.Inf(1)
		if b != nil {
			if len(b) != n {
				return nil, nil, fmt.Errorf("%s bounds count must equal link count", what)
			}
			if v := b[i].Lower; !math.IsNaN(v) && !math.IsInf(v, -1) {
				l = v
			}
			if v := b[i].Upper; !math.IsNaN(v) && !math.IsInf(v, 1) {
				u = v
			}
			if l > u {
				return nil, nil, fmt.Errorf("%s bound crossed at joint %d", what, i)
			}
		}
		lo.SetVec(i, l)
		hi.SetVec(i, u)
	}
	return lo, hi, nil
}

// Chain is a planar n-link revolute chain. Joint k rotates link k relative
// to link k-1; angles are absolute sums, the base sits at the origin.
type Chain struct {
	n    int
	l, m []float64
	g    float64

	q, qd *mat.VecDense

	velLo, velHi *mat.VecDense
	accLo, accHi *mat.VecDense
	effLo, effHi *mat.VecDense
}

// DoF returns the number of joints.
func (c *Chain) DoF() int { return c.n }

// SetState places the chain at joint positions q with velocities qd.
func (c *Chain) SetState(q, qd []float64) error {
	if len(q) != c.n || len(qd) != c.n {
		return fmt.Errorf("state dimension must be %d", c.n)
	}
	copy(c.q.RawVector().Data, q)
	copy(c.qd.RawVector().Data, qd)
	return nil
}

// Positions returns the current joint positions. The caller must not mutate it.
func (c *Chain) Positions() *mat.VecDense { return c.q }

// Velocities returns the current joint velocities. The caller must not mutate it.
func (c *Chain) Velocities() *mat.VecDense { return c.qd }

// VelocityBounds returns the joint velocity limits.
func (c *Chain) VelocityBounds() (*mat.VecDense, *mat.VecDense) { return c.velLo, c.velHi }

// AccelerationBounds returns the joint acceleration limits.
func (c *Chain) AccelerationBounds() (*mat.VecDense, *mat.VecDense) { return c.accLo, c.accHi }

// EffortBounds returns the joint torque limits.
func (c *Chain) EffortBounds() (*mat.VecDense, *mat.VecDense) { return c.effLo, c.effHi }

// frameIndex resolves a frame name ("ee" or "linkK", K = 1..n) to the index
// of the last link contributing to it.
func (c *Chain) frameIndex(frame string) (int, error) {
	if frame == EndEffector {
		return c.n - 1, nil
	}
	if rest, ok := strings.CutPrefix(frame, "link"); ok {
		k, err := strconv.Atoi(rest)
		if err == nil && k >= 1 && k <= c.n {
			return k - 1, nil
		}
	}
	return 0, fmt.Errorf("unknown frame %q", frame)
}

// angles returns the cumulative absolute link angles 𝛉̄ᵢ = ∑ⱼ≤ᵢ 𝐪ⱼ.
func (c *Chain) angles() []float64 {
	th := make([]float64, c.n)
	sum := 0.0
	for i := 0; i < c.n; i++ {
		sum += c.q.AtVec(i)
		th[i] = sum
	}
	return th
}

// rates returns the cumulative angular rates 𝛚ᵢ = ∑ⱼ≤ᵢ 𝐪̇ⱼ.
func (c *Chain) rates() []float64 {
	w := make([]float64, c.n)
	sum := 0.0
	for i := 0; i < c.n; i++ {
		sum += c.qd.AtVec(i)
		w[i] = sum
	}
	return w
}

// Position returns the world position of the named frame.
func (c *Chain) Position(frame string) (x, y float64, err error) {
	k, err := c.frameIndex(frame)
	if err != nil {
		return 0, 0, err
	}
	th := c.angles()
	for i := 0; i <= k; i++ {
		x += c.l[i] * math.Cos(th[i])
		y += c.l[i] * math.Sin(th[i])
	}
	return x, y, nil
}

// Jacobian returns the 2×n position Jacobian of the named frame:
//
//	𝐉[0,j] = -∑ᵢ₌ⱼ..ₖ 𝐥ᵢ 𝚜𝚒𝚗 𝛉̄ᵢ
//	𝐉[1,j] =  ∑ᵢ₌ⱼ..ₖ 𝐥ᵢ 𝚌𝚘𝚜 𝛉̄ᵢ
//
// with zero columns past the frame's link.
func (c *Chain) Jacobian(frame string) (*mat.Dense, error) {
	k, err := c.frameIndex(frame)
	if err != nil {
		return nil, err
	}
	return c.jacobianTo(k, c.angles()), nil
}

func (c *Chain) jacobianTo(k int, th []float64) *mat.Dense {
	j := mat.NewDense(2, c.n, nil)
	sx, sy := 0.0, 0.0
	for i := k; i >= 0; i-- {
		sx -= c.l[i] * math.Sin(th[i])
		sy += c.l[i] * math.Cos(th[i])
		j.Set(0, i, sx)
		j.Set(1, i, sy)
	}
	return j
}

// jacobianDotTo is the time derivative 𝐉̇ of jacobianTo at the current rates.
func (c *Chain) jacobianDotTo(k int, th, w []float64) *mat.Dense {
	j := mat.NewDense(2, c.n, nil)
	sx, sy := 0.0, 0.0
	for i := k; i >= 0; i-- {
		sx -= c.l[i] * math.Cos(th[i]) * w[i]
		sy -= c.l[i] * math.Sin(th[i]) * w[i]
		j.Set(0, i, sx)
		j.Set(1, i, sy)
	}
	return j
}

// MassMatrix returns the joint-space inertia matrix of the point-mass chain:
//
//	𝐌(𝐪) = ∑ₖ 𝐦ₖ 𝐉ₖᵀ𝐉ₖ
//
// where 𝐉ₖ is the position Jacobian of mass k.
func (c *Chain) MassMatrix() *mat.SymDense {
	th := c.angles()
	var acc mat.Dense
	acc.ReuseAs(c.n, c.n)
	var jj mat.Dense
	for k := 0; k < c.n; k++ {
		jk := c.jacobianTo(k, th)
		jj.Mul(jk.T(), jk)
		jj.Scale(c.m[k], &jj)
		acc.Add(&acc, &jj)
	}
	m := mat.NewSymDense(c.n, nil)
	for i := 0; i < c.n; i++ {
		for j := i; j < c.n; j++ {
			m.SetSym(i, j, acc.At(i, j))
		}
	}
	return m
}

// BiasForces returns the Coriolis, centrifugal and gravity torques:
//
//	𝐡(𝐪,𝐪̇) = ∑ₖ 𝐦ₖ 𝐉ₖᵀ𝐉̇ₖ𝐪̇ + 𝐠(𝐪)
//
// so that the equation of motion reads 𝛕 = 𝐌(𝐪)𝐪̈ + 𝐡(𝐪,𝐪̇).
func (c *Chain) BiasForces() *mat.VecDense {
	th, w := c.angles(), c.rates()
	h := mat.NewVecDense(c.n, nil)
	vk := mat.NewVecDense(2, nil)
	tk := mat.NewVecDense(c.n, nil)
	for k := 0; k < c.n; k++ {
		jk := c.jacobianTo(k, th)
		jdk := c.jacobianDotTo(k, th, w)
		vk.MulVec(jdk, c.qd)
		tk.MulVec(jk.T(), vk)
		tk.ScaleVec(c.m[k], tk)
		h.AddVec(h, tk)
		// Gravity pulls along -y: 𝛕ᵍⱼ = 𝐠 ∑ₖ 𝐦ₖ 𝐉ₖ[1,j].
		for j := 0; j <= k; j++ {
			h.SetVec(j, h.AtVec(j)+c.g*c.m[k]*jk.At(1, j))
		}
	}
	return h
}
