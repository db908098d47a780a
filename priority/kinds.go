// Copyright ©2025 NoemieJaquier. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package priority

// Kind classifies a constraint along two orthogonal axes.
//
// The shape axis decides how the aggregator folds the constraint into the
// standard form (𝐅𝐱 = 𝐜 or 𝐆𝐱 ≤ 𝐡):
//   - Equality    𝐀𝐱 = 𝐛
//   - Unilateral  𝐛ₗ ≤ 𝐀𝐱 xor 𝐀𝐱 ≤ 𝐛ᵤ
//   - Bilateral   𝐛ₗ ≤ 𝐀𝐱 ≤ 𝐛ᵤ
//   - Bounds      𝐛ₗ ≤ 𝐱 ≤ 𝐛ᵤ (direct bounds on the variable)
//
// The level axis records which physical quantities feed the matrices:
//   - Kinematic   velocity-level terms (Jacobians, velocity limits)
//   - Dynamic     acceleration/force-level terms (mass matrix, efforts)
//
// A Kind is fixed at construction and never mutated afterwards.
type Kind uint8

const (
	Equality Kind = 1 << iota
	Unilateral
	Bilateral
	Bounds
	Kinematic
	Dynamic
)

const shapeMask = Equality | Unilateral | Bilateral | Bounds

// IsEquality reports whether the constraint is 𝐀𝐱 = 𝐛.
func (k Kind) IsEquality() bool { return k&Equality != 0 }

// IsInequality reports whether the constraint is a general linear
// inequality on 𝐀𝐱 (unilateral or bilateral, but not a direct bound).
func (k Kind) IsInequality() bool { return k&(Unilateral|Bilateral) != 0 }

// HasBounds reports whether the constraint bounds the variable 𝐱 directly.
func (k Kind) HasBounds() bool { return k&Bounds != 0 }

// IsUnilateral reports whether only one of the two inequality sides is active.
func (k Kind) IsUnilateral() bool { return k&Unilateral != 0 }

// IsBilateral reports whether both inequality sides are active.
func (k Kind) IsBilateral() bool { return k&Bilateral != 0 }

// IsKinematic reports whether the constraint is built from velocity-level quantities.
func (k Kind) IsKinematic() bool { return k&Kinematic != 0 }

// IsDynamic reports whether the constraint is built from acceleration/force-level quantities.
func (k Kind) IsDynamic() bool { return k&Dynamic != 0 }

// valid reports whether exactly one shape flag is set.
func (k Kind) valid() bool {
	s := k & shapeMask
	return s != 0 && s&(s-1) == 0
}
