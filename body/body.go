// Package body defines the kinematic record shared by the quadtree force
// approximator and the ADB6 integrator: position, velocity, acceleration,
// mass, and the one physics primitive that couples two bodies together.
package body

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// softening2 is the squared Plummer softening length epsilon^2. It bounds
// the gravitational force at small separation, so no division by zero is
// ever possible in ForceFrom.
const softening2 = 0.01

// Body is a plain kinematic record: mass, radius, position, velocity, and
// acceleration. Acceleration is a transient per-step output written by a
// force evaluator (quadtree.ForceOn via simulation.Evaluate) and zeroed by
// Advance; position and velocity are the state an integrator owns.
type Body struct {
	Pos    r2.Vec
	Vel    r2.Vec
	Acc    r2.Vec
	Mass   float64
	Radius float64
}

// New returns a Body at rest at the origin with the given mass and radius.
// Mass must be strictly positive; callers are responsible for this
// invariant since Body itself has no constructor-time validation hook.
func New(mass, radius float64) *Body {
	return &Body{Mass: mass, Radius: radius}
}

// ForceFrom returns the gravitational acceleration exerted on b by other,
// using gravitational constant g and Plummer softening:
//
//	G * other.Mass * (other.Pos - b.Pos) / (|delta|^2 + eps^2)^(3/2)
//
// The result is the zero vector when the two bodies occupy the same
// position (delta == 0, softening still applies but numerator is also
// zero in the only case that would otherwise matter for direction).
func (b *Body) ForceFrom(other *Body, g float64) r2.Vec {
	delta := other.Pos.Sub(b.Pos)
	d2 := r2.Norm2(delta) + softening2
	denom := d2 * math.Sqrt(d2)
	if denom == 0 {
		return r2.Vec{}
	}
	return delta.Scale(g * other.Mass / denom)
}

// Accumulate adds the force from other (see ForceFrom) into b.Acc.
func (b *Body) Accumulate(other *Body, g float64) {
	b.Acc = b.Acc.Add(b.ForceFrom(other, g))
}

// Advance performs a symplectic-Euler update: velocity absorbs the
// accumulated acceleration, position absorbs the new velocity, and the
// acceleration accumulator resets to zero for the next step.
//
// Advance is for simple, non-ADB6 scenarios only. The ADB6 integrator
// (package integrator) writes Pos/Vel directly from its history and must
// never call Advance — calling both on the same Body within one step
// would double-apply the timestep.
func (b *Body) Advance(dt float64) {
	b.Vel = b.Vel.Add(b.Acc.Scale(dt))
	b.Pos = b.Pos.Add(b.Vel.Scale(dt))
	b.Acc = r2.Vec{}
}
