// Package scenario is the thin orchestrator that binds a Simulation and an
// Integrator and exposes Process/Snapshot to an external caller (a main
// loop and a renderer, neither of which is part of this module). It
// contains no physics of its own.
package scenario

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ylchen/barnes-hut-nbody/body"
	"github.com/ylchen/barnes-hut-nbody/integrator"
	"github.com/ylchen/barnes-hut-nbody/simulation"
)

// Renderer is the set of operations a scenario's draw step may call on an
// external collaborator. The core never assumes anything about how these
// are realised — terminal ASCII, windowed graphics, and file output are
// all acceptable implementations, and none ships with this package.
type Renderer interface {
	Clear()
	Position(x, y float64)
	SetZoom(z float64)
	PlotCircle(x, y, r float64)
	PlotLine(x1, y1, x2, y2 float64)
	PlotRectangle(x1, y1, x2, y2 float64)
	PlotPoint(x, y float64)
	SetPalette(n int)
	Draw()
}

// NopRenderer implements Renderer by doing nothing. It exists so code that
// depends on this package (and this package's own tests) can exercise
// Snapshot-driven draw logic without a real rendering backend.
type NopRenderer struct{}

func (NopRenderer) Clear()                               {}
func (NopRenderer) Position(x, y float64)                {}
func (NopRenderer) SetZoom(z float64)                    {}
func (NopRenderer) PlotCircle(x, y, r float64)           {}
func (NopRenderer) PlotLine(x1, y1, x2, y2 float64)      {}
func (NopRenderer) PlotRectangle(x1, y1, x2, y2 float64) {}
func (NopRenderer) PlotPoint(x, y float64)               {}
func (NopRenderer) SetPalette(n int)                     {}
func (NopRenderer) Draw()                                {}

// Snapshot is a single body's renderable state: position and (cosmetic)
// radius.
type Snapshot struct {
	Pos    r2.Vec
	Radius float64
}

// Option configures a Scenario at construction time.
type Option func(*options)

type options struct {
	dt      float64
	theta   float64
	g       float64
	useADB6 bool
}

// WithTimestep sets the fixed timestep of the ADB6 integrator, used by
// Process when WithADB6 is given. Default 0.01. The simple path steps by
// the dt passed to Process instead.
func WithTimestep(dt float64) Option {
	return func(o *options) { o.dt = dt }
}

// WithTheta sets the Barnes-Hut opening angle. Default quadtree.Theta (0.9).
func WithTheta(theta float64) Option {
	return func(o *options) { o.theta = theta }
}

// WithG sets the gravitational constant. Default 1.
func WithG(g float64) Option {
	return func(o *options) { o.g = g }
}

// WithADB6 selects the six-step Adams-Bashforth integrator (bootstrapped
// by RK4) instead of the simple symplectic-Euler body.Advance path. ADB6
// scenarios must not call body.Advance; Scenario enforces this by picking
// exactly one path at construction time.
func WithADB6() Option {
	return func(o *options) { o.useADB6 = true }
}

// Scenario binds a Simulation and, optionally, an ADB6 integrator.
type Scenario struct {
	sim *simulation.Simulation
	adb *integrator.ADB6
}

// New constructs a Scenario over bodies. On the simple path construction
// does not evaluate the simulation. With WithADB6, New bootstraps the
// integrator, which evaluates the simulation repeatedly and advances the
// bodies five timesteps, so Process is immediately usable.
func New(bodies []*body.Body, opts ...Option) (*Scenario, error) {
	o := options{dt: 0.01, theta: -1, g: 1}
	for _, opt := range opts {
		opt(&o)
	}

	sim := simulation.New(bodies)
	sim.G = o.g
	if o.theta >= 0 {
		sim.Theta = o.theta
	}

	s := &Scenario{sim: sim}

	if o.useADB6 {
		adb := integrator.New(len(bodies), o.dt)
		if err := adb.Bootstrap(sim); err != nil {
			return nil, err
		}
		s.adb = adb
		return s, nil
	}

	// The simple, non-ADB6 path never builds a tree: it accumulates exact
	// pairwise forces and advances with symplectic-Euler, per spec.md
	// section 9's "both paths preserved" note. Simulation is kept only as
	// the bodies' owner so Snapshot has a uniform shape across both paths.
	return s, nil
}

// Process advances the scenario by one step. On the simple path the step
// is dt. On the ADB6 path dt is ignored and the step is the timestep fixed
// at construction, since ADB6's history is only valid for the timestep it
// was bootstrapped with.
func (s *Scenario) Process(dt float64) error {
	if s.adb != nil {
		return s.adb.Step(s.sim)
	}

	for _, b := range s.sim.Bodies {
		for _, other := range s.sim.Bodies {
			if other == b {
				continue
			}
			b.Accumulate(other, s.sim.G)
		}
	}
	for _, b := range s.sim.Bodies {
		b.Advance(dt)
	}
	return nil
}

// Snapshot returns the current (position, radius) of every body plus the
// region center, for a renderer's draw step.
func (s *Scenario) Snapshot() (bodies []Snapshot, center r2.Vec) {
	bodies = make([]Snapshot, len(s.sim.Bodies))
	for i, b := range s.sim.Bodies {
		bodies[i] = Snapshot{Pos: b.Pos, Radius: b.Radius}
	}
	return bodies, s.sim.RegionCenter()
}

// Simulation exposes the underlying Simulation for callers that need
// direct access (e.g. to read Renegades()).
func (s *Scenario) Simulation() *simulation.Simulation {
	return s.sim
}
