// Package simulation owns the set of bodies and the bounding region they
// live in. Each evaluation rebuilds the Barnes-Hut tree from scratch and
// writes the computed acceleration back into every body.
package simulation

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ylchen/barnes-hut-nbody/body"
	"github.com/ylchen/barnes-hut-nbody/internal/telemetry"
	"github.com/ylchen/barnes-hut-nbody/quadtree"
)

// inflation is how much larger than the bodies' bounding box the region of
// interest becomes, giving particles room to drift before being treated
// as renegades. Matches the 1.5x roi used by the reference model.
const inflation = 1.5

// boxPad is the margin applied to the initial bounding box before taking
// its larger axis, matching the reference model's 1.05x pad.
const boxPad = 1.05

// Simulation owns an ordered sequence of bodies and the square region of
// interest the Barnes-Hut tree is built over.
type Simulation struct {
	Bodies []*body.Body

	// G is the gravitational constant used for force evaluation. It is a
	// field, not a package constant, so both SI-scale scenarios (Jupiter's
	// moons) and galaxy-scale scenarios (G rescaled into
	// parsec/solar-mass/year units) are expressible without recompiling.
	G float64

	// Theta is the Barnes-Hut opening angle passed to quadtree.ForceOn.
	Theta float64

	roi          float64
	regionCenter r2.Vec

	lastTree      *quadtree.QuadTree
	lastRenegades []*body.Body
}

// New computes the axis-aligned bounding box of the given bodies' initial
// positions, expands it by 5%, takes the larger axis to obtain a square
// side L, sets the region of interest to 1.5*L, and centers the tree on
// the midpoint of the original bounding box. G defaults to 1 and Theta
// defaults to quadtree.Theta (0.9); override both via the returned
// Simulation's fields before the first Evaluate if needed.
func New(bodies []*body.Body) *Simulation {
	s := &Simulation{
		Bodies: bodies,
		G:      1,
		Theta:  quadtree.Theta,
	}

	if len(bodies) == 0 {
		s.roi = 1
		return s
	}

	minV := bodies[0].Pos
	maxV := bodies[0].Pos
	for _, b := range bodies[1:] {
		minV.X = math.Min(minV.X, b.Pos.X)
		minV.Y = math.Min(minV.Y, b.Pos.Y)
		maxV.X = math.Max(maxV.X, b.Pos.X)
		maxV.Y = math.Max(maxV.Y, b.Pos.Y)
	}

	width := maxV.X - minV.X
	height := maxV.Y - minV.Y
	l := boxPad * math.Max(width, height)
	if l == 0 {
		l = 1
	}

	s.roi = inflation * l
	s.regionCenter = r2.Vec{X: (minV.X + maxV.X) / 2, Y: (minV.Y + maxV.Y) / 2}
	return s
}

// RegionCenter returns the square region's current center, tracking the
// tree's aggregate center of mass as of the most recent Evaluate.
func (s *Simulation) RegionCenter() r2.Vec {
	return s.regionCenter
}

// ROI returns the half-side of the square region of interest.
func (s *Simulation) ROI() float64 {
	return s.roi
}

// Renegades returns the bodies excluded from the most recent Evaluate's
// tree because they drifted outside the region of interest. They neither
// exert nor receive a tree force for that step and keep the acceleration
// from their last evaluation; this is the extension point from which a
// caller could add a direct N-body contribution for renegades, which this
// package does not implement.
func (s *Simulation) Renegades() []*body.Body {
	return s.lastRenegades
}

// Evaluate constructs a fresh QuadTree covering
// [RegionCenter()-ROI(), RegionCenter()+ROI()], inserts every body,
// aggregates mass/center-of-mass (which re-centers the region on the
// drifting center of mass for the next step), and writes the resulting
// acceleration into every in-region body's Acc field. Bodies outside the
// region are excluded from the tree for this step and their Acc is left
// unchanged (see Renegades), but they still
// participate in the next step once they drift back in, or once the
// recentred region catches up to them.
func (s *Simulation) Evaluate() error {
	tree := quadtree.New(s.regionCenter, s.roi)

	s.lastRenegades = s.lastRenegades[:0]
	for _, b := range s.Bodies {
		if err := tree.Insert(b); err != nil {
			return err
		}
		if !inBounds(tree.Root.Bounds, b.Pos) {
			s.lastRenegades = append(s.lastRenegades, b)
		}
	}

	_, center := tree.ComputeMassDistribution()
	if tree.Root.Mass > 0 {
		s.regionCenter = center
	}

	for _, b := range s.Bodies {
		if !inBounds(tree.Root.Bounds, b.Pos) {
			continue // renegade: keeps the acceleration from its last evaluation
		}
		b.Acc = tree.ForceOn(b, s.Theta, s.G)
	}

	s.lastTree = tree
	if n := len(s.lastRenegades); n > 0 {
		telemetry.Get().Debug("renegade bodies excluded from tree", "count", n, "roi", s.roi)
	}
	return nil
}

func inBounds(box quadtree.Box, p r2.Vec) bool {
	return p.X >= box.Min.X && p.X <= box.Max.X && p.Y >= box.Min.Y && p.Y <= box.Max.Y
}
