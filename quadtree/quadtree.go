// Package quadtree implements a region-bounded quaternary spatial index
// over bodies: the Barnes-Hut tree. It supports insertion, per-node
// mass/center-of-mass aggregation, and a recursive force query that
// approximates far-away clusters of bodies as a single point mass.
package quadtree

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ylchen/barnes-hut-nbody/body"
)

// ErrCoincidentBodies is returned by Insert when two distinct bodies share
// an identical position. It is a fatal, programmer-level error: scenario
// builders must perturb positions so this never happens in a running
// simulation.
var ErrCoincidentBodies = errors.New("quadtree: distinct bodies at identical position")

// Theta is the default Barnes-Hut opening angle (simulation.New starts from
// it). ForceOn has no default of its own: every caller passes theta
// explicitly.
const Theta = 0.9

// quadrant indices, in the order QuadNode.children is laid out.
const (
	nw = iota
	ne
	sw
	se
	numQuadrants
)

// Box is an axis-aligned square region, [Min, Max] inclusive.
type Box struct {
	Min, Max r2.Vec
}

// Center returns the geometric center of b.
func (b Box) Center() r2.Vec {
	return r2.Vec{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2}
}

// Side returns the box's side length, taken as the x-extent since every
// Box produced by this package is square (see IsSquare).
func (b Box) Side() float64 {
	return b.Max.X - b.Min.X
}

// IsSquare reports whether b has equal width and height, within eps. Every
// Box this package builds is square by construction; IsSquare is checked
// only by tests. Neither insertion nor ForceOn calls it, so subdivision does
// not assert squareness.
func (b Box) IsSquare() bool {
	const eps = 1e-9
	return math.Abs((b.Max.X-b.Min.X)-(b.Max.Y-b.Min.Y)) <= eps
}

func (b Box) contains(p r2.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// quadrant returns which of the four quadrants of b contains p, using
// strict axis comparison against b's center. Ties are broken in listed
// order (nw, ne, sw, se) so that bodies exactly on a boundary are placed
// deterministically.
func (b Box) quadrant(p r2.Vec) int {
	c := b.Center()
	switch {
	case p.X <= c.X && p.Y >= c.Y:
		return nw
	case p.X >= c.X && p.Y >= c.Y:
		return ne
	case p.X <= c.X && p.Y <= c.Y:
		return sw
	default:
		return se
	}
}

// split returns the bounds of the given quadrant of b.
func (b Box) split(quadrant int) Box {
	c := b.Center()
	switch quadrant {
	case nw:
		return Box{Min: r2.Vec{X: b.Min.X, Y: c.Y}, Max: r2.Vec{X: c.X, Y: b.Max.Y}}
	case ne:
		return Box{Min: c, Max: b.Max}
	case sw:
		return Box{Min: b.Min, Max: c}
	default: // se
		return Box{Min: r2.Vec{X: c.X, Y: b.Min.Y}, Max: r2.Vec{X: b.Max.X, Y: c.Y}}
	}
}

// kind tags the variant payload of a QuadNode: empty during construction,
// leaf once exactly one body occupies the region, internal once the node
// has been subdivided.
type kind int

const (
	kindEmpty kind = iota
	kindLeaf
	kindInternal
)

// QuadNode is one node of the tree: an axis-aligned square region plus a
// tagged variant payload (empty / leaf(body) / internal(children)). Mass
// and MassCenter are aggregate quantities filled by ComputeMassDistribution
// and are meaningless before that call returns.
type QuadNode struct {
	Bounds Box
	kind   kind

	body     *body.Body              // valid when kind == kindLeaf
	children [numQuadrants]*QuadNode // non-nil entries valid when kind == kindInternal

	Mass       float64
	MassCenter r2.Vec
}

// QuadTree owns a root QuadNode built fresh each simulation step.
type QuadTree struct {
	Root *QuadNode
}

// New returns an empty QuadTree whose root covers the square region
// [center-halfWidth, center+halfWidth].
func New(center r2.Vec, halfWidth float64) *QuadTree {
	return &QuadTree{
		Root: &QuadNode{
			Bounds: Box{
				Min: r2.Vec{X: center.X - halfWidth, Y: center.Y - halfWidth},
				Max: r2.Vec{X: center.X + halfWidth, Y: center.Y + halfWidth},
			},
		},
	}
}

// Insert adds b to the tree. Bodies outside the root's bounds are a
// silent no-op (they become "renegades" for this step; see simulation's
// Renegades accessor). Two distinct bodies at identical positions return
// ErrCoincidentBodies, wrapped with both bodies' positions for diagnosis.
func (t *QuadTree) Insert(b *body.Body) error {
	return t.Root.insert(b)
}

func (n *QuadNode) insert(b *body.Body) error {
	if !n.Bounds.contains(b.Pos) {
		return nil
	}

	switch n.kind {
	case kindEmpty:
		n.kind = kindLeaf
		n.body = b
		return nil

	case kindLeaf:
		incumbent := n.body
		if incumbent.Pos == b.Pos {
			return fmt.Errorf("%w: both at (%g, %g)", ErrCoincidentBodies, b.Pos.X, b.Pos.Y)
		}
		n.kind = kindInternal
		n.body = nil
		if err := n.insertIntoChild(incumbent); err != nil {
			return err
		}
		return n.insertIntoChild(b)

	default: // kindInternal
		return n.insertIntoChild(b)
	}
}

func (n *QuadNode) insertIntoChild(b *body.Body) error {
	q := n.Bounds.quadrant(b.Pos)
	child := n.children[q]
	if child == nil {
		child = &QuadNode{Bounds: n.Bounds.split(q)}
		n.children[q] = child
	}
	return child.insert(b)
}

// ComputeMassDistribution is a post-order traversal that fills Mass and
// MassCenter at every node: leaves take their body's mass/position
// directly, internal nodes take the mass-weighted average of their
// children. It must be called once after all bodies have been inserted
// and before any ForceOn query. It returns the root's aggregate mass and
// center of mass.
func (t *QuadTree) ComputeMassDistribution() (mass float64, center r2.Vec) {
	return t.Root.computeMassDistribution()
}

func (n *QuadNode) computeMassDistribution() (mass float64, center r2.Vec) {
	switch n.kind {
	case kindEmpty:
		return 0, r2.Vec{}

	case kindLeaf:
		n.Mass = n.body.Mass
		n.MassCenter = n.body.Pos
		return n.Mass, n.MassCenter

	default: // kindInternal
		var totalMass float64
		var weighted r2.Vec
		for _, c := range n.children {
			if c == nil {
				continue
			}
			m, ctr := c.computeMassDistribution()
			totalMass += m
			weighted = weighted.Add(ctr.Scale(m))
		}
		n.Mass = totalMass
		if totalMass > 0 {
			n.MassCenter = weighted.Scale(1 / totalMass)
		} else {
			n.MassCenter = r2.Vec{}
		}
		return n.Mass, n.MassCenter
	}
}

// ForceOn computes the gravitational acceleration on q from the entire
// tree, using the Barnes-Hut criterion d/r <= theta to decide when a
// subtree may be collapsed into a single point mass at its center of
// mass. It is THE HEART OF THE ALGORITHM: this is what turns an O(N^2)
// all-pairs sum into O(N log N) per step.
func (t *QuadTree) ForceOn(q *body.Body, theta, g float64) r2.Vec {
	if t.Root == nil {
		return r2.Vec{}
	}
	return t.Root.forceOn(q, theta, g)
}

func (n *QuadNode) forceOn(q *body.Body, theta, g float64) r2.Vec {
	switch n.kind {
	case kindEmpty:
		return r2.Vec{}

	case kindLeaf:
		if n.body == q {
			return r2.Vec{}
		}
		return q.ForceFrom(n.body, g)

	default: // kindInternal
		d := n.Bounds.Side()
		r := r2.Norm(q.Pos.Sub(n.MassCenter))
		if d/r <= theta {
			agg := &body.Body{Pos: n.MassCenter, Mass: n.Mass}
			return q.ForceFrom(agg, g)
		}

		var total r2.Vec
		for _, c := range n.children {
			if c == nil {
				continue
			}
			total = total.Add(c.forceOn(q, theta, g))
		}
		return total
	}
}
