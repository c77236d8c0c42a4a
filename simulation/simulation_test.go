package simulation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ylchen/barnes-hut-nbody/body"
	"github.com/ylchen/barnes-hut-nbody/simulation"
)

func twoBody(m1, m2 float64, sep float64) []*body.Body {
	a := body.New(m1, 0)
	a.Pos = r2.Vec{X: -sep / 2, Y: 0}
	b := body.New(m2, 0)
	b.Pos = r2.Vec{X: sep / 2, Y: 0}
	return []*body.Body{a, b}
}

func TestEvaluateWritesOppositeAccelerations(t *testing.T) {
	bodies := twoBody(10, 10, 2)
	sim := simulation.New(bodies)
	sim.Theta = 0 // force exact pairwise evaluation

	require.NoError(t, sim.Evaluate())

	a, b := bodies[0], bodies[1]
	assert.Greater(t, a.Acc.X, 0.0, "a should accelerate toward b")
	assert.Less(t, b.Acc.X, 0.0, "b should accelerate toward a")
	assert.InDelta(t, 0, a.Acc.Y, 1e-12)
}

func TestRenegadeExcludedButNotDeleted(t *testing.T) {
	bodies := twoBody(10, 10, 2)
	sim := simulation.New(bodies)
	// drag one body far outside the region the New() constructor picked.
	bodies[1].Pos = r2.Vec{X: sim.ROI() * 100, Y: sim.ROI() * 100}

	require.NoError(t, sim.Evaluate())

	assert.Len(t, sim.Renegades(), 1)
	assert.Same(t, bodies[1], sim.Renegades()[0])
	// the renegade still exists in Bodies, just contributes no force.
	assert.Len(t, sim.Bodies, 2)
}

func TestRegionCenterTracksCenterOfMass(t *testing.T) {
	bodies := twoBody(1, 1, 2)
	sim := simulation.New(bodies)

	require.NoError(t, sim.Evaluate())
	assert.InDelta(t, 0, sim.RegionCenter().X, 1e-9)
}

func TestNewEmptyBodiesDoesNotPanic(t *testing.T) {
	sim := simulation.New(nil)
	require.NoError(t, sim.Evaluate())
}
