package integrator_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ylchen/barnes-hut-nbody/body"
	"github.com/ylchen/barnes-hut-nbody/integrator"
	"github.com/ylchen/barnes-hut-nbody/simulation"
)

// circularOrbit builds the scenario from the spec's end-to-end test 2: a
// heavy body at the origin and a light body in a circular orbit at radius
// 30, with G = 1 so the orbital velocity is sqrt(M/r).
func circularOrbit() (*simulation.Simulation, *integrator.ADB6, float64) {
	const (
		mHeavy = 10000.0
		r      = 30.0
		dt     = 1.0 / 100
	)
	heavy := body.New(mHeavy, 0)
	light := body.New(1, 0)
	light.Pos = r2.Vec{X: r, Y: 0}
	light.Vel = r2.Vec{X: 0, Y: math.Sqrt(mHeavy / r)}

	sim := simulation.New([]*body.Body{heavy, light})
	sim.G = 1
	sim.Theta = 0 // exact force for a two-body system

	adb := integrator.New(2, dt)
	return sim, adb, dt
}

func TestBootstrapProducesConsistentFinalHistorySlot(t *testing.T) {
	// The newest history slot must mirror the derivatives of the state
	// Bootstrap leaves sim.Bodies in: re-evaluating that same state
	// should reproduce the same acceleration bootstrap already recorded.
	sim, adb, _ := circularOrbit()
	require.NoError(t, adb.Bootstrap(sim))

	before := make([]r2.Vec, len(sim.Bodies))
	for i, b := range sim.Bodies {
		before[i] = b.Acc
	}
	require.NoError(t, sim.Evaluate())
	for i, b := range sim.Bodies {
		assert.InDelta(t, before[i].X, b.Acc.X, 1e-9)
		assert.InDelta(t, before[i].Y, b.Acc.Y, 1e-9)
	}
}

func TestStepAdvancesPositionFromBootstrappedState(t *testing.T) {
	sim, adb, _ := circularOrbit()
	require.NoError(t, adb.Bootstrap(sim))

	before := sim.Bodies[1].Pos
	require.NoError(t, adb.Step(sim))
	after := sim.Bodies[1].Pos

	assert.NotEqual(t, before, after)
	// one 1/100 timestep on a body orbiting at radius 30 moves it a small
	// but non-negligible distance.
	moved := r2.Norm(after.Sub(before))
	assert.Greater(t, moved, 1e-4)
	assert.Less(t, moved, 1.0)
}

func TestCircularOrbitRadiusStaysBounded(t *testing.T) {
	sim, adb, _ := circularOrbit()
	require.NoError(t, adb.Bootstrap(sim))

	const steps = 2000 // about two periods at dt=1/100, period ~ 2*pi*sqrt(r^3/M) ~ 10.3
	for i := 0; i < steps; i++ {
		require.NoError(t, adb.Step(sim))
	}

	light := sim.Bodies[1]
	radius := r2.Norm(light.Pos.Sub(sim.Bodies[0].Pos))
	assert.InEpsilon(t, 30.0, radius, 0.05)
}

func TestHistoryShiftRoundTrip(t *testing.T) {
	sim, adb, _ := circularOrbit()
	require.NoError(t, adb.Bootstrap(sim))

	// After one Step, the oldest pre-bootstrap sample has been discarded
	// and the newest slot mirrors the just-evaluated state; stepping
	// repeatedly must not panic or desync the fixed six-slot ring.
	for i := 0; i < 10; i++ {
		require.NoError(t, adb.Step(sim))
	}
}

// TestBootstrapThenStepMatchesFineRK4Reference is spec.md section 8's
// concrete scenario 6: Bootstrap (five internal RK4 steps of size h) plus
// five subsequent Step calls (five more steps of size h) covers 10h of
// integrated time, and must agree with an independently-driven reference
// that covers the same 10h via forty RK4 sub-steps of size h/4, to 1e-6.
// The reference below re-implements the same single-step RK4 procedure
// Bootstrap uses internally (rk4SubStep), just invoked forty times at a
// quarter of the timestep instead of five times at the full timestep; this
// is the test that would have caught a k3-to-k4 stage offset regressing
// from h/2 to h.
func TestBootstrapThenStepMatchesFineRK4Reference(t *testing.T) {
	sim, adb, h := circularOrbit()
	require.NoError(t, adb.Bootstrap(sim))
	for i := 0; i < 5; i++ {
		require.NoError(t, adb.Step(sim))
	}

	refSim, _, _ := circularOrbit()
	quarterH := h / 4
	for i := 0; i < 40; i++ {
		require.NoError(t, rk4SubStep(refSim, quarterH))
	}

	for i := range sim.Bodies {
		got, want := sim.Bodies[i], refSim.Bodies[i]
		assert.InDelta(t, want.Pos.X, got.Pos.X, 1e-6)
		assert.InDelta(t, want.Pos.Y, got.Pos.Y, 1e-6)
		assert.InDelta(t, want.Vel.X, got.Vel.X, 1e-6)
		assert.InDelta(t, want.Vel.Y, got.Vel.Y, 1e-6)
	}
}

// rk4SubStep advances sim by one step of size h using the same RK4
// procedure integrator.ADB6.Bootstrap uses internally (k2, k3, and k4 all
// re-sample at the half-step offset, per spec.md section 4.4 step 4 and
// the reference model's setInitialState), independent of the integrator
// package so it can serve as a fine-grained reference trajectory.
func rk4SubStep(sim *simulation.Simulation, h float64) error {
	n := len(sim.Bodies)
	type pair struct{ pos, vel r2.Vec }
	type deriv struct{ vel, acc r2.Vec }

	initial := make([]pair, n)
	for i, b := range sim.Bodies {
		initial[i] = pair{b.Pos, b.Vel}
	}
	k1 := make([]deriv, n)
	k2 := make([]deriv, n)
	k3 := make([]deriv, n)
	k4 := make([]deriv, n)

	if err := sim.Evaluate(); err != nil {
		return err
	}
	for i, b := range sim.Bodies {
		k1[i] = deriv{b.Vel, b.Acc}
		b.Pos = initial[i].pos.Add(b.Vel.Scale(h * 0.5))
		b.Vel = initial[i].vel.Add(b.Acc.Scale(h * 0.5))
	}

	if err := sim.Evaluate(); err != nil {
		return err
	}
	for i, b := range sim.Bodies {
		k2[i] = deriv{b.Vel, b.Acc}
		b.Pos = initial[i].pos.Add(b.Vel.Scale(h * 0.5))
		b.Vel = initial[i].vel.Add(b.Acc.Scale(h * 0.5))
	}

	if err := sim.Evaluate(); err != nil {
		return err
	}
	for i, b := range sim.Bodies {
		k3[i] = deriv{b.Vel, b.Acc}
		b.Pos = initial[i].pos.Add(b.Vel.Scale(h * 0.5))
		b.Vel = initial[i].vel.Add(b.Acc.Scale(h * 0.5))
	}

	if err := sim.Evaluate(); err != nil {
		return err
	}
	for i, b := range sim.Bodies {
		k4[i] = deriv{b.Vel, b.Acc}

		sumPos := k1[i].vel.Add(k2[i].vel.Add(k3[i].vel).Scale(2)).Add(k4[i].vel)
		sumVel := k1[i].acc.Add(k2[i].acc.Add(k3[i].acc).Scale(2)).Add(k4[i].acc)

		b.Pos = initial[i].pos.Add(sumPos.Scale(h / 6))
		b.Vel = initial[i].vel.Add(sumVel.Scale(h / 6))
	}
	return nil
}
