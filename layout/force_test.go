package layout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepDoesNotModifyInput(t *testing.T) {
	p := DefaultParams()
	in := []Node{
		{Category: "a", Count: 3, Radius: p.Radius(3), X: 100, Y: 100},
		{Category: "b", Count: 1, Radius: p.Radius(1), X: 110, Y: 100},
	}
	orig := append([]Node(nil), in...)

	out1 := Step(in, Vec{X: 200, Y: 200}, Vec{X: 400, Y: 400}, 0.5, p)
	out2 := Step(in, Vec{X: 200, Y: 200}, Vec{X: 400, Y: 400}, 0.5, p)

	assert.Equal(t, orig, in)
	assert.Equal(t, out1, out2, "step is deterministic")
	assert.NotEqual(t, in[0].X, out1[0].X)
}

func TestChargeRepels(t *testing.T) {
	p := DefaultParams()
	p.CenterStrength = 0
	p.CollideIterations = 0
	nodes := []Node{
		{Category: "a", Radius: 10, X: 0, Y: 0},
		{Category: "b", Radius: 10, X: 30, Y: 0},
	}
	out := Step(nodes, Vec{}, Vec{}, 1, p)
	assert.Less(t, out[0].X, 0.0)
	assert.Greater(t, out[1].X, 30.0)
	assert.InDelta(t, 0, out[0].Y, 1e-9)
}

func TestCoincidentNodesSeparate(t *testing.T) {
	p := DefaultParams()
	nodes := []Node{
		{Category: "a", Radius: 40, X: 50, Y: 50},
		{Category: "b", Radius: 40, X: 50, Y: 50},
	}
	out := Step(nodes, Vec{X: 50, Y: 50}, Vec{}, 1, p)
	for _, n := range out {
		assert.False(t, math.IsNaN(n.X) || math.IsNaN(n.Y))
	}
	assert.NotEqual(t, out[0].X, out[1].X)
}

func TestPinnedNodeHoldsPosition(t *testing.T) {
	p := DefaultParams()
	nodes := []Node{
		{Category: "held", Radius: 50, X: 10, Y: 10, Fixed: true, FX: 100, FY: 120},
		{Category: "free", Radius: 50, X: 105, Y: 120},
	}
	for i := 0; i < 50; i++ {
		nodes = Step(nodes, Vec{X: 200, Y: 200}, Vec{}, 0.3, p)
	}
	assert.Equal(t, 100.0, nodes[0].X)
	assert.Equal(t, 120.0, nodes[0].Y)
	assert.Zero(t, nodes[0].VX)
	gap := math.Hypot(nodes[1].X-100, nodes[1].Y-120)
	assert.Greater(t, gap, 100.0, "free node was pushed off the pinned one")
}

func TestBoundaryPullsNodesInside(t *testing.T) {
	p := DefaultParams()
	p.Charge = 0
	p.CenterStrength = 0
	nodes := []Node{{Category: "a", Radius: 50, X: -200, Y: 900}}
	for i := 0; i < 100; i++ {
		nodes = Step(nodes, Vec{}, Vec{X: 800, Y: 600}, 0, p)
	}
	require.Len(t, nodes, 1)
	assert.InDelta(t, 50, nodes[0].X, 1)
	assert.InDelta(t, 550, nodes[0].Y, 1)
}

func TestRadiusGrowsWithCount(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, p.BaseRadius, p.Radius(0))
	assert.Less(t, p.Radius(1), p.Radius(2))
}
