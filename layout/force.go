// Package layout runs the bubble physics: one node per category, repelled
// from its neighbours, pulled gently toward the viewport centre and kept from
// overlapping.
package layout

import "math"

type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one category bubble. FX/FY hold the pinned position while Fixed.
type Node struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Radius   float64 `json:"r"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	Fixed    bool    `json:"fixed,omitempty"`
	FX       float64 `json:"fx,omitempty"`
	FY       float64 `json:"fy,omitempty"`
	Dragging bool    `json:"isDragging"`
}

type Params struct {
	BaseRadius    float64 `yaml:"base_radius"`
	PerItemRadius float64 `yaml:"per_item_radius"`
	Padding       float64 `yaml:"padding"`

	// Charge is the many-body strength; negative repels.
	Charge            float64 `yaml:"charge"`
	CenterStrength    float64 `yaml:"center_strength"`
	CollideStrength   float64 `yaml:"collide_strength"`
	CollideIterations int     `yaml:"collide_iterations"`
	BoundaryStrength  float64 `yaml:"boundary_strength"`
	// VelocityDecay is the fraction of velocity lost every tick.
	VelocityDecay float64 `yaml:"velocity_decay"`

	AlphaMin        float64 `yaml:"alpha_min"`
	AlphaDecay      float64 `yaml:"alpha_decay"`
	ReheatAlpha     float64 `yaml:"reheat_alpha"`
	DragAlphaTarget float64 `yaml:"drag_alpha_target"`
	ClickThreshold  float64 `yaml:"click_threshold"`
}

func DefaultParams() Params {
	return Params{
		BaseRadius:        40,
		PerItemRadius:     12,
		Padding:           20,
		Charge:            -200,
		CenterStrength:    0.1,
		CollideStrength:   0.9,
		CollideIterations: 3,
		BoundaryStrength:  0.5,
		VelocityDecay:     0.85,
		AlphaMin:          0.001,
		AlphaDecay:        1 - math.Pow(0.001, 1.0/300),
		ReheatAlpha:       0.3,
		DragAlphaTarget:   0.3,
		ClickThreshold:    5,
	}
}

// Radius grows monotonically with the item count.
func (p Params) Radius(count int) float64 {
	return p.BaseRadius + float64(count)*p.PerItemRadius
}

func pinned(n *Node) bool {
	return n.Dragging || n.Fixed
}

// Step advances the simulation by one tick at the given alpha and returns
// the new node list. The input slice is not modified. bounds of zero disables
// the viewport boundary force.
func Step(nodes []Node, center, bounds Vec, alpha float64, p Params) []Node {
	out := make([]Node, len(nodes))
	copy(out, nodes)

	applyCharge(out, alpha, p)
	applyCentering(out, center, alpha, p)
	for k := 0; k < p.CollideIterations; k++ {
		applyCollide(out, p)
	}
	if bounds.X > 0 && bounds.Y > 0 {
		applyBoundary(out, bounds, p)
	}

	keep := 1 - p.VelocityDecay
	for i := range out {
		n := &out[i]
		if pinned(n) {
			n.X, n.Y = n.FX, n.FY
			n.VX, n.VY = 0, 0
			continue
		}
		n.VX *= keep
		n.VY *= keep
		n.X += n.VX
		n.Y += n.VY
	}
	return out
}

// jiggle separates coincident nodes deterministically.
func jiggle(i, j int) float64 {
	return float64(i-j) * 1e-6
}

func applyCharge(nodes []Node, alpha float64, p Params) {
	if p.Charge == 0 {
		return
	}
	for i := range nodes {
		if pinned(&nodes[i]) {
			continue
		}
		for j := range nodes {
			if i == j {
				continue
			}
			dx := nodes[j].X - nodes[i].X
			dy := nodes[j].Y - nodes[i].Y
			if dx == 0 && dy == 0 {
				dx = jiggle(j, i)
			}
			l2 := dx*dx + dy*dy
			if l2 < 1 {
				l2 = math.Sqrt(l2)
				if l2 == 0 {
					l2 = 1e-12
				}
			}
			w := p.Charge * alpha / l2
			nodes[i].VX += dx * w
			nodes[i].VY += dy * w
		}
	}
}

// applyCentering is a spring toward center proportional to distance.
func applyCentering(nodes []Node, center Vec, alpha float64, p Params) {
	k := p.CenterStrength * alpha
	for i := range nodes {
		n := &nodes[i]
		if pinned(n) {
			continue
		}
		n.VX += (center.X - n.X) * k
		n.VY += (center.Y - n.Y) * k
	}
}

// applyCollide pushes overlapping pairs apart using predicted positions. A
// pinned node takes none of the correction but still blocks the other.
func applyCollide(nodes []Node, p Params) {
	for i := range nodes {
		a := &nodes[i]
		ra := a.Radius + p.Padding
		xa := a.X + a.VX
		ya := a.Y + a.VY
		for j := i + 1; j < len(nodes); j++ {
			b := &nodes[j]
			rb := b.Radius + p.Padding
			x := xa - (b.X + b.VX)
			y := ya - (b.Y + b.VY)
			r := ra + rb
			l := x*x + y*y
			if l >= r*r {
				continue
			}
			if x == 0 && y == 0 {
				x = jiggle(i, j)
				l = x * x
			}
			l = math.Sqrt(l)
			f := (r - l) / l * p.CollideStrength
			x *= f
			y *= f

			shareA := rb * rb / (ra*ra + rb*rb)
			switch {
			case pinned(a) && pinned(b):
				continue
			case pinned(a):
				shareA = 0
			case pinned(b):
				shareA = 1
			}
			a.VX += x * shareA
			a.VY += y * shareA
			b.VX -= x * (1 - shareA)
			b.VY -= y * (1 - shareA)
		}
	}
}

// applyBoundary nudges nodes whose predicted position leaves the viewport.
func applyBoundary(nodes []Node, bounds Vec, p Params) {
	for i := range nodes {
		n := &nodes[i]
		if pinned(n) {
			continue
		}
		n.VX += boundaryPush(n.X+n.VX, n.Radius, bounds.X) * p.BoundaryStrength
		n.VY += boundaryPush(n.Y+n.VY, n.Radius, bounds.Y) * p.BoundaryStrength
	}
}

func boundaryPush(pos, r, extent float64) float64 {
	lo, hi := r, extent-r
	if lo > hi {
		return extent/2 - pos
	}
	switch {
	case pos < lo:
		return lo - pos
	case pos > hi:
		return hi - pos
	}
	return 0
}
