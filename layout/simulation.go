package layout

import (
	"errors"
	"math"
	"math/rand"

	"github.com/al-ameen36/vcon-bubble-maps/models"
)

var ErrUnknownNode = errors.New("unknown bubble")

const initialSpacing = 10

// Simulation is the node table plus the cooling schedule. Positions survive
// count changes; only entering nodes are seeded and only leaving nodes are
// dropped. Not safe for concurrent use.
type Simulation struct {
	params Params
	nodes  []Node
	index  map[string]int

	alpha       float64
	alphaTarget float64
	width       float64
	height      float64

	rng  *rand.Rand
	drag *dragState
}

type dragState struct {
	category string
	start    Vec
}

func NewSimulation(width, height float64, p Params, seed int64) *Simulation {
	return &Simulation{
		params: p,
		index:  make(map[string]int),
		width:  width,
		height: height,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (s *Simulation) Center() Vec {
	return Vec{X: s.width / 2, Y: s.height / 2}
}

func (s *Simulation) Alpha() float64 {
	return s.alpha
}

// Settled reports whether the simulation has cooled and nothing is held.
func (s *Simulation) Settled() bool {
	return s.drag == nil && s.alpha < s.params.AlphaMin
}

func (s *Simulation) reheat() {
	if s.alpha < s.params.ReheatAlpha {
		s.alpha = s.params.ReheatAlpha
	}
}

// Nodes returns a copy of the node table in insertion order.
func (s *Simulation) Nodes() []Node {
	out := make([]Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

func (s *Simulation) Node(category string) (Node, bool) {
	i, ok := s.index[category]
	if !ok {
		return Node{}, false
	}
	return s.nodes[i], true
}

// Sync reconciles the node table with per-category counts of the
// bubble-visible set and reports which categories entered and left.
func (s *Simulation) Sync(counts []models.CategorySummary) (added, removed []string) {
	want := make(map[string]int, len(counts))
	for _, c := range counts {
		want[c.Category] = c.Count
	}

	resized := false
	kept := s.nodes[:0]
	for _, n := range s.nodes {
		count, ok := want[n.Category]
		if !ok {
			removed = append(removed, n.Category)
			if s.drag != nil && s.drag.category == n.Category {
				s.drag = nil
				s.alphaTarget = 0
			}
			continue
		}
		if n.Count != count {
			n.Count = count
			n.Radius = s.params.Radius(count)
			resized = true
		}
		kept = append(kept, n)
	}
	s.nodes = kept

	present := make(map[string]bool, len(s.nodes))
	for _, n := range s.nodes {
		present[n.Category] = true
	}
	for _, c := range counts {
		if present[c.Category] {
			continue
		}
		present[c.Category] = true
		s.nodes = append(s.nodes, s.seed(c.Category, c.Count, len(added)))
		added = append(added, c.Category)
	}

	s.reindex()
	if len(added) > 0 || len(removed) > 0 || resized {
		s.reheat()
	}
	return added, removed
}

// seed places a new node. On an empty table nodes start on a phyllotaxis
// spiral around the centre; otherwise they enter just outside the current
// cluster so existing nodes are barely disturbed.
func (s *Simulation) seed(category string, count, nth int) Node {
	c := s.Center()
	n := Node{Category: category, Count: count, Radius: s.params.Radius(count)}

	existing := len(s.nodes) - nth
	if existing <= 0 {
		r := initialSpacing * math.Sqrt(0.5+float64(nth))
		angle := float64(nth) * math.Pi * (3 - math.Sqrt(5))
		n.X = c.X + r*math.Cos(angle)
		n.Y = c.Y + r*math.Sin(angle)
		return n
	}

	extent := 0.0
	for _, o := range s.nodes {
		d := math.Hypot(o.X-c.X, o.Y-c.Y) + o.Radius + s.params.Padding
		if d > extent {
			extent = d
		}
	}
	dist := extent + n.Radius + s.params.Padding
	angle := s.rng.Float64() * 2 * math.Pi
	n.X = c.X + dist*math.Cos(angle)
	n.Y = c.Y + dist*math.Sin(angle)
	return n
}

func (s *Simulation) reindex() {
	for k := range s.index {
		delete(s.index, k)
	}
	for i, n := range s.nodes {
		s.index[n.Category] = i
	}
}

// Resize moves the centring target. Node positions are left alone.
func (s *Simulation) Resize(width, height float64) {
	s.width, s.height = width, height
	s.reheat()
}

// Tick advances one step unless the simulation has settled. It reports
// whether a step ran.
func (s *Simulation) Tick() bool {
	if s.Settled() {
		return false
	}
	s.alpha += (s.alphaTarget - s.alpha) * s.params.AlphaDecay
	s.nodes = Step(s.nodes, s.Center(), Vec{X: s.width, Y: s.height}, s.alpha, s.params)
	return true
}

// DragStart pins a node to the pointer and heats the simulation so the
// others react.
func (s *Simulation) DragStart(category string, x, y float64) error {
	i, ok := s.index[category]
	if !ok {
		return ErrUnknownNode
	}
	if s.drag != nil && s.drag.category != category {
		s.release(s.drag.category)
	}
	n := &s.nodes[i]
	n.Dragging, n.Fixed = true, true
	n.FX, n.FY = x, y
	n.X, n.Y = x, y
	n.VX, n.VY = 0, 0
	s.drag = &dragState{category: category, start: Vec{X: x, Y: y}}
	s.alphaTarget = s.params.DragAlphaTarget
	return nil
}

func (s *Simulation) DragMove(category string, x, y float64) error {
	i, ok := s.index[category]
	if !ok {
		return ErrUnknownNode
	}
	n := &s.nodes[i]
	if !n.Dragging {
		return nil
	}
	n.FX, n.FY = x, y
	n.X, n.Y = x, y
	return nil
}

// DragEnd releases the node. clicked is true when the pointer travelled less
// than the click threshold, i.e. the gesture was a click rather than a drag.
func (s *Simulation) DragEnd(category string, x, y float64) (clicked bool, err error) {
	if _, ok := s.index[category]; !ok {
		return false, ErrUnknownNode
	}
	if s.drag == nil || s.drag.category != category {
		return false, nil
	}
	moved := math.Hypot(x-s.drag.start.X, y-s.drag.start.Y)
	s.release(category)
	s.drag = nil
	s.alphaTarget = 0
	return moved < s.params.ClickThreshold, nil
}

func (s *Simulation) release(category string) {
	if i, ok := s.index[category]; ok {
		n := &s.nodes[i]
		n.Dragging, n.Fixed = false, false
		n.FX, n.FY = 0, 0
	}
}
