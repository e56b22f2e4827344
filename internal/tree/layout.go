package tree

import (
	"github.com/treegpt/treegpt/internal/model"
)

// Geometry holds the spacing constants for the top-down tree diagram.
type Geometry struct {
	// LevelSpacing is the vertical distance between depth levels.
	LevelSpacing float64
	// TopOffset is the vertical position of the root level.
	TopOffset float64
	// SiblingSpacing is the horizontal width of one leaf slot.
	SiblingSpacing float64
	// LeftOffset is the horizontal position of leaf slot zero.
	LeftOffset float64
}

// DefaultGeometry matches the reference visualization.
var DefaultGeometry = Geometry{
	LevelSpacing:   150,
	TopOffset:      150,
	SiblingSpacing: 250,
	LeftOffset:     100,
}

// Layout assigns a coordinate to every node reachable from the root.
//
// The layout is a pure function of tree shape: the vertical coordinate is
// the node's depth, and the horizontal coordinate divides the row into
// leaf slots so a subtree's width is proportional to its leaf count. A
// leaf sits on its own slot; an internal node sits on the midpoint of the
// slot span covered by its subtree. Centering and pan/zoom are separate
// view transforms (see CenterOffset and Viewport), never baked in here.
func (g Geometry) Layout(t *Tree) map[string]model.Point {
	positions := make(map[string]model.Point, len(t.Nodes))
	if t.RootID == "" || t.Nodes[t.RootID] == nil {
		return positions
	}

	leaves := make(map[string]int, len(t.Nodes))
	g.place(t, t.RootID, 0, 0, leaves, positions)
	return positions
}

// Layout lays out a tree with the default geometry.
func Layout(t *Tree) map[string]model.Point {
	return DefaultGeometry.Layout(t)
}

func (g Geometry) place(t *Tree, id string, level, startSlot int, leaves map[string]int, positions map[string]model.Point) {
	node := t.Nodes[id]
	if node == nil {
		return
	}

	count := leafCount(t, id, leaves)
	firstSlot := float64(startSlot)
	lastSlot := float64(startSlot + count - 1)

	positions[id] = model.Point{
		X: (firstSlot+lastSlot)/2*g.SiblingSpacing + g.LeftOffset,
		Y: float64(level)*g.LevelSpacing + g.TopOffset,
	}

	slot := startSlot
	for _, childID := range node.Children {
		g.place(t, childID, level+1, slot, leaves, positions)
		slot += leafCount(t, childID, leaves)
	}
}

// leafCount returns the number of leaf slots in the subtree rooted at id.
// A childless node occupies a single slot.
func leafCount(t *Tree, id string, memo map[string]int) int {
	if n, ok := memo[id]; ok {
		return n
	}
	node := t.Nodes[id]
	if node == nil || len(node.Children) == 0 {
		memo[id] = 1
		return 1
	}
	sum := 0
	for _, childID := range node.Children {
		sum += leafCount(t, childID, memo)
	}
	memo[id] = sum
	return sum
}

// CenterOffset returns the horizontal translation that centers the root
// in a viewport of the given width. Applied by the view on top of the
// static layout.
func CenterOffset(positions map[string]model.Point, rootID string, viewWidth float64) float64 {
	root, ok := positions[rootID]
	if !ok {
		return 0
	}
	return viewWidth/2 - root.X
}

// Translate shifts every position by (dx, dy), returning a new map.
func Translate(positions map[string]model.Point, dx, dy float64) map[string]model.Point {
	out := make(map[string]model.Point, len(positions))
	for id, p := range positions {
		out[id] = model.Point{X: p.X + dx, Y: p.Y + dy}
	}
	return out
}
