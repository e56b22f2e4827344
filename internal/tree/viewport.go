package tree

import (
	"github.com/treegpt/treegpt/internal/model"
)

// Zoom bounds for the interactive view.
const (
	MinZoom = 0.5
	MaxZoom = 2.0
)

// Viewport is the stateless pan/zoom transform applied on top of the
// static layout: translate(pan) · scale(zoom).
type Viewport struct {
	Pan  model.Point `json:"pan"`
	Zoom float64     `json:"zoom"`
}

// NewViewport returns the identity view.
func NewViewport() Viewport {
	return Viewport{Zoom: 1}
}

// Apply maps a layout coordinate into view coordinates.
func (v Viewport) Apply(p model.Point) model.Point {
	return model.Point{
		X: p.X*v.Zoom + v.Pan.X,
		Y: p.Y*v.Zoom + v.Pan.Y,
	}
}

// PanBy shifts the view by (dx, dy).
func (v Viewport) PanBy(dx, dy float64) Viewport {
	v.Pan.X += dx
	v.Pan.Y += dy
	return v
}

// ZoomAt changes the zoom level, clamped to [MinZoom, MaxZoom], keeping
// the layout point under the cursor fixed: the pan is recomputed as
// cursor - (cursor - oldPan) * (newZoom / oldZoom).
func (v Viewport) ZoomAt(cursor model.Point, zoom float64) Viewport {
	zoom = clampZoom(zoom)
	ratio := zoom / v.Zoom
	v.Pan = model.Point{
		X: cursor.X - (cursor.X-v.Pan.X)*ratio,
		Y: cursor.Y - (cursor.Y-v.Pan.Y)*ratio,
	}
	v.Zoom = zoom
	return v
}

func clampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}
