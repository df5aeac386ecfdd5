package render

import (
	"github.com/paulmach/orb"

	"github.com/tdewolff/osmrender/style"
)

// Element is a drawing primitive in output space, where Y points down. It is implemented by Line, Polygon, Circle, and Text only.
type Element interface {
	Bound() orb.Bound
	element()
}

// Line is an open polyline.
type Line struct {
	Points []orb.Point
	Style  style.RenderStyle
}

func (l Line) Bound() orb.Bound {
	return orb.LineString(l.Points).Bound()
}

func (Line) element() {}

// Polygon is an exterior ring with optional holes. Rings are closed, the fill rule is up to the encoder.
type Polygon struct {
	Exterior []orb.Point
	Holes    [][]orb.Point
	Style    style.RenderStyle
}

func (p Polygon) Bound() orb.Bound {
	return orb.Ring(p.Exterior).Bound()
}

func (Polygon) element() {}

// Circle is a point feature.
type Circle struct {
	Center orb.Point
	Radius float64
	Style  style.RenderStyle
}

func (c Circle) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{c.Center[0] - c.Radius, c.Center[1] - c.Radius},
		Max: orb.Point{c.Center[0] + c.Radius, c.Center[1] + c.Radius},
	}
}

func (Circle) element() {}

// Text is a label anchored at Position.
type Text struct {
	Position orb.Point
	Text     string
	Style    style.RenderStyle
}

func (t Text) Bound() orb.Bound {
	return t.Position.Bound()
}

func (Text) element() {}
