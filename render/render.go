package render

import (
	"math"
	"slices"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"github.com/tdewolff/osmrender/geo"
	"github.com/tdewolff/osmrender/osm"
	"github.com/tdewolff/osmrender/style"
)

// Viewport is the output area of Width by Height. Either Bounds is set to fit the bounds into the output, or Center (longitude and latitude) and Scale (output units per projected unit) are used.
type Viewport struct {
	Width, Height float64
	Bounds        *osm.Bounds
	Center        orb.Point
	Scale         float64
}

// FitBounds returns a viewport that fits the bounds centered into the output while preserving the aspect ratio.
func FitBounds(width, height float64, bounds osm.Bounds) Viewport {
	return Viewport{Width: width, Height: height, Bounds: &bounds}
}

// CenterScale returns a viewport centered on a longitude and latitude with a fixed scale.
func CenterScale(width, height float64, center orb.Point, scale float64) Viewport {
	return Viewport{Width: width, Height: height, Center: center, Scale: scale}
}

// Matrix returns the transformation from projected coordinates to output coordinates. A nil projection is the identity with X the longitude and Y the latitude.
func (vp Viewport) Matrix(proj geo.Projection) geo.Matrix {
	if proj == nil {
		proj = geo.LatLon{}
	}

	var cx, cy, scale float64
	if vp.Bounds == nil {
		cx, cy = proj.Forward(vp.Center[1], vp.Center[0])
		scale = vp.Scale
	} else if vp.Bounds.IsEmpty() {
		scale = 1.0
	} else {
		b := projectBounds(*vp.Bounds, proj)
		cx, cy = (b.Min[0]+b.Max[0])/2.0, (b.Min[1]+b.Max[1])/2.0
		dx, dy := b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]
		switch {
		case dx != 0.0 && dy != 0.0:
			scale = math.Min(vp.Width/dx, vp.Height/dy)
		case dx != 0.0:
			scale = vp.Width / dx
		case dy != 0.0:
			scale = vp.Height / dy
		default:
			scale = 1.0
		}
	}
	return geo.Translate(-cx, -cy).Scale(scale, -scale).Translate(vp.Width/2.0, vp.Height/2.0)
}

func projectBounds(b osm.Bounds, proj geo.Projection) orb.Bound {
	corners := make([]orb.Point, 0, 4)
	for _, lat := range []float64{b.MinLat, b.MaxLat} {
		for _, lon := range []float64{b.MinLon, b.MaxLon} {
			x, y := proj.Forward(lat, lon)
			corners = append(corners, orb.Point{x, y})
		}
	}
	bound, _ := geo.BoundingBox(corners)
	return bound
}

// Option configures Render.
type Option func(*renderer)

// WithProjection projects geographic coordinates before transforming them to output space.
func WithProjection(proj geo.Projection) Option {
	return func(r *renderer) {
		if proj != nil {
			r.proj = proj
		}
	}
}

// WithSimplify simplifies lines and rings in output space with the given tolerance. Rings that would collapse are kept as is.
func WithSimplify(tolerance float64) Option {
	return func(r *renderer) {
		r.tolerance = tolerance
	}
}

// WithCulling drops features that lie completely outside the output area.
func WithCulling() Option {
	return func(r *renderer) {
		r.cull = true
	}
}

type renderer struct {
	proj      geo.Projection
	m         geo.Matrix
	tolerance float64
	cull      bool
}

// Render converts styled features into output space primitives in the order of the features. Points become circles, line strings become lines, and polygons become polygons with holes. Features with a label get an additional text primitive at the mean of their vertices.
func Render(features []style.Feature, vp Viewport, opts ...Option) []Element {
	r := renderer{proj: geo.LatLon{}}
	for _, opt := range opts {
		opt(&r)
	}
	r.m = vp.Matrix(r.proj)

	groups := make([][]Element, 0, len(features))
	for _, f := range features {
		if elems := r.feature(f); 0 < len(elems) {
			groups = append(groups, elems)
		}
	}
	if r.cull {
		groups = cull(groups, orb.Bound{Max: orb.Point{vp.Width, vp.Height}})
	}

	n := 0
	for _, elems := range groups {
		n += len(elems)
	}
	elements := make([]Element, 0, n)
	for _, elems := range groups {
		elements = append(elements, elems...)
	}
	return elements
}

func (r *renderer) transform(points []orb.Point) []orb.Point {
	out := make([]orb.Point, len(points))
	for i, p := range points {
		x, y := r.proj.Forward(p[1], p[0])
		out[i] = r.m.Apply(orb.Point{x, y})
	}
	return out
}

func (r *renderer) simplify(points []orb.Point, minPoints int) []orb.Point {
	if r.tolerance <= 0.0 {
		return points
	} else if simple := geo.Simplify(points, r.tolerance); minPoints <= len(simple) {
		return simple
	}
	return points
}

func (r *renderer) feature(f style.Feature) []Element {
	var elems []Element
	var vertices []orb.Point
	switch f.Geometry.Type {
	case osm.PointGeometry:
		vertices = r.transform([]orb.Point{f.Geometry.Point})
		elems = append(elems, Circle{
			Center: vertices[0],
			Radius: f.Style.Radius(),
			Style:  f.Style,
		})
	case osm.LineStringGeometry:
		vertices = r.transform(f.Geometry.Line)
		elems = append(elems, Line{
			Points: r.simplify(vertices, 2),
			Style:  f.Style,
		})
	case osm.PolygonGeometry:
		if len(f.Geometry.Polygon) == 0 {
			return nil
		}
		vertices = r.transform(f.Geometry.Polygon[0])
		polygon := Polygon{
			Exterior: r.simplify(vertices, 4),
			Style:    f.Style,
		}
		for _, hole := range f.Geometry.Polygon[1:] {
			polygon.Holes = append(polygon.Holes, r.simplify(r.transform(hole), 4))
		}
		elems = append(elems, polygon)
	default:
		return nil
	}

	if f.HasLabel {
		if pos, ok := geo.Centroid(vertices); ok {
			elems = append(elems, Text{
				Position: pos,
				Text:     f.Label,
				Style:    f.Style,
			})
		}
	}
	return elems
}

// spatialGroup is the bound of the elements of a feature, stored in the R-tree.
type spatialGroup struct {
	index int
	bound orb.Bound
}

func (g *spatialGroup) Bounds() rtreego.Rect {
	// points and axis-aligned lines have no area
	const epsilon = 1e-9
	point := rtreego.Point{g.bound.Min[0], g.bound.Min[1]}
	lengths := []float64{
		math.Max(g.bound.Max[0]-g.bound.Min[0], epsilon),
		math.Max(g.bound.Max[1]-g.bound.Min[1], epsilon),
	}
	rect, _ := rtreego.NewRect(point, lengths)
	return rect
}

func cull(groups [][]Element, view orb.Bound) [][]Element {
	if len(groups) == 0 {
		return groups
	}
	rtree := rtreego.NewTree(2, 25, 50)
	for i, elems := range groups {
		bound := elems[0].Bound()
		for _, elem := range elems[1:] {
			bound = bound.Union(elem.Bound())
		}
		rtree.Insert(&spatialGroup{index: i, bound: bound})
	}

	viewRect, err := rtreego.NewRect(rtreego.Point{view.Min[0], view.Min[1]}, []float64{
		math.Max(view.Max[0]-view.Min[0], 1e-9),
		math.Max(view.Max[1]-view.Min[1], 1e-9),
	})
	if err != nil {
		return groups
	}
	hits := rtree.SearchIntersect(viewRect)
	indices := make([]int, 0, len(hits))
	for _, hit := range hits {
		indices = append(indices, hit.(*spatialGroup).index)
	}
	slices.Sort(indices)

	visible := make([][]Element, 0, len(indices))
	for _, i := range indices {
		visible = append(visible, groups[i])
	}
	return visible
}
