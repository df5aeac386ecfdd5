package osm

import (
	"slices"

	"github.com/paulmach/orb"

	"github.com/tdewolff/osmrender/geo"
)

type GeometryType int

const (
	PointGeometry GeometryType = iota + 1
	LineStringGeometry
	PolygonGeometry
)

func (t GeometryType) String() string {
	switch t {
	case PointGeometry:
		return "Point"
	case LineStringGeometry:
		return "LineString"
	case PolygonGeometry:
		return "Polygon"
	}
	return "Unknown"
}

// Geometry is a point, line string, or polygon in geographic coordinates, with X the longitude and Y the latitude. Only the field matching Type is set. The first ring of a polygon is the exterior, the others are holes.
type Geometry struct {
	Type    GeometryType
	Point   orb.Point
	Line    orb.LineString
	Polygon orb.Polygon
}

// Vertices returns the point itself, the vertices of the line string, or the vertices of the polygon's exterior.
func (g Geometry) Vertices() []orb.Point {
	switch g.Type {
	case PointGeometry:
		return []orb.Point{g.Point}
	case LineStringGeometry:
		return g.Line
	case PolygonGeometry:
		if 0 < len(g.Polygon) {
			return g.Polygon[0]
		}
	}
	return nil
}

func (g Geometry) Bound() orb.Bound {
	switch g.Type {
	case PointGeometry:
		return g.Point.Bound()
	case LineStringGeometry:
		return g.Line.Bound()
	case PolygonGeometry:
		return g.Polygon.Bound()
	}
	return orb.Bound{}
}

// NodeGeometry returns the point geometry of a node.
func NodeGeometry(node Node) Geometry {
	return Geometry{Type: PointGeometry, Point: node.Point()}
}

// WayGeometry resolves the way's node references. References to missing nodes are skipped. A closed way with more than two resolved nodes is a polygon, otherwise it is a line string. Ways with fewer than two resolved nodes have no geometry.
func (m *MapData) WayGeometry(way Way) (Geometry, bool) {
	coords := m.wayCoords(way)
	if len(coords) < 2 {
		return Geometry{}, false
	} else if way.Closed && 2 < len(coords) {
		if coords[0] != coords[len(coords)-1] {
			// end node is missing
			coords = append(coords, coords[0])
		}
		return Geometry{Type: PolygonGeometry, Polygon: orb.Polygon{orb.Ring(coords)}}, true
	}
	return Geometry{Type: LineStringGeometry, Line: orb.LineString(coords)}, true
}

func (m *MapData) wayCoords(way Way) []orb.Point {
	coords := make([]orb.Point, 0, len(way.Refs))
	for _, ref := range way.Refs {
		if node, ok := m.Nodes[ref]; ok {
			coords = append(coords, node.Point())
		}
	}
	return coords
}

type relationWay struct {
	Coords      []orb.Point
	First, Last int64 // IDs of first and last resolved node
}

// relationWay resolves the way's nodes. The end IDs are those of the first and last resolved node, so that ways join where their coordinates meet.
func (m *MapData) relationWay(way Way) (relationWay, bool) {
	rw := relationWay{Coords: make([]orb.Point, 0, len(way.Refs))}
	for _, ref := range way.Refs {
		if node, ok := m.Nodes[ref]; ok {
			if len(rw.Coords) == 0 {
				rw.First = ref
			}
			rw.Last = ref
			rw.Coords = append(rw.Coords, node.Point())
		}
	}
	return rw, 2 <= len(rw.Coords)
}

// RelationGeometries assembles the polygons of a multipolygon or boundary relation. Ways of the outer and inner roles are joined at shared end nodes into rings, and each inner ring becomes a hole of the outer ring that contains it. Exteriors are counter clockwise and holes clockwise. Rings that cannot be closed are dropped. Other relation types have no geometry.
func (m *MapData) RelationGeometries(relation Relation) []Geometry {
	if typ := relation.Tags.Find("type"); typ != "multipolygon" && typ != "boundary" {
		return nil
	}

	var outerWays, innerWays []relationWay
	for _, member := range relation.Members {
		if member.Type != WayType {
			continue
		}
		way, ok := m.Ways[member.ID]
		if !ok || len(way.Refs) < 2 {
			continue
		}
		rw, ok := m.relationWay(way)
		if !ok {
			continue
		}
		if member.Role == "inner" {
			innerWays = append(innerWays, rw)
		} else {
			outerWays = append(outerWays, rw)
		}
	}

	outers := connectRelationWays(outerWays)
	inners := connectRelationWays(innerWays)
	polygons := make([]orb.Polygon, len(outers))
	for i, outer := range outers {
		if !isCCW(outer) {
			outer = reverseOrientation(outer)
		}
		polygons[i] = orb.Polygon{orb.Ring(outer)}
	}
	for _, inner := range inners {
		if isCCW(inner) {
			inner = reverseOrientation(inner)
		}
		for i, outer := range outers {
			if geo.PointInPolygon(inner[0], outer) {
				polygons[i] = append(polygons[i], orb.Ring(inner))
				break
			}
		}
	}

	geoms := make([]Geometry, 0, len(polygons))
	for _, polygon := range polygons {
		geoms = append(geoms, Geometry{Type: PolygonGeometry, Polygon: polygon})
	}
	return geoms
}

func isCCW(coords []orb.Point) bool {
	// Shoelace formula
	a := 0.0
	for i := 0; i < len(coords); i++ {
		p, q := coords[i], coords[(i+1)%len(coords)]
		a += p[0]*q[1] - p[1]*q[0]
	}
	return 0.0 <= a
}

func reverseOrientation(coords []orb.Point) []orb.Point {
	coords = slices.Clone(coords)
	slices.Reverse(coords)
	return coords
}

// appendCoords joins two chains that share the junction coordinate.
func appendCoords(a, b []orb.Point) []orb.Point {
	if 0 < len(a) && 0 < len(b) && a[len(a)-1] == b[0] {
		b = b[1:]
	}
	return append(a, b...)
}

// connectRelationWays finds and connects all ways that share end nodes and returns the closed rings.
func connectRelationWays(ways []relationWay) [][]orb.Point {
	var rings [][]orb.Point
	handled := make([]bool, len(ways))
	for j, way := range ways {
		if handled[j] {
			continue
		}
		handled[j] = true
		if way.First == way.Last {
			// way closes itself, add directly
			if 3 < len(way.Coords) {
				rings = append(rings, way.Coords)
			}
			continue
		}

		first, last := way.First, way.Last
		coords := slices.Clone(way.Coords)
		for first != last {
			connected := false
			for i := j + 1; i < len(ways); i++ {
				if handled[i] || ways[i].First == ways[i].Last {
					continue
				}
				other := ways[i]
				if other.First == last {
					coords = appendCoords(coords, other.Coords)
					last = other.Last
				} else if other.Last == last {
					coords = appendCoords(coords, reverseOrientation(other.Coords))
					last = other.First
				} else if other.Last == first {
					coords = appendCoords(slices.Clone(other.Coords), coords)
					first = other.First
				} else if other.First == first {
					coords = appendCoords(reverseOrientation(other.Coords), coords)
					first = other.Last
				} else {
					continue
				}
				handled[i] = true
				connected = true
				break
			}
			if !connected {
				break
			}
		}
		if first == last && 3 < len(coords) {
			rings = append(rings, coords)
		}
	}
	return rings
}
