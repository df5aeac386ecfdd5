package osm

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/tdewolff/test"
)

func squareData() *MapData {
	data := NewMapData()
	for id, p := range map[int64]orb.Point{
		1: {0.0, 0.0}, 2: {10.0, 0.0}, 3: {10.0, 10.0}, 4: {0.0, 10.0},
		5: {2.0, 2.0}, 6: {4.0, 2.0}, 7: {4.0, 4.0}, 8: {2.0, 4.0},
	} {
		data.AddNode(Node{ID: id, Lon: p[0], Lat: p[1]})
	}
	data.AddWay(NewWay(100, []int64{1, 2, 3}, nil))
	data.AddWay(NewWay(101, []int64{3, 4, 1}, nil))
	data.AddWay(NewWay(102, []int64{5, 6, 7, 8, 5}, nil))
	return data
}

func TestWayGeometry(t *testing.T) {
	data := squareData()

	geom, ok := data.WayGeometry(NewWay(1, []int64{1, 2, 3, 4, 1}, nil))
	test.That(t, ok)
	test.T(t, geom.Type, PolygonGeometry)
	test.T(t, geom.Polygon, orb.Polygon{{{0.0, 0.0}, {10.0, 0.0}, {10.0, 10.0}, {0.0, 10.0}, {0.0, 0.0}}})

	geom, ok = data.WayGeometry(NewWay(2, []int64{1, 2, 3}, nil))
	test.That(t, ok)
	test.T(t, geom.Type, LineStringGeometry)
	test.T(t, geom.Line, orb.LineString{{0.0, 0.0}, {10.0, 0.0}, {10.0, 10.0}})

	// missing nodes are skipped
	geom, ok = data.WayGeometry(NewWay(3, []int64{1, 99, 2}, nil))
	test.That(t, ok)
	test.T(t, geom.Line, orb.LineString{{0.0, 0.0}, {10.0, 0.0}})

	_, ok = data.WayGeometry(NewWay(4, []int64{1, 99}, nil))
	test.That(t, !ok, "single resolved node has no geometry")
	_, ok = data.WayGeometry(NewWay(5, nil, nil))
	test.That(t, !ok, "empty way has no geometry")

	// closed but only two resolved nodes
	geom, ok = data.WayGeometry(NewWay(6, []int64{1, 2, 98, 1}, nil))
	test.That(t, ok)
	test.T(t, geom.Type, PolygonGeometry)
	geom, ok = data.WayGeometry(NewWay(7, []int64{1, 98, 97, 1}, nil))
	test.That(t, ok)
	test.T(t, geom.Type, LineStringGeometry)

	// closed by a missing node, the ring is closed on the first resolved node
	geom, ok = data.WayGeometry(NewWay(8, []int64{99, 1, 2, 3, 99}, nil))
	test.That(t, ok)
	test.T(t, geom.Polygon, orb.Polygon{{{0.0, 0.0}, {10.0, 0.0}, {10.0, 10.0}, {0.0, 0.0}}})
}

func TestGeometryVertices(t *testing.T) {
	test.T(t, NodeGeometry(Node{Lat: 1.0, Lon: 2.0}).Vertices(), []orb.Point{{2.0, 1.0}})
	test.T(t, Geometry{Type: LineStringGeometry, Line: orb.LineString{{0, 0}, {1, 1}}}.Vertices(), []orb.Point{{0, 0}, {1, 1}})
	test.T(t, len(Geometry{Type: PolygonGeometry}.Vertices()), 0)
	test.T(t, Geometry{Type: LineStringGeometry, Line: orb.LineString{{0, 3}, {1, 1}}}.Bound(), orb.Bound{Min: orb.Point{0, 1}, Max: orb.Point{1, 3}})
}

func TestRelationGeometries(t *testing.T) {
	data := squareData()

	relation := Relation{
		ID: 200,
		Members: []Member{
			{Type: WayType, ID: 100, Role: "outer"},
			{Type: WayType, ID: 102, Role: "inner"},
			{Type: WayType, ID: 101, Role: "outer"},
			{Type: NodeType, ID: 1, Role: "label"},
			{Type: WayType, ID: 999, Role: "outer"},
		},
		Tags: Tags{{"type", "multipolygon"}, {"landuse", "grass"}},
	}
	geoms := data.RelationGeometries(relation)
	test.T(t, len(geoms), 1)
	test.T(t, geoms[0].Type, PolygonGeometry)
	test.T(t, geoms[0].Polygon, orb.Polygon{
		{{0.0, 0.0}, {10.0, 0.0}, {10.0, 10.0}, {0.0, 10.0}, {0.0, 0.0}},
		{{2.0, 2.0}, {2.0, 4.0}, {4.0, 4.0}, {4.0, 2.0}, {2.0, 2.0}},
	})
	test.That(t, isCCW(geoms[0].Polygon[0]), "exterior is counter clockwise")
	test.That(t, !isCCW(geoms[0].Polygon[1]), "hole is clockwise")

	// reversed member way
	data.AddWay(NewWay(101, []int64{1, 4, 3}, nil))
	geoms = data.RelationGeometries(relation)
	test.T(t, len(geoms), 1)
	test.T(t, len(geoms[0].Polygon[0]), 5)

	// unclosed ring is dropped
	relation.Members = []Member{{Type: WayType, ID: 100, Role: "outer"}}
	test.T(t, len(data.RelationGeometries(relation)), 0)

	// ways join at their outermost resolved nodes
	data.AddWay(NewWay(103, []int64{98, 1, 2, 3}, nil))
	data.AddWay(NewWay(104, []int64{3, 4, 1, 97}, nil))
	relation.Members = []Member{{Type: WayType, ID: 103, Role: "outer"}, {Type: WayType, ID: 104, Role: "outer"}}
	geoms = data.RelationGeometries(relation)
	test.T(t, len(geoms), 1)
	test.T(t, geoms[0].Polygon, orb.Polygon{{{0.0, 0.0}, {10.0, 0.0}, {10.0, 10.0}, {0.0, 10.0}, {0.0, 0.0}}})

	// a way closed by a missing node is not a closed ring
	data.AddWay(NewWay(105, []int64{99, 1, 2, 3, 4, 99}, nil))
	relation.Members = []Member{{Type: WayType, ID: 105, Role: "outer"}}
	test.T(t, len(data.RelationGeometries(relation)), 0)

	relation.Tags = Tags{{"type", "route"}}
	test.That(t, data.RelationGeometries(relation) == nil, "routes have no geometry")
}

func TestConnectRelationWays(t *testing.T) {
	p := func(x float64) orb.Point { return orb.Point{x, x * x} }
	ways := []relationWay{
		{Coords: []orb.Point{p(1), p(2)}, First: 1, Last: 2},
		{Coords: []orb.Point{p(3), p(4), p(1)}, First: 3, Last: 1},
		{Coords: []orb.Point{p(3), p(2)}, First: 3, Last: 2},
	}
	rings := connectRelationWays(ways)
	test.T(t, len(rings), 1)
	test.T(t, rings[0], []orb.Point{p(3), p(4), p(1), p(2), p(3)})
}

func TestSuperRelations(t *testing.T) {
	data := NewMapData()
	data.AddRelation(Relation{ID: 1, Members: []Member{{Type: WayType, ID: 5}}})
	data.AddRelation(Relation{ID: 3, Members: []Member{{Type: RelationType, ID: 1}}})
	data.AddRelation(Relation{ID: 2, Members: []Member{{Type: NodeType, ID: 5}, {Type: RelationType, ID: 3}}})

	relations := data.SuperRelations()
	test.T(t, len(relations), 2)
	test.T(t, relations[0].ID, int64(2))
	test.T(t, relations[1].ID, int64(3))
}

func TestBounds(t *testing.T) {
	b := EmptyBounds()
	test.That(t, b.IsEmpty())
	b.Extend(53.0, 6.0)
	test.That(t, !b.IsEmpty())
	test.T(t, b.Width(), 0.0)
	b.Extend(54.0, 7.0)
	b.Extend(53.5, 6.5)
	lat, lon := b.Center()
	test.Float(t, lat, 53.5)
	test.Float(t, lon, 6.5)
	test.That(t, b.Contains(54.0, 6.0), "contains corner")
	test.That(t, !b.Contains(54.1, 6.0))
	test.T(t, b.Expand(1.0), Bounds{MinLat: 52.0, MaxLat: 55.0, MinLon: 5.0, MaxLon: 8.0})
	test.T(t, b.Bound(), orb.Bound{Min: orb.Point{6.0, 53.0}, Max: orb.Point{7.0, 54.0}})
}

func TestTags(t *testing.T) {
	var tags Tags
	tags.Set("highway", "primary")
	tags.Set("name", "Herestraat")
	tags.Set("highway", "secondary")
	test.T(t, tags, Tags{{"highway", "secondary"}, {"name", "Herestraat"}})
	test.That(t, tags.Has("name"))
	test.That(t, !tags.Has("building"))
	test.T(t, tags.Find("building"), "")
	val, ok := tags.Get("highway")
	test.That(t, ok)
	test.T(t, val, "secondary")
	test.T(t, tags.ToMap(), map[string]string{"highway": "secondary", "name": "Herestraat"})

	typ, ok := ParseType("relation")
	test.That(t, ok)
	test.T(t, typ, RelationType)
	_, ok = ParseType("area")
	test.That(t, !ok)
}
