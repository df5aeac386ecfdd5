package export

import (
	"fmt"
	"os"
	"slices"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"

	"github.com/tdewolff/osmrender/osm"
	"github.com/tdewolff/osmrender/style"
)

const maxNameLength = 80

var shapefileFields = []shp.Field{
	shp.NumberField("ID", 19),
	shp.StringField("KIND", 8),
	shp.StringField("NAME", maxNameLength),
	shp.NumberField("ZINDEX", 6),
}

// WriteShapefile writes the styled features in geographic coordinates to the ESRI shapefiles base_points.shp, base_lines.shp, and base_polygons.shp, each with ID, KIND, NAME, and ZINDEX attributes in a .dbf and an index in a .shx. Shapefiles of which there are no features are not created. It returns all written filenames.
func WriteShapefile(base string, features []style.Feature) ([]string, error) {
	var filenames []string
	for _, layer := range []struct {
		suffix string
		typ    shp.ShapeType
		geom   osm.GeometryType
	}{
		{"_points", shp.POINT, osm.PointGeometry},
		{"_lines", shp.POLYLINE, osm.LineStringGeometry},
		{"_polygons", shp.POLYGON, osm.PolygonGeometry},
	} {
		var layerFeatures []style.Feature
		for _, f := range features {
			if f.Geometry.Type == layer.geom {
				layerFeatures = append(layerFeatures, f)
			}
		}
		if len(layerFeatures) == 0 {
			continue
		}

		stem := base + layer.suffix
		if err := writeShapefile(stem, layer.typ, layerFeatures); err != nil {
			return filenames, fmt.Errorf("%s.shp: %w", stem, err)
		}
		filenames = append(filenames, stem+".shp", stem+".shx", stem+".dbf")
	}
	return filenames, nil
}

func writeShapefile(stem string, typ shp.ShapeType, features []style.Feature) error {
	w, err := shp.Create(stem+".shp", typ)
	if err != nil {
		return err
	}
	if err := writeShapes(w, features); err != nil {
		w.Close()
		return err
	}
	w.Close()

	// go-shp writes the attribute table to stem+"dbf" without the dot
	if _, err := os.Stat(stem + "dbf"); err == nil {
		return os.Rename(stem+"dbf", stem+".dbf")
	}
	return nil
}

func writeShapes(w *shp.Writer, features []style.Feature) error {
	if err := w.SetFields(shapefileFields); err != nil {
		return err
	}
	for _, f := range features {
		row := int(w.Write(shape(f.Geometry)))
		for i, val := range []any{int(f.ID), f.Kind.String(), truncate(f.Label, maxNameLength), f.ZIndex} {
			if err := w.WriteAttribute(row, i, val); err != nil {
				return err
			}
		}
	}
	return nil
}

// truncate shortens s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for 0 < n && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func shpPoints(points []orb.Point) []shp.Point {
	r := make([]shp.Point, len(points))
	for i, p := range points {
		r[i] = shp.Point{X: p[0], Y: p[1]}
	}
	return r
}

func shape(geom osm.Geometry) shp.Shape {
	switch geom.Type {
	case osm.PointGeometry:
		return &shp.Point{X: geom.Point[0], Y: geom.Point[1]}
	case osm.LineStringGeometry:
		return shp.NewPolyLine([][]shp.Point{shpPoints(geom.Line)})
	}

	// shapefiles have clockwise exteriors and counter clockwise holes
	parts := make([][]shp.Point, 0, len(geom.Polygon))
	for i, ring := range geom.Polygon {
		points := shpPoints(ring)
		if (0.0 < signedArea(points)) == (i == 0) {
			slices.Reverse(points)
		}
		parts = append(parts, points)
	}
	polygon := shp.Polygon(*shp.NewPolyLine(parts))
	return &polygon
}

// signedArea is positive for counter clockwise rings.
func signedArea(points []shp.Point) float64 {
	a := 0.0
	for i := range points {
		p, q := points[i], points[(i+1)%len(points)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2.0
}
