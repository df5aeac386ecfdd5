package export

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/test"

	"github.com/tdewolff/osmrender/osm"
	"github.com/tdewolff/osmrender/render"
	"github.com/tdewolff/osmrender/style"
)

func TestOptionsValidate(t *testing.T) {
	test.Error(t, DefaultOptions().Validate())

	var tests = []struct {
		modify func(*Options)
		err    error
	}{
		{func(o *Options) { o.Width = 0.0 }, ErrInvalidSize},
		{func(o *Options) { o.Height = -1.0 }, ErrInvalidSize},
		{func(o *Options) { o.DPI = 0.0 }, ErrInvalidDPI},
		{func(o *Options) { o.Format = "bmp" }, ErrUnknownFormat},
		{func(o *Options) { o.Format = "" }, ErrUnknownFormat},
		{func(o *Options) { o.Format, o.Quality = "jpg", 0 }, ErrInvalidQuality},
		{func(o *Options) { o.Format, o.Quality = "jpg", 101 }, ErrInvalidQuality},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			err := opts.Validate()
			test.That(t, errors.Is(err, tt.err), "expected", tt.err, "got", err)
		})
	}

	for _, format := range Formats {
		opts := DefaultOptions()
		opts.Format = format
		test.Error(t, opts.Validate())
	}
}

func TestFormatFromFilename(t *testing.T) {
	test.T(t, FormatFromFilename("groningen.SVG"), "svg")
	test.T(t, FormatFromFilename("out/map.jpeg"), "jpg")
	test.T(t, FormatFromFilename("map"), "")
}

func exampleElements() []render.Element {
	line := style.DefaultStyle()
	area := style.DefaultStyle()
	area.Mode = style.BothMode
	fill := style.RGB(194, 235, 164)
	area.Fill = &fill
	point := style.DefaultStyle()
	point.Mode = style.PointMode

	return []render.Element{
		render.Polygon{
			Exterior: []orb.Point{{10, 10}, {90, 10}, {90, 90}, {10, 90}, {10, 10}},
			Holes:    [][]orb.Point{{{20, 20}, {20, 40}, {40, 40}, {40, 20}, {20, 20}}},
			Style:    area,
		},
		render.Line{Points: []orb.Point{{0, 50}, {100, 50}}, Style: line},
		render.Circle{Center: orb.Point{50, 50}, Radius: 3.0, Style: point},
		render.Text{Position: orb.Point{50, 50}, Text: "Vismarkt", Style: line},
		render.Text{Position: orb.Point{50, 60}, Text: "Grote Markt", Style: line},
	}
}

func TestEncodeSVG(t *testing.T) {
	loads := 0
	e := NewExporter(nil)
	e.LoadFont = func(name string) (*canvas.FontFamily, error) {
		loads++
		return nil, errors.New("no fonts installed")
	}

	opts := DefaultOptions()
	opts.Width, opts.Height, opts.DPI = 100.0, 100.0, 96.0
	var buf bytes.Buffer
	test.Error(t, e.Encode(&buf, exampleElements(), opts))
	svg := buf.String()
	test.That(t, strings.Contains(svg, "<svg"), svg)
	test.That(t, strings.Contains(svg, "<path"), svg)
	test.T(t, loads, 1)

	// the failed font stays cached
	buf.Reset()
	test.Error(t, e.Encode(&buf, exampleElements(), opts))
	test.T(t, loads, 1)

	opts.Width = 0.0
	test.That(t, errors.Is(e.Encode(&buf, nil, opts), ErrInvalidSize))
}

func TestWritePNG(t *testing.T) {
	e := NewExporter(nil)
	e.LoadFont = func(string) (*canvas.FontFamily, error) {
		return nil, errors.New("no fonts installed")
	}

	filename := filepath.Join(t.TempDir(), "map.png")
	opts := DefaultOptions()
	opts.Format = ""
	opts.Width, opts.Height, opts.DPI = 64.0, 48.0, 72.0
	test.Error(t, e.Write(filename, exampleElements(), opts))

	b, err := os.ReadFile(filename)
	test.Error(t, err)
	test.That(t, bytes.HasPrefix(b, []byte("\x89PNG")), "PNG signature")

	err = e.Write(filepath.Join(t.TempDir(), "map.bmp"), nil, opts)
	test.That(t, errors.Is(err, ErrUnknownFormat), err)
}

func TestWriteJPEG(t *testing.T) {
	e := NewExporter(nil)
	e.LoadFont = func(string) (*canvas.FontFamily, error) {
		return nil, errors.New("no fonts installed")
	}

	opts := DefaultOptions()
	opts.Format = "jpg"
	opts.Width, opts.Height, opts.DPI = 64.0, 48.0, 72.0

	var low, high bytes.Buffer
	opts.Quality = 10
	test.Error(t, e.Encode(&low, exampleElements(), opts))
	opts.Quality = 100
	test.Error(t, e.Encode(&high, exampleElements(), opts))
	test.That(t, bytes.HasPrefix(high.Bytes(), []byte("\xff\xd8")), "JPEG signature")
	test.That(t, low.Len() < high.Len(), "lower quality gives a smaller image")
}

func TestTruncate(t *testing.T) {
	test.T(t, truncate("Martinitoren", maxNameLength), "Martinitoren")
	test.T(t, truncate("Groningenstraße", 14), "Groningenstra")
	test.T(t, truncate(strings.Repeat("a", 100), maxNameLength), strings.Repeat("a", 80))
}

func TestWriteShapefile(t *testing.T) {
	features := []style.Feature{
		{
			Kind:     osm.NodeType,
			ID:       1,
			Geometry: osm.Geometry{Type: osm.PointGeometry, Point: orb.Point{6.5665, 53.2194}},
			Label:    "Martinitoren",
			HasLabel: true,
			ZIndex:   200,
		},
		{
			Kind:     osm.WayType,
			ID:       10,
			Geometry: osm.Geometry{Type: osm.LineStringGeometry, Line: orb.LineString{{6.56, 53.21}, {6.57, 53.22}}},
			ZIndex:   40,
		},
		{
			Kind: osm.RelationType,
			ID:   20,
			Geometry: osm.Geometry{Type: osm.PolygonGeometry, Polygon: orb.Polygon{
				{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
				{{2, 2}, {2, 4}, {4, 4}, {4, 2}, {2, 2}},
			}},
			Label:    "Noorderplantsoen",
			HasLabel: true,
			ZIndex:   50,
		},
	}

	base := filepath.Join(t.TempDir(), "groningen")
	filenames, err := WriteShapefile(base, features)
	test.Error(t, err)
	test.T(t, filenames, []string{
		base + "_points.shp", base + "_points.shx", base + "_points.dbf",
		base + "_lines.shp", base + "_lines.shx", base + "_lines.dbf",
		base + "_polygons.shp", base + "_polygons.shx", base + "_polygons.dbf",
	})
	for _, filename := range filenames {
		_, err := os.Stat(filename)
		test.Error(t, err)
	}
	_, err = os.Stat(base + "_pointsdbf")
	test.That(t, errors.Is(err, fs.ErrNotExist), "attribute table has a .dbf extension")

	r, err := shp.Open(base + "_points.shp")
	test.Error(t, err)
	defer r.Close()
	test.That(t, r.Next())
	n, p := r.Shape()
	point := p.(*shp.Point)
	test.Float(t, point.X, 6.5665)
	test.Float(t, point.Y, 53.2194)
	test.T(t, strings.TrimSpace(r.ReadAttribute(n, 0)), "1")
	test.T(t, strings.TrimSpace(r.ReadAttribute(n, 1)), "node")
	test.T(t, strings.TrimSpace(r.ReadAttribute(n, 2)), "Martinitoren")
	test.T(t, strings.TrimSpace(r.ReadAttribute(n, 3)), "200")
	test.That(t, !r.Next())

	r, err = shp.Open(base + "_polygons.shp")
	test.Error(t, err)
	defer r.Close()
	test.That(t, r.Next())
	_, p = r.Shape()
	polygon := p.(*shp.Polygon)
	test.T(t, polygon.NumParts, int32(2))
	test.That(t, signedArea(polygon.Points[:polygon.Parts[1]]) < 0.0, "exterior is clockwise")
	test.That(t, 0.0 < signedArea(polygon.Points[polygon.Parts[1]:]), "hole is counter clockwise")

	filenames, err = WriteShapefile(filepath.Join(t.TempDir(), "empty"), nil)
	test.Error(t, err)
	test.T(t, len(filenames), 0)
}
