package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/tdewolff/test"
)

func TestWebMercator(t *testing.T) {
	x, y := WebMercator{}.Forward(0.0, 0.0)
	test.Float(t, x, 0.0)
	test.Float(t, y, 0.0)

	x, _ = WebMercator{}.Forward(0.0, 180.0)
	test.Float(t, x, math.Pi*WebMercatorRadius)

	for lat := -84.5; lat < 85.0; lat += 7.5 {
		for lon := -179.5; lon < 180.0; lon += 11.25 {
			x, y := WebMercator{}.Forward(lat, lon)
			lat2, lon2 := WebMercator{}.Inverse(x, y)
			test.That(t, math.Abs(lat-lat2) < 1e-6 && math.Abs(lon-lon2) < 1e-6, "round trip", lat, lon, "gives", lat2, lon2)
		}
	}
}

func TestUTM(t *testing.T) {
	test.T(t, UTMZone(-180.0), 1)
	test.T(t, UTMZone(4.9), 31)
	test.T(t, UTMZone(6.0), 32)
	test.T(t, UTMZone(179.9), 60)
	test.That(t, IsNorthern(0.0))
	test.That(t, !IsNorthern(-0.1))

	// central meridian maps to the false easting
	x, _ := UTM{Zone: 31, North: true}.Forward(52.0, 3.0)
	test.Float(t, x, 500000.0)

	// Dam square, Amsterdam: zone 31U 628 km east, 5804 km north
	x, y := UTMFor(52.3731, 4.8926).Forward(52.3731, 4.8926)
	test.That(t, math.Abs(x-628000.0) < 2000.0, "easting", x)
	test.That(t, math.Abs(y-5804000.0) < 2000.0, "northing", y)

	var points = []orb.Point{
		{52.3731, 4.8926},
		{-33.8688, 151.2093},
		{0.5, -78.5},
		{64.1466, -21.9426},
		{-54.8, -68.3},
	}
	for _, p := range points {
		proj := UTMFor(p[0], p[1])
		x, y := proj.Forward(p[0], p[1])
		lat, lon := proj.Inverse(x, y)
		test.That(t, math.Abs(lat-p[0]) < 1e-5 && math.Abs(lon-p[1]) < 1e-5, proj, "round trip", p, "gives", lat, lon)
	}
}

func TestLatLon(t *testing.T) {
	x, y := LatLon{}.Forward(52.0, 5.0)
	test.Float(t, x, 5.0)
	test.Float(t, y, 52.0)
	lat, lon := LatLon{}.Inverse(x, y)
	test.Float(t, lat, 52.0)
	test.Float(t, lon, 5.0)
}

func TestWebMercatorScale(t *testing.T) {
	test.Float(t, WebMercatorScale(0.0), 1.0)
	test.Float(t, WebMercatorScale(60.0), 2.0)
}

func TestParseProjection(t *testing.T) {
	proj, err := ParseProjection("webmercator", 0.0, 0.0)
	test.Error(t, err)
	test.T(t, proj, Projection(WebMercator{}))

	proj, err = ParseProjection("utm", -33.9, 151.2)
	test.Error(t, err)
	test.T(t, proj, Projection(UTM{Zone: 56, North: false}))

	_, err = ParseProjection("lambert", 0.0, 0.0)
	test.That(t, err != nil)
}

func TestDMS(t *testing.T) {
	d := ToDMS(-33.5)
	test.T(t, d.Negative, true)
	test.T(t, d.Degrees, 33)
	test.T(t, d.Minutes, 30)
	test.Float(t, d.Seconds, 0.0)
	test.Float(t, d.Decimal(), -33.5)

	// the sign of a value between -1 and 0 must not be lost on the zero degrees
	d = ToDMS(-0.25)
	test.T(t, d.Degrees, 0)
	test.Float(t, d.Decimal(), -0.25)

	for _, v := range []float64{0.0, 12.345678, -122.4194, 179.999, -0.0001} {
		test.That(t, math.Abs(ToDMS(v).Decimal()-v) < 1e-9, "round trip", v)
	}
}

func TestParseDMS(t *testing.T) {
	var tests = []struct {
		in       string
		expected float64
	}{
		{`51°30'26"N`, 51.0 + 30.0/60.0 + 26.0/3600.0},
		{`0°7'39"W`, -(7.0/60.0 + 39.0/3600.0)},
		{`33 52 4.8 S`, -(33.0 + 52.0/60.0 + 4.8/3600.0)},
		{`-33°52'`, -(33.0 + 52.0/60.0)},
		{`151d12m30s E`, 151.0 + 12.0/60.0 + 30.0/3600.0},
		{`51°N`, 51.0},
		{`-33°`, -33.0},
		{`4°W`, -4.0},
		{`33 52 4.8S`, -(33.0 + 52.0/60.0 + 4.8/3600.0)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDMS(tt.in)
			test.Error(t, err)
			test.Float(t, d.Decimal(), tt.expected)
		})
	}

	for _, in := range []string{"", "north", `51°75'0"N`, `51°30'61"N`} {
		_, err := ParseDMS(in)
		test.That(t, err != nil, "expected error for", in)
	}
}

func TestMatrix(t *testing.T) {
	p := orb.Point{1.0, 2.0}
	test.T(t, Identity.Apply(p), p)
	test.T(t, Translate(3.0, -1.0).Apply(p), orb.Point{4.0, 1.0})
	test.T(t, Scale(2.0, -1.0).Apply(p), orb.Point{2.0, -2.0})

	r := Rotate(math.Pi / 2.0).Apply(orb.Point{1.0, 0.0})
	test.That(t, math.Abs(r[0]) < 1e-12 && math.Abs(r[1]-1.0) < 1e-12, "rotation", r)

	// a.Compose(b) applies b first
	m := Translate(10.0, 0.0).Compose(Scale(2.0, 2.0))
	test.T(t, m.Apply(p), orb.Point{12.0, 4.0})
	m = Scale(2.0, 2.0).Compose(Translate(10.0, 0.0))
	test.T(t, m.Apply(p), orb.Point{22.0, 4.0})
	test.T(t, Identity.Scale(2.0, 2.0).Translate(10.0, 0.0), Translate(10.0, 0.0).Compose(Scale(2.0, 2.0)))

	inv, ok := m.Inverse()
	test.That(t, ok)
	q := inv.Apply(m.Apply(p))
	test.That(t, math.Abs(q[0]-p[0]) < 1e-12 && math.Abs(q[1]-p[1]) < 1e-12, "inverse", q)

	_, ok = Scale(0.0, 1.0).Inverse()
	test.That(t, !ok)

	test.T(t, m.ApplyAll([]orb.Point{{0.0, 0.0}, p}), []orb.Point{{20.0, 0.0}, {22.0, 4.0}})
}
