package geo

import (
	"fmt"
	"math"
)

// WebMercatorRadius is the sphere radius of the Web Mercator projection (EPSG:3857).
const WebMercatorRadius = 6378137.0

// UTM ellipsoid and grid parameters.
const (
	utmK0            = 0.9996
	utmA             = 6378137.0
	utmE2            = 0.00669438
	utmFalseEasting  = 500000.0
	utmFalseNorthing = 10000000.0
)

// Projection converts between geographic coordinates in degrees and planar map coordinates.
type Projection interface {
	Forward(lat, lon float64) (x, y float64)
	Inverse(x, y float64) (lat, lon float64)
}

// LatLon is the identity projection with x the longitude and y the latitude.
type LatLon struct{}

func (LatLon) Forward(lat, lon float64) (float64, float64) {
	return lon, lat
}

func (LatLon) Inverse(x, y float64) (float64, float64) {
	return y, x
}

func (LatLon) String() string {
	return "LatLon"
}

// WebMercator is the spherical Mercator projection used by web maps.
type WebMercator struct{}

func (WebMercator) Forward(lat, lon float64) (float64, float64) {
	x := WebMercatorRadius * lon * math.Pi / 180.0
	y := WebMercatorRadius * math.Log(math.Tan(math.Pi/4.0+lat*math.Pi/360.0))
	return x, y
}

func (WebMercator) Inverse(x, y float64) (float64, float64) {
	lon := x / WebMercatorRadius * 180.0 / math.Pi
	lat := (2.0*math.Atan(math.Exp(y/WebMercatorRadius)) - math.Pi/2.0) * 180.0 / math.Pi
	return lat, lon
}

func (WebMercator) String() string {
	return "WebMercator"
}

// UTM is a simplified Universal Transverse Mercator projection for the given zone. It uses truncated series expansions and is only suited for visualization, not for surveying.
type UTM struct {
	Zone  int
	North bool
}

// UTMFor returns the UTM projection of the zone and hemisphere that contain the coordinate.
func UTMFor(lat, lon float64) UTM {
	return UTM{Zone: UTMZone(lon), North: IsNorthern(lat)}
}

func (p UTM) centralMeridian() float64 {
	return float64(p.Zone-1)*6.0 - 180.0 + 3.0
}

func (p UTM) Forward(lat, lon float64) (float64, float64) {
	phi := lat * math.Pi / 180.0
	dlambda := (lon - p.centralMeridian()) * math.Pi / 180.0
	ep2 := utmE2 / (1.0 - utmE2)

	sin, cos := math.Sincos(phi)
	n := utmA / math.Sqrt(1.0-utmE2*sin*sin)
	t := math.Tan(phi) * math.Tan(phi)
	c := ep2 * cos * cos
	a := cos * dlambda

	x := utmK0*n*(a+(1.0-t+c)*a*a*a/6.0+(5.0-18.0*t+t*t+72.0*c-58.0*ep2)*math.Pow(a, 5.0)/120.0) + utmFalseEasting
	y := utmK0 * (meridionalArc(phi) + n*math.Tan(phi)*(a*a/2.0+(5.0-t+9.0*c+4.0*c*c)*math.Pow(a, 4.0)/24.0+(61.0-58.0*t+t*t+600.0*c-330.0*ep2)*math.Pow(a, 6.0)/720.0))
	if !p.North {
		y += utmFalseNorthing
	}
	return x, y
}

// Inverse uses the footpoint latitude series.
func (p UTM) Inverse(x, y float64) (float64, float64) {
	x -= utmFalseEasting
	if !p.North {
		y -= utmFalseNorthing
	}
	e4 := utmE2 * utmE2
	e6 := e4 * utmE2
	ep2 := utmE2 / (1.0 - utmE2)

	m := y / utmK0
	mu := m / (utmA * (1.0 - utmE2/4.0 - 3.0*e4/64.0 - 5.0*e6/256.0))
	e1 := (1.0 - math.Sqrt(1.0-utmE2)) / (1.0 + math.Sqrt(1.0-utmE2))
	phi1 := mu +
		(3.0*e1/2.0-27.0*math.Pow(e1, 3.0)/32.0)*math.Sin(2.0*mu) +
		(21.0*e1*e1/16.0-55.0*math.Pow(e1, 4.0)/32.0)*math.Sin(4.0*mu) +
		(151.0*math.Pow(e1, 3.0)/96.0)*math.Sin(6.0*mu) +
		(1097.0*math.Pow(e1, 4.0)/512.0)*math.Sin(8.0*mu)

	sin, cos := math.Sincos(phi1)
	n1 := utmA / math.Sqrt(1.0-utmE2*sin*sin)
	t1 := math.Tan(phi1) * math.Tan(phi1)
	c1 := ep2 * cos * cos
	r1 := utmA * (1.0 - utmE2) / math.Pow(1.0-utmE2*sin*sin, 1.5)
	d := x / (n1 * utmK0)

	lat := phi1 - (n1*math.Tan(phi1)/r1)*(d*d/2.0-
		(5.0+3.0*t1+10.0*c1-4.0*c1*c1-9.0*ep2)*math.Pow(d, 4.0)/24.0+
		(61.0+90.0*t1+298.0*c1+45.0*t1*t1-252.0*ep2-3.0*c1*c1)*math.Pow(d, 6.0)/720.0)
	lon := (d - (1.0+2.0*t1+c1)*d*d*d/6.0 +
		(5.0-2.0*c1+28.0*t1-3.0*c1*c1+8.0*ep2+24.0*t1*t1)*math.Pow(d, 5.0)/120.0) / cos
	return lat * 180.0 / math.Pi, p.centralMeridian() + lon*180.0/math.Pi
}

func (p UTM) String() string {
	hemisphere := "N"
	if !p.North {
		hemisphere = "S"
	}
	return fmt.Sprintf("UTM%d%s", p.Zone, hemisphere)
}

// meridionalArc returns the distance along the meridian from the equator to latitude phi (radians).
func meridionalArc(phi float64) float64 {
	e4 := utmE2 * utmE2
	e6 := e4 * utmE2
	return utmA * ((1.0-utmE2/4.0-3.0*e4/64.0-5.0*e6/256.0)*phi -
		(3.0*utmE2/8.0+3.0*e4/32.0+45.0*e6/1024.0)*math.Sin(2.0*phi) +
		(15.0*e4/256.0+45.0*e6/1024.0)*math.Sin(4.0*phi) -
		(35.0*e6/3072.0)*math.Sin(6.0*phi))
}

// UTMZone returns the UTM zone number of a longitude.
func UTMZone(lon float64) int {
	return int(math.Floor((lon+180.0)/6.0)) + 1
}

// IsNorthern returns true for latitudes on or above the equator.
func IsNorthern(lat float64) bool {
	return 0.0 <= lat
}

// WebMercatorScale returns the point scale factor of Web Mercator at the given latitude.
func WebMercatorScale(lat float64) float64 {
	return 1.0 / math.Cos(lat*math.Pi/180.0)
}

// ParseProjection returns the projection by name: latlon, webmercator, or utm (zone and hemisphere derived from the given reference point).
func ParseProjection(name string, lat, lon float64) (Projection, error) {
	switch name {
	case "", "latlon", "LatLon":
		return LatLon{}, nil
	case "webmercator", "WebMercator", "mercator":
		return WebMercator{}, nil
	case "utm", "UTM":
		return UTMFor(lat, lon), nil
	}
	return nil, fmt.Errorf("unknown projection %q", name)
}
