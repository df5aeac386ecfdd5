package geo

import (
	"math"
	"slices"

	"github.com/paulmach/orb"
)

// EarthRadius is the mean Earth radius in meters used for great-circle distances.
const EarthRadius = 6371000.0

// Haversine returns the great-circle distance in meters between two points given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1, phi2 := lat1*math.Pi/180.0, lat2*math.Pi/180.0
	dphi := (lat2 - lat1) * math.Pi / 180.0
	dlambda := (lon2 - lon1) * math.Pi / 180.0

	a := math.Sin(dphi/2.0)*math.Sin(dphi/2.0) + math.Cos(phi1)*math.Cos(phi2)*math.Sin(dlambda/2.0)*math.Sin(dlambda/2.0)
	return EarthRadius * 2.0 * math.Atan2(math.Sqrt(a), math.Sqrt(1.0-a))
}

// PerpendicularDistance returns the distance from p to the infinite line through a and b. If a and b coincide it returns the distance between p and a.
func PerpendicularDistance(p, a, b orb.Point) float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	length := math.Hypot(dx, dy)
	if length == 0.0 {
		return math.Hypot(p[0]-a[0], p[1]-a[1])
	}
	return math.Abs(dx*(a[1]-p[1])-(a[0]-p[0])*dy) / length
}

// Simplify reduces the number of points of a polyline using the Douglas-Peucker algorithm. Points further than tolerance from the simplified line are kept. The first and last points are always kept and sequences of two or fewer points are returned unchanged. It uses an explicit stack so that very long ways cannot exhaust the call stack.
func Simplify(points []orb.Point, tolerance float64) []orb.Point {
	if len(points) <= 2 {
		return slices.Clone(points)
	}

	keep := make([]bool, len(points))
	keep[0], keep[len(points)-1] = true, true
	stack := [][2]int{{0, len(points) - 1}}
	for 0 < len(stack) {
		first, last := stack[len(stack)-1][0], stack[len(stack)-1][1]
		stack = stack[:len(stack)-1]
		if last-first < 2 {
			continue
		}

		index, maxDist := first, 0.0
		for i := first + 1; i < last; i++ {
			if d := PerpendicularDistance(points[i], points[first], points[last]); maxDist < d {
				index, maxDist = i, d
			}
		}
		if first < index && tolerance < maxDist {
			keep[index] = true
			stack = append(stack, [2]int{first, index}, [2]int{index, last})
		}
	}

	simplified := make([]orb.Point, 0, len(points))
	for i, p := range points {
		if keep[i] {
			simplified = append(simplified, p)
		}
	}
	return simplified
}

// PolygonArea returns the unsigned area of the polygon using the shoelace formula. The ring may be open or closed. Fewer than three points have no area.
func PolygonArea(points []orb.Point) float64 {
	if len(points) < 3 {
		return 0.0
	}
	a := 0.0
	for i := 0; i < len(points); i++ {
		p, q := points[i], points[(i+1)%len(points)]
		a += p[0]*q[1] - q[0]*p[1]
	}
	return math.Abs(a) / 2.0
}

// PointInPolygon returns true if p lies inside the ring using the even-odd rule. Points on an edge are classified consistently but either way.
func PointInPolygon(p orb.Point, points []orb.Point) bool {
	inside := false
	for i, j := 0, len(points)-1; i < len(points); j, i = i, i+1 {
		a, b := points[i], points[j]
		if (p[1] < a[1]) != (p[1] < b[1]) {
			x := a[0] + (p[1]-a[1])*(b[0]-a[0])/(b[1]-a[1])
			if p[0] < x {
				inside = !inside
			}
		}
	}
	return inside
}

// BoundingBox returns the minimum and maximum coordinates of the points. It returns false for an empty list.
func BoundingBox(points []orb.Point) (orb.Bound, bool) {
	if len(points) == 0 {
		return orb.Bound{}, false
	}
	b := orb.Bound{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min[0] = math.Min(b.Min[0], p[0])
		b.Min[1] = math.Min(b.Min[1], p[1])
		b.Max[0] = math.Max(b.Max[0], p[0])
		b.Max[1] = math.Max(b.Max[1], p[1])
	}
	return b, true
}

// Centroid returns the arithmetic mean of the vertices.
func Centroid(points []orb.Point) (orb.Point, bool) {
	if len(points) == 0 {
		return orb.Point{}, false
	}
	var c orb.Point
	for _, p := range points {
		c[0] += p[0]
		c[1] += p[1]
	}
	n := float64(len(points))
	return orb.Point{c[0] / n, c[1] / n}, true
}
