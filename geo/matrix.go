package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Matrix is a 2D affine transformation in homogeneous coordinates, indexed as [row][column].
type Matrix [3][3]float64

// Identity is the identity transformation.
var Identity = Matrix{
	{1.0, 0.0, 0.0},
	{0.0, 1.0, 0.0},
	{0.0, 0.0, 1.0},
}

// Translate returns a translation by (tx,ty).
func Translate(tx, ty float64) Matrix {
	return Matrix{
		{1.0, 0.0, tx},
		{0.0, 1.0, ty},
		{0.0, 0.0, 1.0},
	}
}

// Scale returns a scaling along the axes. Negative factors flip the axis.
func Scale(sx, sy float64) Matrix {
	return Matrix{
		{sx, 0.0, 0.0},
		{0.0, sy, 0.0},
		{0.0, 0.0, 1.0},
	}
}

// Rotate returns a counter clockwise rotation by rot radians around the origin.
func Rotate(rot float64) Matrix {
	sin, cos := math.Sincos(rot)
	return Matrix{
		{cos, -sin, 0.0},
		{sin, cos, 0.0},
		{0.0, 0.0, 1.0},
	}
}

// Compose returns the matrix product m·q, that is the transformation that applies q first and m second.
func (m Matrix) Compose(q Matrix) Matrix {
	var r Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][0]*q[0][j] + m[i][1]*q[1][j] + m[i][2]*q[2][j]
		}
	}
	return r
}

// Translate returns m followed by a translation.
func (m Matrix) Translate(tx, ty float64) Matrix {
	return Translate(tx, ty).Compose(m)
}

// Scale returns m followed by a scaling.
func (m Matrix) Scale(sx, sy float64) Matrix {
	return Scale(sx, sy).Compose(m)
}

// Apply transforms a point.
func (m Matrix) Apply(p orb.Point) orb.Point {
	x := m[0][0]*p[0] + m[0][1]*p[1] + m[0][2]
	y := m[1][0]*p[0] + m[1][1]*p[1] + m[1][2]
	if w := m[2][0]*p[0] + m[2][1]*p[1] + m[2][2]; w != 1.0 && w != 0.0 {
		x, y = x/w, y/w
	}
	return orb.Point{x, y}
}

// ApplyAll transforms a list of points into a new list.
func (m Matrix) ApplyAll(points []orb.Point) []orb.Point {
	r := make([]orb.Point, len(points))
	for i, p := range points {
		r[i] = m.Apply(p)
	}
	return r
}

// Det returns the determinant.
func (m Matrix) Det() float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// Inverse returns the inverse transformation. It returns false if the matrix is singular.
func (m Matrix) Inverse() (Matrix, bool) {
	det := m.Det()
	if det == 0.0 {
		return Matrix{}, false
	}
	var r Matrix
	r[0][0] = (m[1][1]*m[2][2] - m[1][2]*m[2][1]) / det
	r[0][1] = (m[0][2]*m[2][1] - m[0][1]*m[2][2]) / det
	r[0][2] = (m[0][1]*m[1][2] - m[0][2]*m[1][1]) / det
	r[1][0] = (m[1][2]*m[2][0] - m[1][0]*m[2][2]) / det
	r[1][1] = (m[0][0]*m[2][2] - m[0][2]*m[2][0]) / det
	r[1][2] = (m[0][2]*m[1][0] - m[0][0]*m[1][2]) / det
	r[2][0] = (m[1][0]*m[2][1] - m[1][1]*m[2][0]) / det
	r[2][1] = (m[0][1]*m[2][0] - m[0][0]*m[2][1]) / det
	r[2][2] = (m[0][0]*m[1][1] - m[0][1]*m[1][0]) / det
	return r, true
}

func (m Matrix) String() string {
	return fmt.Sprintf("[%g %g %g; %g %g %g; %g %g %g]", m[0][0], m[0][1], m[0][2], m[1][0], m[1][1], m[1][2], m[2][0], m[2][1], m[2][2])
}
