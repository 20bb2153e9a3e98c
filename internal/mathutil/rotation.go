package mathutil

import "math"

// Translate returns a 2D translation by (tx, ty).
func Translate(tx, ty float64) Mat3 {
	return Mat3{
		1, 0, tx,
		0, 1, ty,
		0, 0, 1,
	}
}

// Scale returns a 2D scale by (sx, sy) about the origin.
func Scale(sx, sy float64) Mat3 {
	return Mat3{
		sx, 0, 0,
		0, sy, 0,
		0, 0, 1,
	}
}

// Rot returns a 2D rotation about the origin. Angle in radians; with the
// y axis pointing down a positive angle turns clockwise on screen.
func Rot(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(r float64) float64 {
	return r * 180 / math.Pi
}
