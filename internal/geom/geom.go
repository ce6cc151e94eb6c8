// Package geom provides the small vector and angle types shared by the
// layout engines.
package geom

import "math"

// Epsilon separates "settled" scalar values from values still in motion.
// A deployment below Epsilon counts as fully collapsed, above 1-Epsilon
// as fully expanded.
const Epsilon = 1.0e-6

// MagicNumber is the golden ratio, used for a handful of display proportions.
const MagicNumber = 1.61803398874989484821

// XY is a point or vector in 2D Cartesian coordinates.
type XY struct {
	X float64
	Y float64
}

// XYZ is a point or vector in 3D Cartesian coordinates.
type XYZ struct {
	X float64
	Y float64
	Z float64
}

// RT is a point in 2D polar coordinates (theta in degrees).
type RT struct {
	R     float64
	Theta float64
}

// RTZ is a point in 3D cylindrical coordinates (theta in degrees).
type RTZ struct {
	R     float64
	Theta float64
	Z     float64
}

// Deg converts radians to degrees.
func Deg(rad float64) float64 { return rad * (180.0 / math.Pi) }

// Rad converts degrees to radians.
func Rad(deg float64) float64 { return deg * (math.Pi / 180.0) }

// Sqr returns x*x.
func Sqr(x float64) float64 { return x * x }

// Interpolate maps k in [0,1] onto the interval [a,b].
func Interpolate(k, a, b float64) float64 { return a + k*(b-a) }
