package transcode

import "math"

// Point is a 2D point.
type Point struct {
	X, Y float64
}

// Matrix represents a 2D affine transformation matrix.
// It uses a 2x3 matrix in row-major order:
//
//	| a  b  c |
//	| d  e  f |
//
// This represents the transformation:
//
//	x' = a*x + b*y + c
//	y' = d*x + e*y + f
type Matrix struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transformation matrix.
func Identity() Matrix {
	return Matrix{
		A: 1, B: 0, C: 0,
		D: 0, E: 1, F: 0,
	}
}

// Translate creates a translation matrix.
func Translate(x, y float64) Matrix {
	return Matrix{
		A: 1, B: 0, C: x,
		D: 0, E: 1, F: y,
	}
}

// Scale creates a scaling matrix.
func Scale(x, y float64) Matrix {
	return Matrix{
		A: x, B: 0, C: 0,
		D: 0, E: y, F: 0,
	}
}

// Rotate creates a rotation matrix (angle in radians,
// counter-clockwise positive).
func Rotate(angle float64) Matrix {
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	return Matrix{
		A: cos, B: -sin, C: 0,
		D: sin, E: cos, F: 0,
	}
}

// RotateDegrees creates a rotation matrix from an angle in degrees.
// Multiples of 90 produce exact matrix entries so that rotated frame
// geometry stays pixel-aligned.
func RotateDegrees(degrees float64) Matrix {
	switch math.Mod(math.Mod(degrees, 360)+360, 360) {
	case 0:
		return Identity()
	case 90:
		return Matrix{A: 0, B: -1, C: 0, D: 1, E: 0, F: 0}
	case 180:
		return Matrix{A: -1, B: 0, C: 0, D: 0, E: -1, F: 0}
	case 270:
		return Matrix{A: 0, B: 1, C: 0, D: -1, E: 0, F: 0}
	}
	return Rotate(degrees * math.Pi / 180)
}

// Multiply multiplies two matrices (m * other). The combined transform
// applies other first, then m.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		A: m.A*other.A + m.B*other.D,
		B: m.A*other.B + m.B*other.E,
		C: m.A*other.C + m.B*other.F + m.C,
		D: m.D*other.A + m.E*other.D,
		E: m.D*other.B + m.E*other.E,
		F: m.D*other.C + m.E*other.F + m.F,
	}
}

// PreScale returns the matrix with a scale applied before m.
func (m Matrix) PreScale(sx, sy float64) Matrix {
	return m.Multiply(Scale(sx, sy))
}

// PostScale returns the matrix with a scale applied after m.
func (m Matrix) PostScale(sx, sy float64) Matrix {
	return Scale(sx, sy).Multiply(m)
}

// PostTranslate returns the matrix with a translation applied after m.
func (m Matrix) PostTranslate(x, y float64) Matrix {
	return Translate(x, y).Multiply(m)
}

// PostRotateDegrees returns the matrix with a rotation (in degrees)
// applied after m.
func (m Matrix) PostRotateDegrees(degrees float64) Matrix {
	return RotateDegrees(degrees).Multiply(m)
}

// TransformPoint applies the transformation to a point.
func (m Matrix) TransformPoint(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// IsIdentity returns true if the matrix is the identity matrix.
func (m Matrix) IsIdentity() bool {
	return m.A == 1 && m.B == 0 && m.C == 0 &&
		m.D == 0 && m.E == 1 && m.F == 0
}

// elements returns the matrix entries in row-major 2x3 order, the
// layout the frame uniform serialization consumes.
func (m Matrix) elements() [6]float64 {
	return [6]float64{m.A, m.B, m.C, m.D, m.E, m.F}
}
