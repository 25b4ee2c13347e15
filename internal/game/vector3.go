package game

import (
	"errors"
	"math"
)

// ErrDegenerateVector is returned when a zero-length vector would have to be normalized.
var ErrDegenerateVector = errors.New("degenerate vector")

// degenerateLength is the length below which a vector has no usable direction.
const degenerateLength = 1e-9

// Vector3 is a 3D vector. Y is the vertical axis; the table lies in the XZ plane.
type Vector3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// DefaultDirection is the direction an idle ball reports. It carries no meaning.
var DefaultDirection = Vector3{X: 1}

func (v Vector3) Plus(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vector3) Minus(o Vector3) Vector3 {
	return Vector3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vector3) Times(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vector3) Dot(o Vector3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vector3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func (v Vector3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Negated returns -v.
func (v Vector3) Negated() Vector3 {
	return Vector3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Normalized returns v scaled to unit length, or ErrDegenerateVector when v has no length.
func (v Vector3) Normalized() (Vector3, error) {
	l := v.Length()
	if l < degenerateLength {
		return Vector3{}, ErrDegenerateVector
	}
	return v.Times(1 / l), nil
}

// ProjectToHorizontalPlane drops the vertical component and normalizes the rest.
func (v Vector3) ProjectToHorizontalPlane() (Vector3, error) {
	return Vector3{X: v.X, Z: v.Z}.Normalized()
}

// RotatedAboutVertical rotates v by angle radians about the +Y axis.
func (v Vector3) RotatedAboutVertical(angle float64) Vector3 {
	sin, cos := math.Sincos(angle)
	return Vector3{
		X: v.X*cos + v.Z*sin,
		Y: v.Y,
		Z: -v.X*sin + v.Z*cos,
	}
}

// NormalComponent returns the part of v along n. n must already be unit length.
func (v Vector3) NormalComponent(n Vector3) Vector3 {
	return n.Times(v.Dot(n))
}

// TangentComponent returns the part of v orthogonal to n. n must already be unit length.
func (v Vector3) TangentComponent(n Vector3) Vector3 {
	return v.Minus(v.NormalComponent(n))
}

// ApproxEqual reports whether every component of v and o differs by at most tol.
func (v Vector3) ApproxEqual(o Vector3, tol float64) bool {
	return math.Abs(v.X-o.X) <= tol && math.Abs(v.Y-o.Y) <= tol && math.Abs(v.Z-o.Z) <= tol
}

// RotationFromAxis derives the table's horizontal rotation from the first column
// (local X axis) of a hit-test world transform. The result is the angle that
// RotatedAboutVertical uses to carry table-local vectors into world axes.
func RotationFromAxis(col0 Vector3) float64 {
	if col0.X == 0 && col0.Z == 0 {
		return 0
	}
	return math.Atan2(-col0.Z, col0.X)
}
