package game

import (
	"errors"
	"math"
	"testing"
)

func TestRotationRoundTrip(t *testing.T) {
	v := Vector3{X: 0.3, Y: 0.02, Z: -0.1}
	for _, angle := range []float64{0, math.Pi / 6, math.Pi / 2, -2.5, math.Pi} {
		got := v.RotatedAboutVertical(angle).RotatedAboutVertical(-angle)
		if !got.ApproxEqual(v, 1e-12) {
			t.Errorf("angle %v: round trip gave %+v, want %+v", angle, got, v)
		}
	}
}

func TestRotatedAboutVerticalKeepsHeightAndLength(t *testing.T) {
	v := Vector3{X: 1, Y: 5, Z: 2}
	r := v.RotatedAboutVertical(1.1)
	if r.Y != v.Y {
		t.Errorf("Y changed: %v -> %v", v.Y, r.Y)
	}
	if math.Abs(r.Length()-v.Length()) > 1e-12 {
		t.Errorf("length changed: %v -> %v", v.Length(), r.Length())
	}
}

func TestRotationFromAxisMatchesRotation(t *testing.T) {
	for _, angle := range []float64{0, 0.4, math.Pi / 2, -1.2, 3} {
		col0 := Vector3{X: 1}.RotatedAboutVertical(angle)
		got := RotationFromAxis(col0)
		if math.Abs(got-angle) > 1e-12 {
			t.Errorf("RotationFromAxis(%+v) = %v, want %v", col0, got, angle)
		}
	}
	if got := RotationFromAxis(Vector3{Y: 1}); got != 0 {
		t.Errorf("vertical axis gave %v, want 0", got)
	}
}

func TestNormalizedRejectsZero(t *testing.T) {
	if _, err := (Vector3{}).Normalized(); !errors.Is(err, ErrDegenerateVector) {
		t.Errorf("err = %v, want ErrDegenerateVector", err)
	}
	if _, err := (Vector3{Y: 3}).ProjectToHorizontalPlane(); !errors.Is(err, ErrDegenerateVector) {
		t.Errorf("vertical vector projected without error: %v", err)
	}
	n, err := Vector3{X: 3, Y: 7, Z: 4}.ProjectToHorizontalPlane()
	if err != nil {
		t.Fatal(err)
	}
	if !n.ApproxEqual(Vector3{X: 0.6, Z: 0.8}, 1e-12) {
		t.Errorf("projection = %+v", n)
	}
}

func TestNormalAndTangentSplit(t *testing.T) {
	v := Vector3{X: 0.3, Z: -0.4}
	n := Vector3{X: 1}
	normal := v.NormalComponent(n)
	tangent := v.TangentComponent(n)

	if !normal.ApproxEqual(Vector3{X: 0.3}, 1e-12) {
		t.Errorf("normal = %+v", normal)
	}
	if !tangent.ApproxEqual(Vector3{Z: -0.4}, 1e-12) {
		t.Errorf("tangent = %+v", tangent)
	}
	if math.Abs(tangent.Dot(n)) > 1e-12 {
		t.Errorf("tangent not orthogonal to normal: %v", tangent.Dot(n))
	}
	if !normal.Plus(tangent).ApproxEqual(v, 1e-12) {
		t.Errorf("parts do not add back up")
	}
}
