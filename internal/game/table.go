package game

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidPocketGeometry is returned for a wall or table with a non-positive span.
var ErrInvalidPocketGeometry = errors.New("invalid pocket geometry")

// WallOrientation names the side of the table a wall closes off.
type WallOrientation string

const (
	WallNegZ WallOrientation = "NEG_Z"
	WallPosZ WallOrientation = "POS_Z"
	WallNegX WallOrientation = "NEG_X"
	WallPosX WallOrientation = "POS_X"
)

// IsSide reports whether the wall runs along the table length (the X walls).
func (o WallOrientation) IsSide() bool {
	return o == WallNegX || o == WallPosX
}

// Wall is a cushion. Center, Axis and Normal are in table-local axes; Axis runs
// along the span and Normal points into the playing area.
type Wall struct {
	ID          BodyID          `json:"id"`
	Orientation WallOrientation `json:"orientation"`
	Span        float64         `json:"span"`
	Center      Vector3         `json:"center"`
	Axis        Vector3         `json:"axis"`
	Normal      Vector3         `json:"normal"`
}

// Endpoints returns the two ends of the wall in table-local axes.
func (w Wall) Endpoints() (Vector3, Vector3) {
	half := w.Axis.Times(w.Span / 2)
	return w.Center.Minus(half), w.Center.Plus(half)
}

// PocketRatio returns the normalized position (0..1) of a table-local point
// along the wall's span.
func (w Wall) PocketRatio(local Vector3) (float64, error) {
	if w.Span <= 0 {
		return 0, fmt.Errorf("%w: wall %s span %v", ErrInvalidPocketGeometry, w.ID, w.Span)
	}
	start, _ := w.Endpoints()
	return local.Minus(start).Dot(w.Axis) / w.Span, nil
}

// InPocket applies the tuning's pocket bands to a ratio along this wall.
func (w Wall) InPocket(ratio float64, t Tuning) bool {
	if w.Orientation.IsSide() {
		return ratio < t.SideCornerRatio || ratio > 1-t.SideCornerRatio
	}
	if ratio < t.EndCornerRatio || ratio > 1-t.EndCornerRatio {
		return true
	}
	return ratio > t.MidPocketLow && ratio < t.MidPocketHigh
}

// TableOptions describes the playing surface.
type TableOptions struct {
	Origin      Vector3
	Width       float64 // along X
	Length      float64 // along Z
	BallRadius  float64
	TargetBalls int
	RackSpacing float64
}

// DefaultTableOptions returns the standard table geometry.
func DefaultTableOptions() TableOptions {
	return TableOptions{
		Width:       DefaultTableWidth,
		Length:      DefaultTableLength,
		BallRadius:  DefaultBallRadius,
		TargetBalls: DefaultTargetBalls,
		RackSpacing: DefaultRackSpacing,
	}
}

// Table holds the immutable table geometry.
type Table struct {
	Origin      Vector3 `json:"origin"`
	Width       float64 `json:"width"`
	Length      float64 `json:"length"`
	BallRadius  float64 `json:"ball_radius"`
	TargetBalls int     `json:"target_balls"`
	RackSpacing float64 `json:"rack_spacing"`
	Walls       []Wall  `json:"walls"`
}

// NewTable builds the four walls around a Width x Length surface centred on the origin.
func NewTable(opts TableOptions) (*Table, error) {
	if opts.Width <= 0 || opts.Length <= 0 {
		return nil, fmt.Errorf("%w: table %vx%v", ErrInvalidPocketGeometry, opts.Width, opts.Length)
	}
	if opts.BallRadius <= 0 {
		return nil, fmt.Errorf("ball radius must be positive, got %v", opts.BallRadius)
	}
	if opts.TargetBalls < 1 {
		return nil, fmt.Errorf("at least one target ball is required, got %d", opts.TargetBalls)
	}
	if opts.RackSpacing < 2*opts.BallRadius {
		return nil, fmt.Errorf("rack spacing %v is smaller than a ball diameter %v", opts.RackSpacing, 2*opts.BallRadius)
	}

	w, l, r := opts.Width, opts.Length, opts.BallRadius
	walls := []Wall{
		{ID: "wall-negz", Orientation: WallNegZ, Span: w, Center: Vector3{Y: r, Z: -l / 2}, Axis: Vector3{X: 1}, Normal: Vector3{Z: 1}},
		{ID: "wall-posz", Orientation: WallPosZ, Span: w, Center: Vector3{Y: r, Z: l / 2}, Axis: Vector3{X: 1}, Normal: Vector3{Z: -1}},
		{ID: "wall-negx", Orientation: WallNegX, Span: l, Center: Vector3{X: -w / 2, Y: r}, Axis: Vector3{Z: 1}, Normal: Vector3{X: 1}},
		{ID: "wall-posx", Orientation: WallPosX, Span: l, Center: Vector3{X: w / 2, Y: r}, Axis: Vector3{Z: 1}, Normal: Vector3{X: -1}},
	}

	return &Table{
		Origin:      opts.Origin,
		Width:       w,
		Length:      l,
		BallRadius:  r,
		TargetBalls: opts.TargetBalls,
		RackSpacing: opts.RackSpacing,
		Walls:       walls,
	}, nil
}

// ToLocal converts a world point into table-local axes.
func (t *Table) ToLocal(world Vector3, rotation float64) Vector3 {
	return world.Minus(t.Origin).RotatedAboutVertical(-rotation)
}

// ToWorld converts a table-local point into world axes.
func (t *Table) ToWorld(local Vector3, rotation float64) Vector3 {
	return local.RotatedAboutVertical(rotation).Plus(t.Origin)
}

// Wall looks up a wall by id.
func (t *Table) Wall(id BodyID) (Wall, bool) {
	for _, w := range t.Walls {
		if w.ID == id {
			return w, true
		}
	}
	return Wall{}, false
}

// CuePosition is where the cue ball is placed on every rack.
func (t *Table) CuePosition() Vector3 {
	return Vector3{X: -t.Width / 4, Y: t.BallRadius}
}

// RackAnchor is the position of the first target ball.
func (t *Table) RackAnchor() Vector3 {
	return Vector3{X: t.RackSpacing, Y: t.BallRadius}
}

// RackPositions returns the canonical positions of the target balls, index 1..TargetBalls.
func (t *Table) RackPositions() []Vector3 {
	anchor := t.RackAnchor()
	pos := make([]Vector3, t.TargetBalls)
	for i := 1; i <= t.TargetBalls; i++ {
		dx, dz := RackOffset(i, t.RackSpacing)
		pos[i-1] = anchor.Plus(Vector3{X: dx, Z: dz})
	}
	return pos
}

// RackOffset places ball i (1-based) in a triangular rack pointing along -X:
// row r holds r balls, rows are sqrt(3)/2*spacing apart and balls within a row
// spacing apart, so every neighbour sits exactly spacing away.
func RackOffset(i int, spacing float64) (float64, float64) {
	if i < 1 {
		return 0, 0
	}
	row := 1
	for row*(row+1)/2 < i {
		row++
	}
	slot := i - (row-1)*row/2 - 1
	x := float64(row-1) * spacing * math.Sqrt(3) / 2
	z := (float64(slot) - float64(row-1)/2) * spacing
	return x, z
}
