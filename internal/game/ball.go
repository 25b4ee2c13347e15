package game

import "fmt"

// BodyID identifies a ball or wall in the engine's arena.
type BodyID string

// BodyKind tags what an arena id refers to.
type BodyKind int

const (
	BodyUnknown BodyKind = iota
	BodyBall
	BodyWall
)

func (k BodyKind) String() string {
	switch k {
	case BodyBall:
		return "ball"
	case BodyWall:
		return "wall"
	default:
		return "unknown"
	}
}

// BallKind distinguishes the cue ball from target balls.
type BallKind string

const (
	CueBall    BallKind = "CUE"
	TargetBall BallKind = "TARGET"
)

// CueBallID is the arena id of the cue ball.
const CueBallID BodyID = "cue"

const targetPrefix = "target-"

// TargetBallID returns the arena id of target ball i (1-based).
func TargetBallID(i int) BodyID {
	return BodyID(fmt.Sprintf("%s%d", targetPrefix, i))
}

// Ball is a ball's motion state. Speed and direction are changed only through
// SetMotion; positions are owned by the motion executor.
type Ball struct {
	ID       BodyID
	Kind     BallKind
	Index    int // 0 for the cue ball
	Position Vector3
	Radius   float64
	Alive    bool

	speed     float64
	direction Vector3
}

func newBall(id BodyID, kind BallKind, index int, pos Vector3, radius float64) *Ball {
	return &Ball{
		ID:        id,
		Kind:      kind,
		Index:     index,
		Position:  pos,
		Radius:    radius,
		Alive:     true,
		direction: DefaultDirection,
	}
}

func (b *Ball) Speed() float64 { return b.speed }

func (b *Ball) Direction() Vector3 { return b.direction }

// SetMotion records a new speed and direction. Negative speeds are clamped to zero.
func (b *Ball) SetMotion(speed float64, direction Vector3) {
	if speed < 0 {
		speed = 0
	}
	b.speed = speed
	b.direction = direction
}

// Stop puts the ball in the idle state.
func (b *Ball) Stop() {
	b.SetMotion(0, DefaultDirection)
}

// State returns a serializable copy of the ball.
func (b *Ball) State() BallState {
	return BallState{
		ID:        b.ID,
		Kind:      b.Kind,
		Index:     b.Index,
		Position:  b.Position,
		Speed:     b.speed,
		Direction: b.direction,
		Alive:     b.Alive,
	}
}

// BallState represents a ball's position and status for serialization.
type BallState struct {
	ID        BodyID   `json:"id"`
	Kind      BallKind `json:"kind"`
	Index     int      `json:"index"`
	Position  Vector3  `json:"position"`
	Speed     float64  `json:"speed"`
	Direction Vector3  `json:"direction"`
	Alive     bool     `json:"alive"`
	Moving    bool     `json:"moving"`
}
