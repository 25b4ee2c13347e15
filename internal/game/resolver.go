package game

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// Contact is a begin-contact notification from the host engine. Point and
// Normal are in world axes.
type Contact struct {
	A      BodyID  `json:"a"`
	B      BodyID  `json:"b"`
	Point  Vector3 `json:"point"`
	Normal Vector3 `json:"normal"`
}

// WallOutcome describes how a wall contact was resolved.
type WallOutcome struct {
	Pocketed  bool
	Ratio     float64
	Idle      bool
	Direction Vector3
	Speed     float64
}

// BallOutcome describes how a ball-ball contact was resolved.
type BallOutcome struct {
	AStrikes  bool
	VelocityA Vector3
	VelocityB Vector3
}

// Resolver applies the wall-bounce and ball-ball response rules. A wall keeps
// half the speed and mirrors the normal part of the direction. In a ball-ball
// hit the striking ball gives up its normal momentum and the struck ball
// receives half of the combined normal momentum; energy is not conserved.
type Resolver struct {
	motion MotionExecutor
	tuning Tuning
	logger *log.Logger
}

// NewResolver creates a resolver that issues impulses through motion.
func NewResolver(motion MotionExecutor, tuning Tuning, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{motion: motion, tuning: tuning, logger: logger}
}

// contactNormal projects a world normal onto the table plane and expresses it
// in table-local axes.
func contactNormal(world Vector3, rotation float64) (Vector3, error) {
	n, err := world.ProjectToHorizontalPlane()
	if err != nil {
		return Vector3{}, fmt.Errorf("contact normal %+v: %w", world, err)
	}
	return n.RotatedAboutVertical(-rotation), nil
}

// PocketTest reports whether a table-local contact point on wall falls in a pocket.
func (r *Resolver) PocketTest(wall Wall, local Vector3) (bool, float64, error) {
	ratio, err := wall.PocketRatio(local)
	if err != nil {
		return false, 0, err
	}
	return wall.InPocket(ratio, r.tuning), ratio, nil
}

// Bounce reflects a surviving ball off a wall given the world contact normal.
func (r *Resolver) Bounce(ball *Ball, worldNormal Vector3, rotation float64) (WallOutcome, error) {
	if ball.Speed() < r.tuning.IdleEpsilon {
		r.motion.Cancel(ball.ID)
		ball.Stop()
		return WallOutcome{Idle: true, Direction: ball.Direction()}, nil
	}

	n, err := contactNormal(worldNormal, rotation)
	if err != nil {
		return WallOutcome{}, err
	}

	dir := ball.Direction()
	normal := dir.NormalComponent(n)
	tangent := dir.TangentComponent(n)
	reflected := tangent.Minus(normal)
	reflected.Y = 0
	newDir, err := reflected.Normalized()
	if err != nil {
		// Only reachable when the recorded direction was vertical or zero.
		r.motion.Cancel(ball.ID)
		ball.Stop()
		return WallOutcome{Idle: true, Direction: ball.Direction()}, nil
	}
	newSpeed := ball.Speed() * WallSpeedRetention
	ball.SetMotion(newSpeed, newDir)

	r.motion.Cancel(ball.ID)
	r.motion.Issue(Impulse{
		Body:         ball.ID,
		Displacement: newDir.Times(ball.Radius),
		Duration:     NudgeDuration,
		Nudge:        true,
	})
	r.motion.Issue(Impulse{
		Body:         ball.ID,
		Displacement: newDir.Times(newSpeed * MotionScale),
		Duration:     MotionDuration,
	})

	return WallOutcome{Direction: newDir, Speed: newSpeed}, nil
}

// Collide resolves a contact between two balls given the world contact normal.
func (r *Resolver) Collide(a, b *Ball, worldNormal Vector3, rotation float64) (BallOutcome, error) {
	n, err := contactNormal(worldNormal, rotation)
	if err != nil {
		return BallOutcome{}, err
	}

	// A ball whose last impulse already finished is at rest whatever its record says.
	for _, ball := range []*Ball{a, b} {
		if !r.motion.InFlight(ball.ID) {
			ball.Stop()
		}
	}
	r.motion.Cancel(a.ID)
	r.motion.Cancel(b.ID)

	// A resting ball starts moving away from the ball that reached it.
	if a.Speed() == 0 {
		a.SetMotion(0, awayFrom(n, b.Direction()))
	}
	if b.Speed() == 0 {
		b.SetMotion(0, awayFrom(n, a.Direction()))
	}

	normalA := a.Direction().NormalComponent(n)
	tangentA := a.Direction().TangentComponent(n)
	normalB := b.Direction().NormalComponent(n)
	tangentB := b.Direction().TangentComponent(n)

	momentumA := a.Speed() * normalA.Length()
	momentumB := b.Speed() * normalB.Length()
	aStrikes := momentumA*momentumA > momentumB*momentumB

	coefficientA, coefficientB := StruckCoefficient, StrikerCoefficient
	if aStrikes {
		coefficientA, coefficientB = StrikerCoefficient, StruckCoefficient
	}

	combined := normalA.Times(a.Speed()).Plus(normalB.Times(b.Speed()))
	velocityA := tangentA.Times(a.Speed()).Plus(combined.Times(coefficientA))
	velocityB := tangentB.Times(b.Speed()).Plus(combined.Times(coefficientB))
	velocityA.Y, velocityB.Y = 0, 0

	r.logger.Debug("ball-ball",
		"a", a.ID, "b", b.ID, "a_strikes", aStrikes,
		"speed_a", a.Speed(), "speed_b", b.Speed(),
		"velocity_a", velocityA, "velocity_b", velocityB)

	r.launch(a, velocityA)
	r.launch(b, velocityB)

	return BallOutcome{AStrikes: aStrikes, VelocityA: velocityA, VelocityB: velocityB}, nil
}

// launch records velocity on the ball and issues its impulse, or idles it.
func (r *Resolver) launch(ball *Ball, velocity Vector3) {
	speed := velocity.Length()
	if speed < r.tuning.IdleEpsilon {
		ball.Stop()
		return
	}
	ball.SetMotion(speed, velocity.Times(1/speed))
	r.motion.Issue(Impulse{
		Body:         ball.ID,
		Displacement: velocity.Times(MotionScale),
		Duration:     MotionDuration,
	})
}

func awayFrom(n, other Vector3) Vector3 {
	if n.Dot(other) > 0 {
		return n
	}
	return n.Negated()
}
