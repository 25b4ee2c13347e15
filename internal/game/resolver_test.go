package game

import (
	"math"
	"testing"
)

func movingBall(id BodyID, rec *recorder, speed float64, dir Vector3) *Ball {
	b := newBall(id, TargetBall, 1, Vector3{}, DefaultBallRadius)
	b.SetMotion(speed, dir)
	if speed > 0 {
		rec.inFlight[id] = true
	}
	return b
}

func TestBounceReflectsAndHalvesSpeed(t *testing.T) {
	rec := newRecorder()
	r := NewResolver(rec, CanonicalTuning(), quietLogger())
	dir := Vector3{X: 1, Z: 1}.Times(1 / math.Sqrt2)
	ball := movingBall("cue", rec, 0.2, dir)

	out, err := r.Bounce(ball, Vector3{X: -1}, 0)
	if err != nil {
		t.Fatal(err)
	}

	want := Vector3{X: -1, Z: 1}.Times(1 / math.Sqrt2)
	if !out.Direction.ApproxEqual(want, 1e-12) {
		t.Errorf("direction = %+v, want %+v", out.Direction, want)
	}
	if math.Abs(out.Speed-0.1) > 1e-12 || math.Abs(ball.Speed()-0.1) > 1e-12 {
		t.Errorf("speed = %v (ball %v), want 0.1", out.Speed, ball.Speed())
	}

	if len(rec.cancelled) != 1 || rec.cancelled[0] != "cue" {
		t.Errorf("cancelled = %v, want [cue]", rec.cancelled)
	}
	if len(rec.issued) != 2 {
		t.Fatalf("issued %d impulses, want nudge + main", len(rec.issued))
	}
	nudge, main := rec.issued[0], rec.issued[1]
	if !nudge.Nudge || nudge.Duration != NudgeDuration {
		t.Errorf("first impulse = %+v, want a nudge", nudge)
	}
	if !nudge.Displacement.ApproxEqual(want.Times(DefaultBallRadius), 1e-12) {
		t.Errorf("nudge displacement = %+v", nudge.Displacement)
	}
	if main.Nudge || main.Duration != MotionDuration {
		t.Errorf("second impulse = %+v, want the main impulse", main)
	}
	if !main.Displacement.ApproxEqual(want.Times(0.1*MotionScale), 1e-12) {
		t.Errorf("main displacement = %+v", main.Displacement)
	}
}

func TestBounceIgnoresVerticalNormalComponent(t *testing.T) {
	rec := newRecorder()
	r := NewResolver(rec, CanonicalTuning(), quietLogger())
	ball := movingBall("cue", rec, 0.2, Vector3{Z: -1})

	out, err := r.Bounce(ball, Vector3{Y: 0.8, Z: 0.6}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Direction.ApproxEqual(Vector3{Z: 1}, 1e-12) {
		t.Errorf("direction = %+v, want +z", out.Direction)
	}
}

func TestBounceRespectsTableRotation(t *testing.T) {
	rotation := math.Pi / 3
	rec := newRecorder()
	r := NewResolver(rec, CanonicalTuning(), quietLogger())
	ball := movingBall("cue", rec, 0.2, Vector3{X: 1})

	// The local -x wall normal as the host reports it in world axes.
	world := Vector3{X: -1}.RotatedAboutVertical(rotation)
	out, err := r.Bounce(ball, world, rotation)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Direction.ApproxEqual(Vector3{X: -1}, 1e-12) {
		t.Errorf("direction = %+v, want -x in table axes", out.Direction)
	}
}

func TestBounceIdlesSlowBall(t *testing.T) {
	rec := newRecorder()
	r := NewResolver(rec, CanonicalTuning(), quietLogger())
	ball := movingBall("cue", rec, 0.00005, Vector3{X: 1})

	out, err := r.Bounce(ball, Vector3{X: -1}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Idle {
		t.Error("slow ball should be idled")
	}
	if ball.Speed() != 0 {
		t.Errorf("speed = %v, want 0", ball.Speed())
	}
	if len(rec.issued) != 0 {
		t.Errorf("issued %v, want nothing", rec.issued)
	}
	if rec.InFlight("cue") {
		t.Error("idle ball still in flight")
	}
}

func TestBounceRejectsVerticalNormal(t *testing.T) {
	rec := newRecorder()
	r := NewResolver(rec, CanonicalTuning(), quietLogger())
	ball := movingBall("cue", rec, 0.2, Vector3{X: 1})

	if _, err := r.Bounce(ball, Vector3{Y: 1}, 0); err == nil {
		t.Fatal("expected an error for a vertical normal")
	}
	if ball.Speed() != 0.2 {
		t.Errorf("ball changed on a rejected contact: speed %v", ball.Speed())
	}
}

func TestCollideHeadOnStopsStriker(t *testing.T) {
	rec := newRecorder()
	r := NewResolver(rec, CanonicalTuning(), quietLogger())
	cue := movingBall("cue", rec, 0.2, Vector3{X: 1})
	target := movingBall("target-1", rec, 0, DefaultDirection)

	out, err := r.Collide(cue, target, Vector3{X: 1}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !out.AStrikes {
		t.Error("moving ball should be the striker")
	}
	if cue.Speed() != 0 {
		t.Errorf("cue speed = %v, want 0", cue.Speed())
	}
	if math.Abs(target.Speed()-0.1) > 1e-12 {
		t.Errorf("target speed = %v, want 0.1", target.Speed())
	}
	if !target.Direction().ApproxEqual(Vector3{X: 1}, 1e-12) {
		t.Errorf("target direction = %+v", target.Direction())
	}
	if len(rec.mains("cue")) != 0 {
		t.Errorf("stopped cue received an impulse")
	}
	mains := rec.mains("target-1")
	if len(mains) != 1 || !mains[0].Displacement.ApproxEqual(Vector3{X: 0.1 * MotionScale}, 1e-12) {
		t.Errorf("target impulses = %+v", mains)
	}
}

func TestCollideGlancingKeepsTangent(t *testing.T) {
	rec := newRecorder()
	r := NewResolver(rec, CanonicalTuning(), quietLogger())
	dir := Vector3{X: 1, Z: 1}.Times(1 / math.Sqrt2)
	cue := movingBall("cue", rec, 0.2, dir)
	target := movingBall("target-1", rec, 0, DefaultDirection)

	out, err := r.Collide(cue, target, Vector3{X: 1}, 0)
	if err != nil {
		t.Fatal(err)
	}

	normalPart := 0.2 / math.Sqrt2
	if !out.VelocityA.ApproxEqual(Vector3{Z: normalPart}, 1e-12) {
		t.Errorf("cue velocity = %+v, want only the tangent part", out.VelocityA)
	}
	if !out.VelocityB.ApproxEqual(Vector3{X: normalPart / 2}, 1e-12) {
		t.Errorf("target velocity = %+v, want half the normal part", out.VelocityB)
	}
	if !cue.Direction().ApproxEqual(Vector3{Z: 1}, 1e-12) {
		t.Errorf("cue direction = %+v, want +z", cue.Direction())
	}
}

func TestCollideBothMoving(t *testing.T) {
	rec := newRecorder()
	r := NewResolver(rec, CanonicalTuning(), quietLogger())
	a := movingBall("target-1", rec, 0.1, Vector3{X: -1})
	b := movingBall("cue", rec, 0.2, Vector3{X: 1})

	// Normal from a towards b is -x.
	out, err := r.Collide(a, b, Vector3{X: -1}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if out.AStrikes {
		t.Error("faster ball b should be the striker")
	}
	if b.Speed() != 0 {
		t.Errorf("striker speed = %v, want 0", b.Speed())
	}
	// Combined normal momentum is 0.2 - 0.1 along +x; the struck ball gets half.
	if !out.VelocityA.ApproxEqual(Vector3{X: 0.05}, 1e-12) {
		t.Errorf("struck velocity = %+v, want 0.05 along +x", out.VelocityA)
	}
}

func TestCollideTreatsFinishedImpulseAsRest(t *testing.T) {
	rec := newRecorder()
	r := NewResolver(rec, CanonicalTuning(), quietLogger())
	a := newBall("cue", CueBall, 0, Vector3{}, DefaultBallRadius)
	a.SetMotion(0.2, Vector3{X: 1}) // recorded, but its impulse has already run out
	b := newBall("target-1", TargetBall, 1, Vector3{}, DefaultBallRadius)

	if _, err := r.Collide(a, b, Vector3{X: 1}, 0); err != nil {
		t.Fatal(err)
	}
	if a.Speed() != 0 || b.Speed() != 0 {
		t.Errorf("speeds = %v, %v; want both at rest", a.Speed(), b.Speed())
	}
	if len(rec.issued) != 0 {
		t.Errorf("issued %v, want nothing", rec.issued)
	}
}

func TestPocketTest(t *testing.T) {
	table := mustTable(t, DefaultTableOptions())
	r := NewResolver(newRecorder(), CanonicalTuning(), quietLogger())
	negz := mustWall(t, table, "wall-negz")

	in, ratio, err := r.PocketTest(negz, Vector3{X: 0, Z: -0.15})
	if err != nil {
		t.Fatal(err)
	}
	if !in || math.Abs(ratio-0.5) > 1e-12 {
		t.Errorf("middle of end wall: pocketed=%v ratio=%v", in, ratio)
	}

	in, _, err = r.PocketTest(negz, Vector3{X: 0.1, Z: -0.15})
	if err != nil {
		t.Fatal(err)
	}
	if in {
		t.Error("cushion point reported as pocket")
	}
}
