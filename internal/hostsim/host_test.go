package hostsim

import (
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/playmatatu/slamdunk/internal/game"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newEngine(t *testing.T, targets int) *game.Engine {
	t.Helper()
	opts := game.DefaultTableOptions()
	opts.TargetBalls = targets
	e, err := game.NewEngine(game.EngineOptions{Table: opts, Logger: quietLogger(), Strict: true})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func countEvents(events []game.CollisionEvent, typ string) int {
	n := 0
	for _, ev := range events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func TestStraightShotHandsSpeedToTarget(t *testing.T) {
	e := newEngine(t, 1)
	h := New(e, 0, quietLogger())

	if _, err := h.Shoot(0.19, 0); err != nil {
		t.Fatalf("Shoot: %v", err)
	}
	if err := h.Run(DefaultStep, 5000); err != nil {
		t.Fatal(err)
	}

	events := e.Events()
	if got := countEvents(events, game.EventBall); got != 2 {
		t.Errorf("ball events = %d, want 2 (one per ball)", got)
	}
	if got := countEvents(events, game.EventWall); got != 1 {
		t.Errorf("wall events = %d, want 1", got)
	}
	if got := countEvents(events, game.EventPocket); got != 0 {
		t.Errorf("pocket events = %d, want 0", got)
	}

	cue, ok := e.Ball(game.CueBallID)
	if !ok {
		t.Fatal("cue ball missing")
	}
	if cue.Speed != 0 {
		t.Errorf("cue speed = %v, want 0 after handing its momentum over", cue.Speed)
	}

	target, ok := e.Ball(game.TargetBallID(1))
	if !ok {
		t.Fatal("target ball missing")
	}
	// Struck at 0.095, then bounced off the far side wall at half speed.
	if math.Abs(target.Speed-0.0475) > 1e-9 {
		t.Errorf("target speed = %v, want 0.0475", target.Speed)
	}
	if target.Direction.X > -0.99 {
		t.Errorf("target direction = %+v, want -x", target.Direction)
	}
	w := e.Table().Width
	if target.Position.X <= cue.Position.X || target.Position.X >= w/2 {
		t.Errorf("target ended at x=%v, want between cue (%v) and wall (%v)", target.Position.X, cue.Position.X, w/2)
	}
}

func TestOutcomeDoesNotDependOnTableRotation(t *testing.T) {
	run := func(rotation float64) game.TableSnapshot {
		e := newEngine(t, 1)
		h := New(e, rotation, quietLogger())
		drag := game.Vector3{X: 0.19}.RotatedAboutVertical(rotation)
		if _, err := h.Shoot(drag.X, drag.Z); err != nil {
			t.Fatalf("Shoot: %v", err)
		}
		if err := h.Run(DefaultStep, 5000); err != nil {
			t.Fatal(err)
		}
		return e.Snapshot()
	}

	flat := run(0)
	turned := run(math.Pi / 3)

	if len(flat.Balls) != len(turned.Balls) {
		t.Fatalf("ball count differs: %d vs %d", len(flat.Balls), len(turned.Balls))
	}
	for i := range flat.Balls {
		a, b := flat.Balls[i], turned.Balls[i]
		if !a.Position.ApproxEqual(b.Position, 1e-5) {
			t.Errorf("%s: position %+v vs %+v", a.ID, a.Position, b.Position)
		}
		if math.Abs(a.Speed-b.Speed) > 1e-9 {
			t.Errorf("%s: speed %v vs %v", a.ID, a.Speed, b.Speed)
		}
	}
}

func TestWallContactGeometry(t *testing.T) {
	table, err := game.NewTable(game.DefaultTableOptions())
	if err != nil {
		t.Fatal(err)
	}
	posx, _ := table.Wall("wall-posx")
	r := table.BallRadius

	if _, ok := wallContact(posx, game.Vector3{X: 0.2, Y: r}, r); ok {
		t.Error("ball 0.05 from the wall should not touch it")
	}
	point, ok := wallContact(posx, game.Vector3{X: 0.235, Y: r, Z: 0.1}, r)
	if !ok {
		t.Fatal("ball within a radius should touch the wall")
	}
	want := game.Vector3{X: 0.25, Y: r, Z: 0.1}
	if !point.ApproxEqual(want, 1e-12) {
		t.Errorf("contact point = %+v, want %+v", point, want)
	}
}

func TestZeroShotLeavesTableAtRest(t *testing.T) {
	e := newEngine(t, 2)
	h := New(e, 0, quietLogger())
	res, err := h.Shoot(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Applied {
		t.Error("zero-length drag should not strike the cue ball")
	}
	if err := h.Run(DefaultStep, 10); err != nil {
		t.Fatal(err)
	}
	if h.Steps != 1 {
		t.Errorf("steps = %d, want 1", h.Steps)
	}
}
