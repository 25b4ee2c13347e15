package game

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

var (
	// ErrUnknownBody is returned for contact events naming an id that is neither a live ball nor a wall.
	ErrUnknownBody = errors.New("unknown body id")
	// ErrCueBallMissing is returned when a shot arrives while the cue ball is off the table.
	ErrCueBallMissing = errors.New("cue ball is not on the table")
)

// Event types recorded in the engine's event log.
const (
	EventShot   = "shot"
	EventWall   = "wall"
	EventBall   = "ball"
	EventPocket = "pocket"
	EventReset  = "reset"
)

// CollisionEvent records something that happened on the table.
type CollisionEvent struct {
	Type     string  `json:"type"`
	BallID   BodyID  `json:"ball_id,omitempty"`
	TargetID BodyID  `json:"target_id,omitempty"`
	Speed    float64 `json:"speed"`
	Ratio    float64 `json:"ratio,omitempty"`
	Shot     int     `json:"shot"`
}

// ResolutionKind says what the engine did with a contact.
type ResolutionKind string

const (
	ResolutionDropped   ResolutionKind = "dropped"
	ResolutionDebounced ResolutionKind = "debounced"
	ResolutionWall      ResolutionKind = "wall"
	ResolutionBall      ResolutionKind = "ball"
	ResolutionPocket    ResolutionKind = "pocket"
)

// Resolution is the result of a begin-contact notification.
type Resolution struct {
	Kind     ResolutionKind `json:"kind"`
	Balls    []BodyID       `json:"balls,omitempty"`
	Pocketed BodyID         `json:"pocketed,omitempty"`
	Reset    bool           `json:"reset"`
	AStrikes bool           `json:"a_strikes,omitempty"`
}

// Shot is a drag on the table plane, in world axes, plus the table rotation
// measured for this shot.
type Shot struct {
	Start         Vector3 `json:"start"`
	End           Vector3 `json:"end"`
	WorldRotation float64 `json:"world_rotation"`
	// Axis is the first column of the hit-test transform. When set it
	// overrides WorldRotation.
	Axis          Vector3 `json:"axis,omitempty"`
}

// ShotResult describes the impulse given to the cue ball.
type ShotResult struct {
	Applied   bool    `json:"applied"`
	Speed     float64 `json:"speed"`
	Direction Vector3 `json:"direction"`
	Shot      int     `json:"shot"`
}

// TableSnapshot is a read-only copy of the table for rendering or persistence.
type TableSnapshot struct {
	Table         *Table      `json:"table"`
	Balls         []BallState `json:"balls"`
	WorldRotation float64     `json:"world_rotation"`
	Shots         int         `json:"shots"`
	Racks         int         `json:"racks"`
	Settled       bool        `json:"settled"`
}

// EngineOptions configures a new engine.
type EngineOptions struct {
	Table  TableOptions
	Tuning Tuning
	// Motion executes impulses. Defaults to a fresh Animator.
	Motion MotionExecutor
	Logger *log.Logger
	// Strict panics on invariant violations instead of logging and clamping.
	Strict bool
}

// advancer is implemented by executors that move balls in-process.
type advancer interface {
	Advance(dt float64) map[BodyID]Vector3
}

// Engine is the collision and motion-resolution core for one table. Every
// mutation happens under one mutex, so contact notifications may arrive from
// any goroutine but are resolved one pair at a time.
type Engine struct {
	mu       sync.Mutex
	table    *Table
	tuning   Tuning
	balls    map[BodyID]*Ball
	contacts *ContactSet
	motion   MotionExecutor
	resolver *Resolver
	logger   *log.Logger
	strict   bool

	// rotation is read by motion executors while mu is held.
	rotation atomic.Uint64
	shots    int
	racks    int
	events   []CollisionEvent
}

// NewEngine builds the table and racks the balls.
func NewEngine(opts EngineOptions) (*Engine, error) {
	table, err := NewTable(opts.Table)
	if err != nil {
		return nil, err
	}
	if opts.Tuning == (Tuning{}) {
		opts.Tuning = CanonicalTuning()
	}
	if err := opts.Tuning.Validate(); err != nil {
		return nil, err
	}
	if opts.Motion == nil {
		opts.Motion = NewAnimator()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "engine"})
	}

	e := &Engine{
		table:    table,
		tuning:   opts.Tuning,
		balls:    make(map[BodyID]*Ball),
		contacts: NewContactSet(),
		motion:   opts.Motion,
		resolver: NewResolver(opts.Motion, opts.Tuning, opts.Logger),
		logger:   opts.Logger,
		strict:   opts.Strict,
	}
	e.rack()
	return e, nil
}

// Table returns the table geometry.
func (e *Engine) Table() *Table { return e.table }

// Tuning returns the thresholds in use.
func (e *Engine) Tuning() Tuning { return e.tuning }

// WorldRotation returns the rotation measured on the last shot. It does not
// take the engine lock and may be called from a motion executor.
func (e *Engine) WorldRotation() float64 {
	return math.Float64frombits(e.rotation.Load())
}

func (e *Engine) setRotation(r float64) {
	e.rotation.Store(math.Float64bits(r))
}

// Shoot turns a drag into the cue ball's impulse. A drag without horizontal
// length is a no-op.
func (e *Engine) Shoot(s Shot) (ShotResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cue, ok := e.balls[CueBallID]
	if !ok {
		return ShotResult{}, ErrCueBallMissing
	}

	drag := s.End.Minus(s.Start)
	dir, err := drag.ProjectToHorizontalPlane()
	if err != nil {
		e.logger.Debug("ignoring zero-length shot", "start", s.Start, "end", s.End)
		return ShotResult{Applied: false, Shot: e.shots}, nil
	}
	speed := Vector3{X: drag.X, Z: drag.Z}.Length()

	rotation := s.WorldRotation
	if !s.Axis.IsZero() {
		rotation = RotationFromAxis(s.Axis)
	}
	e.setRotation(rotation)
	dir = dir.RotatedAboutVertical(-rotation)

	cue.SetMotion(speed, dir)
	e.motion.Cancel(cue.ID)
	e.motion.Issue(Impulse{
		Body:         cue.ID,
		Displacement: dir.Times(speed * MotionScale),
		Duration:     MotionDuration,
	})

	e.shots++
	e.record(CollisionEvent{Type: EventShot, BallID: cue.ID, Speed: speed})
	e.logger.Info("shot", "number", e.shots, "speed", speed, "direction", dir, "rotation", rotation)

	return ShotResult{Applied: true, Speed: speed, Direction: dir, Shot: e.shots}, nil
}

// ContactBegin resolves a begin-contact notification. Unknown ids are logged
// and dropped; a pair that is already touching is ignored until ContactEnd.
func (e *Engine) ContactBegin(c Contact) (Resolution, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	kindA, kindB := e.kind(c.A), e.kind(c.B)
	for _, p := range []struct {
		id   BodyID
		kind BodyKind
	}{{c.A, kindA}, {c.B, kindB}} {
		if p.kind == BodyUnknown {
			e.logger.Warn("dropping contact with unknown body", "a", c.A, "b", c.B, "unknown", p.id)
			return Resolution{Kind: ResolutionDropped}, fmt.Errorf("%w: %s", ErrUnknownBody, p.id)
		}
	}
	if c.A == c.B || (kindA == BodyWall && kindB == BodyWall) {
		e.logger.Warn("dropping contact between static bodies", "a", c.A, "b", c.B)
		return Resolution{Kind: ResolutionDropped}, nil
	}

	if !e.contacts.Begin(c.A, c.B) {
		e.logger.Debug("contact already handled", "a", c.A, "b", c.B)
		return Resolution{Kind: ResolutionDebounced}, nil
	}

	if kindA == BodyWall || kindB == BodyWall {
		ballID, wallID := c.A, c.B
		if kindA == BodyWall {
			ballID, wallID = c.B, c.A
		}
		wall, _ := e.table.Wall(wallID)
		return e.hitWall(e.balls[ballID], wall, c)
	}
	return e.hitBall(e.balls[c.A], e.balls[c.B], c)
}

// ContactEnd forgets a touching pair. Unknown or repeated pairs are ignored.
func (e *Engine) ContactEnd(a, b BodyID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.contacts.End(a, b)
}

func (e *Engine) hitWall(ball *Ball, wall Wall, c Contact) (Resolution, error) {
	local := e.table.ToLocal(c.Point, e.WorldRotation())
	pocketed, ratio, err := e.resolver.PocketTest(wall, local)
	if err != nil {
		e.violation(err)
		pocketed = false
	}

	if pocketed {
		speed := ball.Speed()
		reset := e.pocket(ball)
		e.record(CollisionEvent{Type: EventPocket, BallID: ball.ID, TargetID: wall.ID, Speed: speed, Ratio: ratio})
		if reset {
			e.resetLocked()
		}
		return Resolution{Kind: ResolutionPocket, Balls: []BodyID{ball.ID}, Pocketed: ball.ID, Reset: reset}, nil
	}

	out, err := e.resolver.Bounce(ball, c.Normal, e.WorldRotation())
	if err != nil {
		e.logger.Warn("dropping wall contact", "ball", ball.ID, "wall", wall.ID, "error", err)
		return Resolution{Kind: ResolutionDropped}, err
	}
	e.record(CollisionEvent{Type: EventWall, BallID: ball.ID, TargetID: wall.ID, Speed: out.Speed, Ratio: ratio})
	return Resolution{Kind: ResolutionWall, Balls: []BodyID{ball.ID}}, nil
}

func (e *Engine) hitBall(a, b *Ball, c Contact) (Resolution, error) {
	out, err := e.resolver.Collide(a, b, c.Normal, e.WorldRotation())
	if err != nil {
		e.logger.Warn("dropping ball contact", "a", a.ID, "b", b.ID, "error", err)
		return Resolution{Kind: ResolutionDropped}, err
	}
	e.record(CollisionEvent{Type: EventBall, BallID: a.ID, TargetID: b.ID, Speed: a.Speed()})
	e.record(CollisionEvent{Type: EventBall, BallID: b.ID, TargetID: a.ID, Speed: b.Speed()})
	return Resolution{Kind: ResolutionBall, Balls: []BodyID{a.ID, b.ID}, AStrikes: out.AStrikes}, nil
}

// pocket removes the ball and reports whether the table must be re-racked.
func (e *Engine) pocket(ball *Ball) bool {
	e.motion.Cancel(ball.ID)
	e.motion.Remove(ball.ID)
	e.contacts.Forget(ball.ID)
	ball.Alive = false
	ball.Stop()
	delete(e.balls, ball.ID)

	e.logger.Info("ball pocketed", "ball", ball.ID, "remaining", len(e.balls))
	return ball.Kind == CueBall || len(e.balls) <= 1
}

// ResetTable removes every ball and racks a fresh set.
func (e *Engine) ResetTable() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *Engine) resetLocked() {
	for id := range e.balls {
		e.motion.Cancel(id)
		e.motion.Remove(id)
	}
	e.balls = make(map[BodyID]*Ball)
	e.contacts.Clear()
	e.rack()
	e.record(CollisionEvent{Type: EventReset})
	e.logger.Info("table reset", "racks", e.racks)
}

func (e *Engine) rack() {
	t := e.table
	e.balls[CueBallID] = newBall(CueBallID, CueBall, 0, t.CuePosition(), t.BallRadius)
	for i, pos := range t.RackPositions() {
		id := TargetBallID(i + 1)
		e.balls[id] = newBall(id, TargetBall, i+1, pos, t.BallRadius)
	}
	e.racks++
}

// Advance moves balls along their running impulses by dt time units. It is a
// no-op when the motion executor runs outside the process.
func (e *Engine) Advance(dt float64) {
	adv, ok := e.motion.(advancer)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, delta := range adv.Advance(dt) {
		if b, ok := e.balls[id]; ok {
			b.Position = b.Position.Plus(delta)
		}
	}
}

// Settled reports whether no ball has an impulse running.
func (e *Engine) Settled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settledLocked()
}

func (e *Engine) settledLocked() bool {
	for id := range e.balls {
		if e.motion.InFlight(id) {
			return false
		}
	}
	return true
}

// Ball returns a copy of a live ball's state.
func (e *Engine) Ball(id BodyID) (BallState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.balls[id]
	if !ok {
		return BallState{}, false
	}
	st := b.State()
	st.Moving = e.motion.InFlight(id)
	return st, true
}

// Snapshot returns the live balls, cue ball first then targets by index.
func (e *Engine) Snapshot() TableSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	balls := make([]BallState, 0, len(e.balls))
	for id, b := range e.balls {
		st := b.State()
		st.Moving = e.motion.InFlight(id)
		balls = append(balls, st)
	}
	sort.Slice(balls, func(i, j int) bool { return balls[i].Index < balls[j].Index })

	return TableSnapshot{
		Table:         e.table,
		Balls:         balls,
		WorldRotation: e.WorldRotation(),
		Shots:         e.shots,
		Racks:         e.racks,
		Settled:       e.settledLocked(),
	}
}

// Restore replaces the balls with those of a snapshot. Restored balls are idle.
func (e *Engine) Restore(s TableSnapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id := range e.balls {
		e.motion.Cancel(id)
	}
	e.balls = make(map[BodyID]*Ball)
	e.contacts.Clear()
	for _, st := range s.Balls {
		if !st.Alive {
			continue
		}
		b := newBall(st.ID, st.Kind, st.Index, st.Position, e.table.BallRadius)
		e.balls[st.ID] = b
	}
	e.setRotation(s.WorldRotation)
	e.shots = s.Shots
	e.racks = s.Racks
}

// Events drains the event log.
func (e *Engine) Events() []CollisionEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	ev := e.events
	e.events = nil
	return ev
}

func (e *Engine) record(ev CollisionEvent) {
	ev.Shot = e.shots
	e.events = append(e.events, ev)
}

func (e *Engine) kind(id BodyID) BodyKind {
	if _, ok := e.balls[id]; ok {
		return BodyBall
	}
	if _, ok := e.table.Wall(id); ok {
		return BodyWall
	}
	return BodyUnknown
}

// violation handles a broken invariant: fatal when strict, logged otherwise.
func (e *Engine) violation(err error) {
	if e.strict {
		panic(err)
	}
	e.logger.Error("invariant violated", "error", err)
}
