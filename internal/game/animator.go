package game

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// segment is one linear displacement driven by a 0..1 progress tween.
type segment struct {
	displacement Vector3
	tween        *gween.Tween
	progress     float32
}

// step advances the segment and returns the displacement covered during dt.
func (s *segment) step(dt float32) (Vector3, bool) {
	p, finished := s.tween.Update(dt)
	delta := s.displacement.Times(float64(p - s.progress))
	s.progress = p
	return delta, finished
}

type track struct {
	main  *segment
	nudge *segment
}

// Animator is the in-process MotionExecutor. It does not own positions; Advance
// reports how far each body moved and the caller applies it.
type Animator struct {
	tracks map[BodyID]*track
}

// NewAnimator creates an idle animator.
func NewAnimator() *Animator {
	return &Animator{tracks: make(map[BodyID]*track)}
}

func newSegment(imp Impulse) *segment {
	return &segment{
		displacement: imp.Displacement,
		tween:        gween.New(0, 1, float32(imp.Duration), ease.Linear),
	}
}

// Issue starts an impulse. A main impulse replaces the body's current main
// impulse; a nudge replaces only the current nudge.
func (a *Animator) Issue(imp Impulse) {
	tr, ok := a.tracks[imp.Body]
	if !ok {
		tr = &track{}
		a.tracks[imp.Body] = tr
	}
	if imp.Nudge {
		tr.nudge = newSegment(imp)
	} else {
		tr.main = newSegment(imp)
	}
}

// Cancel stops every impulse of the body, leaving it where it is.
func (a *Animator) Cancel(id BodyID) {
	delete(a.tracks, id)
}

// InFlight reports whether the body still has a main impulse running.
func (a *Animator) InFlight(id BodyID) bool {
	tr, ok := a.tracks[id]
	return ok && tr.main != nil
}

func (a *Animator) Remove(id BodyID) {
	delete(a.tracks, id)
}

// Busy reports whether any impulse is running.
func (a *Animator) Busy() bool {
	return len(a.tracks) > 0
}

// Advance moves every impulse forward by dt time units and returns the
// displacement each body covered.
func (a *Animator) Advance(dt float64) map[BodyID]Vector3 {
	moved := make(map[BodyID]Vector3, len(a.tracks))
	if dt <= 0 {
		return moved
	}
	step := float32(dt)
	for id, tr := range a.tracks {
		var total Vector3
		if tr.nudge != nil {
			d, done := tr.nudge.step(step)
			total = total.Plus(d)
			if done {
				tr.nudge = nil
			}
		}
		if tr.main != nil {
			d, done := tr.main.step(step)
			total = total.Plus(d)
			if done {
				tr.main = nil
			}
		}
		if tr.main == nil && tr.nudge == nil {
			delete(a.tracks, id)
		}
		moved[id] = total
	}
	return moved
}
