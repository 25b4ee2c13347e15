package game

import (
	"io"

	"github.com/charmbracelet/log"
)

// recorder is a MotionExecutor that only remembers what it was asked to do.
type recorder struct {
	issued    []Impulse
	cancelled []BodyID
	removed   []BodyID
	inFlight  map[BodyID]bool
}

func newRecorder() *recorder {
	return &recorder{inFlight: make(map[BodyID]bool)}
}

func (r *recorder) Issue(imp Impulse) {
	r.issued = append(r.issued, imp)
	if !imp.Nudge {
		r.inFlight[imp.Body] = true
	}
}

func (r *recorder) Cancel(id BodyID) {
	r.cancelled = append(r.cancelled, id)
	delete(r.inFlight, id)
}

func (r *recorder) InFlight(id BodyID) bool { return r.inFlight[id] }

func (r *recorder) Remove(id BodyID) {
	r.removed = append(r.removed, id)
	delete(r.inFlight, id)
}

func (r *recorder) mains(id BodyID) []Impulse {
	var out []Impulse
	for _, imp := range r.issued {
		if imp.Body == id && !imp.Nudge {
			out = append(out, imp)
		}
	}
	return out
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}
