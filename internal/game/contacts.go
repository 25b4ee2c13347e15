package game

// ContactSet records which bodies are currently touching. Pairs are stored in
// both directions so lookups never depend on argument order.
//
// A ContactSet is not safe for concurrent use; the Engine serializes access.
type ContactSet struct {
	touching map[BodyID]map[BodyID]struct{}
}

// NewContactSet creates an empty contact set.
func NewContactSet() *ContactSet {
	return &ContactSet{touching: make(map[BodyID]map[BodyID]struct{})}
}

// Begin registers the start of a contact between a and b. It returns true if
// the pair is new and should be resolved, false if it was already recorded.
func (cs *ContactSet) Begin(a, b BodyID) bool {
	if cs.Touching(a, b) {
		return false
	}
	cs.add(a, b)
	cs.add(b, a)
	return true
}

// End removes the pair. Ending an unknown pair is a no-op.
func (cs *ContactSet) End(a, b BodyID) {
	cs.remove(a, b)
	cs.remove(b, a)
}

// Touching reports whether the pair is recorded.
func (cs *ContactSet) Touching(a, b BodyID) bool {
	_, ok := cs.touching[a][b]
	return ok
}

// Forget drops every pair involving id. Used when a body leaves the table.
func (cs *ContactSet) Forget(id BodyID) {
	for other := range cs.touching[id] {
		cs.remove(other, id)
	}
	delete(cs.touching, id)
}

// Clear removes all pairs.
func (cs *ContactSet) Clear() {
	cs.touching = make(map[BodyID]map[BodyID]struct{})
}

// Len returns the number of recorded pairs.
func (cs *ContactSet) Len() int {
	n := 0
	for _, others := range cs.touching {
		n += len(others)
	}
	return n / 2
}

func (cs *ContactSet) add(a, b BodyID) {
	others, ok := cs.touching[a]
	if !ok {
		others = make(map[BodyID]struct{})
		cs.touching[a] = others
	}
	others[b] = struct{}{}
}

func (cs *ContactSet) remove(a, b BodyID) {
	others, ok := cs.touching[a]
	if !ok {
		return
	}
	delete(others, b)
	if len(others) == 0 {
		delete(cs.touching, a)
	}
}
