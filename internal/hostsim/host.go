// Package hostsim is a small stand-in for the rendering engine that normally
// hosts a table. It animates balls through the engine's in-process animator,
// finds overlaps and reports begin/end contacts in world axes, the way a
// physics host would.
package hostsim

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/playmatatu/slamdunk/internal/game"
)

// DefaultStep is the time step used by Run.
const DefaultStep = 0.005

type pairKey struct {
	a, b game.BodyID
}

func keyOf(a, b game.BodyID) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}

// Host drives one engine. The engine must use an in-process motion executor.
type Host struct {
	engine   *game.Engine
	rotation float64
	touching map[pairKey]bool
	logger   *log.Logger

	Steps       int
	Resolutions []game.Resolution
}

// New creates a host that places the table at the given world rotation.
func New(engine *game.Engine, rotation float64, logger *log.Logger) *Host {
	if logger == nil {
		logger = log.Default()
	}
	return &Host{
		engine:   engine,
		rotation: rotation,
		touching: make(map[pairKey]bool),
		logger:   logger,
	}
}

// Shoot drags from the world origin to (dx, 0, dz).
func (h *Host) Shoot(dx, dz float64) (game.ShotResult, error) {
	return h.engine.Shoot(game.Shot{
		Start:         game.Vector3{},
		End:           game.Vector3{X: dx, Z: dz},
		WorldRotation: h.rotation,
	})
}

// Step advances the animation by dt and reports contact changes.
func (h *Host) Step(dt float64) error {
	h.engine.Advance(dt)
	h.Steps++

	current := h.detect()

	for key := range h.touching {
		if _, still := current[key]; !still {
			h.engine.ContactEnd(key.a, key.b)
			delete(h.touching, key)
		}
	}

	for key, c := range current {
		if h.touching[key] {
			continue
		}
		h.touching[key] = true
		res, err := h.engine.ContactBegin(c)
		if err != nil {
			h.logger.Warn("contact rejected", "a", c.A, "b", c.B, "error", err)
			continue
		}
		h.Resolutions = append(h.Resolutions, res)
		if res.Reset {
			// Every body was replaced; contacts start from scratch.
			h.touching = make(map[pairKey]bool)
			return nil
		}
	}
	return nil
}

// Run steps until every ball is at rest or maxSteps is reached.
func (h *Host) Run(dt float64, maxSteps int) error {
	for i := 0; i < maxSteps; i++ {
		if err := h.Step(dt); err != nil {
			return err
		}
		if h.engine.Settled() {
			return nil
		}
	}
	return fmt.Errorf("table did not settle after %d steps", maxSteps)
}

// detect finds every overlapping ball pair and every ball touching a wall.
func (h *Host) detect() map[pairKey]game.Contact {
	snap := h.engine.Snapshot()
	table := snap.Table
	r := table.BallRadius
	found := make(map[pairKey]game.Contact)

	for i, a := range snap.Balls {
		for _, b := range snap.Balls[i+1:] {
			delta := b.Position.Minus(a.Position)
			if delta.Length() >= 2*r {
				continue
			}
			n, err := delta.Normalized()
			if err != nil {
				n = game.DefaultDirection
			}
			mid := a.Position.Plus(delta.Times(0.5))
			found[keyOf(a.ID, b.ID)] = game.Contact{
				A:      a.ID,
				B:      b.ID,
				Point:  table.ToWorld(mid, h.rotation),
				Normal: n.RotatedAboutVertical(h.rotation),
			}
		}

		for _, w := range table.Walls {
			point, ok := wallContact(w, a.Position, r)
			if !ok {
				continue
			}
			found[keyOf(a.ID, w.ID)] = game.Contact{
				A:      a.ID,
				B:      w.ID,
				Point:  table.ToWorld(point, h.rotation),
				Normal: w.Normal.RotatedAboutVertical(h.rotation),
			}
		}
	}
	return found
}

// wallContact reports whether a ball at pos reaches the wall and where, in
// table-local axes.
func wallContact(w game.Wall, pos game.Vector3, r float64) (game.Vector3, bool) {
	// Distance from the wall line along its inward normal.
	dist := pos.Minus(w.Center).Dot(w.Normal)
	if dist > r {
		return game.Vector3{}, false
	}
	return pos.Minus(w.Normal.Times(dist)), true
}
