package game

// Impulse is a fixed-duration displacement command for one ball.
// Displacement is in table-local axes.
type Impulse struct {
	Body         BodyID  `json:"body"`
	Displacement Vector3 `json:"displacement"`
	Duration     float64 `json:"duration"`
	// Nudge marks the short corrective impulse issued after a wall bounce.
	// A nudge runs alongside the main impulse instead of replacing it.
	Nudge bool `json:"nudge"`
}

// MotionExecutor animates balls on behalf of the engine. Issuing a main
// impulse for a body replaces whatever main impulse it had; callers still
// Cancel first so that two impulses never race on one body.
type MotionExecutor interface {
	Issue(imp Impulse)
	Cancel(id BodyID)
	InFlight(id BodyID) bool
	Remove(id BodyID)
}

// Command types relayed to remote renderers.
const (
	CommandImpulse = "impulse"
	CommandCancel  = "cancel_impulse"
	CommandRemove  = "remove_body"
)

// MotionCommand is the wire form of a motion executor call.
type MotionCommand struct {
	Type              string  `json:"type"`
	Body              BodyID  `json:"body"`
	Displacement      Vector3 `json:"displacement"`
	WorldDisplacement Vector3 `json:"world_displacement"`
	Duration          float64 `json:"duration,omitempty"`
	Nudge             bool    `json:"nudge,omitempty"`
}

// CommandSink receives motion commands for a table, e.g. a websocket room.
type CommandSink interface {
	SendCommand(tableID string, cmd MotionCommand)
}

// Mirror executes motion locally and relays every command to a sink so remote
// renderers animate the same impulses in world axes.
type Mirror struct {
	Local    *Animator
	Sink     CommandSink
	TableID  string
	Rotation func() float64
}

func (m *Mirror) rotation() float64 {
	if m.Rotation == nil {
		return 0
	}
	return m.Rotation()
}

func (m *Mirror) Issue(imp Impulse) {
	m.Local.Issue(imp)
	if m.Sink != nil {
		m.Sink.SendCommand(m.TableID, MotionCommand{
			Type:              CommandImpulse,
			Body:              imp.Body,
			Displacement:      imp.Displacement,
			WorldDisplacement: imp.Displacement.RotatedAboutVertical(m.rotation()),
			Duration:          imp.Duration,
			Nudge:             imp.Nudge,
		})
	}
}

func (m *Mirror) Cancel(id BodyID) {
	m.Local.Cancel(id)
	if m.Sink != nil {
		m.Sink.SendCommand(m.TableID, MotionCommand{Type: CommandCancel, Body: id})
	}
}

func (m *Mirror) InFlight(id BodyID) bool {
	return m.Local.InFlight(id)
}

func (m *Mirror) Remove(id BodyID) {
	m.Local.Remove(id)
	if m.Sink != nil {
		m.Sink.SendCommand(m.TableID, MotionCommand{Type: CommandRemove, Body: id})
	}
}

// Advance moves the local animation forward; see Animator.Advance.
func (m *Mirror) Advance(dt float64) map[BodyID]Vector3 {
	return m.Local.Advance(dt)
}
