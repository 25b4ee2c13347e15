package game

// TableStatus represents the lifecycle state of a table session
type TableStatus string

const (
	StatusOpen   TableStatus = "OPEN"
	StatusClosed TableStatus = "CLOSED"
)

// Close reasons recorded with a closed table.
const (
	CloseReasonHost = "host"
	CloseReasonIdle = "idle"
)
