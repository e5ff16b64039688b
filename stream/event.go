package stream

import "fmt"

// EventType is the closed set of in-stream events a log can carry between
// frames, delivered through Decoder.OnLogEvent rather than through any
// frame's own field schema.
type EventType uint8

const (
	EventSyncBeep EventType = iota
	EventFlightModeChange
)

func (e EventType) String() string {
	switch e {
	case EventSyncBeep:
		return "SyncBeep"
	case EventFlightModeChange:
		return "FlightModeChange"
	default:
		return fmt.Sprintf("EventType(%d)", uint8(e))
	}
}

// LogEvent is the payload of one 'E' frame. Exactly one of
// SyncBeepTime/NewFlightMode is meaningful, selected by Type.
type LogEvent struct {
	Type EventType

	// SyncBeepTime is the microsecond timestamp the arming buzzer fired
	// at, valid when Type == EventSyncBeep.
	SyncBeepTime uint32

	// NewFlightMode is the flight-mode bitmask after the change, valid
	// when Type == EventFlightModeChange.
	NewFlightMode uint32
}
