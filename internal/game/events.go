package game

import (
	"time"

	"github.com/sunnuls/TPb-sub002/poker"
)

// EventType represents a game event type with type safety
type EventType string

// EventType constants for session events. Commands return them in the
// order they happened; the caller decides how to deliver them.
const (
	EventTypeSessionInitialized EventType = "session_initialized"
	EventTypeActionRecorded     EventType = "action_recorded"
	EventTypeBoardUpdated       EventType = "board_updated"
	EventTypePlayerUpdated      EventType = "player_updated"
	EventTypeStreetChanged      EventType = "street_changed"
	EventTypeHandCompleted      EventType = "hand_completed"
	EventTypeSessionPaused      EventType = "session_paused"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// Event represents anything that happens to a session.
type Event interface {
	EventType() EventType
	Timestamp() time.Time
}

// SessionInitializedEvent is returned by NewSession.
type SessionInitializedEvent struct {
	Snapshot  Snapshot `json:"snapshot"`
	timestamp time.Time
}

func (e SessionInitializedEvent) EventType() EventType { return EventTypeSessionInitialized }
func (e SessionInitializedEvent) Timestamp() time.Time { return e.timestamp }

// ActionRecordedEvent is returned when an action joins the ledger.
type ActionRecordedEvent struct {
	Action    Action   `json:"action"`
	Snapshot  Snapshot `json:"snapshot"`
	timestamp time.Time
}

func (e ActionRecordedEvent) EventType() EventType { return EventTypeActionRecorded }
func (e ActionRecordedEvent) Timestamp() time.Time { return e.timestamp }

// BoardUpdatedEvent is returned when community cards are added.
type BoardUpdatedEvent struct {
	Cards        []poker.Card `json:"cards"`
	Street       Street       `json:"street"`
	BoardVersion int          `json:"boardVersion"`
	Snapshot     Snapshot     `json:"snapshot"`
	timestamp    time.Time
}

func (e BoardUpdatedEvent) EventType() EventType { return EventTypeBoardUpdated }
func (e BoardUpdatedEvent) Timestamp() time.Time { return e.timestamp }

// PlayerUpdatedEvent carries the new state of one player.
type PlayerUpdatedEvent struct {
	Player    Player `json:"player"`
	timestamp time.Time
}

func (e PlayerUpdatedEvent) EventType() EventType { return EventTypePlayerUpdated }
func (e PlayerUpdatedEvent) Timestamp() time.Time { return e.timestamp }

// StreetChangedEvent is returned when the session state moves between
// streets or into showdown.
type StreetChangedEvent struct {
	From      State `json:"from"`
	To        State `json:"to"`
	timestamp time.Time
}

func (e StreetChangedEvent) EventType() EventType { return EventTypeStreetChanged }
func (e StreetChangedEvent) Timestamp() time.Time { return e.timestamp }

// Completion reasons.
const (
	CompletedByFold     = "fold"
	CompletedByShowdown = "showdown"
)

// HandCompletedEvent is returned when the hand reaches Completed.
type HandCompletedEvent struct {
	Reason    string   `json:"reason"`
	Snapshot  Snapshot `json:"snapshot"`
	timestamp time.Time
}

func (e HandCompletedEvent) EventType() EventType { return EventTypeHandCompleted }
func (e HandCompletedEvent) Timestamp() time.Time { return e.timestamp }

// SessionPausedEvent is returned by Pause.
type SessionPausedEvent struct {
	From      State `json:"from"`
	timestamp time.Time
}

func (e SessionPausedEvent) EventType() EventType { return EventTypeSessionPaused }
func (e SessionPausedEvent) Timestamp() time.Time { return e.timestamp }
