// Package sse implements Server-Sent Events for real-time ranking updates and event broadcasting.
package sse

import (
	"time"

	"github.com/takurot/baseball-speedgun/internal/domain"
)

// EventType represents the type of SSE event.
type EventType string

const (
	// EventRecordCreated represents a new date-record.
	EventRecordCreated EventType = "record.created"
	// EventRecordUpdated represents a date-record whose speed was raised.
	EventRecordUpdated EventType = "record.updated"
	// EventRecordDeleted represents a date-record deletion.
	EventRecordDeleted EventType = "record.deleted"
	// EventRecordRestored represents a record brought back by undo.
	EventRecordRestored EventType = "record.restored"

	// EventPlayerUpdated represents a change to a player aggregate.
	EventPlayerUpdated EventType = "player.updated"
	// EventPlayerDeleted represents a player aggregate disappearing,
	// either through cascade or explicit deletion.
	EventPlayerDeleted EventType = "player.deleted"

	// EventShareCreated represents a new public share snapshot.
	EventShareCreated EventType = "share.created"
	// EventShareDeleted represents a share being disabled.
	EventShareDeleted EventType = "share.deleted"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"` // Event-specific data as JSON object
	Type      EventType `json:"type"`

	// When set, the event is only delivered to clients of this user.
	// Empty string means "broadcast to all".
	UserID string `json:"-"`
}

// RecordEventData is the data payload for record create/update/restore
// events. Carries the recomputed aggregate so clients can render
// without a follow-up query.
type RecordEventData struct {
	Record domain.DateRecord `json:"record"`
	Player domain.Player     `json:"player"`
}

// RecordDeletedEventData is the data payload for record delete events.
// Player is nil when the deletion cascaded the aggregate away.
type RecordDeletedEventData struct {
	PlayerName string         `json:"player_name"`
	Date       string         `json:"date"`
	DeletedAt  time.Time      `json:"deleted_at"`
	Player     *domain.Player `json:"player,omitempty"`
}

// PlayerDeletedEventData is the data payload for player delete events.
type PlayerDeletedEventData struct {
	Name      string    `json:"name"`
	DeletedAt time.Time `json:"deleted_at"`
}

// ShareEventData is the data payload for share events.
type ShareEventData struct {
	ShareID string `json:"share_id"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Timestamp: now,
		Data:      HeartbeatEventData{ServerTime: now},
	}
}

// NewRecordEvent creates a record create/update/restore event for one user.
func NewRecordEvent(eventType EventType, userID string, record domain.DateRecord, player domain.Player) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		UserID:    userID,
		Data:      RecordEventData{Record: record, Player: player},
	}
}

// NewRecordDeletedEvent creates a record deletion event for one user.
func NewRecordDeletedEvent(userID, playerName, date string, player *domain.Player) Event {
	now := time.Now()
	return Event{
		Type:      EventRecordDeleted,
		Timestamp: now,
		UserID:    userID,
		Data: RecordDeletedEventData{
			PlayerName: playerName,
			Date:       date,
			DeletedAt:  now,
			Player:     player,
		},
	}
}

// NewPlayerUpdatedEvent creates a player aggregate change event for one user.
func NewPlayerUpdatedEvent(userID string, player domain.Player) Event {
	return Event{
		Type:      EventPlayerUpdated,
		Timestamp: time.Now(),
		UserID:    userID,
		Data:      player,
	}
}

// NewPlayerDeletedEvent creates a player deletion event for one user.
func NewPlayerDeletedEvent(userID, name string) Event {
	now := time.Now()
	return Event{
		Type:      EventPlayerDeleted,
		Timestamp: now,
		UserID:    userID,
		Data:      PlayerDeletedEventData{Name: name, DeletedAt: now},
	}
}

// NewShareEvent creates a share lifecycle event for one user.
func NewShareEvent(eventType EventType, userID, shareID string) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		UserID:    userID,
		Data:      ShareEventData{ShareID: shareID},
	}
}
