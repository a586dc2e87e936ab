package model

import (
	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeVote     EventType = "vote"
	EventTypeComment  EventType = "comment"
	EventTypeAction   EventType = "action"
	EventTypeComplete EventType = "complete"
	EventTypeRestart  EventType = "restart"
)

// SystemCreator marks events appended by the server rather than a
// participant.
const SystemCreator = "system"

// ValidEventType reports whether t belongs to the fixed vocabulary.
func ValidEventType(t EventType) bool {
	switch t {
	case EventTypeVote, EventTypeComment, EventTypeAction, EventTypeComplete, EventTypeRestart:
		return true
	}
	return false
}

// Event is one append-only activity-log row for an item. Reveal flips
// the Revealed flag; rows are never deleted by the reveal protocol.
type Event struct {
	BaseModel
	ItemID    uuid.UUID `gorm:"type:uuid;not null;index:idx_events_item_created,priority:1" json:"itemId"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"sessionId"`
	Type      EventType `gorm:"type:varchar(20);not null" json:"type"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Creator   string    `gorm:"type:varchar(64);not null" json:"creator"`
	Revealed  bool      `gorm:"not null;default:false" json:"revealed"`
}

func (Event) TableName() string {
	return "events"
}
