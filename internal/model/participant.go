package model

import (
	"github.com/google/uuid"
)

// Participant is a session member. ConnectionID is the live transport
// identifier and is rebound on every successful join or
// reauthentication; SecretKey is issued once at creation and never
// reissued.
type Participant struct {
	BaseModel
	SessionID    uuid.UUID `gorm:"type:uuid;not null;index" json:"sessionId"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	ConnectionID string    `gorm:"type:varchar(64);not null;index:idx_participants_connection" json:"connectionId"`
	SecretKey    string    `gorm:"type:varchar(128);not null" json:"-"`
	ExternalID   *string   `gorm:"type:varchar(255)" json:"externalId,omitempty"`

	Votes []Vote `gorm:"foreignKey:ParticipantID;constraint:OnDelete:CASCADE" json:"votes,omitempty"`
}

func (Participant) TableName() string {
	return "participants"
}
