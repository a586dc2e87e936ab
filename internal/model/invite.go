package model

import (
	"time"

	"github.com/google/uuid"
)

// Invite is a time-limited join code for a session. Invites are
// validated and purged, never updated; a session accumulates one per
// start action.
type Invite struct {
	BaseModel
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"sessionId"`
	Code      string    `gorm:"type:varchar(64);not null;index:idx_invites_code" json:"code"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expiresAt"`
}

func (Invite) TableName() string {
	return "invites"
}

// Expired reports whether the invite is unusable at now.
func (i *Invite) Expired(now time.Time) bool {
	return !i.ExpiresAt.After(now)
}
