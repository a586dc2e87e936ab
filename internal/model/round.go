package model

import (
	"github.com/google/uuid"
)

// Round is one voting cycle on an item. SessionID is denormalized from
// the item so room lookups don't need a join. At most one round per
// item is open (completed=false) at a time; the engine, not the
// database, enforces that.
type Round struct {
	BaseModel
	ItemID    uuid.UUID `gorm:"type:uuid;not null;index:idx_rounds_item_created,priority:1" json:"itemId"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"sessionId"`
	Value     *string   `gorm:"type:varchar(64)" json:"value,omitempty"`
	Completed bool      `gorm:"not null;default:false" json:"completed"`
	Revealed  bool      `gorm:"not null;default:false" json:"revealed"`
	// Anonymous is copied from the session at round creation so a
	// mid-round scale/flag change never alters an in-flight round.
	Anonymous bool `gorm:"not null;default:false" json:"anonymous"`

	Votes []Vote `gorm:"foreignKey:RoundID;constraint:OnDelete:CASCADE" json:"votes,omitempty"`
}

func (Round) TableName() string {
	return "rounds"
}

func (r *Round) IsOpen() bool {
	return !r.Completed
}
