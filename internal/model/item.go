package model

import (
	"github.com/google/uuid"
)

// Item is a single estimation subject within a session. DisplayOrder is
// monotonic per session, assigned from the session's counter at create
// time.
type Item struct {
	BaseModel
	SessionID    uuid.UUID `gorm:"type:uuid;not null;index:idx_items_session_order,priority:1" json:"sessionId"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description,omitempty"`
	DisplayOrder int       `gorm:"not null;index:idx_items_session_order,priority:2" json:"displayOrder"`
	Value        *string   `gorm:"type:varchar(64)" json:"value,omitempty"`

	Rounds []Round `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"rounds,omitempty"`
	Events []Event `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"events,omitempty"`
}

func (Item) TableName() string {
	return "items"
}

// RoomName is the broadcast scope for everything concerning this item.
func (i *Item) RoomName() string {
	return ItemRoomName(i.ID)
}

// ItemRoomName builds the room identifier for an item id.
func ItemRoomName(itemID uuid.UUID) string {
	return "item:" + itemID.String()
}
