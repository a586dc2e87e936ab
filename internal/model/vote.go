package model

import (
	"github.com/google/uuid"
)

// Vote is one participant's value for a round. The unique index backs
// the insert-or-update write path in the round engine.
type Vote struct {
	BaseModel
	RoundID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_round_participant,priority:1" json:"roundId"`
	ParticipantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_round_participant,priority:2" json:"participantId"`
	Value         string    `gorm:"type:varchar(64);not null" json:"value"`
}

func (Vote) TableName() string {
	return "votes"
}
