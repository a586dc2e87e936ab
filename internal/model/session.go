package model

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultVotePattern is the vote scale assigned to sessions created
// without an explicit one.
const DefaultVotePattern = "0,1,2,3,5,8,13,?,coffee-break"

// Session is the aggregate root of one estimation meeting. It owns
// items, rounds, votes, events and invites.
type Session struct {
	BaseModel
	Creator       string     `gorm:"type:varchar(255);not null" json:"creator"`
	VotePattern   string     `gorm:"type:text;not null;default:'0,1,2,3,5,8,13,?,coffee-break'" json:"votePattern"`
	Anonymous     bool       `gorm:"not null;default:false" json:"anonymous"`
	CurrentItemID *uuid.UUID `gorm:"type:uuid" json:"currentItemId,omitempty"`
	// NextItemOrder backs the per-session display-order counter and is
	// only ever incremented atomically inside the item-create transaction.
	NextItemOrder int `gorm:"not null;default:0" json:"-"`

	Items        []Item        `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Participants []Participant `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
	Invites      []Invite      `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"invites,omitempty"`
}

func (Session) TableName() string {
	return "sessions"
}

// VoteScale returns the ordered list of allowed vote tokens.
func (s *Session) VoteScale() []string {
	tokens := strings.Split(s.VotePattern, ",")
	scale := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			scale = append(scale, tok)
		}
	}
	return scale
}

// AllowsVote reports whether value is a member of the session's scale.
func (s *Session) AllowsVote(value string) bool {
	for _, tok := range s.VoteScale() {
		if tok == value {
			return true
		}
	}
	return false
}
