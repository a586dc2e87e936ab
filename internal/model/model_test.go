package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSession_VoteScale(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"default", DefaultVotePattern, []string{"0", "1", "2", "3", "5", "8", "13", "?", "coffee-break"}},
		{"tshirt", "S, M, L", []string{"S", "M", "L"}},
		{"trailing comma", "1,2,", []string{"1", "2"}},
		{"blanks dropped", " , 5 , ", []string{"5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Session{VotePattern: tt.pattern}
			assert.Equal(t, tt.want, s.VoteScale())
		})
	}
}

func TestSession_AllowsVote(t *testing.T) {
	s := Session{VotePattern: DefaultVotePattern}

	assert.True(t, s.AllowsVote("5"))
	assert.True(t, s.AllowsVote("coffee-break"))
	assert.True(t, s.AllowsVote("?"))
	assert.False(t, s.AllowsVote("4"))
	assert.False(t, s.AllowsVote(""))
	assert.False(t, s.AllowsVote("55"))
}

func TestValidEventType(t *testing.T) {
	for _, valid := range []EventType{EventTypeVote, EventTypeComment, EventTypeAction, EventTypeComplete, EventTypeRestart} {
		assert.True(t, ValidEventType(valid), string(valid))
	}
	assert.False(t, ValidEventType(EventType("poke")))
	assert.False(t, ValidEventType(EventType("")))
}

func TestInvite_Expired(t *testing.T) {
	now := time.Now()

	assert.False(t, (&Invite{ExpiresAt: now.Add(time.Minute)}).Expired(now))
	assert.True(t, (&Invite{ExpiresAt: now.Add(-time.Minute)}).Expired(now))
	// The boundary counts as expired.
	assert.True(t, (&Invite{ExpiresAt: now}).Expired(now))
}

func TestItemRoomName(t *testing.T) {
	id := uuid.New()
	item := Item{BaseModel: BaseModel{ID: id}}

	assert.Equal(t, "item:"+id.String(), item.RoomName())
	assert.Equal(t, item.RoomName(), ItemRoomName(id))
}

func TestRound_IsOpen(t *testing.T) {
	assert.True(t, (&Round{}).IsOpen())
	assert.False(t, (&Round{Completed: true}).IsOpen())
}
