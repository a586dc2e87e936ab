package service

// Notifier is the realtime fanout surface the services push through.
// The gateway hub implements it; tests use a recording fake.
type Notifier interface {
	Subscribe(connectionID, room string)
	Unsubscribe(connectionID, room string)
	Unicast(connectionID, event string, data any)
	Broadcast(room, event string, data any)
}

// Realtime event names pushed to rooms. Session-room events go to the
// room named by the session id; item-room events go to "item:<id>".
const (
	EventParticipantJoined   = "participant_joined"
	EventParticipantRejoined = "participant_rejoined"
	EventPokerStarted        = "poker_started"
	EventStorySelected       = "story_selected"
	EventStoryCreated        = "story_created"
	EventStoryUpdated        = "story_updated"
	EventStoryDeleted        = "story_deleted"
	EventStoryRevealed       = "story_revealed"
	EventRoundOpened         = "round_opened"
	EventRoundCompleted      = "round_completed"
	EventRoundRestarted      = "round_restarted"
	EventVotePlaced          = "vote_placed"
	EventCommentAdded        = "comment_added"
)
