package gateway

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/devpokerapp/devpoker-services/internal/apperror"
	"github.com/devpokerapp/devpoker-services/internal/model"
	"github.com/devpokerapp/devpoker-services/internal/service"
)

type joinPayload struct {
	SessionID  uuid.UUID `json:"sessionId"`
	InviteCode string    `json:"inviteCode"`
	Name       string    `json:"name"`
}

type reauthenticatePayload struct {
	ParticipantID uuid.UUID `json:"participantId"`
	SecretKey     string    `json:"secretKey"`
}

type itemRefPayload struct {
	ItemID uuid.UUID `json:"itemId"`
}

type roundRefPayload struct {
	RoundID uuid.UUID `json:"roundId"`
}

type placeVotePayload struct {
	RoundID uuid.UUID `json:"roundId"`
	Value   string    `json:"value"`
}

type completeRoundPayload struct {
	RoundID uuid.UUID `json:"roundId"`
	Value   string    `json:"value"`
}

type commentPayload struct {
	ItemID  uuid.UUID `json:"itemId"`
	Content string    `json:"content"`
}

type sessionRefPayload struct {
	SessionID uuid.UUID `json:"sessionId"`
}

type selectItemPayload struct {
	SessionID uuid.UUID  `json:"sessionId"`
	ItemID    *uuid.UUID `json:"itemId"`
}

// RegisterRoutes wires every realtime operation into the dispatcher.
// Called once during startup; the table is closed afterwards.
func RegisterRoutes(
	d *Dispatcher,
	hub *Hub,
	participants service.ParticipantService,
	rounds service.RoundService,
	events service.EventService,
	sessions service.SessionService,
) {
	d.Register("participant", "join", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		var p joinPayload
		if err := decode(data, &p); err != nil {
			return nil, err
		}
		return participants.Join(ctx, connID, p.SessionID, p.InviteCode, p.Name)
	})

	d.Register("participant", "reauthenticate", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		var p reauthenticatePayload
		if err := decode(data, &p); err != nil {
			return nil, err
		}
		return participants.Reauthenticate(ctx, connID, p.ParticipantID, p.SecretKey)
	})

	d.Register("participant", "current", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		return participants.ResolveCurrent(ctx, connID)
	})

	d.Register("participant", "list", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		var p sessionRefPayload
		if err := decode(data, &p); err != nil {
			return nil, err
		}
		return participants.ListBySession(ctx, p.SessionID)
	})

	d.Register("round", "open", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		var p itemRefPayload
		if err := decode(data, &p); err != nil {
			return nil, err
		}
		return rounds.Open(ctx, p.ItemID)
	})

	d.Register("round", "current", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		var p itemRefPayload
		if err := decode(data, &p); err != nil {
			return nil, err
		}
		return rounds.Current(ctx, p.ItemID)
	})

	d.Register("round", "place_vote", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		var p placeVotePayload
		if err := decode(data, &p); err != nil {
			return nil, err
		}
		return rounds.PlaceVote(ctx, connID, p.RoundID, p.Value)
	})

	d.Register("round", "complete", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		var p completeRoundPayload
		if err := decode(data, &p); err != nil {
			return nil, err
		}
		return rounds.Complete(ctx, p.RoundID, p.Value)
	})

	d.Register("round", "restart", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		var p roundRefPayload
		if err := decode(data, &p); err != nil {
			return nil, err
		}
		return rounds.Restart(ctx, p.RoundID)
	})

	d.Register("round", "votes", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		var p roundRefPayload
		if err := decode(data, &p); err != nil {
			return nil, err
		}
		return rounds.ListVotes(ctx, p.RoundID)
	})

	d.Register("event", "comment", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		var p commentPayload
		if err := decode(data, &p); err != nil {
			return nil, err
		}
		return events.Comment(ctx, connID, p.ItemID, p.Content)
	})

	d.Register("event", "reveal", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		var p itemRefPayload
		if err := decode(data, &p); err != nil {
			return nil, err
		}
		return events.Reveal(ctx, p.ItemID)
	})

	d.Register("event", "list", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		var p itemRefPayload
		if err := decode(data, &p); err != nil {
			return nil, err
		}
		return events.ListByItem(ctx, p.ItemID)
	})

	d.Register("session", "select_item", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		var p selectItemPayload
		if err := decode(data, &p); err != nil {
			return nil, err
		}
		return sessions.SelectItem(ctx, p.SessionID, p.ItemID)
	})

	d.Register("session", "start", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		var p sessionRefPayload
		if err := decode(data, &p); err != nil {
			return nil, err
		}
		return sessions.Start(ctx, p.SessionID)
	})

	d.Register("session", "get", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		var p sessionRefPayload
		if err := decode(data, &p); err != nil {
			return nil, err
		}
		return sessions.Get(ctx, p.SessionID)
	})

	// Item rooms are opt-in: a connection watches the items it has on
	// screen and receives round/vote/event traffic only for those.
	d.Register("item", "watch", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		var p itemRefPayload
		if err := decode(data, &p); err != nil {
			return nil, err
		}
		hub.Subscribe(connID, model.ItemRoomName(p.ItemID))
		return map[string]any{"watching": p.ItemID}, nil
	})

	d.Register("item", "unwatch", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		var p itemRefPayload
		if err := decode(data, &p); err != nil {
			return nil, err
		}
		hub.Unsubscribe(connID, model.ItemRoomName(p.ItemID))
		return map[string]any{"watching": nil}, nil
	})
}

func decode(data json.RawMessage, into any) error {
	if len(data) == 0 {
		return apperror.Validation("missing request data")
	}
	if err := json.Unmarshal(data, into); err != nil {
		return apperror.Validation("malformed request data: %v", err)
	}
	return nil
}
