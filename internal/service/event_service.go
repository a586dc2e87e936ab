package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devpokerapp/devpoker-services/internal/apperror"
	"github.com/devpokerapp/devpoker-services/internal/metrics"
	"github.com/devpokerapp/devpoker-services/internal/model"
	"github.com/devpokerapp/devpoker-services/internal/repository"
)

// RevealContent is the content stamped on the system action event that
// closes a reveal.
const RevealContent = "reveal"

type EventService interface {
	// Append adds one activity-log entry to the item's timeline.
	Append(ctx context.Context, itemID uuid.UUID, eventType model.EventType, content, creator string, revealed bool) (*model.Event, error)
	// Comment appends a participant comment resolved from the live
	// connection and broadcasts it to the item room.
	Comment(ctx context.Context, connectionID string, itemID uuid.UUID, content string) (*model.Event, error)
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.Event, error)
	ListUnrevealed(ctx context.Context, itemID uuid.UUID) ([]model.Event, error)
	// Reveal flips every unrevealed event of the item in creation
	// order, appends the closing system action event and broadcasts
	// the revealed timeline. Rows flip one at a time: a mid-loop
	// failure leaves earlier rows revealed and later ones hidden, and
	// a retry picks up from the remainder.
	Reveal(ctx context.Context, itemID uuid.UUID) ([]model.Event, error)
}

type eventService struct {
	eventRepo       repository.EventRepository
	itemRepo        repository.ItemRepository
	participantRepo repository.ParticipantRepository
	notifier        Notifier
	metrics         *metrics.Metrics
	logger          *zap.Logger
}

func NewEventService(
	eventRepo repository.EventRepository,
	itemRepo repository.ItemRepository,
	participantRepo repository.ParticipantRepository,
	notifier Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) EventService {
	return &eventService{
		eventRepo:       eventRepo,
		itemRepo:        itemRepo,
		participantRepo: participantRepo,
		notifier:        notifier,
		metrics:         m,
		logger:          logger,
	}
}

func (s *eventService) Append(ctx context.Context, itemID uuid.UUID, eventType model.EventType, content, creator string, revealed bool) (*model.Event, error) {
	if !model.ValidEventType(eventType) {
		return nil, apperror.InvalidInput("unknown event type %q", eventType)
	}

	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("item", itemID.String())
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}

	event := &model.Event{
		ItemID:    itemID,
		SessionID: item.SessionID,
		Type:      eventType,
		Content:   content,
		Creator:   creator,
		Revealed:  revealed,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to append event: %w", err)
	}

	s.metrics.EventsAppended.Inc()
	return event, nil
}

func (s *eventService) Comment(ctx context.Context, connectionID string, itemID uuid.UUID, content string) (*model.Event, error) {
	if content == "" {
		return nil, apperror.InvalidInput("comment content must not be empty")
	}

	participant, err := s.participantRepo.LatestByConnectionID(ctx, connectionID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("participant", connectionID)
		}
		return nil, fmt.Errorf("failed to resolve participant: %w", err)
	}

	event, err := s.Append(ctx, itemID, model.EventTypeComment, content, participant.ID.String(), true)
	if err != nil {
		return nil, err
	}

	s.notifier.Broadcast(model.ItemRoomName(itemID), EventCommentAdded, event)
	return event, nil
}

func (s *eventService) ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.Event, error) {
	if err := s.checkItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.eventRepo.ListByItem(ctx, itemID)
}

func (s *eventService) ListUnrevealed(ctx context.Context, itemID uuid.UUID) ([]model.Event, error) {
	if err := s.checkItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.eventRepo.ListUnrevealedByItem(ctx, itemID)
}

func (s *eventService) Reveal(ctx context.Context, itemID uuid.UUID) ([]model.Event, error) {
	if err := s.checkItem(ctx, itemID); err != nil {
		return nil, err
	}

	pending, err := s.eventRepo.ListUnrevealedByItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unrevealed events: %w", err)
	}

	for i := range pending {
		if err := s.eventRepo.MarkRevealed(ctx, pending[i].ID); err != nil {
			return nil, fmt.Errorf("failed to reveal event %s: %w", pending[i].ID, err)
		}
		pending[i].Revealed = true
	}

	marker, err := s.Append(ctx, itemID, model.EventTypeAction, RevealContent, model.SystemCreator, true)
	if err != nil {
		return nil, err
	}
	revealed := append(pending, *marker)

	s.notifier.Broadcast(model.ItemRoomName(itemID), EventStoryRevealed, revealed)

	s.logger.Info("Item revealed",
		zap.String("item_id", itemID.String()),
		zap.Int("events", len(pending)))

	return revealed, nil
}

func (s *eventService) checkItem(ctx context.Context, itemID uuid.UUID) error {
	if _, err := s.itemRepo.GetByID(ctx, itemID); err != nil {
		if isNotFound(err) {
			return apperror.NotFound("item", itemID.String())
		}
		return fmt.Errorf("failed to load item: %w", err)
	}
	return nil
}
