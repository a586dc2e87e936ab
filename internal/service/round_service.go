package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/devpokerapp/devpoker-services/internal/apperror"
	"github.com/devpokerapp/devpoker-services/internal/metrics"
	"github.com/devpokerapp/devpoker-services/internal/model"
	"github.com/devpokerapp/devpoker-services/internal/repository"
)

// VotePlacedNotice is the item-room payload for a placed vote. Value
// is nil while the round is anonymous; who voted stays visible.
type VotePlacedNotice struct {
	RoundID       uuid.UUID `json:"roundId"`
	ParticipantID uuid.UUID `json:"participantId"`
	Value         *string   `json:"value,omitempty"`
}

type RoundService interface {
	// Open starts a voting round for the item. At most one open round
	// exists per item; opening over a live one is an input error.
	Open(ctx context.Context, itemID uuid.UUID) (*model.Round, error)
	// EnsureOpen is the idempotent variant used by the item-created
	// bus handler: it returns the existing open round when there is
	// one and opens a fresh round otherwise.
	EnsureOpen(ctx context.Context, itemID uuid.UUID) (*model.Round, error)
	Current(ctx context.Context, itemID uuid.UUID) (*model.Round, error)
	PlaceVote(ctx context.Context, connectionID string, roundID uuid.UUID, value string) (*model.Vote, error)
	// Complete closes the round with its final value and appends the
	// complete event in the same transaction.
	Complete(ctx context.Context, roundID uuid.UUID, value string) (*model.Round, error)
	// Restart closes the current round without a final value and opens
	// a fresh one for the same item.
	Restart(ctx context.Context, roundID uuid.UUID) (*model.Round, error)
	ListVotes(ctx context.Context, roundID uuid.UUID) ([]model.Vote, error)
}

type roundService struct {
	db              *gorm.DB
	roundRepo       repository.RoundRepository
	voteRepo        repository.VoteRepository
	itemRepo        repository.ItemRepository
	sessionRepo     repository.SessionRepository
	participantRepo repository.ParticipantRepository
	notifier        Notifier
	metrics         *metrics.Metrics
	logger          *zap.Logger
}

func NewRoundService(
	db *gorm.DB,
	roundRepo repository.RoundRepository,
	voteRepo repository.VoteRepository,
	itemRepo repository.ItemRepository,
	sessionRepo repository.SessionRepository,
	participantRepo repository.ParticipantRepository,
	notifier Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) RoundService {
	return &roundService{
		db:              db,
		roundRepo:       roundRepo,
		voteRepo:        voteRepo,
		itemRepo:        itemRepo,
		sessionRepo:     sessionRepo,
		participantRepo: participantRepo,
		notifier:        notifier,
		metrics:         m,
		logger:          logger,
	}
}

func (s *roundService) Open(ctx context.Context, itemID uuid.UUID) (*model.Round, error) {
	if _, err := s.roundRepo.CurrentOpen(ctx, itemID); err == nil {
		return nil, apperror.InvalidInput("item %s already has an open round", itemID)
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("failed to look up open round: %w", err)
	}
	return s.open(ctx, itemID)
}

func (s *roundService) EnsureOpen(ctx context.Context, itemID uuid.UUID) (*model.Round, error) {
	round, err := s.roundRepo.CurrentOpen(ctx, itemID)
	if err == nil {
		return round, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("failed to look up open round: %w", err)
	}
	return s.open(ctx, itemID)
}

func (s *roundService) open(ctx context.Context, itemID uuid.UUID) (*model.Round, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("item", itemID.String())
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}

	session, err := s.sessionRepo.GetByID(ctx, item.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	// The session's anonymity flag is copied onto the round so that
	// flipping it mid-session never rewrites history.
	round := &model.Round{
		ItemID:    itemID,
		SessionID: item.SessionID,
		Anonymous: session.Anonymous,
	}
	if err := s.roundRepo.Create(ctx, round); err != nil {
		return nil, fmt.Errorf("failed to create round: %w", err)
	}

	s.metrics.RoundsOpened.Inc()
	s.notifier.Broadcast(model.ItemRoomName(itemID), EventRoundOpened, round)

	s.logger.Info("Round opened",
		zap.String("round_id", round.ID.String()),
		zap.String("item_id", itemID.String()))

	return round, nil
}

func (s *roundService) Current(ctx context.Context, itemID uuid.UUID) (*model.Round, error) {
	round, err := s.roundRepo.CurrentOpen(ctx, itemID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("round", itemID.String())
		}
		return nil, fmt.Errorf("failed to look up open round: %w", err)
	}
	return round, nil
}

func (s *roundService) PlaceVote(ctx context.Context, connectionID string, roundID uuid.UUID, value string) (*model.Vote, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("round", roundID.String())
		}
		return nil, fmt.Errorf("failed to load round: %w", err)
	}
	if round.Completed {
		return nil, apperror.InvalidInput("round %s is already completed", roundID)
	}

	participant, err := s.participantRepo.LatestByConnectionID(ctx, connectionID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("participant", connectionID)
		}
		return nil, fmt.Errorf("failed to resolve participant: %w", err)
	}
	if participant.SessionID != round.SessionID {
		return nil, apperror.NotAllowed("participant %s does not belong to the round's session", participant.ID)
	}

	session, err := s.sessionRepo.GetByID(ctx, round.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !session.AllowsVote(value) {
		return nil, apperror.InvalidInput("value %q is not part of the session vote pattern", value)
	}

	vote := &model.Vote{
		RoundID:       roundID,
		ParticipantID: participant.ID,
		Value:         value,
	}
	if err := s.voteRepo.Upsert(ctx, vote); err != nil {
		return nil, fmt.Errorf("failed to place vote: %w", err)
	}

	s.metrics.VotesPlaced.Inc()

	notice := VotePlacedNotice{RoundID: roundID, ParticipantID: participant.ID}
	if !round.Anonymous {
		notice.Value = &vote.Value
	}
	s.notifier.Broadcast(model.ItemRoomName(round.ItemID), EventVotePlaced, notice)

	return vote, nil
}

func (s *roundService) Complete(ctx context.Context, roundID uuid.UUID, value string) (*model.Round, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("round", roundID.String())
		}
		return nil, fmt.Errorf("failed to load round: %w", err)
	}
	if round.Completed {
		return nil, apperror.InvalidInput("round %s is already completed", roundID)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rounds := repository.NewRoundRepository(tx)
		events := repository.NewEventRepository(tx)

		round.Completed = true
		round.Revealed = true
		round.Value = &value
		if err := rounds.Update(ctx, round); err != nil {
			return fmt.Errorf("failed to complete round: %w", err)
		}

		event := &model.Event{
			ItemID:    round.ItemID,
			SessionID: round.SessionID,
			Type:      model.EventTypeComplete,
			Content:   value,
			Creator:   model.SystemCreator,
			Revealed:  true,
		}
		if err := events.Create(ctx, event); err != nil {
			return fmt.Errorf("failed to append complete event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RoundsCompleted.Inc()
	s.notifier.Broadcast(model.ItemRoomName(round.ItemID), EventRoundCompleted, round)

	s.logger.Info("Round completed",
		zap.String("round_id", roundID.String()),
		zap.String("value", value))

	return round, nil
}

func (s *roundService) Restart(ctx context.Context, roundID uuid.UUID) (*model.Round, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("round", roundID.String())
		}
		return nil, fmt.Errorf("failed to load round: %w", err)
	}

	session, err := s.sessionRepo.GetByID(ctx, round.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	fresh := &model.Round{
		ItemID:    round.ItemID,
		SessionID: round.SessionID,
		Anonymous: session.Anonymous,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rounds := repository.NewRoundRepository(tx)
		events := repository.NewEventRepository(tx)

		if !round.Completed {
			round.Completed = true
			if err := rounds.Update(ctx, round); err != nil {
				return fmt.Errorf("failed to close round: %w", err)
			}
		}

		if err := rounds.Create(ctx, fresh); err != nil {
			return fmt.Errorf("failed to create round: %w", err)
		}

		event := &model.Event{
			ItemID:    round.ItemID,
			SessionID: round.SessionID,
			Type:      model.EventTypeRestart,
			Content:   fresh.ID.String(),
			Creator:   model.SystemCreator,
			Revealed:  true,
		}
		if err := events.Create(ctx, event); err != nil {
			return fmt.Errorf("failed to append restart event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RoundsRestarted.Inc()
	s.notifier.Broadcast(model.ItemRoomName(round.ItemID), EventRoundRestarted, fresh)

	s.logger.Info("Round restarted",
		zap.String("old_round_id", roundID.String()),
		zap.String("new_round_id", fresh.ID.String()))

	return fresh, nil
}

func (s *roundService) ListVotes(ctx context.Context, roundID uuid.UUID) ([]model.Vote, error) {
	if _, err := s.roundRepo.GetByID(ctx, roundID); err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("round", roundID.String())
		}
		return nil, fmt.Errorf("failed to load round: %w", err)
	}
	return s.voteRepo.ListByRound(ctx, roundID)
}
