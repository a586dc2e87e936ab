package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devpokerapp/devpoker-services/internal/apperror"
	"github.com/devpokerapp/devpoker-services/internal/model"
	"github.com/devpokerapp/devpoker-services/internal/repository"
)

// StartResult bundles what the start operation hands back to the
// caller: the session plus a fresh invite to share.
type StartResult struct {
	Session model.Session `json:"session"`
	Invite  model.Invite  `json:"invite"`
}

// StorySelectedNotice is the session-room payload for item selection.
type StorySelectedNotice struct {
	SessionID uuid.UUID  `json:"sessionId"`
	ItemID    *uuid.UUID `json:"itemId"`
}

type SessionService interface {
	Create(ctx context.Context, creator, votePattern string, anonymous bool) (*model.Session, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*model.Session, error)
	Update(ctx context.Context, sessionID uuid.UUID, votePattern string, anonymous bool) (*model.Session, error)
	// SelectItem moves the session's current-item pointer. A nil item
	// id clears it.
	SelectItem(ctx context.Context, sessionID uuid.UUID, itemID *uuid.UUID) (*model.Session, error)
	// Start issues a fresh invite for the session and announces the
	// meeting to the session room. Invites accumulate: starting twice
	// leaves both codes valid until they expire.
	Start(ctx context.Context, sessionID uuid.UUID) (*StartResult, error)
}

type sessionService struct {
	sessionRepo repository.SessionRepository
	itemRepo    repository.ItemRepository
	invites     InviteService
	notifier    Notifier
	logger      *zap.Logger
}

func NewSessionService(
	sessionRepo repository.SessionRepository,
	itemRepo repository.ItemRepository,
	invites InviteService,
	notifier Notifier,
	logger *zap.Logger,
) SessionService {
	return &sessionService{
		sessionRepo: sessionRepo,
		itemRepo:    itemRepo,
		invites:     invites,
		notifier:    notifier,
		logger:      logger,
	}
}

func (s *sessionService) Create(ctx context.Context, creator, votePattern string, anonymous bool) (*model.Session, error) {
	if creator == "" {
		return nil, apperror.InvalidInput("session creator must not be empty")
	}
	if votePattern == "" {
		votePattern = model.DefaultVotePattern
	}

	session := &model.Session{
		Creator:     creator,
		VotePattern: votePattern,
		Anonymous:   anonymous,
	}
	if len(session.VoteScale()) == 0 {
		return nil, apperror.InvalidInput("vote pattern %q contains no values", votePattern)
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("Session created",
		zap.String("session_id", session.ID.String()),
		zap.String("creator", creator))

	return session, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID uuid.UUID) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("session", sessionID.String())
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

func (s *sessionService) Update(ctx context.Context, sessionID uuid.UUID, votePattern string, anonymous bool) (*model.Session, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if votePattern != "" {
		session.VotePattern = votePattern
		if len(session.VoteScale()) == 0 {
			return nil, apperror.InvalidInput("vote pattern %q contains no values", votePattern)
		}
	}
	session.Anonymous = anonymous

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return session, nil
}

func (s *sessionService) SelectItem(ctx context.Context, sessionID uuid.UUID, itemID *uuid.UUID) (*model.Session, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if itemID != nil {
		item, err := s.itemRepo.GetByID(ctx, *itemID)
		if err != nil {
			if isNotFound(err) {
				return nil, apperror.NotFound("item", itemID.String())
			}
			return nil, fmt.Errorf("failed to load item: %w", err)
		}
		if item.SessionID != sessionID {
			return nil, apperror.InvalidInput("item %s belongs to a different session", itemID)
		}
	}

	if err := s.sessionRepo.SetCurrentItem(ctx, sessionID, itemID); err != nil {
		return nil, fmt.Errorf("failed to select item: %w", err)
	}
	session.CurrentItemID = itemID

	s.notifier.Broadcast(sessionID.String(), EventStorySelected, StorySelectedNotice{
		SessionID: sessionID,
		ItemID:    itemID,
	})

	return session, nil
}

func (s *sessionService) Start(ctx context.Context, sessionID uuid.UUID) (*StartResult, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	invite, err := s.invites.Issue(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.notifier.Broadcast(sessionID.String(), EventPokerStarted, session)

	s.logger.Info("Session started",
		zap.String("session_id", sessionID.String()))

	return &StartResult{Session: *session, Invite: *invite}, nil
}
