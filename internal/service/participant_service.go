package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devpokerapp/devpoker-services/internal/apperror"
	"github.com/devpokerapp/devpoker-services/internal/model"
	"github.com/devpokerapp/devpoker-services/internal/repository"
)

// JoinResult carries the created participant plus the secret key. The
// key is returned exactly once, here; it is never serialized with the
// participant afterwards.
type JoinResult struct {
	Participant model.Participant `json:"participant"`
	SecretKey   string            `json:"secretKey"`
}

type ParticipantService interface {
	// ResolveCurrent maps a live connection to its participant. When
	// several participant rows share the connection id, the most
	// recently updated one wins.
	ResolveCurrent(ctx context.Context, connectionID string) (*model.Participant, error)
	Join(ctx context.Context, connectionID string, sessionID uuid.UUID, inviteCode, name string) (*JoinResult, error)
	// Reauthenticate rebinds an existing participant to a new
	// connection after proving possession of the secret key. On a key
	// mismatch the stored connection id is left untouched.
	Reauthenticate(ctx context.Context, connectionID string, participantID uuid.UUID, secretKey string) (*model.Participant, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Participant, error)
}

type participantService struct {
	participantRepo repository.ParticipantRepository
	sessionRepo     repository.SessionRepository
	invites         InviteService
	notifier        Notifier
	logger          *zap.Logger
}

func NewParticipantService(
	participantRepo repository.ParticipantRepository,
	sessionRepo repository.SessionRepository,
	invites InviteService,
	notifier Notifier,
	logger *zap.Logger,
) ParticipantService {
	return &participantService{
		participantRepo: participantRepo,
		sessionRepo:     sessionRepo,
		invites:         invites,
		notifier:        notifier,
		logger:          logger,
	}
}

func (s *participantService) ResolveCurrent(ctx context.Context, connectionID string) (*model.Participant, error) {
	participant, err := s.participantRepo.LatestByConnectionID(ctx, connectionID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("participant", connectionID)
		}
		return nil, fmt.Errorf("failed to resolve participant: %w", err)
	}
	return participant, nil
}

func (s *participantService) Join(ctx context.Context, connectionID string, sessionID uuid.UUID, inviteCode, name string) (*JoinResult, error) {
	if name == "" {
		return nil, apperror.InvalidInput("participant name must not be empty")
	}

	if _, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("session", sessionID.String())
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	ok, err := s.invites.Validate(ctx, inviteCode, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.InvalidInviteCode()
	}

	secretKey, err := generateSecretKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate secret key: %w", err)
	}

	participant := &model.Participant{
		SessionID:    sessionID,
		Name:         name,
		ConnectionID: connectionID,
		SecretKey:    secretKey,
	}
	if err := s.participantRepo.Create(ctx, participant); err != nil {
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}

	s.notifier.Subscribe(connectionID, sessionID.String())
	s.notifier.Broadcast(sessionID.String(), EventParticipantJoined, participant)

	s.logger.Info("Participant joined",
		zap.String("participant_id", participant.ID.String()),
		zap.String("session_id", sessionID.String()))

	return &JoinResult{Participant: *participant, SecretKey: secretKey}, nil
}

func (s *participantService) Reauthenticate(ctx context.Context, connectionID string, participantID uuid.UUID, secretKey string) (*model.Participant, error) {
	participant, err := s.participantRepo.GetByID(ctx, participantID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("participant", participantID.String())
		}
		return nil, fmt.Errorf("failed to load participant: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(participant.SecretKey), []byte(secretKey)) != 1 {
		return nil, apperror.NotAllowed("secret key does not match participant %s", participantID)
	}

	if err := s.participantRepo.UpdateConnectionID(ctx, participantID, connectionID); err != nil {
		return nil, fmt.Errorf("failed to rebind connection: %w", err)
	}
	participant.ConnectionID = connectionID

	s.notifier.Subscribe(connectionID, participant.SessionID.String())
	s.notifier.Broadcast(participant.SessionID.String(), EventParticipantRejoined, participant)

	s.logger.Info("Participant reauthenticated",
		zap.String("participant_id", participantID.String()),
		zap.String("session_id", participant.SessionID.String()))

	return participant, nil
}

func (s *participantService) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Participant, error) {
	return s.participantRepo.ListBySession(ctx, sessionID)
}

// generateSecretKey returns 32 random bytes hex-encoded (64 chars).
func generateSecretKey() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
