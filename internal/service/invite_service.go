package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devpokerapp/devpoker-services/internal/metrics"
	"github.com/devpokerapp/devpoker-services/internal/model"
	"github.com/devpokerapp/devpoker-services/internal/repository"
)

const inviteCodeLength = 48

// inviteCodeAlphabet avoids ambiguous glyphs: no 0/O/o, 1/I/i, l/L.
const inviteCodeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz"

type InviteService interface {
	// Issue creates a fresh invite for the session with an absolute
	// expiry of now+ttl. Issued codes accumulate; older valid codes
	// keep working until they expire.
	Issue(ctx context.Context, sessionID uuid.UUID) (*model.Invite, error)
	// Validate reports whether code admits a participant into the
	// session right now. A missing or expired code is false, not an
	// error; only storage failures return a non-nil error.
	Validate(ctx context.Context, code string, sessionID uuid.UUID) (bool, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Invite, error)
}

type inviteService struct {
	inviteRepo repository.InviteRepository
	ttl        time.Duration
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewInviteService(inviteRepo repository.InviteRepository, ttl time.Duration, m *metrics.Metrics, logger *zap.Logger) InviteService {
	return &inviteService{
		inviteRepo: inviteRepo,
		ttl:        ttl,
		metrics:    m,
		logger:     logger,
	}
}

func (s *inviteService) Issue(ctx context.Context, sessionID uuid.UUID) (*model.Invite, error) {
	code, err := generateInviteCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite code: %w", err)
	}

	invite := &model.Invite{
		SessionID: sessionID,
		Code:      code,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	}

	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	s.metrics.InvitesIssued.Inc()
	s.logger.Info("Invite issued",
		zap.String("session_id", sessionID.String()),
		zap.Time("expires_at", invite.ExpiresAt))

	return invite, nil
}

func (s *inviteService) Validate(ctx context.Context, code string, sessionID uuid.UUID) (bool, error) {
	_, err := s.inviteRepo.FindValid(ctx, code, sessionID, time.Now().UTC())
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up invite: %w", err)
	}
	return true, nil
}

func (s *inviteService) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Invite, error) {
	return s.inviteRepo.ListBySession(ctx, sessionID)
}

// generateInviteCode draws every character independently from the
// unambiguous alphabet using crypto/rand.
func generateInviteCode() (string, error) {
	max := big.NewInt(int64(len(inviteCodeAlphabet)))
	code := make([]byte, inviteCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = inviteCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
