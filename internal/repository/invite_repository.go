package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devpokerapp/devpoker-services/internal/model"
)

type InviteRepository interface {
	Create(ctx context.Context, invite *model.Invite) error
	// FindValid returns the invite matching code and session whose
	// expiry is strictly after now, or gorm.ErrRecordNotFound.
	FindValid(ctx context.Context, code string, sessionID uuid.UUID, now time.Time) (*model.Invite, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Invite, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type inviteRepository struct {
	db *gorm.DB
}

func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &inviteRepository{db: db}
}

func (r *inviteRepository) Create(ctx context.Context, invite *model.Invite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

func (r *inviteRepository) FindValid(ctx context.Context, code string, sessionID uuid.UUID, now time.Time) (*model.Invite, error) {
	var invite model.Invite
	err := r.db.WithContext(ctx).
		Where("code = ? AND session_id = ? AND expires_at > ?", code, sessionID, now).
		First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *inviteRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Invite, error) {
	var invites []model.Invite
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Find(&invites).Error
	return invites, err
}

func (r *inviteRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&model.Invite{})
	return res.RowsAffected, res.Error
}
