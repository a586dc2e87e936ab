package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devpokerapp/devpoker-services/internal/model"
)

type ParticipantRepository interface {
	Create(ctx context.Context, participant *model.Participant) error
	GetByID(ctx context.Context, participantID uuid.UUID) (*model.Participant, error)
	// LatestByConnectionID resolves the participant currently bound to
	// a connection id; among rows sharing the id, the most recently
	// updated one wins.
	LatestByConnectionID(ctx context.Context, connectionID string) (*model.Participant, error)
	UpdateConnectionID(ctx context.Context, participantID uuid.UUID, connectionID string) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Participant, error)
}

type participantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) ParticipantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) Create(ctx context.Context, participant *model.Participant) error {
	return r.db.WithContext(ctx).Create(participant).Error
}

func (r *participantRepository) GetByID(ctx context.Context, participantID uuid.UUID) (*model.Participant, error) {
	var participant model.Participant
	err := r.db.WithContext(ctx).First(&participant, "id = ?", participantID).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *participantRepository) LatestByConnectionID(ctx context.Context, connectionID string) (*model.Participant, error) {
	var participant model.Participant
	err := r.db.WithContext(ctx).
		Where("connection_id = ?", connectionID).
		Order("updated_at DESC").
		First(&participant).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *participantRepository) UpdateConnectionID(ctx context.Context, participantID uuid.UUID, connectionID string) error {
	// Stamp the recency marker with a Go-side value so it compares
	// cleanly against the timestamps gorm writes on create.
	return r.db.WithContext(ctx).Model(&model.Participant{}).
		Where("id = ?", participantID).
		Updates(map[string]interface{}{
			"connection_id": connectionID,
			"updated_at":    time.Now().UTC(),
		}).Error
}

func (r *participantRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Participant, error) {
	var participants []model.Participant
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&participants).Error
	return participants, err
}
