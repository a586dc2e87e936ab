package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/devpokerapp/devpoker-services/internal/model"
)

type VoteRepository interface {
	// Upsert inserts the vote or, when the (round, participant) pair
	// already voted, replaces the value. The conflict target is the
	// unique index on votes, so concurrent first votes cannot produce
	// two rows.
	Upsert(ctx context.Context, vote *model.Vote) error
	GetByRoundAndParticipant(ctx context.Context, roundID, participantID uuid.UUID) (*model.Vote, error)
	ListByRound(ctx context.Context, roundID uuid.UUID) ([]model.Vote, error)
	CountByRound(ctx context.Context, roundID uuid.UUID) (int64, error)
}

type voteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) Upsert(ctx context.Context, vote *model.Vote) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "round_id"}, {Name: "participant_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      vote.Value,
			"updated_at": time.Now().UTC(),
		}),
	}).Create(vote).Error
}

func (r *voteRepository) GetByRoundAndParticipant(ctx context.Context, roundID, participantID uuid.UUID) (*model.Vote, error) {
	var vote model.Vote
	err := r.db.WithContext(ctx).
		Where("round_id = ? AND participant_id = ?", roundID, participantID).
		First(&vote).Error
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *voteRepository) ListByRound(ctx context.Context, roundID uuid.UUID) ([]model.Vote, error) {
	var votes []model.Vote
	err := r.db.WithContext(ctx).
		Where("round_id = ?", roundID).
		Order("created_at ASC").
		Find(&votes).Error
	return votes, err
}

func (r *voteRepository) CountByRound(ctx context.Context, roundID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Vote{}).
		Where("round_id = ?", roundID).
		Count(&count).Error
	return count, err
}
