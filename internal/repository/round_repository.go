package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devpokerapp/devpoker-services/internal/model"
)

type RoundRepository interface {
	Create(ctx context.Context, round *model.Round) error
	GetByID(ctx context.Context, roundID uuid.UUID) (*model.Round, error)
	// CurrentOpen returns the most recently created round with
	// completed=false for the item.
	CurrentOpen(ctx context.Context, itemID uuid.UUID) (*model.Round, error)
	Update(ctx context.Context, round *model.Round) error
}

type roundRepository struct {
	db *gorm.DB
}

func NewRoundRepository(db *gorm.DB) RoundRepository {
	return &roundRepository{db: db}
}

func (r *roundRepository) Create(ctx context.Context, round *model.Round) error {
	return r.db.WithContext(ctx).Create(round).Error
}

func (r *roundRepository) GetByID(ctx context.Context, roundID uuid.UUID) (*model.Round, error) {
	var round model.Round
	err := r.db.WithContext(ctx).First(&round, "id = ?", roundID).Error
	if err != nil {
		return nil, err
	}
	return &round, nil
}

func (r *roundRepository) CurrentOpen(ctx context.Context, itemID uuid.UUID) (*model.Round, error) {
	var round model.Round
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND completed = ?", itemID, false).
		Order("created_at DESC").
		First(&round).Error
	if err != nil {
		return nil, err
	}
	return &round, nil
}

func (r *roundRepository) Update(ctx context.Context, round *model.Round) error {
	return r.db.WithContext(ctx).Save(round).Error
}
