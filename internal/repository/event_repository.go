package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devpokerapp/devpoker-services/internal/model"
)

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, eventID uuid.UUID) (*model.Event, error)
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.Event, error)
	ListUnrevealedByItem(ctx context.Context, itemID uuid.UUID) ([]model.Event, error)
	// MarkRevealed flips a single row. The reveal protocol calls it
	// once per event on purpose; see the event service.
	MarkRevealed(ctx context.Context, eventID uuid.UUID) error
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) GetByID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).First(&event, "id = ?", eventID).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}

func (r *eventRepository) ListUnrevealedByItem(ctx context.Context, itemID uuid.UUID) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND revealed = ?", itemID, false).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}

func (r *eventRepository) MarkRevealed(ctx context.Context, eventID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Event{}).
		Where("id = ?", eventID).
		Update("revealed", true).Error
}
