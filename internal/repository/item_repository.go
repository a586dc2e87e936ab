package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devpokerapp/devpoker-services/internal/model"
)

type ItemRepository interface {
	// Create assigns the item's display order from the owning
	// session's counter and inserts the row, in one transaction.
	Create(ctx context.Context, item *model.Item) error
	GetByID(ctx context.Context, itemID uuid.UUID) (*model.Item, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Item, error)
	Update(ctx context.Context, item *model.Item) error
	Delete(ctx context.Context, itemID uuid.UUID) error
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *model.Item) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Atomic counter bump; concurrent creates in the same session
		// serialize on the sessions row instead of racing a count query.
		res := tx.Model(&model.Session{}).
			Where("id = ?", item.SessionID).
			UpdateColumn("next_item_order", gorm.Expr("next_item_order + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var session model.Session
		if err := tx.Select("next_item_order").First(&session, "id = ?", item.SessionID).Error; err != nil {
			return err
		}

		item.DisplayOrder = session.NextItemOrder
		return tx.Create(item).Error
	})
}

func (r *itemRepository) GetByID(ctx context.Context, itemID uuid.UUID) (*model.Item, error) {
	var item model.Item
	err := r.db.WithContext(ctx).First(&item, "id = ?", itemID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Item, error) {
	var items []model.Item
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("display_order ASC").
		Find(&items).Error
	return items, err
}

func (r *itemRepository) Update(ctx context.Context, item *model.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *itemRepository) Delete(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("round_id IN (?)",
			tx.Model(&model.Round{}).Select("id").Where("item_id = ?", itemID),
		).Delete(&model.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id = ?", itemID).Delete(&model.Round{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id = ?", itemID).Delete(&model.Event{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Item{}, "id = ?", itemID).Error
	})
}
