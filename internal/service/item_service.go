package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devpokerapp/devpoker-services/internal/apperror"
	"github.com/devpokerapp/devpoker-services/internal/bus"
	"github.com/devpokerapp/devpoker-services/internal/model"
	"github.com/devpokerapp/devpoker-services/internal/repository"
)

type ItemService interface {
	// Create inserts the item with the next display order of its
	// session and publishes item.created so the round engine can open
	// the first voting round.
	Create(ctx context.Context, sessionID uuid.UUID, name, description string) (*model.Item, error)
	Get(ctx context.Context, itemID uuid.UUID) (*model.Item, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Item, error)
	Update(ctx context.Context, itemID uuid.UUID, name, description string, value *string) (*model.Item, error)
	// Delete removes the item and everything hanging off it: rounds,
	// their votes and the activity log.
	Delete(ctx context.Context, itemID uuid.UUID) error
}

type itemService struct {
	itemRepo repository.ItemRepository
	bus      *bus.Bus
	notifier Notifier
	logger   *zap.Logger
}

func NewItemService(itemRepo repository.ItemRepository, eventBus *bus.Bus, notifier Notifier, logger *zap.Logger) ItemService {
	return &itemService{
		itemRepo: itemRepo,
		bus:      eventBus,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *itemService) Create(ctx context.Context, sessionID uuid.UUID, name, description string) (*model.Item, error) {
	if name == "" {
		return nil, apperror.InvalidInput("item name must not be empty")
	}

	item := &model.Item{
		SessionID:   sessionID,
		Name:        name,
		Description: description,
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("session", sessionID.String())
		}
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	s.bus.Publish(ctx, bus.TopicItemCreated, bus.ItemCreated{Item: *item})
	s.notifier.Broadcast(sessionID.String(), EventStoryCreated, item)

	s.logger.Info("Item created",
		zap.String("item_id", item.ID.String()),
		zap.String("session_id", sessionID.String()),
		zap.Int("display_order", item.DisplayOrder))

	return item, nil
}

func (s *itemService) Get(ctx context.Context, itemID uuid.UUID) (*model.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("item", itemID.String())
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	return item, nil
}

func (s *itemService) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Item, error) {
	return s.itemRepo.ListBySession(ctx, sessionID)
}

func (s *itemService) Update(ctx context.Context, itemID uuid.UUID, name, description string, value *string) (*model.Item, error) {
	item, err := s.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if name != "" {
		item.Name = name
	}
	if description != "" {
		item.Description = description
	}
	if value != nil {
		item.Value = value
	}

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	s.notifier.Broadcast(item.SessionID.String(), EventStoryUpdated, item)
	return item, nil
}

func (s *itemService) Delete(ctx context.Context, itemID uuid.UUID) error {
	item, err := s.Get(ctx, itemID)
	if err != nil {
		return err
	}

	if err := s.itemRepo.Delete(ctx, itemID); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	s.notifier.Broadcast(item.SessionID.String(), EventStoryDeleted, item)
	return nil
}
