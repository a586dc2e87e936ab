package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devpokerapp/devpoker-services/internal/service"
)

type ItemHandler struct {
	itemService  service.ItemService
	eventService service.EventService
}

func NewItemHandler(itemService service.ItemService, eventService service.EventService) *ItemHandler {
	return &ItemHandler{
		itemService:  itemService,
		eventService: eventService,
	}
}

type CreateItemRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateItemRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Value       *string `json:"value"`
}

func (h *ItemHandler) CreateItem(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.itemService.Create(c.Request.Context(), sessionID, req.Name, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *ItemHandler) ListItems(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	items, err := h.itemService.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *ItemHandler) GetItem(c *gin.Context) {
	itemID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	item, err := h.itemService.Get(c.Request.Context(), itemID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) UpdateItem(c *gin.Context) {
	itemID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.itemService.Update(c.Request.Context(), itemID, req.Name, req.Description, req.Value)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) DeleteItem(c *gin.Context) {
	itemID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.itemService.Delete(c.Request.Context(), itemID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item deleted"})
}

// GetTimeline returns the item's full activity log in creation order.
func (h *ItemHandler) GetTimeline(c *gin.Context) {
	itemID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	events, err := h.eventService.ListByItem(c.Request.Context(), itemID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}
