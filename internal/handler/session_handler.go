package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devpokerapp/devpoker-services/internal/service"
)

type SessionHandler struct {
	sessionService     service.SessionService
	participantService service.ParticipantService
	inviteService      service.InviteService
}

func NewSessionHandler(
	sessionService service.SessionService,
	participantService service.ParticipantService,
	inviteService service.InviteService,
) *SessionHandler {
	return &SessionHandler{
		sessionService:     sessionService,
		participantService: participantService,
		inviteService:      inviteService,
	}
}

type CreateSessionRequest struct {
	Creator     string `json:"creator" binding:"required"`
	VotePattern string `json:"votePattern"`
	Anonymous   bool   `json:"anonymous"`
}

type UpdateSessionRequest struct {
	VotePattern string `json:"votePattern"`
	Anonymous   bool   `json:"anonymous"`
}

type SelectItemRequest struct {
	ItemID *string `json:"itemId"`
}

func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessionService.Create(c.Request.Context(), req.Creator, req.VotePattern, req.Anonymous)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	session, err := h.sessionService.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) UpdateSession(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessionService.Update(c.Request.Context(), sessionID, req.VotePattern, req.Anonymous)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) StartSession(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.sessionService.Start(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *SessionHandler) SelectItem(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req SelectItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var itemID *uuid.UUID
	if req.ItemID != nil {
		id, err := uuid.Parse(*req.ItemID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
			return
		}
		itemID = &id
	}

	session, err := h.sessionService.SelectItem(c.Request.Context(), sessionID, itemID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) GetParticipants(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	participants, err := h.participantService.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

func (h *SessionHandler) GetInvites(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	invites, err := h.inviteService.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invites": invites})
}
