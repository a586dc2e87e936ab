package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/devpokerapp/devpoker-services/internal/apperror"
	"github.com/devpokerapp/devpoker-services/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSHandler upgrades client sockets and feeds their request envelopes
// into the dispatcher.
type WSHandler struct {
	hub        *Hub
	dispatcher *Dispatcher
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewWSHandler(hub *Hub, dispatcher *Dispatcher, m *metrics.Metrics, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:        hub,
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger,
	}
}

// HandleWebSocket serves GET /ws. Each socket gets a fresh connection
// id; durable identity is reestablished by the join or reauthenticate
// operations.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}

	connectionID := uuid.NewString()
	client := NewClient(connectionID, conn, h.logger)

	h.hub.Register(client)
	h.metrics.WSConnections.Inc()

	go client.writePump()

	// Announce the transport identifier so the client can join or
	// reauthenticate against it.
	h.hub.Unicast(connectionID, "connected", gin.H{"connectionId": connectionID})

	client.readPump(func(payload []byte) {
		h.handleRequest(client, payload)
	})

	h.hub.Unregister(connectionID)
	h.metrics.WSConnections.Dec()
}

func (h *WSHandler) handleRequest(client *Client, payload []byte) {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		h.reply(client, Response{
			Error: apperror.Validation("malformed request envelope: %v", err),
		})
		return
	}

	resp := h.dispatcher.Dispatch(context.Background(), client.ID, req)
	h.metrics.RecordGatewayRequest(req.Service, req.Method, resp.Success)
	h.reply(client, resp)
}

func (h *WSHandler) reply(client *Client, resp Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		h.logger.Error("failed to marshal response envelope", zap.Error(err))
		return
	}
	client.enqueue(payload)
}
