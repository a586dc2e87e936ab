package gateway

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const roomChannelPrefix = "room:"

// ServerEvent is the unit of delivery toward clients, for both unicast
// and room broadcast.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// fanoutMessage is the redis wire form of a broadcast. Origin lets a
// replica skip messages it already delivered locally.
type fanoutMessage struct {
	Origin string          `json:"origin"`
	Room   string          `json:"room"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Hub owns every live connection and the room membership map. It is
// created at process start and torn down at shutdown; business logic
// only ever sees the subscribe/unsubscribe/unicast/broadcast surface,
// never the connections themselves.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client

	instanceID string
	redis      *redis.Client
	pubsub     *redis.PubSub
	cancel     context.CancelFunc
	logger     *zap.Logger
}

// NewHub builds the hub. redisClient may be nil, in which case fanout
// stays process-local (single-replica deployments, tests).
func NewHub(redisClient *redis.Client, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		instanceID: uuid.NewString(),
		redis:      redisClient,
		cancel:     cancel,
		logger:     logger,
	}

	if redisClient != nil {
		h.pubsub = redisClient.PSubscribe(ctx, roomChannelPrefix+"*")
		go h.runRelay(ctx)
	}

	return h
}

// Register adds a connection to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	h.logger.Info("connection registered", zap.String("connection_id", client.ID))
}

// Unregister removes a connection and its room memberships.
func (h *Hub) Unregister(connectionID string) {
	h.mu.Lock()
	client, ok := h.clients[connectionID]
	if ok {
		delete(h.clients, connectionID)
		for room, members := range h.rooms {
			delete(members, connectionID)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	h.mu.Unlock()

	if ok {
		client.shutdown()
		h.logger.Info("connection unregistered", zap.String("connection_id", connectionID))
	}
}

// Subscribe adds the connection to a room. Unknown connections are
// ignored; the caller learns about dead connections through delivery.
func (h *Hub) Subscribe(connectionID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connectionID]
	if !ok {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*Client)
	}
	h.rooms[room][connectionID] = client
}

// Unsubscribe removes the connection from a room.
func (h *Hub) Unsubscribe(connectionID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[room]; ok {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Unicast delivers one event to one connection.
func (h *Hub) Unicast(connectionID, event string, data any) {
	h.mu.RLock()
	client, ok := h.clients[connectionID]
	h.mu.RUnlock()

	if !ok {
		return
	}

	payload, err := json.Marshal(ServerEvent{Event: event, Data: data})
	if err != nil {
		h.logger.Error("failed to marshal unicast event",
			zap.String("event", event), zap.Error(err))
		return
	}
	client.enqueue(payload)
}

// Broadcast delivers one event to every member of a room, locally and,
// when redis is configured, on every other replica.
func (h *Hub) Broadcast(room, event string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("failed to marshal broadcast event",
			zap.String("event", event), zap.Error(err))
		return
	}

	h.deliverLocal(room, event, raw)

	if h.redis == nil {
		return
	}

	msg, err := json.Marshal(fanoutMessage{
		Origin: h.instanceID,
		Room:   room,
		Event:  event,
		Data:   raw,
	})
	if err != nil {
		return
	}
	if err := h.redis.Publish(context.Background(), roomChannelPrefix+room, msg).Err(); err != nil {
		h.logger.Warn("failed to publish room event",
			zap.String("room", room), zap.String("event", event), zap.Error(err))
	}
}

// RoomSize reports current local membership, used by health/ops
// endpoints and tests.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Close tears down the relay subscription. Registered connections are
// closed by their own pumps.
func (h *Hub) Close() {
	h.cancel()
	if h.pubsub != nil {
		h.pubsub.Close()
	}
}

func (h *Hub) deliverLocal(room, event string, data json.RawMessage) {
	payload, err := json.Marshal(ServerEvent{Event: event, Data: data})
	if err != nil {
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for _, client := range h.rooms[room] {
		members = append(members, client)
	}
	h.mu.RUnlock()

	for _, client := range members {
		client.enqueue(payload)
	}
}

// runRelay feeds broadcasts published by other replicas into the local
// room members.
func (h *Hub) runRelay(ctx context.Context) {
	ch := h.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var fanout fanoutMessage
			if err := json.Unmarshal([]byte(msg.Payload), &fanout); err != nil {
				h.logger.Warn("dropping malformed fanout message", zap.Error(err))
				continue
			}
			if fanout.Origin == h.instanceID {
				continue
			}
			h.deliverLocal(fanout.Room, fanout.Event, fanout.Data)
		}
	}
}
