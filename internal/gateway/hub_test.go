package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// drain reads every frame currently buffered for the client.
func drain(c *Client) [][]byte {
	var frames [][]byte
	for {
		select {
		case frame := <-c.send:
			frames = append(frames, frame)
		default:
			return frames
		}
	}
}

func decodeEvent(t *testing.T, frame []byte) ServerEvent {
	t.Helper()
	var event ServerEvent
	require.NoError(t, json.Unmarshal(frame, &event))
	return event
}

func newTestHub() *Hub {
	return NewHub(nil, zap.NewNop())
}

func TestHub_Unicast(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	client := NewClient("conn-1", nil, zap.NewNop())
	hub.Register(client)

	hub.Unicast("conn-1", "connected", map[string]string{"connectionId": "conn-1"})

	frames := drain(client)
	require.Len(t, frames, 1)
	event := decodeEvent(t, frames[0])
	assert.Equal(t, "connected", event.Event)

	// Unknown connections are a no-op, not a fault.
	hub.Unicast("conn-ghost", "connected", nil)
}

func TestHub_BroadcastReachesOnlyRoomMembers(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	member := NewClient("conn-member", nil, zap.NewNop())
	outsider := NewClient("conn-outsider", nil, zap.NewNop())
	hub.Register(member)
	hub.Register(outsider)
	hub.Subscribe("conn-member", "session-1")

	hub.Broadcast("session-1", "vote_placed", map[string]string{"value": "5"})

	memberFrames := drain(member)
	require.Len(t, memberFrames, 1)
	assert.Equal(t, "vote_placed", decodeEvent(t, memberFrames[0]).Event)
	assert.Empty(t, drain(outsider))
}

func TestHub_SubscribeUnknownConnectionIgnored(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	hub.Subscribe("conn-ghost", "room-1")
	assert.Zero(t, hub.RoomSize("room-1"))
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	client := NewClient("conn-1", nil, zap.NewNop())
	hub.Register(client)
	hub.Subscribe("conn-1", "room-1")
	require.Equal(t, 1, hub.RoomSize("room-1"))

	hub.Unsubscribe("conn-1", "room-1")
	assert.Zero(t, hub.RoomSize("room-1"))

	hub.Broadcast("room-1", "ignored", nil)
	assert.Empty(t, drain(client))
}

func TestHub_UnregisterLeavesAllRooms(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	client := NewClient("conn-1", nil, zap.NewNop())
	hub.Register(client)
	hub.Subscribe("conn-1", "room-a")
	hub.Subscribe("conn-1", "room-b")

	hub.Unregister("conn-1")
	assert.Zero(t, hub.RoomSize("room-a"))
	assert.Zero(t, hub.RoomSize("room-b"))

	// Shutdown fires exactly once; a second unregister is harmless.
	hub.Unregister("conn-1")
}

func TestHub_LateDeliveryAfterUnregister(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	client := NewClient("conn-1", nil, zap.NewNop())
	hub.Register(client)
	hub.Subscribe("conn-1", "session-1")
	hub.Unregister("conn-1")

	// A fanout goroutine can hold a membership snapshot taken before the
	// disconnect; delivering into the gone client must drop silently.
	assert.NotPanics(t, func() {
		client.enqueue([]byte(`{"event":"late"}`))
		hub.Broadcast("session-1", "vote_placed", map[string]string{"value": "5"})
		hub.Unicast("conn-1", "vote_placed", nil)
	})
	assert.Empty(t, drain(client))
}

func TestHub_MultipleMembers(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	a := NewClient("conn-a", nil, zap.NewNop())
	b := NewClient("conn-b", nil, zap.NewNop())
	hub.Register(a)
	hub.Register(b)
	hub.Subscribe("conn-a", "session-1")
	hub.Subscribe("conn-b", "session-1")

	hub.Broadcast("session-1", "participant_joined", map[string]string{"name": "alice"})

	require.Len(t, drain(a), 1)
	require.Len(t, drain(b), 1)
}
