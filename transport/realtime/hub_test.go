package realtime

import (
	"io"
	"testing"

	"github.com/adaptivemaze/amaze-api/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHub(t *testing.T) *Hub {
	t.Helper()
	logger, err := logging.New("HUB", "", io.Discard)
	require.NoError(t, err)
	return NewHub(logger)
}

func TestRegisterAndUnregisterClient(t *testing.T) {
	hub := testHub(t)
	playerID := uuid.New()

	client := &Client{
		hub:      hub,
		playerID: playerID,
		send:     make(chan []byte, 256),
	}

	hub.registerClient(client)
	require.Contains(t, hub.players, playerID)
	assert.True(t, hub.players[playerID][client])

	hub.unregisterClient(client)
	assert.NotContains(t, hub.players, playerID)

	// Unregistering twice is a no-op, not a panic.
	hub.unregisterClient(client)
}

func TestDeliverFansOutPerPlayer(t *testing.T) {
	hub := testHub(t)
	playerID := uuid.New()
	otherID := uuid.New()

	first := &Client{hub: hub, playerID: playerID, send: make(chan []byte, 1)}
	second := &Client{hub: hub, playerID: playerID, send: make(chan []byte, 1)}
	other := &Client{hub: hub, playerID: otherID, send: make(chan []byte, 1)}
	hub.registerClient(first)
	hub.registerClient(second)
	hub.registerClient(other)

	hub.deliver(outboundEvent{playerID: playerID, data: []byte(`{"event":"race_state"}`)})

	assert.Len(t, first.send, 1)
	assert.Len(t, second.send, 1)
	assert.Len(t, other.send, 0)
}

func TestDeliverDropsStuckClient(t *testing.T) {
	hub := testHub(t)
	playerID := uuid.New()

	// Zero-capacity channel with no reader: the client never drains.
	stuck := &Client{hub: hub, playerID: playerID, send: make(chan []byte)}
	hub.registerClient(stuck)

	hub.deliver(outboundEvent{playerID: playerID, data: []byte("x")})
	assert.NotContains(t, hub.players, playerID)
}

func TestBroadcastToPlayerQueues(t *testing.T) {
	hub := testHub(t)
	playerID := uuid.New()

	hub.BroadcastToPlayer(playerID, "race_state", []byte(`{"version":1}`))
	require.Len(t, hub.outbound, 1)

	ev := <-hub.outbound
	assert.Equal(t, playerID, ev.playerID)
	assert.Contains(t, string(ev.data), `"event":"race_state"`)
}
