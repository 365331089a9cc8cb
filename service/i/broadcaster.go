package i

import "github.com/google/uuid"

// Broadcaster pushes event payloads to a player's connected clients.
type Broadcaster interface {
	BroadcastToPlayer(playerID uuid.UUID, event string, payload []byte)
}
