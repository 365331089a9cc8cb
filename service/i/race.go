package i

import (
	"context"

	"github.com/adaptivemaze/amaze-api/maze"
	"github.com/google/uuid"
)

// RaceManager runs player-versus-bot race sessions.
type RaceManager interface {
	// StartRace opens a new race session for the player. A player can
	// hold at most one session at a time.
	StartRace(ctx context.Context, playerID uuid.UUID) error

	// PlayerMove forwards one move of the player into their session.
	PlayerMove(playerID uuid.UUID, a maze.Action) error

	// StopAll shuts every running session down.
	StopAll()
}
