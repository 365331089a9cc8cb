package game

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/adaptivemaze/amaze-api/agent"
	"github.com/adaptivemaze/amaze-api/bot"
	"github.com/adaptivemaze/amaze-api/difficulty"
	"github.com/adaptivemaze/amaze-api/maze"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// corridorGenerate ignores the requested parameters and returns a tiny
// fixed corridor so races finish in a handful of moves.
func corridorGenerate(_ difficulty.Parameters) (*maze.Grid, error) {
	const (
		o = maze.Empty
		x = maze.Wall
		s = maze.Start
		e = maze.Goal
	)
	return maze.NewGrid([][]maze.Code{
		{x, x, x, x, x},
		{s, o, o, o, e},
		{x, x, x, x, x},
	})
}

func testNavigator(seed int64) *bot.Navigator {
	return bot.New(bot.Config{
		UsePathHints: true,
		Agent:        agent.DefaultConfig(),
		RNG:          rand.New(rand.NewSource(seed)),
	})
}

// drainUntilEnd consumes state updates and returns the final payload.
func drainUntilEnd(t *testing.T, rs *RaceServer) RaceState {
	t.Helper()
	deadline := time.After(10 * time.Second)
	stateCh := rs.StateChan

	for {
		select {
		case _, ok := <-stateCh:
			if !ok {
				stateCh = nil
			}
		case payload, ok := <-rs.EndChan:
			if !ok {
				t.Fatal("end channel closed without a final state")
			}
			var final RaceState
			require.NoError(t, json.Unmarshal(payload, &final))
			return final
		case <-deadline:
			t.Fatal("race did not finish in time")
		}
	}
}

func TestBotWinsUncontestedRace(t *testing.T) {
	rs, err := NewRace(RaceConfig{
		PlayerID:   uuid.New(),
		Navigator:  testNavigator(1),
		Controller: difficulty.NewController(),
		Generate:   corridorGenerate,
		BotTick:    time.Millisecond,
	})
	require.NoError(t, err)

	go rs.Start(5 * time.Second)
	final := drainUntilEnd(t, rs)

	assert.True(t, final.Ended)
	assert.Equal(t, WinnerBot, final.Winner)
	assert.Equal(t, WinnerBot, rs.Winner())
	// Finishing a round advances the player's level.
	assert.Equal(t, 2, rs.Controller().Level())
}

func TestPlayerWinsWithIdleBot(t *testing.T) {
	rs, err := NewRace(RaceConfig{
		PlayerID:   uuid.New(),
		Navigator:  testNavigator(2),
		Controller: difficulty.NewController(),
		Generate:   corridorGenerate,
		BotTick:    time.Hour, // the bot never gets a turn
	})
	require.NoError(t, err)

	go rs.Start(5 * time.Second)
	go func() {
		for i := 0; i < 4; i++ {
			rs.ActionChan <- maze.Right
		}
	}()

	final := drainUntilEnd(t, rs)
	assert.Equal(t, WinnerPlayer, final.Winner)
	assert.NotNil(t, final.Maze.Player)
}

func TestRaceTimesOutWithoutWinner(t *testing.T) {
	rs, err := NewRace(RaceConfig{
		PlayerID:   uuid.New(),
		Navigator:  testNavigator(3),
		Controller: difficulty.NewController(),
		Generate:   corridorGenerate,
		BotTick:    time.Hour,
	})
	require.NoError(t, err)

	go rs.Start(50 * time.Millisecond)
	final := drainUntilEnd(t, rs)

	assert.True(t, final.Ended)
	assert.Equal(t, WinnerNone, final.Winner)
}

func TestDoneSignalsSendersAfterStop(t *testing.T) {
	rs, err := NewRace(RaceConfig{
		PlayerID:   uuid.New(),
		Navigator:  testNavigator(4),
		Controller: difficulty.NewController(),
		Generate:   corridorGenerate,
		BotTick:    time.Hour,
	})
	require.NoError(t, err)

	go rs.Start(time.Hour)
	go rs.Stop()
	final := drainUntilEnd(t, rs)
	assert.Equal(t, WinnerNone, final.Winner)

	select {
	case <-rs.Done():
	default:
		t.Fatal("done not closed after stop")
	}

	// A late move must never block or panic: either the loop is still
	// draining and discards it, or the done branch fires.
	select {
	case rs.ActionChan <- maze.Right:
	case <-rs.Done():
	}
	assert.Equal(t, WinnerNone, rs.Winner())
}
