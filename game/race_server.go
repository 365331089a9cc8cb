// Package game runs a single player-versus-bot maze race: one human
// moving through a tracker, one hybrid navigator stepping on a ticker,
// first to the goal wins.
package game

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/adaptivemaze/amaze-api/bot"
	"github.com/adaptivemaze/amaze-api/difficulty"
	"github.com/adaptivemaze/amaze-api/maze"
	"github.com/google/uuid"
)

// Race-related errors.
var (
	ErrNoNavigator  = errors.New("race needs a navigator")
	ErrNoController = errors.New("race needs a difficulty controller")
	ErrNoGenerator  = errors.New("race needs a maze generator")
)

// Race winners.
const (
	WinnerPlayer = "player"
	WinnerBot    = "bot"
	WinnerNone   = "none"
)

const defaultBotTick = 150 * time.Millisecond

// GenerateFunc produces a maze for the given parameters. The race
// calls it at construction and again whenever the bot reports an
// unsolvable maze.
type GenerateFunc func(difficulty.Parameters) (*maze.Grid, error)

// RaceState is the wire form of a race snapshot sent to clients.
type RaceState struct {
	Version       int64          `json:"version"`
	Maze          maze.Snapshot  `json:"maze"`
	BotPos        maze.Position  `json:"bot_pos"`
	Level         int            `json:"level"`
	Skill         string         `json:"skill"`
	Regenerations int            `json:"regenerations"`
	Ended         bool           `json:"ended"`
	Winner        string         `json:"winner,omitempty"`
}

// RaceServer manages one race session. Player actions arrive on
// ActionChan, state snapshots leave on StateChan, and the final state
// leaves on EndChan when the race is over.
type RaceServer struct {
	playerID   uuid.UUID
	grid       *maze.Grid
	tracker    *difficulty.Tracker
	nav        *bot.Navigator
	controller *difficulty.Controller
	generate   GenerateFunc
	botTick    time.Duration

	version       int64
	winner        string
	regenerations int

	stop         chan bool
	done         chan struct{}
	stopOnce     sync.Once
	StateChan    chan []byte      // Channel for broadcasting state changes.
	ActionChan   chan maze.Action // Channel for incoming player moves.
	EndChan      chan []byte      // Channel to signal race completion.
	Wg           *sync.WaitGroup  // WaitGroup to manage concurrent goroutines.
	sync.RWMutex                  // Read-Write lock for synchronizing access.
}

// RaceConfig holds parameters for creating a RaceServer.
type RaceConfig struct {
	PlayerID   uuid.UUID
	Navigator  *bot.Navigator
	Controller *difficulty.Controller
	Generate   GenerateFunc
	BotTick    time.Duration
}

// NewRace builds a race: generates the opening maze from the
// controller's current parameters and binds both contestants to it.
func NewRace(cfg RaceConfig) (*RaceServer, error) {
	if cfg.Navigator == nil {
		return nil, ErrNoNavigator
	}
	if cfg.Controller == nil {
		return nil, ErrNoController
	}
	if cfg.Generate == nil {
		return nil, ErrNoGenerator
	}
	if cfg.BotTick <= 0 {
		cfg.BotTick = defaultBotTick
	}

	grid, err := cfg.Generate(cfg.Controller.MazeParameters())
	if err != nil {
		return nil, err
	}

	cfg.Navigator.SetLevel(cfg.Controller.Level())
	if err := cfg.Navigator.Reset(grid, grid.Start(), grid.Goal()); err != nil {
		return nil, err
	}

	return &RaceServer{
		playerID:   cfg.PlayerID,
		grid:       grid,
		tracker:    difficulty.NewTracker(grid),
		nav:        cfg.Navigator,
		controller: cfg.Controller,
		generate:   cfg.Generate,
		botTick:    cfg.BotTick,
		stop:       make(chan bool, 1),
		done:       make(chan struct{}),
		StateChan:  make(chan []byte),
		ActionChan: make(chan maze.Action),
		EndChan:    make(chan []byte),
		Wg:         &sync.WaitGroup{},
	}, nil
}

// PlayerID returns the racing player.
func (r *RaceServer) PlayerID() uuid.UUID { return r.playerID }

// Winner returns the race outcome, empty while the race is running.
func (r *RaceServer) Winner() string {
	r.RLock()
	defer r.RUnlock()
	return r.winner
}

// Done is closed once the race is over. Senders on ActionChan must
// select against it; the channel itself is never closed, so a send
// racing Stop blocks on the select instead of panicking.
func (r *RaceServer) Done() <-chan struct{} { return r.done }

// Navigator exposes the bot for value table persistence after the race.
func (r *RaceServer) Navigator() *bot.Navigator { return r.nav }

// Controller exposes the difficulty state for persistence after the race.
func (r *RaceServer) Controller() *difficulty.Controller { return r.controller }

// Start runs the race loop until someone wins, the duration elapses or
// Stop is called.
func (r *RaceServer) Start(raceDuration time.Duration) {
	time.AfterFunc(raceDuration, r.Stop)
	ticker := time.NewTicker(r.botTick)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case a := <-r.ActionChan:
			r.handlePlayerMove(a)
		case <-ticker.C:
			r.handleBotStep()
		}
	}
}

// Stop ends the race, closes the outbound channels, and broadcasts the
// final state. ActionChan stays open; Done tells senders the race is
// over.
func (r *RaceServer) Stop() {
	r.stopOnce.Do(func() {
		r.Lock()
		if r.winner == "" {
			r.winner = WinnerNone
		}
		r.Unlock()

		close(r.done)
		r.stop <- true
		r.Wg.Wait()
		close(r.StateChan)
		r.Wg.Add(1)
		r.broadcastState(true)
		close(r.EndChan)
	})
}

// handlePlayerMove applies one player action. Invalid moves still
// count in the tracker but do not bump the state version.
func (r *RaceServer) handlePlayerMove(a maze.Action) {
	r.Lock()
	if r.winner != "" {
		r.Unlock()
		return
	}

	if r.tracker.Move(a) {
		r.version++
	}

	if r.tracker.Finished() {
		r.tracker.Complete()
		r.winner = WinnerPlayer
		r.controller.UpdateDifficulty(r.tracker.Record())
		r.Unlock()
		go r.Stop()
		return
	}
	r.Unlock()

	r.Wg.Add(1)
	go r.broadcastState(false)
}

// handleBotStep advances the navigator by one step. An unsolvable maze
// is swapped for a fresh one; both contestants restart on it.
func (r *RaceServer) handleBotStep() {
	r.Lock()
	if r.winner != "" {
		r.Unlock()
		return
	}

	_, outcome := r.nav.Step()
	r.version++

	switch outcome {
	case bot.OutcomeReached:
		r.winner = WinnerBot
		r.tracker.Complete()
		r.controller.UpdateDifficulty(r.tracker.Record())
		r.Unlock()
		go r.Stop()
		return
	case bot.OutcomeRegenerate:
		if err := r.swapMazeLocked(); err != nil {
			r.winner = WinnerNone
			r.Unlock()
			go r.Stop()
			return
		}
	}
	r.Unlock()

	r.Wg.Add(1)
	go r.broadcastState(false)
}

// swapMazeLocked replaces an unsolvable maze. The caller holds the
// write lock.
func (r *RaceServer) swapMazeLocked() error {
	grid, err := r.generate(r.controller.MazeParameters())
	if err != nil {
		return err
	}
	if err := r.nav.Reset(grid, grid.Start(), grid.Goal()); err != nil {
		return err
	}

	r.grid = grid
	r.tracker = difficulty.NewTracker(grid)
	r.regenerations++
	return nil
}

// broadcastState sends the current race state to the session listener.
func (r *RaceServer) broadcastState(ended bool) {
	defer r.Wg.Done()
	payload, err := json.Marshal(r.snapshot(ended))
	if err != nil {
		return
	}

	if ended {
		r.EndChan <- payload
	} else {
		r.StateChan <- payload
	}
}

// snapshot captures the race for serialization.
func (r *RaceServer) snapshot(ended bool) RaceState {
	r.RLock()
	defer r.RUnlock()

	playerPos := r.tracker.Pos()
	return RaceState{
		Version:       r.version,
		Maze:          r.grid.Snapshot(&playerPos),
		BotPos:        r.nav.Pos(),
		Level:         r.controller.Level(),
		Skill:         string(r.controller.Skill()),
		Regenerations: r.regenerations,
		Ended:         ended,
		Winner:        r.winner,
	}
}
