package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/adaptivemaze/amaze-api/agent"
	"github.com/adaptivemaze/amaze-api/bot"
	"github.com/adaptivemaze/amaze-api/difficulty"
	"github.com/adaptivemaze/amaze-api/game"
	"github.com/adaptivemaze/amaze-api/maze"
	"github.com/adaptivemaze/amaze-api/service/i"
	"github.com/google/uuid"
)

const (
	defaultRaceDuration = 5 * time.Minute

	raceStateEvent = "race_state"
	raceEndedEvent = "race_ended"
)

// Race manager errors.
var (
	ErrAlreadyRacing = errors.New("player already has a running race")
	ErrNoRace        = errors.New("player has no running race")
	ErrRaceOver      = errors.New("race is already over")
)

// RaceManager owns every running race session: it starts races, routes
// player moves into them, pushes state to connected clients, and on
// race end persists the bot's learning, the player's difficulty state
// and the rating change.
type RaceManager struct {
	broadcaster i.Broadcaster
	store       i.ValueTableStore
	leaderboard i.Leaderboard
	userRepo    i.UserRepo
	logger      i.Logger
	worker      string
	botTick     time.Duration

	sessions map[uuid.UUID]*game.RaceServer
	sync.RWMutex
}

// RaceManagerConfig holds the race manager's dependencies.
type RaceManagerConfig struct {
	Broadcaster i.Broadcaster
	Store       i.ValueTableStore
	Leaderboard i.Leaderboard
	UserRepo    i.UserRepo
	Logger      i.Logger
	Worker      string
	BotTick     time.Duration
}

// NewRaceManager wires a RaceManager.
func NewRaceManager(c *RaceManagerConfig) (*RaceManager, error) {
	if c.Broadcaster == nil || c.Store == nil || c.Logger == nil {
		return nil, errors.New("race manager needs a broadcaster, a store and a logger")
	}
	return &RaceManager{
		broadcaster: c.Broadcaster,
		store:       c.Store,
		leaderboard: c.Leaderboard,
		userRepo:    c.UserRepo,
		logger:      c.Logger,
		worker:      c.Worker,
		botTick:     c.BotTick,
		sessions:    make(map[uuid.UUID]*game.RaceServer),
	}, nil
}

// StartRace opens a race for the player. The bot starts from the best
// persisted value table for the maze shape; a missing or mismatched
// snapshot just means it learns from zero.
func (m *RaceManager) StartRace(ctx context.Context, playerID uuid.UUID) error {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.sessions[playerID]; ok {
		return ErrAlreadyRacing
	}

	controller := m.controllerFor(playerID)
	nav := bot.New(bot.Config{
		UsePathHints: true,
		Agent:        agent.DefaultConfig(),
		RNG:          rand.New(rand.NewSource(time.Now().UnixNano())),
	})

	rs, err := game.NewRace(game.RaceConfig{
		PlayerID:   playerID,
		Navigator:  nav,
		Controller: controller,
		Generate:   m.generateMaze,
		BotTick:    m.botTick,
	})
	if err != nil {
		return fmt.Errorf("creating race: %w", err)
	}

	table := nav.Table()
	if snap, err := m.store.Load(ctx, table.Width(), table.Height()); err == nil {
		if err := nav.AdoptSnapshot(snap); err != nil {
			m.logger.Warning(fmt.Sprintf("Persisted table unusable for %dx%d: %s", table.Width(), table.Height(), err))
		}
	}

	m.sessions[playerID] = rs
	go rs.Start(defaultRaceDuration)
	go m.listenRaceChan(playerID, rs)

	m.logger.Info(fmt.Sprintf("Started race for player: %s", playerID))
	return nil
}

// PlayerMove forwards one move of the player into their race.
func (m *RaceManager) PlayerMove(playerID uuid.UUID, a maze.Action) error {
	m.RLock()
	rs, ok := m.sessions[playerID]
	m.RUnlock()

	if !ok {
		return ErrNoRace
	}

	// The race can stop between the lookup and the send; selecting on
	// Done keeps the send from racing the shutdown.
	select {
	case rs.ActionChan <- a:
		return nil
	case <-rs.Done():
		return ErrRaceOver
	}
}

// StopAll shuts every running race down.
func (m *RaceManager) StopAll() {
	m.RLock()
	running := make([]*game.RaceServer, 0, len(m.sessions))
	for _, rs := range m.sessions {
		running = append(running, rs)
	}
	m.RUnlock()

	for _, rs := range running {
		rs.Stop()
	}
}

// controllerFor rebuilds the player's difficulty state from their
// stored profile so progress survives restarts.
func (m *RaceManager) controllerFor(playerID uuid.UUID) *difficulty.Controller {
	controller := difficulty.NewController()
	if m.userRepo == nil {
		return controller
	}

	user, err := m.userRepo.ByID(playerID)
	if err != nil {
		m.logger.Warning(fmt.Sprintf("Loading profile for %s: %s", playerID, err))
		return controller
	}

	controller.RestoreProgress(user.Level, difficulty.Skill(user.Skill))
	return controller
}

// generateMaze builds a maze for the given difficulty parameters.
func (m *RaceManager) generateMaze(p difficulty.Parameters) (*maze.Grid, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return maze.Generate(p.Width, p.Height, p.Algorithm, rng)
}

// listenRaceChan pumps race output to the player's clients until the
// race ends, then finalizes the session.
func (m *RaceManager) listenRaceChan(playerID uuid.UUID, rs *game.RaceServer) {
	stateChan := rs.StateChan
	for {
		select {
		case val, ok := <-stateChan:
			if !ok {
				stateChan = nil
				continue
			}
			m.broadcaster.BroadcastToPlayer(playerID, raceStateEvent, val)
		case val, ok := <-rs.EndChan:
			if ok {
				m.broadcaster.BroadcastToPlayer(playerID, raceEndedEvent, val)
			}
			m.finishRace(playerID, rs)
			return
		}
	}
}

// finishRace persists everything a race produced and frees the session.
func (m *RaceManager) finishRace(playerID uuid.UUID, rs *game.RaceServer) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if table := rs.Navigator().Table(); table != nil {
		if err := m.store.Save(ctx, m.worker, table.Snapshot()); err != nil {
			m.logger.Error(fmt.Sprintf("Persisting value table: %s", err))
		}
	}

	winner := rs.Winner()
	if m.leaderboard != nil && winner != game.WinnerNone {
		if _, err := m.leaderboard.RecordResult(ctx, playerID, winner == game.WinnerPlayer); err != nil {
			m.logger.Error(fmt.Sprintf("Recording race result: %s", err))
		}
	}

	m.persistProgress(playerID, rs.Controller())

	m.Lock()
	delete(m.sessions, playerID)
	m.Unlock()

	m.logger.Info(fmt.Sprintf("Race finished: player=%s winner=%s", playerID, winner))
}

// persistProgress writes the player's new level and skill tier back to
// their profile.
func (m *RaceManager) persistProgress(playerID uuid.UUID, controller *difficulty.Controller) {
	if m.userRepo == nil {
		return
	}

	user, err := m.userRepo.ByID(playerID)
	if err != nil {
		m.logger.Warning(fmt.Sprintf("Loading profile for %s: %s", playerID, err))
		return
	}

	user.Level = controller.Level()
	user.Skill = string(controller.Skill())
	if err := m.userRepo.Save(user); err != nil {
		m.logger.Error(fmt.Sprintf("Persisting profile for %s: %s", playerID, err))
	}
}
