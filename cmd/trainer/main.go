// Command trainer pre-trains bot value tables offline. One worker per
// maze size runs self-play episodes and checkpoints its table into the
// shared model store, where the API server picks the highest-level
// snapshot up at race start.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/adaptivemaze/amaze-api/agent"
	"github.com/adaptivemaze/amaze-api/bot"
	"github.com/adaptivemaze/amaze-api/infrastruture/modelstore"
	"github.com/adaptivemaze/amaze-api/logging"
	"github.com/adaptivemaze/amaze-api/maze"
	"github.com/urfave/cli/v3"
)

// episodeStepCap bounds one episode even through regenerations, so a
// pathological table cannot wedge a worker forever.
const episodeStepCap = 100000

var workerColors = []string{
	logging.ColorGreen,
	logging.ColorCyan,
	logging.ColorMagenta,
	logging.ColorBlue,
}

var algorithms = []maze.Algorithm{
	maze.AlgorithmDFS,
	maze.AlgorithmKruskal,
	maze.AlgorithmWilson,
}

func main() {
	cmd := &cli.Command{
		Name:  "trainer",
		Usage: "pre-train maze bot value tables into the model store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "models",
				Value: "./models",
				Usage: "model store directory",
			},
			&cli.IntSliceFlag{
				Name:  "sizes",
				Value: []int64{11, 15, 21, 31},
				Usage: "square maze sizes to train, one worker each",
			},
			&cli.IntFlag{
				Name:  "episodes",
				Value: 200,
				Usage: "self-play episodes per size",
			},
			&cli.IntFlag{
				Name:  "save-every",
				Value: 25,
				Usage: "checkpoint interval in episodes",
			},
			&cli.IntFlag{
				Name:  "seed",
				Value: 0,
				Usage: "base RNG seed, 0 means time-seeded",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	sizes := cmd.IntSlice("sizes")
	episodes := cmd.Int("episodes")
	saveEvery := cmd.Int("save-every")
	seed := int64(cmd.Int("seed"))

	if len(sizes) == 0 {
		return fmt.Errorf("at least one size is required")
	}
	if episodes < 1 {
		return fmt.Errorf("episodes must be positive, got %d", episodes)
	}
	if saveEvery < 1 {
		saveEvery = episodes
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	store, err := modelstore.New(cmd.String("models"))
	if err != nil {
		return fmt.Errorf("opening model store: %w", err)
	}
	defer store.Close()

	var wg sync.WaitGroup
	errs := make(chan error, len(sizes))
	for idx, size := range sizes {
		size := size
		color := workerColors[idx%len(workerColors)]
		rng := rand.New(rand.NewSource(seed + int64(idx)))

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := trainSize(ctx, store, int(size), int(episodes), int(saveEvery), color, rng); err != nil {
				errs <- fmt.Errorf("size %dx%d: %w", size, size, err)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		return err
	}
	return nil
}

// trainSize runs one worker: episodes of self-play on freshly generated
// mazes of a single size, with the level raised each episode so the
// exploration schedule tightens as the table matures.
func trainSize(ctx context.Context, store *modelstore.Store, size, episodes, saveEvery int, color string, rng *rand.Rand) error {
	logger, err := logging.New(fmt.Sprintf("TRAIN-%dX%d", size, size), color, os.Stdout)
	if err != nil {
		return err
	}
	worker := fmt.Sprintf("trainer-%dx%d", size, size)

	nav := bot.New(bot.Config{
		UsePathHints: true,
		Agent:        agent.DefaultConfig(),
		RNG:          rng,
	})

	resumeLevel := 1
	snap, err := store.Load(ctx, size, size)
	switch {
	case err == nil:
		resumeLevel = snap.Level + 1
		logger.Infof("resuming from level %d snapshot", snap.Level)
	case errors.Is(err, modelstore.ErrNotFound):
		logger.Info("no prior snapshot, training from scratch")
	default:
		return fmt.Errorf("loading snapshot: %w", err)
	}

	for episode := 0; episode < episodes; episode++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		level := resumeLevel + episode
		algorithm := algorithms[episode%len(algorithms)]

		steps, err := runEpisode(nav, snap, size, level, algorithm, rng)
		if err != nil {
			return fmt.Errorf("episode %d: %w", episode+1, err)
		}
		// Only the first Reset needs the adopted snapshot; afterwards
		// the navigator carries its own table between episodes.
		snap = agent.Snapshot{}

		logger.Infof("episode %d/%d done: level %d, %s, %d steps", episode+1, episodes, level, algorithm, steps)

		if (episode+1)%saveEvery == 0 || episode == episodes-1 {
			if err := store.Save(ctx, worker, nav.Table().Snapshot()); err != nil {
				return fmt.Errorf("saving checkpoint: %w", err)
			}
			logger.Infof("checkpoint saved at level %d", level)
		}
	}
	return nil
}

// runEpisode walks the navigator from entry to exit on one fresh maze,
// regenerating mid-episode when the navigator reports itself stuck.
func runEpisode(nav *bot.Navigator, snap agent.Snapshot, size, level int, algorithm maze.Algorithm, rng *rand.Rand) (int, error) {
	grid, err := maze.Generate(size, size, algorithm, rng)
	if err != nil {
		return 0, err
	}
	if err := nav.Reset(grid, grid.Start(), grid.Goal()); err != nil {
		return 0, err
	}
	if snap.Width > 0 {
		if err := nav.AdoptSnapshot(snap); err != nil {
			return 0, fmt.Errorf("adopting snapshot: %w", err)
		}
	}
	nav.SetLevel(level)

	for steps := 0; steps < episodeStepCap; steps++ {
		_, outcome := nav.Step()
		switch outcome {
		case bot.OutcomeReached:
			return steps + 1, nil
		case bot.OutcomeRegenerate:
			grid, err = maze.Generate(size, size, algorithm, rng)
			if err != nil {
				return 0, err
			}
			if err := nav.Reset(grid, grid.Start(), grid.Goal()); err != nil {
				return 0, err
			}
			nav.SetLevel(level)
		}
	}
	return 0, fmt.Errorf("episode exceeded %d steps", episodeStepCap)
}
