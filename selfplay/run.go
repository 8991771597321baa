package selfplay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// RunConfig configures a pool of self-play workers.
type RunConfig struct {
	Workers int
	// Games stops the pool after that many games were started; 0 runs until
	// ctx is done.
	Games int
	// Seed is combined with the game number into each game's seed.
	Seed int64
	Play Options
	// Skip reports games already recorded by an earlier run with the same
	// Seed. Skipped games still count towards Games.
	Skip func(gameID string) bool
}

// GameID is the ID of the n-th game of a run seeded with seed.
func GameID(seed, n int64) string {
	return fmt.Sprintf("selfplay_%d_%d", seed, n)
}

// Run plays games on cfg.Workers goroutines and hands each completed game to
// sink. sink calls are serialized. An error from sink or from a game stops the
// pool and is returned; cancellation of ctx is not an error.
func Run(ctx context.Context, cfg RunConfig, sink func(PlayGameOutcome) error) error {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	var started atomic.Int64
	var sinkMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				if gctx.Err() != nil {
					return nil
				}
				n := started.Add(1)
				if cfg.Games > 0 && n > int64(cfg.Games) {
					return nil
				}

				gameID := GameID(cfg.Seed, n)
				if cfg.Skip != nil && cfg.Skip(gameID) {
					continue
				}
				opts := cfg.Play
				opts.Seed = cfg.Seed + n*1000003

				out, err := PlayGame(gctx, gameID, opts)
				if err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return nil
					}
					return err
				}

				sinkMu.Lock()
				err = sink(out)
				sinkMu.Unlock()
				if err != nil {
					return err
				}
			}
		})
	}
	return g.Wait()
}
