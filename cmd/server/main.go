// Command server serves engine moves over HTTP and WebSocket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chaitanyamukeshpatel/Gomoku-AI/logging"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/mcts"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/server"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/store"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	listen := fs.String("listen", ":8080", "Listen address")
	moveTimeout := fs.Duration("move-timeout", mcts.DefaultBudget, "Default search time when a request has no budget_ms")
	maxBudget := fs.Duration("max-budget", server.DefaultMaxBudget, "Upper bound on any request budget")
	maxChildren := fs.Int("max-children", mcts.DefaultMaxChildren, "Branching cap per tree node")
	exploration := fs.Float64("exploration", mcts.DefaultExploration, "UCT exploration constant")
	dataDir := fs.String("data-dir", "", "Self-play batch directory served under /api/games")
	legacy := fs.Bool("legacy-rank", false, "Rank with a fixed black opponent and diagonal block threshold 4")
	logFormat := fs.String("log-format", "text", "Log format: text, json or pretty")
	logLevel := fs.String("log-level", "info", "Log level")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	logger, err := logging.FromFlags(os.Stderr, *logFormat, *logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg := server.DefaultConfig()
	cfg.DefaultBudget = *moveTimeout
	cfg.MaxBudget = *maxBudget
	cfg.Engine.MaxChildren = *maxChildren
	cfg.Engine.Exploration = *exploration
	cfg.Engine.Rank.FixedOpponent = *legacy
	cfg.Engine.Rank.LegacyDiagonalBlock = *legacy
	cfg.Logger = logger
	if *dataDir != "" {
		catalog, err := store.OpenCatalog(*dataDir)
		if err != nil {
			logger.Error("open catalog", "dir", *dataDir, "err", err)
			os.Exit(1)
		}
		defer catalog.Close()
		cfg.Games = catalog
	}

	// Long searches must fit in the write timeout.
	srv := &http.Server{
		Addr:              *listen,
		Handler:           server.New(cfg).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.MaxBudget + 10*time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", *listen, "move_timeout", *moveTimeout, "max_budget", *maxBudget)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}
