// Command selfplay generates engine-vs-engine games and writes them as Parquet
// batches.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chaitanyamukeshpatel/Gomoku-AI/game"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/logging"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/mcts"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/selfplay"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/store"
)

var totalMoves atomic.Int64

type gameWriteRequest struct {
	gameID string
	rows   []store.MoveRow
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	outDir := fs.String("out-dir", "data/selfplay", "Output directory for parquet batches")
	workers := fs.Int("workers", runtime.NumCPU(), "Number of self-play workers")
	gamesPerFlush := fs.Int("games-per-flush", 50, "Number of games per parquet file")
	maxGames := fs.Int("max-games", 0, "If > 0, stop after this many games")
	budget := fs.Duration("budget", time.Second, "Search time per move")
	iterations := fs.Int("iterations", 0, "If > 0, stop each search after this many iterations")
	seed := fs.Int64("seed", 0, "Base seed; 0 uses the clock")
	stream := fs.Bool("stream", true, "Stream rows into the open batch instead of buffering them in memory")
	writtenLog := fs.String("written-log", "", "Log of flushed game IDs used to resume a seeded run (default <out-dir>/written.log)")
	useTUI := fs.Bool("tui", false, "Show a live dashboard")
	verbose := fs.Bool("verbose", false, "Log every board")
	logFormat := fs.String("log-format", "text", "Log format: text, json or pretty")
	logLevel := fs.String("log-level", "info", "Log level")
	_ = fs.Parse(os.Args[1:])

	logOut := os.Stderr
	if *useTUI {
		f, err := os.OpenFile("selfplay.log", os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger, err := logging.FromFlags(logOut, *logFormat, *logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	if *writtenLog == "" {
		*writtenLog = filepath.Join(*outDir, "written.log")
	}
	written, err := store.OpenWrittenLog(*writtenLog)
	if err != nil {
		logger.Error("open written log", "err", err)
		os.Exit(1)
	}
	defer written.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	engine := mcts.DefaultConfig()
	engine.Budget = *budget
	engine.MaxIterations = *iterations

	updates := make(chan GameUpdate, *workers)
	writeReqs := make(chan gameWriteRequest, (*workers)*4)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		if *stream {
			streamWriterLoop(logger, *outDir, *gamesPerFlush, written, writeReqs)
		} else {
			parquetWriterLoop(logger, *outDir, *gamesPerFlush, written, writeReqs)
		}
	}()

	cfg := selfplay.RunConfig{
		Workers: *workers,
		Games:   *maxGames,
		Seed:    *seed,
		Skip:    written.Has,
		Play: selfplay.Options{
			Engine:  engine,
			Verbose: *verbose,
			Logger:  logger,
			OnStep: func(int, game.Side, game.Point) {
				totalMoves.Add(1)
			},
		},
	}

	logger.Info("starting self-play", "already_written", written.Count(), "workers", *workers, "budget", *budget, "iterations", *iterations, "seed", *seed, "out_dir", *outDir)

	runDone := make(chan error, 1)
	go func() {
		runDone <- selfplay.Run(ctx, cfg, func(out selfplay.PlayGameOutcome) error {
			writeReqs <- gameWriteRequest{gameID: out.Result.GameID, rows: out.Rows}
			select {
			case updates <- GameUpdate{Result: out.Result}:
			default:
			}
			logger.Info("game finished",
				"game_id", out.Result.GameID,
				"winner", selfplay.WinnerLabel(out.Result.Winner),
				"plies", out.Result.Plies,
			)
			return nil
		})
	}()

	var runErr error
	if *useTUI {
		p := tea.NewProgram(initialModel(updates), tea.WithAltScreen())
		result := make(chan error, 1)
		go func() {
			result <- <-runDone
			p.Quit()
		}()
		if _, err := p.Run(); err != nil {
			logger.Error("dashboard", "err", err)
		}
		// Quitting the dashboard stops the pool; wait for it to drain.
		cancel()
		runErr = <-result
	} else {
		runErr = <-runDone
	}
	close(writeReqs)
	<-writerDone

	if runErr != nil {
		logger.Error("self-play failed", "err", runErr)
		os.Exit(1)
	}
	logger.Info("shutdown complete", "moves", totalMoves.Load())
}

// markWritten records flushed games so a rerun with the same seed skips them.
func markWritten(logger *slog.Logger, written *store.WrittenLog, ids []string) {
	if err := written.AddMany(ids); err != nil {
		logger.Error("update written log", "err", err)
	}
}

func streamWriterLoop(logger *slog.Logger, outDir string, gamesPerFlush int, written *store.WrittenLog, in <-chan gameWriteRequest) {
	if gamesPerFlush <= 0 {
		gamesPerFlush = 50
	}
	var bw *store.BatchWriter
	var ids []string
	flush := func() {
		if bw == nil {
			return
		}
		outPath, rows, games, err := bw.Finalize()
		bw = nil
		if err != nil {
			logger.Error("parquet flush failed", "err", err)
			ids = ids[:0]
			return
		}
		if outPath != "" {
			logger.Info("parquet flush ok", "path", outPath, "games", games, "rows", rows)
			markWritten(logger, written, ids)
		}
		ids = ids[:0]
	}

	for req := range in {
		if len(req.rows) == 0 {
			continue
		}
		if bw == nil {
			var err error
			bw, err = store.NewBatchWriter(outDir)
			if err != nil {
				logger.Error("open batch writer", "err", err)
				continue
			}
		}
		if err := bw.WriteGame(req.rows); err != nil {
			logger.Error("write game", "game_id", req.gameID, "err", err)
			continue
		}
		ids = append(ids, req.gameID)
		if bw.BufferedGames() >= gamesPerFlush {
			flush()
		}
	}
	flush()
}

func parquetWriterLoop(logger *slog.Logger, outDir string, gamesPerFlush int, written *store.WrittenLog, in <-chan gameWriteRequest) {
	if gamesPerFlush <= 0 {
		gamesPerFlush = 50
	}

	pendingRows := make([]store.MoveRow, 0, 64*gamesPerFlush)
	var pendingIDs []string
	flush := func() {
		outPath, err := store.WriteBatchParquetAtomic(outDir, pendingRows)
		if err != nil {
			logger.Error("parquet flush failed", "games", len(pendingIDs), "rows", len(pendingRows), "err", err)
		} else {
			logger.Info("parquet flush ok", "path", outPath, "games", len(pendingIDs), "rows", len(pendingRows))
			markWritten(logger, written, pendingIDs)
		}
		pendingRows = pendingRows[:0]
		pendingIDs = pendingIDs[:0]
	}

	for req := range in {
		if len(req.rows) == 0 {
			continue
		}
		pendingRows = append(pendingRows, req.rows...)
		pendingIDs = append(pendingIDs, req.gameID)
		if len(pendingIDs) >= gamesPerFlush {
			flush()
		}
	}
	if len(pendingIDs) > 0 {
		flush()
	}
}
