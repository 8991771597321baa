// Command debugsearch runs one search on a position and dumps the tree to
// Parquet for inspection.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chaitanyamukeshpatel/Gomoku-AI/game"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/logging"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/mcts"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/selfplay"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/store"
)

func readBoard(path string) (game.Grid, error) {
	if path == "" {
		return game.Grid{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return game.Grid{}, err
	}
	defer f.Close()

	var rows []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			rows = append(rows, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return game.Grid{}, err
	}
	return game.ParseRows(rows)
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	boardPath := fs.String("board", "", "File with one grid row per line ('.', 'w', 'b'); empty board when unset")
	sideFlag := fs.String("side", "w", "Side to search for")
	iterations := fs.Int("iterations", 200, "Search iterations")
	budget := fs.Duration("budget", 0, "Search time; 0 relies on -iterations")
	seed := fs.Int64("seed", 1, "Engine seed")
	outDir := fs.String("out-dir", "debug_trees", "Output directory for tree dumps")
	logFormat := fs.String("log-format", "text", "Log format: text, json or pretty")
	logLevel := fs.String("log-level", "debug", "Log level")
	_ = fs.Parse(os.Args[1:])

	logger, err := logging.FromFlags(os.Stderr, *logFormat, *logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	grid, err := readBoard(*boardPath)
	if err != nil {
		logger.Error("read board", "path", *boardPath, "err", err)
		os.Exit(1)
	}
	side, err := game.ParseSide(*sideFlag)
	if err != nil {
		logger.Error("parse side", "err", err)
		os.Exit(2)
	}

	cfg := mcts.DefaultConfig()
	cfg.Budget = *budget
	cfg.MaxIterations = *iterations
	cfg.Seed = *seed
	cfg.Logger = logger

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	searchID := fmt.Sprintf("%s_%d", side, *seed)
	res, rows, err := selfplay.DebugSearch(ctx, searchID, grid, side, cfg)
	if err != nil {
		logger.Error("search failed", "err", err)
		os.Exit(1)
	}

	path, err := store.WriteDebugTreeParquet(*outDir, searchID, rows)
	if err != nil {
		logger.Error("write tree", "err", err)
		os.Exit(1)
	}

	fmt.Print(selfplay.FormatBoard(&grid, game.Point{Row: -1, Col: -1}))
	fmt.Printf("\n%s plays %s after %d iterations (%d nodes)\n", side, res.Move, res.Iterations, len(rows))
	for _, c := range res.Children {
		mark := " "
		if c.Move == res.Move {
			mark = "*"
		}
		fmt.Printf("%s %-8s N=%-5d W=%-8.1f rate=%.3f\n", mark, c.Move, c.Visits, c.Wins, c.Rate)
	}
	fmt.Printf("\ntree written to %s\n", path)
}
