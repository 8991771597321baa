// Command stats summarises self-play parquet batches with DuckDB.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/chaitanyamukeshpatel/Gomoku-AI/logging"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/store"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	dir := fs.String("dir", "data/selfplay", "Directory holding batch_*.parquet files")
	logFormat := fs.String("log-format", "text", "Log format: text, json or pretty")
	logLevel := fs.String("log-level", "info", "Log level")
	_ = fs.Parse(os.Args[1:])

	logger, err := logging.FromFlags(os.Stderr, *logFormat, *logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	s, err := store.Summarize(context.Background(), *dir)
	if err != nil {
		logger.Error("summarize", "dir", *dir, "err", err)
		os.Exit(1)
	}
	if s.Files == 0 {
		logger.Warn("no batches found", "dir", *dir)
		return
	}

	decided := s.WhiteWins + s.BlackWins
	fmt.Printf("files:          %d\n", s.Files)
	fmt.Printf("games:          %d\n", s.Games)
	fmt.Printf("plies:          %d\n", s.Plies)
	fmt.Printf("white wins:     %d\n", s.WhiteWins)
	fmt.Printf("black wins:     %d\n", s.BlackWins)
	fmt.Printf("draws:          %d\n", s.Draws)
	if decided > 0 {
		fmt.Printf("white win rate: %.3f\n", float64(s.WhiteWins)/float64(decided))
	}
	fmt.Printf("avg iterations: %.1f\n", s.AvgIterations)
}
