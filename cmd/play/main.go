// Command play is a terminal game against the engine.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chaitanyamukeshpatel/Gomoku-AI/game"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/mcts"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/tui"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	side := fs.String("side", "w", "Your side: w or b")
	engineFirst := fs.Bool("engine-first", false, "Let the engine open")
	budget := fs.Duration("budget", 2*time.Second, "Engine search time per move")
	seed := fs.Int64("seed", 0, "Engine seed; 0 uses the clock")
	_ = fs.Parse(os.Args[1:])

	human, err := game.ParseSide(*side)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	engine := mcts.DefaultConfig()
	engine.Budget = *budget
	engine.Seed = *seed

	m := tui.New(tui.Options{Human: human, EngineFirst: *engineFirst, Engine: engine})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
