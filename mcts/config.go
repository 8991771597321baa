package mcts

import (
	"log/slog"
	"time"

	"github.com/chaitanyamukeshpatel/Gomoku-AI/rules"
)

const (
	DefaultBudget      = 7 * time.Second
	DefaultMaxChildren = 5
	DefaultExploration = 1.0
)

// Config holds MCTS configuration.
type Config struct {
	// Budget is the wall-clock time for one search. Zero means no time limit
	// when MaxIterations is set, DefaultBudget otherwise.
	Budget time.Duration
	// MaxIterations stops the search early; 0 is unbounded.
	MaxIterations int
	// MaxChildren caps the branching factor of every tree node.
	MaxChildren int
	// Exploration scales the UCT exploration term.
	Exploration float64
	// Seed feeds the random opponent draws. 0 picks a time-based seed.
	Seed  int64
	Rank  rules.RankOptions
	Clock Clock
	// Logger receives one debug record per search. Nil discards.
	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		Budget:      DefaultBudget,
		MaxChildren: DefaultMaxChildren,
		Exploration: DefaultExploration,
	}
}

func (c Config) withDefaults() Config {
	if c.Budget <= 0 && c.MaxIterations <= 0 {
		c.Budget = DefaultBudget
	}
	if c.MaxChildren <= 0 {
		c.MaxChildren = DefaultMaxChildren
	}
	if c.Exploration <= 0 {
		c.Exploration = DefaultExploration
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	if c.Clock == nil {
		c.Clock = SystemClock{}
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}
