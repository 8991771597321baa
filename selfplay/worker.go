package selfplay

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/chaitanyamukeshpatel/Gomoku-AI/game"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/mcts"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/rules"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/store"
)

const DefaultSource = "selfplay"

// Options configures one self-play game.
type Options struct {
	// Engine is used for every move. Its Seed is replaced per ply from Seed.
	Engine mcts.Config
	// Seed drives the per-ply engine seeds. 0 picks a time-based seed.
	Seed   int64
	Source string
	// First is the side making the opening move. Empty means White.
	First game.Side
	// Verbose logs the board after every ply at info level.
	Verbose bool
	Logger  *slog.Logger
	// OnStep is called after every ply.
	OnStep func(ply int, side game.Side, mv game.Point)
}

type GameResult struct {
	GameID string
	// Winner is Empty for a draw.
	Winner game.Side
	Plies  int
}

type PlayGameOutcome struct {
	Completed bool
	Result    GameResult
	Rows      []store.MoveRow
	Final     game.Grid
}

// WinnerLabel is the Winner column value: "white", "black" or "draw".
func WinnerLabel(s game.Side) string {
	if !s.Valid() {
		return "draw"
	}
	return s.String()
}

// BoardString packs a grid into one '/'-separated line.
func BoardString(g *game.Grid) string {
	return strings.Join(g.Rows(), "/")
}

// PlayGame plays the engine against itself from the empty board until a side
// completes five or the grid fills up. If ctx is cancelled the partial game is
// returned with Completed unset together with ctx.Err().
func PlayGame(ctx context.Context, gameID string, opts Options) (PlayGameOutcome, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	source := opts.Source
	if source == "" {
		source = DefaultSource
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	side := opts.First
	if !side.Valid() {
		side = game.White
	}

	var grid game.Grid
	rows := make([]store.MoveRow, 0, 64)
	winner := game.Empty

	for ply := 0; ; ply++ {
		if err := ctx.Err(); err != nil {
			return partial(gameID, ply, rows, grid), err
		}

		cfg := opts.Engine
		cfg.Seed = rng.Int63() | 1
		res, err := mcts.BestMove(ctx, grid, side, cfg)
		if err != nil {
			if ctx.Err() != nil {
				return partial(gameID, ply, rows, grid), ctx.Err()
			}
			return PlayGameOutcome{}, fmt.Errorf("game %s ply %d: %w", gameID, ply, err)
		}

		row, err := moveRow(gameID, ply, side, &grid, res)
		if err != nil {
			return PlayGameOutcome{}, err
		}
		row.Source = source
		rows = append(rows, row)

		if !grid.Place(side, res.Move) {
			return PlayGameOutcome{}, fmt.Errorf("game %s ply %d: engine chose occupied cell %s", gameID, ply, res.Move)
		}
		if opts.Verbose {
			logger.Info("ply",
				"game_id", gameID,
				"ply", ply,
				"side", side.String(),
				"move", res.Move.String(),
				"iterations", res.Iterations,
				"board", "\n"+FormatBoard(&grid, res.Move),
			)
		}
		if opts.OnStep != nil {
			opts.OnStep(ply, side, res.Move)
		}

		if rules.CheckWin(&grid, res.Move) {
			winner = side
			break
		}
		if rules.IsFull(&grid) {
			break
		}
		side = side.Opponent()
	}

	AssignValues(rows, winner)
	logger.Debug("selfplay game complete",
		"game_id", gameID,
		"winner", WinnerLabel(winner),
		"plies", len(rows),
	)

	return PlayGameOutcome{
		Completed: true,
		Result:    GameResult{GameID: gameID, Winner: winner, Plies: len(rows)},
		Rows:      rows,
		Final:     grid,
	}, nil
}

func partial(gameID string, ply int, rows []store.MoveRow, grid game.Grid) PlayGameOutcome {
	return PlayGameOutcome{
		Result: GameResult{GameID: gameID, Plies: ply},
		Rows:   rows,
		Final:  grid,
	}
}

func moveRow(gameID string, ply int, side game.Side, before *game.Grid, res mcts.Result) (store.MoveRow, error) {
	var rate float64
	children := make([]store.SearchChild, 0, len(res.Children))
	for _, c := range res.Children {
		if c.Move == res.Move {
			rate = c.Rate
		}
		children = append(children, store.SearchChild{
			Row:    c.Move.Row,
			Col:    c.Move.Col,
			Visits: c.Visits,
			Wins:   c.Wins,
		})
	}
	searchJSON, err := store.EncodeSearchJSON(children)
	if err != nil {
		return store.MoveRow{}, fmt.Errorf("encode search: %w", err)
	}
	return store.MoveRow{
		GameID:     gameID,
		Ply:        int32(ply),
		Side:       side.String(),
		Row:        int32(res.Move.Row),
		Col:        int32(res.Move.Col),
		Board:      BoardString(before),
		Iterations: int32(res.Iterations),
		RootRate:   float32(rate),
		Fallback:   res.Fallback,
		SearchJSON: searchJSON,
	}, nil
}

// AssignValues fills Value and Winner once the outcome is known.
func AssignValues(rows []store.MoveRow, winner game.Side) {
	label := WinnerLabel(winner)
	for i := range rows {
		rows[i].Winner = label
		switch {
		case !winner.Valid():
			rows[i].Value = 0
		case rows[i].Side == winner.String():
			rows[i].Value = 1
		default:
			rows[i].Value = -1
		}
	}
}
