package selfplay

import (
	"context"

	"github.com/chaitanyamukeshpatel/Gomoku-AI/game"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/mcts"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/store"
)

// DebugSearch runs one search and flattens the finished tree into rows in
// breadth-first order.
func DebugSearch(ctx context.Context, searchID string, grid game.Grid, side game.Side, cfg mcts.Config) (mcts.Result, []store.DebugNodeRow, error) {
	eng, err := mcts.New(grid, side, cfg)
	if err != nil {
		return mcts.Result{}, nil, err
	}
	res, err := eng.Search(ctx)
	if err != nil {
		return res, nil, err
	}

	c := cfg.Exploration
	if c <= 0 {
		c = mcts.DefaultExploration
	}
	tree := eng.Tree()
	rows := make([]store.DebugNodeRow, 0, tree.Len())
	depth := make([]int32, tree.Len())

	queue := []mcts.NodeID{tree.Root()}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := tree.Node(id)

		row := store.DebugNodeRow{
			SearchID: searchID,
			Node:     int32(id),
			Parent:   int32(n.Parent),
			Mover:    n.Mover.String(),
			Row:      -1,
			Col:      -1,
			Visits:   int32(n.Visits),
			Wins:     float32(n.Wins),
			Terminal: n.Terminal,
			Board:    BoardString(&n.Grid),
		}
		if n.HasMove {
			row.Row = int32(n.Move.Row)
			row.Col = int32(n.Move.Col)
		}
		if n.Terminal {
			row.Winner = WinnerLabel(n.Winner)
		}
		if n.Parent != mcts.NoParent {
			depth[id] = depth[n.Parent] + 1
			row.UCT = float32(mcts.UCT(n.Wins, n.Visits, tree.Node(n.Parent).Visits, c))
		}
		row.Depth = depth[id]
		rows = append(rows, row)

		queue = append(queue, n.Children...)
	}
	return res, rows, nil
}
