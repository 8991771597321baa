package mcts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/chaitanyamukeshpatel/Gomoku-AI/game"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/rules"
)

var (
	ErrBoardFull       = errors.New("mcts: board is full")
	ErrGameOver        = errors.New("mcts: position already has a winner")
	ErrAlreadySearched = errors.New("mcts: engine already searched")
)

// reward is indexed by game.Side.
type reward [3]float64

func rewardFor(winner game.Side) reward {
	if winner == game.Empty {
		return reward{0.5, 0.5, 0.5}
	}
	var r reward
	r[winner] = 1
	return r
}

// ChildStat summarises one root child after a search.
type ChildStat struct {
	Move   game.Point
	Visits int
	Wins   float64
	Rate   float64
}

type Result struct {
	Move       game.Point
	Iterations int
	Elapsed    time.Duration
	Children   []ChildStat
	// Fallback is set when no iteration completed and Move is the top
	// ranked candidate instead of a searched one.
	Fallback bool
}

// Engine runs one search for one side from one position. It is single use.
type Engine struct {
	cfg  Config
	side game.Side
	tree *Tree
	rng  *rand.Rand
	log  *slog.Logger

	searched   bool
	iterations int
}

// New validates the position and seeds the root ranking for side.
func New(grid game.Grid, side game.Side, cfg Config) (*Engine, error) {
	if !side.Valid() {
		return nil, fmt.Errorf("mcts: side %d: %w", side, game.ErrInvalidSide)
	}
	if w := rules.Winner(&grid); w != game.Empty {
		return nil, fmt.Errorf("%w: %s has five in a row", ErrGameOver, w)
	}
	if rules.IsFull(&grid) {
		return nil, ErrBoardFull
	}

	cfg = cfg.withDefaults()
	root := Node{
		Grid:   grid,
		Mover:  side.Opponent(),
		Visits: 1,
		queue:  rules.RankQueue(&grid, side, cfg.Rank),
	}
	return &Engine{
		cfg:  cfg,
		side: side,
		tree: newTree(root, cfg.MaxChildren),
		rng:  rand.New(rand.NewSource(cfg.Seed)),
		log:  cfg.Logger,
	}, nil
}

// BestMove builds an engine for one position and searches it.
func BestMove(ctx context.Context, grid game.Grid, side game.Side, cfg Config) (Result, error) {
	e, err := New(grid, side, cfg)
	if err != nil {
		return Result{}, err
	}
	return e.Search(ctx)
}

// Tree exposes the search tree for inspection.
func (e *Engine) Tree() *Tree { return e.tree }

// Search runs until the budget elapses, MaxIterations is reached or ctx is
// done, and returns the root child with the best win rate. On cancellation
// the best move so far is returned together with ctx.Err().
func (e *Engine) Search(ctx context.Context) (Result, error) {
	if e.searched {
		return Result{}, ErrAlreadySearched
	}
	e.searched = true

	clock := e.cfg.Clock
	start := clock.Now()
	deadline := start.Add(e.cfg.Budget)

	var err error
	for {
		if e.cfg.MaxIterations > 0 && e.iterations >= e.cfg.MaxIterations {
			break
		}
		if e.cfg.Budget > 0 && clock.Now().After(deadline) {
			break
		}
		if ctx != nil {
			select {
			case <-ctx.Done():
				err = ctx.Err()
			default:
			}
			if err != nil {
				break
			}
		}

		// Selection and expansion
		leaf := e.selection(e.tree.Root())
		// Simulation
		r := e.simulation(leaf)
		// Backpropagation
		e.backpropagation(leaf, r)

		e.iterations++
	}

	res := e.result()
	res.Elapsed = clock.Now().Sub(start)

	e.log.Debug("mcts search complete",
		"side", e.side.String(),
		"move", res.Move.String(),
		"iterations", res.Iterations,
		"nodes", e.tree.Len(),
		"fallback", res.Fallback,
		"children", childAttrs(res.Children),
	)
	return res, err
}

func (e *Engine) result() Result {
	root := e.tree.Node(e.tree.Root())
	res := Result{Iterations: e.iterations}
	for _, id := range root.Children {
		c := e.tree.Node(id)
		res.Children = append(res.Children, ChildStat{Move: c.Move, Visits: c.Visits, Wins: c.Wins, Rate: c.Rate()})
	}

	if best, ok := e.tree.BestChild(e.tree.Root()); ok {
		res.Move = e.tree.Node(best).Move
		return res
	}
	cands := rules.Rank(&root.Grid, e.side, e.cfg.Rank)
	res.Move = cands[0].Point
	res.Fallback = true
	return res
}

// selection descends from id until it expands a new child or reaches a
// terminal node.
func (e *Engine) selection(id NodeID) NodeID {
	for {
		n := e.tree.Node(id)
		if n.Terminal {
			return id
		}
		if len(n.Children) < e.cfg.MaxChildren {
			if child, ok := e.expansion(id); ok {
				return child
			}
			n = e.tree.Node(id)
		}
		if len(n.Children) == 0 {
			return id
		}
		id = e.bestUCT(id)
	}
}

// expansion creates one new child of id. It reports false when id has no
// untried move left.
func (e *Engine) expansion(id NodeID) (NodeID, bool) {
	parent := e.tree.Node(id)
	toMove := parent.ToMove()

	mv, ok := e.nextMove(&parent.Grid, toMove, parent.queue, &parent.tried)
	if !ok {
		return id, false
	}
	parent.tried.add(mv)

	child := e.newNode(parent.Grid.Clone(), toMove, mv)
	return e.tree.attach(id, child), true
}

// newNode plays mv for mover on g and classifies the result.
func (e *Engine) newNode(g game.Grid, mover game.Side, mv game.Point) Node {
	g.MustPlace(mover, mv)
	n := Node{
		Grid:    g,
		Mover:   mover,
		Visits:  1,
		Move:    mv,
		HasMove: true,
	}
	switch {
	case rules.CheckWin(&n.Grid, mv):
		n.Terminal = true
		n.Winner = mover
	case rules.IsFull(&n.Grid):
		n.Terminal = true
	case n.ToMove() == e.side:
		// Only the searching side draws moves from the ranked queue.
		n.queue = rules.RankQueue(&n.Grid, e.side, e.cfg.Rank)
	}
	return n
}

// nextMove is the move policy shared by expansion and simulation: the best
// remaining ranked move for the searching side, a uniform draw over the
// untried options for its opponent.
func (e *Engine) nextMove(g *game.Grid, toMove game.Side, queue *rules.MoveQueue, tried *moveSet) (game.Point, bool) {
	if toMove == e.side {
		c, ok := queue.Pop()
		return c.Point, ok
	}

	opts := rules.Options(g)
	if tried != nil {
		untried := opts[:0]
		for _, p := range opts {
			if !tried.has(p) {
				untried = append(untried, p)
			}
		}
		opts = untried
	}
	if len(opts) == 0 {
		return game.Point{}, false
	}
	return opts[e.rng.Intn(len(opts))], true
}

// simulation plays out from id on a cloned grid until someone wins or the
// grid fills up.
func (e *Engine) simulation(id NodeID) reward {
	n := e.tree.Node(id)
	if n.Terminal {
		return rewardFor(n.Winner)
	}

	g := n.Grid.Clone()
	toMove := n.ToMove()
	for {
		var queue *rules.MoveQueue
		if toMove == e.side {
			queue = rules.RankQueue(&g, toMove, e.cfg.Rank)
		}
		mv, ok := e.nextMove(&g, toMove, queue, nil)
		if !ok {
			return rewardFor(game.Empty)
		}
		g.MustPlace(toMove, mv)
		if rules.CheckWin(&g, mv) {
			return rewardFor(toMove)
		}
		toMove = toMove.Opponent()
	}
}

// backpropagation credits every node from id up to the root with the
// reward of its mover.
func (e *Engine) backpropagation(id NodeID, r reward) {
	for id != NoParent {
		n := e.tree.Node(id)
		n.Visits++
		n.Wins += r[n.Mover]
		id = n.Parent
	}
}

// UCT is the tree policy score of a child.
func UCT(childWins float64, childVisits, parentVisits int, c float64) float64 {
	return childWins/float64(childVisits) + c*math.Sqrt(math.Log(float64(parentVisits))/float64(childVisits))
}

func (e *Engine) bestUCT(id NodeID) NodeID {
	n := e.tree.Node(id)
	best := n.Children[0]
	bestScore := math.Inf(-1)
	for _, cid := range n.Children {
		c := e.tree.Node(cid)
		if s := UCT(c.Wins, c.Visits, n.Visits, e.cfg.Exploration); s > bestScore {
			best, bestScore = cid, s
		}
	}
	return best
}

func childAttrs(children []ChildStat) []any {
	out := make([]any, 0, len(children))
	for _, c := range children {
		out = append(out, map[string]any{
			"move":   c.Move.String(),
			"visits": c.Visits,
			"wins":   c.Wins,
			"rate":   c.Rate,
		})
	}
	return out
}
