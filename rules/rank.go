package rules

import (
	"sort"

	"github.com/chaitanyamukeshpatel/Gomoku-AI/game"
)

// Heuristic tiers, highest first.
const (
	TierWin        = 15
	TierBlockWin   = 13
	TierFour       = 10
	TierBlockFour  = 7
	TierThree      = 4
	TierBlockThree = 3
	TierTwo        = 2
	TierQuiet      = 1
)

// RankOptions selects legacy ranking behaviour. The zero value ranks every
// axis the same way against the real opponent.
type RankOptions struct {
	// FixedOpponent treats Black as the opponent whichever side is ranked,
	// so Black's "blocking" tiers look at its own pieces.
	FixedOpponent bool
	// LegacyDiagonalBlock lets a diagonal opponent line of four (not five)
	// count as a win block.
	LegacyDiagonalBlock bool
}

// Candidate is a ranked empty cell.
type Candidate struct {
	Point game.Point
	Tier  int
}

// less orders candidates by tier descending, then row-major ascending.
func (c Candidate) less(o Candidate) bool {
	if c.Tier != o.Tier {
		return c.Tier > o.Tier
	}
	return c.Point.Index() < o.Point.Index()
}

func (o RankOptions) opponent(side game.Side) game.Side {
	if o.FixedOpponent {
		return game.Black
	}
	return side.Opponent()
}

// lines holds the axis lengths side and its opponent would reach through a
// cell if each placed there.
type lines struct {
	own [4]int
	opp [4]int
}

func measure(g *game.Grid, side, opp game.Side, p game.Point) lines {
	var l lines
	for i, a := range Axes {
		l.own[i] = AxisLength(g, side, p, a)
		l.opp[i] = AxisLength(g, opp, p, a)
	}
	return l
}

func anyAtLeast(v [4]int, n int) bool {
	for _, x := range v {
		if x >= n {
			return true
		}
	}
	return false
}

// Tier scores the empty cell p for side. Conditions are checked from the
// highest tier down and the first match wins.
func Tier(g *game.Grid, side game.Side, p game.Point, opts RankOptions) int {
	l := measure(g, side, opts.opponent(side), p)

	blocksWin := anyAtLeast(l.opp, WinLength)
	if opts.LegacyDiagonalBlock {
		// Axes[2] and Axes[3] are the diagonals.
		blocksWin = l.opp[0] >= WinLength || l.opp[1] >= WinLength ||
			l.opp[2] >= WinLength-1 || l.opp[3] >= WinLength-1
	}

	switch {
	case anyAtLeast(l.own, WinLength):
		return TierWin
	case blocksWin:
		return TierBlockWin
	case anyAtLeast(l.own, 4):
		return TierFour
	case anyAtLeast(l.opp, 4):
		return TierBlockFour
	case anyAtLeast(l.own, 3):
		return TierThree
	case anyAtLeast(l.opp, 3):
		return TierBlockThree
	case anyAtLeast(l.own, 2):
		return TierTwo
	default:
		return TierQuiet
	}
}

// Rank scores every candidate from Options for side and returns them best
// first. Equal tiers keep row-major order.
func Rank(g *game.Grid, side game.Side, opts RankOptions) []Candidate {
	options := Options(g)
	out := make([]Candidate, 0, len(options))
	for _, p := range options {
		out = append(out, Candidate{Point: p, Tier: Tier(g, side, p, opts)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].less(out[j]) })
	return out
}
