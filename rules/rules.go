package rules

import (
	"github.com/chaitanyamukeshpatel/Gomoku-AI/game"
)

// WinLength is the number of contiguous pieces that wins the game.
const WinLength = 5

// Axis is one of the four lines through a cell, given by one of its two
// opposite directions.
type Axis struct {
	DR, DC int
}

// Axes lists horizontal, vertical and both diagonals.
var Axes = [4]Axis{
	{DR: 0, DC: 1},
	{DR: 1, DC: 0},
	{DR: 1, DC: 1},
	{DR: -1, DC: 1},
}

// RunLength counts consecutive cells equal to side starting next to p in
// direction (dr, dc). The cell at p itself is not inspected.
func RunLength(g *game.Grid, side game.Side, p game.Point, dr, dc int) int {
	n := 0
	for i := 1; ; i++ {
		q := game.Point{Row: p.Row + dr*i, Col: p.Col + dc*i}
		if !q.InBounds() || g.At(q) != side {
			return n
		}
		n++
	}
}

// AxisLength is the length of the line side would own through p on axis a,
// counting p itself.
func AxisLength(g *game.Grid, side game.Side, p game.Point, a Axis) int {
	return RunLength(g, side, p, a.DR, a.DC) + RunLength(g, side, p, -a.DR, -a.DC) + 1
}

// CheckWin reports whether the piece at p completes five in a row.
func CheckWin(g *game.Grid, p game.Point) bool {
	side := g.At(p)
	if side == game.Empty {
		return false
	}
	for _, a := range Axes {
		if AxisLength(g, side, p, a) >= WinLength {
			return true
		}
	}
	return false
}

// Winner scans the whole grid and returns the first side owning a line of
// five, or Empty.
func Winner(g *game.Grid) game.Side {
	for idx := 0; idx < game.Size*game.Size; idx++ {
		p := game.PointAt(idx)
		if g.At(p) != game.Empty && CheckWin(g, p) {
			return g.At(p)
		}
	}
	return game.Empty
}

// IsFull reports a board with no empty cell left.
func IsFull(g *game.Grid) bool {
	return g.IsFull()
}

// Options returns the plausible moves: the center on an empty grid,
// otherwise every empty cell inside the bounding box of occupied cells grown
// by one and clipped to the board. Order is row-major.
func Options(g *game.Grid) []game.Point {
	minR, minC := game.Size, game.Size
	maxR, maxC := -1, -1
	for idx := 0; idx < game.Size*game.Size; idx++ {
		p := game.PointAt(idx)
		if g.At(p) == game.Empty {
			continue
		}
		minR = min(minR, p.Row)
		maxR = max(maxR, p.Row)
		minC = min(minC, p.Col)
		maxC = max(maxC, p.Col)
	}
	if maxR < 0 {
		return []game.Point{game.Center()}
	}

	minR = max(0, minR-1)
	minC = max(0, minC-1)
	maxR = min(game.Size-1, maxR+1)
	maxC = min(game.Size-1, maxC+1)

	out := make([]game.Point, 0, (maxR-minR+1)*(maxC-minC+1))
	for r := minR; r <= maxR; r++ {
		for c := minC; c <= maxC; c++ {
			p := game.Point{Row: r, Col: c}
			if g.At(p) == game.Empty {
				out = append(out, p)
			}
		}
	}
	return out
}
