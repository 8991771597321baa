package game

import (
	"fmt"
	"strings"
)

// Grid holds the cell contents in row-major order.
// Assigning a Grid copies it; Clone exists to make that explicit at call sites.
type Grid struct {
	cells [Size * Size]Side
}

// Clone returns an independent copy of g.
func (g *Grid) Clone() Grid {
	return *g
}

// At returns the cell content. p must be in bounds.
func (g *Grid) At(p Point) Side {
	return g.cells[p.Index()]
}

// Place puts a piece for side on p. It fails without effect when p is out of
// bounds, occupied, or side is not a player.
func (g *Grid) Place(side Side, p Point) bool {
	if !side.Valid() || !p.InBounds() {
		return false
	}
	idx := p.Index()
	if g.cells[idx] != Empty {
		return false
	}
	g.cells[idx] = side
	return true
}

// MustPlace is Place for callers that have already guaranteed legality.
func (g *Grid) MustPlace(side Side, p Point) {
	if !g.Place(side, p) {
		panic(fmt.Sprintf("game: illegal placement of %s at %s", side, p))
	}
}

// Occupied returns the number of non-empty cells.
func (g *Grid) Occupied() int {
	n := 0
	for _, c := range g.cells {
		if c != Empty {
			n++
		}
	}
	return n
}

func (g *Grid) IsEmpty() bool { return g.Occupied() == 0 }
func (g *Grid) IsFull() bool  { return g.Occupied() == Size*Size }

// Rows renders the grid as Size strings of symbols.
func (g *Grid) Rows() []string {
	rows := make([]string, Size)
	var b strings.Builder
	for r := 0; r < Size; r++ {
		b.Reset()
		for c := 0; c < Size; c++ {
			b.WriteByte(g.cells[r*Size+c].Symbol())
		}
		rows[r] = b.String()
	}
	return rows
}

func (g *Grid) String() string {
	return strings.Join(g.Rows(), "\n")
}

// ParseRows builds a Grid from text rows such as "..w.b......".
func ParseRows(rows []string) (Grid, error) {
	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, len(row))
		for j := 0; j < len(row); j++ {
			cells[i][j] = row[j : j+1]
		}
	}
	return FromCells(cells)
}

// FromCells builds a Grid from a row/column mapping of single symbols.
func FromCells(cells [][]string) (Grid, error) {
	var g Grid
	n := len(cells)
	for r, row := range cells {
		if len(row) != n {
			return g, fmt.Errorf("%w: row %d has %d cells, want %d", ErrNotSquare, r, len(row), n)
		}
	}
	if n != Size {
		return g, fmt.Errorf("%w: got %dx%d, want %dx%d", ErrWrongSize, n, n, Size, Size)
	}
	for r, row := range cells {
		for c, sym := range row {
			if len(sym) != 1 {
				return g, fmt.Errorf("%w: %q at (%d,%d)", ErrInvalidSymbol, sym, r, c)
			}
			side, ok := sideFromSymbol(sym[0])
			if !ok {
				return g, fmt.Errorf("%w: %q at (%d,%d)", ErrInvalidSymbol, sym, r, c)
			}
			g.cells[r*Size+c] = side
		}
	}
	return g, nil
}
