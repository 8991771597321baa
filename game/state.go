// Package game defines the board types for an 11x11 five-in-a-row game.
//
// The grid is a flat fixed-size array so that cloning it for MCTS tree
// exploration is a plain value copy.
package game

import (
	"errors"
	"fmt"
	"strings"
)

// Size is the board dimension shared by the grid, win detection and the
// move ranker.
const Size = 11

var (
	ErrNotSquare     = errors.New("grid is not square")
	ErrWrongSize     = errors.New("grid has wrong dimension")
	ErrInvalidSymbol = errors.New("grid contains an invalid symbol")
	ErrInvalidSide   = errors.New("invalid side")
)

// Side is the content of a cell, or the player owning a piece.
type Side uint8

const (
	Empty Side = iota
	White
	Black
)

// Symbol returns the text symbol used in grid rows: '.', 'w' or 'b'.
func (s Side) Symbol() byte {
	switch s {
	case White:
		return 'w'
	case Black:
		return 'b'
	default:
		return '.'
	}
}

func (s Side) String() string {
	switch s {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "empty"
	}
}

// Opponent returns the other player. Empty has no opponent and maps to itself.
func (s Side) Opponent() Side {
	switch s {
	case White:
		return Black
	case Black:
		return White
	default:
		return Empty
	}
}

// Valid reports whether s is a player (not Empty).
func (s Side) Valid() bool {
	return s == White || s == Black
}

// ParseSide accepts "w"/"b" as well as "white"/"black".
func ParseSide(v string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "w", "white":
		return White, nil
	case "b", "black":
		return Black, nil
	default:
		return Empty, fmt.Errorf("%w: %q", ErrInvalidSide, v)
	}
}

func sideFromSymbol(c byte) (Side, bool) {
	switch c {
	case '.':
		return Empty, true
	case 'w':
		return White, true
	case 'b':
		return Black, true
	default:
		return Empty, false
	}
}

// Point is a board coordinate. (0,0) is the top-left cell.
type Point struct {
	Row int
	Col int
}

func (p Point) InBounds() bool {
	return p.Row >= 0 && p.Row < Size && p.Col >= 0 && p.Col < Size
}

// Index is the row-major offset of p in a Grid.
func (p Point) Index() int {
	return p.Row*Size + p.Col
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// PointAt is the inverse of Point.Index.
func PointAt(idx int) Point {
	return Point{Row: idx / Size, Col: idx % Size}
}

// Center is the opening move on an empty grid.
func Center() Point {
	return Point{Row: (Size - 1) / 2, Col: (Size - 1) / 2}
}
