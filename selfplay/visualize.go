// visualize.go - Console rendering of self-play boards.
package selfplay

import (
	"fmt"
	"strings"

	"github.com/chaitanyamukeshpatel/Gomoku-AI/game"
)

// FormatBoard renders g with column and row indices. The piece at last is
// upper-cased.
func FormatBoard(g *game.Grid, last game.Point) string {
	var sb strings.Builder
	sb.WriteString("   ")
	for c := 0; c < game.Size; c++ {
		fmt.Fprintf(&sb, "%2d", c)
	}
	sb.WriteString("\n")
	for r := 0; r < game.Size; r++ {
		fmt.Fprintf(&sb, "%2d ", r)
		for c := 0; c < game.Size; c++ {
			p := game.Point{Row: r, Col: c}
			ch := g.At(p).Symbol()
			if p == last && ch != '.' {
				ch -= 'a' - 'A'
			}
			sb.WriteByte(' ')
			sb.WriteByte(ch)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
