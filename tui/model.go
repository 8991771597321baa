// Package tui is a terminal board for playing against the engine.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chaitanyamukeshpatel/Gomoku-AI/game"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/mcts"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/rules"
)

// SearchFunc picks the engine reply. mcts.BestMove in production.
type SearchFunc func(ctx context.Context, grid game.Grid, side game.Side, cfg mcts.Config) (mcts.Result, error)

type Options struct {
	Human game.Side
	// EngineFirst lets the engine open the game.
	EngineFirst bool
	Engine      mcts.Config
	Search      SearchFunc
}

type engineMoveMsg struct {
	game int
	res  mcts.Result
	err  error
}

var (
	whiteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	blackStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	lastStyle   = lipgloss.NewStyle().Underline(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	boardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type Model struct {
	opts Options

	grid    game.Grid
	cursor  game.Point
	last    game.Point
	hasLast bool
	toMove  game.Side

	thinking bool
	over     bool
	winner   game.Side
	status   string
	lastInfo string

	// gameNo discards engine replies that belong to an abandoned game.
	gameNo int
}

func New(opts Options) Model {
	if !opts.Human.Valid() {
		opts.Human = game.White
	}
	if opts.Search == nil {
		opts.Search = mcts.BestMove
	}
	m := Model{opts: opts}
	m.reset()
	return m
}

func (m *Model) reset() {
	m.grid = game.Grid{}
	m.cursor = game.Center()
	m.hasLast = false
	m.over = false
	m.winner = game.Empty
	m.thinking = false
	m.lastInfo = ""
	m.gameNo++
	m.toMove = m.opts.Human
	if m.opts.EngineFirst {
		m.toMove = m.opts.Human.Opponent()
	}
	m.status = "your move"
	if m.toMove != m.opts.Human {
		m.thinking = true
		m.status = "engine thinking..."
	}
}

func (m Model) Grid() game.Grid    { return m.grid }
func (m Model) Cursor() game.Point { return m.cursor }
func (m Model) Thinking() bool     { return m.thinking }
func (m Model) Status() string     { return m.status }

// Over reports whether the game ended and who won; Empty is a draw.
func (m Model) Over() (bool, game.Side) { return m.over, m.winner }

func (m Model) Init() tea.Cmd {
	if m.toMove != m.opts.Human {
		return m.think()
	}
	return nil
}

func (m Model) think() tea.Cmd {
	grid := m.grid
	side := m.opts.Human.Opponent()
	cfg := m.opts.Engine
	search := m.opts.Search
	gameNo := m.gameNo
	return func() tea.Msg {
		res, err := search(context.Background(), grid, side, cfg)
		return engineMoveMsg{game: gameNo, res: res, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case engineMoveMsg:
		if msg.game != m.gameNo {
			return m, nil
		}
		m.thinking = false
		if msg.err != nil {
			m.status = "engine error: " + msg.err.Error() + " (r: retry)"
			return m, nil
		}
		m.play(m.opts.Human.Opponent(), msg.res.Move)
		m.lastInfo = fmt.Sprintf("engine %s after %d iterations in %s", msg.res.Move, msg.res.Iterations, msg.res.Elapsed.Round(time.Millisecond))
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		m.moveCursor(-1, 0)
	case "down", "j":
		m.moveCursor(1, 0)
	case "left", "h":
		m.moveCursor(0, -1)
	case "right", "l":
		m.moveCursor(0, 1)
	case "n":
		m.reset()
		return m, m.Init()
	case "r":
		if m.over || m.thinking || m.toMove == m.opts.Human {
			return m, nil
		}
		m.thinking = true
		m.status = "engine thinking..."
		return m, m.think()
	case "enter", " ":
		if m.over || m.thinking || m.toMove != m.opts.Human {
			return m, nil
		}
		if m.grid.At(m.cursor) != game.Empty {
			m.status = "cell is taken"
			return m, nil
		}
		m.play(m.opts.Human, m.cursor)
		if m.over {
			return m, nil
		}
		m.thinking = true
		m.status = "engine thinking..."
		return m, m.think()
	}
	return m, nil
}

func (m *Model) moveCursor(dr, dc int) {
	p := game.Point{Row: m.cursor.Row + dr, Col: m.cursor.Col + dc}
	if p.InBounds() {
		m.cursor = p
	}
}

// play places a piece and updates the game state.
func (m *Model) play(side game.Side, p game.Point) {
	m.grid.MustPlace(side, p)
	m.last = p
	m.hasLast = true
	m.toMove = side.Opponent()

	switch {
	case rules.CheckWin(&m.grid, p):
		m.over = true
		m.winner = side
		if side == m.opts.Human {
			m.status = "you win! n: new game, q: quit"
		} else {
			m.status = "engine wins. n: new game, q: quit"
		}
	case m.grid.IsFull():
		m.over = true
		m.status = "draw. n: new game, q: quit"
	default:
		m.status = "your move"
	}
}

func (m Model) cell(p game.Point) string {
	var s string
	switch m.grid.At(p) {
	case game.White:
		s = whiteStyle.Render("w")
	case game.Black:
		s = blackStyle.Render("b")
	default:
		s = emptyStyle.Render(".")
	}
	if m.hasLast && p == m.last {
		s = lastStyle.Render(s)
	}
	if p == m.cursor && !m.over {
		s = cursorStyle.Render(s)
	}
	return s
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString("   ")
	for c := 0; c < game.Size; c++ {
		fmt.Fprintf(&sb, "%2d", c)
	}
	sb.WriteString("\n")
	for r := 0; r < game.Size; r++ {
		fmt.Fprintf(&sb, "%2d ", r)
		for c := 0; c < game.Size; c++ {
			sb.WriteString(" ")
			sb.WriteString(m.cell(game.Point{Row: r, Col: c}))
		}
		if r < game.Size-1 {
			sb.WriteString("\n")
		}
	}

	out := boardStyle.Render(sb.String()) + "\n"
	out += fmt.Sprintf("you play %s\n", m.opts.Human)
	out += statusStyle.Render(m.status) + "\n"
	if m.lastInfo != "" {
		out += m.lastInfo + "\n"
	}
	out += "\narrows/hjkl: move  enter/space: place  n: new  q: quit\n"
	return out
}
