package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chaitanyamukeshpatel/Gomoku-AI/game"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/selfplay"
)

type GameUpdate struct {
	Result selfplay.GameResult
}

type model struct {
	gamesPlayed int
	plies       int
	wins        map[game.Side]int
	moves       int64
	startTime   time.Time
	recentGames []string
	updates     chan GameUpdate
}

func initialModel(updates chan GameUpdate) model {
	return model{
		startTime: time.Now(),
		wins:      map[game.Side]int{},
		updates:   updates,
	}
}

type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), tickCmd())
}

func waitForUpdate(updates chan GameUpdate) tea.Cmd {
	return func() tea.Msg {
		return <-updates
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case TickMsg:
		m.moves = totalMoves.Load()
		return m, tickCmd()
	case GameUpdate:
		m.gamesPlayed++
		m.plies += msg.Result.Plies
		m.wins[msg.Result.Winner]++
		logMsg := fmt.Sprintf("%s: winner %s, plies %d", msg.Result.GameID, selfplay.WinnerLabel(msg.Result.Winner), msg.Result.Plies)
		m.recentGames = append([]string{logMsg}, m.recentGames...)
		if len(m.recentGames) > 10 {
			m.recentGames = m.recentGames[:10]
		}
		return m, waitForUpdate(m.updates)
	}
	return m, nil
}

func (m model) View() string {
	duration := time.Since(m.startTime)
	gamesPerSec := float64(m.gamesPlayed) / duration.Seconds()
	movesPerSec := float64(m.moves) / duration.Seconds()
	if duration.Seconds() < 1 {
		gamesPerSec = 0
		movesPerSec = 0
	}

	s := fmt.Sprintf("Games Played:   %d\n", m.gamesPlayed)
	s += fmt.Sprintf("White / Black / Draw: %d / %d / %d\n", m.wins[game.White], m.wins[game.Black], m.wins[game.Empty])
	s += fmt.Sprintf("Recorded Plies: %d\n", m.plies)
	s += fmt.Sprintf("Total Moves:    %d\n", m.moves)
	s += fmt.Sprintf("Duration:       %s\n", duration.Round(time.Second))
	s += fmt.Sprintf("Games/Sec:      %.2f\n", gamesPerSec)
	s += fmt.Sprintf("Moves/Sec:      %.2f\n\n", movesPerSec)

	s += "Recent Games:\n"
	for _, g := range m.recentGames {
		s += g + "\n"
	}

	s += "\nPress q to quit.\n"
	return s
}
