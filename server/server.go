// Package server exposes the engine as an HTTP and WebSocket move service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chaitanyamukeshpatel/Gomoku-AI/game"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/mcts"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/store"
)

const (
	DefaultMaxBudget = 30 * time.Second
	// statusClientClosedRequest marks a search the client abandoned.
	statusClientClosedRequest = 499
	// maxBodyBytes bounds a move request; an 11x11 grid is well under 1KiB.
	maxBodyBytes = 16 << 10
)

var ErrBadRequest = errors.New("bad request")

type Config struct {
	// DefaultBudget applies when a request has no budget_ms.
	DefaultBudget time.Duration
	// MaxBudget clamps every request budget.
	MaxBudget time.Duration
	// Engine is the base search configuration; Budget, MaxIterations and
	// Seed are set per request.
	Engine mcts.Config
	// Games serves /api/games when set.
	Games  *store.Catalog
	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		DefaultBudget: mcts.DefaultBudget,
		MaxBudget:     DefaultMaxBudget,
		Engine:        mcts.DefaultConfig(),
	}
}

type MoveRequest struct {
	Grid []string `json:"grid"`
	Side string   `json:"side"`
	// BudgetMS is the search time in milliseconds; 0 uses the server default.
	BudgetMS int `json:"budget_ms,omitempty"`
	// Iterations stops the search after that many iterations.
	Iterations int   `json:"iterations,omitempty"`
	Seed       int64 `json:"seed,omitempty"`
}

type ChildDTO struct {
	Row    int     `json:"row"`
	Col    int     `json:"col"`
	Visits int     `json:"visits"`
	Wins   float64 `json:"wins"`
}

type MoveResponse struct {
	Row        int        `json:"row"`
	Col        int        `json:"col"`
	Iterations int        `json:"iterations"`
	ElapsedMS  int64      `json:"elapsed_ms"`
	Fallback   bool       `json:"fallback,omitempty"`
	Children   []ChildDTO `json:"children,omitempty"`
}

type Server struct {
	cfg      Config
	log      *slog.Logger
	searches atomic.Int64
}

func New(cfg Config) *Server {
	if cfg.DefaultBudget <= 0 {
		cfg.DefaultBudget = mcts.DefaultBudget
	}
	if cfg.MaxBudget <= 0 {
		cfg.MaxBudget = DefaultMaxBudget
	}
	if cfg.DefaultBudget > cfg.MaxBudget {
		cfg.DefaultBudget = cfg.MaxBudget
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{cfg: cfg, log: logger}
}

// Searches is the number of searches served so far.
func (s *Server) Searches() int64 { return s.searches.Load() }

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.log.Handler(), slog.LevelDebug),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "searches": s.Searches()})
	})
	r.Post("/api/move", s.handleMove)
	if s.cfg.Games != nil {
		r.Get("/api/games", s.handleGames)
		r.Get("/api/games/{id}", s.handleGame)
	}
	r.Get("/ws", s.serveWS)
	return r
}

// budget returns the clamped search budget for req.
func (s *Server) budget(req MoveRequest) (time.Duration, error) {
	if req.BudgetMS < 0 {
		return 0, fmt.Errorf("%w: budget_ms %d is negative", ErrBadRequest, req.BudgetMS)
	}
	if req.Iterations < 0 {
		return 0, fmt.Errorf("%w: iterations %d is negative", ErrBadRequest, req.Iterations)
	}
	b := time.Duration(req.BudgetMS) * time.Millisecond
	if b == 0 {
		b = s.cfg.DefaultBudget
	}
	if b > s.cfg.MaxBudget {
		b = s.cfg.MaxBudget
	}
	return b, nil
}

// Move validates req and runs one search.
func (s *Server) Move(ctx context.Context, req MoveRequest) (MoveResponse, error) {
	grid, err := game.ParseRows(req.Grid)
	if err != nil {
		return MoveResponse{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	side, err := game.ParseSide(req.Side)
	if err != nil {
		return MoveResponse{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	budget, err := s.budget(req)
	if err != nil {
		return MoveResponse{}, err
	}

	cfg := s.cfg.Engine
	cfg.Budget = budget
	cfg.MaxIterations = req.Iterations
	cfg.Seed = req.Seed
	cfg.Logger = s.log

	res, err := mcts.BestMove(ctx, grid, side, cfg)
	if err != nil {
		if errors.Is(err, mcts.ErrBoardFull) || errors.Is(err, mcts.ErrGameOver) {
			return MoveResponse{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		return MoveResponse{}, err
	}
	s.searches.Add(1)

	resp := MoveResponse{
		Row:        res.Move.Row,
		Col:        res.Move.Col,
		Iterations: res.Iterations,
		ElapsedMS:  res.Elapsed.Milliseconds(),
		Fallback:   res.Fallback,
	}
	for _, c := range res.Children {
		resp.Children = append(resp.Children, ChildDTO{Row: c.Move.Row, Col: c.Move.Col, Visits: c.Visits, Wins: c.Wins})
	}
	return resp, nil
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	resp, err := s.Move(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func statusFor(err error) int {
	if errors.Is(err, ErrBadRequest) {
		return http.StatusBadRequest
	}
	if errors.Is(err, store.ErrGameNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, context.Canceled) {
		return statusClientClosedRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	switch {
	case status == statusClientClosedRequest:
		s.log.Debug("request aborted", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
	case status >= 500:
		s.log.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
