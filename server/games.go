package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit > 500 {
		limit = 500
	}
	offset := queryInt(r, "offset", 0)

	games, err := s.cfg.Games.Games(r.Context(), limit, offset)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	summary, err := s.cfg.Games.Summary(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":   summary.Games,
		"summary": summary,
		"games":   games,
	})
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	moves, err := s.cfg.Games.Moves(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"game_id": id, "moves": moves})
}
