package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/chaitanyamukeshpatel/Gomoku-AI/game"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/store"
)

func emptyRows() []string {
	var g game.Grid
	return g.Rows()
}

func winningRows() []string {
	var g game.Grid
	for c := 0; c < 4; c++ {
		g.MustPlace(game.White, game.Point{Row: 5, Col: c + 1})
	}
	g.MustPlace(game.Black, game.Point{Row: 0, Col: 0})
	g.MustPlace(game.Black, game.Point{Row: 0, Col: 2})
	return g.Rows()
}

func postMove(t *testing.T, h http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/move", bytes.NewReader(b))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPing(t *testing.T) {
	h := New(DefaultConfig()).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"ok":true`)
}

func TestMove_EmptyGridCenter(t *testing.T) {
	s := New(DefaultConfig())
	rec := postMove(t, s.Handler(), MoveRequest{Grid: emptyRows(), Side: "w", Iterations: 10, Seed: 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp MoveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, game.Center().Row, resp.Row)
	require.Equal(t, game.Center().Col, resp.Col)
	require.Equal(t, 10, resp.Iterations)
	require.Len(t, resp.Children, 1)
	require.Equal(t, int64(1), s.Searches())
}

func TestMove_TakesWin(t *testing.T) {
	h := New(DefaultConfig()).Handler()
	rec := postMove(t, h, MoveRequest{Grid: winningRows(), Side: "white", Iterations: 5, Seed: 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp MoveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 5, resp.Row)
	require.Contains(t, []int{0, 5}, resp.Col)
}

func TestMove_BadRequests(t *testing.T) {
	h := New(DefaultConfig()).Handler()

	short := emptyRows()[:3]
	badSymbol := emptyRows()
	badSymbol[2] = "x" + badSymbol[2][1:]

	tests := []struct {
		name string
		body any
	}{
		{"wrong size", MoveRequest{Grid: short, Side: "w"}},
		{"bad symbol", MoveRequest{Grid: badSymbol, Side: "w"}},
		{"bad side", MoveRequest{Grid: emptyRows(), Side: "red"}},
		{"negative budget", MoveRequest{Grid: emptyRows(), Side: "b", BudgetMS: -1}},
		{"not json", "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postMove(t, h, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			require.Contains(t, rec.Body.String(), `"error"`)
		})
	}

	t.Run("finished game", func(t *testing.T) {
		var g game.Grid
		for c := 0; c < 5; c++ {
			g.MustPlace(game.Black, game.Point{Row: 2, Col: c})
		}
		rec := postMove(t, h, MoveRequest{Grid: g.Rows(), Side: "w", Iterations: 1})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestBudgetClamp(t *testing.T) {
	s := New(Config{DefaultBudget: time.Second, MaxBudget: 2 * time.Second})

	b, err := s.budget(MoveRequest{})
	require.NoError(t, err)
	require.Equal(t, time.Second, b)

	b, err = s.budget(MoveRequest{BudgetMS: 500})
	require.NoError(t, err)
	require.Equal(t, 500*time.Millisecond, b)

	b, err = s.budget(MoveRequest{BudgetMS: 60000})
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, b)

	_, err = s.budget(MoveRequest{Iterations: -2})
	require.ErrorIs(t, err, ErrBadRequest)

	s = New(Config{DefaultBudget: time.Minute, MaxBudget: time.Second})
	b, err = s.budget(MoveRequest{})
	require.NoError(t, err)
	require.Equal(t, time.Second, b)
}

func TestMove_CancelledContext(t *testing.T) {
	s := New(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Move(ctx, MoveRequest{Grid: emptyRows(), Side: "w"})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, statusClientClosedRequest, statusFor(err))
}

func TestMove_ClientGoneNotLogged(t *testing.T) {
	var logs bytes.Buffer
	cfg := DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(&logs, nil))
	h := New(cfg).Handler()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b, err := json.Marshal(MoveRequest{Grid: emptyRows(), Side: "w"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/move", bytes.NewReader(b)).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, statusClientClosedRequest, rec.Code)
	require.NotContains(t, logs.String(), "request failed")
}

func TestWebSocket(t *testing.T) {
	ts := httptest.NewServer(New(DefaultConfig()).Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))

	require.NoError(t, conn.WriteJSON(wsMessage{Type: "ping", ID: "p"}))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "pong", msg.Type)
	require.Equal(t, "p", msg.ID)

	req := MoveRequest{Grid: emptyRows(), Side: "b", Iterations: 5, Seed: 2}
	require.NoError(t, conn.WriteJSON(wsMessage{Type: "move", ID: "1", Payload: mustMarshal(req)}))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "move", msg.Type)
	require.Equal(t, "1", msg.ID)
	var resp MoveResponse
	require.NoError(t, json.Unmarshal(msg.Payload, &resp))
	require.Equal(t, game.Center(), game.Point{Row: resp.Row, Col: resp.Col})

	bad := MoveRequest{Grid: emptyRows()[:2], Side: "b"}
	require.NoError(t, conn.WriteJSON(wsMessage{Type: "move", ID: "2", Payload: mustMarshal(bad)}))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "error", msg.Type)
	require.Equal(t, "2", msg.ID)

	require.NoError(t, conn.WriteJSON(wsMessage{Type: "dance"}))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "error", msg.Type)
}

func TestWebSocket_MovesDoNotBlockReads(t *testing.T) {
	ts := httptest.NewServer(New(DefaultConfig()).Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(15*time.Second)))

	req := MoveRequest{Grid: emptyRows(), Side: "w", BudgetMS: 1000, Seed: 1}
	for i := 0; i <= wsMaxInflight; i++ {
		id := fmt.Sprintf("m%d", i)
		require.NoError(t, conn.WriteJSON(wsMessage{Type: "move", ID: id, Payload: mustMarshal(req)}))
	}
	require.NoError(t, conn.WriteJSON(wsMessage{Type: "ping", ID: "p"}))

	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "error", msg.Type)
	require.Equal(t, fmt.Sprintf("m%d", wsMaxInflight), msg.ID)

	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "pong", msg.Type)

	got := map[string]bool{}
	for i := 0; i < wsMaxInflight; i++ {
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, "move", msg.Type)
		got[msg.ID] = true
	}
	require.Len(t, got, wsMaxInflight)
}

func TestGamesRoutes(t *testing.T) {
	dir := t.TempDir()
	rows := []store.MoveRow{
		{GameID: "g1", Ply: 0, Side: "white", Row: 5, Col: 5, Winner: "white", Value: 1},
		{GameID: "g1", Ply: 1, Side: "black", Row: 4, Col: 4, Winner: "white", Value: -1},
	}
	_, err := store.WriteBatchParquetAtomic(dir, rows)
	require.NoError(t, err)

	catalog, err := store.OpenCatalog(dir)
	require.NoError(t, err)
	defer catalog.Close()

	cfg := DefaultConfig()
	cfg.Games = catalog
	h := New(cfg).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/games?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list struct {
		Total int64               `json:"total"`
		Games []store.GameSummary `json:"games"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, int64(1), list.Total)
	require.Len(t, list.Games, 1)
	require.Equal(t, int64(2), list.Games[0].Plies)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/games/g1", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), `"game_id":"g1"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/games/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	New(DefaultConfig()).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/games", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
