package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsIdlePingInterval = 30 * time.Second
	// wsMaxInflight bounds concurrent searches on one connection.
	wsMaxInflight = 4
)

// wsMessage is the envelope for every frame on /ws. Clients send "move" with
// a MoveRequest payload and receive "move" with a MoveResponse, or "error".
// Moves run concurrently and replies carry the request ID, so they may arrive
// out of order. Closing the connection cancels the searches still running.
type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	send := make(chan []byte, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer conn.Close()
		_ = writeWSWithHeartbeat(conn, send)
	}()

	var searches sync.WaitGroup
	inflight := make(chan struct{}, wsMaxInflight)
	defer func() {
		cancel()
		searches.Wait()
		close(send)
	}()

	reply := func(b []byte) {
		select {
		case send <- b:
		case <-done:
		}
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			reply(mustMarshal(wsMessage{Type: "error", Payload: mustMarshal(map[string]string{"error": "invalid payload"})}))
			continue
		}
		switch msg.Type {
		case "ping":
			reply(mustMarshal(wsMessage{Type: "pong", ID: msg.ID}))
		case "move":
			select {
			case inflight <- struct{}{}:
			default:
				reply(mustMarshal(wsMessage{Type: "error", ID: msg.ID, Payload: mustMarshal(map[string]string{"error": "too many searches in flight"})}))
				continue
			}
			searches.Add(1)
			go func(msg wsMessage) {
				defer searches.Done()
				defer func() { <-inflight }()
				reply(s.wsMove(ctx, msg))
			}(msg)
		default:
			reply(mustMarshal(wsMessage{Type: "error", ID: msg.ID, Payload: mustMarshal(map[string]string{"error": "unknown type " + msg.Type})}))
		}
	}
}

func (s *Server) wsMove(ctx context.Context, msg wsMessage) []byte {
	var req MoveRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return mustMarshal(wsMessage{Type: "error", ID: msg.ID, Payload: mustMarshal(map[string]string{"error": "invalid payload"})})
	}
	resp, err := s.Move(ctx, req)
	if err != nil {
		if statusFor(err) >= 500 {
			s.log.Error("ws move failed", "id", msg.ID, "err", err)
		}
		return mustMarshal(wsMessage{Type: "error", ID: msg.ID, Payload: mustMarshal(map[string]string{"error": err.Error()})})
	}
	return mustMarshal(wsMessage{Type: "move", ID: msg.ID, Payload: mustMarshal(resp)})
}

func writeWSWithHeartbeat(conn *websocket.Conn, send <-chan []byte) error {
	ticker := time.NewTicker(wsIdlePingInterval)
	defer ticker.Stop()
	lastWrite := time.Now()
	pingPayload := mustMarshal(wsMessage{Type: "ping"})

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < wsIdlePingInterval {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, pingPayload); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}
