package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"morapack/internal/store"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 20 * time.Second
)

// wsMessage frames everything sent over a run stream. The client may send
// "ping" and "complete"; the server sends "ack", "next", "pong" and
// "complete".
type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RunStreamHandler upgrades to a WebSocket and streams progress events of
// one run until it completes or the client goes away. A run that already
// has a stored report completes immediately.
func (s *Server) RunStreamHandler(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	if runID == "" {
		writeProblem(w, r, http.StatusBadRequest, "Missing run id", "")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	var wmu sync.Mutex
	write := func(typ string, v any) error {
		msg := wsMessage{Type: typ}
		if v != nil {
			b, err := json.Marshal(v)
			if err != nil {
				return err
			}
			msg.Payload = b
		}
		wmu.Lock()
		defer wmu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		return conn.WriteJSON(msg)
	}

	if rep, err := s.Store.GetReport(r.Context(), runID); err == nil {
		sum := store.Summarize(rep)
		_ = write("complete", Event{Type: EventCompleted, RunID: runID, Summary: &sum})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		s.log.Warn("stream report lookup", zap.String("run_id", runID), zap.Error(err))
	}

	ch := s.Broker.Subscribe(runID)
	defer s.Broker.Unsubscribe(runID, ch)
	if err := write("ack", map[string]string{"runId": runID}); err != nil {
		return
	}

	// Read loop
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(1 << 16)
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(wsReadTimeout)) })
		for {
			var msg wsMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
			switch msg.Type {
			case "ping":
				_ = write("pong", nil)
			case "complete":
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			wmu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			wmu.Unlock()
			if err != nil {
				return
			}
		case evt, ok := <-ch:
			if !ok {
				_ = write("complete", nil)
				return
			}
			typ := "next"
			if evt.Type == EventCompleted {
				typ = "complete"
			}
			if err := write(typ, evt); err != nil {
				return
			}
			if typ == "complete" {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run completed"),
					time.Now().Add(time.Second))
				return
			}
		}
	}
}
