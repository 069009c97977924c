package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/abgtour/planttour/internal/adapters/scene"
	"github.com/abgtour/planttour/internal/core/domain"
	"github.com/abgtour/planttour/internal/core/usecases"
	"github.com/abgtour/planttour/internal/pkg/metrics"
)

// wsMessage is sent from client to server.
// {"type":"position","latitude":38.982,"longitude":-76.944}
// {"type":"refresh"}
type wsMessage struct {
	Type      string  `json:"type"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// wsConn serialises writes to one WebSocket connection.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) writeJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.PingMessage, nil)
}

// Apply streams a batch to the client, making the connection the session's
// renderer.
func (w *wsConn) Apply(ctx context.Context, batch domain.InstructionBatch) error {
	return w.writeJSON(batch)
}

// WebSocketHandler runs a live tour over one connection. The client sends
// positions; every resulting instruction batch is pushed back. The optional
// ?session= query names the session, otherwise one is generated. A named
// session that is already live is refused.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		ws := &wsConn{conn: c}
		renderer := scene.Fanout{ws, deps.Renderer}

		var session *usecases.TourSession
		if id := c.Query("session"); id != "" {
			var err error
			if session, err = deps.Sessions.Claim(id, renderer); err != nil {
				_ = ws.writeJSON(wsError(err))
				return
			}
		} else {
			session = deps.Sessions.Create(renderer)
		}
		defer deps.Sessions.Release(session)

		log := slog.Default().With("session", session.ID(), "remote", c.RemoteAddr().String())
		log.Info("ws tour started")
		_ = ws.writeJSON(map[string]string{"status": "connected", "session": session.ID()})

		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := ws.ping(); err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		ctx := context.Background()
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = ws.writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			switch m.Type {
			case "position":
				_, err = session.HandlePosition(ctx, domain.GeoPoint{Lat: m.Latitude, Lon: m.Longitude})
			case "refresh":
				_, err = session.Refresh(ctx)
			default:
				_ = ws.writeJSON(map[string]string{"error": "unknown message type: " + m.Type})
				continue
			}
			if err != nil {
				_ = ws.writeJSON(wsError(err))
			}
		}

		close(done)
		log.Info("ws tour ended")
	}
}

func wsError(err error) map[string]string {
	code := "internal_error"
	switch {
	case errors.Is(err, domain.ErrFetch):
		code = "catalog_unavailable"
	case errors.Is(err, domain.ErrInvalidPosition):
		code = "bad_request"
	case errors.Is(err, domain.ErrSessionInUse):
		code = "session_in_use"
	}
	return map[string]string{"error": code, "message": err.Error()}
}
