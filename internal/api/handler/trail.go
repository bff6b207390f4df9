package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/kiranshivaraju/logtrail/internal/access"
	"github.com/kiranshivaraju/logtrail/internal/api/response"
	"github.com/kiranshivaraju/logtrail/internal/apperr"
	"github.com/kiranshivaraju/logtrail/internal/tail"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 2 * pingInterval
	writeWait    = 10 * time.Second
	maxReadBytes = 512
)

// upgrader keeps gorilla's same-origin check: sessions ride on cookies.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// TailHub registers live tail subscribers.
type TailHub interface {
	Subscribe(applicationID uuid.UUID) *tail.Subscription
}

// NewTrailHandler returns an http.HandlerFunc for GET /{applicationId}/trail.
// It must sit behind the application resolver; the upgrade only happens for
// callers allowed to read the application.
func NewTrailHandler(hub TailHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := access.ApplicationFrom(r.Context())
		if !ok {
			response.FromError(w, r, apperr.NotFound("application not found"))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("failed to upgrade websocket", "application_id", app.ID, "error", err)
			return
		}
		defer conn.Close()

		sub := hub.Subscribe(app.ID)
		defer sub.Close()

		slog.Info("live tail opened", "application_id", app.ID)
		defer func() {
			slog.Info("live tail closed", "application_id", app.ID, "dropped", sub.Dropped())
		}()

		// The read side only watches for close frames and dead peers.
		done := make(chan struct{})
		go func() {
			defer close(done)
			conn.SetReadLimit(maxReadBytes)
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(pongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-r.Context().Done():
				return
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case rec, ok := <-sub.Records():
				if !ok {
					return
				}
				data, err := json.Marshal(rec)
				if err != nil {
					continue
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}
			}
		}
	}
}
