// ABOUTME: Observer (supervisor dashboard) WebSocket handling
// ABOUTME: sync_state on connect, then the live event stream plus rejected-op responses

package hub

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/2389/support-hub/internal/session"
)

func (h *Hub) serveObserver(w http.ResponseWriter, r *http.Request, observerName string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("observer upgrade failed", "observer", observerName, "error", err)
		return
	}

	// Snapshot and subscription are registered atomically: the sync_state
	// frame plus the event stream has no gap and no duplicate.
	snap, events, subID := h.events.SubscribeObserver(h.store)
	if err := h.writeJSON(conn, syncStateFromSnapshot(snap)); err != nil {
		h.events.UnsubscribeObserver(subID)
		conn.Close()
		return
	}
	h.logger.Info("observer connected", "observer", observerName)

	// Rejected-op responses share the write pump with broadcast events.
	rejections := make(chan errorFrame, 16)
	go h.observerWriter(conn, events, rejections)

	defer func() {
		h.events.UnsubscribeObserver(subID)
		conn.Close()
		h.logger.Info("observer disconnected", "observer", observerName)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame observerFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.logger.Warn("dropping malformed observer frame",
				"observer", observerName, "error", err)
			continue
		}

		target := frame.target()
		var opErr error
		switch frame.Type {
		case "approval_response":
			opErr = h.gate.Resolve(target, frame.Approved)
		case "takeover_message":
			if frame.Content == "" {
				h.logger.Warn("dropping takeover frame without content",
					"observer", observerName)
				continue
			}
			opErr = h.takeover(target, frame.Content)
		case "end_session":
			opErr = h.endSession(target)
		default:
			h.logger.Warn("dropping observer frame with unknown type",
				"observer", observerName, "frame_type", frame.Type)
			continue
		}

		if opErr != nil {
			h.logger.Warn("observer operation rejected",
				"observer", observerName,
				"op", frame.Type,
				"client_id", target,
				"error", opErr)
			select {
			case rejections <- errorFrame{
				Type:     "error",
				Op:       frame.Type,
				ClientID: target,
				Error:    opErr.Error(),
			}:
			default:
			}
		}
	}
}

// observerWriter multiplexes broadcast events and rejected-op responses
// onto the connection. Exits when the subscription channel closes.
func (h *Hub) observerWriter(conn *websocket.Conn, events <-chan session.Event, rejections <-chan errorFrame) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := h.writeJSON(conn, ev); err != nil {
				conn.Close()
				return
			}
		case rej := <-rejections:
			if err := h.writeJSON(conn, rej); err != nil {
				conn.Close()
				return
			}
		case <-ticker.C:
			if err := h.writePing(conn); err != nil {
				conn.Close()
				return
			}
		}
	}
}
