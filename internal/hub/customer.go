// ABOUTME: Customer WebSocket connection handling: read loop and outbound pump
// ABOUTME: One goroutine reads inbound frames, one writes events; never both on one conn

package hub

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/2389/support-hub/internal/session"
)

func (h *Hub) serveCustomer(w http.ResponseWriter, r *http.Request, clientID string) {
	if err := h.store.Create(clientID); err != nil {
		http.Error(w, "session unavailable", http.StatusConflict)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("customer upgrade failed", "client_id", clientID, "error", err)
		return
	}

	events, connID := h.events.AttachCustomer(clientID)
	h.logger.Info("customer connected", "client_id", clientID)

	go h.customerWriter(conn, clientID, events)

	defer func() {
		h.events.DetachCustomer(clientID, connID)
		conn.Close()
		h.logger.Info("customer disconnected", "client_id", clientID)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame customerFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.logger.Warn("dropping malformed customer frame",
				"client_id", clientID, "error", err)
			continue
		}

		if frame.Type == "end_session" {
			if err := h.endSession(clientID); err != nil {
				h.logger.Warn("customer end_session failed",
					"client_id", clientID, "error", err)
			}
			continue
		}

		if frame.Content == "" {
			h.logger.Warn("dropping customer frame without content", "client_id", clientID)
			continue
		}

		h.customerTurn(clientID, frame)
	}
}

// customerWriter forwards the session's events to the customer. Only bot,
// agent and system messages are sent; the customer's own messages are not
// echoed. A session_ended event closes the connection.
func (h *Hub) customerWriter(conn *websocket.Conn, clientID string, events <-chan session.Event) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Type {
			case session.EventMessage:
				if ev.Sender == session.SenderCustomer {
					continue
				}
				if err := h.writeJSON(conn, messageFrameFromEvent(ev)); err != nil {
					conn.Close()
					return
				}
			case session.EventSessionEnded:
				conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
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
