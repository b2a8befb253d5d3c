// ABOUTME: HTTP/WebSocket surface of the support hub and its session operations
// ABOUTME: Wires the session store, bot dispatcher, approval gate, fan-out and archive

package hub

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/2389/support-hub/internal/approval"
	"github.com/2389/support-hub/internal/archive"
	"github.com/2389/support-hub/internal/bot"
	"github.com/2389/support-hub/internal/broadcast"
	"github.com/2389/support-hub/internal/session"
)

const (
	waitingApprovalReply = "Waiting for supervisor approval..."
	agentJoinedMessage   = "Agent has joined the chat."
	genericErrorReply    = "Something went wrong on our side. Please try again."

	archiveTimeout = 5 * time.Second
)

// Options tunes connection handling. Zero values select defaults.
type Options struct {
	WriteTimeout time.Duration
	PingInterval time.Duration
}

// Hub is the orchestration service: it owns the connection surface and
// coordinates the session store, bot dispatcher, approval gate, event
// fan-out and history archive.
type Hub struct {
	store   *session.Store
	bots    *bot.Dispatcher
	gate    *approval.Gate
	events  *broadcast.Broadcaster
	archive archive.Archiver
	logger  *slog.Logger

	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	pingInterval time.Duration
}

// New creates a hub over already-constructed collaborators. Pass nil logger
// for default.
func New(store *session.Store, bots *bot.Dispatcher, gate *approval.Gate,
	events *broadcast.Broadcaster, arch archive.Archiver, opts Options, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	return &Hub{
		store:   store,
		bots:    bots,
		gate:    gate,
		events:  events,
		archive: arch,
		logger:  logger.With("component", "hub"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		writeTimeout: opts.WriteTimeout,
		pingInterval: opts.PingInterval,
	}
}

// Handler returns the hub's complete HTTP handler, CORS included.
func (h *Hub) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws/{clientID}/{role}", h.serveWS)
	r.HandleFunc("/api/history", h.listHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/history/{recordID}", h.getHistory).Methods(http.MethodGet)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", h.ready).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	clientID := vars["clientID"]
	role := vars["role"]

	switch role {
	case "customer":
		h.serveCustomer(w, r, clientID)
	case "agent", "observer":
		h.serveObserver(w, r, clientID)
	default:
		http.Error(w, "unknown role", http.StatusBadRequest)
	}
}

func (h *Hub) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (h *Hub) ready(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"live_sessions": len(h.store.Live()),
	})
}

// writeJSON writes one frame under the configured write deadline. The
// caller serializes writes per connection.
func (h *Hub) writeJSON(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
	return conn.WriteJSON(v)
}

func (h *Hub) writePing(conn *websocket.Conn) error {
	conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
	return conn.WriteMessage(websocket.PingMessage, nil)
}

// endSession ends a live session, archives its transcript and removes it
// from the store. An archive failure is logged but never reverses the
// ended transition.
func (h *Hub) endSession(clientID string) error {
	var msgs []session.Message
	var startedAt time.Time
	err := h.store.Update(clientID, func(m *session.Mutation) error {
		msgs, startedAt = m.End()
		return nil
	})
	if err != nil {
		return err
	}
	endedAt := time.Now()
	h.store.Remove(clientID)
	h.logger.Info("session ended", "client_id", clientID, "messages", len(msgs))

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	rec := archive.Record{
		ClientID:  clientID,
		StartedAt: startedAt,
		EndedAt:   endedAt,
		Messages:  msgs,
	}
	if err := h.archive.Persist(ctx, rec); err != nil {
		h.logger.Error("archiving ended session failed",
			"client_id", clientID, "error", err)
	}
	return nil
}

// takeover puts a supervisor in control of the session and relays their
// message. The first takeover inserts a join notice; any pending approval
// is abandoned without an outcome message.
func (h *Hub) takeover(clientID, content string) error {
	return h.store.Update(clientID, func(m *session.Mutation) error {
		abandoned, first := m.Takeover()
		if abandoned != nil {
			h.logger.Info("pending approval abandoned by takeover",
				"client_id", clientID, "reason", abandoned.Reason)
		}
		if first {
			m.Append(session.SenderSystem, agentJoinedMessage, time.Now())
		}
		m.Append(session.SenderAgent, content, time.Now())
		return nil
	})
}

// customerTurn runs one full customer turn as a single atomic mutation:
// the customer message is appended and, depending on status, the bot
// replies, escalates or raises a gated action.
func (h *Hub) customerTurn(clientID string, frame customerFrame) {
	err := h.store.Update(clientID, func(m *session.Mutation) error {
		m.Append(session.SenderCustomer, frame.Content, parseTimestamp(frame.Timestamp))

		switch m.Status() {
		case session.StatusAgentActive:
			// supervisor owns the conversation; the bot stays silent
			return nil
		case session.StatusHardHandoff:
			m.Append(session.SenderSystem, waitingApprovalReply, time.Now())
			return nil
		}

		res := h.bots.Dispatch(frame.Content, m.History())
		if res.Escalation != nil {
			m.Escalate(res.Escalation.Reason, res.Escalation.Score)
		}
		for _, line := range res.Replies {
			m.Append(session.SenderBot, line, time.Now())
		}
		if res.Action != nil {
			return h.gate.RequestIn(m, res.Action.HandlerName, res.Action.Amount, res.Action.Reason)
		}
		return nil
	})
	if err != nil {
		// Customer-triggered errors are absorbed: the internal kind is
		// logged, the customer sees only a generic system message.
		h.logger.Error("customer turn failed", "client_id", clientID, "error", err)
		if !errors.Is(err, session.ErrUnknownSession) {
			h.events.PushCustomer(clientID, session.Event{
				Type:      session.EventMessage,
				ClientID:  clientID,
				Sender:    session.SenderSystem,
				Content:   genericErrorReply,
				Timestamp: time.Now().Format(time.RFC3339Nano),
			})
		}
	}
}
