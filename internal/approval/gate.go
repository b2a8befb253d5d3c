// ABOUTME: Approval gate holding bot-proposed sensitive actions for supervisor decision
// ABOUTME: Creates, resolves and lists pending approvals; takeover abandons without outcome

package approval

import (
	"log/slog"
	"time"

	"github.com/2389/support-hub/internal/session"
)

// OutcomeApplier applies a resolved gated action through its originating
// handler and returns the system line recording the outcome. The bot
// dispatcher implements this.
type OutcomeApplier interface {
	ApplyOutcome(handlerName string, amount float64, reason string, approved bool) string
}

// Gate turns gated-action requests into pending approvals and applies
// supervisor decisions. At most one approval exists per session; the store
// enforces the invariant, the gate owns the lifecycle.
type Gate struct {
	store   *session.Store
	applier OutcomeApplier
	logger  *slog.Logger
}

// New creates a gate over the given store. Pass nil logger for default.
func New(store *session.Store, applier OutcomeApplier, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		store:   store,
		applier: applier,
		logger:  logger.With("component", "approval-gate"),
	}
}

// Request creates a pending approval for the session and transitions it to
// hard_handoff. Fails with session.ErrDuplicateApproval when one is already
// outstanding, session.ErrUnknownSession when the session is gone.
func (g *Gate) Request(clientID, handlerName string, amount float64, reason string) error {
	err := g.store.Update(clientID, func(m *session.Mutation) error {
		return m.SetApproval(handlerName, amount, reason)
	})
	if err != nil {
		return err
	}
	g.logger.Info("approval requested",
		"client_id", clientID,
		"handler", handlerName,
		"amount", amount,
		"reason", reason)
	return nil
}

// RequestIn is Request running inside an existing store mutation, used when
// a bot turn appends its replies and raises the gated action atomically.
func (g *Gate) RequestIn(m *session.Mutation, handlerName string, amount float64, reason string) error {
	return m.SetApproval(handlerName, amount, reason)
}

// Resolve applies a supervisor decision. The approval is cleared, the
// session returns to bot_only, the originating handler's effect is applied
// and a system message records the outcome. Fails with
// session.ErrNoPendingApproval when nothing is outstanding — a duplicate
// resolve of an already-cleared approval is an error, never a silent no-op,
// so racing dashboards can detect the loss.
func (g *Gate) Resolve(clientID string, approved bool) error {
	err := g.store.Update(clientID, func(m *session.Mutation) error {
		cleared, err := m.ClearApproval()
		if err != nil {
			return err
		}
		outcome := g.applier.ApplyOutcome(cleared.HandlerName, cleared.Amount, cleared.Reason, approved)
		m.Append(session.SenderSystem, outcome, time.Now())
		return nil
	})
	if err != nil {
		return err
	}
	g.logger.Info("approval resolved", "client_id", clientID, "approved", approved)
	return nil
}

// ListPending returns every outstanding approval keyed by session id.
func (g *Gate) ListPending() map[string]session.PendingApproval {
	return g.store.PendingApprovals()
}
