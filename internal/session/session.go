// ABOUTME: Core data types for live customer support sessions
// ABOUTME: Defines Status, Sender, Message, PendingApproval and snapshot views

package session

import (
	"errors"
	"time"
)

// ErrUnknownSession is returned when an operation references a session id
// that is not in the live store (including sessions that have ended).
var ErrUnknownSession = errors.New("unknown session")

// ErrDuplicateApproval is returned when a gated action is requested while
// another approval is already pending on the same session.
var ErrDuplicateApproval = errors.New("approval already pending")

// ErrNoPendingApproval is returned when a resolve targets a session with no
// outstanding approval. Duplicate resolves hit this too — resolution is
// deliberately not idempotent so racing dashboards can detect the loss.
var ErrNoPendingApproval = errors.New("no pending approval")

// Status is the lifecycle state of a session.
type Status string

const (
	StatusBotOnly     Status = "bot_only"
	StatusSoftHandoff Status = "soft_handoff"
	StatusHardHandoff Status = "hard_handoff"
	StatusAgentActive Status = "agent_active"
	StatusEnded       Status = "ended"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderCustomer Sender = "customer"
	SenderBot      Sender = "bot"
	SenderAgent    Sender = "agent"
	SenderSystem   Sender = "system"
)

// Message is a single utterance in a session. Immutable once appended;
// insertion order within a session is authoritative.
type Message struct {
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// PendingApproval is an outstanding gated-action request awaiting a
// supervisor decision. At most one exists per session at any time.
// Amount zero signals a non-monetary action (e.g. technician dispatch).
type PendingApproval struct {
	ClientID    string    `json:"clientId"`
	HandlerName string    `json:"-"`
	Amount      float64   `json:"amount"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requestedAt"`
}

// Metadata is the read-only view of a session's non-message state.
type Metadata struct {
	Status           Status    `json:"status"`
	StartedAt        time.Time `json:"startedAt"`
	LastActivity     time.Time `json:"lastActivity"`
	EscalationReason string    `json:"escalationReason,omitempty"`
	SentimentScore   float64   `json:"sentimentScore,omitempty"`
	RequiresApproval bool      `json:"requiresApproval"`
}

// Snapshot is a consistent point-in-time view of every live session,
// captured under the store's sync barrier so that the snapshot plus the
// subsequent event stream has no gap and no duplicate.
type Snapshot struct {
	ActiveChats []string
	Messages    map[string][]Message
	Approvals   map[string]PendingApproval
	Metadata    map[string]Metadata
}
