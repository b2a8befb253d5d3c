// ABOUTME: Event types emitted by session store mutations
// ABOUTME: One event per committed mutation, published in commit order

package session

// EventType enumerates the events the store emits to the fan-out layer.
type EventType string

const (
	EventMessage         EventType = "message"
	EventApprovalRequest EventType = "approval_request"
	EventSoftHandoff     EventType = "soft_handoff"
	EventHardHandoff     EventType = "hard_handoff"
	EventSessionEnded    EventType = "session_ended"
)

// Event describes one committed session mutation. Events for a given
// session are published in the order the mutations committed; there is no
// ordering guarantee across sessions.
type Event struct {
	Type     EventType `json:"type"`
	ClientID string    `json:"clientId"`
	Status   Status    `json:"status"`

	// Message fields (type=message)
	Sender    Sender `json:"sender,omitempty"`
	Content   string `json:"content,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`

	// Approval fields (type=approval_request). Amount is never omitted:
	// zero itself signals a non-monetary action such as a dispatch.
	Amount float64 `json:"amount"`

	// Shared by approval_request and soft_handoff
	Reason string `json:"reason,omitempty"`

	// Escalation fields (type=soft_handoff)
	Score float64 `json:"score,omitempty"`
}

// Publisher receives events inside the store's commit critical section.
// Implementations must never block: delivery happens while the session's
// mutation lock is held.
type Publisher interface {
	Publish(ev Event)
}
