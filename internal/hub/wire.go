// ABOUTME: JSON frame shapes exchanged over customer and observer WebSockets
// ABOUTME: Inbound frames are permissive; missing required fields drop the frame

package hub

import (
	"time"

	"github.com/2389/support-hub/internal/session"
)

// customerFrame is everything a customer connection may send: a chat
// message, or an end_session command.
type customerFrame struct {
	Type      string `json:"type,omitempty"`
	Content   string `json:"content,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// observerFrame is everything an observer connection may send. end_session
// historically addressed its target as clientId while the other commands
// use targetClientId; both are accepted.
type observerFrame struct {
	Type           string `json:"type"`
	TargetClientID string `json:"targetClientId,omitempty"`
	ClientID       string `json:"clientId,omitempty"`
	Approved       bool   `json:"approved,omitempty"`
	Content        string `json:"content,omitempty"`
}

func (f observerFrame) target() string {
	if f.TargetClientID != "" {
		return f.TargetClientID
	}
	return f.ClientID
}

// messageFrame is the only frame a customer receives: a bot, agent or
// system utterance. Customers never see their own messages echoed back.
type messageFrame struct {
	Sender    session.Sender `json:"sender"`
	Content   string         `json:"content"`
	Timestamp string         `json:"timestamp"`
}

func messageFrameFromEvent(ev session.Event) messageFrame {
	return messageFrame{
		Sender:    ev.Sender,
		Content:   ev.Content,
		Timestamp: ev.Timestamp,
	}
}

// syncStateFrame is the catch-up snapshot sent to an observer on connect,
// before any live events.
type syncStateFrame struct {
	Type        string                             `json:"type"`
	ActiveChats []string                           `json:"active_chats"`
	Messages    map[string][]session.Message       `json:"messages"`
	Approvals   map[string]session.PendingApproval `json:"approvals"`
	Metadata    map[string]session.Metadata        `json:"metadata"`
}

func syncStateFromSnapshot(snap session.Snapshot) syncStateFrame {
	return syncStateFrame{
		Type:        "sync_state",
		ActiveChats: snap.ActiveChats,
		Messages:    snap.Messages,
		Approvals:   snap.Approvals,
		Metadata:    snap.Metadata,
	}
}

// errorFrame tells an observer that one of its operations was rejected, so
// the dashboard can reconcile instead of silently drifting.
type errorFrame struct {
	Type     string `json:"type"`
	Op       string `json:"op"`
	ClientID string `json:"clientId,omitempty"`
	Error    string `json:"error"`
}

// parseTimestamp parses a client-supplied timestamp, returning zero (caller
// substitutes the server clock) when absent or unparsable.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return ts
}
