// ABOUTME: Authoritative in-memory store of live sessions with per-session serialization
// ABOUTME: Mutations share a store-level read barrier; observer sync takes the write side

package session

import (
	"log/slog"
	"sync"
	"time"
)

// Store holds every live session. All state changes to one session id are
// funneled through Update, which serializes them on the session's own lock;
// different session ids mutate concurrently.
//
// The store-level RWMutex doubles as the sync barrier: Update and Create
// hold the read side while committing and publishing, SyncSnapshot holds
// the write side. An observer attached during SyncSnapshot therefore sees
// every event either in the snapshot or on its channel, never both.
//
// Lock order is fixed: store barrier, then session lock, then whatever the
// publisher takes internally.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*liveSession
	pub      Publisher
	logger   *slog.Logger
}

type liveSession struct {
	mu               sync.Mutex
	clientID         string
	status           Status
	messages         []Message
	approval         *PendingApproval
	startedAt        time.Time
	lastActivity     time.Time
	escalationReason string
	sentimentScore   float64
	requiresApproval bool
	ended            bool
}

// NewStore creates a session store. The publisher receives one event per
// committed mutation and may be nil (events are then discarded). Pass nil
// logger for default.
func NewStore(pub Publisher, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions: make(map[string]*liveSession),
		pub:      pub,
		logger:   logger.With("component", "session-store"),
	}
}

// Create ensures a live session exists for clientID, starting it in
// bot_only if absent. Reconnecting to a still-live session is a no-op.
// A session that has ended but not yet been removed reports ErrUnknownSession.
func (s *Store) Create(clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[clientID]; ok {
		sess.mu.Lock()
		ended := sess.ended
		sess.mu.Unlock()
		if ended {
			return ErrUnknownSession
		}
		return nil
	}

	now := time.Now()
	s.sessions[clientID] = &liveSession{
		clientID:     clientID,
		status:       StatusBotOnly,
		startedAt:    now,
		lastActivity: now,
	}
	s.logger.Debug("session created", "client_id", clientID)
	return nil
}

// Update runs fn inside the session's serialized mutation path. Events
// recorded by the mutation are published before the locks are released, so
// per-session event order matches commit order. Returns ErrUnknownSession
// for absent or ended sessions; if fn returns an error it is passed through.
func (s *Store) Update(clientID string, fn func(m *Mutation) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[clientID]
	if !ok {
		return ErrUnknownSession
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.ended {
		return ErrUnknownSession
	}

	m := &Mutation{sess: sess}
	if err := fn(m); err != nil {
		return err
	}
	sess.lastActivity = time.Now()

	if s.pub != nil {
		for _, ev := range m.events {
			s.pub.Publish(ev)
		}
	}
	return nil
}

// Remove deletes an ended session from the live map. Sessions that have
// not ended are left alone: only the ended transition destroys a session.
func (s *Store) Remove(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[clientID]
	if !ok {
		return
	}
	sess.mu.Lock()
	ended := sess.ended
	sess.mu.Unlock()
	if ended {
		delete(s.sessions, clientID)
		s.logger.Debug("session removed", "client_id", clientID)
	}
}

// SyncSnapshot captures an atomic snapshot of every live session and runs
// register within the same critical section. While register runs, no
// mutation can commit anywhere in the store, which is what makes observer
// catch-up gap-free and duplicate-free.
func (s *Store) SyncSnapshot(register func(snap Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ActiveChats: make([]string, 0, len(s.sessions)),
		Messages:    make(map[string][]Message, len(s.sessions)),
		Approvals:   make(map[string]PendingApproval),
		Metadata:    make(map[string]Metadata, len(s.sessions)),
	}
	for id, sess := range s.sessions {
		sess.mu.Lock()
		if sess.ended {
			sess.mu.Unlock()
			continue
		}
		snap.ActiveChats = append(snap.ActiveChats, id)
		snap.Messages[id] = append([]Message(nil), sess.messages...)
		if sess.approval != nil {
			snap.Approvals[id] = *sess.approval
		}
		snap.Metadata[id] = sess.metadataLocked()
		sess.mu.Unlock()
	}

	register(snap)
}

// Live returns the ids of all live sessions.
func (s *Store) Live() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id, sess := range s.sessions {
		sess.mu.Lock()
		if !sess.ended {
			ids = append(ids, id)
		}
		sess.mu.Unlock()
	}
	return ids
}

// History returns a copy of the session's ordered message log.
func (s *Store) History(clientID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[clientID]
	if !ok {
		return nil, ErrUnknownSession
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.ended {
		return nil, ErrUnknownSession
	}
	return append([]Message(nil), sess.messages...), nil
}

// Approval returns a copy of the session's pending approval, or
// ErrNoPendingApproval if none is outstanding.
func (s *Store) Approval(clientID string) (PendingApproval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[clientID]
	if !ok {
		return PendingApproval{}, ErrUnknownSession
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.ended {
		return PendingApproval{}, ErrUnknownSession
	}
	if sess.approval == nil {
		return PendingApproval{}, ErrNoPendingApproval
	}
	return *sess.approval, nil
}

// PendingApprovals returns every outstanding approval keyed by session id.
func (s *Store) PendingApprovals() map[string]PendingApproval {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]PendingApproval)
	for id, sess := range s.sessions {
		sess.mu.Lock()
		if !sess.ended && sess.approval != nil {
			out[id] = *sess.approval
		}
		sess.mu.Unlock()
	}
	return out
}

// Meta returns the session's metadata view.
func (s *Store) Meta(clientID string) (Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[clientID]
	if !ok {
		return Metadata{}, ErrUnknownSession
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.ended {
		return Metadata{}, ErrUnknownSession
	}
	return sess.metadataLocked(), nil
}

func (sess *liveSession) metadataLocked() Metadata {
	return Metadata{
		Status:           sess.status,
		StartedAt:        sess.startedAt,
		LastActivity:     sess.lastActivity,
		EscalationReason: sess.escalationReason,
		SentimentScore:   sess.sentimentScore,
		RequiresApproval: sess.requiresApproval,
	}
}

// Mutation is the handle passed to Update callbacks. All methods operate
// under the session's lock; events recorded here are published when the
// mutation commits.
type Mutation struct {
	sess   *liveSession
	events []Event
}

// Status returns the session's current status.
func (m *Mutation) Status() Status {
	return m.sess.status
}

// History returns the ordered message log as it stands inside the mutation,
// including messages appended earlier in the same Update call.
func (m *Mutation) History() []Message {
	return append([]Message(nil), m.sess.messages...)
}

// Append adds a message to the session log and records a message event.
func (m *Mutation) Append(sender Sender, content string, ts time.Time) Message {
	if ts.IsZero() {
		ts = time.Now()
	}
	msg := Message{Sender: sender, Content: content, Timestamp: ts}
	m.sess.messages = append(m.sess.messages, msg)
	m.events = append(m.events, Event{
		Type:      EventMessage,
		ClientID:  m.sess.clientID,
		Status:    m.sess.status,
		Sender:    sender,
		Content:   content,
		Timestamp: ts.Format(time.RFC3339Nano),
	})
	return msg
}

// Escalate moves a bot-controlled session to soft_handoff, recording the
// escalation reason and score. Sessions already handed off (hard_handoff,
// agent_active) are left untouched.
func (m *Mutation) Escalate(reason string, score float64) bool {
	if m.sess.status != StatusBotOnly && m.sess.status != StatusSoftHandoff {
		return false
	}
	m.sess.status = StatusSoftHandoff
	m.sess.escalationReason = reason
	m.sess.sentimentScore = score
	m.events = append(m.events, Event{
		Type:     EventSoftHandoff,
		ClientID: m.sess.clientID,
		Status:   m.sess.status,
		Reason:   reason,
		Score:    score,
	})
	return true
}

// SetApproval creates the session's pending approval and transitions to
// hard_handoff. Fails with ErrDuplicateApproval if one is already pending.
func (m *Mutation) SetApproval(handlerName string, amount float64, reason string) error {
	if m.sess.approval != nil {
		return ErrDuplicateApproval
	}
	now := time.Now()
	m.sess.approval = &PendingApproval{
		ClientID:    m.sess.clientID,
		HandlerName: handlerName,
		Amount:      amount,
		Reason:      reason,
		RequestedAt: now,
	}
	m.sess.status = StatusHardHandoff
	m.sess.requiresApproval = true
	m.events = append(m.events,
		Event{
			Type:     EventHardHandoff,
			ClientID: m.sess.clientID,
			Status:   StatusHardHandoff,
		},
		Event{
			Type:     EventApprovalRequest,
			ClientID: m.sess.clientID,
			Status:   StatusHardHandoff,
			Amount:   amount,
			Reason:   reason,
		},
	)
	return nil
}

// ClearApproval resolves the pending approval: the record is removed,
// requires_approval drops and status returns to bot_only. The caller
// appends the outcome message. Fails with ErrNoPendingApproval if nothing
// is outstanding.
func (m *Mutation) ClearApproval() (PendingApproval, error) {
	if m.sess.approval == nil {
		return PendingApproval{}, ErrNoPendingApproval
	}
	cleared := *m.sess.approval
	m.sess.approval = nil
	m.sess.requiresApproval = false
	m.sess.status = StatusBotOnly
	return cleared, nil
}

// Takeover puts a supervisor in control. Any pending approval is abandoned
// without an outcome: the decision is discarded, not resolved. Returns the
// abandoned approval (if any) and whether this call changed the status.
func (m *Mutation) Takeover() (abandoned *PendingApproval, first bool) {
	first = m.sess.status != StatusAgentActive
	if m.sess.approval != nil {
		a := *m.sess.approval
		abandoned = &a
		m.sess.approval = nil
		m.sess.requiresApproval = false
	}
	m.sess.status = StatusAgentActive
	return abandoned, first
}

// End marks the session ended and returns the final ordered message log
// and start time for archival. The session stops accepting operations
// immediately; the caller removes it from the store after handing the log
// to the archiver.
func (m *Mutation) End() (messages []Message, startedAt time.Time) {
	m.sess.ended = true
	m.sess.status = StatusEnded
	m.sess.approval = nil
	m.sess.requiresApproval = false
	m.events = append(m.events, Event{
		Type:     EventSessionEnded,
		ClientID: m.sess.clientID,
		Status:   StatusEnded,
	})
	return append([]Message(nil), m.sess.messages...), m.sess.startedAt
}
