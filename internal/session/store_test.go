// ABOUTME: Tests for the session store: lifecycle, mutations, approvals, sync barrier
// ABOUTME: Covers the at-most-one-approval and ended-exactly-once invariants

package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects published events in order.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestStore_CreateIsIdempotent(t *testing.T) {
	s := NewStore(nil, nil)

	require.NoError(t, s.Create("client-1"))
	require.NoError(t, s.Create("client-1"))

	assert.Equal(t, []string{"client-1"}, s.Live())

	meta, err := s.Meta("client-1")
	require.NoError(t, err)
	assert.Equal(t, StatusBotOnly, meta.Status)
}

func TestStore_UpdateUnknownSession(t *testing.T) {
	s := NewStore(nil, nil)

	err := s.Update("ghost", func(m *Mutation) error { return nil })
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestStore_AppendPreservesOrder(t *testing.T) {
	rec := &recorder{}
	s := NewStore(rec, nil)
	require.NoError(t, s.Create("client-1"))

	contents := []string{"first", "second", "third"}
	for _, c := range contents {
		err := s.Update("client-1", func(m *Mutation) error {
			m.Append(SenderCustomer, c, time.Now())
			return nil
		})
		require.NoError(t, err)
	}

	history, err := s.History("client-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, c := range contents {
		assert.Equal(t, c, history[i].Content)
	}

	events := rec.all()
	require.Len(t, events, 3)
	for i, c := range contents {
		assert.Equal(t, EventMessage, events[i].Type)
		assert.Equal(t, c, events[i].Content)
	}
}

func TestStore_SetApprovalTransitionsAndEvents(t *testing.T) {
	rec := &recorder{}
	s := NewStore(rec, nil)
	require.NoError(t, s.Create("client-1"))

	err := s.Update("client-1", func(m *Mutation) error {
		return m.SetApproval("billing", 14.99, "Movie Rental Dispute - Customer claims unauthorized charge")
	})
	require.NoError(t, err)

	meta, err := s.Meta("client-1")
	require.NoError(t, err)
	assert.Equal(t, StatusHardHandoff, meta.Status)
	assert.True(t, meta.RequiresApproval)

	approval, err := s.Approval("client-1")
	require.NoError(t, err)
	assert.Equal(t, 14.99, approval.Amount)

	events := rec.all()
	require.Len(t, events, 2)
	assert.Equal(t, EventHardHandoff, events[0].Type)
	assert.Equal(t, EventApprovalRequest, events[1].Type)
	assert.Equal(t, 14.99, events[1].Amount)
}

func TestStore_SecondApprovalIsRejected(t *testing.T) {
	s := NewStore(nil, nil)
	require.NoError(t, s.Create("client-1"))

	require.NoError(t, s.Update("client-1", func(m *Mutation) error {
		return m.SetApproval("billing", 14.99, "dispute")
	}))

	err := s.Update("client-1", func(m *Mutation) error {
		return m.SetApproval("tech_support", 0, "dispatch")
	})
	assert.ErrorIs(t, err, ErrDuplicateApproval)

	// the original approval is untouched
	approval, err := s.Approval("client-1")
	require.NoError(t, err)
	assert.Equal(t, "billing", approval.HandlerName)
	assert.Len(t, s.PendingApprovals(), 1)
}

func TestStore_ClearApprovalNonePending(t *testing.T) {
	s := NewStore(nil, nil)
	require.NoError(t, s.Create("client-1"))

	err := s.Update("client-1", func(m *Mutation) error {
		_, err := m.ClearApproval()
		return err
	})
	assert.ErrorIs(t, err, ErrNoPendingApproval)
}

func TestStore_ClearApprovalResetsStatus(t *testing.T) {
	s := NewStore(nil, nil)
	require.NoError(t, s.Create("client-1"))

	require.NoError(t, s.Update("client-1", func(m *Mutation) error {
		return m.SetApproval("billing", 14.99, "dispute")
	}))

	var cleared PendingApproval
	require.NoError(t, s.Update("client-1", func(m *Mutation) error {
		var err error
		cleared, err = m.ClearApproval()
		return err
	}))
	assert.Equal(t, "billing", cleared.HandlerName)

	meta, err := s.Meta("client-1")
	require.NoError(t, err)
	assert.Equal(t, StatusBotOnly, meta.Status)
	assert.False(t, meta.RequiresApproval)
	assert.Empty(t, s.PendingApprovals())
}

func TestStore_TakeoverAbandonsApproval(t *testing.T) {
	s := NewStore(nil, nil)
	require.NoError(t, s.Create("client-1"))

	require.NoError(t, s.Update("client-1", func(m *Mutation) error {
		return m.SetApproval("billing", 14.99, "dispute")
	}))

	var abandoned *PendingApproval
	var first bool
	require.NoError(t, s.Update("client-1", func(m *Mutation) error {
		abandoned, first = m.Takeover()
		return nil
	}))

	require.NotNil(t, abandoned)
	assert.Equal(t, 14.99, abandoned.Amount)
	assert.True(t, first)

	meta, err := s.Meta("client-1")
	require.NoError(t, err)
	assert.Equal(t, StatusAgentActive, meta.Status)
	assert.Empty(t, s.PendingApprovals())

	// a second takeover is not the first anymore
	require.NoError(t, s.Update("client-1", func(m *Mutation) error {
		abandoned, first = m.Takeover()
		return nil
	}))
	assert.Nil(t, abandoned)
	assert.False(t, first)
}

func TestStore_EscalateOnlyFromBotStates(t *testing.T) {
	s := NewStore(nil, nil)
	require.NoError(t, s.Create("client-1"))

	require.NoError(t, s.Update("client-1", func(m *Mutation) error {
		assert.True(t, m.Escalate("Negative sentiment detected", 0.6))
		return nil
	}))

	meta, err := s.Meta("client-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSoftHandoff, meta.Status)
	assert.Equal(t, 0.6, meta.SentimentScore)

	// once an agent is active, escalation is a no-op
	require.NoError(t, s.Update("client-1", func(m *Mutation) error {
		m.Takeover()
		return nil
	}))
	require.NoError(t, s.Update("client-1", func(m *Mutation) error {
		assert.False(t, m.Escalate("again", 0.9))
		return nil
	}))

	meta, err = s.Meta("client-1")
	require.NoError(t, err)
	assert.Equal(t, StatusAgentActive, meta.Status)
}

func TestStore_EndRejectsFurtherOperations(t *testing.T) {
	rec := &recorder{}
	s := NewStore(rec, nil)
	require.NoError(t, s.Create("client-1"))

	require.NoError(t, s.Update("client-1", func(m *Mutation) error {
		m.Append(SenderCustomer, "hello", time.Now())
		return nil
	}))

	var final []Message
	require.NoError(t, s.Update("client-1", func(m *Mutation) error {
		final, _ = m.End()
		return nil
	}))
	require.Len(t, final, 1)

	// every operation after the ended transition fails the same way
	err := s.Update("client-1", func(m *Mutation) error { return nil })
	assert.ErrorIs(t, err, ErrUnknownSession)
	_, err = s.History("client-1")
	assert.ErrorIs(t, err, ErrUnknownSession)
	assert.ErrorIs(t, s.Create("client-1"), ErrUnknownSession)

	events := rec.all()
	assert.Equal(t, EventSessionEnded, events[len(events)-1].Type)

	s.Remove("client-1")
	assert.Empty(t, s.Live())
}

func TestStore_RemoveIgnoresLiveSessions(t *testing.T) {
	s := NewStore(nil, nil)
	require.NoError(t, s.Create("client-1"))

	s.Remove("client-1")
	assert.Equal(t, []string{"client-1"}, s.Live())
}

func TestStore_SyncSnapshotExcludesEnded(t *testing.T) {
	s := NewStore(nil, nil)
	require.NoError(t, s.Create("live"))
	require.NoError(t, s.Create("done"))

	require.NoError(t, s.Update("live", func(m *Mutation) error {
		m.Append(SenderCustomer, "hi", time.Now())
		return m.SetApproval("billing", 14.99, "dispute")
	}))
	require.NoError(t, s.Update("done", func(m *Mutation) error {
		m.End()
		return nil
	}))

	var snap Snapshot
	s.SyncSnapshot(func(got Snapshot) { snap = got })

	assert.Equal(t, []string{"live"}, snap.ActiveChats)
	assert.Len(t, snap.Messages["live"], 1)
	assert.Equal(t, 14.99, snap.Approvals["live"].Amount)
	assert.Equal(t, StatusHardHandoff, snap.Metadata["live"].Status)
	assert.NotContains(t, snap.Messages, "done")
}

func TestStore_ConcurrentSessionsStayIsolated(t *testing.T) {
	s := NewStore(nil, nil)
	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		require.NoError(t, s.Create(id))
	}

	const perSession = 50
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < perSession; i++ {
				_ = s.Update(id, func(m *Mutation) error {
					m.Append(SenderCustomer, id, time.Now())
					return nil
				})
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		history, err := s.History(id)
		require.NoError(t, err)
		assert.Len(t, history, perSession)
		for _, msg := range history {
			assert.Equal(t, id, msg.Content)
		}
	}
}
