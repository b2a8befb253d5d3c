// ABOUTME: Tests for the approval gate lifecycle
// ABOUTME: Request, resolve, duplicate and missing-approval error paths

package approval

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/support-hub/internal/session"
)

// fakeApplier records the outcome it was asked to apply.
type fakeApplier struct {
	lastHandler  string
	lastApproved bool
}

func (f *fakeApplier) ApplyOutcome(handlerName string, amount float64, reason string, approved bool) string {
	f.lastHandler = handlerName
	f.lastApproved = approved
	if approved {
		return fmt.Sprintf("approved %s for $%.2f", handlerName, amount)
	}
	return "declined " + handlerName
}

func newGate(t *testing.T) (*Gate, *session.Store, *fakeApplier) {
	t.Helper()
	store := session.NewStore(nil, nil)
	applier := &fakeApplier{}
	return New(store, applier, nil), store, applier
}

func TestGate_RequestCreatesPendingApproval(t *testing.T) {
	gate, store, _ := newGate(t)
	require.NoError(t, store.Create("client-1"))

	require.NoError(t, gate.Request("client-1", "billing", 14.99, "dispute"))

	pending := gate.ListPending()
	require.Len(t, pending, 1)
	assert.Equal(t, 14.99, pending["client-1"].Amount)

	meta, err := store.Meta("client-1")
	require.NoError(t, err)
	assert.Equal(t, session.StatusHardHandoff, meta.Status)
}

func TestGate_DuplicateRequestRejected(t *testing.T) {
	gate, store, _ := newGate(t)
	require.NoError(t, store.Create("client-1"))

	require.NoError(t, gate.Request("client-1", "billing", 14.99, "dispute"))
	err := gate.Request("client-1", "tech_support", 0, "dispatch")
	assert.ErrorIs(t, err, session.ErrDuplicateApproval)
	assert.Len(t, gate.ListPending(), 1)
}

func TestGate_RequestUnknownSession(t *testing.T) {
	gate, _, _ := newGate(t)

	err := gate.Request("ghost", "billing", 14.99, "dispute")
	assert.ErrorIs(t, err, session.ErrUnknownSession)
}

func TestGate_ResolveApprovedAppliesOutcome(t *testing.T) {
	gate, store, applier := newGate(t)
	require.NoError(t, store.Create("client-1"))
	require.NoError(t, gate.Request("client-1", "billing", 14.99, "dispute"))

	require.NoError(t, gate.Resolve("client-1", true))

	assert.Equal(t, "billing", applier.lastHandler)
	assert.True(t, applier.lastApproved)
	assert.Empty(t, gate.ListPending())

	meta, err := store.Meta("client-1")
	require.NoError(t, err)
	assert.Equal(t, session.StatusBotOnly, meta.Status)

	// the outcome is recorded as a system message
	history, err := store.History("client-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, session.SenderSystem, history[0].Sender)
	assert.Equal(t, "approved billing for $14.99", history[0].Content)
}

func TestGate_ResolveDeclined(t *testing.T) {
	gate, store, applier := newGate(t)
	require.NoError(t, store.Create("client-1"))
	require.NoError(t, gate.Request("client-1", "billing", 14.99, "dispute"))

	require.NoError(t, gate.Resolve("client-1", false))
	assert.False(t, applier.lastApproved)

	history, err := store.History("client-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "declined billing", history[0].Content)
}

func TestGate_ResolveWithoutPendingFails(t *testing.T) {
	gate, store, _ := newGate(t)
	require.NoError(t, store.Create("client-1"))

	err := gate.Resolve("client-1", true)
	assert.ErrorIs(t, err, session.ErrNoPendingApproval)
}

func TestGate_DoubleResolveFails(t *testing.T) {
	gate, store, _ := newGate(t)
	require.NoError(t, store.Create("client-1"))
	require.NoError(t, gate.Request("client-1", "billing", 14.99, "dispute"))

	require.NoError(t, gate.Resolve("client-1", true))
	err := gate.Resolve("client-1", true)
	assert.ErrorIs(t, err, session.ErrNoPendingApproval)
}

func TestGate_ResolveAfterTakeoverFails(t *testing.T) {
	gate, store, applier := newGate(t)
	require.NoError(t, store.Create("client-1"))
	require.NoError(t, gate.Request("client-1", "billing", 14.99, "dispute"))

	// takeover abandons the approval without an outcome
	require.NoError(t, store.Update("client-1", func(m *session.Mutation) error {
		m.Takeover()
		return nil
	}))

	err := gate.Resolve("client-1", true)
	assert.ErrorIs(t, err, session.ErrNoPendingApproval)
	assert.Empty(t, applier.lastHandler)

	history, err := store.History("client-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}
