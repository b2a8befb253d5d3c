// ABOUTME: Fan-out of session events to supervisor observers and owning customers
// ABOUTME: Per-subscriber bounded channels, drop-on-full; snapshot-consistent observer attach

package broadcast

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/2389/support-hub/internal/session"
)

const (
	// defaultObserverBuffer is the channel buffer for each observer
	// connection. Observers receive the full event stream.
	defaultObserverBuffer = 64

	// defaultCustomerBuffer is the channel buffer for each customer
	// connection, which only sees its own session's events.
	defaultCustomerBuffer = 16
)

// SnapshotSource provides the atomic snapshot-and-register barrier.
// session.Store implements it.
type SnapshotSource interface {
	SyncSnapshot(register func(snap session.Snapshot))
}

// Broadcaster delivers every committed session event to all connected
// observers and to the owning customer connection. Delivery is best-effort
// and independently buffered: a slow or disconnected subscriber never
// blocks other subscribers or the mutation path that produced the event.
type Broadcaster struct {
	mu        sync.RWMutex
	observers map[string]chan session.Event
	customers map[string]map[string]chan session.Event // clientID -> connID -> ch
	closed    bool

	observerBuffer int
	customerBuffer int
	logger         *slog.Logger
}

// New creates a broadcaster. Buffer sizes of zero select the defaults.
// Pass nil logger for default.
func New(observerBuffer, customerBuffer int, logger *slog.Logger) *Broadcaster {
	if observerBuffer <= 0 {
		observerBuffer = defaultObserverBuffer
	}
	if customerBuffer <= 0 {
		customerBuffer = defaultCustomerBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		observers:      make(map[string]chan session.Event),
		customers:      make(map[string]map[string]chan session.Event),
		observerBuffer: observerBuffer,
		customerBuffer: customerBuffer,
		logger:         logger.With("component", "broadcaster"),
	}
}

// Publish implements session.Publisher. It is called inside the store's
// commit critical section and must not block: events are dropped for
// subscribers whose channels are full.
func (b *Broadcaster) Publish(ev session.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for id, ch := range b.observers {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("dropped event for slow observer",
				"observer_id", id,
				"client_id", ev.ClientID,
				"event", ev.Type)
		}
	}

	for connID, ch := range b.customers[ev.ClientID] {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("dropped event for slow customer connection",
				"conn_id", connID,
				"client_id", ev.ClientID,
				"event", ev.Type)
		}
	}
}

// SubscribeObserver attaches a new observer. The returned snapshot and the
// events subsequently delivered on the channel are together exactly what an
// always-connected observer would have seen: the subscription is registered
// under the store's sync barrier, so no event is missed or duplicated.
func (b *Broadcaster) SubscribeObserver(src SnapshotSource) (session.Snapshot, <-chan session.Event, string) {
	id := uuid.New().String()
	ch := make(chan session.Event, b.observerBuffer)

	var snap session.Snapshot
	src.SyncSnapshot(func(s session.Snapshot) {
		snap = s
		b.mu.Lock()
		if !b.closed {
			b.observers[id] = ch
		}
		b.mu.Unlock()
	})

	b.logger.Debug("observer subscribed", "observer_id", id)
	return snap, ch, id
}

// UnsubscribeObserver detaches an observer and closes its channel. This has
// zero effect on any session's state.
func (b *Broadcaster) UnsubscribeObserver(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.observers[id]
	if !ok {
		return
	}
	delete(b.observers, id)
	close(ch)
	b.logger.Debug("observer unsubscribed", "observer_id", id)
}

// AttachCustomer registers a customer connection for its session's events.
// Multiple connections may share a client id (reconnect overlap); each gets
// its own channel.
func (b *Broadcaster) AttachCustomer(clientID string) (<-chan session.Event, string) {
	connID := uuid.New().String()
	ch := make(chan session.Event, b.customerBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, connID
	}
	if _, ok := b.customers[clientID]; !ok {
		b.customers[clientID] = make(map[string]chan session.Event)
	}
	b.customers[clientID][connID] = ch
	return ch, connID
}

// DetachCustomer removes a customer connection from fan-out and closes its
// channel. The session itself is untouched: only an explicit end command
// ends a session.
func (b *Broadcaster) DetachCustomer(clientID, connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	conns, ok := b.customers[clientID]
	if !ok {
		return
	}
	ch, ok := conns[connID]
	if !ok {
		return
	}
	delete(conns, connID)
	close(ch)
	if len(conns) == 0 {
		delete(b.customers, clientID)
	}
}

// PushCustomer delivers a locally-crafted event to one customer's
// connections, outside the store path. Used for absorbed-error system
// messages. Non-blocking like Publish.
func (b *Broadcaster) PushCustomer(clientID string, ev session.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, ch := range b.customers[clientID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close shuts down the broadcaster and closes every subscriber channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, ch := range b.observers {
		close(ch)
		delete(b.observers, id)
	}
	for clientID, conns := range b.customers {
		for connID, ch := range conns {
			close(ch)
			delete(conns, connID)
		}
		delete(b.customers, clientID)
	}

	b.logger.Debug("broadcaster closed")
}
