// Package session holds the authoritative in-memory state of every live
// customer conversation and enforces the session state machine.
//
// # State machine
//
// Sessions move along fixed edges:
//
//	bot_only ──escalation──▶ soft_handoff
//	bot_only / soft_handoff ──gated action──▶ hard_handoff
//	hard_handoff ──approval resolved──▶ bot_only
//	any non-ended ──supervisor takeover──▶ agent_active
//	any ──end command──▶ ended (terminal)
//
// ended is terminal: the session is handed to the archiver and removed from
// the live store, and every later operation on its id fails with
// ErrUnknownSession.
//
// # Serialization
//
// All mutations to one session id run through Store.Update under the
// session's own lock, so racing inputs (a customer message and a concurrent
// approval resolution, say) commit in some serial order and never
// interleave. Different session ids are fully independent.
//
// # Sync barrier
//
// Update holds the store barrier in read mode while committing and
// publishing; SyncSnapshot holds it in write mode while snapshotting and
// registering a new observer. The union of a snapshot and the events
// delivered afterwards is exactly what an always-connected observer would
// have seen.
package session
