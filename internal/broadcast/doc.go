// Package broadcast fans committed session events out to subscribers.
//
// Two kinds of subscribers exist: observers (supervisor dashboards) see
// every session's events, customers only see their own. Each subscriber
// gets its own buffered channel and events are dropped, not queued
// unboundedly, when a subscriber falls behind — the mutation path that
// produced an event never waits on delivery.
//
// Observer attachment is snapshot-consistent: SubscribeObserver registers
// the channel inside the store's sync barrier, so the snapshot plus the
// stream equals what an always-connected observer would have seen.
package broadcast
