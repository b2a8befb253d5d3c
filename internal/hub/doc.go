// Package hub exposes the support service over WebSockets and REST.
//
// # Connections
//
// Each customer and each observer (supervisor dashboard) holds one
// persistent WebSocket:
//
//	/ws/{clientID}/customer   one customer conversation
//	/ws/{name}/agent          full-fleet observer
//
// Every connection gets two goroutines: one reading inbound frames into the
// session mutation path, one pumping outbound events from the connection's
// bounded fan-out channel. A connection is never written from two
// goroutines.
//
// # Customer protocol
//
// Inbound: {content, timestamp?} chat messages and {type:"end_session"}.
// Outbound: {sender, content, timestamp} frames for bot, agent and system
// messages only — a customer's own messages are not echoed back.
//
// # Observer protocol
//
// On connect the observer receives one sync_state frame (active chats,
// full message logs, pending approvals, per-session metadata), then the
// live event stream. Inbound operations:
//
//	{type:"approval_response", targetClientId, approved}
//	{type:"takeover_message", targetClientId, content}
//	{type:"end_session", clientId}
//
// # Error policy
//
// Failures triggered by customer input are absorbed into a generic system
// message; internal error kinds never reach the customer. Failures
// triggered by supervisor operations come back as
// {type:"error", op, clientId, error} frames so the dashboard can
// reconcile instead of silently drifting. Malformed inbound payloads are
// dropped with a logged warning and the connection stays open.
//
// # History
//
// GET /api/history lists archived sessions newest-first;
// GET /api/history/{id} returns one full transcript.
package hub
