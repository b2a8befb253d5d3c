// Package bot dispatches customer messages to pluggable intent handlers
// while a session is bot-controlled.
//
// Dispatch is a fixed, ordered table of matcher/handler pairs evaluated
// top-to-bottom with one default fallback. Routing is deterministic:
// identical message text and identical prior history always select the
// same handler, because handlers keep no internal flow state — multi-step
// flows recover their position from markers in the session history.
//
// Handlers may propose a gated action (ActionRequest); the approval gate
// holds it until a supervisor decides and then applies the effect back
// through the originating handler's ApplyAction.
package bot
