// Package archive persists completed support sessions for later review.
//
// A session is archived exactly once, when it ends; live sessions are never
// written here. Persist failures are logged by the caller and never block
// the session's removal from the live store.
package archive
