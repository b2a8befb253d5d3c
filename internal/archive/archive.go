// ABOUTME: Archiver interface and record types for ended-session history
// ABOUTME: Persisting is best-effort at end-of-session; reads serve the history API

package archive

import (
	"context"
	"errors"
	"time"

	"github.com/2389/support-hub/internal/session"
)

// ErrNotFound is returned when no archived record matches the requested id.
var ErrNotFound = errors.New("archive: record not found")

// Record is a completed session's full transcript.
type Record struct {
	ID        string            `json:"id"`
	ClientID  string            `json:"client_id"`
	StartedAt time.Time         `json:"start_time"`
	EndedAt   time.Time         `json:"end_time"`
	Messages  []session.Message `json:"messages"`
}

// Summary is the listing view of a record, without the transcript.
type Summary struct {
	ID           string    `json:"id"`
	ClientID     string    `json:"client_id"`
	StartedAt    time.Time `json:"start_time"`
	EndedAt      time.Time `json:"end_time"`
	MessageCount int       `json:"message_count"`
}

// Archiver persists ended sessions and serves them back for review.
//
// Persist failures must never prevent a session from being removed from the
// live store: callers log the error and move on.
type Archiver interface {
	Persist(ctx context.Context, rec Record) error
	List(ctx context.Context, limit int) ([]Summary, error)
	Get(ctx context.Context, id string) (*Record, error)
	Close() error
}
