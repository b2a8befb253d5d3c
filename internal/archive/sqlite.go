// ABOUTME: SQLite implementation of the Archiver using modernc.org/sqlite
// ABOUTME: Sessions and messages tables with automatic schema creation

package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/2389/support-hub/internal/session"
)

// SQLiteArchive implements Archiver on a local SQLite database.
type SQLiteArchive struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteArchive opens (or creates) the archive database at the given
// path. The schema is created automatically and parent directories are
// created if needed.
func NewSQLiteArchive(path string, logger *slog.Logger) (*SQLiteArchive, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "archive")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	a := &SQLiteArchive{db: db, logger: logger}
	if err := a.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("archive initialized", "path", path)
	return a, nil
}

func (a *SQLiteArchive) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			sender TEXT NOT NULL,
			content TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);
		CREATE INDEX IF NOT EXISTS idx_messages_session_id ON messages(session_id);
	`
	if _, err := a.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Close closes the database.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}

// Persist stores a completed session and its transcript in one transaction.
func (a *SQLiteArchive) Persist(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, client_id, started_at, ended_at)
		VALUES (?, ?, ?, ?)`,
		rec.ID, rec.ClientID,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.EndedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	for _, msg := range rec.Messages {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO messages (session_id, sender, content, timestamp)
			VALUES (?, ?, ?, ?)`,
			rec.ID, string(msg.Sender), msg.Content,
			msg.Timestamp.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("inserting message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	a.logger.Info("session archived",
		"record_id", rec.ID,
		"client_id", rec.ClientID,
		"messages", len(rec.Messages))
	return nil
}

// List returns archived session summaries, most recently started first.
func (a *SQLiteArchive) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT s.id, s.client_id, s.started_at, s.ended_at, COUNT(m.id)
		FROM sessions s
		LEFT JOIN messages m ON m.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0)
	for rows.Next() {
		var sum Summary
		var startedAt, endedAt string
		if err := rows.Scan(&sum.ID, &sum.ClientID, &startedAt, &endedAt, &sum.MessageCount); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		if sum.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		if sum.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, fmt.Errorf("parsing ended_at: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Get returns one archived session with its full transcript, or ErrNotFound.
func (a *SQLiteArchive) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	var startedAt, endedAt string
	err := a.db.QueryRowContext(ctx, `
		SELECT id, client_id, started_at, ended_at
		FROM sessions WHERE id = ?`, id).
		Scan(&rec.ID, &rec.ClientID, &startedAt, &endedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	if rec.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
		return nil, fmt.Errorf("parsing ended_at: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT sender, content, timestamp
		FROM messages WHERE session_id = ?
		ORDER BY id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	rec.Messages = make([]session.Message, 0)
	for rows.Next() {
		var msg session.Message
		var sender, ts string
		if err := rows.Scan(&sender, &msg.Content, &ts); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		msg.Sender = session.Sender(sender)
		if msg.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parsing message timestamp: %w", err)
		}
		rec.Messages = append(rec.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &rec, nil
}
