// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package record

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tracegate/tracegate/pkg/trace"
)

// Store provides SQLite-backed storage for recording sessions and their
// delivered events.
type Store struct {
	db *sql.DB
}

// Config contains SQLite storage configuration.
type Config struct {
	// Path is the filesystem path to the SQLite database file.
	// Special value ":memory:" creates an in-memory database.
	Path string

	// MaxOpenConns sets the maximum number of open connections.
	MaxOpenConns int
}

// Session summarizes one recording session.
type Session struct {
	ID         string
	TracerID   string
	Label      string
	Filter     string
	StartedAt  time.Time
	EventCount int
}

// Open creates or opens a SQLite recording store.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// WAL mode for better concurrency between recording and listing
	connStr := cfg.Path
	if cfg.Path != ":memory:" {
		connStr += "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxConns := cfg.MaxOpenConns
	if maxConns == 0 {
		maxConns = 5
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// migrate creates the database schema.
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	migrations := []string{
		// Sessions table summarizes each recording run
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			tracer_id TEXT NOT NULL,
			label TEXT,
			filter TEXT,
			started_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,

		// Events table stores delivered events in delivery order
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			path TEXT,
			lineno INTEGER,
			method_id TEXT,
			method_type TEXT,
			module_name TEXT,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// BeginSession registers a new recording session and returns its sink.
func (s *Store) BeginSession(ctx context.Context, sessionID, tracerID, label string, filter trace.FilterSet) (*SessionSink, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, tracer_id, label, filter, started_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, tracerID, label, filter.String(), time.Now().UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &SessionSink{store: s, sessionID: sessionID}, nil
}

// ListSessions returns recorded sessions, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.session_id, s.tracer_id, s.label, s.filter, s.started_at,
			(SELECT COUNT(*) FROM events e WHERE e.session_id = s.session_id)
		FROM sessions s
		ORDER BY s.started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		var startedAt int64
		var label, filter sql.NullString
		if err := rows.Scan(&sess.ID, &sess.TracerID, &label, &filter, &startedAt, &sess.EventCount); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sess.Label = label.String
		sess.Filter = filter.String
		sess.StartedAt = time.Unix(0, startedAt)
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Events returns a session's recorded events in delivery order.
func (s *Store) Events(ctx context.Context, sessionID string) ([]trace.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, path, lineno, method_id, method_type, module_name
		FROM events WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []trace.Record
	for rows.Next() {
		var rec trace.Record
		var path, methodID, methodType, moduleName sql.NullString
		var lineno sql.NullInt64
		if err := rows.Scan(&rec.Event, &path, &lineno, &methodID, &methodType, &moduleName); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		rec.Path = path.String
		rec.Lineno = int(lineno.Int64)
		rec.MethodID = methodID.String
		rec.MethodType = methodType.String
		rec.ModuleName = moduleName.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SessionSink records delivered events into one session. It implements
// Sink.
type SessionSink struct {
	store     *Store
	sessionID string
	seq       int
}

// Record implements Sink.
func (k *SessionSink) Record(ctx context.Context, ev *trace.Event) error {
	rec := ev.Serialize()
	k.seq++
	_, err := k.store.db.ExecContext(ctx, `
		INSERT INTO events (session_id, seq, kind, path, lineno, method_id, method_type, module_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		k.sessionID, k.seq, rec.Event, rec.Path, rec.Lineno,
		rec.MethodID, rec.MethodType, rec.ModuleName, ev.CreatedAt().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to store event: %w", err)
	}
	return nil
}

// Close implements Sink. The underlying store stays open; close it
// separately once every session is done.
func (k *SessionSink) Close() error { return nil }
