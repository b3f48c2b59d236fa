// Package history keeps an audit trail of queries in PostgreSQL.
//
// Only request metadata is stored (file, operators, outcome, timing, client).
// Result lines are never written.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/linequery/internal/query"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// DefaultRecentLimit is used when Recent is called with a non-positive limit.
const DefaultRecentLimit = 50

// MaxRecentLimit caps how many entries Recent returns.
const MaxRecentLimit = 500

const schema = `
CREATE TABLE IF NOT EXISTS query_log (
	id          UUID PRIMARY KEY,
	file_name   TEXT NOT NULL,
	commands    TEXT NOT NULL DEFAULT '',
	lines       INTEGER NOT NULL DEFAULT 0,
	outcome     TEXT NOT NULL,
	error_code  TEXT,
	error       TEXT,
	duration_ms BIGINT NOT NULL,
	ip_address  TEXT,
	user_agent  TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS query_log_created_at_idx ON query_log (created_at DESC);
`

const insertQuery = `INSERT INTO query_log
	(id, file_name, commands, lines, outcome, error_code, error, duration_ms, ip_address, user_agent, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

const recentQuery = `SELECT id, file_name, commands, lines, outcome, error_code, error,
	duration_ms, ip_address, user_agent, created_at
	FROM query_log ORDER BY created_at DESC LIMIT $1`

const purgeQuery = `DELETE FROM query_log WHERE created_at < $1`

// Entry is one stored query.
type Entry struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	Commands   string    `json:"commands"`
	Lines      int       `json:"lines"`
	Outcome    string    `json:"outcome"`
	ErrorCode  string    `json:"errorCode,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"durationMs"`
	IPAddress  string    `json:"ipAddress,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Store reads and writes the query_log table.
type Store struct {
	db DBTX
}

// NewStore creates a Store on db.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the query_log table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create query_log: %w", err)
	}
	return nil
}

// RecordQuery inserts rec. It implements query.Recorder.
func (s *Store) RecordQuery(ctx context.Context, rec query.Record) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx, insertQuery,
		pgtype.UUID{Bytes: rec.ID, Valid: true},
		rec.FileName,
		rec.Commands,
		rec.Lines,
		rec.Outcome,
		toPgText(rec.ErrorCode),
		toPgText(rec.Error),
		rec.Duration.Milliseconds(),
		toPgText(rec.IPAddress),
		toPgText(rec.UserAgent),
		pgtype.Timestamptz{Time: createdAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("insert query_log: %w", err)
	}
	return nil
}

// Recent returns the newest entries first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	limit = min(limit, MaxRecentLimit)

	rows, err := s.db.Query(ctx, recentQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("select query_log: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Purge deletes entries created before cutoff and returns how many went.
func (s *Store) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, purgeQuery, pgtype.Timestamptz{Time: cutoff, Valid: true})
	if err != nil {
		return 0, fmt.Errorf("purge query_log: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var (
		id         pgtype.UUID
		fileName   string
		commands   string
		lines      int32
		outcome    string
		errorCode  pgtype.Text
		errText    pgtype.Text
		durationMs int64
		ipAddress  pgtype.Text
		userAgent  pgtype.Text
		createdAt  pgtype.Timestamptz
	)

	err := row.Scan(
		&id, &fileName, &commands, &lines, &outcome, &errorCode, &errText,
		&durationMs, &ipAddress, &userAgent, &createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan query_log: %w", err)
	}

	entry := &Entry{
		FileName:   fileName,
		Commands:   commands,
		Lines:      int(lines),
		Outcome:    outcome,
		ErrorCode:  errorCode.String,
		Error:      errText.String,
		DurationMs: durationMs,
		IPAddress:  ipAddress.String,
		UserAgent:  userAgent.String,
		CreatedAt:  createdAt.Time,
	}
	if id.Valid {
		entry.ID = uuid.UUID(id.Bytes).String()
	}
	return entry, nil
}

// toPgText converts a string to pgtype.Text; empty strings become NULL.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
