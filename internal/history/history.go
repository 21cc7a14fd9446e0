// Package history provides SQLite-backed persistence of serve-mode scan
// summaries. The engine's own indexes stay in memory; only the per-scan
// result row outlives an invocation.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS scans (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	scanned_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	main_root        TEXT NOT NULL,
	subordinate_root TEXT NOT NULL,
	differences      INTEGER NOT NULL DEFAULT 0,
	already_synced   INTEGER NOT NULL DEFAULT 0,
	only_in_sub      INTEGER NOT NULL DEFAULT 0,
	ambiguous        INTEGER NOT NULL DEFAULT 0,
	duration_ms      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_scans_scanned_at ON scans(scanned_at);
`

// Scan is one recorded scan summary.
type Scan struct {
	ID            int64     `json:"id"`
	ScannedAt     time.Time `json:"scanned_at"`
	MainRoot      string    `json:"main_root"`
	SubRoot       string    `json:"subordinate_root"`
	Differences   int       `json:"differences"`
	AlreadySynced int       `json:"already_synced"`
	OnlyInSub     int       `json:"only_in_subordinate"`
	Ambiguous     int       `json:"ambiguous"`
	DurationMS    int64     `json:"duration_ms"`
}

// Store defines the scan-history operations. Consumers should depend on
// this interface rather than the concrete *DB type.
type Store interface {
	RecordScan(s Scan) (int64, error)
	RecentScans(limit int) ([]Scan, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

// DB wraps a sql.DB with history operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// RecordScan inserts one scan summary and returns its row id.
func (db *DB) RecordScan(s Scan) (int64, error) {
	when := s.ScannedAt
	if when.IsZero() {
		when = time.Now().UTC()
	}
	res, err := db.conn.Exec(`
		INSERT INTO scans (scanned_at, main_root, subordinate_root, differences, already_synced, only_in_sub, ambiguous, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, when, s.MainRoot, s.SubRoot, s.Differences, s.AlreadySynced, s.OnlyInSub, s.Ambiguous, s.DurationMS)
	if err != nil {
		return 0, fmt.Errorf("history: record scan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: last insert id: %w", err)
	}
	return id, nil
}

// RecentScans returns the most recent scans, newest first.
func (db *DB) RecentScans(limit int) ([]Scan, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, scanned_at, main_root, subordinate_root, differences, already_synced, only_in_sub, ambiguous, duration_ms
		FROM scans ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent scans: %w", err)
	}
	defer rows.Close()

	var out []Scan
	for rows.Next() {
		var s Scan
		if err := rows.Scan(&s.ID, &s.ScannedAt, &s.MainRoot, &s.SubRoot, &s.Differences, &s.AlreadySynced, &s.OnlyInSub, &s.Ambiguous, &s.DurationMS); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
