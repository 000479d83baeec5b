// Package journal records move outcomes in a SQLite database so past scans
// can be reviewed with `downsort history`. The sorting pipeline only writes
// to it; nothing it reads back influences a scan.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is one recorded move attempt.
type Entry struct {
	ID          int64
	ScanID      string
	Source      string
	Destination string
	FinalName   string
	Category    string
	SizeBytes   int64
	Success     bool
	Error       string
	MovedAt     time.Time
}

// Counts summarises the journal.
type Counts struct {
	Total     int
	Succeeded int
	Failed    int
	Scans     int
	Bytes     int64
}

// Journal manages the move journal database.
type Journal struct {
	db     *sql.DB
	dbPath string
}

// Open creates or opens the journal at dbPath and applies pending migrations.
// ":memory:" opens a private in-memory journal.
func Open(dbPath string) (*Journal, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// each connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	j := &Journal{db: db, dbPath: dbPath}
	if err := j.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return j, nil
}

// execWithRetry executes a statement with exponential backoff on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.dbPath
}

// Close closes the database connection
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Record appends a move attempt and returns its row id.
func (j *Journal) Record(ctx context.Context, e Entry) (int64, error) {
	movedAt := e.MovedAt
	if movedAt.IsZero() {
		movedAt = time.Now()
	}

	query := `INSERT INTO moves
		(scan_id, source, destination, final_name, category, size_bytes, success, error, moved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := j.db.ExecContext(ctx, query,
		e.ScanID,
		e.Source,
		e.Destination,
		nullString(e.FinalName),
		e.Category,
		e.SizeBytes,
		e.Success,
		nullString(e.Error),
		movedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert move: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	return id, nil
}

// Recent returns up to limit entries, newest first. failedOnly restricts the
// result to failed moves. A limit <= 0 returns everything.
func (j *Journal) Recent(ctx context.Context, limit int, failedOnly bool) ([]*Entry, error) {
	query := `SELECT id, scan_id, source, destination, final_name, category, size_bytes, success, error, moved_at
		FROM moves`
	var args []interface{}
	if failedOnly {
		query += ` WHERE success = 0`
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query moves: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		var finalName, errMsg sql.NullString
		var size sql.NullInt64
		if err := rows.Scan(
			&e.ID,
			&e.ScanID,
			&e.Source,
			&e.Destination,
			&finalName,
			&e.Category,
			&size,
			&e.Success,
			&errMsg,
			&e.MovedAt,
		); err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		e.FinalName = finalName.String
		e.Error = errMsg.String
		e.SizeBytes = size.Int64
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate moves: %w", err)
	}
	return entries, nil
}

// Counts returns totals across the whole journal.
func (j *Journal) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	query := `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0),
		COUNT(DISTINCT scan_id),
		COALESCE(SUM(CASE WHEN success THEN size_bytes ELSE 0 END), 0)
		FROM moves`
	if err := j.db.QueryRowContext(ctx, query).Scan(&c.Total, &c.Succeeded, &c.Scans, &c.Bytes); err != nil {
		return Counts{}, fmt.Errorf("query counts: %w", err)
	}
	c.Failed = c.Total - c.Succeeded
	return c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
