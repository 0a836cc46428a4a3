// Package ledger persists the append-only set of committed post
// identifiers used for cross-cycle deduplication.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS collected_posts (
	post_id      TEXT PRIMARY KEY,
	committed_at TIMESTAMP NOT NULL
);
`

// SQLiteLedger stores committed ids in an embedded sqlite database.
// Membership is append-only: ids are inserted, never deleted or updated.
type SQLiteLedger struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the ledger database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	// The coordinator is the single writer; one connection avoids
	// SQLITE_BUSY without a busy-timeout dance.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping ledger db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}
	return &SQLiteLedger{db: db}, nil
}

// Contains reports whether id has been committed in any prior cycle.
func (l *SQLiteLedger) Contains(ctx context.Context, id string) (bool, error) {
	var one int
	err := l.db.QueryRowContext(ctx,
		`SELECT 1 FROM collected_posts WHERE post_id = ?`, id,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query ledger: %w", err)
	}
	return true, nil
}

// Add appends id to the ledger. Re-adding an existing id is a no-op so
// the operation stays idempotent across crash-retry windows.
func (l *SQLiteLedger) Add(ctx context.Context, id string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO collected_posts (post_id, committed_at) VALUES (?, ?)
		 ON CONFLICT (post_id) DO NOTHING`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert ledger id %s: %w", id, err)
	}
	return nil
}

// Count returns how many ids the ledger holds.
func (l *SQLiteLedger) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM collected_posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ledger: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}
