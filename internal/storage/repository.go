// Package storage persists model snapshots to SQLite. The whole model
// state (transaction log in order, matched filter indices, revision) is
// written in one database transaction, so a snapshot on disk is always
// internally consistent.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"expenses/internal/core"

	_ "modernc.org/sqlite"
)

// Snapshot is the persisted form of the model state.
type Snapshot struct {
	Revision       int64
	SavedAt        time.Time
	Transactions   []core.Transaction
	MatchedIndices []int
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveSnapshot replaces the persisted snapshot with s.
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, s Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM matched_indices`); err != nil {
		return fmt.Errorf("clear matched indices: %w", err)
	}

	for i, t := range s.Transactions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (position, tx_date, description, amount_cents, category)
			 VALUES (?, ?, ?, ?, ?)`,
			i, t.Date.Format(time.RFC3339), t.Description, t.Amount.Cents, t.Category)
		if err != nil {
			return fmt.Errorf("insert transaction %d: %w", i, err)
		}
	}

	for ord, idx := range s.MatchedIndices {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO matched_indices (ord, tx_position) VALUES (?, ?)`, ord, idx)
		if err != nil {
			return fmt.Errorf("insert matched index %d: %w", ord, err)
		}
	}

	savedAt := s.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (id, revision, saved_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET revision = excluded.revision, saved_at = excluded.saved_at`,
		s.Revision, savedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert snapshot meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot saved to SQLite",
		"revision", s.Revision,
		"transaction_count", len(s.Transactions),
		"matched_count", len(s.MatchedIndices))

	return nil
}

// LoadSnapshot reads the persisted snapshot. An empty database yields
// a zero-revision snapshot with no transactions.
func (r *SQLiteRepository) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot

	row := r.db.QueryRowContext(ctx, `SELECT revision, saved_at FROM snapshot_meta WHERE id = 1`)
	var savedAt string
	switch err := row.Scan(&s.Revision, &savedAt); err {
	case nil:
		if ts, perr := time.Parse(time.RFC3339, savedAt); perr == nil {
			s.SavedAt = ts
		}
	case sql.ErrNoRows:
		return s, nil
	default:
		return s, fmt.Errorf("read snapshot meta: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT tx_date, description, amount_cents, category FROM transactions ORDER BY position`)
	if err != nil {
		return s, fmt.Errorf("read transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			dateStr string
			t       core.Transaction
		)
		if err := rows.Scan(&dateStr, &t.Description, &t.Amount.Cents, &t.Category); err != nil {
			return s, fmt.Errorf("scan transaction: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, dateStr)
		if err != nil {
			return s, fmt.Errorf("parse transaction date %q: %w", dateStr, err)
		}
		t.Date = core.Date{Time: ts}
		s.Transactions = append(s.Transactions, t)
	}
	if err := rows.Err(); err != nil {
		return s, fmt.Errorf("iterate transactions: %w", err)
	}

	idxRows, err := r.db.QueryContext(ctx,
		`SELECT tx_position FROM matched_indices ORDER BY ord`)
	if err != nil {
		return s, fmt.Errorf("read matched indices: %w", err)
	}
	defer idxRows.Close()

	for idxRows.Next() {
		var idx int
		if err := idxRows.Scan(&idx); err != nil {
			return s, fmt.Errorf("scan matched index: %w", err)
		}
		s.MatchedIndices = append(s.MatchedIndices, idx)
	}
	if err := idxRows.Err(); err != nil {
		return s, fmt.Errorf("iterate matched indices: %w", err)
	}

	return s, nil
}
