package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the ledger in a single-table SQLite database. Useful
// when the deployment already ships other SQLite state or the ledger grows
// past what a flat JSON file handles comfortably.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path. Accepts a plain
// path, "sqlite://path" or ":memory:".
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite ledger requires a path")
	}
	if strings.HasPrefix(strings.ToLower(path), "sqlite://") {
		path = path[len("sqlite://"):]
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite ledger: %w", err)
	}
	// SQLite works best with a single writer connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	stmt := `CREATE TABLE IF NOT EXISTS seen_listings(
		id TEXT PRIMARY KEY,
		first_seen TIMESTAMP NOT NULL DEFAULT (CURRENT_TIMESTAMP)
	);`
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

func (s *SQLiteStore) Load(ctx context.Context) (Set, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM seen_listings`)
	if err != nil {
		return nil, fmt.Errorf("load sqlite ledger: %w", err)
	}
	defer func() { _ = rows.Close() }()

	set := NewSet()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		set.Add(id)
	}
	return set, rows.Err()
}

func (s *SQLiteStore) Save(ctx context.Context, set Set) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	for _, id := range set.IDs() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO seen_listings(id) VALUES(?) ON CONFLICT(id) DO NOTHING`, id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("persist ledger id %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
