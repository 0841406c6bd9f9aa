// Package store persists node records in SQLite and is the only writer of
// parent, order and collapsed values. Every mutation reads the current
// snapshot inside a transaction, plans the change with the tree package and
// commits the whole plan at once.
package store

import (
	"context"
	"database/sql"
	"sync"

	"go.trai.ch/zerr"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/nodetree/pkg/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id TEXT PRIMARY KEY,
	parent_id TEXT,
	type TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	sort_order REAL NOT NULL DEFAULT 0,
	collapsed INTEGER
);
CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id, sort_order);
`

// Store is a SQLite-backed node store. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex // serializes mutations
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "open sqlite"), "path", path)
	}
	// One connection: pragmas apply to it alone and writers never race.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, zerr.With(zerr.Wrap(err, "configure sqlite"), "pragma", pragma)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, zerr.With(zerr.Wrap(err, "create schema"), "path", path)
	}
	return &Store{db: db, path: path}, nil
}

// OpenMemory opens a private in-memory store.
func OpenMemory() (*Store, error) {
	return Open(":memory:")
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Snapshot returns every record currently stored.
func (s *Store) Snapshot(ctx context.Context) ([]model.NodeRecord, error) {
	return readSnapshot(ctx, s.db)
}

func readSnapshot(ctx context.Context, q queryer) ([]model.NodeRecord, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, parent_id, type, title, sort_order, collapsed FROM nodes ORDER BY id`)
	if err != nil {
		return nil, zerr.Wrap(err, "query snapshot")
	}
	defer rows.Close()

	nodes := []model.NodeRecord{}
	for rows.Next() {
		var (
			n         model.NodeRecord
			parentID  sql.NullString
			collapsed sql.NullBool
		)
		if err := rows.Scan(&n.ID, &parentID, &n.Type, &n.Title, &n.Order, &collapsed); err != nil {
			return nil, zerr.Wrap(err, "scan node")
		}
		n.ParentID = parentID.String
		if collapsed.Valid {
			n.Collapsed = model.BoolPtr(collapsed.Bool)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, zerr.Wrap(err, "read snapshot")
	}
	return nodes, nil
}

// withTx runs fn inside a transaction holding the write lock.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zerr.Wrap(err, "begin transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return zerr.Wrap(err, "commit transaction")
	}
	return nil
}

func insertRecord(ctx context.Context, q queryer, n model.NodeRecord) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO nodes (id, parent_id, type, title, sort_order, collapsed) VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, nullString(n.ParentID), string(n.Type), n.Title, n.Order, nullBool(n.Collapsed))
	if err != nil {
		return zerr.With(zerr.Wrap(err, "insert node"), "node_id", n.ID)
	}
	return nil
}

func setOrder(ctx context.Context, q queryer, id string, order float64) error {
	_, err := q.ExecContext(ctx, `UPDATE nodes SET sort_order = ? WHERE id = ?`, order, id)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "update order"), "node_id", id)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
