package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/PartyShepherd/alchemelody/internal/planetary"
)

const schema = `
CREATE TABLE IF NOT EXISTS locations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	latitude REAL NOT NULL,
	longitude REAL NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// SQLiteStore keeps every location ever set; the newest row is current.
type SQLiteStore struct {
	conn       *sqlx.DB
	maxHistory int
}

type locationRow struct {
	ID        int64   `db:"id"`
	Latitude  float64 `db:"latitude"`
	Longitude float64 `db:"longitude"`
	UpdatedAt int64   `db:"updated_at"` // unix nanoseconds
}

func (r locationRow) entry() Entry {
	return Entry{
		ID:        r.ID,
		Location:  planetary.Location{Latitude: r.Latitude, Longitude: r.Longitude},
		UpdatedAt: time.Unix(0, r.UpdatedAt).UTC(),
	}
}

// OpenSQLite opens or creates the database at path. ":memory:" is accepted.
// If maxHistory > 0 older rows are pruned on every Set.
func OpenSQLite(path string, maxHistory int) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer; also keeps a ":memory:" database alive across calls.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{conn: conn, maxHistory: maxHistory}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// Set inserts loc as the current location.
func (s *SQLiteStore) Set(ctx context.Context, loc planetary.Location) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO locations (latitude, longitude, updated_at) VALUES (?, ?, ?)`,
		loc.Latitude, loc.Longitude, time.Now().UnixNano(),
	); err != nil {
		return fmt.Errorf("insert location: %w", err)
	}

	if s.maxHistory > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM locations WHERE id NOT IN (SELECT id FROM locations ORDER BY id DESC LIMIT ?)`,
			s.maxHistory,
		); err != nil {
			return fmt.Errorf("prune locations: %w", err)
		}
	}
	return tx.Commit()
}

// Get returns the most recently stored location.
func (s *SQLiteStore) Get(ctx context.Context) (planetary.Location, error) {
	var row locationRow
	err := s.conn.GetContext(ctx, &row,
		`SELECT id, latitude, longitude, updated_at FROM locations ORDER BY id DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return planetary.Location{}, ErrNotFound
	}
	if err != nil {
		return planetary.Location{}, fmt.Errorf("get location: %w", err)
	}
	return row.entry().Location, nil
}

// History returns up to limit entries, newest first. limit <= 0 returns all.
func (s *SQLiteStore) History(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	var rows []locationRow
	if err := s.conn.SelectContext(ctx, &rows,
		`SELECT id, latitude, longitude, updated_at FROM locations ORDER BY id DESC LIMIT ?`, limit,
	); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entry())
	}
	return out, nil
}
