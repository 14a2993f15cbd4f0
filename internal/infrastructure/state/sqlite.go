package state

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"SubredditStats/internal/domain"
	"SubredditStats/internal/ports"
)

// Schema for the SQLite state backend. Call SQLiteStore.Init() or apply
// manually.
const Schema = `
CREATE TABLE IF NOT EXISTS dispositions (
	name TEXT PRIMARY KEY,
	disposition TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS collection_meta (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	blocked_at INTEGER NOT NULL
);
`

// SQLiteStore keeps the snapshot in a SQLite database. Save replaces the
// whole snapshot inside one transaction, so readers see either the old or
// the new state, never a mix.
type SQLiteStore struct {
	db *sql.DB
}

var _ ports.StateStore = (*SQLiteStore)(nil)

// OpenSQLiteStore opens (creating if needed) the database at path and
// ensures the schema exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state db %s: %w", path, err)
	}

	s := &SQLiteStore{db: db}
	if err := s.Init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Init creates the state tables if they don't exist.
func (s *SQLiteStore) Init() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("init state schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the snapshot; an empty database is an empty state.
func (s *SQLiteStore) Load() (*domain.CollectionState, error) {
	rows, err := s.db.Query(`SELECT name, disposition FROM dispositions`)
	if err != nil {
		return nil, fmt.Errorf("query dispositions: %w", err)
	}
	defer rows.Close()

	var sn domain.Snapshot
	for rows.Next() {
		var name, disposition string
		if err := rows.Scan(&name, &disposition); err != nil {
			return nil, fmt.Errorf("scan disposition: %w", err)
		}
		switch domain.Disposition(disposition) {
		case domain.DispositionFetched:
			sn.Fetched = append(sn.Fetched, name)
		case domain.DispositionFailed:
			sn.PermanentlyFailed = append(sn.PermanentlyFailed, name)
		case domain.DispositionBlocked:
			sn.Blocked = append(sn.Blocked, name)
		default:
			return nil, fmt.Errorf("unknown disposition %q for %s", disposition, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dispositions: %w", err)
	}

	var blockedAt int64
	err = s.db.QueryRow(`SELECT blocked_at FROM collection_meta WHERE id = 1`).Scan(&blockedAt)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, fmt.Errorf("query blocked_at: %w", err)
	default:
		at := time.Unix(blockedAt, 0).UTC()
		sn.BlockedAt = &at
	}

	st, err := domain.FromSnapshot(sn)
	if err != nil {
		return nil, fmt.Errorf("state db: %w", err)
	}
	return st, nil
}

// Save replaces the stored snapshot in one transaction.
func (s *SQLiteStore) Save(state *domain.CollectionState) error {
	sn := state.Snapshot()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM dispositions`); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear dispositions: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM collection_meta`); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear meta: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO dispositions (name, disposition) VALUES (?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	insert := func(names []string, d domain.Disposition) error {
		for _, name := range names {
			if _, err := stmt.Exec(name, string(d)); err != nil {
				return fmt.Errorf("insert %s disposition: %w", d, err)
			}
		}
		return nil
	}

	if err := insert(sn.Fetched, domain.DispositionFetched); err != nil {
		tx.Rollback()
		return err
	}
	if err := insert(sn.PermanentlyFailed, domain.DispositionFailed); err != nil {
		tx.Rollback()
		return err
	}
	if err := insert(sn.Blocked, domain.DispositionBlocked); err != nil {
		tx.Rollback()
		return err
	}

	if sn.BlockedAt != nil {
		if _, err := tx.Exec(`INSERT INTO collection_meta (id, blocked_at) VALUES (1, ?)`, sn.BlockedAt.Unix()); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert blocked_at: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}
