// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package rtdbemu

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// sqliteStore persists the emulator's tree to a single-row SQLite
// database so local state survives emulator restarts. The whole tree
// is written per mutation — emulator data sets are a handful of
// breakpoints and debuggees, so simplicity wins over deltas.
type sqliteStore struct {
	db *sql.DB
}

const sqliteSchema = `
PRAGMA journal_mode = WAL;
PRAGMA busy_timeout = 10000;
PRAGMA synchronous = NORMAL;
CREATE TABLE IF NOT EXISTS database_tree (
	id   INTEGER PRIMARY KEY CHECK (id = 1),
	tree TEXT NOT NULL
);
`

func openSQLiteStore(path string) (*sqliteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("rtdbemu: opening %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("rtdbemu: initializing %s: %w", path, err)
	}
	return &sqliteStore{db: db}, nil
}

// load returns the persisted tree, or nil when the database is fresh.
func (s *sqliteStore) load() ([]byte, error) {
	var serialized string
	err := s.db.QueryRow(`SELECT tree FROM database_tree WHERE id = 1`).Scan(&serialized)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("rtdbemu: loading persisted tree: %w", err)
	}
	return []byte(serialized), nil
}

// save writes the serialized tree.
func (s *sqliteStore) save(serialized []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO database_tree (id, tree) VALUES (1, ?)
		 ON CONFLICT (id) DO UPDATE SET tree = excluded.tree`,
		string(serialized))
	if err != nil {
		return fmt.Errorf("rtdbemu: saving tree: %w", err)
	}
	return nil
}

func (s *sqliteStore) Close() error { return s.db.Close() }
