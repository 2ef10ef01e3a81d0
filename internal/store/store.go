// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package store persists the state burrow owns: the registry of managed
// pools, the disk inventory, replication tasks and periodic snapshot tasks.
// Everything else is read live from ZFS.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"github.com/stratastor/burrow/internal/common"
	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/logger"
)

// Store wraps the SQLite database. *sql.DB is safe for concurrent use, so a
// single Store is shared by all handlers.
type Store struct {
	db *sql.DB
	l  logger.Logger
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS volumes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS disks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		serial TEXT NOT NULL DEFAULT '',
		identifier TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		size INTEGER NOT NULL DEFAULT 0,
		enabled INTEGER NOT NULL DEFAULT 1,
		multipath_name TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE INDEX IF NOT EXISTS idx_disks_name ON disks(name);`,
	`CREATE INDEX IF NOT EXISTS idx_disks_multipath_name ON disks(multipath_name);`,
	`CREATE TABLE IF NOT EXISTS replication_tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dataset TEXT NOT NULL,
		remote_host TEXT NOT NULL,
		remote_port INTEGER NOT NULL DEFAULT 22,
		remote_dataset TEXT NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 1
	);`,
	`CREATE TABLE IF NOT EXISTS snapshot_tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dataset TEXT NOT NULL,
		recursive INTEGER NOT NULL DEFAULT 0,
		interval_minutes INTEGER NOT NULL,
		begin_time TEXT NOT NULL DEFAULT '00:00',
		end_time TEXT NOT NULL DEFAULT '23:59',
		weekdays TEXT NOT NULL DEFAULT '1,2,3,4,5,6,7',
		ret_count INTEGER NOT NULL,
		ret_unit TEXT NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 1,
		last_run_at DATETIME,
		last_status TEXT NOT NULL DEFAULT '',
		last_error TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE INDEX IF NOT EXISTS idx_snapshot_tasks_dataset ON snapshot_tasks(dataset);`,
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(ctx context.Context, path string, l logger.Logger) (*Store, error) {
	path, err := common.ResolvePath(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.StoreOpen)
	}
	if err := common.EnsureParentDir(path, 0755); err != nil {
		return nil, errors.Wrap(err, errors.StoreOpen).WithMetadata("path", path)
	}

	// WAL lets readers proceed while a writer holds the lock.
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=15000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.StoreOpen).WithMetadata("path", path)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.StoreOpen).WithMetadata("path", path)
	}

	s := &Store{db: db, l: l}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	l.Debug("Store opened", "path", path)
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, errors.StoreMigration)
		}
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
