// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/stratastor/burrow/pkg/errors"
)

// ReplicationTask pushes Dataset to RemoteDataset on RemoteHost:RemotePort.
type ReplicationTask struct {
	ID            int64  `json:"id"`
	Dataset       string `json:"dataset"`
	RemoteHost    string `json:"remote_host"`
	RemotePort    int    `json:"remote_port"`
	RemoteDataset string `json:"remote_dataset"`
	Enabled       bool   `json:"enabled"`
}

const taskColumns = `id, dataset, remote_host, remote_port, remote_dataset, enabled`

func scanTask(scan func(dest ...any) error) (ReplicationTask, error) {
	var t ReplicationTask
	var enabled int
	if err := scan(&t.ID, &t.Dataset, &t.RemoteHost, &t.RemotePort, &t.RemoteDataset, &enabled); err != nil {
		return ReplicationTask{}, err
	}
	t.Enabled = enabled != 0
	return t, nil
}

// ListReplicationTasks returns all tasks ordered by ID.
func (s *Store) ListReplicationTasks(ctx context.Context) ([]ReplicationTask, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM replication_tasks ORDER BY id;`)
	if err != nil {
		return nil, errors.Wrap(err, errors.StoreQuery)
	}
	defer rows.Close()

	tasks := []ReplicationTask{}
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, errors.Wrap(err, errors.StoreQuery)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.StoreQuery)
	}
	return tasks, nil
}

func (s *Store) GetReplicationTask(ctx context.Context, id int64) (ReplicationTask, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM replication_tasks WHERE id = ?;`, id)
	t, err := scanTask(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return ReplicationTask{}, errors.New(errors.ReplicationTaskNotFound, "task "+strconv.FormatInt(id, 10))
		}
		return ReplicationTask{}, errors.Wrap(err, errors.StoreQuery)
	}
	return t, nil
}

func (s *Store) CreateReplicationTask(ctx context.Context, t ReplicationTask) (ReplicationTask, error) {
	if t.Dataset == "" || t.RemoteHost == "" || t.RemoteDataset == "" {
		return ReplicationTask{}, errors.New(errors.ReplicationInvalidTask,
			"dataset, remote_host and remote_dataset are required")
	}
	if t.RemotePort == 0 {
		t.RemotePort = 22
	}
	if t.RemotePort < 0 || t.RemotePort > 65535 {
		return ReplicationTask{}, errors.New(errors.ReplicationInvalidTask,
			"remote_port out of range: "+strconv.Itoa(t.RemotePort))
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO replication_tasks (dataset, remote_host, remote_port, remote_dataset, enabled)
		VALUES (?, ?, ?, ?, ?);`,
		t.Dataset, t.RemoteHost, t.RemotePort, t.RemoteDataset, boolToInt(t.Enabled))
	if err != nil {
		return ReplicationTask{}, errors.Wrap(err, errors.StoreQuery)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return ReplicationTask{}, errors.Wrap(err, errors.StoreQuery)
	}
	return t, nil
}

func (s *Store) DeleteReplicationTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM replication_tasks WHERE id = ?;`, id)
	if err != nil {
		return errors.Wrap(err, errors.StoreQuery)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.ReplicationTaskNotFound, "task "+strconv.FormatInt(id, 10))
	}
	return nil
}
