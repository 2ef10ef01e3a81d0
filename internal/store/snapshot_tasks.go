// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/stratastor/burrow/pkg/errors"
)

// SnapshotTask snapshots Dataset every Interval minutes between Begin and
// End on Weekdays and keeps each snapshot for RetCount RetUnits.
type SnapshotTask struct {
	ID        int64  `json:"id"`
	Dataset   string `json:"dataset"`
	Recursive bool   `json:"recursive"`
	Interval  int    `json:"interval"`
	Begin     string `json:"begin"`
	End       string `json:"end"`
	Weekdays  []int  `json:"weekdays"` // 1 is Monday, 7 is Sunday
	RetCount  int    `json:"ret_count"`
	RetUnit   string `json:"ret_unit"`
	Enabled   bool   `json:"enabled"`

	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	LastStatus string     `json:"last_status,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
}

// Covers reports whether the task snapshots filesystem fs.
func (t SnapshotTask) Covers(fs string) bool {
	if fs == t.Dataset {
		return true
	}
	return t.Recursive && strings.HasPrefix(fs, t.Dataset+"/")
}

const snapTaskColumns = `id, dataset, recursive, interval_minutes, begin_time, end_time, weekdays,
	ret_count, ret_unit, enabled, last_run_at, last_status, last_error`

func scanSnapshotTask(scan func(dest ...any) error) (SnapshotTask, error) {
	var (
		t                  SnapshotTask
		recursive, enabled int
		weekdays           string
		lastRun            sql.NullTime
	)
	if err := scan(&t.ID, &t.Dataset, &recursive, &t.Interval, &t.Begin, &t.End, &weekdays,
		&t.RetCount, &t.RetUnit, &enabled, &lastRun, &t.LastStatus, &t.LastError); err != nil {
		return SnapshotTask{}, err
	}
	t.Recursive = recursive != 0
	t.Enabled = enabled != 0
	t.Weekdays = decodeWeekdays(weekdays)
	if lastRun.Valid {
		at := lastRun.Time
		t.LastRunAt = &at
	}
	return t, nil
}

func encodeWeekdays(days []int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func decodeWeekdays(raw string) []int {
	days := []int{}
	for _, p := range strings.Split(raw, ",") {
		if d, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			days = append(days, d)
		}
	}
	return days
}

func (s *Store) querySnapshotTasks(ctx context.Context, query string, args ...any) ([]SnapshotTask, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.StoreQuery)
	}
	defer rows.Close()

	tasks := []SnapshotTask{}
	for rows.Next() {
		t, err := scanSnapshotTask(rows.Scan)
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

// ListSnapshotTasks returns all tasks ordered by ID.
func (s *Store) ListSnapshotTasks(ctx context.Context) ([]SnapshotTask, error) {
	return s.querySnapshotTasks(ctx, `SELECT `+snapTaskColumns+` FROM snapshot_tasks ORDER BY id;`)
}

// SnapshotTasksFor returns the tasks covering filesystem fs: tasks on fs
// itself and recursive tasks on any of its ancestors.
func (s *Store) SnapshotTasksFor(ctx context.Context, fs string) ([]SnapshotTask, error) {
	return s.querySnapshotTasks(ctx,
		`SELECT `+snapTaskColumns+` FROM snapshot_tasks
		WHERE dataset = ? OR (recursive = 1 AND substr(?, 1, length(dataset) + 1) = dataset || '/')
		ORDER BY id;`, fs, fs)
}

func (s *Store) GetSnapshotTask(ctx context.Context, id int64) (SnapshotTask, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+snapTaskColumns+` FROM snapshot_tasks WHERE id = ?;`, id)
	t, err := scanSnapshotTask(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return SnapshotTask{}, errors.New(errors.SnapshotTaskNotFound, "task "+strconv.FormatInt(id, 10))
		}
		return SnapshotTask{}, errors.Wrap(err, errors.StoreQuery)
	}
	return t, nil
}

func (s *Store) CreateSnapshotTask(ctx context.Context, t SnapshotTask) (SnapshotTask, error) {
	if t.Dataset == "" || t.Interval <= 0 || t.RetCount <= 0 || t.RetUnit == "" {
		return SnapshotTask{}, errors.New(errors.SnapshotTaskInvalid,
			"dataset, interval, ret_count and ret_unit are required")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshot_tasks (dataset, recursive, interval_minutes, begin_time, end_time,
			weekdays, ret_count, ret_unit, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		t.Dataset, boolToInt(t.Recursive), t.Interval, t.Begin, t.End,
		encodeWeekdays(t.Weekdays), t.RetCount, t.RetUnit, boolToInt(t.Enabled))
	if err != nil {
		return SnapshotTask{}, errors.Wrap(err, errors.StoreQuery)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return SnapshotTask{}, errors.Wrap(err, errors.StoreQuery)
	}
	return t, nil
}

// UpdateSnapshotTask replaces the schedule of task t.ID. Run history is
// kept.
func (s *Store) UpdateSnapshotTask(ctx context.Context, t SnapshotTask) (SnapshotTask, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE snapshot_tasks SET dataset = ?, recursive = ?, interval_minutes = ?, begin_time = ?,
			end_time = ?, weekdays = ?, ret_count = ?, ret_unit = ?, enabled = ?
		WHERE id = ?;`,
		t.Dataset, boolToInt(t.Recursive), t.Interval, t.Begin, t.End,
		encodeWeekdays(t.Weekdays), t.RetCount, t.RetUnit, boolToInt(t.Enabled), t.ID)
	if err != nil {
		return SnapshotTask{}, errors.Wrap(err, errors.StoreQuery)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return SnapshotTask{}, errors.New(errors.SnapshotTaskNotFound, "task "+strconv.FormatInt(t.ID, 10))
	}
	return s.GetSnapshotTask(ctx, t.ID)
}

// RecordSnapshotTaskRun stores the outcome of one run. An empty runErr
// marks the run successful.
func (s *Store) RecordSnapshotTaskRun(ctx context.Context, id int64, at time.Time, runErr string) error {
	status := "success"
	if runErr != "" {
		status = "error"
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE snapshot_tasks SET last_run_at = ?, last_status = ?, last_error = ? WHERE id = ?;`,
		at.UTC(), status, runErr, id)
	if err != nil {
		return errors.Wrap(err, errors.StoreQuery)
	}
	return nil
}

func (s *Store) DeleteSnapshotTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshot_tasks WHERE id = ?;`, id)
	if err != nil {
		return errors.Wrap(err, errors.StoreQuery)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.SnapshotTaskNotFound, "task "+strconv.FormatInt(id, 10))
	}
	return nil
}
