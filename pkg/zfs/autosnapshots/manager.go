// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package autosnapshots runs periodic snapshot tasks: each enabled task
// snapshots its dataset on a fixed interval inside a daily time window and
// prunes the automatic snapshots whose retention has passed.
package autosnapshots

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/stratastor/burrow/internal/store"
	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/burrow/pkg/zfs/snapshot"
	"github.com/stratastor/logger"
)

const (
	schedulerJobNameFmt = "snapshot-task-%d"
	defaultRunTimeout   = 5 * time.Minute
)

// TaskStore persists periodic snapshot tasks.
type TaskStore interface {
	ListSnapshotTasks(ctx context.Context) ([]store.SnapshotTask, error)
	SnapshotTasksFor(ctx context.Context, fs string) ([]store.SnapshotTask, error)
	GetSnapshotTask(ctx context.Context, id int64) (store.SnapshotTask, error)
	CreateSnapshotTask(ctx context.Context, t store.SnapshotTask) (store.SnapshotTask, error)
	UpdateSnapshotTask(ctx context.Context, t store.SnapshotTask) (store.SnapshotTask, error)
	DeleteSnapshotTask(ctx context.Context, id int64) error
	RecordSnapshotTaskRun(ctx context.Context, id int64, at time.Time, runErr string) error
}

// Snapshotter creates, lists and destroys snapshots.
type Snapshotter interface {
	Create(ctx context.Context, req snapshot.CreateRequest) (snapshot.Record, error)
	Locals(ctx context.Context, path string) ([]snapshot.Local, error)
	Destroy(ctx context.Context, fullname string) error
}

// RunResult describes one task run.
type RunResult struct {
	TaskID   int64    `json:"task_id"`
	Snapshot string   `json:"snapshot,omitempty"`
	Skipped  string   `json:"skipped,omitempty"`
	Pruned   []string `json:"pruned"`
}

// Manager keeps one gocron job per enabled task in step with the store.
type Manager struct {
	store   TaskStore
	snaps   Snapshotter
	logger  logger.Logger
	timeout time.Duration
	now     func() time.Time

	mu        sync.Mutex
	scheduler gocron.Scheduler

	// runMu serializes runs so a manual run never races the scheduler.
	runMu sync.Mutex
}

func NewManager(st TaskStore, snaps Snapshotter, l logger.Logger) *Manager {
	return &Manager{
		store:   st,
		snaps:   snaps,
		logger:  l,
		timeout: defaultRunTimeout,
		now:     time.Now,
	}
}

func jobTag(id int64) string {
	return fmt.Sprintf(schedulerJobNameFmt, id)
}

func (m *Manager) List(ctx context.Context) ([]store.SnapshotTask, error) {
	return m.store.ListSnapshotTasks(ctx)
}

// Covering returns the tasks that snapshot filesystem fs, including
// recursive tasks on its ancestors.
func (m *Manager) Covering(ctx context.Context, fs string) ([]store.SnapshotTask, error) {
	return m.store.SnapshotTasksFor(ctx, fs)
}

func (m *Manager) Get(ctx context.Context, id int64) (store.SnapshotTask, error) {
	return m.store.GetSnapshotTask(ctx, id)
}

// Create validates and stores t and schedules it when enabled.
func (m *Manager) Create(ctx context.Context, t store.SnapshotTask) (store.SnapshotTask, error) {
	if err := Normalize(&t); err != nil {
		return store.SnapshotTask{}, err
	}
	created, err := m.store.CreateSnapshotTask(ctx, t)
	if err != nil {
		return store.SnapshotTask{}, err
	}
	if err := m.schedule(created); err != nil {
		return created, err
	}
	m.logger.Info("Snapshot task created",
		"id", created.ID, "dataset", created.Dataset, "interval", created.Interval)
	return created, nil
}

// Update replaces the schedule of task t.ID and reschedules it.
func (m *Manager) Update(ctx context.Context, t store.SnapshotTask) (store.SnapshotTask, error) {
	if err := Normalize(&t); err != nil {
		return store.SnapshotTask{}, err
	}
	updated, err := m.store.UpdateSnapshotTask(ctx, t)
	if err != nil {
		return store.SnapshotTask{}, err
	}
	if err := m.schedule(updated); err != nil {
		return updated, err
	}
	m.logger.Info("Snapshot task updated", "id", updated.ID, "enabled", updated.Enabled)
	return updated, nil
}

// Delete removes the task and its job. Snapshots it took are kept.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	if err := m.store.DeleteSnapshotTask(ctx, id); err != nil {
		return err
	}
	m.unschedule(id)
	m.logger.Info("Snapshot task deleted", "id", id)
	return nil
}

// Run runs task id now, ignoring its time window.
func (m *Manager) Run(ctx context.Context, id int64) (RunResult, error) {
	t, err := m.store.GetSnapshotTask(ctx, id)
	if err != nil {
		return RunResult{}, err
	}
	return m.run(ctx, t)
}

// Start loads every task and schedules the enabled ones.
func (m *Manager) Start(ctx context.Context) error {
	tasks, err := m.store.ListSnapshotTasks(ctx)
	if err != nil {
		return err
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return errors.Wrap(err, errors.SnapshotTaskFailed)
	}

	m.mu.Lock()
	m.scheduler = scheduler
	m.mu.Unlock()

	for _, t := range tasks {
		if err := m.schedule(t); err != nil {
			_ = m.Stop()
			return err
		}
	}

	scheduler.Start()
	m.logger.Info("Periodic snapshot tasks started", "tasks", len(tasks))
	return nil
}

// Stop shuts the scheduler down. It is safe to call when Start was never
// called.
func (m *Manager) Stop() error {
	m.mu.Lock()
	scheduler := m.scheduler
	m.scheduler = nil
	m.mu.Unlock()

	if scheduler == nil {
		return nil
	}
	if err := scheduler.Shutdown(); err != nil {
		return errors.Wrap(err, errors.SnapshotTaskFailed)
	}
	return nil
}

// Scheduled returns the tags of the jobs currently scheduled.
func (m *Manager) Scheduled() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scheduler == nil {
		return nil
	}

	var out []string
	for _, j := range m.scheduler.Jobs() {
		out = append(out, j.Name())
	}
	return out
}

// schedule replaces the job of t. Disabled tasks end up without a job.
func (m *Manager) schedule(t store.SnapshotTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scheduler == nil {
		return nil
	}

	tag := jobTag(t.ID)
	m.scheduler.RemoveByTags(tag)
	if !t.Enabled {
		return nil
	}

	id := t.ID
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(time.Duration(t.Interval)*time.Minute),
		gocron.NewTask(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
			defer cancel()
			return m.runScheduled(ctx, id)
		}),
		gocron.WithName(tag),
		gocron.WithTags(tag, t.Dataset),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithEventListeners(
			gocron.AfterJobRunsWithError(func(jobID uuid.UUID, name string, err error) {
				m.logger.Error("Snapshot task job failed",
					"job_id", jobID.String(), "job_name", name, "error", err)
			}),
		),
	)
	if err != nil {
		return errors.Wrap(err, errors.SnapshotTaskFailed).WithMetadata("task", tag)
	}
	m.logger.Debug("Snapshot task scheduled", "id", id, "interval", t.Interval)
	return nil
}

func (m *Manager) unschedule(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scheduler != nil {
		m.scheduler.RemoveByTags(jobTag(id))
	}
}

// runScheduled runs task id when the current time is inside its window.
// The task is re-read so edits apply to the next run.
func (m *Manager) runScheduled(ctx context.Context, id int64) error {
	t, err := m.store.GetSnapshotTask(ctx, id)
	if err != nil {
		if errors.Is(err, errors.SnapshotTaskNotFound) {
			m.unschedule(id)
			return nil
		}
		return err
	}
	if !t.Enabled {
		return nil
	}
	if !InWindow(t, m.now()) {
		m.logger.Debug("Snapshot task outside its window", "id", id)
		return nil
	}
	_, err = m.run(ctx, t)
	return err
}

func (m *Manager) run(ctx context.Context, t store.SnapshotTask) (RunResult, error) {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	now := m.now()
	res := RunResult{TaskID: t.ID, Pruned: []string{}}
	name := SnapshotName(t, now)

	rec, err := m.snaps.Create(ctx, snapshot.CreateRequest{
		Dataset:   t.Dataset,
		Name:      name,
		Recursive: t.Recursive,
	})
	switch {
	case err != nil && strings.Contains(err.Error(), "already exists"):
		res.Skipped = "snapshot " + t.Dataset + "@" + name + " already exists"
	case err != nil:
		m.record(ctx, t.ID, now, err)
		m.logger.Error("Periodic snapshot failed", "id", t.ID, "dataset", t.Dataset, "error", err)
		return res, err
	default:
		res.Snapshot = rec.Fullname
	}

	pruned, err := m.prune(ctx, t, now)
	res.Pruned = pruned
	m.record(ctx, t.ID, now, err)
	if err != nil {
		return res, err
	}

	m.logger.Info("Periodic snapshot taken",
		"id", t.ID, "snapshot", res.Snapshot, "pruned", len(pruned))
	return res, nil
}

// prune destroys the automatic snapshots of t that expired by now. Only
// names carrying t's retention suffix are considered. Failing destroys are
// logged and skipped.
func (m *Manager) prune(ctx context.Context, t store.SnapshotTask, now time.Time) ([]string, error) {
	path := t.Dataset
	if t.Recursive {
		path = ""
	}
	locals, err := m.snaps.Locals(ctx, path)
	if err != nil {
		return []string{}, err
	}

	suffix := retentionSuffix(t)
	pruned := []string{}
	for _, l := range locals {
		if !t.Covers(l.Filesystem) || !strings.HasSuffix(l.Name, suffix) {
			continue
		}
		expiry, ok := Expiry(l.Name, now.Location())
		if !ok || expiry.After(now) {
			continue
		}
		if err := m.snaps.Destroy(ctx, l.Fullname()); err != nil {
			m.logger.Warn("Failed to prune snapshot", "snapshot", l.Fullname(), "error", err)
			continue
		}
		pruned = append(pruned, l.Fullname())
	}
	return pruned, nil
}

func (m *Manager) record(ctx context.Context, id int64, at time.Time, runErr error) {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	if err := m.store.RecordSnapshotTaskRun(ctx, id, at, msg); err != nil {
		m.logger.Warn("Failed to record snapshot task run", "id", id, "error", err)
	}
}
