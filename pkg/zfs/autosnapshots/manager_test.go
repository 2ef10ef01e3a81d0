// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package autosnapshots

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stratastor/burrow/internal/store"
	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/burrow/pkg/zfs/snapshot"
	"github.com/stratastor/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSnaps keeps snapshots in memory and records create requests.
type fakeSnaps struct {
	mu         sync.Mutex
	snaps      []snapshot.Local
	created    []snapshot.CreateRequest
	failCreate error
}

func (f *fakeSnaps) Create(_ context.Context, req snapshot.CreateRequest) (snapshot.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.created = append(f.created, req)
	if f.failCreate != nil {
		return snapshot.Record{}, f.failCreate
	}
	full := req.Dataset + "@" + req.Name
	for _, s := range f.snaps {
		if s.Fullname() == full {
			return snapshot.Record{}, errors.NewCommandError("zfs snapshot", 1,
				"cannot create snapshot '"+full+"': dataset already exists")
		}
	}
	f.snaps = append(f.snaps, snapshot.Local{Filesystem: req.Dataset, Name: req.Name})
	return snapshot.Record{Filesystem: req.Dataset, Name: req.Name, Fullname: full}, nil
}

func (f *fakeSnaps) Locals(_ context.Context, path string) ([]snapshot.Local, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []snapshot.Local
	for _, s := range f.snaps {
		if path == "" || s.Filesystem == path {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSnaps) Destroy(_ context.Context, fullname string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, s := range f.snaps {
		if s.Fullname() == fullname {
			f.snaps = append(f.snaps[:i], f.snaps[i+1:]...)
			return nil
		}
	}
	return errors.New(errors.ZFSSnapshotNotFound, fullname)
}

func (f *fakeSnaps) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, s := range f.snaps {
		out = append(out, s.Fullname())
	}
	return out
}

var fridayNoon = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T, snaps *fakeSnaps) (*Manager, *store.Store) {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "autosnapshots-test")
	require.NoError(t, err)

	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "burrow.db"), l)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	m := NewManager(st, snaps, l)
	m.now = func() time.Time { return fridayNoon }
	t.Cleanup(func() { _ = m.Stop() })
	return m, st
}

func TestRunSnapshotsAndPrunes(t *testing.T) {
	ctx := context.Background()
	snaps := &fakeSnaps{snaps: []snapshot.Local{
		{Filesystem: "tank/data", Name: "auto-20261001.1200-2w"},       // expired
		{Filesystem: "tank/data/child", Name: "auto-20261001.1200-2w"}, // expired, covered recursively
		{Filesystem: "tank/data", Name: "auto-20261010.1200-2w"},       // kept until 10-24
		{Filesystem: "tank/data", Name: "auto-20261001.1200-1d"},       // another task's retention
		{Filesystem: "tank/other", Name: "auto-20261001.1200-2w"},      // not covered
		{Filesystem: "tank/data", Name: "manual"},
	}}
	m, _ := newTestManager(t, snaps)

	task, err := m.Create(ctx, store.SnapshotTask{
		Dataset: "tank/data", Recursive: true, Interval: 60, RetCount: 2, RetUnit: "week", Enabled: true,
	})
	require.NoError(t, err)

	res, err := m.Run(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, res.TaskID)
	assert.Equal(t, "tank/data@auto-20261016.1200-2w", res.Snapshot)
	assert.Empty(t, res.Skipped)
	assert.ElementsMatch(t, []string{
		"tank/data@auto-20261001.1200-2w",
		"tank/data/child@auto-20261001.1200-2w",
	}, res.Pruned)

	require.Len(t, snaps.created, 1)
	assert.Equal(t, snapshot.CreateRequest{
		Dataset: "tank/data", Name: "auto-20261016.1200-2w", Recursive: true,
	}, snaps.created[0])

	assert.ElementsMatch(t, []string{
		"tank/data@auto-20261010.1200-2w",
		"tank/data@auto-20261001.1200-1d",
		"tank/other@auto-20261001.1200-2w",
		"tank/data@manual",
		"tank/data@auto-20261016.1200-2w",
	}, snaps.names())

	got, err := m.Get(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastRunAt)
	assert.True(t, fridayNoon.Equal(*got.LastRunAt))
	assert.Equal(t, "success", got.LastStatus)
}

func TestRunNonRecursiveLeavesChildren(t *testing.T) {
	ctx := context.Background()
	snaps := &fakeSnaps{snaps: []snapshot.Local{
		{Filesystem: "tank/data", Name: "auto-20261001.1200-1d"},
		{Filesystem: "tank/data/child", Name: "auto-20261001.1200-1d"},
	}}
	m, _ := newTestManager(t, snaps)

	task, err := m.Create(ctx, store.SnapshotTask{
		Dataset: "tank/data", Interval: 1440, RetCount: 1, RetUnit: "day", Enabled: true,
	})
	require.NoError(t, err)

	res, err := m.Run(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"tank/data@auto-20261001.1200-1d"}, res.Pruned)
	assert.Contains(t, snaps.names(), "tank/data/child@auto-20261001.1200-1d")
}

func TestRunSkipsExistingSnapshot(t *testing.T) {
	ctx := context.Background()
	snaps := &fakeSnaps{}
	m, _ := newTestManager(t, snaps)

	task, err := m.Create(ctx, store.SnapshotTask{
		Dataset: "tank/data", Interval: 5, RetCount: 1, RetUnit: "hour", Enabled: true,
	})
	require.NoError(t, err)

	_, err = m.Run(ctx, task.ID)
	require.NoError(t, err)
	res, err := m.Run(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Snapshot)
	assert.Contains(t, res.Skipped, "already exists")
	assert.Len(t, snaps.names(), 1)
}

func TestRunRecordsFailure(t *testing.T) {
	ctx := context.Background()
	snaps := &fakeSnaps{failCreate: errors.NewCommandError("zfs snapshot", 1, "out of space")}
	m, _ := newTestManager(t, snaps)

	task, err := m.Create(ctx, store.SnapshotTask{
		Dataset: "tank/data", Interval: 60, RetCount: 1, RetUnit: "day", Enabled: true,
	})
	require.NoError(t, err)

	_, err = m.Run(ctx, task.ID)
	require.Error(t, err)

	got, err := m.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "error", got.LastStatus)
	assert.Contains(t, got.LastError, "out of space")

	_, err = m.Run(ctx, 999)
	assert.True(t, errors.Is(err, errors.SnapshotTaskNotFound))
}

func TestCreateRejectsInvalidTask(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, &fakeSnaps{})

	_, err := m.Create(ctx, store.SnapshotTask{Dataset: "tank/data", Interval: 7, RetCount: 1, RetUnit: "day"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.SnapshotTaskInvalid))

	tasks, err := m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestRunScheduledHonoursWindow(t *testing.T) {
	ctx := context.Background()
	snaps := &fakeSnaps{}
	m, _ := newTestManager(t, snaps)

	morning, err := m.Create(ctx, store.SnapshotTask{
		Dataset: "tank/data", Interval: 60, Begin: "08:00", End: "09:00",
		RetCount: 1, RetUnit: "day", Enabled: true,
	})
	require.NoError(t, err)
	require.NoError(t, m.runScheduled(ctx, morning.ID))
	assert.Empty(t, snaps.created)

	allDay, err := m.Create(ctx, store.SnapshotTask{
		Dataset: "tank/data", Interval: 60, RetCount: 1, RetUnit: "day", Enabled: true,
	})
	require.NoError(t, err)
	require.NoError(t, m.runScheduled(ctx, allDay.ID))
	assert.Len(t, snaps.created, 1)

	// A task deleted behind the scheduler's back is a no-op.
	require.NoError(t, m.runScheduled(ctx, 999))
}

func TestSchedulerFollowsTasks(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, &fakeSnaps{})

	first, err := m.Create(ctx, store.SnapshotTask{
		Dataset: "tank/data", Interval: 60, RetCount: 1, RetUnit: "day", Enabled: true,
	})
	require.NoError(t, err)
	assert.Empty(t, m.Scheduled(), "nothing is scheduled before Start")

	require.NoError(t, m.Start(ctx))
	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{jobTag(first.ID)}, m.Scheduled())
	}, time.Second, 10*time.Millisecond)

	second, err := m.Create(ctx, store.SnapshotTask{
		Dataset: "tank/media", Interval: 5, RetCount: 1, RetUnit: "hour", Enabled: false,
	})
	require.NoError(t, err)
	assert.NotContains(t, m.Scheduled(), jobTag(second.ID))

	second.Enabled = true
	_, err = m.Update(ctx, second)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return len(m.Scheduled()) == 2
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, m.Delete(ctx, first.ID))
	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{jobTag(second.ID)}, m.Scheduled())
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, m.Stop())
	assert.Empty(t, m.Scheduled())
}
