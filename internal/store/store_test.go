// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "store-test")
	require.NoError(t, err)

	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "burrow.db"), l)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestVolumes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tank, err := s.CreateVolume(ctx, "tank")
	require.NoError(t, err)
	assert.Equal(t, int64(1), tank.ID)

	_, err = s.CreateVolume(ctx, "tank")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.StoreConflict))

	byName, err := s.ResolveVolume(ctx, "tank")
	require.NoError(t, err)
	assert.Equal(t, tank.ID, byName.ID)

	byID, err := s.ResolveVolume(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "tank", byID.Name)

	_, err = s.ResolveVolume(ctx, "nope")
	assert.True(t, errors.Is(err, errors.ZFSPoolNotFound))

	vols, err := s.ListVolumes(ctx)
	require.NoError(t, err)
	assert.Len(t, vols, 1)

	require.NoError(t, s.DeleteVolume(ctx, tank.ID))
	assert.True(t, errors.Is(s.DeleteVolume(ctx, tank.ID), errors.ZFSPoolNotFound))
}

func TestDisksPreferEnabled(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	old, err := s.AddDisk(ctx, Disk{Name: "sda", Serial: "OLD", Enabled: false})
	require.NoError(t, err)
	cur, err := s.AddDisk(ctx, Disk{Name: "sda", Serial: "NEW", Enabled: true})
	require.NoError(t, err)

	disks, err := s.DisksByName(ctx, "sda")
	require.NoError(t, err)
	require.Len(t, disks, 2)
	assert.Equal(t, cur.ID, disks[0].ID)
	assert.Equal(t, old.ID, disks[1].ID)
}

func TestListDisksHidesMultipath(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, d := range []Disk{
		{Name: "sda", Enabled: true},
		{Name: "sdb", Enabled: true, MultipathName: "disk1"},
		{Name: "multipath/disk1", Enabled: true},
		{Name: "sdc", Enabled: false},
	} {
		_, err := s.AddDisk(ctx, d)
		require.NoError(t, err)
	}

	all, err := s.ListDisks(ctx, DiskFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	visible, err := s.ListDisks(ctx, DiskFilter{EnabledOnly: true, HideMultipath: true})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "sda", visible[0].Name)

	members, err := s.DisksByMultipath(ctx, "disk1")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "sdb", members[0].Name)
}

func TestUpdateDisk(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	d, err := s.AddDisk(ctx, Disk{Name: "sda", Enabled: true})
	require.NoError(t, err)

	desc := "bay 3"
	off := false
	got, err := s.UpdateDisk(ctx, d.ID, DiskUpdate{Description: &desc, Enabled: &off})
	require.NoError(t, err)
	assert.Equal(t, "bay 3", got.Description)
	assert.False(t, got.Enabled)

	reread, err := s.GetDisk(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, got, reread)

	_, err = s.UpdateDisk(ctx, 99, DiskUpdate{})
	assert.True(t, errors.Is(err, errors.DiskNotFound))
}

func TestSyncDisk(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	d, created, err := s.SyncDisk(ctx, Disk{Name: "sda", Identifier: "{serial}S1", Serial: "S1", Size: 100})
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, d.Enabled)

	_, _, err = s.SyncDisk(ctx, Disk{Name: "sdb", Identifier: "{serial}S2", Serial: "S2"})
	require.NoError(t, err)

	// Same disk reappears under a new name
	moved, created, err := s.SyncDisk(ctx, Disk{Name: "sdc", Identifier: "{serial}S1", Size: 200})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, d.ID, moved.ID)
	assert.Equal(t, "sdc", moved.Name)
	assert.Equal(t, "S1", moved.Serial)
	assert.Equal(t, int64(200), moved.Size)

	n, err := s.DisableDisksExcept(ctx, []string{"{serial}S1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	enabled, err := s.ListDisks(ctx, DiskFilter{EnabledOnly: true})
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "sdc", enabled[0].Name)
}

func TestReplicationTasks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreateReplicationTask(ctx, ReplicationTask{Dataset: "tank/data"})
	assert.True(t, errors.Is(err, errors.ReplicationInvalidTask))

	task, err := s.CreateReplicationTask(ctx, ReplicationTask{
		Dataset:       "tank/data",
		RemoteHost:    "backup1",
		RemoteDataset: "backup/tank",
		Enabled:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, 22, task.RemotePort)

	tasks, err := s.ListReplicationTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, task, tasks[0])

	require.NoError(t, s.DeleteReplicationTask(ctx, task.ID))
	_, err = s.GetReplicationTask(ctx, task.ID)
	assert.True(t, errors.Is(err, errors.ReplicationTaskNotFound))
}

func TestSyncDiskUpdatesMultipath(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	d, _, err := s.SyncDisk(ctx, Disk{Name: "sdb", Identifier: "{multipath}mpatha{serial}L1{path}/dev/sdb"})
	require.NoError(t, err)
	assert.Empty(t, d.MultipathName)

	d, created, err := s.SyncDisk(ctx, Disk{
		Name: "sdb", Identifier: "{multipath}mpatha{serial}L1{path}/dev/sdb", MultipathName: "mpatha",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "mpatha", d.MultipathName)

	members, err := s.DisksByMultipath(ctx, "mpatha")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, d.ID, members[0].ID)
}

func TestSnapshotTasks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreateSnapshotTask(ctx, SnapshotTask{Dataset: "tank/data"})
	assert.True(t, errors.Is(err, errors.SnapshotTaskInvalid))

	task, err := s.CreateSnapshotTask(ctx, SnapshotTask{
		Dataset: "tank/data", Recursive: true, Interval: 60, Begin: "09:00", End: "18:00",
		Weekdays: []int{1, 2, 3, 4, 5}, RetCount: 2, RetUnit: "week", Enabled: true,
	})
	require.NoError(t, err)
	_, err = s.CreateSnapshotTask(ctx, SnapshotTask{
		Dataset: "tank/data_old", Interval: 5, Begin: "00:00", End: "23:59",
		Weekdays: []int{7}, RetCount: 1, RetUnit: "day",
	})
	require.NoError(t, err)

	got, err := s.GetSnapshotTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got.Weekdays)
	assert.True(t, got.Recursive)
	assert.Nil(t, got.LastRunAt)

	covering, err := s.SnapshotTasksFor(ctx, "tank/data/photos")
	require.NoError(t, err)
	require.Len(t, covering, 1)
	assert.Equal(t, task.ID, covering[0].ID)

	covering, err = s.SnapshotTasksFor(ctx, "tank/data_old")
	require.NoError(t, err)
	require.Len(t, covering, 1)
	assert.Equal(t, "tank/data_old", covering[0].Dataset)

	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordSnapshotTaskRun(ctx, task.ID, at, "pool is busy"))
	got, err = s.GetSnapshotTask(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastRunAt)
	assert.True(t, at.Equal(*got.LastRunAt))
	assert.Equal(t, "error", got.LastStatus)
	assert.Equal(t, "pool is busy", got.LastError)

	got.Recursive = false
	got.Enabled = false
	updated, err := s.UpdateSnapshotTask(ctx, got)
	require.NoError(t, err)
	assert.False(t, updated.Recursive)
	assert.Equal(t, "error", updated.LastStatus)

	require.NoError(t, s.DeleteSnapshotTask(ctx, task.ID))
	_, err = s.GetSnapshotTask(ctx, task.ID)
	assert.True(t, errors.Is(err, errors.SnapshotTaskNotFound))
	assert.True(t, errors.Is(s.DeleteSnapshotTask(ctx, task.ID), errors.SnapshotTaskNotFound))
}
