package bootenv

import (
	"context"
	"testing"
	"time"

	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/burrow/pkg/zfs/dataset"
	"github.com/stratastor/burrow/pkg/zfs/testutil"
	"github.com/stratastor/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const beList = `{
  "output_version": {"command": "zfs list", "vers_major": 0, "vers_minor": 1},
  "datasets": {
    "bpool/BOOT": {"name": "bpool/BOOT", "type": "FILESYSTEM", "pool": "bpool", "createtxg": "1",
      "properties": {"mounted": {"value": "no", "source": {"type": "NONE", "data": "-"}}}},
    "bpool/BOOT/ubuntu_a1": {"name": "bpool/BOOT/ubuntu_a1", "type": "FILESYSTEM", "pool": "bpool", "createtxg": "10",
      "properties": {"used": {"value": "104857600", "source": {"type": "NONE", "data": "-"}},
                     "creation": {"value": "1700000000", "source": {"type": "NONE", "data": "-"}},
                     "mounted": {"value": "yes", "source": {"type": "NONE", "data": "-"}}}},
    "bpool/BOOT/ubuntu_b2": {"name": "bpool/BOOT/ubuntu_b2", "type": "FILESYSTEM", "pool": "bpool", "createtxg": "20",
      "properties": {"used": {"value": "4096", "source": {"type": "NONE", "data": "-"}},
                     "creation": {"value": "1710000000", "source": {"type": "NONE", "data": "-"}},
                     "mounted": {"value": "no", "source": {"type": "NONE", "data": "-"}}}},
    "bpool/BOOT/old": {"name": "bpool/BOOT/old", "type": "FILESYSTEM", "pool": "bpool", "createtxg": "5",
      "properties": {"used": {"value": "1", "source": {"type": "NONE", "data": "-"}},
                     "creation": {"value": "1600000000", "source": {"type": "NONE", "data": "-"}},
                     "mounted": {"value": "no", "source": {"type": "NONE", "data": "-"}}}}
  }
}`

const bootfsJSON = `{
  "output_version": {"command": "zpool get", "vers_major": 0, "vers_minor": 1},
  "pools": {"bpool": {"name": "bpool", "properties": {"bootfs": {"value": "bpool/BOOT/ubuntu_b2", "source": {"type": "LOCAL", "data": "-"}}}}}
}`

func newTestManager(t *testing.T, h func(testutil.Call) ([]byte, error)) (*Manager, *testutil.FakeRunner) {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "bootenv-test")
	require.NoError(t, err)

	runner := &testutil.FakeRunner{Handler: h}
	cfg := Config{Pool: "bpool", Parent: "bpool/BOOT"}
	return NewManager(runner, dataset.NewManager(runner, l), cfg, l), runner
}

func fixture(c testutil.Call) ([]byte, error) {
	switch c.Cmd {
	case "zfs list":
		return []byte(beList), nil
	case "zpool get":
		return []byte(bootfsJSON), nil
	}
	return nil, nil
}

func TestList(t *testing.T) {
	mgr, runner := newTestManager(t, fixture)

	envs, err := mgr.List(context.Background())
	require.NoError(t, err)
	require.Len(t, envs, 3)

	assert.Equal(t, "old", envs[0].Name)
	assert.Equal(t, Inactive, envs[0].Active)

	assert.Equal(t, "ubuntu_a1", envs[1].Name)
	assert.Equal(t, "ubuntu_a1", envs[1].ID)
	assert.Equal(t, ActiveNow, envs[1].Active)
	assert.Equal(t, uint64(104857600), envs[1].Space)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), envs[1].Created)

	assert.Equal(t, ActiveReboot, envs[2].Active)

	assert.Equal(t,
		"zfs list -p -t filesystem -d 1 -o name,used,creation,mounted bpool/BOOT",
		runner.CallsTo("zfs list")[0].String())
}

func TestListWithoutBootfs(t *testing.T) {
	mgr, _ := newTestManager(t, func(c testutil.Call) ([]byte, error) {
		if c.Cmd == "zpool get" {
			return nil, errors.NewCommandError("zpool get", 1, "no such pool")
		}
		return fixture(c)
	})

	envs, err := mgr.List(context.Background())
	require.NoError(t, err)
	require.Len(t, envs, 3)
	assert.Equal(t, Inactive, envs[2].Active)
}

func TestDeleteRefusesActive(t *testing.T) {
	mgr, runner := newTestManager(t, fixture)
	ctx := context.Background()

	for _, name := range []string{"ubuntu_a1", "ubuntu_b2"} {
		_, err := mgr.Delete(ctx, name)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.BootEnvDelete))
	}
	assert.Empty(t, runner.CallsTo("zfs destroy"))

	be, err := mgr.Delete(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, "old", be.Name)
	assert.Equal(t, "zfs destroy -r bpool/BOOT/old", runner.CallsTo("zfs destroy")[0].String())
}

func TestDeleteMissing(t *testing.T) {
	mgr, _ := newTestManager(t, fixture)
	_, err := mgr.Delete(context.Background(), "nope")
	assert.True(t, errors.Is(err, errors.BootEnvNotFound))
}

func TestRename(t *testing.T) {
	mgr, runner := newTestManager(t, fixture)
	ctx := context.Background()

	_, err := mgr.Rename(ctx, "old", "bad/name")
	assert.True(t, errors.Is(err, errors.BootEnvInvalidName))

	// the fixture does not change, so the renamed environment is not found
	// on re-read; the rename itself must still have been issued
	_, err = mgr.Rename(ctx, "old", "older")
	assert.True(t, errors.Is(err, errors.BootEnvNotFound))
	require.Len(t, runner.CallsTo("zfs rename"), 1)
	assert.Equal(t, "zfs rename bpool/BOOT/old bpool/BOOT/older", runner.CallsTo("zfs rename")[0].String())
}

func TestCreateFromSource(t *testing.T) {
	mgr, runner := newTestManager(t, fixture)

	_, err := mgr.Create(context.Background(), "ubuntu_c3", "ubuntu_a1")
	// re-read misses the new environment against the static fixture
	assert.True(t, errors.Is(err, errors.BootEnvNotFound))

	assert.Equal(t, "zfs snapshot bpool/BOOT/ubuntu_a1@ubuntu_c3", runner.CallsTo("zfs snapshot")[0].String())
	assert.Equal(t, "zfs clone bpool/BOOT/ubuntu_a1@ubuntu_c3 bpool/BOOT/ubuntu_c3", runner.CallsTo("zfs clone")[0].String())
}

func TestCreateFromRunning(t *testing.T) {
	mgr, runner := newTestManager(t, fixture)

	_, err := mgr.Create(context.Background(), "ubuntu_c3", "")
	assert.True(t, errors.Is(err, errors.BootEnvNotFound))

	snaps := runner.CallsTo("zfs snapshot")
	require.Len(t, snaps, 1)
	assert.Equal(t, "zfs snapshot bpool/BOOT/ubuntu_a1@ubuntu_c3", snaps[0].String())
}

func TestActivate(t *testing.T) {
	mgr, runner := newTestManager(t, fixture)

	be, err := mgr.Activate(context.Background(), "old")
	require.NoError(t, err)
	assert.Equal(t, "old", be.Name)

	sets := runner.CallsTo("zpool set")
	require.Len(t, sets, 1)
	assert.Equal(t, "zpool set bootfs=bpool/BOOT/old bpool", sets[0].String())
}
