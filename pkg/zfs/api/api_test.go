package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/burrow/internal/constants"
	"github.com/stratastor/burrow/internal/store"
	"github.com/stratastor/burrow/pkg/alerts"
	"github.com/stratastor/burrow/pkg/bootenv"
	"github.com/stratastor/burrow/pkg/disk"
	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/burrow/pkg/zfs/autosnapshots"
	"github.com/stratastor/burrow/pkg/zfs/command"
	"github.com/stratastor/burrow/pkg/zfs/dataset"
	"github.com/stratastor/burrow/pkg/zfs/pool"
	"github.com/stratastor/burrow/pkg/zfs/snapshot"
	"github.com/stratastor/burrow/pkg/zfs/testutil"
	"github.com/stratastor/burrow/pkg/zfs/topology"
	"github.com/stratastor/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tankStatus = `{
  "output_version": {"command": "zpool status", "vers_major": 0, "vers_minor": 1},
  "pools": {
    "tank": {
      "name": "tank", "state": "ONLINE", "pool_guid": "1", "txg": "9",
      "spa_version": "5000", "zpl_version": "5", "error_count": "0",
      "vdevs": {
        "tank": {
          "name": "tank", "vdev_type": "root", "state": "ONLINE",
          "read_errors": "0", "write_errors": "0", "checksum_errors": "4",
          "vdevs": {
            "mirror-0": {
              "name": "mirror-0", "vdev_type": "mirror", "state": "ONLINE",
              "read_errors": "0", "write_errors": "0", "checksum_errors": "0",
              "vdevs": {
                "sda": {"name": "sda", "vdev_type": "disk", "path": "/dev/sda1", "state": "ONLINE",
                        "read_errors": "0", "write_errors": "0", "checksum_errors": "0"},
                "sdb": {"name": "sdb", "vdev_type": "disk", "path": "/dev/sdb1", "state": "FAULTED",
                        "read_errors": "0", "write_errors": "0", "checksum_errors": "0"}
              }
            }
          }
        }
      }
    }
  }
}`

const tankProperties = `{
  "output_version": {"command": "zpool get", "vers_major": 0, "vers_minor": 1},
  "pools": {
    "tank": {"name": "tank", "type": "POOL", "properties": {
      "version": {"value": "-", "source": {"type": "DEFAULT", "data": "-"}},
      "feature@async_destroy": {"value": "enabled", "source": {"type": "LOCAL", "data": "-"}},
      "feature@draid": {"value": "disabled", "source": {"type": "LOCAL", "data": "-"}}}}
  }
}`

const datasetTree = `{
  "output_version": {"command": "zfs list", "vers_major": 0, "vers_minor": 1},
  "datasets": {
    "tank": {"name": "tank", "type": "FILESYSTEM", "pool": "tank", "createtxg": "1",
      "properties": {"used": {"value": "400", "source": {"type": "NONE", "data": "-"}},
                     "available": {"value": "600", "source": {"type": "NONE", "data": "-"}},
                     "mountpoint": {"value": "/mnt/tank", "source": {"type": "DEFAULT", "data": "-"}}}},
    "tank/photos": {"name": "tank/photos", "type": "FILESYSTEM", "pool": "tank", "createtxg": "2",
      "properties": {"used": {"value": "100", "source": {"type": "NONE", "data": "-"}},
                     "available": {"value": "300", "source": {"type": "NONE", "data": "-"}},
                     "mountpoint": {"value": "/mnt/tank/photos", "source": {"type": "DEFAULT", "data": "-"}}}},
    "tank/photos/2020": {"name": "tank/photos/2020", "type": "FILESYSTEM", "pool": "tank", "createtxg": "3",
      "properties": {"used": {"value": "50", "source": {"type": "NONE", "data": "-"}},
                     "available": {"value": "300", "source": {"type": "NONE", "data": "-"}},
                     "mountpoint": {"value": "/mnt/tank/photos/2020", "source": {"type": "DEFAULT", "data": "-"}}}},
    "tank/.system": {"name": "tank/.system", "type": "FILESYSTEM", "pool": "tank", "createtxg": "4", "properties": {}}
  }
}`

// fakeZFS keeps a mutable set of snapshots of tank/data so that create and
// destroy calls are visible to later listings.
type fakeZFS struct {
	mu    sync.Mutex
	snaps map[string]int // name -> createtxg
	txg   int
}

func (f *fakeZFS) handle(c testutil.Call) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch c.Cmd {
	case "zpool status":
		if len(c.Args) > 0 && c.Args[len(c.Args)-1] != "tank" {
			return nil, errors.NewCommandError("zpool status", 1,
				fmt.Sprintf("cannot open '%s': no such pool", c.Args[len(c.Args)-1]))
		}
		return []byte(tankStatus), nil
	case "zpool get":
		return []byte(tankProperties), nil
	case "zfs list":
		if strings.Contains(c.String(), "snapshot") {
			return f.snapshotList(), nil
		}
		return []byte(datasetTree), nil
	case "zfs snapshot":
		_, name, _ := strings.Cut(c.Args[len(c.Args)-1], "@")
		if _, ok := f.snaps[name]; ok {
			return nil, errors.NewCommandError("zfs snapshot", 1, "cannot create snapshot: dataset already exists")
		}
		f.txg++
		f.snaps[name] = f.txg
	case "zfs destroy":
		_, name, _ := strings.Cut(c.Args[len(c.Args)-1], "@")
		delete(f.snaps, name)
	}
	return nil, nil
}

func (f *fakeZFS) snapshotList() []byte {
	entries := []string{
		`"tank/data": {"name": "tank/data", "type": "FILESYSTEM", "pool": "tank", "createtxg": "2", "properties": {}}`,
	}
	names := make([]string, 0, len(f.snaps))
	for n := range f.snaps {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		entries = append(entries, fmt.Sprintf(
			`"tank/data@%[1]s": {"name": "tank/data@%[1]s", "type": "SNAPSHOT", "pool": "tank", "createtxg": "%[2]d",
			  "dataset": "tank/data", "snapshot_name": "%[1]s",
			  "properties": {"used": {"value": "%[2]d", "source": {"type": "NONE", "data": "-"}},
			                 "referenced": {"value": "8192", "source": {"type": "NONE", "data": "-"}}}}`,
			n, f.snaps[n]))
	}
	return []byte(`{"output_version": {"command": "zfs list", "vers_major": 0, "vers_minor": 1},
	  "datasets": {` + strings.Join(entries, ",") + `}}`)
}

type testEnv struct {
	router *gin.Engine
	runner *testutil.FakeRunner
	store  *store.Store
	zfs    *fakeZFS
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "api-test")
	require.NoError(t, err)

	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "burrow.db"), l)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	fz := &fakeZFS{snaps: map[string]int{"a": 1, "b": 2}, txg: 2}
	runner := &testutil.FakeRunner{Handler: fz.handle}

	poolMgr := pool.NewManager(runner, l)
	dsMgr := dataset.NewManager(runner, l)
	inv := disk.NewInventory(st, nil, l)

	catalog := snapshot.NewCatalog(snapshot.NewZFSBackend(dsMgr), snapshot.NewSSHLister(runner),
		st, command.SSHTarget{}, l)

	h := NewHandler(Deps{
		Store:        st,
		Pools:        poolMgr,
		Datasets:     dsMgr,
		Reporter:     topology.NewReporter(poolMgr, inv, topology.DataPoolProfile(constants.APIBase), l),
		BootReporter: topology.NewReporter(poolMgr, inv, topology.BootPoolProfile(constants.APIBase), l),
		Snapshots:    catalog,
		BootEnvs:     bootenv.NewManager(runner, dsMgr, bootenv.Config{Pool: "tank", Parent: "tank/BOOT"}, l),
		Disks:        inv,
		Alerts:       alerts.NewChecker(poolMgr, l),
		SnapTasks:    autosnapshots.NewManager(st, catalog, l),
		BootPool:     "tank",
		HiddenPrefix: ".",
		Logger:       l,
	})

	router := gin.New()
	router.Use(gin.Recovery())
	h.RegisterRoutes(router.Group(constants.APIBase))

	return &testEnv{router: router, runner: runner, store: st, zfs: fz}
}

func (e *testEnv) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, constants.APIBase+path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, constants.APIBase+path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRegisterAndListPools(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(http.MethodPost, "/pools", `{"name": "tank"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	v := decode[store.Volume](t, w)
	assert.Equal(t, "tank", v.Name)

	w = env.do(http.MethodPost, "/pools", `{"name": "tank"}`, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodPost, "/pools", `{"name": "missing"}`, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/pools", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "items 0-0/1", w.Header().Get("Content-Range"))
	assert.Len(t, decode[[]store.Volume](t, w), 1)
}

func TestListPoolsDecorated(t *testing.T) {
	env := setupTestRouter(t)
	ctx := context.Background()
	tank, err := env.store.CreateVolume(ctx, "tank")
	require.NoError(t, err)
	_, err = env.store.CreateVolume(ctx, "gone")
	require.NoError(t, err)

	w := env.do(http.MethodGet, "/pools", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "items 0-1/2", w.Header().Get("Content-Range"))

	pools := decode[[]poolSummary](t, w)
	require.Len(t, pools, 2)
	byName := map[string]poolSummary{}
	for _, p := range pools {
		byName[p.Name] = p
	}

	p := byName["tank"]
	assert.Equal(t, "ONLINE", p.Status)
	assert.Equal(t, "/mnt/tank", p.Mountpoint)
	assert.Equal(t, uint64(400), p.Used)
	assert.Equal(t, uint64(600), p.Avail)
	assert.Equal(t, 40, p.UsedPct)
	assert.False(t, p.IsUpgraded)
	require.Len(t, p.Children, 1)
	assert.Equal(t, "photos", p.Children[0].Name)
	assert.Equal(t, tank.ID*100, p.Children[0].ID)

	gone := byName["gone"]
	assert.Equal(t, "UNKNOWN", gone.Status)
	assert.Empty(t, gone.Children)
}

func TestUpgradePool(t *testing.T) {
	env := setupTestRouter(t)
	_, err := env.store.CreateVolume(context.Background(), "tank")
	require.NoError(t, err)

	w := env.do(http.MethodPost, "/pools/tank/upgrade", "", nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	calls := env.runner.CallsTo("zpool upgrade")
	require.Len(t, calls, 1)
	assert.Equal(t, "zpool upgrade tank", calls[0].String())

	w = env.do(http.MethodPost, "/pools/missing/upgrade", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPoolStatus(t *testing.T) {
	env := setupTestRouter(t)
	ctx := context.Background()

	v, err := env.store.CreateVolume(ctx, "tank")
	require.NoError(t, err)
	sda, err := env.store.AddDisk(ctx, store.Disk{Name: "sda", Identifier: "{serial}S1", Enabled: true})
	require.NoError(t, err)

	for _, ref := range []string{fmt.Sprint(v.ID), "tank"} {
		w := env.do(http.MethodGet, "/pools/"+ref+"/status", "", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "items 0-0/1", w.Header().Get("Content-Range"))

		docs := decode[[]map[string]any](t, w)
		require.Len(t, docs, 1)
		top := docs[0]
		assert.EqualValues(t, v.ID, top["id"])
		assert.Equal(t, "tank", top["name"])
		assert.EqualValues(t, 4, top["cksum"])

		children := top["children"].([]any)
		require.Len(t, children, 1)
		mirror := children[0].(map[string]any)
		assert.Equal(t, "mirror-0", mirror["name"])
		assert.Equal(t, "vdev", mirror["type"])
		assert.EqualValues(t, v.ID*100, mirror["id"])

		devs := mirror["children"].([]any)
		require.Len(t, devs, 2)
		first := devs[0].(map[string]any)
		assert.Equal(t, "sda1", first["name"])
		assert.Equal(t, "sda", first["label"])
		assert.Greater(t, first["id"].(float64), mirror["id"].(float64))
		assert.Equal(t, fmt.Sprintf("%s/disks/%d?deletable=false", constants.APIBase, sda.ID), first["_disk_url"])
		assert.Contains(t, first, "_offline_url")
		assert.Contains(t, first, "_replace_url")

		// sdb is not in inventory and not ONLINE
		second := devs[1].(map[string]any)
		assert.NotContains(t, second, "_disk_url")
		assert.NotContains(t, second, "_offline_url")
		assert.NotContains(t, second, "children")
	}
}

func TestPoolStatusUnregistered(t *testing.T) {
	env := setupTestRouter(t)
	w := env.do(http.MethodGet, "/pools/7/status", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, env.runner.Calls())
}

func TestBootPoolStatus(t *testing.T) {
	env := setupTestRouter(t)
	w := env.do(http.MethodGet, "/bootenv/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	docs := decode[[]map[string]any](t, w)
	require.Len(t, docs, 1)
	assert.EqualValues(t, topology.BootPoolID, docs[0]["id"])
	mirror := docs[0]["children"].([]any)[0].(map[string]any)
	assert.Equal(t, constants.APIBase+"/bootenv/pool/attach?label=sda", mirror["_attach_url"])
}

func TestBootPoolActionLinks(t *testing.T) {
	env := setupTestRouter(t)
	w := env.do(http.MethodGet, "/bootenv/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	docs := decode[[]map[string]any](t, w)
	require.Len(t, docs, 1)

	var links []string
	var walk func(n map[string]any)
	walk = func(n map[string]any) {
		for _, key := range []string{"_offline_url", "_detach_url", "_remove_url"} {
			if link, ok := n[key].(string); ok {
				links = append(links, link)
			}
		}
		children, _ := n["children"].([]any)
		for _, child := range children {
			walk(child.(map[string]any))
		}
	}
	walk(docs[0])
	require.NotEmpty(t, links)

	first := docs[0]["children"].([]any)[0].(map[string]any)["children"].([]any)[0].(map[string]any)
	assert.Equal(t, constants.APIBase+"/bootenv/pool/offline/sda", first["_offline_url"])

	for _, link := range links {
		path := strings.TrimPrefix(link, constants.APIBase)
		w := env.do(http.MethodPost, path, "", nil)
		assert.Equal(t, http.StatusAccepted, w.Code, "%s: %s", link, w.Body.String())
	}
	assert.Equal(t, "zpool offline tank sda", env.runner.CallsTo("zpool offline")[0].String())
}

func TestDeviceActions(t *testing.T) {
	env := setupTestRouter(t)
	_, err := env.store.CreateVolume(context.Background(), "tank")
	require.NoError(t, err)

	w := env.do(http.MethodPost, "/pools/tank/disks/sdb/replace", `{"replace_disk": "sdc"}`, nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	calls := env.runner.CallsTo("zpool replace")
	require.Len(t, calls, 1)
	assert.Equal(t, "zpool replace tank sdb sdc", calls[0].String())

	w = env.do(http.MethodPost, "/pools/tank/disks/sda/offline", "", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "zpool offline tank sda", env.runner.CallsTo("zpool offline")[0].String())

	w = env.do(http.MethodPost, "/pools/tank/disks/sdb/replace", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/pools/tank/disks/-f/detach", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.runner.CallsTo("zpool detach"))
}

func TestListDatasets(t *testing.T) {
	env := setupTestRouter(t)
	v, err := env.store.CreateVolume(context.Background(), "tank")
	require.NoError(t, err)

	w := env.do(http.MethodGet, "/pools/tank/datasets", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "items 0-0/1", w.Header().Get("Content-Range"))

	nodes := decode[[]dataset.DatasetNode](t, w)
	require.Len(t, nodes, 1)
	photos := nodes[0]
	assert.Equal(t, "photos", photos.Name)
	assert.Equal(t, "dataset", photos.Type)
	assert.Equal(t, "/mnt/tank/photos", photos.Mountpoint)
	assert.Equal(t, v.ID*100, photos.ID)
	require.Len(t, photos.Children, 1)
	assert.Greater(t, photos.Children[0].ID, photos.ID)
}

func TestSnapshotRoundTrip(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(http.MethodPost, "/snapshots", `{"dataset": "tank/data", "name": "test"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[snapshot.Record](t, w)
	assert.Equal(t, "tank/data@test", created.Fullname)
	assert.True(t, created.MostRecent)

	w = env.do(http.MethodGet, "/snapshots?path=tank/data", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "items 0-2/3", w.Header().Get("Content-Range"))

	w = env.do(http.MethodGet, "/snapshots/tank/data@test", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", decode[snapshot.Record](t, w).Name)

	w = env.do(http.MethodDelete, "/snapshots/tank/data@test", "", nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, "tank/data@test", decode[snapshot.Record](t, w).Fullname)

	w = env.do(http.MethodGet, "/snapshots?path=tank/data", "", nil)
	for _, r := range decode[[]snapshot.Record](t, w) {
		assert.NotEqual(t, "tank/data@test", r.Fullname)
	}
}

func TestSnapshotCreateDuplicate(t *testing.T) {
	env := setupTestRouter(t)
	w := env.do(http.MethodPost, "/snapshots", `{"dataset": "tank/data", "name": "a"}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decode[map[string]map[string]any](t, w)
	assert.Contains(t, body["error"]["details"], "dataset already exists")
}

func TestSnapshotDeleteWithoutAtSign(t *testing.T) {
	env := setupTestRouter(t)
	w := env.do(http.MethodDelete, "/snapshots/tank/data", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.runner.CallsTo("zfs destroy"))
	assert.Empty(t, env.runner.CallsTo("zfs list"))
}

func TestSnapshotListPaginationAndSort(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(http.MethodGet, "/snapshots?path=tank/data&sort=-used", "", map[string]string{"Range": "items=0-0"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "items 0-0/2", w.Header().Get("Content-Range"))
	recs := decode[[]snapshot.Record](t, w)
	require.Len(t, recs, 1)
	assert.Equal(t, "b", recs[0].Name)

	w = env.do(http.MethodGet, "/snapshots", "", map[string]string{"Range": "bytes=0-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReplicationTasks(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(http.MethodPost, "/replications",
		`{"dataset": "tank/data", "remote_host": "backup1", "remote_dataset": "backup/data"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decode[store.ReplicationTask](t, w)
	assert.Equal(t, 22, task.RemotePort)
	assert.True(t, task.Enabled)

	w = env.do(http.MethodGet, fmt.Sprintf("/replications/%d", task.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodDelete, fmt.Sprintf("/replications/%d", task.ID), "", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodGet, fmt.Sprintf("/replications/%d", task.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/replications/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDisks(t *testing.T) {
	env := setupTestRouter(t)
	d, err := env.store.AddDisk(context.Background(), store.Disk{Name: "sda", Identifier: "{serial}S1", Enabled: true})
	require.NoError(t, err)

	w := env.do(http.MethodGet, "/disks", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]store.Disk](t, w), 1)

	w = env.do(http.MethodPut, fmt.Sprintf("/disks/%d", d.ID), `{"description": "bay 4"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "bay 4", decode[store.Disk](t, w).Description)

	w = env.do(http.MethodGet, "/disks/99", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// no scanner configured
	w = env.do(http.MethodPost, "/disks/sync", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAlertsBeforeFirstRun(t *testing.T) {
	env := setupTestRouter(t)
	w := env.do(http.MethodGet, "/alerts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	eval := decode[alerts.Evaluation](t, w)
	assert.Empty(t, eval.Alerts)
}

func TestSnapshotTaskLifecycle(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(http.MethodPost, "/snapshot-tasks",
		`{"dataset": "tank/data", "recursive": true, "interval": 7, "ret_count": 1, "ret_unit": "day"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = env.do(http.MethodPost, "/snapshot-tasks",
		`{"dataset": "tank/data", "recursive": true, "interval": 60, "ret_count": 1, "ret_unit": "day"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decode[store.SnapshotTask](t, w)
	assert.True(t, task.Enabled)
	assert.Equal(t, "00:00", task.Begin)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, task.Weekdays)

	w = env.do(http.MethodGet, "/snapshot-tasks?dataset=tank/data/photos", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	covering := decode[[]store.SnapshotTask](t, w)
	require.Len(t, covering, 1)
	assert.Equal(t, task.ID, covering[0].ID)

	w = env.do(http.MethodGet, "/snapshot-tasks?dataset=media", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]store.SnapshotTask](t, w))

	path := fmt.Sprintf("/snapshot-tasks/%d", task.ID)
	w = env.do(http.MethodPost, path+"/run", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[autosnapshots.RunResult](t, w)
	assert.True(t, strings.HasPrefix(res.Snapshot, "tank/data@auto-"), res.Snapshot)
	assert.True(t, strings.HasSuffix(res.Snapshot, "-1d"), res.Snapshot)
	assert.Empty(t, res.Pruned)
	assert.NotEmpty(t, env.runner.CallsTo("zfs snapshot"))

	w = env.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", decode[store.SnapshotTask](t, w).LastStatus)

	w = env.do(http.MethodPut, path,
		`{"dataset": "tank/data", "interval": 1440, "ret_count": 2, "ret_unit": "week", "enabled": false}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[store.SnapshotTask](t, w)
	assert.False(t, updated.Enabled)
	assert.Equal(t, 1440, updated.Interval)
	assert.Equal(t, "success", updated.LastStatus)

	w = env.do(http.MethodDelete, path, "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(http.MethodPost, path+"/run", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
