// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"context"
	"strings"

	"github.com/stratastor/burrow/internal/common"
	"github.com/stratastor/burrow/internal/store"
	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/burrow/pkg/zfs/command"
	zfscommon "github.com/stratastor/burrow/pkg/zfs/common"
	"github.com/stratastor/logger"
)

// sortAliases maps client sort fields onto record fields.
var sortAliases = map[string]string{
	"extra": "mostrecent",
}

// Catalog lists, creates and deletes snapshots and reports whether each
// snapshot already reached its replication peers.
type Catalog struct {
	backend Backend
	remotes RemoteLister
	tasks   TaskSource
	peer    command.SSHTarget // user, key and timeout applied to every peer
	logger  logger.Logger
}

// NewCatalog builds a catalog. tasks and remotes may be nil when
// replication is not configured.
func NewCatalog(backend Backend, remotes RemoteLister, tasks TaskSource, peer command.SSHTarget, l logger.Logger) *Catalog {
	return &Catalog{
		backend: backend,
		remotes: remotes,
		tasks:   tasks,
		peer:    peer,
		logger:  l,
	}
}

// List returns snapshots under opts.Path ordered by opts.Sort. Each distinct
// peer (host and port) is enumerated at most once per call.
func (c *Catalog) List(ctx context.Context, opts ListOptions) ([]Record, error) {
	tasks, replicas, err := c.replicaSets(ctx)
	if err != nil {
		return nil, err
	}

	locals, err := c.backend.Snapshots(ctx, opts.Path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ZFSSnapshotList)
	}

	records := annotate(locals, tasks, replicas)
	if strings.Contains(opts.Path, "@") {
		records = filterFullname(records, opts.Path)
	}

	common.SortRecords(records, common.ParseSort(opts.Sort, sortAliases), recordField)
	return records, nil
}

// Get resolves one snapshot by full name.
func (c *Catalog) Get(ctx context.Context, fullname string) (Record, error) {
	if err := zfscommon.SnapshotNameCheck(fullname); err != nil {
		return Record{}, err
	}

	records, err := c.List(ctx, ListOptions{Path: fullname})
	if err != nil {
		if errors.Is(err, errors.ZFSDatasetNotFound) {
			return Record{}, errors.New(errors.ZFSSnapshotNotFound, fullname)
		}
		return Record{}, err
	}
	if len(records) == 0 {
		return Record{}, errors.New(errors.ZFSSnapshotNotFound, fullname)
	}
	return records[0], nil
}

// Create snapshots req.Dataset as req.Name and returns the new record as
// listed by the backend afterwards.
func (c *Catalog) Create(ctx context.Context, req CreateRequest) (Record, error) {
	if err := c.backend.Create(ctx, req.Dataset, req.Name, req.Recursive); err != nil {
		return Record{}, err
	}
	return c.Get(ctx, req.Dataset+"@"+req.Name)
}

// Delete destroys fullname and returns the record it had. Nothing is
// touched unless the name carries '@' and the snapshot still exists.
func (c *Catalog) Delete(ctx context.Context, fullname string) (Record, error) {
	if err := zfscommon.SnapshotNameCheck(fullname); err != nil {
		return Record{}, err
	}

	rec, err := c.Get(ctx, fullname)
	if err != nil {
		return Record{}, err
	}

	if err := c.Destroy(ctx, fullname); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Locals lists snapshots under path as the backend reports them, without
// replication state.
func (c *Catalog) Locals(ctx context.Context, path string) ([]Local, error) {
	locals, err := c.backend.Snapshots(ctx, path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ZFSSnapshotList)
	}
	return locals, nil
}

// Destroy removes fullname without resolving its record first.
func (c *Catalog) Destroy(ctx context.Context, fullname string) error {
	if err := zfscommon.SnapshotNameCheck(fullname); err != nil {
		return err
	}
	if err := c.backend.Destroy(ctx, fullname); err != nil {
		return err
	}
	c.logger.Info("Snapshot deleted", "snapshot", fullname)
	return nil
}

// replicaSets enumerates every peer once and returns, per task ID, the set
// of local full names that exist on that task's destination.
func (c *Catalog) replicaSets(ctx context.Context) ([]store.ReplicationTask, map[int64]map[string]struct{}, error) {
	if c.tasks == nil || c.remotes == nil {
		return nil, nil, nil
	}

	tasks, err := c.tasks.ListReplicationTasks(ctx)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[RemoteKey][]string)
	replicas := make(map[int64]map[string]struct{}, len(tasks))

	for _, t := range tasks {
		key := RemoteKey{Host: t.RemoteHost, Port: t.RemotePort}
		names, ok := seen[key]
		if !ok {
			target := c.peer
			target.Host, target.Port = t.RemoteHost, t.RemotePort

			names, err = c.remotes.ListRemote(ctx, target)
			if err != nil {
				// An unreachable peer marks its snapshots NEW instead of
				// failing the listing.
				c.logger.Warn("Failed to list remote snapshots",
					"host", t.RemoteHost, "port", t.RemotePort, "err", err)
				names = nil
			}
			seen[key] = names
		}
		replicas[t.ID] = localNames(t, names)
	}

	return tasks, replicas, nil
}

// localNames maps remote snapshot names under t.RemoteDataset back to the
// local names they were replicated from.
func localNames(t store.ReplicationTask, remote []string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, r := range remote {
		rest, ok := strings.CutPrefix(r, t.RemoteDataset)
		if !ok || rest == "" || (rest[0] != '@' && rest[0] != '/') {
			continue
		}
		set[t.Dataset+rest] = struct{}{}
	}
	return set
}

func covers(t store.ReplicationTask, fs string) bool {
	return fs == t.Dataset || strings.HasPrefix(fs, t.Dataset+"/")
}

// annotate turns backend snapshots into records. The newest snapshot of
// each filesystem is flagged and replication state is derived from every
// task covering the filesystem.
func annotate(locals []Local, tasks []store.ReplicationTask, replicas map[int64]map[string]struct{}) []Record {
	newest := make(map[string]uint64)
	for _, l := range locals {
		if l.CreateTXG >= newest[l.Filesystem] {
			newest[l.Filesystem] = l.CreateTXG
		}
	}

	records := make([]Record, 0, len(locals))
	for _, l := range locals {
		full := l.Fullname()
		rec := Record{
			ID:         full,
			Name:       l.Name,
			Filesystem: l.Filesystem,
			Fullname:   full,
			Refer:      l.Refer,
			Used:       l.Used,
			MostRecent: l.CreateTXG == newest[l.Filesystem],
			ParentType: l.ParentType,
			createTXG:  l.CreateTXG,
		}

		covered, present := false, true
		for _, t := range tasks {
			if !covers(t, l.Filesystem) {
				continue
			}
			covered = true
			if _, ok := replicas[t.ID][full]; !ok {
				present = false
			}
		}
		if covered {
			state := ReplicationNew
			if present {
				state = ReplicationOK
			}
			rec.Replication = &state
		}

		records = append(records, rec)
	}
	return records
}

func filterFullname(records []Record, fullname string) []Record {
	for _, r := range records {
		if r.Fullname == fullname {
			return []Record{r}
		}
	}
	return nil
}

func recordField(r Record, field string) any {
	switch field {
	case "id", "fullname":
		return r.Fullname
	case "name":
		return r.Name
	case "filesystem":
		return r.Filesystem
	case "refer":
		return r.Refer
	case "used":
		return r.Used
	case "mostrecent":
		return r.MostRecent
	case "parent_type":
		return r.ParentType
	case "replication":
		if r.Replication == nil {
			return ""
		}
		return *r.Replication
	case "createtxg":
		return r.createTXG
	}
	return nil
}
