/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"

	"github.com/stratastor/burrow/internal/store"
	"github.com/stratastor/burrow/pkg/alerts"
	"github.com/stratastor/burrow/pkg/bootenv"
	"github.com/stratastor/burrow/pkg/disk"
	"github.com/stratastor/burrow/pkg/zfs/autosnapshots"
	"github.com/stratastor/burrow/pkg/zfs/dataset"
	"github.com/stratastor/burrow/pkg/zfs/pool"
	"github.com/stratastor/burrow/pkg/zfs/snapshot"
	"github.com/stratastor/burrow/pkg/zfs/topology"
	"github.com/stratastor/logger"
)

// StatusReporter renders a pool status document.
type StatusReporter interface {
	Generate(ctx context.Context, ref topology.PoolRef) (*topology.StatusNode, error)
}

// Deps wires the handlers to the backends. Reporter serves data pools,
// BootReporter serves the boot pool.
type Deps struct {
	Store        *store.Store
	Pools        *pool.Manager
	Datasets     *dataset.Manager
	Reporter     StatusReporter
	BootReporter StatusReporter
	Snapshots    *snapshot.Catalog
	BootEnvs     *bootenv.Manager
	Disks        *disk.Inventory
	Alerts       *alerts.Checker
	SnapTasks    *autosnapshots.Manager

	BootPool     string
	HiddenPrefix string
	Logger       logger.Logger
}

// Handler provides the HTTP endpoints of the agent:
//   - Pool registry, status reports and device lifecycle actions
//   - Dataset tree, creation and destruction
//   - Snapshot catalog
//   - Boot environments and the boot pool
//   - Disk inventory
//   - Replication tasks, periodic snapshot tasks and pool health alerts
type Handler struct {
	Deps
}

func NewHandler(d Deps) *Handler {
	return &Handler{Deps: d}
}

// poolSummary is one row of the pool listing.
type poolSummary struct {
	store.Volume
	Status     string                `json:"status"`
	Mountpoint string                `json:"mountpoint,omitempty"`
	Avail      uint64                `json:"avail"`
	Used       uint64                `json:"used"`
	UsedPct    int                   `json:"used_pct"`
	IsUpgraded bool                  `json:"is_upgraded"`
	Children   []dataset.DatasetNode `json:"children"`
}

// Request types

type registerPoolRequest struct {
	Name string `json:"name" binding:"required"`
}

type replaceDiskRequest struct {
	ReplaceDisk string `json:"replace_disk" binding:"required"`
}

type attachDiskRequest struct {
	Disk string `json:"disk" binding:"required"`
}

type createDatasetRequest struct {
	Name       string            `json:"name" binding:"required"`
	Properties map[string]string `json:"properties"`
}

type createBootEnvRequest struct {
	Name   string `json:"name" binding:"required"`
	Source string `json:"source"`
}

type renameBootEnvRequest struct {
	Name string `json:"name" binding:"required"`
}

type createReplicationRequest struct {
	Dataset       string `json:"dataset" binding:"required"`
	RemoteHost    string `json:"remote_host" binding:"required"`
	RemotePort    int    `json:"remote_port"`
	RemoteDataset string `json:"remote_dataset" binding:"required"`
	Enabled       *bool  `json:"enabled"`
}

type snapshotTaskRequest struct {
	Dataset   string `json:"dataset" binding:"required"`
	Recursive bool   `json:"recursive"`
	Interval  int    `json:"interval" binding:"required"`
	Begin     string `json:"begin"`
	End       string `json:"end"`
	Weekdays  []int  `json:"weekdays"`
	RetCount  int    `json:"ret_count" binding:"required"`
	RetUnit   string `json:"ret_unit" binding:"required"`
	Enabled   *bool  `json:"enabled"`
}

func (r snapshotTaskRequest) task(id int64) store.SnapshotTask {
	enabled := true
	if r.Enabled != nil {
		enabled = *r.Enabled
	}
	return store.SnapshotTask{
		ID:        id,
		Dataset:   r.Dataset,
		Recursive: r.Recursive,
		Interval:  r.Interval,
		Begin:     r.Begin,
		End:       r.End,
		Weekdays:  r.Weekdays,
		RetCount:  r.RetCount,
		RetUnit:   r.RetUnit,
		Enabled:   enabled,
	}
}
