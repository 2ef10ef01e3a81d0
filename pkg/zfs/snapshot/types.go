// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"context"

	"github.com/stratastor/burrow/internal/store"
	"github.com/stratastor/burrow/pkg/zfs/command"
)

// Replication states reported per snapshot. A snapshot whose filesystem is
// not covered by any replication task carries no state.
const (
	ReplicationOK  = "OK"  // present on every covering remote
	ReplicationNew = "NEW" // missing on at least one covering remote
)

// Record is one row of the snapshot catalog.
type Record struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Filesystem  string  `json:"filesystem"`
	Fullname    string  `json:"fullname"`
	Refer       uint64  `json:"refer"`
	Used        uint64  `json:"used"`
	MostRecent  bool    `json:"mostrecent"`
	ParentType  string  `json:"parent_type"`
	Replication *string `json:"replication"`

	createTXG uint64
}

// Local is a snapshot as enumerated on this host.
type Local struct {
	Filesystem string
	Name       string
	ParentType string // filesystem or volume
	Used       uint64
	Refer      uint64
	CreateTXG  uint64
}

// Fullname is filesystem@name.
func (l Local) Fullname() string {
	return l.Filesystem + "@" + l.Name
}

// Backend enumerates and mutates local snapshots.
type Backend interface {
	// Snapshots lists snapshots. An empty path lists every snapshot; a
	// dataset path lists that dataset's snapshots; a full snapshot name
	// lists that snapshot alone (plus siblings needed to judge recency).
	Snapshots(ctx context.Context, path string) ([]Local, error)
	Create(ctx context.Context, dataset, name string, recursive bool) error
	Destroy(ctx context.Context, fullname string) error
}

// RemoteLister enumerates snapshot names held by a replication peer.
type RemoteLister interface {
	ListRemote(ctx context.Context, target command.SSHTarget) ([]string, error)
}

// TaskSource supplies the configured replication tasks.
type TaskSource interface {
	ListReplicationTasks(ctx context.Context) ([]store.ReplicationTask, error)
}

// RemoteKey identifies a replication peer for deduplicating enumerations.
type RemoteKey struct {
	Host string
	Port int
}

// ListOptions filter and order a catalog listing.
type ListOptions struct {
	Path string
	Sort []string
}

// CreateRequest is the body accepted by the create endpoint. Recursive
// snapshots every descendant of Dataset under the same name.
type CreateRequest struct {
	Dataset   string `json:"dataset"   binding:"required"`
	Name      string `json:"name"      binding:"required"`
	Recursive bool   `json:"recursive"`
}
