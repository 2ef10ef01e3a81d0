// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package disk maintains the disk inventory and resolves pool devices onto
// inventory entries.
package disk

import (
	"context"
	"strings"

	"github.com/stratastor/burrow/internal/store"
	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/burrow/pkg/zfs/topology"
	"github.com/stratastor/logger"
)

const multipathPrefix = "multipath/"

// Store is the subset of the SQLite store the inventory needs.
type Store interface {
	ListDisks(ctx context.Context, f store.DiskFilter) ([]store.Disk, error)
	DisksByName(ctx context.Context, name string) ([]store.Disk, error)
	DisksByMultipath(ctx context.Context, name string) ([]store.Disk, error)
	GetDisk(ctx context.Context, id int64) (store.Disk, error)
	UpdateDisk(ctx context.Context, id int64, u store.DiskUpdate) (store.Disk, error)
	SyncDisk(ctx context.Context, d store.Disk) (store.Disk, bool, error)
	DisableDisksExcept(ctx context.Context, keep []string) (int64, error)
}

// Inventory is the disk inventory.
type Inventory struct {
	store   Store
	scanner Scanner
	logger  logger.Logger
}

var _ topology.DiskResolver = (*Inventory)(nil)

// NewInventory builds an inventory. scanner may be nil, in which case Sync
// is unavailable.
func NewInventory(s Store, scanner Scanner, l logger.Logger) *Inventory {
	return &Inventory{store: s, scanner: scanner, logger: l}
}

// Lookup returns the inventory entry backing device name. Enabled entries
// win over stale ones; "multipath/<node>" resolves through the members of
// that multipath node.
func (inv *Inventory) Lookup(ctx context.Context, name string) (store.Disk, bool, error) {
	if name == "" {
		return store.Disk{}, false, nil
	}

	var (
		disks []store.Disk
		err   error
	)
	if node, ok := strings.CutPrefix(name, multipathPrefix); ok {
		disks, err = inv.store.DisksByMultipath(ctx, node)
	} else {
		disks, err = inv.store.DisksByName(ctx, name)
	}
	if err != nil {
		return store.Disk{}, false, errors.Wrap(err, errors.DiskInventoryFailed).WithMetadata("name", name)
	}
	if len(disks) == 0 {
		return store.Disk{}, false, nil
	}
	return disks[0], true, nil
}

// ResolveDisk implements topology.DiskResolver.
func (inv *Inventory) ResolveDisk(ctx context.Context, name string) (int64, bool, error) {
	d, found, err := inv.Lookup(ctx, name)
	if err != nil || !found {
		return 0, found, err
	}
	return d.ID, true, nil
}

// List returns enabled disks, hiding multipath members and nodes.
func (inv *Inventory) List(ctx context.Context) ([]store.Disk, error) {
	return inv.store.ListDisks(ctx, store.DiskFilter{EnabledOnly: true, HideMultipath: true})
}

func (inv *Inventory) Get(ctx context.Context, id int64) (store.Disk, error) {
	return inv.store.GetDisk(ctx, id)
}

func (inv *Inventory) Update(ctx context.Context, id int64, u store.DiskUpdate) (store.Disk, error) {
	d, err := inv.store.UpdateDisk(ctx, id, u)
	if err != nil {
		return store.Disk{}, err
	}
	inv.logger.Info("Disk updated", "id", id, "name", d.Name)
	return d, nil
}

// SyncResult summarizes one inventory sync.
type SyncResult struct {
	Seen     int   `json:"seen"`
	Added    int   `json:"added"`
	Disabled int64 `json:"disabled"`
}

// Sync records every attached disk and disables entries for disks that are
// gone. Disabled entries stay in the store so that pool devices still
// referencing them keep resolving to the newest enabled match.
func (inv *Inventory) Sync(ctx context.Context) (SyncResult, error) {
	if inv.scanner == nil {
		return SyncResult{}, errors.New(errors.DiskInventoryFailed, "no disk scanner configured")
	}

	devices, err := inv.scanner.Scan(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	res := SyncResult{Seen: len(devices)}
	keep := make([]string, 0, len(devices))
	for _, bd := range devices {
		ident := bd.Identifier()
		_, created, err := inv.store.SyncDisk(ctx, store.Disk{
			Name:          bd.Name,
			Serial:        deref(bd.Serial),
			Identifier:    ident,
			Description:   bd.Description(),
			Size:          int64(bd.Size),
			MultipathName: bd.MultipathNode(),
		})
		if err != nil {
			return res, err
		}
		if created {
			res.Added++
		}
		keep = append(keep, ident)
	}

	if res.Disabled, err = inv.store.DisableDisksExcept(ctx, keep); err != nil {
		return res, err
	}

	inv.logger.Info("Disk inventory synced",
		"seen", res.Seen, "added", res.Added, "disabled", res.Disabled)
	return res, nil
}
