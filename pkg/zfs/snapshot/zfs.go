// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/burrow/pkg/zfs/common"
	"github.com/stratastor/burrow/pkg/zfs/dataset"
)

var snapshotProperties = []string{"name", "used", "referenced"}

// ZFSBackend implements Backend over the dataset manager.
type ZFSBackend struct {
	dsManager *dataset.Manager
}

var _ Backend = (*ZFSBackend)(nil)

func NewZFSBackend(dsManager *dataset.Manager) *ZFSBackend {
	return &ZFSBackend{dsManager: dsManager}
}

func (b *ZFSBackend) Snapshots(ctx context.Context, path string) ([]Local, error) {
	cfg := dataset.ListConfig{
		Types:      []string{"filesystem", "volume", "snapshot"},
		Properties: snapshotProperties,
	}

	var exact, parent string
	switch {
	case path == "":
		cfg.Recursive = true
	case strings.Contains(path, "@"):
		ds, _, err := common.SplitSnapshot(path)
		if err != nil {
			return nil, err
		}
		exact, parent = path, ds
		cfg.Name, cfg.Depth = ds, 1
	default:
		if err := common.DatasetNameCheck(path); err != nil {
			return nil, errors.Wrap(err, errors.ZFSDatasetInvalidName)
		}
		parent = path
		cfg.Name, cfg.Depth = path, 1
	}

	result, err := b.dsManager.List(ctx, cfg)
	if err != nil {
		return nil, err
	}

	parentType := map[string]string{}
	for name, ds := range result.Datasets {
		if k := ds.Kind(); k == "filesystem" || k == "volume" {
			parentType[name] = k
		}
	}

	var out []Local
	for name, ds := range result.Datasets {
		if ds.Kind() != "snapshot" {
			continue
		}
		fs, snap, ok := strings.Cut(name, "@")
		if !ok {
			continue
		}
		if parent != "" && fs != parent {
			continue
		}
		pt := parentType[fs]
		if pt == "" {
			pt = "filesystem"
		}
		txg, _ := strconv.ParseUint(ds.CreateTXG, 10, 64)
		out = append(out, Local{
			Filesystem: fs,
			Name:       snap,
			ParentType: pt,
			Used:       ds.Uint("used"),
			Refer:      ds.Uint("referenced"),
			CreateTXG:  txg,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Filesystem != out[j].Filesystem {
			return out[i].Filesystem < out[j].Filesystem
		}
		return out[i].CreateTXG < out[j].CreateTXG
	})

	// Siblings are returned too so the caller can tell which one is newest.
	if exact != "" {
		found := false
		for _, l := range out {
			if l.Fullname() == exact {
				found = true
				break
			}
		}
		if !found {
			return nil, nil
		}
	}

	return out, nil
}

func (b *ZFSBackend) Create(ctx context.Context, ds, name string, recursive bool) error {
	return b.dsManager.CreateSnapshot(ctx, ds, name, recursive)
}

func (b *ZFSBackend) Destroy(ctx context.Context, fullname string) error {
	return b.dsManager.DestroySnapshot(ctx, fullname)
}
