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

package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/burrow/pkg/zfs/command"
	"github.com/stratastor/burrow/pkg/zfs/common"
	"github.com/stratastor/logger"
)

// Manager handles ZFS dataset operations
type Manager struct {
	executor command.Runner
	logger   logger.Logger
}

func NewManager(executor command.Runner, l logger.Logger) *Manager {
	return &Manager{executor: executor, logger: l}
}

// ValidateName rejects filesystem and volume names zfs would refuse.
func ValidateName(name string) error {
	if err := common.DatasetNameCheck(name); err != nil {
		return errors.Wrap(err, errors.ZFSDatasetInvalidName).WithMetadata("name", name)
	}
	return nil
}

// List returns datasets as printed by `zfs list -j -p`.
func (m *Manager) List(ctx context.Context, cfg ListConfig) (ListResult, error) {
	args := []string{"-p"}

	types := cfg.Types
	if len(types) == 0 {
		types = []string{"filesystem", "volume"}
	}
	args = append(args, "-t", strings.Join(types, ","))

	if cfg.Recursive {
		args = append(args, "-r")
	}
	if cfg.Depth > 0 {
		args = append(args, "-d", fmt.Sprintf("%d", cfg.Depth))
	}
	if len(cfg.Properties) > 0 {
		args = append(args, "-o", strings.Join(cfg.Properties, ","))
	}
	if cfg.Name != "" {
		args = append(args, cfg.Name)
	}

	opts := command.CommandOptions{
		Flags: command.FlagJSON,
	}

	result := ListResult{}

	out, err := m.executor.Execute(ctx, opts, "zfs list", args...)
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			return result, errors.Wrap(err, errors.ZFSDatasetNotFound).WithMetadata("name", cfg.Name)
		}
		return result, errors.Wrap(err, errors.ZFSDatasetList)
	}

	if err := json.Unmarshal(out, &result); err != nil {
		return ListResult{}, errors.Wrap(err, errors.CommandOutputParse)
	}
	if result.Datasets == nil {
		result.Datasets = map[string]Dataset{}
	}

	return result, nil
}

// treeProperties are the columns needed to build a dataset tree.
var treeProperties = []string{"name", "used", "available", "referenced", "mountpoint"}

// Tree returns the datasets below pool nested by path. The returned map
// holds the direct children of the pool's root dataset keyed by path.
func (m *Manager) Tree(ctx context.Context, pool string) (map[string]*Entry, error) {
	root, err := m.Root(ctx, pool)
	if err != nil {
		return nil, err
	}
	return root.Children, nil
}

// Root returns the root dataset of pool with every dataset below it nested
// by path.
func (m *Manager) Root(ctx context.Context, pool string) (*Entry, error) {
	if err := ValidateName(pool); err != nil {
		return nil, err
	}

	result, err := m.List(ctx, ListConfig{
		Name:       pool,
		Types:      []string{"filesystem", "volume"},
		Recursive:  true,
		Properties: treeProperties,
	})
	if err != nil {
		return nil, err
	}

	return nest(pool, result.Datasets), nil
}

// Create creates a filesystem.
func (m *Manager) Create(ctx context.Context, cfg CreateConfig) error {
	if err := ValidateName(cfg.Name); err != nil {
		return err
	}

	args := []string{}
	if cfg.Parents {
		args = append(args, "-p")
	}
	keys := make([]string, 0, len(cfg.Properties))
	for k := range cfg.Properties {
		if !common.IsSettableDatasetProperty(k) {
			return errors.New(errors.ZFSPropertyInvalid, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-o", fmt.Sprintf("%s=%s", k, cfg.Properties[k]))
	}
	args = append(args, cfg.Name)

	if _, err := m.executor.Execute(ctx, command.CommandOptions{}, "zfs create", args...); err != nil {
		return errors.Wrap(err, errors.ZFSDatasetCreate).WithMetadata("name", cfg.Name)
	}

	m.logger.Info("Dataset created", "name", cfg.Name)
	return nil
}

// Destroy removes a filesystem or volume. Pool roots cannot be destroyed
// here.
func (m *Manager) Destroy(ctx context.Context, name string, recursive bool) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if !strings.Contains(name, "/") {
		return errors.New(errors.ZFSDatasetInvalidName, "refusing to destroy pool root "+name)
	}

	args := []string{}
	if recursive {
		args = append(args, "-r")
	}
	args = append(args, name)

	if _, err := m.executor.Execute(ctx, command.CommandOptions{}, "zfs destroy", args...); err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			return errors.Wrap(err, errors.ZFSDatasetNotFound).WithMetadata("name", name)
		}
		return errors.Wrap(err, errors.ZFSDatasetDestroy).WithMetadata("name", name)
	}

	m.logger.Info("Dataset destroyed", "name", name, "recursive", recursive)
	return nil
}

// Rename renames a dataset.
func (m *Manager) Rename(ctx context.Context, name, newName string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ValidateName(newName); err != nil {
		return err
	}

	if _, err := m.executor.Execute(ctx, command.CommandOptions{}, "zfs rename", name, newName); err != nil {
		return errors.Wrap(err, errors.ZFSDatasetRename).
			WithMetadata("name", name).
			WithMetadata("new_name", newName)
	}
	return nil
}

// Clone creates target from snapshot.
func (m *Manager) Clone(ctx context.Context, snapshot, target string) error {
	if err := common.SnapshotNameCheck(snapshot); err != nil {
		return err
	}
	if err := ValidateName(target); err != nil {
		return err
	}
	if _, err := m.executor.Execute(ctx, command.CommandOptions{}, "zfs clone", snapshot, target); err != nil {
		return errors.Wrap(err, errors.ZFSDatasetCreate).
			WithMetadata("snapshot", snapshot).
			WithMetadata("name", target)
	}
	return nil
}

// CreateSnapshot creates dataset@name.
func (m *Manager) CreateSnapshot(ctx context.Context, ds, name string, recursive bool) error {
	if err := ValidateName(ds); err != nil {
		return err
	}
	if err := common.ComponentNameCheck(name); err != nil {
		return errors.Wrap(err, errors.ZFSSnapshotInvalidName).WithMetadata("name", name)
	}

	args := []string{}
	if recursive {
		args = append(args, "-r")
	}
	args = append(args, ds+"@"+name)

	if _, err := m.executor.Execute(ctx, command.CommandOptions{}, "zfs snapshot", args...); err != nil {
		return errors.Wrap(err, errors.ZFSSnapshotFailed).
			WithMetadata("dataset", ds).
			WithMetadata("name", name)
	}

	m.logger.Info("Snapshot created", "snapshot", ds+"@"+name)
	return nil
}

// DestroySnapshot destroys a single snapshot. Names without '@' are
// rejected so a filesystem can never be destroyed through this path.
func (m *Manager) DestroySnapshot(ctx context.Context, fullname string) error {
	if err := common.SnapshotNameCheck(fullname); err != nil {
		return err
	}

	if _, err := m.executor.Execute(ctx, command.CommandOptions{}, "zfs destroy", fullname); err != nil {
		if strings.Contains(err.Error(), "could not find any snapshots") ||
			strings.Contains(err.Error(), "does not exist") {
			return errors.Wrap(err, errors.ZFSSnapshotNotFound).WithMetadata("snapshot", fullname)
		}
		return errors.Wrap(err, errors.ZFSSnapshotDestroy).WithMetadata("snapshot", fullname)
	}

	m.logger.Info("Snapshot destroyed", "snapshot", fullname)
	return nil
}
