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

package pool

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/burrow/pkg/zfs/command"
	"github.com/stratastor/burrow/pkg/zfs/common"
	"github.com/stratastor/burrow/pkg/zfs/topology"
	"github.com/stratastor/logger"
)

// Manager manages ZFS pool operations
type Manager struct {
	executor command.Runner
	logger   logger.Logger
}

var _ topology.Describer = (*Manager)(nil)

func NewManager(executor command.Runner, l logger.Logger) *Manager {
	return &Manager{executor: executor, logger: l}
}

func validatePoolName(name string) error {
	if err := common.PoolNameCheck(name); err != nil {
		return errors.Wrap(err, errors.ZFSPoolInvalidName)
	}
	return nil
}

// Status runs `zpool status -j` for name, or for every pool when name is
// empty.
func (p *Manager) Status(ctx context.Context, name string) (PoolStatus, error) {
	var args []string
	if name != "" {
		if err := validatePoolName(name); err != nil {
			return PoolStatus{}, err
		}
		args = append(args, name)
	}

	opts := command.CommandOptions{
		Flags: command.FlagJSON,
	}

	var status PoolStatus

	out, err := p.executor.Execute(ctx, opts, "zpool status", args...)
	if err != nil {
		if errors.Is(err, errors.CommandExecution) && strings.Contains(err.Error(), "no such pool") {
			return status, errors.Wrap(err, errors.ZFSPoolNotFound).WithMetadata("pool", name)
		}
		return status, errors.Wrap(err, errors.ZFSPoolStatus)
	}

	if err := json.Unmarshal(out, &status); err != nil {
		return status, errors.Wrap(err, errors.CommandOutputParse).
			WithMetadata("output", string(out))
	}

	return status, nil
}

// Describe returns the topology of pool name.
func (p *Manager) Describe(ctx context.Context, name string) (*topology.PoolDescription, error) {
	status, err := p.Status(ctx, name)
	if err != nil {
		return nil, err
	}
	pool, ok := status.Pools[name]
	if !ok {
		return nil, errors.New(errors.ZFSPoolNotFound, name)
	}
	return toDescription(pool), nil
}

// Health summarizes one pool for alerting.
type Health struct {
	Name    string `json:"name"`
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

// Health reports the state of every imported pool, sorted by name.
func (p *Manager) Health(ctx context.Context) ([]Health, error) {
	status, err := p.Status(ctx, "")
	if err != nil {
		return nil, err
	}

	out := make([]Health, 0, len(status.Pools))
	for name, pool := range status.Pools {
		out = append(out, Health{Name: name, State: pool.State, Message: pool.Status})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Scrub starts/stops a scrub on a pool
func (p *Manager) Scrub(ctx context.Context, name string, stop bool) error {
	if err := validatePoolName(name); err != nil {
		return err
	}
	var args []string
	if stop {
		args = append(args, "-s")
	}
	args = append(args, name)

	if _, err := p.executor.Execute(ctx, command.CommandOptions{}, "zpool scrub", args...); err != nil {
		return errors.Wrap(err, errors.ZFSPoolScrubFailed).WithMetadata("pool", name)
	}
	return nil
}

// deviceOp runs one of the zpool device subcommands.
func (p *Manager) deviceOp(ctx context.Context, subcmd, pool string, args ...string) error {
	if err := validatePoolName(pool); err != nil {
		return err
	}
	for _, a := range args {
		if a == "" {
			return errors.New(errors.ServerRequestValidation, "device label is required")
		}
	}

	full := append([]string{pool}, args...)
	if _, err := p.executor.Execute(ctx, command.CommandOptions{}, "zpool "+subcmd, full...); err != nil {
		return errors.Wrap(err, errors.ZFSPoolDeviceOperation).
			WithMetadata("pool", pool).
			WithMetadata("operation", subcmd)
	}
	p.logger.Info("Pool device operation", "op", subcmd, "pool", pool, "args", strings.Join(args, " "))
	return nil
}

// Offline takes a device offline.
func (p *Manager) Offline(ctx context.Context, pool, label string) error {
	return p.deviceOp(ctx, "offline", pool, label)
}

// Online brings a device back online.
func (p *Manager) Online(ctx context.Context, pool, label string) error {
	return p.deviceOp(ctx, "online", pool, label)
}

// Detach removes a device from a mirror or a replacing/spare group.
func (p *Manager) Detach(ctx context.Context, pool, label string) error {
	return p.deviceOp(ctx, "detach", pool, label)
}

// Remove removes a top-level vdev, cache or spare device, or a log group.
func (p *Manager) Remove(ctx context.Context, pool, label string) error {
	return p.deviceOp(ctx, "remove", pool, label)
}

// Replace replaces label with newDevice.
func (p *Manager) Replace(ctx context.Context, pool, label, newDevice string) error {
	return p.deviceOp(ctx, "replace", pool, label, newDevice)
}

// Attach attaches newDevice to the vdev containing label, creating or
// widening a mirror.
func (p *Manager) Attach(ctx context.Context, pool, label, newDevice string) error {
	return p.deviceOp(ctx, "attach", pool, label, newDevice)
}

// IsPoolScrubbing returns true if pool is currently scrubbing
func (p *Manager) IsPoolScrubbing(ctx context.Context, poolName string) (bool, error) {
	status, err := p.Status(ctx, poolName)
	if err != nil {
		return false, err
	}

	if pool, exists := status.Pools[poolName]; exists && pool.ScanStats != nil {
		return pool.ScanStats.Function == "SCRUB" && pool.ScanStats.State == "SCANNING", nil
	}
	return false, nil
}

// Properties returns every property of pool name as raw values.
func (p *Manager) Properties(ctx context.Context, name string) (map[string]string, error) {
	if err := validatePoolName(name); err != nil {
		return nil, err
	}

	opts := command.CommandOptions{Flags: command.FlagJSON | command.FlagParsable}
	out, err := p.executor.Execute(ctx, opts, "zpool get", "all", name)
	if err != nil {
		if errors.Is(err, errors.CommandExecution) && strings.Contains(err.Error(), "no such pool") {
			return nil, errors.Wrap(err, errors.ZFSPoolNotFound).WithMetadata("pool", name)
		}
		return nil, errors.Wrap(err, errors.ZFSPoolProperties).WithMetadata("pool", name)
	}

	var doc PoolProperties
	if err := json.Unmarshal(out, &doc); err != nil {
		return nil, errors.Wrap(err, errors.CommandOutputParse).
			WithMetadata("output", string(out))
	}
	entry, ok := doc.Pools[name]
	if !ok {
		return nil, errors.New(errors.ZFSPoolNotFound, name)
	}

	props := make(map[string]string, len(entry.Properties))
	for k, v := range entry.Properties {
		props[k] = v.Value
	}
	return props, nil
}

// IsUpgraded reports whether pool name uses feature flags with every
// feature enabled. Legacy version numbered pools are never upgraded.
func (p *Manager) IsUpgraded(ctx context.Context, name string) (bool, error) {
	props, err := p.Properties(ctx, name)
	if err != nil {
		return false, err
	}
	return isUpgraded(props), nil
}

func isUpgraded(props map[string]string) bool {
	if v := props["version"]; v != "-" && v != "" {
		return false
	}
	for k, v := range props {
		if !strings.HasPrefix(k, "feature@") {
			continue
		}
		if v != "enabled" && v != "active" {
			return false
		}
	}
	return true
}

// Upgrade enables every supported feature on pool name.
func (p *Manager) Upgrade(ctx context.Context, name string) error {
	if err := validatePoolName(name); err != nil {
		return err
	}
	if _, err := p.executor.Execute(ctx, command.CommandOptions{}, "zpool upgrade", name); err != nil {
		return errors.Wrap(err, errors.ZFSPoolUpgradeFailed).WithMetadata("pool", name)
	}
	p.logger.Info("Pool upgraded", "pool", name)
	return nil
}
