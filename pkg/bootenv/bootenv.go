// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package bootenv manages boot environments: the filesystems directly below
// the configured boot environment dataset of the boot pool.
package bootenv

import (
	"context"
	"encoding/json"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/burrow/pkg/zfs/command"
	"github.com/stratastor/burrow/pkg/zfs/common"
	"github.com/stratastor/burrow/pkg/zfs/dataset"
	"github.com/stratastor/logger"
)

// Activity flags, as printed by beadm.
const (
	ActiveNow    = "N"
	ActiveReboot = "R"
	ActiveBoth   = "NR"
	Inactive     = "-"
)

// BootEnv is one boot environment.
type BootEnv struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Active  string    `json:"active"`
	Space   uint64    `json:"space"`
	Created time.Time `json:"created"`
	Dataset string    `json:"dataset"`
}

// IsActive reports whether the environment is running or will boot next.
func (b BootEnv) IsActive() bool {
	return b.Active != Inactive
}

// Config locates boot environments.
type Config struct {
	Pool   string // boot pool, e.g. bpool
	Parent string // dataset holding one filesystem per environment
}

type Manager struct {
	executor  command.Runner
	dsManager *dataset.Manager
	cfg       Config
	logger    logger.Logger
}

func NewManager(executor command.Runner, dsManager *dataset.Manager, cfg Config, l logger.Logger) *Manager {
	return &Manager{executor: executor, dsManager: dsManager, cfg: cfg, logger: l}
}

func (m *Manager) datasetOf(name string) (string, error) {
	if err := common.ComponentNameCheck(name); err != nil {
		return "", errors.Wrap(err, errors.BootEnvInvalidName).WithMetadata("name", name)
	}
	return m.cfg.Parent + "/" + name, nil
}

// List returns every boot environment ordered by name.
func (m *Manager) List(ctx context.Context) ([]BootEnv, error) {
	result, err := m.dsManager.List(ctx, dataset.ListConfig{
		Name:       m.cfg.Parent,
		Types:      []string{"filesystem"},
		Depth:      1,
		Properties: []string{"name", "used", "creation", "mounted"},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.BootEnvList)
	}

	bootfs, err := m.bootfs(ctx)
	if err != nil {
		// An unset or unreadable bootfs only loses the reboot flag.
		m.logger.Warn("Failed to read bootfs", "pool", m.cfg.Pool, "err", err)
	}

	envs := make([]BootEnv, 0, len(result.Datasets))
	for name, ds := range result.Datasets {
		if name == m.cfg.Parent || path.Dir(name) != m.cfg.Parent {
			continue
		}

		now := ds.String("mounted") == "yes"
		reboot := name == bootfs
		active := Inactive
		switch {
		case now && reboot:
			active = ActiveBoth
		case now:
			active = ActiveNow
		case reboot:
			active = ActiveReboot
		}

		be := path.Base(name)
		envs = append(envs, BootEnv{
			ID:      be,
			Name:    be,
			Active:  active,
			Space:   ds.Uint("used"),
			Created: time.Unix(int64(ds.Uint("creation")), 0).UTC(),
			Dataset: name,
		})
	}

	sort.Slice(envs, func(i, j int) bool { return envs[i].Name < envs[j].Name })
	return envs, nil
}

// Get returns the named environment.
func (m *Manager) Get(ctx context.Context, name string) (BootEnv, error) {
	if _, err := m.datasetOf(name); err != nil {
		return BootEnv{}, err
	}
	envs, err := m.List(ctx)
	if err != nil {
		return BootEnv{}, err
	}
	for _, be := range envs {
		if be.Name == name {
			return be, nil
		}
	}
	return BootEnv{}, errors.New(errors.BootEnvNotFound, name)
}

// Create clones source into a new environment called name. An empty source
// clones the environment running now.
func (m *Manager) Create(ctx context.Context, name, source string) (BootEnv, error) {
	target, err := m.datasetOf(name)
	if err != nil {
		return BootEnv{}, err
	}

	var src BootEnv
	if source == "" {
		src, err = m.current(ctx)
	} else {
		src, err = m.Get(ctx, source)
	}
	if err != nil {
		return BootEnv{}, err
	}

	if err := m.dsManager.CreateSnapshot(ctx, src.Dataset, name, false); err != nil {
		return BootEnv{}, err
	}
	if err := m.dsManager.Clone(ctx, src.Dataset+"@"+name, target); err != nil {
		return BootEnv{}, err
	}

	m.logger.Info("Boot environment created", "name", name, "source", source)
	return m.Get(ctx, name)
}

// current returns the environment the system is running from.
func (m *Manager) current(ctx context.Context) (BootEnv, error) {
	envs, err := m.List(ctx)
	if err != nil {
		return BootEnv{}, err
	}
	for _, be := range envs {
		if strings.Contains(be.Active, ActiveNow) {
			return be, nil
		}
	}
	return BootEnv{}, errors.New(errors.BootEnvNotFound, "no active boot environment")
}

// Rename renames an environment.
func (m *Manager) Rename(ctx context.Context, name, newName string) (BootEnv, error) {
	to, err := m.datasetOf(newName)
	if err != nil {
		return BootEnv{}, err
	}
	be, err := m.Get(ctx, name)
	if err != nil {
		return BootEnv{}, err
	}

	if err := m.dsManager.Rename(ctx, be.Dataset, to); err != nil {
		return BootEnv{}, errors.Wrap(err, errors.BootEnvRename).WithMetadata("name", name)
	}

	m.logger.Info("Boot environment renamed", "name", name, "new_name", newName)
	return m.Get(ctx, newName)
}

// Delete destroys an inactive environment and its snapshots.
func (m *Manager) Delete(ctx context.Context, name string) (BootEnv, error) {
	be, err := m.Get(ctx, name)
	if err != nil {
		return BootEnv{}, err
	}
	if be.IsActive() {
		return BootEnv{}, errors.New(errors.BootEnvDelete, "cannot delete active boot environment "+name)
	}

	if err := m.dsManager.Destroy(ctx, be.Dataset, true); err != nil {
		return BootEnv{}, errors.Wrap(err, errors.BootEnvDelete).WithMetadata("name", name)
	}

	m.logger.Info("Boot environment deleted", "name", name)
	return be, nil
}

// Activate makes name the environment used on next boot.
func (m *Manager) Activate(ctx context.Context, name string) (BootEnv, error) {
	be, err := m.Get(ctx, name)
	if err != nil {
		return BootEnv{}, err
	}

	if _, err := m.executor.Execute(ctx, command.CommandOptions{}, "zpool set",
		"bootfs="+be.Dataset, m.cfg.Pool); err != nil {
		return BootEnv{}, errors.Wrap(err, errors.BootEnvActivate).WithMetadata("name", name)
	}

	m.logger.Info("Boot environment activated", "name", name)
	return m.Get(ctx, name)
}

type poolProps struct {
	Pools map[string]struct {
		Properties map[string]struct {
			Value any `json:"value"`
		} `json:"properties"`
	} `json:"pools"`
}

func (m *Manager) bootfs(ctx context.Context) (string, error) {
	out, err := m.executor.Execute(ctx, command.CommandOptions{Flags: command.FlagJSON},
		"zpool get", "bootfs", m.cfg.Pool)
	if err != nil {
		return "", err
	}

	var props poolProps
	if err := json.Unmarshal(out, &props); err != nil {
		return "", errors.Wrap(err, errors.CommandOutputParse)
	}
	p, ok := props.Pools[m.cfg.Pool].Properties["bootfs"]
	if !ok {
		return "", nil
	}
	v, _ := p.Value.(string)
	if v = strings.TrimSpace(v); v == "-" {
		return "", nil
	}
	return v, nil
}
