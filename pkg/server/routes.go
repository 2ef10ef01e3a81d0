// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/burrow/config"
	"github.com/stratastor/burrow/internal/constants"
	"github.com/stratastor/burrow/internal/store"
	"github.com/stratastor/burrow/pkg/alerts"
	"github.com/stratastor/burrow/pkg/bootenv"
	"github.com/stratastor/burrow/pkg/disk"
	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/burrow/pkg/zfs/api"
	"github.com/stratastor/burrow/pkg/zfs/autosnapshots"
	"github.com/stratastor/burrow/pkg/zfs/command"
	"github.com/stratastor/burrow/pkg/zfs/dataset"
	"github.com/stratastor/burrow/pkg/zfs/pool"
	"github.com/stratastor/burrow/pkg/zfs/snapshot"
	"github.com/stratastor/burrow/pkg/zfs/topology"
	"github.com/stratastor/logger"
)

// stack holds everything the API handler depends on that needs closing or
// starting once the listener is up.
type stack struct {
	store     *store.Store
	handler   *api.Handler
	alerts    *alerts.Checker
	snapTasks *autosnapshots.Manager
}

// parseDuration treats an empty value as zero so that package defaults apply.
func parseDuration(name, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.Wrap(err, errors.ConfigInvalid).WithMetadata("key", name)
	}
	return d, nil
}

func buildStack(ctx context.Context, cfg *config.Config, l logger.Logger) (*stack, error) {
	timeout, err := parseDuration("zfs.timeout", cfg.ZFS.Timeout)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store.Path, l)
	if err != nil {
		return nil, err
	}

	executor := command.NewCommandExecutor(command.Config{
		UseSudo:  cfg.ZFS.UseSudo,
		ZFSBin:   cfg.ZFS.ZFSBin,
		ZpoolBin: cfg.ZFS.ZpoolBin,
		Timeout:  timeout,
	}, l)

	poolMgr := pool.NewManager(executor, l)
	dsMgr := dataset.NewManager(executor, l)
	inventory := disk.NewInventory(st, disk.NewLsblkScanner(l, disk.DefaultLsblkPath), l)

	peer := command.SSHTarget{
		User:           cfg.Replication.SSHUser,
		KeyFile:        cfg.Replication.SSHKey,
		ConnectTimeout: cfg.Replication.ConnectTimeout,
	}
	catalog := snapshot.NewCatalog(
		snapshot.NewZFSBackend(dsMgr),
		snapshot.NewSSHLister(executor),
		st,
		peer,
		l,
	)

	checker := alerts.NewChecker(poolMgr, l)
	snapTasks := autosnapshots.NewManager(st, catalog, l)

	h := api.NewHandler(api.Deps{
		Store:    st,
		Pools:    poolMgr,
		Datasets: dsMgr,
		Reporter: topology.NewReporter(poolMgr, inventory,
			topology.DataPoolProfile(constants.APIBase), l),
		BootReporter: topology.NewReporter(poolMgr, inventory,
			topology.BootPoolProfile(constants.APIBase), l),
		Snapshots: catalog,
		BootEnvs: bootenv.NewManager(executor, dsMgr, bootenv.Config{
			Pool:   cfg.ZFS.BootPool,
			Parent: cfg.ZFS.BEDataset,
		}, l),
		Disks:        inventory,
		Alerts:       checker,
		SnapTasks:    snapTasks,
		BootPool:     cfg.ZFS.BootPool,
		HiddenPrefix: cfg.Datasets.HiddenPrefix,
		Logger:       l,
	})

	return &stack{store: st, handler: h, alerts: checker, snapTasks: snapTasks}, nil
}

// startAlerts schedules pool health checks when enabled.
func (s *stack) startAlerts(cfg *config.Config, l logger.Logger) error {
	if !cfg.Alerts.Enabled {
		l.Info("Pool health alerts disabled")
		return nil
	}
	interval, err := parseDuration("alerts.interval", cfg.Alerts.Interval)
	if err != nil {
		return err
	}
	return s.alerts.Start(interval)
}

func (s *stack) Close() {
	if err := s.alerts.Stop(); err != nil {
		s.handler.Logger.Warn("Failed to stop alert scheduler", "err", err)
	}
	if err := s.snapTasks.Stop(); err != nil {
		s.handler.Logger.Warn("Failed to stop snapshot task scheduler", "err", err)
	}
	if err := s.store.Close(); err != nil {
		s.handler.Logger.Warn("Failed to close store", "err", err)
	}
}

func registerRoutes(engine *gin.Engine, h *api.Handler) {
	h.RegisterRoutes(engine.Group(constants.APIBase))
}
