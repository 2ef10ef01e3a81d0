package serve

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"
	"github.com/stratastor/burrow/config"
	"github.com/stratastor/burrow/internal/constants"
	"github.com/stratastor/burrow/pkg/lifecycle"
	"github.com/stratastor/burrow/pkg/server"
	"github.com/stratastor/logger"
)

var (
	detached bool
	port     int
)

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Burrow server",
		Run:   runServe,
	}

	cmd.Flags().BoolVarP(&detached, "detach", "d", false, "Run as a daemon")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides server.port)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) {
	rc := config.GetConfig()
	log, err := logger.NewTag(config.NewLoggerConfig(rc), "serve")
	if err != nil {
		panic(err)
	}

	if err := config.EnsureDirectories(); err != nil {
		log.Error("Failed to create state directories", "err", err)
		os.Exit(1)
	}

	pidFile := constants.BurrowPIDFilePath
	if err := os.MkdirAll(filepath.Dir(pidFile), 0755); err != nil {
		log.Error("Failed to create PID directory", "err", err)
		os.Exit(1)
	}

	// Check for existing instance before proceeding
	if err := lifecycle.EnsureSingleInstance(pidFile); err != nil {
		log.Error("Failed to start", "err", err)
		os.Exit(1)
	}

	if detached || rc.Server.Daemonize {
		dctx := &daemon.Context{
			PidFileName: pidFile,
			PidFilePerm: 0644,
			LogFileName: rc.Logs.Path,
			LogFilePerm: 0640,
			WorkDir:     "/",
			Umask:       027,
			Args:        []string{"burrow", "serve"},
		}

		d, err := dctx.Reborn()
		if err != nil {
			log.Error("Failed to start daemon", "err", err)
			os.Exit(1)
		}

		if d != nil {
			log.Info("Burrow is running as a daemon", "pid", d.Pid)
			return
		}
		defer dctx.Release()
	}

	startServer(log, rc)
}

func startServer(log logger.Logger, cfg *config.Config) {
	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lifecycle.RegisterContextCanceller(cancel)

	lifecycle.RegisterShutdownHook(func() {
		log.Info("Shutting down server...")
		sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer scancel()
		if err := server.Shutdown(sctx); err != nil {
			log.Error("Error during server shutdown", "err", err)
		}
	})

	lifecycle.RegisterReloadHook(func() {
		log.Info("Configuration reload requested, restart to apply changes",
			"path", config.GetLoadedConfigPath())
	})

	// Start handling lifecycle signals (e.g., SIGTERM, SIGHUP)
	go lifecycle.HandleSignals(ctx)

	listen := port
	if listen == 0 {
		listen = cfg.Server.Port
	}
	log.Info("Starting Burrow server", "port", listen)
	if err := server.Start(ctx, listen); err != nil {
		log.Error("Failed to start server", "err", err)
		os.Exit(1)
	}
}
