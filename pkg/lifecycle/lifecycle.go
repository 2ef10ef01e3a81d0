// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/stratastor/burrow/pkg/errors"
)

var (
	mu            sync.Mutex
	shutdownHooks []func()
	reloadHooks   []func()
	cancel        context.CancelFunc
	exit          = os.Exit
)

// RegisterShutdownHook adds a hook run on SIGTERM/SIGINT. Hooks run in
// reverse registration order.
func RegisterShutdownHook(hook func()) {
	mu.Lock()
	defer mu.Unlock()
	shutdownHooks = append(shutdownHooks, hook)
}

// RegisterReloadHook adds a hook run on SIGHUP.
func RegisterReloadHook(hook func()) {
	mu.Lock()
	defer mu.Unlock()
	reloadHooks = append(reloadHooks, hook)
}

func RegisterContextCanceller(c context.CancelFunc) {
	mu.Lock()
	defer mu.Unlock()
	cancel = c
}

func HandleSignals(ctx context.Context) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	defer signal.Stop(stop)

	for {
		select {
		case sig := <-stop:
			switch sig {
			case syscall.SIGTERM, syscall.SIGINT:
				runShutdown()
				exit(0)
				return
			case syscall.SIGHUP:
				runReload()
			}
		case <-ctx.Done():
			return
		}
	}
}

func snapshotHooks(hooks []func()) []func() {
	mu.Lock()
	defer mu.Unlock()
	out := make([]func(), len(hooks))
	copy(out, hooks)
	return out
}

func runShutdown() {
	mu.Lock()
	c := cancel
	mu.Unlock()
	if c != nil {
		c()
	}

	hooks := snapshotHooks(shutdownHooks)
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}

func runReload() {
	for _, hook := range snapshotHooks(reloadHooks) {
		hook()
	}
}

// EnsureSingleInstance claims pidPath for the current process. A PID file
// left by a process that is no longer running is replaced.
func EnsureSingleInstance(pidPath string) error {
	if pidPath == "" {
		return errors.New(errors.LifecyclePID, "invalid PID file path")
	}

	if _, err := os.Stat(pidPath); err == nil {
		pidBytes, err := os.ReadFile(pidPath)
		if err != nil {
			return errors.Wrap(err, errors.LifecyclePID).WithMetadata("path", pidPath)
		}

		content := strings.TrimSpace(string(pidBytes))
		if content != "" {
			pid, err := strconv.Atoi(content)
			if err != nil {
				return errors.New(errors.LifecyclePID, "invalid PID format").
					WithMetadata("path", pidPath)
			}

			if process, err := os.FindProcess(pid); err == nil {
				if err := process.Signal(syscall.Signal(0)); err == nil {
					return errors.New(errors.LifecyclePID,
						fmt.Sprintf("another instance is already running (PID: %d)", pid))
				}
			}
		}
		// Stale
		os.Remove(pidPath)
	}

	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return errors.Wrap(err, errors.LifecyclePID).WithMetadata("path", pidPath)
	}

	RegisterShutdownHook(func() {
		os.Remove(pidPath)
	})

	return nil
}
