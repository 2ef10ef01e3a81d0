// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package command runs host helpers such as lsblk. zfs and zpool go through
// pkg/zfs/command, which adds sudo, flags and remote execution.
package command

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/logger"
)

// Dangerous characters that could enable command injection
const dangerousChars = "&|><$`\\[];{}"

const (
	defaultCommandTimeout = 30 * time.Second
	maxArgs               = 64
)

// ExecFunc matches ExecCommand so callers can substitute it in tests.
type ExecFunc func(ctx context.Context, logger logger.Logger, name string, args ...string) ([]byte, error)

// ExecCommand runs name with args and returns its stdout. stderr is kept
// apart so that tools emitting JSON on stdout stay parseable; on failure it
// becomes the error details.
func ExecCommand(
	ctx context.Context,
	logger logger.Logger,
	name string,
	args ...string,
) ([]byte, error) {
	if err := validateCommand(name, args); err != nil {
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultCommandTimeout)
		defer cancel()
	}

	cmdString := name + " " + strings.Join(args, " ")
	logger.Debug("Executing command", "cmd", cmdString)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = []string{"LC_ALL=C"}
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		if stderr.Len() > 0 {
			logger.Debug("Command wrote to stderr", "cmd", cmdString,
				"stderr", strings.TrimSpace(stderr.String()))
		}
		return stdout.Bytes(), nil
	}

	if ctx.Err() != nil {
		logger.Error("Command timed out", "cmd", cmdString, "err", ctx.Err())
		return nil, errors.Wrap(ctx.Err(), errors.CommandTimeout).
			WithMetadata("command", cmdString)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := strings.TrimSpace(stderr.String())
		logger.Error("Command execution failed",
			"cmd", cmdString,
			"exit_code", exitErr.ExitCode(),
			"stderr", msg)
		return stdout.Bytes(), errors.NewCommandError(cmdString, exitErr.ExitCode(), msg)
	}

	logger.Error("Command could not be started", "cmd", cmdString, "err", err)
	return nil, errors.Wrap(err, errors.CommandNotFound).
		WithMetadata("command", cmdString)
}

// validateCommand rejects names and arguments that could be interpreted by
// a shell or escape the expected paths.
func validateCommand(name string, args []string) error {
	if name == "" {
		return errors.New(errors.CommandInvalidInput, "empty command")
	}
	if !strings.HasPrefix(name, "/") && strings.ContainsAny(name, "/\\") {
		return errors.New(errors.CommandInvalidInput,
			"relative paths are not allowed for commands")
	}
	if strings.ContainsAny(name, dangerousChars) {
		return errors.New(errors.CommandInvalidInput, "command contains invalid characters")
	}
	if len(args) > maxArgs {
		return errors.New(errors.CommandInvalidInput,
			"too many arguments: "+strconv.Itoa(len(args)))
	}

	for _, arg := range args {
		if strings.ContainsAny(arg, dangerousChars) {
			return errors.New(errors.CommandInvalidInput,
				"argument contains invalid characters").WithMetadata("arg", arg)
		}
		if strings.Contains(arg, "..") {
			return errors.New(errors.CommandInvalidInput, "path traversal not allowed").
				WithMetadata("arg", arg)
		}
	}
	return nil
}
