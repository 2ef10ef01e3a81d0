package command

import (
	"context"
	"strconv"

	"github.com/kballard/go-shellquote"
	"github.com/stratastor/burrow/pkg/errors"
)

// SSHTarget identifies a replication peer.
type SSHTarget struct {
	Host           string
	Port           int
	User           string
	KeyFile        string
	ConnectTimeout int // seconds
}

// ExecuteRemote runs a zfs/zpool command on target over ssh. The remote
// command line is quoted with shellquote because ssh hands it to the remote
// user's shell.
func (e *CommandExecutor) ExecuteRemote(ctx context.Context, target SSHTarget, cmd string, args ...string) ([]byte, error) {
	if err := validateCommand(cmd, args); err != nil {
		return nil, err
	}
	if target.Host == "" {
		return nil, errors.New(errors.CommandInvalidInput, "remote host is required")
	}

	argv := e.buildSSHCommand(target, cmd, args...)
	return e.run(ctx, 0, argv)
}

func (e *CommandExecutor) buildSSHCommand(target SSHTarget, cmd string, args ...string) []string {
	argv := []string{e.cfg.SSHBin, "-o", "BatchMode=yes", "-o", "StrictHostKeyChecking=accept-new"}
	if target.Port != 0 {
		argv = append(argv, "-p", strconv.Itoa(target.Port))
	}
	if target.ConnectTimeout > 0 {
		argv = append(argv, "-o", "ConnectTimeout="+strconv.Itoa(target.ConnectTimeout))
	}
	if target.KeyFile != "" {
		argv = append(argv, "-i", target.KeyFile)
	}

	dest := target.Host
	if target.User != "" {
		dest = target.User + "@" + target.Host
	}
	argv = append(argv, dest)

	// Remote side resolves zfs/zpool through its own PATH.
	words, err := shellquote.Split(cmd)
	if err != nil {
		words = []string{cmd}
	}
	words = append(words, args...)
	return append(argv, shellquote.Join(words...))
}
