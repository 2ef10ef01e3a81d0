package command

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/logger"
)

// Runner is the seam between the ZFS managers and the zfs/zpool binaries.
// CommandExecutor is the production implementation; tests substitute fakes.
type Runner interface {
	Execute(ctx context.Context, opts CommandOptions, cmd string, args ...string) ([]byte, error)
	ExecuteRemote(ctx context.Context, target SSHTarget, cmd string, args ...string) ([]byte, error)
}

// Config selects binaries and defaults for a CommandExecutor.
type Config struct {
	UseSudo  bool
	ZFSBin   string
	ZpoolBin string
	SSHBin   string
	Timeout  time.Duration // Default command timeout
}

// CommandExecutor provides safe execution of ZFS commands
type CommandExecutor struct {
	cfg    Config
	logger logger.Logger
}

// CommandFlags represents supported command flags
type CommandFlags uint8

const (
	FlagJSON      CommandFlags = 1 << iota // -j for JSON output
	FlagParsable                           // -p for parsable output
	FlagRecursive                          // -r for recursive operations
	FlagForce                              // -f to force operation
	FlagNoHeaders                          // -H to disable output headers
)

// CommandOptions configures command execution
type CommandOptions struct {
	Flags   CommandFlags  // Command flags to apply
	Timeout time.Duration // Command-specific timeout
}

func NewCommandExecutor(cfg Config, l logger.Logger) *CommandExecutor {
	if cfg.ZFSBin == "" {
		cfg.ZFSBin = DefaultZFSBin
	}
	if cfg.ZpoolBin == "" {
		cfg.ZpoolBin = DefaultZpoolBin
	}
	if cfg.SSHBin == "" {
		cfg.SSHBin = DefaultSSHBin
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &CommandExecutor{cfg: cfg, logger: l}
}

func (e *CommandExecutor) Execute(ctx context.Context, opts CommandOptions, cmd string, args ...string) ([]byte, error) {
	if err := validateCommand(cmd, args); err != nil {
		return nil, err
	}
	cmdArgs := e.buildCommandArgs(cmd, opts, args...)
	return e.run(ctx, opts.Timeout, cmdArgs)
}

// run executes argv and maps failures onto command errors. stderr becomes
// the error details so the backend message reaches API clients verbatim.
func (e *CommandExecutor) run(ctx context.Context, timeout time.Duration, cmdArgs []string) ([]byte, error) {
	if timeout == 0 {
		timeout = e.cfg.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	execCmd := exec.CommandContext(ctx, cmdArgs[0], cmdArgs[1:]...)
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	cmdline := strings.Join(cmdArgs, " ")
	e.logger.Debug("Executing command", "cmd", cmdline)

	if err := execCmd.Start(); err != nil {
		return nil, errors.NewCommandError(cmdline, -1,
			fmt.Sprintf("failed to start command: %v", err))
	}

	err := execCmd.Wait()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, errors.New(errors.CommandTimeout, "command execution timed out").
			WithMetadata("command", cmdline)
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, errors.NewCommandError(cmdline, exitErr.ExitCode(),
				strings.TrimSpace(stderr.String()))
		}
		return nil, errors.Wrap(err, errors.CommandExecution).WithMetadata("command", cmdline)
	}

	return stdout.Bytes(), nil
}

func (e *CommandExecutor) buildCommandArgs(cmd string, opts CommandOptions, args ...string) []string {
	var cmdArgs []string

	if e.cfg.UseSudo && SudoRequiredCommands[cmd] {
		cmdArgs = append(cmdArgs, "sudo")
	}

	switch {
	case strings.HasPrefix(cmd, "zfs"):
		cmdArgs = append(cmdArgs, e.cfg.ZFSBin)
	case strings.HasPrefix(cmd, "zpool"):
		cmdArgs = append(cmdArgs, e.cfg.ZpoolBin)
	}

	parts := strings.SplitN(cmd, " ", 2)
	if len(parts) > 1 {
		cmdArgs = append(cmdArgs, parts[1])
	}

	cmdArgs = append(cmdArgs, flagArgs(cmd, opts.Flags)...)
	return append(cmdArgs, args...)
}

func flagArgs(cmd string, flags CommandFlags) []string {
	var out []string
	if flags&FlagJSON != 0 && JSONSupportedCommands[cmd] {
		out = append(out, "-j")
	}
	if flags&FlagParsable != 0 {
		out = append(out, "-p")
	}
	if flags&FlagRecursive != 0 {
		out = append(out, "-r")
	}
	if flags&FlagForce != 0 {
		out = append(out, "-f")
	}
	if flags&FlagNoHeaders != 0 {
		out = append(out, "-H")
	}
	return out
}

// validateCommand checks command and args for security
func validateCommand(cmd string, args []string) error {
	name, sub, _ := strings.Cut(cmd, " ")
	if (name != "zfs" && name != "zpool") || sub == "" || strings.ContainsAny(sub, " "+dangerousChars) {
		return errors.New(errors.CommandNotFound,
			"only zfs and zpool subcommands are allowed").WithMetadata("command", cmd)
	}

	if len(args) > maxCommandArgs {
		return errors.New(errors.CommandInvalidInput,
			fmt.Sprintf("too many arguments: %d", len(args)))
	}

	for _, arg := range args {
		if strings.ContainsAny(arg, dangerousChars) {
			return errors.New(errors.CommandInvalidInput,
				"argument contains invalid characters").WithMetadata("arg", arg)
		}
		if strings.Contains(arg, "..") {
			return errors.New(errors.CommandInvalidInput,
				"argument contains path traversal").WithMetadata("arg", arg)
		}
	}

	return nil
}
