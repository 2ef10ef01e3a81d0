// Package testutil provides a scriptable command.Runner so ZFS managers can
// be tested without zfs/zpool binaries.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/stratastor/burrow/pkg/zfs/command"
)

// Call records one invocation seen by FakeRunner.
type Call struct {
	Cmd    string
	Flags  command.CommandFlags
	Args   []string
	Remote *command.SSHTarget
}

// String renders the call as "cmd arg1 arg2", handy in assertions.
func (c Call) String() string {
	return strings.TrimSpace(c.Cmd + " " + strings.Join(c.Args, " "))
}

// FakeRunner answers every invocation through Handler and records it.
// A nil Handler returns empty output and no error.
type FakeRunner struct {
	mu      sync.Mutex
	calls   []Call
	Handler func(Call) ([]byte, error)
}

var _ command.Runner = (*FakeRunner)(nil)

func (f *FakeRunner) Execute(_ context.Context, opts command.CommandOptions, cmd string, args ...string) ([]byte, error) {
	return f.record(Call{Cmd: cmd, Flags: opts.Flags, Args: args})
}

func (f *FakeRunner) ExecuteRemote(_ context.Context, target command.SSHTarget, cmd string, args ...string) ([]byte, error) {
	t := target
	return f.record(Call{Cmd: cmd, Args: args, Remote: &t})
}

func (f *FakeRunner) record(c Call) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	h := f.Handler
	f.mu.Unlock()

	if h == nil {
		return nil, nil
	}
	return h(c)
}

// Calls returns a copy of all recorded invocations.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns recorded invocations of cmd, e.g. "zfs destroy".
func (f *FakeRunner) CallsTo(cmd string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Cmd == cmd {
			out = append(out, c)
		}
	}
	return out
}

// RemoteCalls returns invocations made over ssh.
func (f *FakeRunner) RemoteCalls() []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Remote != nil {
			out = append(out, c)
		}
	}
	return out
}
