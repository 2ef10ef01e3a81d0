// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"bufio"
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/burrow/pkg/zfs/command"
)

// SSHLister enumerates snapshots on a peer by running zfs list over ssh.
type SSHLister struct {
	executor command.Runner
}

var _ RemoteLister = (*SSHLister)(nil)

func NewSSHLister(executor command.Runner) *SSHLister {
	return &SSHLister{executor: executor}
}

// ListRemote returns every snapshot name on target. The whole host is
// listed once so tasks sharing a peer can reuse the result.
func (s *SSHLister) ListRemote(ctx context.Context, target command.SSHTarget) ([]string, error) {
	out, err := s.executor.ExecuteRemote(ctx, target, "zfs list", "-H", "-t", "snapshot", "-o", "name")
	if err != nil {
		return nil, errors.Wrap(err, errors.ReplicationRemoteList).
			WithMetadata("host", target.Host).
			WithMetadata("port", strconv.Itoa(target.Port))
	}

	var names []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			names = append(names, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CommandOutputParse)
	}
	return names, nil
}
