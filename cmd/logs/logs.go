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

package logs

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/stratastor/burrow/config"
)

// journalUnit is the systemd unit burrow runs under when logging to stdout.
const journalUnit = "burrow.service"

func NewLogsCmd() *cobra.Command {
	var (
		follow bool
		lines  int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View Burrow server logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, cmdArgs, err := viewerFor(config.GetConfig(), lines, follow)
			if err != nil {
				return err
			}

			viewer := exec.CommandContext(cmd.Context(), name, cmdArgs...)
			viewer.Stdout = os.Stdout
			viewer.Stderr = os.Stderr
			if err := viewer.Run(); err != nil {
				return fmt.Errorf("failed to read logs: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "Number of lines to show")
	return cmd
}

// viewerFor picks tail for file logs and journalctl when the agent writes to
// stdout under systemd.
func viewerFor(cfg *config.Config, lines int, follow bool) (string, []string, error) {
	if cfg == nil {
		return "", nil, fmt.Errorf("no configuration loaded")
	}
	n := strconv.Itoa(lines)

	if cfg.Logs.Output == "stdout" {
		args := []string{"-u", journalUnit, "-n", n, "--no-pager"}
		if follow {
			args = append(args, "-f")
		}
		return "journalctl", args, nil
	}

	if _, err := os.Stat(cfg.Logs.Path); err != nil {
		return "", nil, fmt.Errorf("log file not available: %w", err)
	}
	args := []string{"-n", n}
	if follow {
		args = append(args, "-f")
	}
	return "tail", append(args, cfg.Logs.Path), nil
}
