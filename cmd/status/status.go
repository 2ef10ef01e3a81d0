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

package status

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/stratastor/burrow/config"
	"github.com/stratastor/burrow/internal/constants"
	"github.com/stratastor/burrow/pkg/httpclient"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type volume struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// node is the subset of the pool status document the CLI prints.
type node struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Status   string  `json:"status"`
	Read     uint64  `json:"read"`
	Write    uint64  `json:"write"`
	Cksum    uint64  `json:"cksum"`
	Children []*node `json:"children"`
}

func NewStatusCmd() *cobra.Command {
	var pidOnly bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show Burrow server and pool status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(constants.BurrowPIDFilePath); err != nil {
				fmt.Println("Burrow server is not running")
				return nil
			}
			fmt.Println("Burrow server is running")
			if pidOnly {
				return nil
			}

			cfg := config.GetConfig()
			clientConfig := httpclient.NewClientConfig()
			clientConfig.Timeout = 10 * time.Second
			clientConfig.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
			client := httpclient.NewClient(clientConfig)

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			return printPools(ctx, client, os.Stdout)
		},
	}

	cmd.Flags().BoolVar(&pidOnly, "pid-only", false, "Only check the PID file")
	return cmd
}

func printPools(ctx context.Context, client *httpclient.Client, w io.Writer) error {
	var volumes []volume
	if _, err := client.GetJSON(ctx, constants.APIPools, &volumes); err != nil {
		return err
	}
	if len(volumes) == 0 {
		fmt.Fprintln(w, "No pools registered")
		return nil
	}

	p := message.NewPrinter(language.English)
	for _, v := range volumes {
		var docs []*node
		path := fmt.Sprintf("%s/%d/status", constants.APIPools, v.ID)
		if _, err := client.GetJSON(ctx, path, &docs); err != nil {
			fmt.Fprintf(w, "%s: %v\n", v.Name, err)
			continue
		}
		for _, doc := range docs {
			renderTree(w, p, doc, 0)
		}
	}
	return nil
}

// renderTree prints one line per node, children indented below parents.
// Error counters use grouped digits.
func renderTree(w io.Writer, p *message.Printer, n *node, depth int) {
	if n == nil {
		return
	}
	name := strings.Repeat("  ", depth) + n.Name
	fmt.Fprint(w, p.Sprintf("%-32s %-10s %8d %8d %8d\n", name, n.Status, n.Read, n.Write, n.Cksum))
	for _, c := range n.Children {
		renderTree(w, p, c, depth+1)
	}
}
