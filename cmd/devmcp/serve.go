// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/devmcp/internal/errors"
	"github.com/kraklabs/devmcp/internal/mcp"
)

const serverName = "devmcp"

// runServe executes the 'serve' command (also --mcp): a JSON-RPC tool
// server reading one request per line on stdin and writing one response per
// line on stdout. Logs go to stderr only.
//
// Returns the process exit code.
func runServe(args []string, globals GlobalFlags) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: devmcp serve [options]

Description:
  Serve the selected tool sets over JSON-RPC 2.0 on stdin/stdout, one
  JSON object per line. This is the mode MCP clients launch:

    {
      "mcpServers": {
        "devmcp": { "command": "devmcp", "args": ["--mcp", "--toolset", "ollama"] }
      }
    }

  Supported methods: initialize, tools/list, tools/call.
  Nothing but responses is written to stdout.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  devmcp serve
  devmcp --toolset github,git serve
  devmcp --metrics-addr :9464 --mcp

`)
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}

	a, err := newApp(globals)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	dispatcher, err := a.dispatcher()
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	ctx, cancel := signalContext()
	defer cancel()

	a.serveMetrics(ctx, globals.MetricsAddr)

	server := mcp.NewServer(dispatcher, mcp.Info{Name: serverName, Version: version}, a.logger)
	a.logger.Info("mcp.start",
		"toolsets", strings.Join(a.sets, ","),
		"tools", dispatcher.Registry().Len(),
		"version", version,
	)

	// Serve may be blocked reading stdin when the signal arrives, so the
	// command does not wait for it; Shutdown only waits for a request that
	// is already being answered.
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, os.Stdin, os.Stdout) }()

	select {
	case err := <-done:
		if err != nil {
			a.logger.Error("mcp.stop", "err", err)
			return 1
		}
		a.logger.Info("mcp.stop", "reason", "end of input")
	case <-ctx.Done():
		server.Shutdown()
		a.logger.Info("mcp.stop", "reason", "signal")
	}
	return 0
}
