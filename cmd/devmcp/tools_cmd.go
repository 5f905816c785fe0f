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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/devmcp/internal/errors"
	"github.com/kraklabs/devmcp/internal/ui"
)

// ToolOutput is the JSON form of one tool in 'devmcp tools --json'.
type ToolOutput struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Usage       string         `json:"usage"`
	InputSchema map[string]any `json:"inputSchema"`
}

// runTools executes the 'tools' command, listing the tools of the selected
// sets in registration order.
func runTools(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("tools", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: devmcp tools [options]

Description:
  List the tools the server would expose with the current tool set
  selection, with their usage lines. --json prints the input schemas.

Examples:
  devmcp tools
  devmcp --toolset all tools
  devmcp --json -t git tools | jq '.[].name'

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	a, err := newApp(globals)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	dispatcher, err := a.dispatcher()
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	descs := dispatcher.Registry().Descriptors()

	if globals.JSON {
		out := make([]ToolOutput, 0, len(descs))
		for _, d := range descs {
			out = append(out, ToolOutput{
				Name:        d.Name,
				Description: d.Description,
				Usage:       d.Usage(),
				InputSchema: d.InputSchema(),
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}

	ui.Header(fmt.Sprintf("Tools (%s)", strings.Join(a.sets, ", ")))
	for _, d := range descs {
		fmt.Printf("  %s\n", ui.Label(strings.TrimPrefix(d.Usage(), "Usage: ")))
		fmt.Printf("      %s\n", ui.DimText(d.Description))
	}
	fmt.Println()
	fmt.Printf("%s %s\n", ui.Label("Total:"), ui.CountText(len(descs)))
}
