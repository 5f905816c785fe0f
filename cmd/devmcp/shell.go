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
	"github.com/kraklabs/devmcp/internal/shell"
	"github.com/kraklabs/devmcp/internal/ui"
)

// runShell executes the 'shell' command: an interactive loop over the same
// tools the server exposes. Input that is not a terminal is read as a script.
func runShell(args []string, globals GlobalFlags) int {
	fs := flag.NewFlagSet("shell", flag.ExitOnError)
	prompt := fs.String("prompt", "devmcp> ", "Prompt shown when stdin is a terminal")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: devmcp shell [options]

Description:
  Read commands of the form "<tool> <args...>" and print each result.
  Tools with required parameters take them positionally, the last one
  receiving the rest of the line. Other tools take key=value pairs.

  Type "help" for the tool list and "quit" to leave.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  devmcp shell
  devmcp --toolset all shell
  printf 'git_status\ngit_log limit=3\n' | devmcp -t git shell

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

	interactive := ui.IsTerminal(os.Stdin)
	opts := shell.Options{Info: describeModels(a.cfg)}
	if interactive {
		opts.Prompt = *prompt
		ui.Header("devmcp shell")
		fmt.Printf("%s %s\n", ui.Label("Tool sets:"), strings.Join(a.sets, ", "))
		fmt.Printf("%s     %s\n", ui.Label("Tools:"), ui.CountText(dispatcher.Registry().Len()))
		fmt.Println(ui.DimText("Type 'help' for commands, 'quit' to exit."))
		fmt.Println()
	}

	sh := shell.New(dispatcher, os.Stdout, opts)

	done := make(chan error, 1)
	go func() { done <- sh.Run(ctx, os.Stdin) }()

	select {
	case err := <-done:
		if err != nil {
			errors.FatalError(errors.NewInputError("Cannot read commands", err.Error(), "Check the input stream"), globals.JSON)
		}
	case <-ctx.Done():
		fmt.Println()
	}
	if interactive {
		ui.Info("Bye.")
	}
	return 0
}
