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
	"github.com/kraklabs/devmcp/internal/shell"
)

// runCall executes the 'call' command: one tool invocation with shell
// argument syntax. The exit code is 1 when the tool reports an error.
func runCall(args []string, globals GlobalFlags) int {
	fs := flag.NewFlagSet("call", flag.ExitOnError)
	fs.SetInterspersed(false)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: devmcp call <tool> [args...]

Description:
  Run a single tool and print its result. Arguments follow the shell
  syntax: positional for tools with required parameters, key=value
  otherwise. With --json the raw tool result is printed.

Examples:
  devmcp call chat what is a goroutine
  devmcp -t github call github_repo octo/hello
  devmcp -t git call git_log limit=3
  devmcp --json -t github call get_user_info

`)
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() == 0 {
		fs.Usage()
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

	sh := shell.New(dispatcher, os.Stdout, shell.Options{})
	line := strings.Join(fs.Args(), " ")
	res, err := sh.Call(ctx, line)
	if err != nil {
		errors.FatalError(errors.NewInputError("Invalid arguments", err.Error(), "Run 'devmcp tools' to see each tool's usage"), globals.JSON)
	}

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		_ = enc.Encode(res)
	} else {
		sh.Print(fs.Arg(0), res)
	}

	if res.IsError {
		return 1
	}
	return 0
}
