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

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/kraklabs/devmcp/internal/errors"
	"github.com/kraklabs/devmcp/internal/ui"
)

// runConfig executes the 'config' command, printing the effective
// configuration after file, .env and environment overrides. Secrets are
// masked.
func runConfig(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	showPath := fs.Bool("path", false, "Only print the path of the loaded config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: devmcp config [options]

Description:
  Print the effective configuration as YAML (or JSON with --json).
  Values from GITHUB_TOKEN, GROQ_API_KEY, OLLAMA_HOST and the other
  environment variables are applied. Tokens are masked.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  devmcp config
  devmcp config --path
  devmcp --json config | jq '.ollama'

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	a, err := newApp(globals)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if *showPath {
		if a.cfg.Path == "" {
			ui.Warning("No config file found; using defaults.")
			return
		}
		fmt.Println(a.cfg.Path)
		return
	}

	data, err := yaml.Marshal(a.cfg.Redacted())
	if err != nil {
		errors.FatalError(errors.NewInternalError("Cannot encode configuration", "YAML marshaling failed", "", err), globals.JSON)
	}

	if !globals.JSON {
		if a.cfg.Path != "" {
			fmt.Println(ui.DimText("# " + a.cfg.Path))
		} else {
			fmt.Println(ui.DimText("# defaults (no config file)"))
		}
		fmt.Print(string(data))
		return
	}

	// Round-trip through YAML so JSON keys and durations match the file.
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		errors.FatalError(errors.NewInternalError("Cannot encode configuration", "YAML decoding failed", "", err), globals.JSON)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(doc)
}
