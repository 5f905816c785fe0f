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
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/devmcp/internal/errors"
	"github.com/kraklabs/devmcp/internal/ui"
	"github.com/kraklabs/devmcp/pkg/llm"
	"github.com/kraklabs/devmcp/pkg/toolsets"
)

// ModelsOutput is the JSON form of 'devmcp models'.
type ModelsOutput struct {
	BaseURL string      `json:"base_url"`
	Models  []llm.Model `json:"models"`
}

// runModels executes the 'models' command, listing the models installed in
// the local Ollama.
func runModels(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("models", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: devmcp models

Description:
  List the models installed in the configured Ollama, with their size
  and modification date. Configured chat and code models are marked.

Examples:
  devmcp models
  devmcp --json models | jq '.models[].name'

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	a, err := newApp(globals)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	ctx, cancel := signalContext()
	defer cancel()

	models, err := a.ollama.ListModels(ctx)
	if err != nil {
		errors.FatalError(errors.NewNetworkError(
			"Cannot list Ollama models",
			"Ollama did not answer at "+a.ollama.BaseURL(),
			"Start Ollama with 'ollama serve' or set OLLAMA_HOST",
			err,
		), globals.JSON)
	}

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(ModelsOutput{BaseURL: a.ollama.BaseURL(), Models: models})
		return
	}

	ui.Header("Installed Models")
	if len(models) == 0 {
		ui.Warning("No models installed.")
		ui.Infof("Pull one with 'ollama pull %s'.", a.cfg.Ollama.ChatModel)
		return
	}
	for _, m := range models {
		mark := "  "
		switch m.Name {
		case a.cfg.Ollama.ChatModel, a.cfg.Ollama.CodeModel:
			mark = ui.Green.Sprint("* ")
		}
		modified := ""
		if !m.ModifiedAt.IsZero() {
			modified = m.ModifiedAt.Format(time.DateOnly)
		}
		fmt.Printf("%s%-32s %10s  %s\n", mark, m.Name, toolsets.HumanSize(m.Size), ui.DimText(modified))
	}
	fmt.Println()
	fmt.Printf("%s %s\n", ui.Label("Total:"), ui.CountText(len(models)))
}
