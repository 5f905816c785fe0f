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
)

// WarmUpOutput is the JSON form of one model in 'devmcp warmup --json'.
type WarmUpOutput struct {
	Model    string `json:"model"`
	OK       bool   `json:"ok"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

// runWarmup executes the 'warmup' command, loading models into Ollama's
// memory so the first tool call does not pay the cold start. The exit code
// is 1 only when no model loaded.
func runWarmup(args []string, globals GlobalFlags) int {
	fs := flag.NewFlagSet("warmup", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: devmcp warmup [model...]

Description:
  Send a trivial prompt to each model so Ollama loads it. Without
  arguments the models from ollama.warmup in the config are used,
  falling back to the chat and code models.

  Each model may take up to the cold-start timeout (default 5m).

Examples:
  devmcp warmup
  devmcp warmup llama3.1:8b qwen2.5-coder:7b

`)
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}

	a, err := newApp(globals)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	models := fs.Args()
	if len(models) == 0 {
		models = a.cfg.WarmUpModels()
	}
	if len(models) == 0 {
		errors.FatalError(errors.NewInputError(
			"No models to warm up",
			"No model was given and none is configured",
			"Pass model names or set ollama.chat_model in .devmcp/config.yaml",
		), globals.JSON)
	}

	ctx, cancel := signalContext()
	defer cancel()

	bar := NewProgressBar(NewProgressConfig(globals), len(models), "Loading models")
	results := llm.WarmUp(ctx, a.ollama, models, func(r llm.WarmUpResult) {
		bar.Describe("Loaded " + r.Model)
		_ = bar.Add(1)
	})
	_ = bar.Finish()

	failed := llm.Failed(results)

	if globals.JSON {
		out := make([]WarmUpOutput, 0, len(results))
		for _, r := range results {
			o := WarmUpOutput{Model: r.Model, OK: r.OK(), Duration: r.Duration.Round(time.Millisecond).String()}
			if r.Err != nil {
				o.Error = r.Err.Error()
			}
			out = append(out, o)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	} else {
		ui.Header("Model Warm-up")
		for _, r := range results {
			if r.OK() {
				ui.Successf("%s %s", r.Model, ui.DimText("("+r.Duration.Round(time.Millisecond).String()+")"))
			} else {
				ui.Failure(fmt.Sprintf("%s: %v", r.Model, r.Err))
			}
		}
		fmt.Println()
		fmt.Printf("%s %s/%s\n", ui.Label("Loaded:"), ui.CountText(len(results)-len(failed)), ui.CountText(len(results)))
	}

	if len(results) > 0 && len(failed) == len(results) {
		return 1
	}
	return 0
}
