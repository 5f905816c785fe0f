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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/devmcp/internal/errors"
	"github.com/kraklabs/devmcp/internal/ui"
	"github.com/kraklabs/devmcp/pkg/llm"
	"github.com/kraklabs/devmcp/pkg/toolsets"
)

// CheckResult is the outcome of probing one backend.
type CheckResult struct {
	Backend string `json:"backend"`
	OK      bool   `json:"ok"`
	Detail  string `json:"detail"`
	Hint    string `json:"hint,omitempty"`
}

// StatusResult is the JSON form of 'devmcp status'.
type StatusResult struct {
	Version   string        `json:"version"`
	Config    string        `json:"config,omitempty"`
	Toolsets  []string      `json:"toolsets"`
	Checks    []CheckResult `json:"checks"`
	Timestamp time.Time     `json:"timestamp"`
}

// runStatus executes the 'status' command. Only the backends of the
// selected tool sets are probed; the exit code is 1 if any probe failed.
func runStatus(args []string, globals GlobalFlags) int {
	fs := flag.NewFlagSet("status", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: devmcp status

Description:
  Check that the backends behind the selected tool sets are usable:

    ollama   server reachable, chat and code models installed
    github   token present and accepted
    git      git binary runs
    groq     API key present (no request is sent)

Examples:
  devmcp status
  devmcp --toolset all status
  devmcp --json status | jq '.checks[] | select(.ok == false)'

`)
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}

	a, err := newApp(globals)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	ctx, cancel := signalContext()
	defer cancel()

	result := &StatusResult{
		Version:   version,
		Config:    a.cfg.Path,
		Toolsets:  a.sets,
		Timestamp: time.Now(),
	}
	for _, set := range a.sets {
		switch set {
		case toolsets.Ollama:
			result.Checks = append(result.Checks, a.checkOllama(ctx)...)
		case toolsets.GitHub:
			result.Checks = append(result.Checks, a.checkGitHub(ctx))
		case toolsets.Git:
			result.Checks = append(result.Checks, a.checkGit(ctx))
		case toolsets.Groq:
			result.Checks = append(result.Checks, a.checkGroq())
		}
	}

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printStatus(result)
	}

	if lo.SomeBy(result.Checks, func(c CheckResult) bool { return !c.OK }) {
		return 1
	}
	return 0
}

func (a *app) checkOllama(ctx context.Context) []CheckResult {
	v, err := a.ollama.Version(ctx)
	if err != nil {
		return []CheckResult{{
			Backend: "ollama",
			Detail:  err.Error(),
			Hint:    "Start Ollama with 'ollama serve' or set OLLAMA_HOST",
		}}
	}
	checks := []CheckResult{{
		Backend: "ollama",
		OK:      true,
		Detail:  fmt.Sprintf("running at %s (version %s)", a.ollama.BaseURL(), v),
	}}

	models, err := a.ollama.ListModels(ctx)
	if err != nil {
		return append(checks, CheckResult{Backend: "ollama models", Detail: err.Error()})
	}
	installed := lo.Map(models, func(m llm.Model, _ int) string { return m.Name })
	for _, want := range lo.Uniq([]string{a.cfg.Ollama.ChatModel, a.cfg.Ollama.CodeModel}) {
		c := CheckResult{Backend: "model " + want, OK: lo.Contains(installed, want)}
		if c.OK {
			c.Detail = "installed"
		} else {
			c.Detail = "not installed"
			c.Hint = "ollama pull " + want
		}
		checks = append(checks, c)
	}
	return checks
}

func (a *app) checkGitHub(ctx context.Context) CheckResult {
	if !a.github.HasToken() {
		return CheckResult{
			Backend: "github",
			Detail:  "no token configured",
			Hint:    "Set GITHUB_TOKEN or github.token in .devmcp/config.yaml",
		}
	}
	user, err := a.github.GetUserInfo(ctx)
	if err != nil {
		return CheckResult{Backend: "github", Detail: err.Error(), Hint: "Check that the token is valid and not expired"}
	}
	return CheckResult{Backend: "github", OK: true, Detail: "authenticated as " + user.Login}
}

func (a *app) checkGit(ctx context.Context) CheckResult {
	res, err := a.git.Run(ctx, "", "--version")
	if err != nil {
		return CheckResult{Backend: "git", Detail: err.Error(), Hint: "Install git or set git.binary"}
	}
	if !res.Success {
		return CheckResult{Backend: "git", Detail: strings.TrimSpace(res.Stderr)}
	}

	// Outside a repository only the per-call cwd argument makes git tools useful.
	c := CheckResult{Backend: "git", OK: true}
	if root, err := a.git.RepoRoot(ctx, ""); err == nil {
		c.Detail = fmt.Sprintf("%s, repository %s", strings.TrimSpace(res.Stdout), root)
	} else {
		c.Detail = fmt.Sprintf("%s, %s is not a git repository", strings.TrimSpace(res.Stdout), a.git.Dir())
		c.Hint = "Set git.work_dir or pass cwd to the git tools"
	}
	return c
}

func (a *app) checkGroq() CheckResult {
	if a.cfg.Groq.APIKey == "" {
		return CheckResult{
			Backend: "groq",
			Detail:  "no API key configured",
			Hint:    "Set GROQ_API_KEY or groq.api_key in .devmcp/config.yaml",
		}
	}
	return CheckResult{Backend: "groq", OK: true, Detail: fmt.Sprintf("key configured, model %s", a.cfg.Groq.Model)}
}

func printStatus(result *StatusResult) {
	ui.Header("devmcp Status")
	fmt.Printf("%s   %s\n", ui.Label("Version:"), result.Version)
	config := result.Config
	if config == "" {
		config = "(defaults)"
	}
	fmt.Printf("%s    %s\n", ui.Label("Config:"), ui.DimText(config))
	fmt.Printf("%s  %s\n", ui.Label("Toolsets:"), strings.Join(result.Toolsets, ", "))
	fmt.Println()

	ui.SubHeader("Backends:")
	for _, c := range result.Checks {
		if c.OK {
			ui.Successf("%-22s %s", c.Backend, c.Detail)
			continue
		}
		ui.Failure(fmt.Sprintf("%-22s %s", c.Backend, c.Detail))
		if c.Hint != "" {
			fmt.Printf("    %s\n", ui.DimText(c.Hint))
		}
	}
}
