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

// Package main implements the devmcp CLI: MCP tool servers over Ollama,
// GitHub, git and Groq, plus an interactive shell on the same tools.
//
// Usage:
//
//	devmcp --mcp                      Serve tools over JSON-RPC on stdio
//	devmcp shell                      Interactive command shell
//	devmcp call <tool> [args...]      Run one tool and exit
//	devmcp status                     Check backends
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/devmcp/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags holds the global CLI flags that apply to all commands.
type GlobalFlags struct {
	JSON        bool   // Output in JSON format (for applicable commands)
	NoColor     bool   // Disable color output
	Verbose     int    // 0=warnings, 1=-v (info), 2=-vv (debug)
	Quiet       bool   // Errors only
	ConfigPath  string // --config
	Toolsets    string // --toolset, overrides the config file
	MetricsAddr string // --metrics-addr, overrides the config file
}

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		mcpMode     = flag.Bool("mcp", false, "Serve tools over JSON-RPC on stdio (same as 'serve')")
		configPath  = flag.StringP("config", "c", "", "Path to .devmcp/config.yaml (default: discovered)")
		toolsetSel  = flag.StringP("toolset", "t", "", "Comma-separated tool sets: ollama, github, git, groq or all")
		metricsAddr = flag.String("metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :9464)")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format (for applicable commands)")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		verbose     = flag.CountP("verbose", "v", "Increase verbosity (-v for info, -vv for debug)")
		quiet       = flag.BoolP("quiet", "q", false, "Only log errors")
	)

	// Stop at the command name so subcommand flags reach their own flag set.
	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `devmcp - developer tool servers for MCP clients

devmcp exposes local models (Ollama), GitHub, git and Groq as MCP tools
over stdio, and offers the same tools in an interactive shell.

Usage:
  devmcp <command> [options]

Commands:
  serve         Serve tools over JSON-RPC on stdio
  shell         Interactive command shell
  call          Run one tool: devmcp call <tool> [args...]
  tools         List the tools of the selected tool sets
  status        Check Ollama, GitHub, Groq and git
  models        List installed Ollama models
  warmup        Load models into memory
  config        Show the effective configuration
  init          Create .devmcp/config.yaml

Global Options:
  --mcp                 Serve tools over JSON-RPC on stdio
  -t, --toolset         Tool sets to load (default from config: ollama,github,git)
  -c, --config          Path to .devmcp/config.yaml
  --metrics-addr        Expose Prometheus metrics (off by default)
  --json                Output in JSON format (for applicable commands)
  --no-color            Disable color output (respects NO_COLOR env var)
  -v, --verbose         Increase verbosity (-v for info, -vv for debug)
  -q, --quiet           Only log errors
  -V, --version         Show version and exit

Examples:
  devmcp --mcp --toolset ollama          Ollama server for an MCP client
  devmcp --toolset all shell             Shell with every tool
  devmcp call chat explain goroutines
  devmcp -t github call list_issues octo hello
  devmcp warmup llama3.1:8b

Environment Variables:
  GITHUB_TOKEN       GitHub token (GitHub tools fail without it)
  GITHUB_API_URL     GitHub API root (GitHub Enterprise)
  OLLAMA_HOST        Ollama URL (default: http://localhost:11434)
  OLLAMA_CHAT_MODEL  Chat model (default: llama3.1:8b)
  OLLAMA_CODE_MODEL  Code model (default: deepseek-coder:6.7b)
  GROQ_API_KEY       Groq API key (Groq tools fail without it)
  GROQ_MODEL         Groq model (default: llama-3.1-8b-instant)
  DEVMCP_TOOLSETS    Default tool sets
  DEVMCP_CONFIG_PATH Config file path
  A .env file in the working directory is read first.

For detailed command help: devmcp <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("devmcp version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}

	if *quiet && *verbose > 0 {
		fmt.Fprintf(os.Stderr, "Error: cannot use --quiet and --verbose together\n")
		os.Exit(1)
	}

	globals := GlobalFlags{
		JSON:        *jsonOutput,
		NoColor:     *noColor,
		Verbose:     *verbose,
		Quiet:       *quiet,
		ConfigPath:  *configPath,
		Toolsets:    *toolsetSel,
		MetricsAddr: *metricsAddr,
	}

	ui.InitColors(globals.NoColor)

	if *mcpMode {
		os.Exit(runServe(nil, globals))
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "serve":
		os.Exit(runServe(cmdArgs, globals))
	case "shell":
		os.Exit(runShell(cmdArgs, globals))
	case "call":
		os.Exit(runCall(cmdArgs, globals))
	case "tools":
		runTools(cmdArgs, globals)
	case "status":
		os.Exit(runStatus(cmdArgs, globals))
	case "models":
		runModels(cmdArgs, globals)
	case "warmup":
		os.Exit(runWarmup(cmdArgs, globals))
	case "config":
		runConfig(cmdArgs, globals)
	case "init":
		runInit(cmdArgs, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
