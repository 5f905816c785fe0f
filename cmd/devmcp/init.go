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
	"bufio"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/devmcp/internal/config"
	"github.com/kraklabs/devmcp/internal/errors"
	"github.com/kraklabs/devmcp/internal/ui"
	"github.com/kraklabs/devmcp/pkg/toolsets"
)

type initFlags struct {
	force, nonInteractive        bool
	ollamaHost, chatModel        string
	codeModel, groqModel, setSel string
}

// runInit executes the 'init' command, writing .devmcp/config.yaml in the
// current directory. Secrets are never written; they come from the
// environment or a .env file.
func runInit(args []string, globals GlobalFlags) {
	var f initFlags
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	fs.BoolVar(&f.force, "force", false, "Overwrite an existing configuration")
	fs.BoolVarP(&f.nonInteractive, "yes", "y", false, "Use defaults and flags without prompting")
	fs.StringVar(&f.ollamaHost, "ollama-host", "", "Ollama URL")
	fs.StringVar(&f.chatModel, "chat-model", "", "Ollama chat model")
	fs.StringVar(&f.codeModel, "code-model", "", "Ollama code model")
	fs.StringVar(&f.groqModel, "groq-model", "", "Groq model")
	fs.StringVar(&f.setSel, "toolsets", "", "Default tool sets, comma-separated")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: devmcp init [options]

Description:
  Create .devmcp/config.yaml in the current directory. Prompts for each
  setting when stdin is a terminal, unless -y is given.

  Tokens are not stored. Provide GITHUB_TOKEN and GROQ_API_KEY through
  the environment or a .env file next to the config directory.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  devmcp init
  devmcp init -y --chat-model qwen2.5:7b --toolsets ollama,git

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		errors.FatalError(errors.NewInternalError("Cannot determine working directory", "os.Getwd failed", "", err), globals.JSON)
	}
	path := config.Path(cwd)
	if globals.ConfigPath != "" {
		path = globals.ConfigPath
	}

	if _, err := os.Stat(path); err == nil && !f.force {
		errors.FatalError(errors.NewInputError(
			"Configuration already exists",
			path+" is already present",
			"Use --force to overwrite it",
		), globals.JSON)
	}

	cfg := config.Default()
	if f.ollamaHost != "" {
		cfg.Ollama.BaseURL = f.ollamaHost
	}
	if f.chatModel != "" {
		cfg.Ollama.ChatModel = f.chatModel
	}
	if f.codeModel != "" {
		cfg.Ollama.CodeModel = f.codeModel
	}
	if f.groqModel != "" {
		cfg.Groq.Model = f.groqModel
	}
	if f.setSel != "" {
		cfg.Toolsets = strings.Split(f.setSel, ",")
	}

	if !f.nonInteractive && !globals.JSON && ui.IsTerminal(os.Stdin) {
		reader := bufio.NewReader(os.Stdin)
		ui.Header("devmcp init")
		cfg.Ollama.BaseURL = prompt(reader, "Ollama URL", cfg.Ollama.BaseURL)
		cfg.Ollama.ChatModel = prompt(reader, "Chat model", cfg.Ollama.ChatModel)
		cfg.Ollama.CodeModel = prompt(reader, "Code model", cfg.Ollama.CodeModel)
		cfg.Groq.Model = prompt(reader, "Groq model", cfg.Groq.Model)
		cfg.Toolsets = strings.Split(prompt(reader, "Tool sets", strings.Join(cfg.Toolsets, ",")), ",")
		fmt.Println()
	}

	sets, err := toolsets.Parse(strings.Join(cfg.Toolsets, ","))
	if err != nil {
		errors.FatalError(errors.NewInputError("Invalid toolset selection", err.Error(), "Use ollama, github, git, groq or all"), globals.JSON)
	}
	cfg.Toolsets = sets

	if err := cfg.Validate(); err != nil {
		errors.FatalError(err, globals.JSON)
	}
	if err := config.Save(cfg, path); err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if globals.JSON {
		fmt.Printf("{\"config\": %q}\n", path)
		return
	}
	ui.Successf("Created %s", path)
	ui.Info("Next steps:")
	fmt.Println("  1. Export GITHUB_TOKEN and GROQ_API_KEY (or put them in .env)")
	fmt.Println("  2. Run 'devmcp status' to check the backends")
	fmt.Println("  3. Run 'devmcp warmup' to load the models")
}

// prompt reads one line, returning defaultValue for empty input.
func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultValue
	}
	return input
}
