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
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kraklabs/devmcp/internal/config"
	"github.com/kraklabs/devmcp/internal/errors"
	"github.com/kraklabs/devmcp/internal/logging"
	"github.com/kraklabs/devmcp/internal/telemetry"
	"github.com/kraklabs/devmcp/pkg/git"
	"github.com/kraklabs/devmcp/pkg/github"
	"github.com/kraklabs/devmcp/pkg/llm"
	"github.com/kraklabs/devmcp/pkg/tools"
	"github.com/kraklabs/devmcp/pkg/toolsets"
)

// app holds the backends built from the effective configuration. Every
// command builds one; only the backends of the selected sets are used.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *telemetry.Metrics
	sets    []string

	ollama *llm.OllamaClient
	groq   llm.Provider
	github *github.Client
	git    *git.Executor
}

// newApp loads the configuration and builds the backends. Failures are
// returned as UserErrors ready for errors.FatalError.
func newApp(globals GlobalFlags) (*app, error) {
	cfg, err := config.Load(globals.ConfigPath)
	if err != nil {
		return nil, err
	}

	selection := strings.Join(cfg.Toolsets, ",")
	if globals.Toolsets != "" {
		selection = globals.Toolsets
	}
	sets, err := toolsets.Parse(selection)
	if err != nil {
		return nil, errors.NewInputError(
			"Invalid toolset selection",
			err.Error(),
			"Use a comma-separated list of: "+strings.Join(append(toolsets.Names(), toolsets.All), ", "),
		)
	}

	a := &app{
		cfg:     cfg,
		logger:  logging.New(os.Stderr, globals.Verbose, globals.Quiet),
		metrics: telemetry.NewMetrics(),
		sets:    sets,
	}

	a.ollama = llm.NewOllamaClient(cfg.Ollama.BaseURL, cfg.Ollama.ChatModel, cfg.Ollama.Timeouts)

	a.groq, err = llm.NewProvider(llm.ProviderConfig{
		Type:         "openai",
		Name:         "groq",
		BaseURL:      cfg.Groq.BaseURL,
		DefaultModel: cfg.Groq.Model,
		APIKey:       cfg.Groq.APIKey,
		KeyEnv:       "GROQ_API_KEY",
		Timeouts:     cfg.Groq.Timeouts,
	})
	if err != nil {
		return nil, errors.NewConfigError("Cannot configure Groq", "The Groq settings are invalid", "Check groq.base_url in .devmcp/config.yaml", err)
	}

	ghCfg := github.DefaultConfig()
	ghCfg.Token = cfg.GitHub.Token
	ghCfg.BaseURL = cfg.GitHub.BaseURL
	ghCfg.Timeout = cfg.GitHub.Timeout
	ghCfg.IdentityTimeout = cfg.GitHub.IdentityTimeout
	ghCfg.Retries = cfg.GitHub.Retries
	a.github, err = github.New(ghCfg)
	if err != nil {
		return nil, errors.NewConfigError("Cannot configure GitHub", "The GitHub settings are invalid", "Check github.base_url in .devmcp/config.yaml", err)
	}

	workDir := cfg.Git.WorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return nil, errors.NewInternalError("Cannot determine working directory", "os.Getwd failed", "", err)
		}
	}
	a.git = git.NewExecutor(cfg.Git.Binary, workDir, cfg.Git.Timeout)

	a.logger.Debug("app.configured",
		"config", cfg.Path,
		"toolsets", strings.Join(sets, ","),
		"ollama", cfg.Ollama.BaseURL,
		"github_token", a.github.HasToken(),
	)
	return a, nil
}

// deps exposes the backends to the tool sets.
func (a *app) deps() toolsets.Deps {
	return toolsets.Deps{
		Ollama:  a.ollama,
		Admin:   a.ollama,
		Groq:    a.groq,
		Hosting: a.github,
		Git:     a.git,
		Models: toolsets.Models{
			Chat:   a.cfg.Ollama.ChatModel,
			Code:   a.cfg.Ollama.CodeModel,
			Fast:   a.cfg.Groq.Model,
			WarmUp: a.cfg.WarmUpModels(),
		},
		WorkDir: a.git.Dir(),
		Logger:  a.logger,
	}
}

// dispatcher builds the registry for the selected sets.
func (a *app) dispatcher() (*tools.Dispatcher, error) {
	reg, err := toolsets.Build(a.sets, a.deps())
	if err != nil {
		return nil, errors.NewInternalError("Cannot build tools", err.Error(), "", err)
	}
	return tools.NewDispatcher(reg, a.logger, a.metrics), nil
}

// serveMetrics starts the Prometheus endpoint when an address is configured.
func (a *app) serveMetrics(ctx context.Context, flagAddr string) {
	addr := a.cfg.Metrics.Addr
	if flagAddr != "" {
		addr = flagAddr
	}
	if addr == "" {
		return
	}
	go func() {
		if err := a.metrics.Serve(ctx, addr, a.logger); err != nil {
			a.logger.Warn("metrics.serve.error", "addr", addr, "err", err)
		}
	}()
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// describeModels renders the configured models for banners and status.
func describeModels(cfg *config.Config) []string {
	return []string{
		fmt.Sprintf("Chat model: %s", cfg.Ollama.ChatModel),
		fmt.Sprintf("Code model: %s", cfg.Ollama.CodeModel),
		fmt.Sprintf("Fast model: %s (groq)", cfg.Groq.Model),
	}
}
