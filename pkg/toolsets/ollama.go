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

package toolsets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/kraklabs/devmcp/pkg/github"
	"github.com/kraklabs/devmcp/pkg/llm"
	"github.com/kraklabs/devmcp/pkg/tools"
)

const (
	codeAssistSystem = "You are an expert programming assistant. Provide clean, well documented code " +
		"that follows best practices. Include clear explanations and examples when useful."
	analyzeSystem = "You are a code analysis expert. Analyze the code you are given and report: " +
		"1. a summary of what it does 2. possible improvements 3. security problems " +
		"4. performance optimizations."
	reviewSystem = "You are a senior code reviewer. Give a detailed review covering code quality, " +
		"adherence to best practices, specific suggestions and recommended refactoring."
)

var errNoAdmin = errors.New("model administration is not available for this backend")

type ollamaSet struct {
	gen     llm.Generator
	admin   ModelAdmin
	hosting Hosting
	models  Models
	deps    Deps
}

// NewOllama builds the local-model tool set. It also carries a few GitHub
// helpers so a single server can explain repositories.
func NewOllama(d Deps) (*tools.Registry, error) {
	if d.Ollama == nil {
		return nil, errors.New("ollama generator is required")
	}
	if d.Hosting == nil {
		return nil, errors.New("github client is required")
	}
	s := &ollamaSet{gen: d.Ollama, admin: d.Admin, hosting: d.Hosting, models: d.Models, deps: d}

	repoParam := tools.Param{Name: "repo", Type: tools.String, Required: true, Description: "Repository as owner/name"}
	codeParam := tools.Param{Name: "code", Type: tools.String, Required: true, Description: "Source code to inspect"}

	return mustRegister(tools.NewRegistry(),
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "chat",
				Description: "General conversation with the local chat model",
				Params:      []tools.Param{{Name: "message", Type: tools.String, Required: true, Description: "Message to send"}},
			},
			Handler: s.chat,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "code_assist",
				Description: "Programming help from the local code model",
				Params:      []tools.Param{{Name: "query", Type: tools.String, Required: true, Description: "Programming question"}},
			},
			Handler: s.codeAssist,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "analyze_code",
				Description: "Summarize code and point out improvements, security and performance issues",
				Params:      []tools.Param{codeParam},
			},
			Handler: s.analyzeCode,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "review_code",
				Description: "Senior-style code review with refactoring suggestions",
				Params:      []tools.Param{codeParam},
			},
			Handler: s.reviewCode,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "github_search",
				Description: "Search GitHub repositories by stars",
				Params: []tools.Param{
					{Name: "query", Type: tools.String, Required: true, Description: "Search query"},
					{Name: "per_page", Type: tools.Integer, Default: 5, Description: "Number of results (1-100)"},
				},
			},
			Handler: s.githubSearch,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "github_repo",
				Description: "Show repository metadata",
				Params:      []tools.Param{repoParam},
			},
			Handler: s.githubRepo,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "github_file",
				Description: "Show the contents of a file in a repository",
				Params: []tools.Param{
					repoParam,
					{Name: "path", Type: tools.String, Required: true, Description: "File path inside the repository"},
				},
			},
			Handler: s.githubFile,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "explain_repo",
				Description: "Explain a repository using its GitHub metadata and the chat model",
				Params:      []tools.Param{repoParam},
			},
			Handler: s.explainRepo,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "ollama_status",
				Description: "Check that the local model server is reachable",
			},
			Handler: s.status,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "list_models",
				Description: "List locally installed models",
			},
			Handler: s.listModels,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "warmup_models",
				Description: "Load models into memory so later requests answer faster",
				Params: []tools.Param{
					{Name: "models", Type: tools.Array, Items: tools.String, Description: "Models to load (default: configured models)"},
				},
			},
			Handler: s.warmUp,
		},
	), nil
}

func (s *ollamaSet) generate(ctx context.Context, model, prompt, system string) (string, error) {
	s.deps.logger().Info("tool.generate", "model", model)
	return s.gen.Generate(ctx, llm.Request{Model: model, Prompt: prompt, System: system, Tier: llm.TierGenerate})
}

func (s *ollamaSet) chat(ctx context.Context, args tools.Args) (*tools.Result, error) {
	out, err := s.generate(ctx, s.models.Chat, args.String("message"), "")
	if err != nil {
		return nil, err
	}
	return tools.NewText(out), nil
}

func (s *ollamaSet) codeAssist(ctx context.Context, args tools.Args) (*tools.Result, error) {
	out, err := s.generate(ctx, s.models.Code, args.String("query"), codeAssistSystem)
	if err != nil {
		return nil, err
	}
	return tools.NewText(out), nil
}

func fenced(code string) string {
	return "```\n" + code + "\n```"
}

func (s *ollamaSet) analyzeCode(ctx context.Context, args tools.Args) (*tools.Result, error) {
	out, err := s.generate(ctx, s.models.Code, "Analyze this code:\n\n"+fenced(args.String("code")), analyzeSystem)
	if err != nil {
		return nil, err
	}
	return tools.NewText("Code analysis:\n\n" + out), nil
}

func (s *ollamaSet) reviewCode(ctx context.Context, args tools.Args) (*tools.Result, error) {
	out, err := s.generate(ctx, s.models.Code, "Review this code:\n\n"+fenced(args.String("code")), reviewSystem)
	if err != nil {
		return nil, err
	}
	return tools.NewText("Code review:\n\n" + out), nil
}

func (s *ollamaSet) githubSearch(ctx context.Context, args tools.Args) (*tools.Result, error) {
	query := args.String("query")
	res, err := s.hosting.SearchRepositories(ctx, query, github.SearchOptions{
		Sort:    "stars",
		Order:   "desc",
		PerPage: args.Int("per_page", 5),
	})
	if err != nil {
		return nil, err
	}
	return tools.NewText(formatRepoList(fmt.Sprintf("Repositories for %q:", query), res.Items)), nil
}

func (s *ollamaSet) githubRepo(ctx context.Context, args tools.Args) (*tools.Result, error) {
	owner, name, err := github.ParseRepo(args.String("repo"))
	if err != nil {
		return nil, err
	}
	repo, err := s.hosting.GetRepoInfo(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	return tools.NewText(formatRepoInfo(repo)), nil
}

func (s *ollamaSet) githubFile(ctx context.Context, args tools.Args) (*tools.Result, error) {
	full := args.String("repo")
	owner, name, err := github.ParseRepo(full)
	if err != nil {
		return nil, err
	}
	f, err := s.hosting.GetFileContents(ctx, owner, name, args.String("path"))
	if err != nil {
		return nil, err
	}
	return tools.NewText(formatFile(full, f)), nil
}

// explainRepo looks the repository up first and only asks the model when the
// lookup succeeded.
func (s *ollamaSet) explainRepo(ctx context.Context, args tools.Args) (*tools.Result, error) {
	owner, name, err := github.ParseRepo(args.String("repo"))
	if err != nil {
		return nil, err
	}
	repo, err := s.hosting.GetRepoInfo(ctx, owner, name)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Explain this GitHub repository:

Name: %s
Description: %s
Language: %s
Stars: %d

Provide:
1. A summary of the project
2. The technologies it uses
3. Possible use cases
4. How mature the project looks`, repo.FullName, orNA(repo.Description), orNA(repo.Language), repo.Stars)

	narrative, err := s.generate(ctx, s.models.Chat, prompt, "")
	if err != nil {
		return nil, err
	}
	return tools.NewText(fmt.Sprintf("Repository: %s\n\n%s", repo.FullName, narrative)), nil
}

func (s *ollamaSet) status(ctx context.Context, _ tools.Args) (*tools.Result, error) {
	if s.admin == nil {
		return nil, errNoAdmin
	}
	version, err := s.admin.Version(ctx)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Ollama is running (version %s)\n", version)
	fmt.Fprintf(&sb, "Chat model: %s\n", orNA(s.models.Chat))
	fmt.Fprintf(&sb, "Code model: %s", orNA(s.models.Code))
	return tools.NewText(sb.String()), nil
}

func (s *ollamaSet) listModels(ctx context.Context, _ tools.Args) (*tools.Result, error) {
	if s.admin == nil {
		return nil, errNoAdmin
	}
	models, err := s.admin.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return tools.NewText("No models installed."), nil
	}
	lines := lo.Map(models, func(m llm.Model, _ int) string {
		line := fmt.Sprintf("- %s (%s)", m.Name, HumanSize(m.Size))
		if !m.ModifiedAt.IsZero() {
			line += ", modified " + m.ModifiedAt.Format("2006-01-02")
		}
		return line
	})
	return tools.NewText(fmt.Sprintf("Installed models (%d):\n%s", len(models), strings.Join(lines, "\n"))), nil
}

func (s *ollamaSet) warmUp(ctx context.Context, args tools.Args) (*tools.Result, error) {
	models := args.Strings("models")
	if len(models) == 0 {
		models = s.models.WarmUp
	}
	if len(models) == 0 {
		models = []string{s.models.Chat, s.models.Code}
	}

	results := llm.WarmUp(ctx, s.gen, models, func(r llm.WarmUpResult) {
		s.deps.logger().Info("tool.warmup", "model", r.Model, "ok", r.OK(), "elapsed", r.Duration.Round(time.Millisecond))
	})
	if len(results) == 0 {
		return tools.NewError("No models to warm up."), nil
	}

	lines := lo.Map(results, func(r llm.WarmUpResult, _ int) string {
		if r.OK() {
			return fmt.Sprintf("ok   %s (%s)", r.Model, r.Duration.Round(time.Millisecond))
		}
		return fmt.Sprintf("FAIL %s: %v", r.Model, r.Err)
	})
	failed := len(llm.Failed(results))
	text := fmt.Sprintf("Warm-up: %d/%d models loaded\n%s", len(results)-failed, len(results), strings.Join(lines, "\n"))
	if failed == len(results) {
		return tools.NewError(text), nil
	}
	return tools.NewText(text), nil
}

// HumanSize formats a byte count with binary units, e.g. "4.6 GB".
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
