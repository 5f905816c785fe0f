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

// Package toolsets declares the tools exposed by devmcp, grouped into sets
// that can be combined at start-up: ollama (local models plus GitHub-backed
// helpers), github, git and groq.
//
// Each set depends on small consumer-side interfaces so tests can run every
// handler against stubs.
package toolsets

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/kraklabs/devmcp/pkg/git"
	"github.com/kraklabs/devmcp/pkg/github"
	"github.com/kraklabs/devmcp/pkg/llm"
	"github.com/kraklabs/devmcp/pkg/tools"
)

// Set names accepted by Build.
const (
	Ollama = "ollama"
	GitHub = "github"
	Git    = "git"
	Groq   = "groq"
	All    = "all"
)

var builders = map[string]func(Deps) (*tools.Registry, error){
	Ollama: NewOllama,
	GitHub: NewGitHub,
	Git:    NewGit,
	Groq:   NewGroq,
}

// canonical order used when "all" is requested.
var setOrder = []string{Ollama, GitHub, Git, Groq}

// Hosting is the subset of the GitHub client used by the tools.
type Hosting interface {
	SearchRepositories(ctx context.Context, query string, opts github.SearchOptions) (*github.RepoSearch, error)
	SearchCode(ctx context.Context, query string, opts github.SearchOptions) (*github.CodeSearch, error)
	GetUserRepos(ctx context.Context, opts github.UserReposOptions) ([]github.Repository, error)
	GetRepoInfo(ctx context.Context, owner, repo string) (*github.Repository, error)
	ListIssues(ctx context.Context, owner, repo string, opts github.IssueListOptions) ([]github.Issue, error)
	CreateIssue(ctx context.Context, owner, repo string, in github.NewIssue) (*github.Issue, error)
	ListPullRequests(ctx context.Context, owner, repo string, opts github.PullRequestListOptions) ([]github.PullRequest, error)
	GetUserInfo(ctx context.Context) (*github.User, error)
	GetFileContents(ctx context.Context, owner, repo, path string) (*github.FileContent, error)
}

// ModelAdmin reports on the local generation backend.
type ModelAdmin interface {
	Version(ctx context.Context) (string, error)
	ListModels(ctx context.Context) ([]llm.Model, error)
}

// Models names the models each tool family uses.
type Models struct {
	Chat   string
	Code   string
	Fast   string
	WarmUp []string
}

// Deps are the collaborators shared by all sets. Only the fields a set
// needs must be set.
type Deps struct {
	Ollama  llm.Generator
	Admin   ModelAdmin
	Groq    llm.Generator
	Hosting Hosting
	Git     git.Runner
	Models  Models
	WorkDir string
	Logger  *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}

// Names returns the known set names in canonical order.
func Names() []string {
	return append([]string(nil), setOrder...)
}

// Parse splits a comma-separated selection, expands "all" and removes
// duplicates. Unknown names are an error.
func Parse(selection string) ([]string, error) {
	var out []string
	for _, raw := range strings.Split(selection, ",") {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case name == "":
			continue
		case name == All:
			out = append(out, setOrder...)
		case builders[name] != nil:
			out = append(out, name)
		default:
			known := append(Names(), All)
			sort.Strings(known)
			return nil, fmt.Errorf("unknown toolset %q (known: %s)", name, strings.Join(known, ", "))
		}
	}
	out = lo.Uniq(out)
	if len(out) == 0 {
		return nil, fmt.Errorf("no toolset selected")
	}
	return out, nil
}

// Build composes the named sets into one registry.
func Build(names []string, deps Deps) (*tools.Registry, error) {
	reg := tools.NewRegistry()
	for _, name := range names {
		build, ok := builders[name]
		if !ok {
			return nil, fmt.Errorf("unknown toolset %q", name)
		}
		set, err := build(deps)
		if err != nil {
			return nil, fmt.Errorf("toolset %s: %w", name, err)
		}
		if err := reg.Merge(set); err != nil {
			return nil, fmt.Errorf("toolset %s: %w", name, err)
		}
	}
	return reg, nil
}

func mustRegister(reg *tools.Registry, ts ...tools.Tool) *tools.Registry {
	if err := reg.Register(ts...); err != nil {
		panic(err)
	}
	return reg
}
