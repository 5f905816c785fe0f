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

	"github.com/kraklabs/devmcp/pkg/github"
	"github.com/kraklabs/devmcp/pkg/tools"
)

type githubSet struct {
	hosting Hosting
}

// NewGitHub builds the GitHub tool set.
func NewGitHub(d Deps) (*tools.Registry, error) {
	if d.Hosting == nil {
		return nil, errors.New("github client is required")
	}
	s := &githubSet{hosting: d.Hosting}

	owner := tools.Param{Name: "owner", Type: tools.String, Required: true, Description: "Repository owner"}
	repo := tools.Param{Name: "repo", Type: tools.String, Required: true, Description: "Repository name"}
	state := tools.Param{Name: "state", Type: tools.String, Default: "open", Enum: []string{"open", "closed", "all"}, Description: "Filter by state"}
	order := tools.Param{Name: "order", Type: tools.String, Default: "desc", Enum: []string{"asc", "desc"}, Description: "Sort direction"}

	return mustRegister(tools.NewRegistry(),
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "search_repositories",
				Description: "Search GitHub repositories",
				Params: []tools.Param{
					{Name: "query", Type: tools.String, Required: true, Description: "Search query"},
					{Name: "sort", Type: tools.String, Default: "stars", Enum: []string{"stars", "forks", "help-wanted-issues", "updated"}, Description: "Sort field"},
					order,
					{Name: "per_page", Type: tools.Integer, Default: 10, Description: "Number of results (1-100)"},
				},
			},
			Handler: s.searchRepositories,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "get_user_repos",
				Description: "List repositories of the authenticated user",
				Params: []tools.Param{
					{Name: "type", Type: tools.String, Default: "owner", Enum: []string{"all", "owner", "public", "private", "member"}, Description: "Repository type"},
					{Name: "sort", Type: tools.String, Default: "updated", Enum: []string{"created", "updated", "pushed", "full_name"}, Description: "Sort field"},
					{Name: "per_page", Type: tools.Integer, Default: 20, Description: "Number of results (1-100)"},
				},
			},
			Handler: s.getUserRepos,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "get_repo_info",
				Description: "Show repository metadata",
				Params:      []tools.Param{owner, repo},
			},
			Handler: s.getRepoInfo,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "list_issues",
				Description: "List issues of a repository, pull requests excluded",
				Params: []tools.Param{
					owner, repo, state,
					{Name: "labels", Type: tools.Array, Items: tools.String, Description: "Only issues with all of these labels"},
					{Name: "per_page", Type: tools.Integer, Default: 10, Description: "Number of results (1-100)"},
				},
			},
			Handler: s.listIssues,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "create_issue",
				Description: "Open a new issue",
				Params: []tools.Param{
					owner, repo,
					{Name: "title", Type: tools.String, Required: true, Description: "Issue title"},
					{Name: "body", Type: tools.String, Description: "Issue body"},
					{Name: "labels", Type: tools.Array, Items: tools.String, Description: "Labels to apply"},
				},
			},
			Handler: s.createIssue,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "list_pull_requests",
				Description: "List pull requests of a repository",
				Params: []tools.Param{
					owner, repo, state,
					{Name: "per_page", Type: tools.Integer, Default: 10, Description: "Number of results (1-100)"},
				},
			},
			Handler: s.listPullRequests,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "get_user_info",
				Description: "Show the authenticated user's profile",
			},
			Handler: s.getUserInfo,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "search_code",
				Description: "Search code on GitHub",
				Params: []tools.Param{
					{Name: "query", Type: tools.String, Required: true, Description: "Search query, qualifiers allowed (repo:, language:)"},
					{Name: "sort", Type: tools.String, Default: "indexed", Description: "Sort field"},
					order,
					{Name: "per_page", Type: tools.Integer, Default: 5, Description: "Number of results (1-100)"},
				},
			},
			Handler: s.searchCode,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "get_file_contents",
				Description: "Show the contents of a file",
				Params: []tools.Param{
					owner, repo,
					{Name: "path", Type: tools.String, Required: true, Description: "File path inside the repository"},
				},
			},
			Handler: s.getFileContents,
		},
	), nil
}

func (s *githubSet) searchRepositories(ctx context.Context, args tools.Args) (*tools.Result, error) {
	query := args.String("query")
	res, err := s.hosting.SearchRepositories(ctx, query, github.SearchOptions{
		Sort:    args.String("sort"),
		Order:   args.String("order"),
		PerPage: args.Int("per_page", 10),
	})
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("Repositories for %q (%d total):", query, res.Total)
	return tools.NewText(formatRepoList(title, res.Items)), nil
}

func (s *githubSet) getUserRepos(ctx context.Context, args tools.Args) (*tools.Result, error) {
	repos, err := s.hosting.GetUserRepos(ctx, github.UserReposOptions{
		Type:    args.String("type"),
		Sort:    args.String("sort"),
		PerPage: args.Int("per_page", 20),
	})
	if err != nil {
		return nil, err
	}
	return tools.NewText(formatRepoList(fmt.Sprintf("Your repositories (%d):", len(repos)), repos)), nil
}

func (s *githubSet) getRepoInfo(ctx context.Context, args tools.Args) (*tools.Result, error) {
	r, err := s.hosting.GetRepoInfo(ctx, args.String("owner"), args.String("repo"))
	if err != nil {
		return nil, err
	}
	return tools.NewText(formatRepoInfo(r)), nil
}

func (s *githubSet) listIssues(ctx context.Context, args tools.Args) (*tools.Result, error) {
	owner, repo := args.String("owner"), args.String("repo")
	state := args.String("state")
	issues, err := s.hosting.ListIssues(ctx, owner, repo, github.IssueListOptions{
		State:   state,
		Labels:  args.Strings("labels"),
		PerPage: args.Int("per_page", 10),
	})
	if err != nil {
		return nil, err
	}
	return tools.NewText(formatIssues(fmt.Sprintf("Issues in %s/%s (%s):", owner, repo, state), issues)), nil
}

func (s *githubSet) createIssue(ctx context.Context, args tools.Args) (*tools.Result, error) {
	owner, repo := args.String("owner"), args.String("repo")
	title := strings.TrimSpace(args.String("title"))
	if title == "" {
		return nil, errors.New("title must not be empty")
	}
	issue, err := s.hosting.CreateIssue(ctx, owner, repo, github.NewIssue{
		Title:  title,
		Body:   args.String("body"),
		Labels: args.Strings("labels"),
	})
	if err != nil {
		return nil, err
	}
	return tools.NewText(fmt.Sprintf("Issue created: #%d - %s\n%s", issue.Number, issue.Title, issue.HTMLURL)), nil
}

func (s *githubSet) listPullRequests(ctx context.Context, args tools.Args) (*tools.Result, error) {
	owner, repo := args.String("owner"), args.String("repo")
	state := args.String("state")
	prs, err := s.hosting.ListPullRequests(ctx, owner, repo, github.PullRequestListOptions{
		State:   state,
		PerPage: args.Int("per_page", 10),
	})
	if err != nil {
		return nil, err
	}
	return tools.NewText(formatPullRequests(fmt.Sprintf("Pull requests in %s/%s (%s):", owner, repo, state), prs)), nil
}

func (s *githubSet) getUserInfo(ctx context.Context, _ tools.Args) (*tools.Result, error) {
	u, err := s.hosting.GetUserInfo(ctx)
	if err != nil {
		return nil, err
	}
	return tools.NewText(formatUser(u)), nil
}

func (s *githubSet) searchCode(ctx context.Context, args tools.Args) (*tools.Result, error) {
	query := args.String("query")
	res, err := s.hosting.SearchCode(ctx, query, github.SearchOptions{
		Sort:    args.String("sort"),
		Order:   args.String("order"),
		PerPage: args.Int("per_page", 5),
	})
	if err != nil {
		return nil, err
	}
	return tools.NewText(formatCode(fmt.Sprintf("Code matches for %q", query), res)), nil
}

func (s *githubSet) getFileContents(ctx context.Context, args tools.Args) (*tools.Result, error) {
	owner, repo := args.String("owner"), args.String("repo")
	f, err := s.hosting.GetFileContents(ctx, owner, repo, args.String("path"))
	if err != nil {
		return nil, err
	}
	return tools.NewText(formatFile(owner+"/"+repo, f)), nil
}
