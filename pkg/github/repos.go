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

package github

import (
	"context"
	"fmt"
	"time"

	gh "github.com/google/go-github/v39/github"
	"github.com/samber/lo"
)

// Repository is the subset of repository metadata the tools render.
type Repository struct {
	FullName      string    `json:"full_name"`
	Name          string    `json:"name"`
	Owner         string    `json:"owner"`
	Description   string    `json:"description"`
	Language      string    `json:"language"`
	Stars         int       `json:"stars"`
	Forks         int       `json:"forks"`
	OpenIssues    int       `json:"open_issues"`
	DefaultBranch string    `json:"default_branch"`
	Private       bool      `json:"private"`
	Topics        []string  `json:"topics,omitempty"`
	HTMLURL       string    `json:"url"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Issue is an issue summary.
type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	Author    string    `json:"author"`
	Labels    []string  `json:"labels,omitempty"`
	Comments  int       `json:"comments"`
	HTMLURL   string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// PullRequest is a pull request summary.
type PullRequest struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	Author    string    `json:"author"`
	Head      string    `json:"head"`
	Base      string    `json:"base"`
	Draft     bool      `json:"draft"`
	HTMLURL   string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// User is the authenticated account.
type User struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	Bio         string `json:"bio"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	HTMLURL     string `json:"url"`
}

// CodeMatch is one code search hit.
type CodeMatch struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	Repository string `json:"repository"`
	HTMLURL    string `json:"url"`
}

// FileContent is a decoded file, possibly truncated.
type FileContent struct {
	Path      string `json:"path"`
	Size      int    `json:"size"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
}

// RepoSearch is a page of repository search results.
type RepoSearch struct {
	Total int          `json:"total_count"`
	Items []Repository `json:"items"`
}

// CodeSearch is a page of code search results.
type CodeSearch struct {
	Total int         `json:"total_count"`
	Items []CodeMatch `json:"items"`
}

// SearchOptions controls repository and code search.
type SearchOptions struct {
	Sort    string
	Order   string
	PerPage int
}

// UserReposOptions controls GetUserRepos.
type UserReposOptions struct {
	Type    string
	Sort    string
	PerPage int
}

// IssueListOptions controls ListIssues.
type IssueListOptions struct {
	State   string
	Labels  []string
	PerPage int
}

// PullRequestListOptions controls ListPullRequests.
type PullRequestListOptions struct {
	State   string
	PerPage int
}

// NewIssue is the payload of CreateIssue.
type NewIssue struct {
	Title  string
	Body   string
	Labels []string
}

// SearchRepositories searches public repositories.
func (c *Client) SearchRepositories(ctx context.Context, query string, opts SearchOptions) (*RepoSearch, error) {
	var res *gh.RepositoriesSearchResult
	err := c.call(ctx, c.cfg.Timeout, func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		res, resp, err = c.api.Search.Repositories(ctx, query, &gh.SearchOptions{
			Sort:        opts.Sort,
			Order:       opts.Order,
			ListOptions: gh.ListOptions{PerPage: NormalizePerPage(opts.PerPage, 10)},
		})
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return &RepoSearch{
		Total: res.GetTotal(),
		Items: lo.Map(res.Repositories, func(r *gh.Repository, _ int) Repository { return toRepository(r) }),
	}, nil
}

// SearchCode searches code across repositories.
func (c *Client) SearchCode(ctx context.Context, query string, opts SearchOptions) (*CodeSearch, error) {
	var res *gh.CodeSearchResult
	err := c.call(ctx, c.cfg.Timeout, func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		res, resp, err = c.api.Search.Code(ctx, query, &gh.SearchOptions{
			Sort:        opts.Sort,
			Order:       opts.Order,
			ListOptions: gh.ListOptions{PerPage: NormalizePerPage(opts.PerPage, 5)},
		})
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return &CodeSearch{
		Total: res.GetTotal(),
		Items: lo.Map(res.CodeResults, func(r *gh.CodeResult, _ int) CodeMatch {
			return CodeMatch{
				Name:       r.GetName(),
				Path:       r.GetPath(),
				Repository: r.GetRepository().GetFullName(),
				HTMLURL:    r.GetHTMLURL(),
			}
		}),
	}, nil
}

// GetUserRepos lists repositories of the authenticated user.
func (c *Client) GetUserRepos(ctx context.Context, opts UserReposOptions) ([]Repository, error) {
	var repos []*gh.Repository
	err := c.call(ctx, c.cfg.Timeout, func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		repos, resp, err = c.api.Repositories.List(ctx, "", &gh.RepositoryListOptions{
			Type:        opts.Type,
			Sort:        opts.Sort,
			ListOptions: gh.ListOptions{PerPage: NormalizePerPage(opts.PerPage, 20)},
		})
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(repos, func(r *gh.Repository, _ int) Repository { return toRepository(r) }), nil
}

// GetRepoInfo fetches repository metadata.
func (c *Client) GetRepoInfo(ctx context.Context, owner, repo string) (*Repository, error) {
	var r *gh.Repository
	err := c.call(ctx, c.cfg.Timeout, func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		r, resp, err = c.api.Repositories.Get(ctx, owner, repo)
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	out := toRepository(r)
	return &out, nil
}

// ListIssues lists issues of a repository. Pull requests, which the issues
// endpoint also returns, are left out.
func (c *Client) ListIssues(ctx context.Context, owner, repo string, opts IssueListOptions) ([]Issue, error) {
	var issues []*gh.Issue
	err := c.call(ctx, c.cfg.Timeout, func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		issues, resp, err = c.api.Issues.ListByRepo(ctx, owner, repo, &gh.IssueListByRepoOptions{
			State:       opts.State,
			Labels:      opts.Labels,
			ListOptions: gh.ListOptions{PerPage: NormalizePerPage(opts.PerPage, 10)},
		})
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	issues = lo.Reject(issues, func(i *gh.Issue, _ int) bool { return i.IsPullRequest() })
	return lo.Map(issues, func(i *gh.Issue, _ int) Issue { return toIssue(i) }), nil
}

// CreateIssue opens a new issue.
func (c *Client) CreateIssue(ctx context.Context, owner, repo string, in NewIssue) (*Issue, error) {
	req := &gh.IssueRequest{Title: gh.String(in.Title)}
	if in.Body != "" {
		req.Body = gh.String(in.Body)
	}
	if len(in.Labels) > 0 {
		labels := in.Labels
		req.Labels = &labels
	}

	var created *gh.Issue
	err := c.call(ctx, c.cfg.Timeout, func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		created, resp, err = c.api.Issues.Create(ctx, owner, repo, req)
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	out := toIssue(created)
	return &out, nil
}

// ListPullRequests lists pull requests of a repository.
func (c *Client) ListPullRequests(ctx context.Context, owner, repo string, opts PullRequestListOptions) ([]PullRequest, error) {
	var prs []*gh.PullRequest
	err := c.call(ctx, c.cfg.Timeout, func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		prs, resp, err = c.api.PullRequests.List(ctx, owner, repo, &gh.PullRequestListOptions{
			State:       opts.State,
			ListOptions: gh.ListOptions{PerPage: NormalizePerPage(opts.PerPage, 10)},
		})
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(prs, func(p *gh.PullRequest, _ int) PullRequest {
		return PullRequest{
			Number:    p.GetNumber(),
			Title:     p.GetTitle(),
			State:     p.GetState(),
			Author:    p.GetUser().GetLogin(),
			Head:      p.GetHead().GetRef(),
			Base:      p.GetBase().GetRef(),
			Draft:     p.GetDraft(),
			HTMLURL:   p.GetHTMLURL(),
			CreatedAt: p.GetCreatedAt(),
		}
	}), nil
}

// GetUserInfo returns the authenticated user, using the shorter identity
// timeout.
func (c *Client) GetUserInfo(ctx context.Context) (*User, error) {
	var u *gh.User
	err := c.call(ctx, c.cfg.IdentityTimeout, func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		u, resp, err = c.api.Users.Get(ctx, "")
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return &User{
		Login:       u.GetLogin(),
		Name:        u.GetName(),
		Bio:         u.GetBio(),
		Company:     u.GetCompany(),
		Location:    u.GetLocation(),
		PublicRepos: u.GetPublicRepos(),
		Followers:   u.GetFollowers(),
		Following:   u.GetFollowing(),
		HTMLURL:     u.GetHTMLURL(),
	}, nil
}

// GetFileContents fetches and decodes a file. Text beyond MaxFileChars is
// dropped and TruncationMarker appended.
func (c *Client) GetFileContents(ctx context.Context, owner, repo, path string) (*FileContent, error) {
	var (
		file *gh.RepositoryContent
		dir  []*gh.RepositoryContent
	)
	err := c.call(ctx, c.cfg.Timeout, func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		file, dir, resp, err = c.api.Repositories.GetContents(ctx, owner, repo, path, nil)
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("%s is a directory with %d entries, not a file", path, len(dir))
	}

	text, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	out := &FileContent{Path: file.GetPath(), Size: file.GetSize()}
	out.Content, out.Truncated = truncate(text, MaxFileChars)
	return out, nil
}

func truncate(s string, limit int) (string, bool) {
	r := []rune(s)
	if len(r) <= limit {
		return s, false
	}
	return string(r[:limit]) + TruncationMarker, true
}

func toRepository(r *gh.Repository) Repository {
	return Repository{
		FullName:      r.GetFullName(),
		Name:          r.GetName(),
		Owner:         r.GetOwner().GetLogin(),
		Description:   r.GetDescription(),
		Language:      r.GetLanguage(),
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		OpenIssues:    r.GetOpenIssuesCount(),
		DefaultBranch: r.GetDefaultBranch(),
		Private:       r.GetPrivate(),
		Topics:        r.Topics,
		HTMLURL:       r.GetHTMLURL(),
		UpdatedAt:     r.GetUpdatedAt().Time,
	}
}

func toIssue(i *gh.Issue) Issue {
	return Issue{
		Number:    i.GetNumber(),
		Title:     i.GetTitle(),
		State:     i.GetState(),
		Author:    i.GetUser().GetLogin(),
		Labels:    lo.Map(i.Labels, func(l *gh.Label, _ int) string { return l.GetName() }),
		Comments:  i.GetComments(),
		HTMLURL:   i.GetHTMLURL(),
		CreatedAt: i.GetCreatedAt(),
	}
}
