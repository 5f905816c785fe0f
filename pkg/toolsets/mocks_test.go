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
	"sync"

	"github.com/kraklabs/devmcp/pkg/git"
	"github.com/kraklabs/devmcp/pkg/github"
	"github.com/kraklabs/devmcp/pkg/llm"
)

// MockGenerator is a scripted llm.Generator.
type MockGenerator struct {
	mu           sync.Mutex
	GenerateFunc func(ctx context.Context, req llm.Request) (string, error)
	Requests     []llm.Request
}

func (m *MockGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return "", nil
}

func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// MockAdmin is a scripted ModelAdmin.
type MockAdmin struct {
	VersionFunc    func(ctx context.Context) (string, error)
	ListModelsFunc func(ctx context.Context) ([]llm.Model, error)
}

func (m *MockAdmin) Version(ctx context.Context) (string, error) {
	if m.VersionFunc != nil {
		return m.VersionFunc(ctx)
	}
	return "0.0.0", nil
}

func (m *MockAdmin) ListModels(ctx context.Context) ([]llm.Model, error) {
	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx)
	}
	return nil, nil
}

// MockHosting is a scripted Hosting that counts every call.
type MockHosting struct {
	mu    sync.Mutex
	calls int

	SearchRepositoriesFunc func(ctx context.Context, query string, opts github.SearchOptions) (*github.RepoSearch, error)
	SearchCodeFunc         func(ctx context.Context, query string, opts github.SearchOptions) (*github.CodeSearch, error)
	GetUserReposFunc       func(ctx context.Context, opts github.UserReposOptions) ([]github.Repository, error)
	GetRepoInfoFunc        func(ctx context.Context, owner, repo string) (*github.Repository, error)
	ListIssuesFunc         func(ctx context.Context, owner, repo string, opts github.IssueListOptions) ([]github.Issue, error)
	CreateIssueFunc        func(ctx context.Context, owner, repo string, in github.NewIssue) (*github.Issue, error)
	ListPullRequestsFunc   func(ctx context.Context, owner, repo string, opts github.PullRequestListOptions) ([]github.PullRequest, error)
	GetUserInfoFunc        func(ctx context.Context) (*github.User, error)
	GetFileContentsFunc    func(ctx context.Context, owner, repo, path string) (*github.FileContent, error)
}

func (m *MockHosting) hit() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

func (m *MockHosting) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockHosting) SearchRepositories(ctx context.Context, query string, opts github.SearchOptions) (*github.RepoSearch, error) {
	m.hit()
	if m.SearchRepositoriesFunc != nil {
		return m.SearchRepositoriesFunc(ctx, query, opts)
	}
	return &github.RepoSearch{}, nil
}

func (m *MockHosting) SearchCode(ctx context.Context, query string, opts github.SearchOptions) (*github.CodeSearch, error) {
	m.hit()
	if m.SearchCodeFunc != nil {
		return m.SearchCodeFunc(ctx, query, opts)
	}
	return &github.CodeSearch{}, nil
}

func (m *MockHosting) GetUserRepos(ctx context.Context, opts github.UserReposOptions) ([]github.Repository, error) {
	m.hit()
	if m.GetUserReposFunc != nil {
		return m.GetUserReposFunc(ctx, opts)
	}
	return nil, nil
}

func (m *MockHosting) GetRepoInfo(ctx context.Context, owner, repo string) (*github.Repository, error) {
	m.hit()
	if m.GetRepoInfoFunc != nil {
		return m.GetRepoInfoFunc(ctx, owner, repo)
	}
	return &github.Repository{FullName: owner + "/" + repo}, nil
}

func (m *MockHosting) ListIssues(ctx context.Context, owner, repo string, opts github.IssueListOptions) ([]github.Issue, error) {
	m.hit()
	if m.ListIssuesFunc != nil {
		return m.ListIssuesFunc(ctx, owner, repo, opts)
	}
	return nil, nil
}

func (m *MockHosting) CreateIssue(ctx context.Context, owner, repo string, in github.NewIssue) (*github.Issue, error) {
	m.hit()
	if m.CreateIssueFunc != nil {
		return m.CreateIssueFunc(ctx, owner, repo, in)
	}
	return &github.Issue{Number: 1, Title: in.Title}, nil
}

func (m *MockHosting) ListPullRequests(ctx context.Context, owner, repo string, opts github.PullRequestListOptions) ([]github.PullRequest, error) {
	m.hit()
	if m.ListPullRequestsFunc != nil {
		return m.ListPullRequestsFunc(ctx, owner, repo, opts)
	}
	return nil, nil
}

func (m *MockHosting) GetUserInfo(ctx context.Context) (*github.User, error) {
	m.hit()
	if m.GetUserInfoFunc != nil {
		return m.GetUserInfoFunc(ctx)
	}
	return &github.User{Login: "octocat"}, nil
}

func (m *MockHosting) GetFileContents(ctx context.Context, owner, repo, path string) (*github.FileContent, error) {
	m.hit()
	if m.GetFileContentsFunc != nil {
		return m.GetFileContentsFunc(ctx, owner, repo, path)
	}
	return &github.FileContent{Path: path}, nil
}

// MockRunner is a scripted git.Runner.
type MockRunner struct {
	mu      sync.Mutex
	RunFunc func(ctx context.Context, dir string, args ...string) (*git.Result, error)
	Calls   []runCall
}

type runCall struct {
	Dir  string
	Args []string
}

func (m *MockRunner) Run(ctx context.Context, dir string, args ...string) (*git.Result, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, runCall{Dir: dir, Args: args})
	m.mu.Unlock()
	if m.RunFunc != nil {
		return m.RunFunc(ctx, dir, args...)
	}
	return &git.Result{Args: args, Success: true}, nil
}
