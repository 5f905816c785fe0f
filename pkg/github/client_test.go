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
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/devmcp/pkg/backend"
)

func newTestClient(t *testing.T, token string, handler http.Handler) (*Client, *atomic.Int32) {
	t.Helper()

	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{
		Token:         token,
		BaseURL:       srv.URL,
		Timeout:       2 * time.Second,
		Retries:       2,
		RetryInterval: time.Millisecond,
	})
	require.NoError(t, err)
	return c, hits
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestClient_NoTokenNeverCallsNetwork(t *testing.T) {
	t.Parallel()

	c, hits := newTestClient(t, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	}))
	ctx := context.Background()

	calls := map[string]func() error{
		"SearchRepositories": func() error { _, err := c.SearchRepositories(ctx, "go", SearchOptions{}); return err },
		"SearchCode":         func() error { _, err := c.SearchCode(ctx, "fmt", SearchOptions{}); return err },
		"GetUserRepos":       func() error { _, err := c.GetUserRepos(ctx, UserReposOptions{}); return err },
		"GetRepoInfo":        func() error { _, err := c.GetRepoInfo(ctx, "o", "r"); return err },
		"ListIssues":         func() error { _, err := c.ListIssues(ctx, "o", "r", IssueListOptions{}); return err },
		"CreateIssue":        func() error { _, err := c.CreateIssue(ctx, "o", "r", NewIssue{Title: "t"}); return err },
		"ListPullRequests":   func() error { _, err := c.ListPullRequests(ctx, "o", "r", PullRequestListOptions{}); return err },
		"GetUserInfo":        func() error { _, err := c.GetUserInfo(ctx); return err },
		"GetFileContents":    func() error { _, err := c.GetFileContents(ctx, "o", "r", "README.md"); return err },
	}
	for name, call := range calls {
		err := call()
		assert.True(t, backend.IsKind(err, backend.CredentialMissing), "%s: got %v", name, err)
	}
	assert.False(t, c.HasToken())
	assert.Zero(t, hits.Load())
}

func TestClient_SearchRepositories(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, "tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/repositories", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, "language:go mcp", q.Get("q"))
		assert.Equal(t, "stars", q.Get("sort"))
		assert.Equal(t, "desc", q.Get("order"))
		assert.Equal(t, "100", q.Get("per_page"))
		writeJSON(w, http.StatusOK, `{"total_count":42,"items":[
			{"full_name":"acme/tool","name":"tool","owner":{"login":"acme"},"description":"A tool","language":"Go","stargazers_count":1200,"forks_count":30,"html_url":"https://github.com/acme/tool","updated_at":"2024-05-01T00:00:00Z"}]}`)
	}))

	res, err := c.SearchRepositories(context.Background(), "language:go mcp", SearchOptions{Sort: "stars", Order: "desc", PerPage: 500})
	require.NoError(t, err)
	assert.Equal(t, 42, res.Total)
	require.Len(t, res.Items, 1)
	repo := res.Items[0]
	assert.Equal(t, "acme/tool", repo.FullName)
	assert.Equal(t, "acme", repo.Owner)
	assert.Equal(t, 1200, repo.Stars)
	assert.Equal(t, 2024, repo.UpdatedAt.Year())
}

func TestClient_GetRepoInfo_NotFound(t *testing.T) {
	t.Parallel()

	c, hits := newTestClient(t, "tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"message":"Not Found","documentation_url":"https://docs.github.com"}`)
	}))

	_, err := c.GetRepoInfo(context.Background(), "acme", "missing")
	f, ok := backend.As(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, backend.HTTPError, f.Kind)
	assert.Equal(t, http.StatusNotFound, f.Status)
	assert.Equal(t, "Not Found", f.Body)
	assert.Equal(t, int32(1), hits.Load(), "4xx must not be retried")
}

func TestClient_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var n atomic.Int32
	c, hits := newTestClient(t, "tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) == 1 {
			writeJSON(w, http.StatusBadGateway, `{"message":"Server Error"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"full_name":"acme/tool","stargazers_count":7}`)
	}))

	repo, err := c.GetRepoInfo(context.Background(), "acme", "tool")
	require.NoError(t, err)
	assert.Equal(t, 7, repo.Stars)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_RetriesExhausted(t *testing.T) {
	t.Parallel()

	c, hits := newTestClient(t, "tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, `{"message":"`+strings.Repeat("x", 400)+`"}`)
	}))

	_, err := c.GetUserInfo(context.Background())
	f, ok := backend.As(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, http.StatusServiceUnavailable, f.Status)
	assert.Len(t, f.Body, backend.SnippetLimit)
	assert.Equal(t, int32(3), hits.Load())
}

func TestClient_ListIssues_SkipsPullRequests(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, "tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/tool/issues", r.URL.Path)
		assert.Equal(t, "open", r.URL.Query().Get("state"))
		assert.Equal(t, "bug,help wanted", r.URL.Query().Get("labels"))
		assert.Equal(t, "10", r.URL.Query().Get("per_page"))
		writeJSON(w, http.StatusOK, `[
			{"number":1,"title":"Crash on start","state":"open","user":{"login":"ann"},"labels":[{"name":"bug"}],"comments":3},
			{"number":2,"title":"Add flag","state":"open","user":{"login":"bob"},"pull_request":{"url":"https://api.github.com/repos/acme/tool/pulls/2"}}]`)
	}))

	issues, err := c.ListIssues(context.Background(), "acme", "tool", IssueListOptions{State: "open", Labels: []string{"bug", "help wanted"}})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Number)
	assert.Equal(t, "ann", issues[0].Author)
	assert.Equal(t, []string{"bug"}, issues[0].Labels)
}

func TestClient_CreateIssue(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, "tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Broken build", body["title"])
		assert.Equal(t, []any{"ci"}, body["labels"])
		_, hasBody := body["body"]
		assert.False(t, hasBody)
		writeJSON(w, http.StatusCreated, `{"number":12,"title":"Broken build","state":"open","html_url":"https://github.com/acme/tool/issues/12"}`)
	}))

	issue, err := c.CreateIssue(context.Background(), "acme", "tool", NewIssue{Title: "Broken build", Labels: []string{"ci"}})
	require.NoError(t, err)
	assert.Equal(t, 12, issue.Number)
	assert.Equal(t, "https://github.com/acme/tool/issues/12", issue.HTMLURL)
}

func TestClient_ListPullRequests(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, "tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/tool/pulls", r.URL.Path)
		assert.Equal(t, "closed", r.URL.Query().Get("state"))
		writeJSON(w, http.StatusOK, `[{"number":5,"title":"Fix","state":"closed","user":{"login":"cy"},"head":{"ref":"fix"},"base":{"ref":"main"}}]`)
	}))

	prs, err := c.ListPullRequests(context.Background(), "acme", "tool", PullRequestListOptions{State: "closed"})
	require.NoError(t, err)
	require.Len(t, prs, 1)
	assert.Equal(t, "fix", prs[0].Head)
	assert.Equal(t, "main", prs[0].Base)
}

func TestClient_GetFileContents_Truncates(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("a", MaxFileChars+500)
	c, _ := newTestClient(t, "tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/tool/contents/docs/guide.md", r.URL.Path)
		payload, _ := json.Marshal(map[string]any{
			"type":     "file",
			"encoding": "base64",
			"path":     "docs/guide.md",
			"size":     len(text),
			"content":  base64.StdEncoding.EncodeToString([]byte(text)),
		})
		writeJSON(w, http.StatusOK, string(payload))
	}))

	file, err := c.GetFileContents(context.Background(), "acme", "tool", "docs/guide.md")
	require.NoError(t, err)
	assert.True(t, file.Truncated)
	assert.True(t, strings.HasSuffix(file.Content, TruncationMarker))
	assert.Len(t, file.Content, MaxFileChars+len(TruncationMarker))
}

func TestClient_GetFileContents_Directory(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, "tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"type":"file","name":"a.go","path":"pkg/a.go"}]`)
	}))

	_, err := c.GetFileContents(context.Background(), "acme", "tool", "pkg")
	assert.ErrorContains(t, err, "is a directory")
}

func TestClient_SearchCode(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, "tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/code", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))
		writeJSON(w, http.StatusOK, `{"total_count":1,"items":[{"name":"main.go","path":"cmd/main.go","html_url":"https://github.com/acme/tool/blob/main/cmd/main.go","repository":{"full_name":"acme/tool"}}]}`)
	}))

	res, err := c.SearchCode(context.Background(), "func main", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "acme/tool", res.Items[0].Repository)
	assert.Equal(t, "cmd/main.go", res.Items[0].Path)
}

func TestNormalizePerPage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 10, NormalizePerPage(0, 10))
	assert.Equal(t, 10, NormalizePerPage(-3, 10))
	assert.Equal(t, 1, NormalizePerPage(1, 10))
	assert.Equal(t, 100, NormalizePerPage(101, 10))
	assert.Equal(t, 42, NormalizePerPage(42, 10))
}

func TestParseRepo(t *testing.T) {
	t.Parallel()

	owner, repo, err := ParseRepo(" golang/go ")
	require.NoError(t, err)
	assert.Equal(t, "golang", owner)
	assert.Equal(t, "go", repo)

	for _, bad := range []string{"", "golang", "/go", "a/b/c"} {
		_, _, err := ParseRepo(bad)
		assert.Error(t, err, bad)
	}
}

func TestClient_Timeouts(t *testing.T) {
	t.Parallel()

	const delay = 400 * time.Millisecond
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		switch r.URL.Path {
		case "/user":
			writeJSON(w, http.StatusOK, `{"login":"octo"}`)
		default:
			writeJSON(w, http.StatusOK, `{"full_name":"o/r","name":"r","owner":{"login":"o"}}`)
		}
	}))
	t.Cleanup(srv.Close)

	newClient := func(timeout, identity time.Duration) *Client {
		c, err := New(Config{
			Token:           "tok",
			BaseURL:         srv.URL,
			Timeout:         timeout,
			IdentityTimeout: identity,
			RetryInterval:   time.Millisecond,
		})
		require.NoError(t, err)
		return c
	}

	t.Run("identity check uses the shorter timeout", func(t *testing.T) {
		t.Parallel()
		c := newClient(3*time.Second, 100*time.Millisecond)

		start := time.Now()
		_, err := c.GetUserInfo(context.Background())
		require.Error(t, err)
		assert.True(t, backend.IsKind(err, backend.Timeout), "got %v", err)
		assert.Less(t, time.Since(start), delay)

		repo, err := c.GetRepoInfo(context.Background(), "o", "r")
		require.NoError(t, err)
		assert.Equal(t, "o/r", repo.FullName)
	})

	t.Run("general call times out", func(t *testing.T) {
		t.Parallel()
		c := newClient(100*time.Millisecond, 100*time.Millisecond)

		_, err := c.GetRepoInfo(context.Background(), "o", "r")
		require.Error(t, err)
		assert.True(t, backend.IsKind(err, backend.Timeout), "got %v", err)
	})
}
