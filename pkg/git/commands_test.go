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

package git

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRunner records argument vectors instead of running git.
type MockRunner struct {
	RunFunc func(ctx context.Context, dir string, args ...string) (*Result, error)
	Calls   [][]string
}

func (m *MockRunner) Run(ctx context.Context, dir string, args ...string) (*Result, error) {
	m.Calls = append(m.Calls, args)
	if m.RunFunc != nil {
		return m.RunFunc(ctx, dir, args...)
	}
	return &Result{Args: args, Success: true}, nil
}

func TestClient_ArgumentVectors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tests := []struct {
		name string
		run  func(c *Client) (*Result, error)
		want []string
	}{
		{"status", func(c *Client) (*Result, error) { return c.Status(ctx, "") }, []string{"status"}},
		{"log oneline", func(c *Client) (*Result, error) { return c.Log(ctx, "", 5, true) }, []string{"log", "-5", "--oneline"}},
		{"log graph", func(c *Client) (*Result, error) { return c.Log(ctx, "", 0, false) },
			[]string{"log", "-10", "--graph", "--pretty=format:%h - %an, %ar : %s"}},
		{"diff", func(c *Client) (*Result, error) { return c.Diff(ctx, "", "", false) }, []string{"diff"}},
		{"diff staged file", func(c *Client) (*Result, error) { return c.Diff(ctx, "", "main.go", true) },
			[]string{"diff", "--staged", "--", "main.go"}},
		{"branch list", func(c *Client) (*Result, error) { return c.Branch(ctx, "", "", "") }, []string{"branch", "-a"}},
		{"branch create", func(c *Client) (*Result, error) { return c.Branch(ctx, "", "create", "feature/x") },
			[]string{"checkout", "-b", "feature/x"}},
		{"branch switch", func(c *Client) (*Result, error) { return c.Branch(ctx, "", "switch", "main") },
			[]string{"checkout", "main"}},
		{"branch delete", func(c *Client) (*Result, error) { return c.Branch(ctx, "", "delete", "old") },
			[]string{"branch", "-d", "old"}},
		{"add default", func(c *Client) (*Result, error) { return c.Add(ctx, "", nil) }, []string{"add", "--", "."}},
		{"add files", func(c *Client) (*Result, error) { return c.Add(ctx, "", []string{"a.go", "b.go"}) },
			[]string{"add", "--", "a.go", "b.go"}},
		{"commit", func(c *Client) (*Result, error) { return c.Commit(ctx, "", "fix: typo") },
			[]string{"commit", "-m", "fix: typo"}},
		{"push default", func(c *Client) (*Result, error) { return c.Push(ctx, "", "", "") }, []string{"push", "origin"}},
		{"pull branch", func(c *Client) (*Result, error) { return c.Pull(ctx, "", "upstream", "main") },
			[]string{"pull", "upstream", "main"}},
		{"branch create padded", func(c *Client) (*Result, error) { return c.Branch(ctx, "", "create", " feature ") },
			[]string{"checkout", "-b", "feature"}},
		{"push padded", func(c *Client) (*Result, error) { return c.Push(ctx, "", " origin ", " main\n") },
			[]string{"push", "origin", "main"}},
		{"pull blank remote", func(c *Client) (*Result, error) { return c.Pull(ctx, "", "  ", "") },
			[]string{"pull", "origin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &MockRunner{}
			_, err := tt.run(NewClient(runner))
			require.NoError(t, err)
			require.Len(t, runner.Calls, 1)
			assert.Equal(t, tt.want, runner.Calls[0])
		})
	}
}

func TestClient_Branch_RequiresName(t *testing.T) {
	t.Parallel()

	for _, action := range []string{BranchCreate, BranchSwitch, BranchDelete} {
		runner := &MockRunner{}
		_, err := NewClient(runner).Branch(context.Background(), "", action, "")
		assert.ErrorContains(t, err, "branch name is required", action)
		assert.Empty(t, runner.Calls, "no git process for %s without a name", action)
	}
}

func TestClient_RejectsOptionLikeArguments(t *testing.T) {
	t.Parallel()

	runner := &MockRunner{}
	c := NewClient(runner)
	ctx := context.Background()

	_, err := c.Branch(ctx, "", BranchDelete, "--force")
	assert.Error(t, err)
	_, err = c.Push(ctx, "", "--mirror", "")
	assert.Error(t, err)
	_, err = c.Add(ctx, "", []string{"-A"})
	assert.Error(t, err)
	_, err = c.Diff(ctx, "", "--output=/tmp/x", false)
	assert.Error(t, err)
	_, err = c.Branch(ctx, "", "rename", "x")
	assert.ErrorContains(t, err, "unknown branch action")
	_, err = c.Commit(ctx, "", "   ")
	assert.Error(t, err)

	assert.Empty(t, runner.Calls)
}

func TestValidateBranchName(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"main", "feature/login", "release-1.2", "fix_bug"} {
		assert.NoError(t, ValidateBranchName(ok), ok)
	}
	for _, bad := range []string{"", "  ", "-x", "a..b", "has space", "semi;colon"} {
		assert.Error(t, ValidateBranchName(bad), bad)
	}
}
