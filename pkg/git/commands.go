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
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var branchNameRe = regexp.MustCompile(`^[A-Za-z0-9._/-]+$`)

// Branch actions accepted by Client.Branch.
const (
	BranchList   = "list"
	BranchCreate = "create"
	BranchSwitch = "switch"
	BranchDelete = "delete"
)

// Client builds argument vectors for the supported git operations and runs
// them through a Runner.
type Client struct {
	runner Runner
}

// NewClient wraps runner.
func NewClient(runner Runner) *Client {
	return &Client{runner: runner}
}

// Status returns the long-form working tree status.
func (c *Client) Status(ctx context.Context, dir string) (*Result, error) {
	return c.runner.Run(ctx, dir, "status")
}

// Log returns the last limit commits, one per line when oneline is set.
func (c *Client) Log(ctx context.Context, dir string, limit int, oneline bool) (*Result, error) {
	if limit < 1 {
		limit = 10
	}
	args := []string{"log", "-" + strconv.Itoa(limit)}
	if oneline {
		args = append(args, "--oneline")
	} else {
		args = append(args, "--graph", "--pretty=format:%h - %an, %ar : %s")
	}
	return c.runner.Run(ctx, dir, args...)
}

// Diff shows unstaged changes, or staged ones when staged is set,
// optionally limited to file.
func (c *Client) Diff(ctx context.Context, dir, file string, staged bool) (*Result, error) {
	args := []string{"diff"}
	if staged {
		args = append(args, "--staged")
	}
	if file != "" {
		if err := validatePath(file); err != nil {
			return nil, err
		}
		args = append(args, "--", file)
	}
	return c.runner.Run(ctx, dir, args...)
}

// Branch lists, creates, switches to or deletes a branch. Every action other
// than list requires a valid name.
func (c *Client) Branch(ctx context.Context, dir, action, name string) (*Result, error) {
	if action == "" {
		action = BranchList
	}
	if action == BranchList {
		return c.runner.Run(ctx, dir, "branch", "-a")
	}

	name = strings.TrimSpace(name)
	if err := ValidateBranchName(name); err != nil {
		return nil, fmt.Errorf("git branch %s: %w", action, err)
	}
	switch action {
	case BranchCreate:
		return c.runner.Run(ctx, dir, "checkout", "-b", name)
	case BranchSwitch:
		return c.runner.Run(ctx, dir, "checkout", name)
	case BranchDelete:
		return c.runner.Run(ctx, dir, "branch", "-d", name)
	default:
		return nil, fmt.Errorf("unknown branch action %q (expected list, create, switch or delete)", action)
	}
}

// Add stages files, or everything when files is empty.
func (c *Client) Add(ctx context.Context, dir string, files []string) (*Result, error) {
	if len(files) == 0 {
		files = []string{"."}
	}
	for _, f := range files {
		if err := validatePath(f); err != nil {
			return nil, err
		}
	}
	return c.runner.Run(ctx, dir, append([]string{"add", "--"}, files...)...)
}

// Commit records staged changes with message.
func (c *Client) Commit(ctx context.Context, dir, message string) (*Result, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("commit message is required")
	}
	return c.runner.Run(ctx, dir, "commit", "-m", message)
}

// Push sends commits to remote, defaulting to origin and the current branch.
func (c *Client) Push(ctx context.Context, dir, remote, branch string) (*Result, error) {
	args, err := remoteArgs("push", remote, branch)
	if err != nil {
		return nil, err
	}
	return c.runner.Run(ctx, dir, args...)
}

// Pull fetches and merges from remote, defaulting to origin and the current
// branch.
func (c *Client) Pull(ctx context.Context, dir, remote, branch string) (*Result, error) {
	args, err := remoteArgs("pull", remote, branch)
	if err != nil {
		return nil, err
	}
	return c.runner.Run(ctx, dir, args...)
}

// ValidateBranchName rejects empty names, option-like names and characters
// git does not allow in refs.
func ValidateBranchName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("branch name is required")
	}
	if strings.HasPrefix(trimmed, "-") || strings.Contains(trimmed, "..") || !branchNameRe.MatchString(trimmed) {
		return fmt.Errorf("invalid branch name: %q", name)
	}
	return nil
}

func remoteArgs(verb, remote, branch string) ([]string, error) {
	remote = strings.TrimSpace(remote)
	branch = strings.TrimSpace(branch)
	if remote == "" {
		remote = "origin"
	}
	if strings.HasPrefix(remote, "-") {
		return nil, fmt.Errorf("invalid remote: %q", remote)
	}
	args := []string{verb, remote}
	if branch != "" {
		if err := ValidateBranchName(branch); err != nil {
			return nil, err
		}
		args = append(args, branch)
	}
	return args, nil
}

func validatePath(p string) error {
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("empty path")
	}
	if strings.HasPrefix(p, "-") {
		return fmt.Errorf("invalid path: %q", p)
	}
	return nil
}
