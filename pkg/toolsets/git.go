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

	"github.com/kraklabs/devmcp/pkg/git"
	"github.com/kraklabs/devmcp/pkg/tools"
)

type gitSet struct {
	client  *git.Client
	workDir string
}

// NewGit builds the local git tool set. Every tool accepts an optional cwd
// that overrides the configured working directory.
func NewGit(d Deps) (*tools.Registry, error) {
	if d.Git == nil {
		return nil, errors.New("git runner is required")
	}
	s := &gitSet{client: git.NewClient(d.Git), workDir: d.WorkDir}

	cwd := tools.Param{Name: "cwd", Type: tools.String, Description: "Working directory (default: server working directory)"}
	remote := tools.Param{Name: "remote", Type: tools.String, Default: "origin", Description: "Remote name"}
	branch := tools.Param{Name: "branch", Type: tools.String, Description: "Branch (default: current)"}

	return mustRegister(tools.NewRegistry(),
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "git_status",
				Description: "Show the working tree status",
				Params:      []tools.Param{cwd},
			},
			Handler: s.status,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "git_log",
				Description: "Show recent commits",
				Params: []tools.Param{
					{Name: "limit", Type: tools.Integer, Default: 10, Description: "Number of commits"},
					{Name: "oneline", Type: tools.Boolean, Default: true, Description: "One line per commit"},
					cwd,
				},
			},
			Handler: s.log,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "git_diff",
				Description: "Show unstaged or staged changes",
				Params: []tools.Param{
					{Name: "file", Type: tools.String, Description: "Limit the diff to this file"},
					{Name: "staged", Type: tools.Boolean, Default: false, Description: "Show staged changes"},
					cwd,
				},
			},
			Handler: s.diff,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "git_branch",
				Description: "List, create, switch or delete branches",
				Params: []tools.Param{
					{
						Name: "action", Type: tools.String, Default: git.BranchList,
						Enum:        []string{git.BranchList, git.BranchCreate, git.BranchSwitch, git.BranchDelete},
						Description: "Branch action",
					},
					{Name: "name", Type: tools.String, Description: "Branch name (required except for list)"},
					cwd,
				},
			},
			Handler: s.branch,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "git_add",
				Description: "Stage files",
				Params: []tools.Param{
					{Name: "files", Type: tools.Array, Items: tools.String, Description: "Files to stage (default: all changes)"},
					cwd,
				},
			},
			Handler: s.add,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "git_commit",
				Description: "Commit staged changes",
				Params: []tools.Param{
					{Name: "message", Type: tools.String, Required: true, Description: "Commit message"},
					cwd,
				},
			},
			Handler: s.commit,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "git_push",
				Description: "Push commits to a remote",
				Params:      []tools.Param{remote, branch, cwd},
			},
			Handler: s.push,
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "git_pull",
				Description: "Pull changes from a remote",
				Params:      []tools.Param{remote, branch, cwd},
			},
			Handler: s.pull,
		},
	), nil
}

func (s *gitSet) dir(args tools.Args) string {
	if d := strings.TrimSpace(args.String("cwd")); d != "" {
		return d
	}
	return s.workDir
}

// render turns a git result into tool output. A non-zero exit is reported
// as an error result, not a Go error: the command ran, it just said no.
func render(title, empty string, withStderr bool, res *git.Result, err error) (*tools.Result, error) {
	if err != nil {
		return nil, err
	}
	if !res.Success {
		msg := res.Stderr
		if msg == "" {
			msg = res.Stdout
		}
		name := "git"
		if len(res.Args) > 0 {
			name += " " + res.Args[0]
		}
		return tools.NewError(fmt.Sprintf("%s failed (exit code %d):\n%s", name, res.ExitCode, msg)), nil
	}
	body := res.Stdout
	if body == "" {
		body = empty
	}
	if withStderr && res.Stderr != "" {
		body = strings.TrimLeft(body+"\n"+res.Stderr, "\n")
	}
	return tools.NewText(title + ":\n" + body), nil
}

func (s *gitSet) status(ctx context.Context, args tools.Args) (*tools.Result, error) {
	res, err := s.client.Status(ctx, s.dir(args))
	return render("Git Status", "", false, res, err)
}

func (s *gitSet) log(ctx context.Context, args tools.Args) (*tools.Result, error) {
	res, err := s.client.Log(ctx, s.dir(args), args.Int("limit", 10), args.Bool("oneline"))
	return render("Git Log", "", false, res, err)
}

func (s *gitSet) diff(ctx context.Context, args tools.Args) (*tools.Result, error) {
	res, err := s.client.Diff(ctx, s.dir(args), args.String("file"), args.Bool("staged"))
	return render("Git Diff", "No changes", false, res, err)
}

func (s *gitSet) branch(ctx context.Context, args tools.Args) (*tools.Result, error) {
	action := strings.ToLower(args.String("action"))
	res, err := s.client.Branch(ctx, s.dir(args), action, args.String("name"))
	return render(fmt.Sprintf("Git Branch (%s)", action), "", true, res, err)
}

func (s *gitSet) add(ctx context.Context, args tools.Args) (*tools.Result, error) {
	res, err := s.client.Add(ctx, s.dir(args), args.Strings("files"))
	return render("Git Add", "Files added successfully", true, res, err)
}

func (s *gitSet) commit(ctx context.Context, args tools.Args) (*tools.Result, error) {
	res, err := s.client.Commit(ctx, s.dir(args), args.String("message"))
	return render("Git Commit", "", true, res, err)
}

func (s *gitSet) push(ctx context.Context, args tools.Args) (*tools.Result, error) {
	res, err := s.client.Push(ctx, s.dir(args), args.String("remote"), args.String("branch"))
	return render("Git Push", "", true, res, err)
}

func (s *gitSet) pull(ctx context.Context, args tools.Args) (*tools.Result, error) {
	res, err := s.client.Pull(ctx, s.dir(args), args.String("remote"), args.String("branch"))
	return render("Git Pull", "", true, res, err)
}
