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

// Package git runs the git executable for the version-control tools.
//
// A non-zero exit status is data: it is reported in Result.ExitCode with
// Success false and a nil error. Only failures to start the process or to
// finish within the timeout are returned as errors (backend.ProcessLaunch
// and backend.Timeout).
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kraklabs/devmcp/pkg/backend"
)

const backendName = "git"

// DefaultTimeout bounds every git invocation.
const DefaultTimeout = 30 * time.Second

// Result is the captured outcome of one git invocation.
type Result struct {
	Args     []string `json:"args"`
	Success  bool     `json:"success"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
	ExitCode int      `json:"code"`
}

// Runner is the interface for executing git commands.
// This allows mocking in tests.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (*Result, error)
}

// Executor runs the real git binary.
type Executor struct {
	binary  string
	dir     string
	timeout time.Duration
}

// NewExecutor creates an Executor that runs in dir when a call gives no
// directory. Empty binary means "git"; a non-positive timeout means
// DefaultTimeout.
func NewExecutor(binary, dir string, timeout time.Duration) *Executor {
	if binary == "" {
		binary = "git"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{binary: binary, dir: dir, timeout: timeout}
}

// Dir returns the default working directory.
func (e *Executor) Dir() string {
	return e.dir
}

// Run executes git with args in dir (or the default directory) and captures
// its output.
func (e *Executor) Run(ctx context.Context, dir string, args ...string) (*Result, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no git command specified")
	}
	if dir == "" {
		dir = e.dir
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Dir = dir
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{
		Args:    args,
		Stdout:  strings.TrimSpace(stdout.String()),
		Stderr:  strings.TrimSpace(stderr.String()),
		Success: err == nil,
	}
	if err == nil {
		return res, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, backend.NewTimeout(backendName, e.timeout, "git "+args[0], ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if f := backend.ClassifyLaunch(backendName, e.binary, err); f != nil {
		return nil, f
	}
	return nil, backend.NewProcessLaunch(backendName, e.binary, err)
}

// RepoRoot returns the top-level directory of the repository containing
// startPath.
func (e *Executor) RepoRoot(ctx context.Context, startPath string) (string, error) {
	if startPath == "" {
		startPath = e.dir
	}
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}

	res, err := e.Run(ctx, absPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	if !res.Success {
		return "", fmt.Errorf("not a git repository: %s", res.Stderr)
	}
	if res.Stdout == "" {
		return "", fmt.Errorf("could not determine git repository root")
	}
	return res.Stdout, nil
}
