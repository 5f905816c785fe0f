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

// Package errors provides user-facing CLI errors: a short title, the cause,
// and a suggested fix, rendered in color for terminals or as JSON.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Category groups errors for exit codes and JSON output.
type Category string

const (
	CategoryConfig     Category = "config"
	CategoryInput      Category = "input"
	CategoryNetwork    Category = "network"
	CategoryPermission Category = "permission"
	CategoryInternal   Category = "internal"
)

// UserError is an error meant to be read by a person at a terminal.
type UserError struct {
	Category Category
	Title    string
	Cause    string
	Fix      string
	Err      error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Title, e.Cause, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Title, e.Cause)
}

func (e *UserError) Unwrap() error {
	return e.Err
}

func newUserError(cat Category, title, cause, fix string, err error) *UserError {
	return &UserError{Category: cat, Title: title, Cause: cause, Fix: fix, Err: err}
}

// NewConfigError reports a missing or invalid configuration.
func NewConfigError(title, cause, fix string, err error) *UserError {
	return newUserError(CategoryConfig, title, cause, fix, err)
}

// NewInputError reports bad arguments or input.
func NewInputError(title, cause, fix string) *UserError {
	return newUserError(CategoryInput, title, cause, fix, nil)
}

// NewNetworkError reports an unreachable or failing backend.
func NewNetworkError(title, cause, fix string, err error) *UserError {
	return newUserError(CategoryNetwork, title, cause, fix, err)
}

// NewPermissionError reports a filesystem permission problem.
func NewPermissionError(title, cause, fix string, err error) *UserError {
	return newUserError(CategoryPermission, title, cause, fix, err)
}

// NewInternalError reports a bug.
func NewInternalError(title, cause, fix string, err error) *UserError {
	return newUserError(CategoryInternal, title, cause, fix, err)
}

type jsonError struct {
	Error    string   `json:"error"`
	Category Category `json:"category"`
	Cause    string   `json:"cause,omitempty"`
	Fix      string   `json:"fix,omitempty"`
	Detail   string   `json:"detail,omitempty"`
}

// Format renders the error for humans, or as a single JSON object.
func (e *UserError) Format(asJSON bool) string {
	if asJSON {
		out := jsonError{Error: e.Title, Category: e.Category, Cause: e.Cause, Fix: e.Fix}
		if e.Err != nil {
			out.Detail = e.Err.Error()
		}
		data, err := json.Marshal(out)
		if err != nil {
			return fmt.Sprintf(`{"error":%q}`, e.Title)
		}
		return string(data)
	}

	red := color.New(color.FgRed, color.Bold)
	dim := color.New(color.Faint)
	var sb strings.Builder
	sb.WriteString(red.Sprint("Error: "))
	sb.WriteString(e.Title)
	sb.WriteString("\n")
	if e.Cause != "" {
		fmt.Fprintf(&sb, "  Cause:  %s\n", e.Cause)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, "  Detail: %s\n", dim.Sprint(e.Err.Error()))
	}
	if e.Fix != "" {
		fmt.Fprintf(&sb, "  Fix:    %s\n", color.CyanString(e.Fix))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// ExitCode maps the category to a process exit code.
func (e *UserError) ExitCode() int {
	switch e.Category {
	case CategoryInput, CategoryConfig:
		return 2
	default:
		return 1
	}
}

// As wraps any error as a UserError. Errors that already are one are
// returned unchanged.
func As(err error) *UserError {
	var ue *UserError
	if stderrors.As(err, &ue) {
		return ue
	}
	return NewInternalError("Unexpected error", err.Error(), "", nil)
}

var (
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// FatalError prints err and exits the process.
func FatalError(err error, asJSON bool) {
	ue := As(err)
	fmt.Fprintln(stderr, ue.Format(asJSON))
	exit(ue.ExitCode())
}
