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

// Package ui holds the terminal helpers shared by CLI commands.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Shared colors. They honor color.NoColor, set by InitColors.
var (
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Red    = color.New(color.FgRed)
	Cyan   = color.New(color.FgCyan)
	Dim    = color.New(color.Faint)
	Bold   = color.New(color.Bold)
)

// Out is where the print helpers write.
var Out io.Writer = os.Stdout

// InitColors disables color when asked to, when NO_COLOR is set, or when
// stdout is not a terminal.
func InitColors(noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" || !IsTerminal(os.Stdout) {
		color.NoColor = true
	}
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Header prints a bold section title followed by a rule.
func Header(title string) {
	_, _ = Bold.Fprintln(Out, title)
	_, _ = Dim.Fprintln(Out, strings.Repeat("─", len([]rune(title))))
}

// SubHeader prints a secondary title with a blank line before it.
func SubHeader(title string) {
	fmt.Fprintln(Out)
	_, _ = Cyan.Fprintln(Out, title)
}

// Label renders a field label.
func Label(s string) string {
	return Bold.Sprint(s)
}

// DimText renders secondary text.
func DimText(s string) string {
	return Dim.Sprint(s)
}

// CountText renders a number.
func CountText(n int) string {
	return Cyan.Sprint(n)
}

// Success prints a green check line.
func Success(msg string) {
	_, _ = Green.Fprintln(Out, "✓ "+msg)
}

// Successf is Success with formatting.
func Successf(format string, args ...any) {
	Success(fmt.Sprintf(format, args...))
}

// Warning prints a yellow warning line.
func Warning(msg string) {
	_, _ = Yellow.Fprintln(Out, "! "+msg)
}

// Warningf is Warning with formatting.
func Warningf(format string, args ...any) {
	Warning(fmt.Sprintf(format, args...))
}

// Failure prints a red failure line.
func Failure(msg string) {
	_, _ = Red.Fprintln(Out, "✗ "+msg)
}

// Info prints a plain informational line.
func Info(msg string) {
	fmt.Fprintln(Out, msg)
}

// Infof is Info with formatting.
func Infof(format string, args ...any) {
	Info(fmt.Sprintf(format, args...))
}
