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

// Package shell is the interactive front end: it reads plain command lines
// such as "chat how do I reverse a slice" and runs them through the same
// Dispatcher the MCP server uses, printing results for a human.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/samber/lo"

	"github.com/kraklabs/devmcp/pkg/tools"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	errColor   = color.New(color.FgRed, color.Bold)
	dimColor   = color.New(color.Faint)
)

// Options tune the shell.
type Options struct {
	// Prompt is printed before each read. Leave empty when input is not a
	// terminal.
	Prompt string
	// Info lines are shown at the top of help, e.g. the configured models.
	Info []string
}

// Shell runs command lines against a Dispatcher.
type Shell struct {
	dispatcher *tools.Dispatcher
	out        io.Writer
	opts       Options
}

// New creates a shell writing to out.
func New(dispatcher *tools.Dispatcher, out io.Writer, opts Options) *Shell {
	return &Shell{dispatcher: dispatcher, out: out, opts: opts}
}

// Run reads commands from in until quit, end of input or cancellation.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)

	for {
		if ctx.Err() != nil {
			return nil
		}
		if s.opts.Prompt != "" {
			fmt.Fprint(s.out, s.opts.Prompt)
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read command: %w", err)
			}
			return nil
		}
		if quit := s.Exec(ctx, scanner.Text()); quit {
			return nil
		}
	}
}

// Exec runs one command line and reports whether it asked to quit.
func (s *Shell) Exec(ctx context.Context, line string) (quit bool) {
	name, _ := splitCommand(line)
	switch strings.ToLower(name) {
	case "":
		return false
	case "quit", "exit", "q":
		return true
	case "help", "?":
		s.printHelp()
		return false
	}

	res, err := s.Call(ctx, line)
	if err != nil {
		_, _ = errColor.Fprint(s.out, "✗ ")
		fmt.Fprintln(s.out, err.Error())
		return false
	}
	s.Print(name, res)
	return false
}

// Call parses line and dispatches it. The error is a parse error; tool
// failures come back as an error Result.
func (s *Shell) Call(ctx context.Context, line string) (*tools.Result, error) {
	name, rest := splitCommand(line)
	tool, ok := s.dispatcher.Registry().Lookup(name)
	if !ok {
		// Let the dispatcher produce the canonical not-found result.
		return s.dispatcher.Dispatch(ctx, name, nil), nil
	}
	args, err := Parse(tool.Descriptor, rest)
	if err != nil {
		return nil, fmt.Errorf("%v\n%s", err, tool.Usage())
	}
	return s.dispatcher.Dispatch(ctx, name, args), nil
}

// Print renders a result with a colored title.
func (s *Shell) Print(name string, res *tools.Result) {
	if res.IsError {
		_, _ = errColor.Fprint(s.out, "✗ ")
		fmt.Fprintln(s.out, res.Text())
		return
	}
	_, _ = titleColor.Fprintln(s.out, "── "+name+" ──")
	fmt.Fprintln(s.out, res.Text())
}

func (s *Shell) printHelp() {
	for _, line := range s.opts.Info {
		_, _ = dimColor.Fprintln(s.out, line)
	}
	if len(s.opts.Info) > 0 {
		fmt.Fprintln(s.out)
	}
	_, _ = titleColor.Fprintln(s.out, "Commands:")
	for _, d := range s.dispatcher.Registry().Descriptors() {
		fmt.Fprintf(s.out, "  %s\n", strings.TrimPrefix(d.Usage(), "Usage: "))
		_, _ = dimColor.Fprintf(s.out, "      %s\n", d.Description)
	}
	fmt.Fprintln(s.out, "  help")
	fmt.Fprintln(s.out, "  quit | exit | q")
}

// splitCommand returns the first word and the trimmed remainder.
func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	idx := strings.IndexFunc(line, isSpace)
	if idx < 0 {
		return line, ""
	}
	return line[:idx], strings.TrimSpace(line[idx:])
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}

// Parse turns the text after the tool name into an argument bag.
//
// Tools with required parameters take them positionally in declaration
// order, the last one consuming the rest of the line. Missing trailing
// words are left absent so the dispatcher reports them with the usage
// string. Tools without required parameters take key=value tokens typed by
// the descriptor.
func Parse(d tools.Descriptor, rest string) (map[string]any, error) {
	args := map[string]any{}
	if required := d.Required(); len(required) > 0 {
		for i, p := range required {
			if rest == "" {
				break
			}
			if i == len(required)-1 {
				args[p.Name] = rest
				break
			}
			word, remainder := splitCommand(rest)
			args[p.Name] = word
			rest = remainder
		}
		return args, nil
	}

	for _, tok := range strings.Fields(rest) {
		key, raw, ok := strings.Cut(tok, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", tok)
		}
		p, found := d.Param(key)
		if !found {
			return nil, fmt.Errorf("unknown parameter %q", key)
		}
		v, err := convert(p, raw)
		if err != nil {
			return nil, err
		}
		args[key] = v
	}
	return args, nil
}

func convert(p tools.Param, raw string) (any, error) {
	switch p.Type {
	case tools.Integer:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s must be an integer, got %q", p.Name, raw)
		}
		return n, nil
	case tools.Number:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number, got %q", p.Name, raw)
		}
		return f, nil
	case tools.Boolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false, got %q", p.Name, raw)
		}
		return b, nil
	case tools.Array:
		var items []any
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
		return items, nil
	default:
		if len(p.Enum) > 0 && !lo.Contains(p.Enum, raw) {
			return nil, fmt.Errorf("%s must be one of %s, got %q", p.Name, strings.Join(p.Enum, ", "), raw)
		}
		return raw, nil
	}
}
