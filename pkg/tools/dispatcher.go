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

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/kraklabs/devmcp/pkg/backend"
)

// Call statuses reported to the Observer.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusNotFound = "not_found"
	StatusInvalid  = "invalid_args"
	StatusPanic    = "panic"
)

// Observer receives dispatch measurements. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveToolCall(tool, status string, elapsed time.Duration)
	ObserveBackendFailure(backendName, kind string)
}

// Dispatcher resolves tool calls against a Registry.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
	observer Observer
}

// NewDispatcher creates a dispatcher. logger and observer may be nil.
func NewDispatcher(registry *Registry, logger *slog.Logger, observer Observer) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{registry: registry, logger: logger, observer: observer}
}

// Registry returns the dispatcher's registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch runs the named tool. It always returns a non-nil Result with at
// least one content block; failures are reported with IsError set.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) (res *Result) {
	start := time.Now()
	status := StatusOK
	defer func() {
		if d.observer != nil {
			label := name
			if status == StatusNotFound {
				label = "unknown"
			}
			d.observer.ObserveToolCall(label, status, time.Since(start))
		}
	}()

	tool, ok := d.registry.Lookup(name)
	if !ok {
		status = StatusNotFound
		d.logger.Warn("tool.not_found", "tool", name)
		return NewError(fmt.Sprintf("Tool '%s' not found", name))
	}

	bound, missing := tool.Bind(args)
	if missing != "" {
		status = StatusInvalid
		d.logger.Warn("tool.missing_argument", "tool", name, "argument", missing)
		return NewError(fmt.Sprintf("Missing required argument '%s'. %s", missing, tool.Usage()))
	}

	defer func() {
		if r := recover(); r != nil {
			status = StatusPanic
			d.logger.Error("tool.panic", "tool", name, "panic", r, "stack", string(debug.Stack()))
			res = NewError(fmt.Sprintf("Error executing %s: internal error: %v", name, r))
		}
	}()

	d.logger.Debug("tool.call", "tool", name)
	out, err := tool.Handler(ctx, bound)
	if err != nil {
		status = StatusError
		if f, ok := backend.As(err); ok && d.observer != nil {
			d.observer.ObserveBackendFailure(f.Backend, f.Kind.String())
		}
		d.logger.Warn("tool.failed", "tool", name, "err", err, "elapsed", time.Since(start))
		return NewError(fmt.Sprintf("Error executing %s: %v", name, err))
	}

	if out == nil || len(out.Content) == 0 {
		isErr := out != nil && out.IsError
		out = NewText("")
		out.IsError = isErr
	}
	if out.IsError {
		status = StatusError
	}
	d.logger.Debug("tool.done", "tool", name, "elapsed", time.Since(start), "is_error", out.IsError)
	return out
}
