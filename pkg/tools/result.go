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

// Package tools holds the tool registry and the dispatcher that turns a tool
// name and an untyped argument bag into exactly one Result.
//
// Tool sets are plain data: a Registry of Tool values, each a Descriptor
// (name, description, ordered parameters) plus a Handler. The dispatcher
// validates required arguments, fills defaults, runs the handler and folds
// every error or panic into an error Result, so nothing a handler does can
// escape to the caller.
package tools

import "strings"

// Content is a single content block of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the outcome of a tool call.
type Result struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// NewText returns a successful result with one text block.
func NewText(text string) *Result {
	return &Result{Content: []Content{{Type: "text", Text: text}}}
}

// NewError returns an error result with one text block.
func NewError(text string) *Result {
	return &Result{Content: []Content{{Type: "text", Text: text}}, IsError: true}
}

// Append adds a text block.
func (r *Result) Append(text string) *Result {
	r.Content = append(r.Content, Content{Type: "text", Text: text})
	return r
}

// Text joins the text of all blocks with newlines.
func (r *Result) Text() string {
	parts := make([]string, 0, len(r.Content))
	for _, c := range r.Content {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, "\n")
}
