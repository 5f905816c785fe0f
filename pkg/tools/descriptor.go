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
	"fmt"
	"strings"
)

// ParamType is the JSON Schema type of a parameter.
type ParamType string

const (
	String  ParamType = "string"
	Integer ParamType = "integer"
	Number  ParamType = "number"
	Boolean ParamType = "boolean"
	Array   ParamType = "array"
)

// Param declares one tool parameter.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Default     any       // applied when the argument is absent
	Enum        []string  // allowed values, string parameters only
	Items       ParamType // element type, array parameters only
}

// Descriptor describes a tool. Parameter order is significant: it is the
// order of the usage string and of positional arguments in the shell.
type Descriptor struct {
	Name        string
	Description string
	Params      []Param
}

// Required returns the required parameters in declaration order.
func (d Descriptor) Required() []Param {
	var out []Param
	for _, p := range d.Params {
		if p.Required {
			out = append(out, p)
		}
	}
	return out
}

// Param returns the parameter called name.
func (d Descriptor) Param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Usage returns "Usage: <tool> <required>... [optional=default]...".
func (d Descriptor) Usage() string {
	var sb strings.Builder
	sb.WriteString("Usage: ")
	sb.WriteString(d.Name)
	for _, p := range d.Params {
		if p.Required {
			fmt.Fprintf(&sb, " <%s>", p.Name)
		}
	}
	for _, p := range d.Params {
		if p.Required {
			continue
		}
		if p.Default != nil {
			fmt.Fprintf(&sb, " [%s=%v]", p.Name, p.Default)
		} else {
			fmt.Fprintf(&sb, " [%s=...]", p.Name)
		}
	}
	return sb.String()
}

// InputSchema renders the parameters as a JSON Schema object. "required" is
// always present, empty when nothing is required.
func (d Descriptor) InputSchema() map[string]any {
	props := make(map[string]any, len(d.Params))
	required := []string{}
	for _, p := range d.Params {
		prop := map[string]any{
			"type":        string(p.Type),
			"description": p.Description,
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Type == Array {
			items := p.Items
			if items == "" {
				items = String
			}
			prop["items"] = map[string]any{"type": string(items)}
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// Bind copies args, fills defaults for absent optional parameters and
// reports the first absent required parameter. A nil value counts as absent.
// Undeclared arguments are passed through untouched.
func (d Descriptor) Bind(args map[string]any) (Args, string) {
	out := make(Args, len(args)+len(d.Params))
	for k, v := range args {
		if v != nil {
			out[k] = v
		}
	}
	for _, p := range d.Params {
		if _, ok := out[p.Name]; ok {
			continue
		}
		if p.Required {
			return nil, p.Name
		}
		if p.Default != nil {
			out[p.Name] = p.Default
		}
	}
	return out, ""
}
