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

	"github.com/kraklabs/devmcp/pkg/llm"
	"github.com/kraklabs/devmcp/pkg/tools"
)

const (
	fastTemperature = 0.7

	codeHelpSystem = "You are an expert programmer. Give concise answers with working code. At most 3 paragraphs."
	quickFixSystem = "Give a direct, practical solution. At most 2 paragraphs."
)

// NewGroq builds the hosted fast-inference tool set.
func NewGroq(d Deps) (*tools.Registry, error) {
	if d.Groq == nil {
		return nil, errors.New("groq generator is required")
	}
	model := d.Models.Fast
	ask := func(argName, system string, maxTokens int) tools.Handler {
		return func(ctx context.Context, args tools.Args) (*tools.Result, error) {
			d.logger().Info("tool.generate", "backend", "groq", "model", model)
			out, err := d.Groq.Generate(ctx, llm.Request{
				Model:       model,
				Prompt:      args.String(argName),
				System:      system,
				Tier:        llm.TierGenerate,
				MaxTokens:   maxTokens,
				Temperature: fastTemperature,
			})
			if err != nil {
				return nil, err
			}
			return tools.NewText(out), nil
		}
	}

	return mustRegister(tools.NewRegistry(),
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "fast_chat",
				Description: "Fast general chat on hosted inference",
				Params:      []tools.Param{{Name: "message", Type: tools.String, Required: true, Description: "Message to send"}},
			},
			Handler: ask("message", "", 500),
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "code_help",
				Description: "Short programming answers with working code",
				Params:      []tools.Param{{Name: "code_query", Type: tools.String, Required: true, Description: "Programming question"}},
			},
			Handler: ask("code_query", codeHelpSystem, 800),
		},
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:        "quick_fix",
				Description: "Direct fix for a described problem",
				Params:      []tools.Param{{Name: "problem", Type: tools.String, Required: true, Description: "Problem description"}},
			},
			Handler: ask("problem", quickFixSystem, 400),
		},
	), nil
}
