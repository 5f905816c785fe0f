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

package llm

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"
)

const warmUpPrompt = "hi"

// WarmUpResult records the outcome of loading one model.
type WarmUpResult struct {
	Model    string
	Duration time.Duration
	Err      error
}

// OK reports whether the model answered.
func (r WarmUpResult) OK() bool {
	return r.Err == nil
}

// WarmUp sends a trivial prompt to each model so the backend loads it into
// memory. Requests use the cold-start tier and run sequentially. Blank and
// duplicate model names are skipped. progress, when non-nil, is called after
// each model.
func WarmUp(ctx context.Context, g Generator, models []string, progress func(WarmUpResult)) []WarmUpResult {
	names := lo.Uniq(lo.Compact(lo.Map(models, func(m string, _ int) string {
		return strings.TrimSpace(m)
	})))

	results := make([]WarmUpResult, 0, len(names))
	for _, model := range names {
		if ctx.Err() != nil {
			results = append(results, WarmUpResult{Model: model, Err: ctx.Err()})
			continue
		}
		start := time.Now()
		_, err := g.Generate(ctx, Request{Model: model, Prompt: warmUpPrompt, Tier: TierColdStart})
		r := WarmUpResult{Model: model, Duration: time.Since(start), Err: err}
		results = append(results, r)
		if progress != nil {
			progress(r)
		}
	}
	return results
}

// Failed returns the results whose model did not answer.
func Failed(results []WarmUpResult) []WarmUpResult {
	return lo.Filter(results, func(r WarmUpResult, _ int) bool { return !r.OK() })
}
