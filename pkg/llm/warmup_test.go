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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockGenerator is a Generator whose behavior is supplied per test.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, req Request) (string, error)
	Calls        []Request
}

func (m *MockGenerator) Generate(ctx context.Context, req Request) (string, error) {
	m.Calls = append(m.Calls, req)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return "", nil
}

func TestWarmUp(t *testing.T) {
	t.Parallel()

	gen := &MockGenerator{
		GenerateFunc: func(_ context.Context, req Request) (string, error) {
			if req.Model == "missing:latest" {
				return "", errors.New("model not found")
			}
			return "hello", nil
		},
	}

	var seen []string
	results := WarmUp(context.Background(), gen,
		[]string{"llama3.1:8b", " ", "missing:latest", "llama3.1:8b"},
		func(r WarmUpResult) { seen = append(seen, r.Model) })

	require.Len(t, results, 2)
	assert.Equal(t, []string{"llama3.1:8b", "missing:latest"}, seen)
	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())

	for _, call := range gen.Calls {
		assert.Equal(t, TierColdStart, call.Tier)
	}

	failed := Failed(results)
	require.Len(t, failed, 1)
	assert.Equal(t, "missing:latest", failed[0].Model)
}

func TestWarmUp_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &MockGenerator{}
	results := WarmUp(ctx, gen, []string{"a", "b"}, nil)

	require.Len(t, results, 2)
	assert.Empty(t, gen.Calls)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}
