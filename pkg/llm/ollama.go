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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kraklabs/devmcp/pkg/backend"
)

const (
	ollamaBackend = "ollama"
	loadingHint   = "the model may still be loading"
	maxBodyBytes  = 8 << 20
)

// OllamaClient talks to the Ollama HTTP API.
type OllamaClient struct {
	baseURL    string
	model      string
	timeouts   Timeouts
	httpClient *http.Client
}

// Model describes a locally installed Ollama model.
type Model struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// NewOllamaClient creates a client for the daemon at baseURL. The HTTP client
// carries no timeout of its own; deadlines come from the request tier.
func NewOllamaClient(baseURL, defaultModel string, timeouts Timeouts) *OllamaClient {
	return &OllamaClient{
		baseURL:    trimBaseURL(baseURL),
		model:      defaultModel,
		timeouts:   timeouts,
		httpClient: &http.Client{},
	}
}

func (c *OllamaClient) Name() string         { return ollamaBackend }
func (c *OllamaClient) DefaultModel() string { return c.model }
func (c *OllamaClient) BaseURL() string      { return c.baseURL }

// Generate posts a non-streaming /api/generate request and returns the
// "response" field.
func (c *OllamaClient) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}

	var out ollamaGenerateResponse
	if err := c.do(ctx, http.MethodPost, "/api/generate", body, req.Tier, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// Version returns the daemon version using the liveness tier.
func (c *OllamaClient) Version(ctx context.Context) (string, error) {
	var out struct {
		Version string `json:"version"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/version", nil, TierLiveness, &out); err != nil {
		return "", err
	}
	return out.Version, nil
}

// ListModels returns the installed models using the liveness tier.
func (c *OllamaClient) ListModels(ctx context.Context) ([]Model, error) {
	var out struct {
		Models []Model `json:"models"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tags", nil, TierLiveness, &out); err != nil {
		return nil, err
	}
	return out.Models, nil
}

func (c *OllamaClient) do(ctx context.Context, method, path string, body []byte, tier Tier, out any) error {
	timeout := c.timeouts.For(tier)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build ollama request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return classify(ctx, ollamaBackend, c.baseURL, timeout, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return backend.NewTimeout(ollamaBackend, timeout, loadingHint, err)
		}
		return fmt.Errorf("read ollama response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return backend.NewHTTPError(ollamaBackend, resp.StatusCode, string(data))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode ollama response: %w", err)
	}
	return nil
}

// classify maps a round-trip error to a Failure, letting caller cancellation
// through untouched.
func classify(ctx context.Context, name, target string, timeout time.Duration, err error) error {
	if errors.Is(err, context.Canceled) && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return err
	}
	return backend.ClassifyTransport(name, target, timeout, loadingHint, err)
}
