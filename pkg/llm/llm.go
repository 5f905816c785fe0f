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

// Package llm provides text-generation clients for a local Ollama daemon and
// for OpenAI-compatible chat-completion APIs such as Groq.
//
// All clients share the same failure taxonomy (see package backend) and the
// same tiered timeout policy: a short tier for liveness checks, a medium tier
// for ordinary generation and a long tier for requests that may have to wait
// for a model to load.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Tier selects the timeout applied to a request.
type Tier int

const (
	TierGenerate Tier = iota
	TierLiveness
	TierColdStart
)

func (t Tier) String() string {
	switch t {
	case TierLiveness:
		return "liveness"
	case TierColdStart:
		return "cold_start"
	default:
		return "generate"
	}
}

// Timeouts holds the per-tier deadlines. Zero values fall back to defaults.
type Timeouts struct {
	Liveness  time.Duration `yaml:"liveness"`
	Generate  time.Duration `yaml:"generate"`
	ColdStart time.Duration `yaml:"cold_start"`
}

// DefaultTimeouts returns the tiers used when nothing is configured.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Liveness:  5 * time.Second,
		Generate:  120 * time.Second,
		ColdStart: 300 * time.Second,
	}
}

// For returns the deadline for tier. The cold-start tier is never shorter
// than the generate tier.
func (t Timeouts) For(tier Tier) time.Duration {
	d := DefaultTimeouts()
	if t.Liveness > 0 {
		d.Liveness = t.Liveness
	}
	if t.Generate > 0 {
		d.Generate = t.Generate
	}
	if t.ColdStart > 0 {
		d.ColdStart = t.ColdStart
	}
	switch tier {
	case TierLiveness:
		return d.Liveness
	case TierColdStart:
		return max(d.ColdStart, d.Generate)
	default:
		return d.Generate
	}
}

// Request is a single non-streaming generation call.
type Request struct {
	Model       string  // empty means the provider default
	Prompt      string  // user prompt
	System      string  // optional system instruction
	Tier        Tier    // timeout tier
	MaxTokens   int     // 0 means provider default
	Temperature float64 // 0 means provider default
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Provider is a configured generation backend.
type Provider interface {
	Generator
	Name() string
	DefaultModel() string
}

// ProviderConfig selects and configures a provider.
type ProviderConfig struct {
	Type         string // ollama or openai
	Name         string // backend label used in errors and metrics; defaults to Type
	BaseURL      string
	DefaultModel string
	APIKey       string
	KeyEnv       string // variable that supplies APIKey, quoted in CredentialMissing errors
	Timeouts     Timeouts
	HTTPClient   *http.Client
}

// NewProvider builds a provider from cfg.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("llm: base URL is required")
	}
	switch strings.ToLower(cfg.Type) {
	case "", "ollama":
		c := NewOllamaClient(cfg.BaseURL, cfg.DefaultModel, cfg.Timeouts)
		if cfg.HTTPClient != nil {
			c.httpClient = cfg.HTTPClient
		}
		return c, nil
	case "openai":
		c := NewOpenAIClient(cfg)
		return c, nil
	default:
		return nil, fmt.Errorf("llm: unknown provider type %q", cfg.Type)
	}
}

func trimBaseURL(u string) string {
	return strings.TrimRight(u, "/")
}
