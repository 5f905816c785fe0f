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
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/devmcp/pkg/backend"
)

func TestOllamaClient_Generate(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"model":"llama3.1:8b","response":"hi there","done":true}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL+"/", "llama3.1:8b", Timeouts{})
	text, err := c.Generate(context.Background(), Request{Prompt: "hello", System: "be brief"})

	require.NoError(t, err)
	assert.Equal(t, "hi there", text)
	assert.Equal(t, "llama3.1:8b", got["model"])
	assert.Equal(t, "hello", got["prompt"])
	assert.Equal(t, "be brief", got["system"])
	assert.Equal(t, false, got["stream"])
}

func TestOllamaClient_Generate_OmitsEmptySystem(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "base", Timeouts{})
	_, err := c.Generate(context.Background(), Request{Model: "deepseek-coder:6.7b", Prompt: "x"})

	require.NoError(t, err)
	assert.Equal(t, "deepseek-coder:6.7b", got["model"])
	_, hasSystem := got["system"]
	assert.False(t, hasSystem)
}

func TestOllamaClient_Timeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "m", Timeouts{Generate: 50 * time.Millisecond})
	_, err := c.Generate(context.Background(), Request{Prompt: "slow"})

	require.Error(t, err)
	f, ok := backend.As(err)
	require.True(t, ok, "expected backend failure, got %T", err)
	assert.Equal(t, backend.Timeout, f.Kind)
	assert.Contains(t, err.Error(), "reachable but slow")
}

func TestOllamaClient_Unreachable(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := "http://" + ln.Addr().String()
	require.NoError(t, ln.Close())

	c := NewOllamaClient(addr, "m", Timeouts{Generate: time.Second})
	_, err = c.Generate(context.Background(), Request{Prompt: "x"})

	f, ok := backend.As(err)
	require.True(t, ok, "expected backend failure, got %v", err)
	assert.Equal(t, backend.Unreachable, f.Kind)
	assert.NotEqual(t, backend.Timeout, f.Kind)
}

func TestOllamaClient_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'nope' not found"}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "nope", Timeouts{})
	_, err := c.Generate(context.Background(), Request{Prompt: "x"})

	f, ok := backend.As(err)
	require.True(t, ok)
	assert.Equal(t, backend.HTTPError, f.Kind)
	assert.Equal(t, http.StatusNotFound, f.Status)
	assert.Contains(t, f.Body, "not found")
}

func TestOllamaClient_VersionAndModels(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/version":
			_, _ = w.Write([]byte(`{"version":"0.3.12"}`))
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"llama3.1:8b","size":4920753328,"modified_at":"2024-09-01T10:00:00Z"},{"name":"deepseek-coder:6.7b","size":3827834503,"modified_at":"2024-09-02T10:00:00Z"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "m", Timeouts{})

	v, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.3.12", v)

	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "llama3.1:8b", models[0].Name)
	assert.Equal(t, int64(3827834503), models[1].Size)
	assert.Equal(t, 2024, models[1].ModifiedAt.Year())
}

func TestTimeouts_For(t *testing.T) {
	t.Parallel()

	def := Timeouts{}
	assert.Equal(t, 5*time.Second, def.For(TierLiveness))
	assert.Equal(t, 120*time.Second, def.For(TierGenerate))
	assert.Equal(t, 300*time.Second, def.For(TierColdStart))

	// Cold start never undercuts generate.
	custom := Timeouts{Generate: 10 * time.Minute, ColdStart: time.Minute}
	assert.Equal(t, 10*time.Minute, custom.For(TierColdStart))
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	p, err := NewProvider(ProviderConfig{Type: "ollama", BaseURL: "http://localhost:11434", DefaultModel: "llama3.1:8b"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())
	assert.Equal(t, "llama3.1:8b", p.DefaultModel())

	p, err = NewProvider(ProviderConfig{Type: "openai", Name: "groq", BaseURL: DefaultGroqBaseURL, DefaultModel: "llama-3.1-8b-instant"})
	require.NoError(t, err)
	assert.Equal(t, "groq", p.Name())

	_, err = NewProvider(ProviderConfig{Type: "bogus", BaseURL: "http://x"})
	assert.Error(t, err)

	_, err = NewProvider(ProviderConfig{Type: "ollama"})
	assert.Error(t, err)
}
