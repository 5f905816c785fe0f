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

package telemetry

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/devmcp/pkg/tools"
)

var _ tools.Observer = (*Metrics)(nil)

func TestMetrics_Counts(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.ObserveToolCall("chat", tools.StatusOK, 150*time.Millisecond)
	m.ObserveToolCall("chat", tools.StatusOK, 2*time.Second)
	m.ObserveToolCall("chat", tools.StatusError, time.Second)
	m.ObserveBackendFailure("ollama", "timeout")

	assert.InDelta(t, 2, testutil.ToFloat64(m.toolCalls.WithLabelValues("chat", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.toolCalls.WithLabelValues("chat", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.backendFailures.WithLabelValues("ollama", "timeout")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.toolDuration))
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.ObserveToolCall("git_status", tools.StatusOK, time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `devmcp_tool_calls_total{status="ok",tool="git_status"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestMetrics_ServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewMetrics().Serve(ctx, addr, slog.New(slog.DiscardHandler)) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return strings.Contains(string(b), "go_goroutines")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
