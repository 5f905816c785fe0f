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

package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelWarn, Level(0, false))
	assert.Equal(t, slog.LevelInfo, Level(1, false))
	assert.Equal(t, slog.LevelDebug, Level(3, false))
	assert.Equal(t, slog.LevelError, Level(2, true))
}

func TestNew_FiltersByLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, 1, false)
	logger.Debug("tool.call", "tool", "chat")
	logger.Info("mcp.start", "tools", 11)

	assert.NotContains(t, buf.String(), "tool.call")
	assert.Contains(t, buf.String(), "msg=mcp.start tools=11")
}
