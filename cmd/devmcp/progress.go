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

package main

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/kraklabs/devmcp/internal/ui"
)

// ProgressConfig decides whether and where progress bars render.
type ProgressConfig struct {
	Enabled bool
	Writer  io.Writer
}

// NewProgressConfig enables bars only for human output on a terminal.
func NewProgressConfig(globals GlobalFlags) ProgressConfig {
	enabled := !globals.JSON && !globals.Quiet && ui.IsTerminal(os.Stderr)
	return ProgressConfig{Enabled: enabled, Writer: os.Stderr}
}

// NewProgressBar creates a bar for total steps. A disabled config yields a
// bar that writes nowhere so callers need no nil checks.
func NewProgressBar(cfg ProgressConfig, total int, description string) *progressbar.ProgressBar {
	w := cfg.Writer
	if !cfg.Enabled || w == nil {
		w = io.Discard
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)
}
