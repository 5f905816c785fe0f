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

package ui

import (
	"bytes"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	color.NoColor = true
	var buf bytes.Buffer
	old := Out
	Out = &buf
	t.Cleanup(func() { Out = old })
	return &buf
}

func TestPrinters(t *testing.T) {
	buf := capture(t)

	Header("Status")
	SubHeader("Backends:")
	Success("ollama reachable")
	Warningf("%d models missing", 2)
	Failure("github token missing")
	Infof("done in %s", "1s")

	assert.Equal(t, "Status\n──────\n\nBackends:\n✓ ollama reachable\n! 2 models missing\n✗ github token missing\ndone in 1s\n", buf.String())
}

func TestTextHelpers(t *testing.T) {
	color.NoColor = true

	assert.Equal(t, "Model:", Label("Model:"))
	assert.Equal(t, "dim", DimText("dim"))
	assert.Equal(t, "42", CountText(42))
}

func TestInitColors_NoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	color.NoColor = false

	InitColors(false)
	assert.True(t, color.NoColor)
}

func TestIsTerminal_Pipe(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Skip("pipes unavailable")
	}
	defer r.Close()
	defer w.Close()

	assert.False(t, IsTerminal(w))
}
