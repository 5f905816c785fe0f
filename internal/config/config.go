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

// Package config loads the devmcp configuration: built-in defaults, an
// optional .devmcp/config.yaml, a .env file and environment variables, in
// increasing order of precedence.
//
// The result is immutable once loaded; every component receives the values
// it needs at construction time.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kraklabs/devmcp/internal/errors"
	"github.com/kraklabs/devmcp/pkg/llm"
)

const (
	defaultConfigDir  = ".devmcp"
	defaultConfigFile = "config.yaml"
	configVersion     = "1"

	// EnvConfigPath overrides config file discovery.
	EnvConfigPath = "DEVMCP_CONFIG_PATH"
)

// Config is the effective configuration.
type Config struct {
	Version  string        `yaml:"version"`
	Toolsets []string      `yaml:"toolsets"`
	Ollama   OllamaConfig  `yaml:"ollama"`
	GitHub   GitHubConfig  `yaml:"github"`
	Groq     GroqConfig    `yaml:"groq"`
	Git      GitConfig     `yaml:"git"`
	Metrics  MetricsConfig `yaml:"metrics,omitempty"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `yaml:"-"`
}

// OllamaConfig configures the local generation backend.
type OllamaConfig struct {
	BaseURL   string       `yaml:"base_url"`
	ChatModel string       `yaml:"chat_model"`
	CodeModel string       `yaml:"code_model"`
	WarmUp    []string     `yaml:"warmup,omitempty"` // models loaded by warmup; default chat and code
	Timeouts  llm.Timeouts `yaml:"timeouts"`
}

// GitHubConfig configures the hosting client.
type GitHubConfig struct {
	Token           string        `yaml:"token,omitempty"`
	BaseURL         string        `yaml:"base_url,omitempty"` // GitHub Enterprise API root
	Timeout         time.Duration `yaml:"timeout"`
	IdentityTimeout time.Duration `yaml:"identity_timeout"`
	Retries         int           `yaml:"retries"`
}

// GroqConfig configures the OpenAI-compatible fast backend.
type GroqConfig struct {
	BaseURL  string       `yaml:"base_url"`
	Model    string       `yaml:"model"`
	APIKey   string       `yaml:"api_key,omitempty"`
	Timeouts llm.Timeouts `yaml:"timeouts"`
}

// GitConfig configures the git adapter.
type GitConfig struct {
	Binary  string        `yaml:"binary"`
	WorkDir string        `yaml:"work_dir,omitempty"` // default: process working directory
	Timeout time.Duration `yaml:"timeout"`
}

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Version:  configVersion,
		Toolsets: []string{"ollama", "github", "git"},
		Ollama: OllamaConfig{
			BaseURL:   "http://localhost:11434",
			ChatModel: "llama3.1:8b",
			CodeModel: "deepseek-coder:6.7b",
			Timeouts:  llm.DefaultTimeouts(),
		},
		GitHub: GitHubConfig{
			Timeout:         15 * time.Second,
			IdentityTimeout: 10 * time.Second,
			Retries:         2,
		},
		Groq: GroqConfig{
			BaseURL: llm.DefaultGroqBaseURL,
			Model:   "llama-3.1-8b-instant",
			Timeouts: llm.Timeouts{
				Liveness:  5 * time.Second,
				Generate:  30 * time.Second,
				ColdStart: 30 * time.Second,
			},
		},
		Git: GitConfig{
			Binary:  "git",
			Timeout: 30 * time.Second,
		},
	}
}

// Load builds the effective configuration. configPath may be empty, in
// which case DEVMCP_CONFIG_PATH and then .devmcp/config.yaml in the current
// or a parent directory are tried. Finding no file is fine when the path was
// not given explicitly.
func Load(configPath string) (*Config, error) {
	loadDotEnv(".env")

	explicit := configPath != ""
	if configPath == "" {
		configPath = os.Getenv(EnvConfigPath)
		explicit = configPath != ""
	}
	if configPath == "" {
		found, err := findConfigFile()
		if err != nil {
			return nil, err
		}
		configPath = found
	}

	cfg := Default()
	if configPath != "" {
		if err := cfg.readFile(configPath, explicit); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string, explicit bool) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the user or discovery
	if err != nil {
		if os.IsNotExist(err) && explicit {
			return errors.NewConfigError(
				"Configuration file not found",
				fmt.Sprintf("%s does not exist", path),
				"Fix the path or run 'devmcp init' to create a config",
				err,
			)
		}
		return errors.NewConfigError(
			"Cannot read configuration file",
			fmt.Sprintf("Failed to read %s", path),
			"Check file permissions and ensure the file exists",
			err,
		)
	}

	// Unmarshal over the defaults so omitted keys keep their default.
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.NewConfigError(
			"Invalid configuration format",
			"YAML parsing failed - the config file contains syntax errors",
			fmt.Sprintf("Edit %s to fix syntax errors, or run 'devmcp init --force' to recreate", path),
			err,
		)
	}
	if c.Version != configVersion {
		return errors.NewConfigError(
			"Unsupported configuration version",
			fmt.Sprintf("Config version '%s' is not supported (expected '%s')", c.Version, configVersion),
			"Run 'devmcp init --force' to regenerate the configuration file",
			nil,
		)
	}
	c.Path = path
	return nil
}

// applyEnvOverrides lets the environment win over the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv("GITHUB_API_URL"); v != "" {
		c.GitHub.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		c.Ollama.BaseURL = normalizeHost(v)
	}
	if v := os.Getenv("OLLAMA_CHAT_MODEL"); v != "" {
		c.Ollama.ChatModel = v
	}
	if v := os.Getenv("OLLAMA_CODE_MODEL"); v != "" {
		c.Ollama.CodeModel = v
	}
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		c.Groq.APIKey = v
	}
	if v := os.Getenv("GROQ_BASE_URL"); v != "" {
		c.Groq.BaseURL = v
	}
	if v := os.Getenv("GROQ_MODEL"); v != "" {
		c.Groq.Model = v
	}
	if v := os.Getenv("DEVMCP_TOOLSETS"); v != "" {
		c.Toolsets = splitList(v)
	}
	if v := os.Getenv("DEVMCP_GITHUB_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.GitHub.Retries = n
		}
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{
		"ollama.base_url": c.Ollama.BaseURL,
		"github.base_url": c.GitHub.BaseURL,
		"groq.base_url":   c.Groq.BaseURL,
	} {
		if raw == "" && name == "github.base_url" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.NewConfigError(
				"Invalid backend URL",
				fmt.Sprintf("%s is %q, expected an absolute http(s) URL", name, raw),
				"Fix the value in the config file or the matching environment variable",
				err,
			)
		}
	}
	if c.Ollama.ChatModel == "" || c.Ollama.CodeModel == "" {
		return errors.NewConfigError(
			"Missing model name",
			"ollama.chat_model and ollama.code_model must be set",
			"Set them in the config file or via OLLAMA_CHAT_MODEL / OLLAMA_CODE_MODEL",
			nil,
		)
	}
	if c.GitHub.Retries < 0 {
		return errors.NewConfigError(
			"Invalid retry count",
			fmt.Sprintf("github.retries is %d", c.GitHub.Retries),
			"Use 0 to disable retries",
			nil,
		)
	}
	return nil
}

// WarmUpModels returns the models warmed up by default.
func (c *Config) WarmUpModels() []string {
	if len(c.Ollama.WarmUp) > 0 {
		return c.Ollama.WarmUp
	}
	return []string{c.Ollama.ChatModel, c.Ollama.CodeModel}
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	out.Toolsets = append([]string(nil), c.Toolsets...)
	out.Ollama.WarmUp = append([]string(nil), c.Ollama.WarmUp...)
	out.GitHub.Token = mask(c.GitHub.Token)
	out.Groq.APIKey = mask(c.Groq.APIKey)
	return &out
}

// Save writes cfg as YAML, creating the directory when needed.
func Save(cfg *Config, configPath string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.NewInternalError(
			"Cannot encode configuration",
			"YAML marshaling failed unexpectedly",
			"This is a bug. Please report it with your configuration details",
			err,
		)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.NewPermissionError(
			"Cannot create configuration directory",
			fmt.Sprintf("Permission denied creating %s", dir),
			"Check directory permissions or run with appropriate privileges",
			err,
		)
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return errors.NewPermissionError(
			"Cannot write configuration file",
			fmt.Sprintf("Permission denied writing to %s", configPath),
			"Check file permissions and ensure sufficient disk space",
			err,
		)
	}
	return nil
}

// Path returns <dir>/.devmcp/config.yaml.
func Path(dir string) string {
	return filepath.Join(dir, defaultConfigDir, defaultConfigFile)
}

// findConfigFile walks from the working directory to the root looking for
// .devmcp/config.yaml. It returns "" when there is none.
func findConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", errors.NewInternalError(
			"Cannot access working directory",
			"Failed to determine current directory path",
			"Check system permissions and try again",
			err,
		)
	}
	for {
		p := Path(dir)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// loadDotEnv reads KEY=VALUE pairs without overriding variables that are
// already set. A missing file is ignored.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// normalizeHost accepts OLLAMA_HOST in the forms Ollama itself accepts:
// "host:port", "0.0.0.0" or a full URL.
func normalizeHost(v string) string {
	v = strings.TrimRight(strings.TrimSpace(v), "/")
	if strings.Contains(v, "://") {
		return v
	}
	u, err := url.Parse("http://" + v)
	if err != nil {
		return "http://" + v
	}
	if u.Port() == "" {
		u.Host += ":11434"
	}
	return u.String()
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func mask(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) <= 8:
		return "****"
	default:
		return "****" + secret[len(secret)-4:]
	}
}
