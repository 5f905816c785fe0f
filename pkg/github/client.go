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

// Package github wraps the GitHub REST API for the hosting tools.
//
// Every operation requires a token. Without one, calls fail with a
// backend.CredentialMissing failure before any request is made. Other
// failures are reported as backend failures: HTTPError for non-2xx
// responses (body cut to a short snippet), Timeout and Unreachable for
// transport problems. Responses of 429 and 5xx are retried with exponential
// backoff inside the call's own deadline.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	gh "github.com/google/go-github/v39/github"
	"golang.org/x/oauth2"

	"github.com/kraklabs/devmcp/pkg/backend"
)

const (
	backendName = "github"
	tokenEnv    = "GITHUB_TOKEN"

	// MaxFileChars bounds the text returned by GetFileContents.
	MaxFileChars = 2000
	// TruncationMarker is appended to file contents cut at MaxFileChars.
	TruncationMarker = "\n... [truncated]"
)

// Config configures a Client.
type Config struct {
	Token           string
	BaseURL         string        // API root; empty means api.github.com
	Timeout         time.Duration // per call, default 15s
	IdentityTimeout time.Duration // GetUserInfo, default 10s
	Retries         int           // extra attempts on 429/5xx
	RetryInterval   time.Duration // first backoff interval, default 250ms
	HTTPClient      *http.Client  // base transport, mainly for tests
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Timeout:         15 * time.Second,
		IdentityTimeout: 10 * time.Second,
		Retries:         2,
		RetryInterval:   250 * time.Millisecond,
	}
}

// Client is a token-gated GitHub API client.
type Client struct {
	api     *gh.Client
	cfg     Config
	baseURL string
}

// New builds a client. An empty token is accepted; every call then reports
// CredentialMissing.
func New(cfg Config) (*Client, error) {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.IdentityTimeout <= 0 {
		cfg.IdentityTimeout = def.IdentityTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = def.RetryInterval
	}

	httpClient := cfg.HTTPClient
	if cfg.Token != "" {
		ctx := context.Background()
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	}

	api := gh.NewClient(httpClient)
	if cfg.BaseURL != "" {
		baseURL, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse github base URL: %w", err)
		}
		if !strings.HasSuffix(baseURL.Path, "/") {
			baseURL.Path += "/"
		}
		api.BaseURL = baseURL
	}

	return &Client{api: api, cfg: cfg, baseURL: api.BaseURL.String()}, nil
}

// HasToken reports whether a credential is configured.
func (c *Client) HasToken() bool {
	return c.cfg.Token != ""
}

// NormalizePerPage clamps n into [1, 100], using def when n is not positive.
func NormalizePerPage(n, def int) int {
	if n < 1 {
		return def
	}
	if n > 100 {
		return 100
	}
	return n
}

// ParseRepo splits "owner/repo" into its parts.
func ParseRepo(fullName string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.Trim(strings.TrimSpace(fullName), "/"), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("repository must be in owner/repo form, got %q", fullName)
	}
	return owner, repo, nil
}

// call runs fn under the credential gate, a deadline and the retry policy.
func (c *Client) call(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (*gh.Response, error)) error {
	if !c.HasToken() {
		return backend.NewCredentialMissing(backendName, tokenEnv)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.RetryInterval
	bo.MaxInterval = 5 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.cfg.Retries)), ctx)

	err := backoff.Retry(func() error {
		resp, err := fn(ctx)
		if err == nil {
			return nil
		}
		f := c.classify(resp, err, timeout)
		if isRetryable(f) {
			return f
		}
		return backoff.Permanent(f)
	}, policy)
	if err == nil {
		return nil
	}
	if _, ok := backend.As(err); ok || errors.Is(err, context.Canceled) {
		return err
	}
	return backend.ClassifyTransport(backendName, c.baseURL, timeout, "", err)
}

func (c *Client) classify(resp *gh.Response, err error, timeout time.Duration) *backend.Failure {
	var (
		errResp   *gh.ErrorResponse
		rateErr   *gh.RateLimitError
		abuseErr  *gh.AbuseRateLimitError
		accepted  *gh.AcceptedError
		statusErr = func(r *http.Response, msg string) *backend.Failure {
			status := 0
			if r != nil {
				status = r.StatusCode
			}
			if msg == "" {
				msg = http.StatusText(status)
			}
			return backend.NewHTTPError(backendName, status, msg)
		}
	)

	switch {
	case errors.As(err, &rateErr):
		return statusErr(rateErr.Response, rateErr.Message)
	case errors.As(err, &abuseErr):
		return statusErr(abuseErr.Response, abuseErr.Message)
	case errors.As(err, &errResp):
		return statusErr(errResp.Response, errResp.Message)
	case errors.As(err, &accepted):
		return backend.NewHTTPError(backendName, http.StatusAccepted, "request accepted but not yet complete, retry later")
	}
	if resp != nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return statusErr(resp.Response, "")
	}
	return backend.ClassifyTransport(backendName, c.baseURL, timeout, "", err)
}

func isRetryable(f *backend.Failure) bool {
	if f == nil || f.Kind != backend.HTTPError {
		return false
	}
	return f.Status == http.StatusTooManyRequests || (f.Status >= 500 && f.Status <= 599)
}
