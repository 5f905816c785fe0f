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

// Package backend defines the typed failure returned by every external
// collaborator: the generation backends, the hosting API and the git binary.
//
// Callers use errors.As to recover a *Failure and switch on its Kind. A
// successful call returns a nil error; a call that reached the backend but
// was rejected returns a Failure of kind HTTPError with the status and a
// truncated body snippet.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// SnippetLimit bounds the body text kept on HTTP failures.
const SnippetLimit = 200

// Kind identifies why an external call failed.
type Kind int

const (
	Unreachable Kind = iota + 1
	Timeout
	HTTPError
	CredentialMissing
	ProcessLaunch
)

// String returns the metric-friendly name of the kind.
func (k Kind) String() string {
	switch k {
	case Unreachable:
		return "unreachable"
	case Timeout:
		return "timeout"
	case HTTPError:
		return "http_error"
	case CredentialMissing:
		return "credential_missing"
	case ProcessLaunch:
		return "process_launch"
	default:
		return "unknown"
	}
}

// Failure is the error value returned by backend clients.
type Failure struct {
	Kind    Kind
	Backend string // ollama, groq, github, git
	Status  int    // HTTP status, HTTPError only
	Body    string // truncated response body, HTTPError only
	Message string // human-readable explanation
	Err     error  // underlying cause, may be nil
}

func (f *Failure) Error() string {
	msg := f.Message
	if msg == "" {
		msg = fmt.Sprintf("%s call failed (%s)", f.Backend, f.Kind)
	}
	if f.Kind == HTTPError {
		if f.Body != "" {
			return fmt.Sprintf("%s: %d - %s", msg, f.Status, f.Body)
		}
		return fmt.Sprintf("%s: %d", msg, f.Status)
	}
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", msg, f.Err)
	}
	return msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewHTTPError builds an HTTPError failure, truncating body to SnippetLimit.
func NewHTTPError(backendName string, status int, body string) *Failure {
	return &Failure{
		Kind:    HTTPError,
		Backend: backendName,
		Status:  status,
		Body:    Snippet(body, SnippetLimit),
		Message: fmt.Sprintf("%s returned an error", backendName),
	}
}

// NewCredentialMissing reports that a call was refused locally because no
// credential is configured. envVar names the variable that would supply it.
func NewCredentialMissing(backendName, envVar string) *Failure {
	return &Failure{
		Kind:    CredentialMissing,
		Backend: backendName,
		Message: fmt.Sprintf("%s credential not configured (set %s)", backendName, envVar),
	}
}

// NewProcessLaunch reports that an executable could not be started.
func NewProcessLaunch(backendName, binary string, err error) *Failure {
	return &Failure{
		Kind:    ProcessLaunch,
		Backend: backendName,
		Message: fmt.Sprintf("cannot launch %s", binary),
		Err:     err,
	}
}

// NewTimeout reports a call that exceeded its deadline after the backend was
// reached.
func NewTimeout(backendName string, after time.Duration, hint string, err error) *Failure {
	msg := fmt.Sprintf("%s is reachable but slow: no response within %s", backendName, after)
	if hint != "" {
		msg += " (" + hint + ")"
	}
	return &Failure{Kind: Timeout, Backend: backendName, Message: msg, Err: err}
}

// NewUnreachable reports a call that could not connect at all.
func NewUnreachable(backendName, target string, err error) *Failure {
	return &Failure{
		Kind:    Unreachable,
		Backend: backendName,
		Message: fmt.Sprintf("cannot reach %s at %s, is it running?", backendName, target),
		Err:     err,
	}
}

// ClassifyTransport converts an error from an HTTP round trip into a Failure.
//
// Connection-level errors (refused, DNS, dial) become Unreachable even when
// the dial itself timed out, so "not running" never reads as "slow". Deadline
// errors after the connection was established become Timeout.
func ClassifyTransport(backendName, target string, after time.Duration, hint string, err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	if isDialError(err) {
		return NewUnreachable(backendName, target, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return NewTimeout(backendName, after, hint, err)
	}
	return NewUnreachable(backendName, target, err)
}

// ClassifyLaunch converts an exec start error into a ProcessLaunch failure.
// It returns nil when err does not describe a launch problem.
func ClassifyLaunch(backendName, binary string, err error) *Failure {
	if err == nil {
		return nil
	}
	var pathErr *os.PathError
	switch {
	case errors.Is(err, exec.ErrNotFound),
		errors.As(err, &pathErr),
		errors.Is(err, os.ErrPermission):
		return NewProcessLaunch(backendName, binary, err)
	}
	return nil
}

// As returns the Failure wrapped in err, if any.
func As(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsKind reports whether err wraps a Failure of kind k.
func IsKind(err error, k Kind) bool {
	f, ok := As(err)
	return ok && f.Kind == k
}

// Snippet trims s and cuts it to at most n runes.
func Snippet(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}

func isTimeout(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout()
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
