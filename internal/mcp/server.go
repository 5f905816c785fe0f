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

// Package mcp implements the line-delimited JSON-RPC 2.0 loop that exposes
// a tool Dispatcher over stdio.
//
// The loop is strictly sequential: one line is read, handled and answered
// before the next read starts. Lines that are not JSON objects are dropped
// without a response. Unknown methods are answered with a normal result
// carrying an "error" string, which existing clients of these servers rely on.
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/kraklabs/devmcp/pkg/tools"
)

// ProtocolVersion is the MCP revision announced by initialize.
const ProtocolVersion = "2024-11-05"

// CodeInternalError is the JSON-RPC code for failures while handling a
// request that did parse.
const CodeInternalError = -32603

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response. ID is echoed verbatim; an absent ID
// is written as null.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Info identifies the server in the initialize handshake.
type Info struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    capabilities `json:"capabilities"`
	ServerInfo      Info         `json:"serverInfo"`
}

type capabilities struct {
	Tools toolCapabilities `json:"tools"`
}

type toolCapabilities struct {
	ListChanged bool `json:"listChanged"`
}

type wireTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type toolsListResult struct {
	Tools []wireTool `json:"tools"`
}

type toolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Server answers MCP requests with a Dispatcher.
type Server struct {
	dispatcher *tools.Dispatcher
	info       Info
	logger     *slog.Logger

	listOnce sync.Once
	list     json.RawMessage
	listErr  error

	// mu is held from the moment a line is read until its response is
	// flushed.
	mu     sync.Mutex
	closed bool
}

// NewServer creates a server. logger may be nil.
func NewServer(dispatcher *tools.Dispatcher, info Info, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{dispatcher: dispatcher, info: info, logger: logger}
}

// Serve reads requests from r and writes one response line per request to w
// until r is exhausted, ctx is cancelled or Shutdown is called. End of input
// is not an error.
//
// ctx only stops the loop between requests: handlers run under a context
// that cancellation does not reach, so a request already read is always
// answered.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)
	writer := bufio.NewWriter(w)
	handleCtx := context.WithoutCancel(ctx)

	for {
		if ctx.Err() != nil {
			s.logger.Info("mcp.stop", "reason", ctx.Err())
			return nil
		}

		line, readErr := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			stop, err := s.answer(handleCtx, line, writer)
			if err != nil {
				return err
			}
			if stop {
				s.logger.Info("mcp.stop", "reason", "shutdown")
				return nil
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				s.logger.Info("mcp.stop", "reason", "eof")
				return nil
			}
			return fmt.Errorf("read request: %w", readErr)
		}
	}
}

// answer handles one line and flushes its response. It reports stop when
// Shutdown ran before the line could be handled.
func (s *Server) answer(ctx context.Context, line []byte, w *bufio.Writer) (stop bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true, nil
	}

	resp := s.handleLine(ctx, line)
	if resp == nil {
		return false, nil
	}
	if _, err := w.Write(s.encode(resp)); err != nil {
		return false, fmt.Errorf("write response: %w", err)
	}
	if err := w.Flush(); err != nil {
		return false, fmt.Errorf("flush response: %w", err)
	}
	return false, nil
}

// Shutdown waits until the response to the request being handled, if any,
// has been flushed. Lines read afterwards are not answered. It is safe to
// call while Serve is blocked reading.
func (s *Server) Shutdown() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// handleLine parses and answers one line. It returns nil for lines that are
// not JSON objects.
func (s *Server) handleLine(ctx context.Context, line []byte) *Response {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] != '{' {
		s.logger.Debug("mcp.skip", "reason", "not a JSON object", "bytes", len(line))
		return nil
	}
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.logger.Debug("mcp.skip", "reason", "invalid JSON", "err", err)
		return nil
	}
	return s.Handle(ctx, req)
}

// Handle answers a parsed request. It never returns nil and never panics.
func (s *Server) Handle(ctx context.Context, req Request) (resp *Response) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("mcp.panic", "method", req.Method, "panic", r)
			resp = s.fail(req, fmt.Sprintf("internal error: %v", r))
		}
		s.logger.Debug("mcp.request", "method", req.Method, "elapsed", time.Since(start))
	}()

	switch req.Method {
	case "initialize":
		return s.reply(req, initializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    capabilities{Tools: toolCapabilities{ListChanged: false}},
			ServerInfo:      s.info,
		})

	case "tools/list":
		list, err := s.toolsList()
		if err != nil {
			return s.fail(req, err.Error())
		}
		return s.reply(req, list)

	case "tools/call":
		var params toolCallParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &params); err != nil {
				return s.fail(req, "invalid tools/call params: "+err.Error())
			}
		}
		s.logger.Info("mcp.tools_call", "tool", params.Name)
		return s.reply(req, s.dispatcher.Dispatch(ctx, params.Name, params.Arguments))

	default:
		s.logger.Warn("mcp.unsupported_method", "method", req.Method)
		return s.reply(req, map[string]string{"error": "Method not supported: " + req.Method})
	}
}

// toolsList renders the descriptor set once so repeated listings are
// byte-identical.
func (s *Server) toolsList() (json.RawMessage, error) {
	s.listOnce.Do(func() {
		descs := s.dispatcher.Registry().Descriptors()
		out := toolsListResult{Tools: make([]wireTool, 0, len(descs))}
		for _, d := range descs {
			out.Tools = append(out.Tools, wireTool{
				Name:        d.Name,
				Description: d.Description,
				InputSchema: d.InputSchema(),
			})
		}
		s.list, s.listErr = json.Marshal(out)
	})
	return s.list, s.listErr
}

// encode renders resp as one newline-terminated line. A result that cannot
// be encoded is replaced by an internal error for the same id.
func (s *Server) encode(resp *Response) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(resp); err != nil {
		s.logger.Error("mcp.encode", "err", err)
		buf.Reset()
		_ = enc.Encode(&Response{
			JSONRPC: "2.0",
			ID:      resp.ID,
			Error:   &RPCError{Code: CodeInternalError, Message: "encode response: " + err.Error()},
		})
	}
	return buf.Bytes()
}

func (s *Server) reply(req Request, result any) *Response {
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func (s *Server) fail(req Request, msg string) *Response {
	return &Response{JSONRPC: "2.0", ID: req.ID, Error: &RPCError{Code: CodeInternalError, Message: msg}}
}
