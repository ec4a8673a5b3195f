// Package mcp serves the toolforge request envelope over HTTP and provides a
// client for it.
//
// Wire format:
//
//	POST /mcp {"model": "...", "context": {"tool_request": {"name": "...", "input": {...}}}}
//
// A context without a tool_request is acknowledged without dispatching.
package mcp

import (
	"toolforge/internal/tools"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the inbound request body.
type Envelope struct {
	Model   string          `json:"model"`
	Context *RequestContext `json:"context"`
}

// RequestContext carries an optional tool request.
type RequestContext struct {
	ToolRequest *ToolRequest `json:"tool_request,omitempty"`
}

// ToolRequest names a tool and its input.
type ToolRequest struct {
	Name  string         `json:"name"`
	Input map[string]any `json:"input,omitempty"`
}

// Response is the outbound body for /mcp.
type Response struct {
	Status       string        `json:"status"`
	Message      string        `json:"message,omitempty"`
	ToolResponse *ToolResponse `json:"tool_response,omitempty"`

	// Note reports a problem after a successful tool call, such as a
	// created tool that failed to load.
	Note      string `json:"note,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ToolResponse holds the tool's output, or the error message on failure.
type ToolResponse struct {
	ToolName string `json:"tool_name"`
	Output   any    `json:"output"`
}

// ToolList is the body of GET /tools.
type ToolList struct {
	Tools []tools.Descriptor `json:"tools"`
}

// ReloadResponse is the body of POST /tools/{name}/reload.
type ReloadResponse struct {
	Status   string `json:"status"`
	ToolName string `json:"tool_name"`
	Hash     string `json:"hash,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Health is the body of GET /healthz.
type Health struct {
	Status string `json:"status"`
	Tools  int    `json:"tools"`
}
