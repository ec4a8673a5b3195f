package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"toolforge/internal/logging"
)

// Client talks to a running toolforge server.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewClient creates a client for the server at baseURL.
// model is sent in every envelope.
func NewClient(baseURL, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// CallTool sends a tool request. A tool failure is returned as a Response
// with StatusError, not as an error; err is reserved for transport problems.
func (c *Client) CallTool(ctx context.Context, name string, input map[string]any) (*Response, error) {
	env := Envelope{
		Model:   c.model,
		Context: &RequestContext{ToolRequest: &ToolRequest{Name: name, Input: input}},
	}

	var resp Response
	if err := c.do(ctx, http.MethodPost, "/mcp", env, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTools fetches the descriptors of every available tool.
func (c *Client) ListTools(ctx context.Context) (*ToolList, error) {
	var list ToolList
	if err := c.do(ctx, http.MethodGet, "/tools", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Reload asks the server to reload name from its store.
func (c *Client) Reload(ctx context.Context, name string) (*ReloadResponse, error) {
	var resp ReloadResponse
	if err := c.do(ctx, http.MethodPost, "/tools/"+name+"/reload", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ping checks that the server is up.
func (c *Client) Ping(ctx context.Context) error {
	var h Health
	return c.do(ctx, http.MethodGet, "/healthz", nil, &h)
}

// do performs a request and decodes the JSON body into out. Error statuses
// whose body still decodes are not treated as transport failures.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	logging.TransportDebug("client %s %s", method, path)
	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		if httpResp.StatusCode >= 400 {
			return fmt.Errorf("server returned status %d: %s", httpResp.StatusCode, string(data))
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
