package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RemoteTool proxies execution to an external HTTP tool server. The registry
// treats it exactly like an in-process tool: the server's three outcomes
// (success, structured error, timeout) all surface through ToolResult.
type RemoteTool struct {
	name        string
	description string
	schema      map[string]any
	endpoint    string
	client      *http.Client
}

// RemoteToolOptions configure a remote tool adapter
type RemoteToolOptions struct {
	Name        string
	Description string
	Schema      map[string]any
	Endpoint    string
	Timeout     time.Duration
}

// remoteRequest is the wire format sent to the tool server
type remoteRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// remoteResponse is the wire format expected back
type remoteResponse struct {
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

func NewRemoteTool(opts RemoteToolOptions) (*RemoteTool, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("remote tool name is required")
	}
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("remote tool %s: endpoint is required", opts.Name)
	}
	if opts.Schema == nil {
		opts.Schema = NewJSONSchema()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	return &RemoteTool{
		name:        opts.Name,
		description: opts.Description,
		schema:      opts.Schema,
		endpoint:    opts.Endpoint,
		client:      &http.Client{Timeout: opts.Timeout},
	}, nil
}

func (t *RemoteTool) Name() string {
	return t.name
}

func (t *RemoteTool) Description() string {
	return t.description
}

func (t *RemoteTool) JSONSchema() map[string]any {
	return t.schema
}

func (t *RemoteTool) Execute(ctx context.Context, params map[string]any) (ToolResult, error) {
	payload, err := json.Marshal(remoteRequest{Name: t.name, Arguments: params})
	if err != nil {
		return ToolResult{}, ToolError{ToolName: t.name, Message: "failed to encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return ToolResult{}, ToolError{ToolName: t.name, Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// Transport failures and timeouts land here; the registry turns
		// them into a failed result the model can react to.
		return ToolResult{}, ToolError{ToolName: t.name, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ToolResult{}, ToolError{ToolName: t.name, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return ToolResult{}, ToolError{
			ToolName: t.name,
			Message:  fmt.Sprintf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(body)),
		}
	}

	var decoded remoteResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ToolResult{}, ToolError{ToolName: t.name, Message: "malformed response", Cause: err}
	}

	if decoded.Error != "" {
		return ToolResult{Success: false, Error: decoded.Error}, nil
	}
	return ToolResult{Success: true, Content: decoded.Result}, nil
}
