package session

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ClientEvent is one decoded SSE frame as seen by a client.
type ClientEvent struct {
	Event string
	Data  json.RawMessage
}

// Client is a minimal HTTP client for the turn API, used by the CLI.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// SendTurn posts one user turn and invokes handle for every frame the server
// streams back. It returns when the stream ends or handle returns an error.
func (c *Client) SendTurn(ctx context.Context, threadID, content string, handle func(ClientEvent) error) error {
	body, err := json.Marshal(TurnRequest{ThreadID: threadID, Content: content})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/turn", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending turn: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			if msg, ok := errResp["error"]; ok {
				return fmt.Errorf("server rejected turn: %s", msg)
			}
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	return readSSE(ctx, resp.Body, handle)
}

// History fetches the thread's messages as of its latest checkpoint.
func (c *Client) History(ctx context.Context, threadID string) (HistoryResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/history?thread_id="+threadID, nil)
	if err != nil {
		return HistoryResponse{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return HistoryResponse{}, fmt.Errorf("fetching history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return HistoryResponse{}, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var history HistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return HistoryResponse{}, fmt.Errorf("decoding history: %w", err)
	}
	return history, nil
}

// readSSE parses an event-stream body, dispatching each complete event.
// Blank lines delimit events; multi-line data is joined with newlines.
func readSSE(ctx context.Context, body io.Reader, handle func(ClientEvent) error) error {
	scanner := bufio.NewScanner(body)

	var eventType string
	var dataLines []string

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()

		if line == "" {
			if eventType != "" && len(dataLines) > 0 {
				data := strings.Join(dataLines, "\n")
				if err := handle(ClientEvent{Event: eventType, Data: json.RawMessage(data)}); err != nil {
					return err
				}
			}
			eventType = ""
			dataLines = nil
			continue
		}

		if strings.HasPrefix(line, "event:") {
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			continue
		}
		if strings.HasPrefix(line, "data:") {
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
			continue
		}
	}

	return scanner.Err()
}
