package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteToolSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req remoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "weather", req.Name)
		assert.Equal(t, "Berlin", req.Arguments["city"])

		json.NewEncoder(w).Encode(remoteResponse{Result: "18C, cloudy"})
	}))
	defer server.Close()

	tool, err := NewRemoteTool(RemoteToolOptions{
		Name:     "weather",
		Endpoint: server.URL,
	})
	require.NoError(t, err)

	result, err := tool.Execute(context.Background(), map[string]any{"city": "Berlin"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "18C, cloudy", result.Content)
}

func TestRemoteToolStructuredError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(remoteResponse{Error: "unknown city"})
	}))
	defer server.Close()

	tool, err := NewRemoteTool(RemoteToolOptions{Name: "weather", Endpoint: server.URL})
	require.NoError(t, err)

	result, err := tool.Execute(context.Background(), map[string]any{"city": "Atlantis"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "unknown city", result.Error)
}

func TestRemoteToolServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "out of order", http.StatusInternalServerError)
	}))
	defer server.Close()

	tool, err := NewRemoteTool(RemoteToolOptions{Name: "weather", Endpoint: server.URL})
	require.NoError(t, err)

	_, err = tool.Execute(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestRemoteToolTimeoutSurfacesAsFailedResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	tool, err := NewRemoteTool(RemoteToolOptions{
		Name:     "slowpoke",
		Endpoint: server.URL,
		Timeout:  20 * time.Millisecond,
	})
	require.NoError(t, err)

	r := NewRegistry(time.Second)
	require.NoError(t, r.Register(tool))

	result := r.Execute(context.Background(), "slowpoke", map[string]any{})
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestRemoteToolRequiresEndpoint(t *testing.T) {
	_, err := NewRemoteTool(RemoteToolOptions{Name: "weather"})
	assert.Error(t, err)

	_, err = NewRemoteTool(RemoteToolOptions{Endpoint: "http://localhost"})
	assert.Error(t, err)
}
