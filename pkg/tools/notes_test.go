package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedding maps text onto a tiny deterministic vector so tests run
// without a real embedding backend.
func fakeEmbedding(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, 8)
	lower := strings.ToLower(text)
	for i, word := range []string{"coffee", "tea", "go", "cat", "dog", "rain", "sun", "code"} {
		if strings.Contains(lower, word) {
			vec[i] = 1
		}
	}
	// Avoid the zero vector for unrelated text
	vec[0] += 0.01
	return vec, nil
}

func newTestNotesTool(t *testing.T) *NotesTool {
	t.Helper()
	tool, err := NewNotesTool(NotesConfig{
		CollectionName: "test-notes",
		EmbeddingFunc:  fakeEmbedding,
	})
	require.NoError(t, err)
	return tool
}

func TestNotesToolEmptyStore(t *testing.T) {
	tool := newTestNotesTool(t)

	result, err := tool.Execute(context.Background(), map[string]any{"query": "coffee"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Content, "no notes")
}

func TestNotesToolFindsRelevantNote(t *testing.T) {
	tool := newTestNotesTool(t)
	ctx := context.Background()

	require.NoError(t, tool.AddNote(ctx, "n1", "the coffee grinder setting is 14", nil))
	require.NoError(t, tool.AddNote(ctx, "n2", "the dog vet appointment is friday", nil))

	result, err := tool.Execute(ctx, map[string]any{"query": "coffee machine"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Content, "grinder")
}

func TestNotesToolRejectsEmptyQuery(t *testing.T) {
	tool := newTestNotesTool(t)

	_, err := tool.Execute(context.Background(), map[string]any{"query": "   "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query cannot be empty")
}

func TestNotesToolRequiresEmbedder(t *testing.T) {
	_, err := NewNotesTool(NotesConfig{CollectionName: "x"})
	assert.Error(t, err)
}
