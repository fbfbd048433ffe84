package tools

import (
	"context"
	"fmt"
	"strings"

	chromem "github.com/philippgille/chromem-go"
)

// NotesTool searches a local vector store of notes. Retrieval internals stay
// behind the tool boundary: the model only sees a query in and matching
// snippets out.
type NotesTool struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NotesConfig contains configuration for the notes search tool
type NotesConfig struct {
	// CollectionName is the name of the collection to search
	CollectionName string

	// PersistDirectory is the directory for persistence (empty for in-memory only)
	PersistDirectory string

	// EmbeddingFunc produces embeddings for documents and queries
	EmbeddingFunc chromem.EmbeddingFunc
}

// NewNotesTool creates a notes search tool over a chromem collection.
func NewNotesTool(config NotesConfig) (*NotesTool, error) {
	if config.EmbeddingFunc == nil {
		return nil, fmt.Errorf("embedding function is required")
	}
	if config.CollectionName == "" {
		config.CollectionName = "notes"
	}

	var db *chromem.DB
	var err error
	if config.PersistDirectory != "" {
		db, err = chromem.NewPersistentDB(config.PersistDirectory, false)
		if err != nil {
			return nil, fmt.Errorf("failed to create notes database: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	collection, err := db.GetOrCreateCollection(config.CollectionName, nil, config.EmbeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to create notes collection: %w", err)
	}

	return &NotesTool{db: db, collection: collection}, nil
}

// OllamaEmbedder returns an embedding function backed by a local Ollama
// server, matching the chromem API shape.
func OllamaEmbedder(model, baseURL string) chromem.EmbeddingFunc {
	return chromem.NewEmbeddingFuncOllama(model, strings.TrimSuffix(baseURL, "/")+"/api")
}

// AddNote stores one note so it can be found later.
func (t *NotesTool) AddNote(ctx context.Context, id, content string, metadata map[string]string) error {
	doc := chromem.Document{
		ID:       id,
		Content:  content,
		Metadata: metadata,
	}
	if err := t.collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("failed to add note: %w", err)
	}
	return nil
}

func (t *NotesTool) Name() string {
	return "search_notes"
}

func (t *NotesTool) Description() string {
	return "Search the user's saved notes by meaning, not keywords. Input: a natural language query. Returns the most relevant note snippets."
}

func (t *NotesTool) JSONSchema() map[string]any {
	schema := NewJSONSchema()
	AddProperty(schema, "query", JSONSchemaProperty{
		Type:        "string",
		Description: "What to look for in the notes",
	})
	AddRequired(schema, "query")
	return schema
}

func (t *NotesTool) Execute(ctx context.Context, params map[string]any) (ToolResult, error) {
	query, _ := params["query"].(string)
	if strings.TrimSpace(query) == "" {
		return ToolResult{}, ToolError{ToolName: t.Name(), Message: "query cannot be empty"}
	}

	count := t.collection.Count()
	if count == 0 {
		return ToolResult{Success: true, Content: "no notes stored yet"}, nil
	}

	limit := 3
	if count < limit {
		limit = count
	}

	results, err := t.collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return ToolResult{}, ToolError{ToolName: t.Name(), Message: "query failed", Cause: err}
	}

	var sb strings.Builder
	for i, res := range results {
		if i > 0 {
			sb.WriteString("\n---\n")
		}
		sb.WriteString(res.Content)
	}

	return ToolResult{Success: true, Content: sb.String()}, nil
}
