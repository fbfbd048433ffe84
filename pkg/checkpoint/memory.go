package checkpoint

import (
	"context"
	"sync"

	"github.com/killallgit/loom/pkg/chat"
)

// MemoryStore is an in-memory Store for tests and throwaway sessions.
type MemoryStore struct {
	checkpoints map[string][]chat.State
	mu          sync.Mutex

	// Error injection for testing
	SaveError error
	LoadError error
}

// NewMemoryStore creates a new in-memory checkpoint store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		checkpoints: make(map[string][]chat.State),
	}
}

// Save implements Store
func (m *MemoryStore) Save(ctx context.Context, threadID string, state chat.State) (int64, error) {
	if m.SaveError != nil {
		return 0, m.SaveError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkpoints[threadID] = append(m.checkpoints[threadID], state)
	return int64(len(m.checkpoints[threadID])), nil
}

// Load implements Store
func (m *MemoryStore) Load(ctx context.Context, threadID string) (chat.State, int64, error) {
	if m.LoadError != nil {
		return chat.State{}, 0, m.LoadError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	history := m.checkpoints[threadID]
	if len(history) == 0 {
		return chat.State{}, 0, ErrNoCheckpoint
	}
	return history[len(history)-1], int64(len(history)), nil
}

// History returns every checkpoint saved for a thread, oldest first.
// Test helper for prefix-extension assertions.
func (m *MemoryStore) History(threadID string) []chat.State {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := make([]chat.State, len(m.checkpoints[threadID]))
	copy(history, m.checkpoints[threadID])
	return history
}

// Close implements Store
func (m *MemoryStore) Close() error {
	return nil
}
