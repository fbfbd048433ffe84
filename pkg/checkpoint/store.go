package checkpoint

import (
	"context"
	"errors"

	"github.com/killallgit/loom/pkg/chat"
)

// ErrNoCheckpoint is returned by Load when a thread has never been saved.
var ErrNoCheckpoint = errors.New("no checkpoint for thread")

// Store persists conversation state snapshots keyed by thread id. Sequence
// numbers are strictly increasing per thread; the latest checkpoint is the
// authoritative resumption point. Save must be durable before it returns.
type Store interface {
	// Save persists state as the next checkpoint for threadID and returns
	// the assigned sequence number.
	Save(ctx context.Context, threadID string, state chat.State) (int64, error)

	// Load returns the latest checkpointed state and its sequence number,
	// or ErrNoCheckpoint.
	Load(ctx context.Context, threadID string) (chat.State, int64, error)

	// Close releases underlying resources
	Close() error
}
