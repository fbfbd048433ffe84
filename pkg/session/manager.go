package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/killallgit/loom/pkg/chat"
	"github.com/killallgit/loom/pkg/checkpoint"
	"github.com/killallgit/loom/pkg/graph"
	"github.com/killallgit/loom/pkg/logger"
	"github.com/killallgit/loom/pkg/streaming"
)

// ErrTurnInProgress is returned when a turn is started on a thread that is
// already mid-turn. One turn at a time per thread; the client must wait for
// the terminal frame before sending the next UserTurn.
var ErrTurnInProgress = errors.New("a turn is already in progress for this thread")

// Manager wires client turns to executor runs. It owns the one-turn-at-a-time
// guarantee per thread and the disconnect teardown path.
type Manager struct {
	executor *graph.Executor
	store    checkpoint.Store
	active   map[string]struct{}
	mu       sync.Mutex
	log      *logger.Logger
}

func NewManager(executor *graph.Executor, store checkpoint.Store) *Manager {
	return &Manager{
		executor: executor,
		store:    store,
		active:   make(map[string]struct{}),
		log:      logger.WithComponent("session"),
	}
}

func (m *Manager) acquire(threadID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.active[threadID]; busy {
		return false
	}
	m.active[threadID] = struct{}{}
	return true
}

func (m *Manager) release(threadID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, threadID)
}

// RunTurn executes one user turn and streams its frames to sink. It blocks
// until the turn reaches a terminal frame or the sink fails; a sink failure
// cancels the run cooperatively.
func (m *Manager) RunTurn(ctx context.Context, threadID, content string, sink streaming.Sink) error {
	if threadID == "" {
		return fmt.Errorf("thread id is required")
	}
	if !m.acquire(threadID) {
		return ErrTurnInProgress
	}
	defer m.release(threadID)

	m.log.Debug("turn started thread=%s", threadID)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := m.executor.Run(runCtx, threadID, content)
	err := streaming.NewMultiplexer(sink).Pump(cancel, events)

	m.log.Debug("turn finished thread=%s err=%v", threadID, err)
	return err
}

// History returns the thread's messages as of its latest checkpoint. A
// thread with no checkpoints yields an empty history, not an error.
func (m *Manager) History(ctx context.Context, threadID string) ([]chat.Message, error) {
	state, _, err := m.store.Load(ctx, threadID)
	if errors.Is(err, checkpoint.ErrNoCheckpoint) {
		return []chat.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return chat.GetMessages(state), nil
}
