package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/killallgit/loom/pkg/chat"
	"github.com/killallgit/loom/pkg/checkpoint"
	"github.com/killallgit/loom/pkg/llm"
	"github.com/killallgit/loom/pkg/logger"
	"github.com/killallgit/loom/pkg/stream"
	"github.com/killallgit/loom/pkg/tools"
)

// node names the states of the turn machine. The shape is fixed:
// validate_input -> invoke_model -> route_decision ->
// {execute_tool -> invoke_model | terminate}.
type node string

const (
	nodeValidateInput node = "validate_input"
	nodeInvokeModel   node = "invoke_model"
	nodeRouteDecision node = "route_decision"
	nodeExecuteTool   node = "execute_tool"
	nodeTerminate     node = "terminate"
)

// Executor drives one conversation turn at a time through the node graph.
// It is safe to share across sessions: all per-turn state lives in the run.
type Executor struct {
	provider      llm.Provider
	tools         *tools.Registry
	store         checkpoint.Store
	maxIterations int
	turnTimeout   time.Duration
	systemPrompt  string
	log           *logger.Logger
}

// Option is a functional option for configuring the executor
type Option func(*Executor) error

// WithMaxIterations caps the tool-call loop within one turn
func WithMaxIterations(max int) Option {
	return func(e *Executor) error {
		if max <= 0 {
			return fmt.Errorf("max iterations must be positive")
		}
		e.maxIterations = max
		return nil
	}
}

// WithTurnTimeout bounds the wall clock of one turn
func WithTurnTimeout(d time.Duration) Option {
	return func(e *Executor) error {
		if d <= 0 {
			return fmt.Errorf("turn timeout must be positive")
		}
		e.turnTimeout = d
		return nil
	}
}

// WithSystemPrompt seeds new threads with a system message
func WithSystemPrompt(prompt string) Option {
	return func(e *Executor) error {
		e.systemPrompt = prompt
		return nil
	}
}

// New creates a graph executor over the given provider, tool registry and
// checkpoint store.
func New(provider llm.Provider, registry *tools.Registry, store checkpoint.Store, options ...Option) (*Executor, error) {
	e := &Executor{
		provider:      provider,
		tools:         registry,
		store:         store,
		maxIterations: 10,
		turnTimeout:   5 * time.Minute,
		log:           logger.WithComponent("graph"),
	}

	for _, opt := range options {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	return e, nil
}

// run carries the per-turn context: the growing state and the tool call
// currently being executed. Each turn gets its own run, so nothing leaks
// across sessions.
type run struct {
	threadID string
	state    chat.State
	appended bool
	pending  *chat.ToolCall
	events   chan<- Event

	// parent is the caller's context; when it is done the consumer is gone
	// and nothing more should be emitted. ctx adds the turn deadline on top,
	// so a timed-out turn can still deliver its turn_error.
	parent context.Context
	ctx    context.Context
}

// emit delivers an event unless the consumer has gone away. Returns false
// when the run should stop.
func (r *run) emit(event Event) bool {
	if r.parent.Err() != nil {
		return false
	}
	select {
	case r.events <- event:
		return true
	case <-r.parent.Done():
		return false
	}
}

// Run executes one user turn against the thread and returns the ordered
// event stream for it. The channel is closed when the turn reaches a
// terminal state; every turn ends with exactly one turn_complete or
// turn_error unless the context is cancelled first.
func (e *Executor) Run(ctx context.Context, threadID, content string) <-chan Event {
	events := make(chan Event, 32)

	runCtx, cancel := context.WithTimeout(ctx, e.turnTimeout)
	r := &run{
		threadID: threadID,
		events:   events,
		parent:   ctx,
		ctx:      runCtx,
	}

	go func() {
		defer close(events)
		defer cancel()
		e.execute(r, content)
	}()

	return events
}

func (e *Executor) execute(r *run, content string) {
	if r.parent.Err() != nil {
		return
	}

	current := nodeValidateInput

	if err := e.validateInput(r, content); err != nil {
		e.log.Debug("turn rejected thread=%s: %v", r.threadID, err)
		r.emit(turnErrorEvent(r.threadID, CodeInvalidInput, err.Error()))
		return
	}

	bound, err := e.bindProvider()
	if err != nil {
		r.emit(turnErrorEvent(r.threadID, CodeProviderError, err.Error()))
		return
	}

	// ValidateInput is complete once the user message is appended and
	// checkpointed; that checkpoint is the resumption point if the model
	// call fails. A retried turn reuses its existing checkpoint.
	if r.appended && !e.commit(r) {
		return
	}
	current = nodeInvokeModel

	toolIterations := 0
	for {
		if r.parent.Err() != nil {
			return
		}

		switch current {
		case nodeInvokeModel:
			next, ok := e.invokeModel(r, bound)
			if !ok {
				return
			}
			current = next

		case nodeExecuteTool:
			if toolIterations >= e.maxIterations {
				e.log.Warn("iteration cap reached thread=%s after %d tool calls", r.threadID, toolIterations)
				r.emit(turnErrorEvent(r.threadID, CodeIterationLimit,
					fmt.Sprintf("turn exceeded %d tool iterations", e.maxIterations)))
				return
			}
			toolIterations++
			if !e.executeTool(r) {
				return
			}
			current = nodeInvokeModel

		case nodeTerminate:
			r.emit(turnCompleteEvent(r.threadID))
			return
		}
	}
}

// validateInput loads or creates the thread state and appends the user
// message. No checkpoint is written when validation fails.
func (e *Executor) validateInput(r *run, content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("turn content is empty")
	}

	state, _, err := e.store.Load(r.ctx, r.threadID)
	if errors.Is(err, checkpoint.ErrNoCheckpoint) {
		state = chat.NewStateWithSystem(r.threadID, e.systemPrompt)
	} else if err != nil {
		return fmt.Errorf("loading thread history: %w", err)
	}

	// A dangling user message means the previous turn died before the model
	// answered. Retrying the same turn reuses it instead of appending a
	// duplicate, so resumption stays idempotent.
	if last, ok := chat.GetLastMessage(state); ok && last.IsUser() && last.Content == strings.TrimSpace(content) {
		r.state = state
		return nil
	}

	r.state = chat.AddMessage(state, chat.NewUserMessage(content))
	r.appended = true
	return nil
}

// bindProvider attaches the full tool set to a fresh provider handle for
// this turn. The registry is the single source of truth for what the model
// may call.
func (e *Executor) bindProvider() (llm.Provider, error) {
	if e.tools == nil || !e.tools.HasTools() {
		return e.provider, nil
	}
	bound, err := e.provider.BindTools(e.tools.Definitions(), llm.BindOptions{
		DisableParallelToolCalls: true,
	})
	if err != nil {
		return nil, fmt.Errorf("binding tools: %w", err)
	}
	return bound, nil
}

// invokeModel streams one model response, appends it and checkpoints.
// Returns the next node, or ok=false when the turn is over (error emitted).
func (e *Executor) invokeModel(r *run, bound llm.Provider) (node, bool) {
	handler := stream.HandlerFunc{
		ChunkFunc: func(chunk []byte) error {
			if !r.emit(tokenEvent(r.threadID, string(chunk))) {
				return r.ctx.Err()
			}
			return nil
		},
	}

	msg, err := bound.Stream(r.ctx, r.state.Messages, handler)
	if err != nil {
		if errors.Is(r.ctx.Err(), context.DeadlineExceeded) {
			r.emit(turnErrorEvent(r.threadID, CodeInternalError,
				fmt.Sprintf("turn timed out after %v", e.turnTimeout)))
			return "", false
		}
		// Provider failures are not retried here; the last checkpoint
		// stays valid for the next turn.
		r.emit(turnErrorEvent(r.threadID, CodeProviderError, err.Error()))
		return "", false
	}

	r.state = chat.AddMessage(r.state, msg)
	if !e.commit(r) {
		return "", false
	}

	return e.routeDecision(r, msg), true
}

// routeDecision picks the next node from the latest assistant message.
func (e *Executor) routeDecision(r *run, msg chat.Message) node {
	call, ok := msg.FirstToolCall()
	if !ok {
		return nodeTerminate
	}
	if len(msg.ToolCalls) > 1 {
		// Parallel calls are disabled at binding time; extras are a
		// provider contract violation, not a fatal one.
		e.log.Warn("model emitted %d tool calls with parallel calls disabled, ignoring extras thread=%s",
			len(msg.ToolCalls), r.threadID)
	}
	r.pending = &call
	return nodeExecuteTool
}

// executeTool runs the pending tool call, appends its result and
// checkpoints. Tool failures are absorbed: the model sees them as a result
// payload and the turn continues.
func (e *Executor) executeTool(r *run) bool {
	call := *r.pending
	r.pending = nil

	// Started must reach the client before the (possibly slow) handler
	// runs; the buffered stream keeps this from blocking execution.
	if !r.emit(toolStartedEvent(r.threadID, call.ID, call.Name, call.Arguments)) {
		return false
	}

	result := e.tools.Execute(r.ctx, call.Name, call.Arguments)

	r.state = chat.AddMessage(r.state, chat.NewToolResultMessage(call.ID, call.Name, result.Payload()))
	if !e.commit(r) {
		return false
	}

	if result.Success {
		return r.emit(toolFinishedEvent(r.threadID, call.ID, call.Name, result.Content))
	}
	return r.emit(toolFailedEvent(r.threadID, call.ID, call.Name, result.Error))
}

// commit checkpoints the current state. The write is durable before any
// subsequent event is emitted, so a resumed thread always contains what the
// client was last shown.
func (e *Executor) commit(r *run) bool {
	seq, err := e.store.Save(r.ctx, r.threadID, r.state)
	if err != nil {
		e.log.Error("checkpoint save failed thread=%s: %v", r.threadID, err)
		r.emit(turnErrorEvent(r.threadID, CodeInternalError, fmt.Sprintf("checkpoint failed: %v", err)))
		return false
	}
	e.log.Debug("checkpoint thread=%s seq=%d messages=%d", r.threadID, seq, len(r.state.Messages))
	return true
}
