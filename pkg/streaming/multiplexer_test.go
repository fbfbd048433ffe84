package streaming

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/killallgit/loom/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink captures frames, optionally failing after a set number of
// writes.
type recordingSink struct {
	frames    []Frame
	failAfter int
	err       error
}

func (s *recordingSink) WriteFrame(frame Frame) error {
	if s.err != nil && len(s.frames) >= s.failAfter {
		return s.err
	}
	s.frames = append(s.frames, frame)
	return nil
}

func feed(events ...graph.Event) <-chan graph.Event {
	ch := make(chan graph.Event, len(events))
	for _, event := range events {
		ch <- event
	}
	close(ch)
	return ch
}

func TestPumpPreservesOrder(t *testing.T) {
	sink := &recordingSink{}
	mux := NewMultiplexer(sink)

	err := mux.Pump(func() {}, feed(
		graph.Event{Type: graph.EventTokenDelta, ThreadID: "t1", Token: "hel"},
		graph.Event{Type: graph.EventTokenDelta, ThreadID: "t1", Token: "lo"},
		graph.Event{Type: graph.EventToolStarted, ThreadID: "t1", CallID: "c1", ToolName: "calculator"},
		graph.Event{Type: graph.EventToolFinished, ThreadID: "t1", CallID: "c1", ToolName: "calculator", ToolResult: "15"},
		graph.Event{Type: graph.EventTurnComplete, ThreadID: "t1"},
	))
	require.NoError(t, err)

	require.Len(t, sink.frames, 5)
	assert.Equal(t, FrameTokenDelta, sink.frames[0].Event)
	assert.Equal(t, TokenDeltaData{Text: "hel"}, sink.frames[0].Data)
	assert.Equal(t, TokenDeltaData{Text: "lo"}, sink.frames[1].Data)
	assert.Equal(t, FrameToolStarted, sink.frames[2].Event)
	assert.Equal(t, FrameToolFinished, sink.frames[3].Event)
	assert.Equal(t, "15", sink.frames[3].Data.(ToolFinishedData).Result)
	assert.True(t, sink.frames[4].IsTerminal())
}

func TestPumpConvertsTurnError(t *testing.T) {
	sink := &recordingSink{}
	mux := NewMultiplexer(sink)

	err := mux.Pump(func() {}, feed(
		graph.Event{Type: graph.EventTurnError, ThreadID: "t1", Code: graph.CodeProviderError, Message: "backend down"},
	))
	require.NoError(t, err)

	require.Len(t, sink.frames, 1)
	data := sink.frames[0].Data.(TurnErrorData)
	assert.Equal(t, "PROVIDER_ERROR", data.Code)
	assert.Equal(t, "backend down", data.Message)
	assert.True(t, sink.frames[0].IsTerminal())
}

func TestPumpCancelsOnSinkFailure(t *testing.T) {
	sink := &recordingSink{failAfter: 1, err: errors.New("broken pipe")}
	mux := NewMultiplexer(sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := mux.Pump(cancel, feed(
		graph.Event{Type: graph.EventTokenDelta, ThreadID: "t1", Token: "a"},
		graph.Event{Type: graph.EventTokenDelta, ThreadID: "t1", Token: "b"},
		graph.Event{Type: graph.EventTurnComplete, ThreadID: "t1"},
	))

	require.Error(t, err)
	assert.Len(t, sink.frames, 1)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestPumpDrainsAfterFailure(t *testing.T) {
	sink := &recordingSink{failAfter: 0, err: errors.New("gone")}
	mux := NewMultiplexer(sink)

	events := make(chan graph.Event, 4)
	events <- graph.Event{Type: graph.EventTokenDelta, Token: "x"}
	events <- graph.Event{Type: graph.EventTokenDelta, Token: "y"}
	close(events)

	err := mux.Pump(func() {}, events)
	require.Error(t, err)

	// The channel must be fully drained so the producer never blocks
	_, open := <-events
	assert.False(t, open)
}

func TestSSESinkFormat(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSSESink(&buf, nil)

	require.NoError(t, sink.WriteFrame(Frame{FrameTokenDelta, TokenDeltaData{Text: "hello"}}))
	assert.Equal(t, "event: token_delta\ndata: {\"text\":\"hello\"}\n\n", buf.String())

	buf.Reset()
	require.NoError(t, sink.WriteFrame(Frame{FrameTurnComplete, TurnCompleteData{ThreadID: "t1"}}))
	assert.Equal(t, "event: turn_complete\ndata: {\"thread_id\":\"t1\"}\n\n", buf.String())
}

func TestFrameFromEventRejectsUnknownType(t *testing.T) {
	_, err := FrameFromEvent(graph.Event{Type: "mystery"})
	assert.Error(t, err)
}
