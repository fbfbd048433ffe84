package streaming

import (
	"fmt"

	"github.com/killallgit/loom/pkg/graph"
)

// Frame event names on the wire. These match graph event types one to one;
// the indirection exists so the internal event shape can evolve without
// breaking clients.
const (
	FrameTokenDelta   = "token_delta"
	FrameToolStarted  = "tool_started"
	FrameToolFinished = "tool_finished"
	FrameToolFailed   = "tool_failed"
	FrameTurnComplete = "turn_complete"
	FrameTurnError    = "turn_error"
)

// Frame is one client-facing protocol message: an event name plus a JSON
// payload.
type Frame struct {
	Event string
	Data  any
}

type TokenDeltaData struct {
	Text string `json:"text"`
}

type ToolStartedData struct {
	CallID   string         `json:"call_id"`
	ToolName string         `json:"tool_name"`
	Input    map[string]any `json:"input"`
}

type ToolFinishedData struct {
	CallID   string `json:"call_id"`
	ToolName string `json:"tool_name"`
	Result   string `json:"result"`
}

type ToolFailedData struct {
	CallID   string `json:"call_id"`
	ToolName string `json:"tool_name"`
	Error    string `json:"error"`
}

type TurnCompleteData struct {
	ThreadID string `json:"thread_id"`
}

type TurnErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FrameFromEvent converts one internal executor event into its wire frame.
// The switch is exhaustive over graph.EventType; an unknown type is a
// programming error, not a client-visible condition.
func FrameFromEvent(event graph.Event) (Frame, error) {
	switch event.Type {
	case graph.EventTokenDelta:
		return Frame{FrameTokenDelta, TokenDeltaData{Text: event.Token}}, nil
	case graph.EventToolStarted:
		return Frame{FrameToolStarted, ToolStartedData{
			CallID:   event.CallID,
			ToolName: event.ToolName,
			Input:    event.ToolInput,
		}}, nil
	case graph.EventToolFinished:
		return Frame{FrameToolFinished, ToolFinishedData{
			CallID:   event.CallID,
			ToolName: event.ToolName,
			Result:   event.ToolResult,
		}}, nil
	case graph.EventToolFailed:
		return Frame{FrameToolFailed, ToolFailedData{
			CallID:   event.CallID,
			ToolName: event.ToolName,
			Error:    event.ToolError,
		}}, nil
	case graph.EventTurnComplete:
		return Frame{FrameTurnComplete, TurnCompleteData{ThreadID: event.ThreadID}}, nil
	case graph.EventTurnError:
		return Frame{FrameTurnError, TurnErrorData{
			Code:    string(event.Code),
			Message: event.Message,
		}}, nil
	default:
		return Frame{}, fmt.Errorf("unknown event type %q", event.Type)
	}
}

// IsTerminal reports whether the frame ends its turn.
func (f Frame) IsTerminal() bool {
	return f.Event == FrameTurnComplete || f.Event == FrameTurnError
}
