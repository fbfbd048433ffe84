package graph

// ErrorCode classifies turn-level failures for the client.
type ErrorCode string

const (
	CodeInvalidInput   ErrorCode = "INVALID_INPUT"
	CodeProviderError  ErrorCode = "PROVIDER_ERROR"
	CodeToolError      ErrorCode = "TOOL_ERROR"
	CodeIterationLimit ErrorCode = "ITERATION_LIMIT_EXCEEDED"
	CodeInternalError  ErrorCode = "INTERNAL_ERROR"
)

// EventType tags the Event union.
type EventType string

const (
	EventTokenDelta   EventType = "token_delta"
	EventToolStarted  EventType = "tool_started"
	EventToolFinished EventType = "tool_finished"
	EventToolFailed   EventType = "tool_failed"
	EventTurnComplete EventType = "turn_complete"
	EventTurnError    EventType = "turn_error"
)

// Event is one step-progress notification from a run. Events are ephemeral:
// emitted once, in order, never persisted. Which fields are set depends on
// Type.
type Event struct {
	Type     EventType
	ThreadID string

	// token_delta
	Token string

	// tool_started / tool_finished / tool_failed
	CallID    string
	ToolName  string
	ToolInput map[string]any

	// tool_finished
	ToolResult string

	// tool_failed
	ToolError string

	// turn_error
	Code    ErrorCode
	Message string
}

func tokenEvent(threadID, token string) Event {
	return Event{Type: EventTokenDelta, ThreadID: threadID, Token: token}
}

func toolStartedEvent(threadID, callID, name string, input map[string]any) Event {
	return Event{Type: EventToolStarted, ThreadID: threadID, CallID: callID, ToolName: name, ToolInput: input}
}

func toolFinishedEvent(threadID, callID, name, result string) Event {
	return Event{Type: EventToolFinished, ThreadID: threadID, CallID: callID, ToolName: name, ToolResult: result}
}

func toolFailedEvent(threadID, callID, name, reason string) Event {
	return Event{Type: EventToolFailed, ThreadID: threadID, CallID: callID, ToolName: name, ToolError: reason}
}

func turnCompleteEvent(threadID string) Event {
	return Event{Type: EventTurnComplete, ThreadID: threadID}
}

func turnErrorEvent(threadID string, code ErrorCode, message string) Event {
	return Event{Type: EventTurnError, ThreadID: threadID, Code: code, Message: message}
}
