package stream

import "context"

// Handler is the unified interface for handling streaming model output.
// It matches LangChain-Go's streaming callback shape so providers can
// forward token deltas without buffering.
type Handler interface {
	// OnChunk is called for each token delta as it arrives.
	OnChunk(chunk []byte) error

	// OnComplete is called once with the final assembled content.
	OnComplete(finalContent string) error

	// OnError is called when streaming fails.
	OnError(err error)
}

// HandlerFunc is a function adapter for the Handler interface
type HandlerFunc struct {
	ChunkFunc    func(chunk []byte) error
	CompleteFunc func(finalContent string) error
	ErrorFunc    func(err error)
}

// OnChunk implements Handler
func (h HandlerFunc) OnChunk(chunk []byte) error {
	if h.ChunkFunc != nil {
		return h.ChunkFunc(chunk)
	}
	return nil
}

// OnComplete implements Handler
func (h HandlerFunc) OnComplete(finalContent string) error {
	if h.CompleteFunc != nil {
		return h.CompleteFunc(finalContent)
	}
	return nil
}

// OnError implements Handler
func (h HandlerFunc) OnError(err error) {
	if h.ErrorFunc != nil {
		h.ErrorFunc(err)
	}
}

// ToStreamingFunc converts a Handler to LangChain's streaming function
// signature. Cancellation is checked before every chunk so a disconnected
// client stops the model call at the next delta.
func ToStreamingFunc(handler Handler) func(context.Context, []byte) error {
	return func(ctx context.Context, chunk []byte) error {
		select {
		case <-ctx.Done():
			handler.OnError(ctx.Err())
			return ctx.Err()
		default:
			return handler.OnChunk(chunk)
		}
	}
}

// Discard is a Handler that drops everything, for non-streaming invocations.
var Discard Handler = HandlerFunc{}

var _ Handler = HandlerFunc{}
