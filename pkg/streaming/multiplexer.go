package streaming

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/killallgit/loom/pkg/graph"
	"github.com/killallgit/loom/pkg/logger"
)

// Sink receives protocol frames in emission order. A write error means the
// client is gone; the multiplexer treats it as a disconnect.
type Sink interface {
	WriteFrame(frame Frame) error
}

// Multiplexer pumps one executor run's events to one client sink, preserving
// order exactly. It never reorders, batches, or drops: every event becomes
// one frame write before the next event is read.
type Multiplexer struct {
	sink Sink
	log  *logger.Logger
}

func NewMultiplexer(sink Sink) *Multiplexer {
	return &Multiplexer{
		sink: sink,
		log:  logger.WithComponent("streaming"),
	}
}

// Pump forwards events until the channel closes or the sink fails. On sink
// failure it calls cancel so the executor stops at its next suspension
// point, then drains the channel so the run goroutine can exit.
func (m *Multiplexer) Pump(cancel context.CancelFunc, events <-chan graph.Event) error {
	for event := range events {
		frame, err := FrameFromEvent(event)
		if err != nil {
			m.log.Error("dropping malformed event: %v", err)
			continue
		}
		if err := m.sink.WriteFrame(frame); err != nil {
			m.log.Info("client disconnected thread=%s: %v", event.ThreadID, err)
			cancel()
			for range events {
			}
			return fmt.Errorf("writing frame: %w", err)
		}
	}
	return nil
}

// SSESink writes frames as server-sent events:
//
//	event: <name>
//	data: <json payload>
//
// The writer is flushed after every frame so token deltas reach the client
// as they arrive.
type SSESink struct {
	w       io.Writer
	flusher http.Flusher
}

// NewSSESink wraps a writer. Pass the http.ResponseWriter's Flusher when it
// has one; nil is fine for buffered writers in tests.
func NewSSESink(w io.Writer, flusher http.Flusher) *SSESink {
	return &SSESink{w: w, flusher: flusher}
}

// WriteFrame implements Sink.
func (s *SSESink) WriteFrame(frame Frame) error {
	payload, err := json.Marshal(frame.Data)
	if err != nil {
		return fmt.Errorf("encoding frame data: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", frame.Event, payload); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
