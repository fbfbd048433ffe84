package stream

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerFuncForwarding(t *testing.T) {
	var chunks []string
	var final string
	var failed error

	h := HandlerFunc{
		ChunkFunc:    func(chunk []byte) error { chunks = append(chunks, string(chunk)); return nil },
		CompleteFunc: func(content string) error { final = content; return nil },
		ErrorFunc:    func(err error) { failed = err },
	}

	require.NoError(t, h.OnChunk([]byte("hel")))
	require.NoError(t, h.OnChunk([]byte("lo")))
	require.NoError(t, h.OnComplete("hello"))
	h.OnError(errors.New("boom"))

	assert.Equal(t, []string{"hel", "lo"}, chunks)
	assert.Equal(t, "hello", final)
	assert.EqualError(t, failed, "boom")
}

func TestHandlerFuncNilCallbacks(t *testing.T) {
	h := HandlerFunc{}

	assert.NoError(t, h.OnChunk([]byte("x")))
	assert.NoError(t, h.OnComplete("x"))
	h.OnError(errors.New("ignored"))
}

func TestToStreamingFuncStopsOnCancel(t *testing.T) {
	var sawErr error
	h := HandlerFunc{
		ChunkFunc: func(chunk []byte) error { t.Fatal("chunk after cancel"); return nil },
		ErrorFunc: func(err error) { sawErr = err },
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fn := ToStreamingFunc(h)
	err := fn(ctx, []byte("late"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, sawErr, context.Canceled)
}

func TestToStreamingFuncForwards(t *testing.T) {
	var got string
	h := HandlerFunc{ChunkFunc: func(chunk []byte) error { got += string(chunk); return nil }}

	fn := ToStreamingFunc(h)
	require.NoError(t, fn(context.Background(), []byte("ok")))

	assert.Equal(t, "ok", got)
}
