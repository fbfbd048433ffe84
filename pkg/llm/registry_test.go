package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	p := newFromModel(&fakeModel{}, "ollama", "qwen3", true)

	require.NoError(t, r.Register("ollama", p))

	got, err := r.Get("ollama")
	require.NoError(t, err)
	assert.Equal(t, "ollama", got.Name())
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	p := newFromModel(&fakeModel{}, "ollama", "qwen3", true)

	require.NoError(t, r.Register("ollama", p))
	assert.Error(t, r.Register("ollama", p))
}

func TestRegistryFirstProviderBecomesDefault(t *testing.T) {
	r := NewRegistry()
	first := newFromModel(&fakeModel{}, "ollama", "qwen3", true)
	second := newFromModel(&fakeModel{}, "openai", "gpt-4o-mini", true)

	require.NoError(t, r.Register("ollama", first))
	require.NoError(t, r.Register("openai", second))

	def, err := r.GetDefault()
	require.NoError(t, err)
	assert.Equal(t, "ollama", def.Name())

	require.NoError(t, r.SetDefault("openai"))
	def, err = r.GetDefault()
	require.NoError(t, err)
	assert.Equal(t, "openai", def.Name())
}

func TestRegistryUnknownProvider(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("missing")
	assert.Error(t, err)

	assert.Error(t, r.SetDefault("missing"))

	_, err = r.GetDefault()
	assert.Error(t, err)
}
