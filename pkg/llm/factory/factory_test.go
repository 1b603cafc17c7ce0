package factory

import (
	"testing"

	"care-triage-be/pkg/llm/huggingface"
	"care-triage-be/pkg/llm/ollama"
	"care-triage-be/pkg/llm/openai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider(ProviderConfig{Provider: "ollama", Model: "medllama2"})
	require.NoError(t, err)
	o, ok := p.(*ollama.OllamaProvider)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:11434", o.BaseURL)
	assert.Equal(t, "medllama2", o.ModelName)

	p, err = NewLLMProvider(ProviderConfig{Provider: "huggingface", APIKey: "hf", Model: "m"})
	require.NoError(t, err)
	assert.IsType(t, &huggingface.HuggingFaceProvider{}, p)

	p, err = NewLLMProvider(ProviderConfig{Provider: "openai", APIKey: "sk"})
	require.NoError(t, err)
	assert.IsType(t, &openai.OpenAIProvider{}, p)
}

func TestNewLLMProvider_Errors(t *testing.T) {
	_, err := NewLLMProvider(ProviderConfig{Provider: "huggingface"})
	assert.Error(t, err)

	_, err = NewLLMProvider(ProviderConfig{Provider: "openai"})
	assert.Error(t, err)

	_, err = NewLLMProvider(ProviderConfig{Provider: "watson"})
	assert.EqualError(t, err, "unsupported LLM provider: watson")
}
