package bootstrap

import (
	"testing"

	"care-triage-be/internal/config"
	"care-triage-be/internal/pkg/logger"
	"care-triage-be/internal/repository/implementation"
	"care-triage-be/internal/repository/memory"
	"care-triage-be/pkg/careflow/lock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCaseStore(t *testing.T) {
	log := logger.NewNopLogger()

	store, err := NewCaseStore(config.StoreConfig{Driver: "file", DataDir: t.TempDir()}, log)
	require.NoError(t, err)
	assert.IsType(t, &implementation.CaseFileRepository{}, store)

	store, err = NewCaseStore(config.StoreConfig{Driver: "memory"}, log)
	require.NoError(t, err)
	assert.IsType(t, &memory.CaseRepository{}, store)

	_, err = NewCaseStore(config.StoreConfig{Driver: "sqlite"}, log)
	assert.EqualError(t, err, "unsupported case store driver: sqlite")
}

func TestNewLocker(t *testing.T) {
	log := logger.NewNopLogger()

	l, err := newLocker(config.WorkflowConfig{LockBackend: "local"}, nil, log)
	require.NoError(t, err)
	assert.IsType(t, &lock.LocalLocker{}, l)

	_, err = newLocker(config.WorkflowConfig{LockBackend: "redis"}, nil, log)
	assert.Error(t, err)

	_, err = newLocker(config.WorkflowConfig{LockBackend: "etcd"}, nil, log)
	assert.Error(t, err)
}

func TestProviderWiring(t *testing.T) {
	cfg := &config.Config{
		Keys: config.APIKeys{HuggingFace: "hf", OpenAI: "sk"},
		Ai:   config.AIConfig{OllamaBaseURL: "http://ollama:11434", OpenAIBaseURL: "http://vllm:8000/v1"},
	}

	tests := []struct {
		provider string
		baseURL  string
		apiKey   string
	}{
		{"ollama", "http://ollama:11434", ""},
		{"openai", "http://vllm:8000/v1", "sk"},
		{"huggingface", "", "hf"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg.Ai.LLMProvider = tt.provider
			assert.Equal(t, tt.baseURL, providerBaseURL(cfg.Ai))
			assert.Equal(t, tt.apiKey, providerAPIKey(cfg))
		})
	}
}
