package huggingface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"care-triage-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat_SendsBearerAndTemperature(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("hf_test", srv.URL, "meta-llama/Llama-3.1-8B-Instruct")
	out, err := p.Generate(context.Background(), "hi", llm.WithTemperature(0))
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	temp, ok := captured["temperature"]
	assert.True(t, ok)
	assert.Equal(t, float64(0), temp)
	assert.Equal(t, float64(500), captured["max_tokens"])
}

func TestChat_EmptyChoicesIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("", srv.URL, "m")
	_, err := p.Generate(context.Background(), "hi")
	assert.Error(t, err)
}

func TestChat_APIErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[],"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("", srv.URL, "m")
	_, err := p.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}
