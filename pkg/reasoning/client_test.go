package reasoning

import (
	"context"
	"errors"
	"testing"
	"time"

	"care-triage-be/internal/pkg/logger"
	"care-triage-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeProvider struct {
	reply   string
	err     error
	block   bool
	history []llm.Message
	options llm.Options
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	f.history = history
	f.options = *llm.Apply(llm.Options{Temperature: 0.7}, opts...)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func TestGenerate_PassesPromptsModelAndZeroTemperature(t *testing.T) {
	p := &fakeProvider{reply: `{"ok":true}`}
	c := NewClient(p, Config{Model: "medllama2", Timeout: time.Second}, logger.NewNopLogger())

	out, err := c.Generate(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	require.Len(t, p.history, 2)
	assert.Equal(t, llm.Message{Role: llm.RoleSystem, Content: "system text"}, p.history[0])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "user text"}, p.history[1])
	assert.Equal(t, 0.0, p.options.Temperature)
	assert.Equal(t, "medllama2", p.options.Model)
}

func TestGenerate_BackendErrorIsServiceUnavailable(t *testing.T) {
	p := &fakeProvider{err: errors.New("connection refused")}
	c := NewClient(p, Config{Model: "m", Timeout: time.Second}, logger.NewNopLogger())

	_, err := c.Generate(context.Background(), "s", "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGenerate_BoundedWait(t *testing.T) {
	p := &fakeProvider{block: true}
	c := NewClient(p, Config{Model: "m", Timeout: 20 * time.Millisecond}, logger.NewNopLogger())

	start := time.Now()
	_, err := c.Generate(context.Background(), "s", "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestGenerate_CallerCancellation(t *testing.T) {
	p := &fakeProvider{block: true}
	c := NewClient(p, Config{Model: "m", Timeout: time.Minute}, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Generate(ctx, "s", "u")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestNewClient_DefaultTimeout(t *testing.T) {
	c := NewClient(&fakeProvider{}, Config{}, logger.NewNopLogger())
	assert.Equal(t, DefaultTimeout, c.timeout)
}
