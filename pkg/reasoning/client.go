// Package reasoning wraps an LLM backend behind the single call the triage
// stages need, with a bounded wait and a fixed deterministic temperature.
package reasoning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"care-triage-be/internal/pkg/logger"
	"care-triage-be/pkg/llm"
)

var (
	ErrServiceUnavailable = errors.New("reasoning service unavailable")
	// ErrTimeout also matches ErrServiceUnavailable.
	ErrTimeout = fmt.Errorf("%w: no response within the bounded window", ErrServiceUnavailable)
)

const DefaultTimeout = 60 * time.Second

type IReasoningClient interface {
	Generate(ctx context.Context, systemInstruction, userContext string) (string, error)
}

type Config struct {
	Model   string
	Timeout time.Duration
}

type Client struct {
	provider llm.LLMProvider
	model    string
	timeout  time.Duration
	logger   logger.ILogger
}

var _ IReasoningClient = &Client{}

func NewClient(provider llm.LLMProvider, cfg Config, log logger.ILogger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		provider: provider,
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		logger:   log,
	}
}

type generateResult struct {
	text string
	err  error
}

// Generate does not retry. Any failure of the backend, including the
// bounded wait running out, is reported as ErrServiceUnavailable.
func (c *Client) Generate(ctx context.Context, systemInstruction, userContext string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemInstruction},
		{Role: llm.RoleUser, Content: userContext},
	}
	opts := []llm.Option{llm.WithTemperature(0)}
	if c.model != "" {
		opts = append(opts, llm.WithModel(c.model))
	}

	// Buffered so the call can finish after we stop waiting.
	done := make(chan generateResult, 1)
	go func() {
		text, err := c.provider.Chat(ctx, messages, opts...)
		done <- generateResult{text: text, err: err}
	}()

	start := time.Now()
	select {
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) {
				c.logTimeout(start)
				return "", fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
			}
			c.logger.Warn("Reasoning", "Backend call failed", map[string]interface{}{
				"model": c.model,
				"error": res.err.Error(),
			})
			return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, res.err)
		}
		c.logger.Debug("Reasoning", "Backend call completed", map[string]interface{}{
			"model":       c.model,
			"duration_ms": time.Since(start).Milliseconds(),
			"chars":       len(res.text),
		})
		return res.text, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logTimeout(start)
			return "", fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
		}
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, ctx.Err())
	}
}

func (c *Client) logTimeout(start time.Time) {
	c.logger.Warn("Reasoning", "Backend call timed out", map[string]interface{}{
		"model":       c.model,
		"timeout":     c.timeout.String(),
		"duration_ms": time.Since(start).Milliseconds(),
	})
}
