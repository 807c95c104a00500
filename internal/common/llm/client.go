// Package llm is the generative-model collaborator used by the query and
// answer synthesizers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"workforce-analyst/internal/common/config"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is one completion call. Messages keep their order.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
	TopP        float64
}

type Choice struct {
	Content      string
	FinishReason string
}

type Response struct {
	Choices []Choice
}

// Text returns the first choice's content, or "" when there is none.
func (r *Response) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Content
}

// Client produces completions.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Provider() string
}

// APIError is a non-2xx answer from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// Retryable reports whether the status is worth another attempt.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "eof")
}

// New builds the configured provider wrapped with metrics.
func New(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	var (
		client Client
		err    error
	)
	switch cfg.Provider {
	case config.ProviderAzureOpenAI:
		client, err = NewAzureOpenAI(AzureOpenAIConfig{
			Endpoint:   cfg.AzureOpenAI.Endpoint,
			Deployment: cfg.AzureOpenAI.Deployment,
			APIKey:     cfg.AzureOpenAI.APIKey,
			APIVersion: cfg.AzureOpenAI.APIVersion,
			MaxRetries: cfg.MaxRetries,
		})
	case config.ProviderGemini:
		client, err = NewGemini(ctx, GeminiConfig{
			APIKey: cfg.Gemini.APIKey,
			Model:  cfg.Gemini.Model,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(client), nil
}

// Timeout converts the configured milliseconds, defaulting to a minute.
func Timeout(cfg config.LLMConfig) time.Duration {
	if cfg.Timeout <= 0 {
		return time.Minute
	}
	return time.Duration(cfg.Timeout) * time.Millisecond
}
