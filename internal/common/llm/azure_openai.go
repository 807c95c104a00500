package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/tidwall/gjson"
)

const ProviderAzureOpenAI = "azure-openai"

type AzureOpenAIConfig struct {
	Endpoint   string
	Deployment string
	APIKey     string
	APIVersion string
	MaxRetries int
	BaseDelay  time.Duration
	HTTPClient *http.Client
}

// AzureOpenAIClient calls the chat-completions REST endpoint of one deployment.
type AzureOpenAIClient struct {
	endpoint   string
	deployment string
	apiKey     string
	apiVersion string
	maxRetries int
	baseDelay  time.Duration
	httpClient *http.Client
}

func NewAzureOpenAI(cfg AzureOpenAIConfig) (*AzureOpenAIClient, error) {
	if cfg.Endpoint == "" || cfg.Deployment == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("azure openai endpoint, deployment and api key are required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-10-21"
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.HTTPClient == nil {
		// no client timeout; calls are bounded by the context
		cfg.HTTPClient = &http.Client{}
	}
	return &AzureOpenAIClient{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		deployment: cfg.Deployment,
		apiKey:     cfg.APIKey,
		apiVersion: cfg.APIVersion,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		httpClient: cfg.HTTPClient,
	}, nil
}

func (c *AzureOpenAIClient) Provider() string { return ProviderAzureOpenAI }

type chatRequest struct {
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
}

func (c *AzureOpenAIClient) Complete(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(chatRequest{
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp *Response
	err = retry.Do(
		func() error {
			var callErr error
			resp, callErr = c.call(ctx, body)
			return callErr
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries+1)),
		retry.Delay(c.baseDelay),
		retry.MaxDelay(5*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isRetryable),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("azure openai: %w", ctxErr)
		}
		return nil, err
	}
	return resp, nil
}

func (c *AzureOpenAIClient) call(ctx context.Context, body []byte) (*Response, error) {
	apiURL := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint,
		url.PathEscape(c.deployment),
		url.QueryEscape(c.apiVersion),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(respBody, "error.message").String()
		if msg == "" {
			msg = string(respBody)
		}
		return nil, &APIError{Provider: ProviderAzureOpenAI, StatusCode: httpResp.StatusCode, Message: msg}
	}
	if !gjson.ValidBytes(respBody) {
		return nil, fmt.Errorf("azure openai returned invalid JSON")
	}

	out := &Response{}
	gjson.GetBytes(respBody, "choices").ForEach(func(_, choice gjson.Result) bool {
		out.Choices = append(out.Choices, Choice{
			Content:      choice.Get("message.content").String(),
			FinishReason: choice.Get("finish_reason").String(),
		})
		return true
	})
	return out, nil
}
