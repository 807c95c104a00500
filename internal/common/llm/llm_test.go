package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce-analyst/internal/common/config"
)

// ==========================
// Azure OpenAI
// ==========================

func newAzure(t *testing.T, srv *httptest.Server, retries int) *AzureOpenAIClient {
	t.Helper()
	c, err := NewAzureOpenAI(AzureOpenAIConfig{
		Endpoint:   srv.URL + "/",
		Deployment: "gpt-4o",
		APIKey:     "test-key",
		MaxRetries: retries,
		BaseDelay:  time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func TestAzureOpenAI_Complete(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/gpt-4o/chat/completions", r.URL.Path)
		assert.Equal(t, "2024-10-21", r.URL.Query().Get("api-version"))
		assert.Equal(t, "test-key", r.Header.Get("api-key"))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"SELECT * FROM c"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	resp, err := newAzure(t, srv, 0).Complete(context.Background(), Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "rules"},
			{Role: RoleUser, Content: "question"},
		},
		MaxTokens:   200,
		Temperature: 0.1,
		TopP:        0.9,
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM c", resp.Text())
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)

	assert.Equal(t, 200.0, captured["max_tokens"])
	assert.Equal(t, 0.1, captured["temperature"])
	assert.Equal(t, 0.9, captured["top_p"])
	msgs := captured["messages"].([]interface{})
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])
}

func TestAzureOpenAI_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	resp, err := newAzure(t, srv, 0).Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "", resp.Text())
}

func TestAzureOpenAI_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"busy"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	resp, err := newAzure(t, srv, 2).Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestAzureOpenAI_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"content filtered"}}`))
	}))
	defer srv.Close()

	_, err := newAzure(t, srv, 3).Complete(context.Background(), Request{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "content filtered", apiErr.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAzureOpenAI_Deadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newAzure(t, srv, 2).Complete(ctx, Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewAzureOpenAI_RequiresCredentials(t *testing.T) {
	_, err := NewAzureOpenAI(AzureOpenAIConfig{Endpoint: "https://x"})
	assert.Error(t, err)
}

// ==========================
// Gemini
// ==========================

func TestGemini_Complete(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-2.0-flash:generateContent"), r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Total "},{"text":"profit"}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	c, err := NewGemini(context.Background(), GeminiConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "you are an analyst"},
			{Role: RoleUser, Content: "User Question: profit?"},
		},
		MaxTokens:   1000,
		Temperature: 0.3,
		TopP:        0.9,
	})
	require.NoError(t, err)
	assert.Equal(t, "Total profit", resp.Text())
	assert.Equal(t, "STOP", resp.Choices[0].FinishReason)

	require.Contains(t, captured, "systemInstruction")
	contents := captured["contents"].([]interface{})
	require.Len(t, contents, 1)
	gen := captured["generationConfig"].(map[string]interface{})
	assert.Equal(t, 1000.0, gen["maxOutputTokens"])
}

// ==========================
// Factory and instrumentation
// ==========================

type stubClient struct {
	resp *Response
	err  error
}

func (s *stubClient) Complete(context.Context, Request) (*Response, error) { return s.resp, s.err }
func (s *stubClient) Provider() string                                     { return "stub" }

func TestInstrumented_PassesThrough(t *testing.T) {
	want := &Response{Choices: []Choice{{Content: "hi"}}}
	resp, err := Instrument(&stubClient{resp: want}).Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Same(t, want, resp)

	boom := errors.New("boom")
	_, err = Instrument(&stubClient{err: boom}).Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, boom)

	_, err = Instrument(&stubClient{err: context.DeadlineExceeded}).Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Greater(t, EstimateTokens("Which Java developers are below minimum billable?"), 0)
}

func TestNew(t *testing.T) {
	cfg := config.LLMConfig{Provider: config.ProviderAzureOpenAI}
	cfg.AzureOpenAI.Endpoint = "https://example.openai.azure.com"
	cfg.AzureOpenAI.Deployment = "gpt-4o"
	cfg.AzureOpenAI.APIKey = "k"

	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, ProviderAzureOpenAI, c.Provider())

	_, err = New(context.Background(), config.LLMConfig{Provider: "bard"})
	assert.Error(t, err)

	assert.Equal(t, time.Minute, Timeout(config.LLMConfig{}))
	assert.Equal(t, 1500*time.Millisecond, Timeout(config.LLMConfig{Timeout: 1500}))
}
