// internal/workers/billing-analyst/synthesize-answer/handler_test.go
package synthesizeanswer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "workforce-analyst/internal/common/errors"
	"workforce-analyst/internal/common/llm"
	"workforce-analyst/internal/models"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t, fields: make(map[string]interface{})}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return &TestLogger{t: l.t, fields: l.mergeFields(fields)}
}

func (l *TestLogger) mergeFields(fields map[string]interface{}) map[string]interface{} {
	all := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		all[k] = v
	}
	for k, v := range fields {
		all[k] = v
	}
	return all
}

// ==========================
// Test Helper Functions
// ==========================

type fakeLLM struct {
	resp     *llm.Response
	err      error
	requests []llm.Request
}

func (f *fakeLLM) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeLLM) Provider() string { return "fake" }

func reply(text string) *llm.Response {
	return &llm.Response{Choices: []llm.Choice{{Content: text, FinishReason: "stop"}}}
}

func createTestConfig() *Config {
	return &Config{
		Timeout:     5 * time.Second,
		MaxTokens:   1000,
		Temperature: 0.3,
		TopP:        0.9,
	}
}

var testNow = time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)

func testPayload() models.Payload {
	return models.Payload{
		Records: []models.Record{{"Name": "Saiteja", "SOW Level": "3P", "Billed Level": "2P"}},
		Total:   1,
		Cap:     models.DefaultPayloadCap,
	}
}

// ==========================
// Prompt Tests
// ==========================

func TestSystemPrompt(t *testing.T) {
	prompt := SystemPrompt(testNow)

	assert.True(t, strings.HasPrefix(prompt, "You are an intelligent assistant for a Workforce & Billing Analysis system"))
	for _, group := range models.SchemaGroups() {
		assert.Contains(t, prompt, "**"+group+":**")
	}
	assert.Contains(t, prompt, "- Client Assessed Level: How client views the employee")
	assert.Contains(t, prompt, "SOW Level < Job Level AND Billed Level = SOW Level")
	assert.Contains(t, prompt, "Billed Level ≠ Client Assessed Level")
	assert.Contains(t, prompt, "  - 1P: ₹8,000 / $100\n")
	assert.Contains(t, prompt, "  - 2P: ₹12,800 / $160\n")
	assert.Contains(t, prompt, "  - 3P: ₹19,200 / $240\n")
	assert.Contains(t, prompt, "1P < 2P < 3P (higher is more senior)")
	assert.Contains(t, prompt, "CURRENT DATE: Fri Oct 16 2026 (Year: 2026)")
	assert.Contains(t, prompt, "  - 44562 = Jan 1, 2022\n")
	assert.Contains(t, prompt, "  - 46023 = Jan 1, 2026\n")
	assert.Contains(t, prompt, "Look for 'Resource End Date' between approx 46023 and 46387")
	assert.True(t, strings.HasSuffix(prompt, "- Profit = Revenue - Cost"))
}

func TestSystemPromptListsTaxonomyInPrecedenceOrder(t *testing.T) {
	prompt := SystemPrompt(testNow)

	last := -1
	for i, rule := range models.MismatchTaxonomy {
		heading := fmt.Sprintf("%d. **%s:**\n   - %s\n", i+1, rule.Title, rule.Condition)
		at := strings.Index(prompt, heading)
		require.GreaterOrEqual(t, at, 0, heading)
		assert.Greater(t, at, last, rule.Title)
		last = at
	}

	// A Job 3P / SOW 2P / Billed 2P record satisfies both loss and upsell
	// conditions; the rule listed first decides.
	under := strings.Index(prompt, "**Underbilling Loss:**")
	over := strings.Index(prompt, "**Overbilling Opportunity:**")
	assert.Less(t, under, over)
	assert.Equal(t, models.MismatchUnderbilled,
		models.ClassifyLevels(models.Record{"Job Level": "3P", "SOW Level": "2P", "Billed Level": "2P"}))
}

func TestUserMessage(t *testing.T) {
	msg := UserMessage("Who is Saiteja?", testPayload())
	assert.True(t, strings.HasPrefix(msg, "User Question: Who is Saiteja?\n\nEmployee Data:\nTotal Employees: 1\n\nFull Data:\n["))
}

func TestThousands(t *testing.T) {
	for in, want := range map[float64]string{0: "0", 100: "100", 8000: "8,000", 12800: "12,800", 1234567: "1,234,567", 9999.9: "9,999"} {
		assert.Equal(t, want, thousands(in))
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestAnswer(t *testing.T) {
	fake := &fakeLLM{resp: reply("| Name | Mismatch |\n| Saiteja | Overbilling |")}
	h := NewHandler(createTestConfig(), fake, nil, NewTestLogger(t))

	answer, err := h.Answer(context.Background(), "Show me all 3P employees billed as 2P", testPayload(), testNow)
	require.NoError(t, err)
	assert.Equal(t, "| Name | Mismatch |\n| Saiteja | Overbilling |", answer)

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, 1000, req.MaxTokens)
	assert.InDelta(t, 0.3, req.Temperature, 1e-9)
	assert.InDelta(t, 0.9, req.TopP, 1e-9)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, SystemPrompt(testNow), req.Messages[0].Content)
	assert.Equal(t, UserMessage("Show me all 3P employees billed as 2P", testPayload()), req.Messages[1].Content)
}

func TestAnswerNoContent(t *testing.T) {
	for name, resp := range map[string]*llm.Response{
		"no choices":    {},
		"blank content": reply("  \n"),
	} {
		t.Run(name, func(t *testing.T) {
			h := NewHandler(createTestConfig(), &fakeLLM{resp: resp}, nil, NewTestLogger(t))
			answer, err := h.Answer(context.Background(), "question", testPayload(), testNow)
			require.NoError(t, err)
			assert.Equal(t, NoContentAnswer, answer)
		})
	}
}

func TestAnswerErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode apperrors.ErrorCode
	}{
		{"api failure", &llm.APIError{Provider: "fake", StatusCode: 500, Message: "boom"}, apperrors.ErrCodeLLMSynthesisFailed},
		{"deadline", context.DeadlineExceeded, apperrors.ErrCodeLLMTimeout},
		{"wrapped deadline", errors.Join(errors.New("call"), context.DeadlineExceeded), apperrors.ErrCodeLLMTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(createTestConfig(), &fakeLLM{err: tt.err}, nil, NewTestLogger(t))

			_, err := h.Answer(context.Background(), "question", testPayload(), testNow)
			require.Error(t, err)
			stdErr, ok := apperrors.AsStandard(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, stdErr.Code)
		})
	}
}

func TestExecuteRejectsEmptyQuestion(t *testing.T) {
	fake := &fakeLLM{resp: reply("x")}
	h := NewHandler(createTestConfig(), fake, nil, NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{Payload: testPayload()})
	require.Error(t, err)
	assert.Empty(t, fake.requests)
}

func TestExecuteDefaultsDate(t *testing.T) {
	fake := &fakeLLM{resp: reply("ok")}
	h := NewHandler(createTestConfig(), fake, nil, NewTestLogger(t))
	h.now = func() time.Time { return testNow }

	out, err := h.Execute(context.Background(), &Input{Question: "q", Payload: testPayload()})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Answer)
	assert.Contains(t, fake.requests[0].Messages[0].Content, "CURRENT DATE: Fri Oct 16 2026")
}
