// internal/workers/billing-analyst/handle-user-message/handler_test.go
package handleusermessage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apperrors "workforce-analyst/internal/common/errors"
	"workforce-analyst/internal/common/llm"
	"workforce-analyst/internal/common/observability"
	"workforce-analyst/internal/models"
	"workforce-analyst/internal/querylang"
	"workforce-analyst/internal/store"
	retrieverecords "workforce-analyst/internal/workers/billing-analyst/retrieve-records"
	shapepayload "workforce-analyst/internal/workers/billing-analyst/shape-payload"
	synthesizeanswer "workforce-analyst/internal/workers/billing-analyst/synthesize-answer"
	synthesizequery "workforce-analyst/internal/workers/billing-analyst/synthesize-query"
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
	return l.with(fields)
}

func (l *TestLogger) with(fields map[string]interface{}) *TestLogger {
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

// Each stage declares its own Logger; these wrap TestLogger for them.

type queryLogger struct{ *TestLogger }

func (l queryLogger) With(f map[string]interface{}) synthesizequery.Logger {
	return queryLogger{l.with(f)}
}

type retrieveLogger struct{ *TestLogger }

func (l retrieveLogger) With(f map[string]interface{}) retrieverecords.Logger {
	return retrieveLogger{l.with(f)}
}

type shapeLogger struct{ *TestLogger }

func (l shapeLogger) With(f map[string]interface{}) shapepayload.Logger {
	return shapeLogger{l.with(f)}
}

type answerLogger struct{ *TestLogger }

func (l answerLogger) With(f map[string]interface{}) synthesizeanswer.Logger {
	return answerLogger{l.with(f)}
}

// ==========================
// Test Helper Functions
// ==========================

const queryPromptPrefix = "You are a Cosmos DB SQL query generator"

// scriptedLLM answers the query call and the answer call differently.
type scriptedLLM struct {
	mu        sync.Mutex
	query     string
	queryErr  error
	answer    string
	answerErr error
	answers   []llm.Request
}

func (s *scriptedLLM) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.HasPrefix(req.Messages[0].Content, queryPromptPrefix) {
		if s.queryErr != nil {
			return nil, s.queryErr
		}
		return &llm.Response{Choices: []llm.Choice{{Content: s.query}}}, nil
	}

	s.answers = append(s.answers, req)
	if s.answerErr != nil {
		return nil, s.answerErr
	}
	return &llm.Response{Choices: []llm.Choice{{Content: s.answer}}}, nil
}

func (s *scriptedLLM) Provider() string { return "scripted" }

func (s *scriptedLLM) answerCalls() []llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Request(nil), s.answers...)
}

type failingStore struct{}

func (failingStore) Query(context.Context, querylang.Query) ([]models.Record, error) {
	return nil, errors.New("dial tcp: connection refused")
}

var testNow = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second, PayloadCap: models.DefaultPayloadCap}
}

func newPipeline(t *testing.T, model llm.Client, s retrieverecords.Querier) *Handler {
	base := NewTestLogger(t)
	stages := Stages{
		Synthesizer: synthesizequery.NewHandler(synthesizequery.LoadConfig(), model, nil, queryLogger{base}),
		Retriever:   retrieverecords.NewHandler(retrieverecords.LoadConfig(), s, nil, retrieveLogger{base}),
		Shaper:      shapepayload.NewHandler(shapepayload.LoadConfig(), nil, shapeLogger{base}),
		Answerer:    synthesizeanswer.NewHandler(synthesizeanswer.LoadConfig(), model, nil, answerLogger{base}),
	}
	h := NewHandler(createTestConfig(), stages, nil, nil, base)
	h.now = func() time.Time { return testNow }
	return h
}

func levelRecords() []models.Record {
	return []models.Record{
		{"id": "saiteja_sow-101", "Name": "Saiteja", "Job Level": "3P", "SOW Level": "3P", "Billed Level": "2P", "_rid": "x"},
		{"id": "ravi_sow-102", "Name": "Ravi", "Job Level": "2P", "SOW Level": "2P", "Billed Level": "2P"},
	}
}

func manyRecords(n int) []models.Record {
	out := make([]models.Record, n)
	for i := range out {
		out[i] = models.Record{
			"id":           fmt.Sprintf("employee_%d", i+1),
			"Name":         fmt.Sprintf("Employee %d", i+1),
			"Team Name":    "Alpha",
			"Billed Level": "2P",
			"ARR Value":    float64(150000 + i*1000),
			"Email":        fmt.Sprintf("e%d@example.com", i+1),
		}
	}
	return out
}

// ==========================
// End-to-End Scenarios
// ==========================

func TestLevelMismatchQuestion(t *testing.T) {
	model := &scriptedLLM{
		query:  "SELECT * FROM c WHERE c['SOW Level'] = '3P' AND c['Billed Level'] = '2P'",
		answer: "Saiteja is a 3P billed at 2P.",
	}
	h := newPipeline(t, model, store.NewMemoryStore(levelRecords()...))

	out, err := h.HandleUserMessage(context.Background(), "Show me all 3P employees billed as 2P")
	require.NoError(t, err)

	assert.Equal(t, StateResponded, out.State)
	assert.Equal(t, "Saiteja is a 3P billed at 2P.", out.Response)
	assert.Equal(t, []State{StateIdle, StateSynthesizing, StateValidating, StateRetrieving, StateShaping, StateAnswering, StateResponded}, out.Trace)
	assert.False(t, out.PassThrough)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, 1, out.Retrieved)
	assert.Equal(t, 1, out.Shaped)
	assert.NotEmpty(t, out.TurnID)

	calls := model.answerCalls()
	require.Len(t, calls, 1)
	user := calls[0].Messages[1].Content
	assert.Contains(t, user, "User Question: Show me all 3P employees billed as 2P")
	assert.Contains(t, user, "Total Employees: 1\n")
	assert.NotContains(t, user, "_rid")
	assert.NotContains(t, user, "Ravi")
}

func TestOrganizationProfitQuestion(t *testing.T) {
	model := &scriptedLLM{query: "SELECT * FROM c", answer: "Total profit is positive."}
	h := newPipeline(t, model, store.NewMemoryStore(manyRecords(30)...))

	out, err := h.HandleUserMessage(context.Background(), "Calculate total profit for the organization")
	require.NoError(t, err)

	assert.Equal(t, StateResponded, out.State)
	assert.True(t, out.PassThrough)
	assert.Equal(t, querylang.PassThroughText, out.Query)
	assert.Equal(t, 30, out.Retrieved)
	assert.Equal(t, 25, out.Shaped)
	assert.True(t, out.Truncated)

	user := model.answerCalls()[0].Messages[1].Content
	assert.Contains(t, user, "NOTE: Data truncated to first 25 records (out of 30) to prevent timeout.")
	assert.NotContains(t, user, "Email")
}

func TestNoData(t *testing.T) {
	model := &scriptedLLM{query: "SELECT * FROM c WHERE c.Name = 'Nobody'", answer: "unused"}
	h := newPipeline(t, model, store.NewMemoryStore())

	out, err := h.HandleUserMessage(context.Background(), "Who is Nobody?")
	require.NoError(t, err)

	assert.Equal(t, StateNoData, out.State)
	assert.Equal(t, NoDataMessage, out.Response)
	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, []State{StateIdle, StateSynthesizing, StateValidating, StateRetrieving, StateRetryingRetrieval, StateNoData}, out.Trace)
	assert.Empty(t, model.answerCalls())
}

func TestNarrowQueryFallsBack(t *testing.T) {
	model := &scriptedLLM{query: "SELECT * FROM c WHERE c.Name = 'Nobody'", answer: "Here is everyone."}
	h := newPipeline(t, model, store.NewMemoryStore(levelRecords()...))

	out, err := h.HandleUserMessage(context.Background(), "Who is Nobody?")
	require.NoError(t, err)

	assert.Equal(t, StateResponded, out.State)
	assert.Contains(t, out.Trace, StateRetryingRetrieval)
	assert.Equal(t, 2, out.Retrieved)
}

func TestStoreUnavailable(t *testing.T) {
	model := &scriptedLLM{query: "SELECT * FROM c", answer: "unused"}
	h := newPipeline(t, model, failingStore{})

	out, err := h.HandleUserMessage(context.Background(), "Who is Saiteja?")
	require.NoError(t, err)

	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, ApologyMessage, out.Response)
	assert.Equal(t, string(apperrors.ErrCodeStoreUnavailable), out.ErrorCode)
	assert.Empty(t, model.answerCalls())
}

func TestAnswerFailure(t *testing.T) {
	model := &scriptedLLM{query: "SELECT * FROM c", answerErr: &llm.APIError{Provider: "scripted", StatusCode: 500, Message: "down"}}
	h := newPipeline(t, model, store.NewMemoryStore(levelRecords()...))

	out, err := h.HandleUserMessage(context.Background(), "Who is Saiteja?")
	require.NoError(t, err)

	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, ApologyMessage, out.Response)
	assert.Equal(t, string(apperrors.ErrCodeLLMSynthesisFailed), out.ErrorCode)
	assert.Equal(t, StateAnswering, out.Trace[len(out.Trace)-2])
}

func TestSynthesisFailureIsAbsorbed(t *testing.T) {
	model := &scriptedLLM{queryErr: errors.New("model unavailable"), answer: "Everyone is listed."}
	h := newPipeline(t, model, store.NewMemoryStore(levelRecords()...))

	out, err := h.HandleUserMessage(context.Background(), "Who is Saiteja?")
	require.NoError(t, err)

	assert.Equal(t, StateResponded, out.State)
	assert.True(t, out.PassThrough)
	assert.True(t, out.Rejected)
	assert.Equal(t, string(querylang.ReasonSynthesis), out.Reason)
	assert.Equal(t, querylang.PassThroughText, out.Query)
	assert.Equal(t, 2, out.Retrieved)
}

func TestTurnSpansCarryErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs := observability.New("handle-user-message-test", recorder)
	t.Cleanup(func() { _ = obs.Shutdown() })

	spansNamed := func(name string) []sdktrace.ReadOnlySpan {
		var out []sdktrace.ReadOnlySpan
		for _, sp := range recorder.Ended() {
			if sp.Name() == name {
				out = append(out, sp)
			}
		}
		return out
	}

	failed := newPipeline(t, &scriptedLLM{query: "SELECT * FROM c", answer: "unused"}, failingStore{})
	failed.obs = obs
	out, err := failed.HandleUserMessage(context.Background(), "Who is Saiteja?")
	require.NoError(t, err)
	require.Equal(t, StateFailed, out.State)

	turns := spansNamed("analyst.turn")
	require.Len(t, turns, 1)
	assert.Equal(t, codes.Error, turns[0].Status().Code)
	assert.Contains(t, turns[0].Status().Description, string(apperrors.ErrCodeStoreUnavailable))

	absorbed := newPipeline(t, &scriptedLLM{queryErr: errors.New("model unavailable"), answer: "Everyone."}, store.NewMemoryStore(levelRecords()...))
	absorbed.obs = obs
	out, err = absorbed.HandleUserMessage(context.Background(), "Who is Saiteja?")
	require.NoError(t, err)
	require.Equal(t, StateResponded, out.State)

	turns = spansNamed("analyst.turn")
	require.Len(t, turns, 2)
	assert.Equal(t, codes.Unset, turns[1].Status().Code)

	synth := spansNamed("analyst.synthesize_query")
	require.Len(t, synth, 2)
	assert.Equal(t, codes.Unset, synth[0].Status().Code)
	assert.Equal(t, codes.Error, synth[1].Status().Code)
	assert.Contains(t, synth[1].Status().Description, string(apperrors.ErrCodeQuerySynthesisFailed))
}

func TestAggregationQueryRejected(t *testing.T) {
	model := &scriptedLLM{query: "SELECT c['Team Name'], COUNT(1) FROM c GROUP BY c['Team Name']", answer: "Alpha has the most."}
	h := newPipeline(t, model, store.NewMemoryStore(manyRecords(3)...))

	out, err := h.HandleUserMessage(context.Background(), "Which team has most employees?")
	require.NoError(t, err)

	assert.Equal(t, StateResponded, out.State)
	assert.True(t, out.Rejected)
	assert.Equal(t, string(querylang.ReasonBannedKeyword), out.Reason)
	assert.Equal(t, querylang.PassThroughText, out.Query)
}

func TestBlankMessage(t *testing.T) {
	h := newPipeline(t, &scriptedLLM{}, store.NewMemoryStore())

	_, err := h.HandleUserMessage(context.Background(), "  ")
	require.Error(t, err)
	stdErr, ok := apperrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, stdErr.Code)
}

func TestConcurrentTurnsAreIndependent(t *testing.T) {
	model := &scriptedLLM{query: "SELECT * FROM c", answer: "ok"}
	h := newPipeline(t, model, store.NewMemoryStore(levelRecords()...))

	const turns = 8
	outs := make([]*Output, turns)
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := h.HandleUserMessage(context.Background(), fmt.Sprintf("question %d", i))
			if err == nil {
				outs[i] = out
			}
		}(i)
	}
	wg.Wait()

	ids := make(map[string]bool)
	for i, out := range outs {
		require.NotNil(t, out, "turn %d", i)
		assert.Equal(t, StateResponded, out.State)
		assert.Len(t, out.Trace, 7)
		ids[out.TurnID] = true
	}
	assert.Len(t, ids, turns)
	assert.Len(t, model.answerCalls(), turns)
}

// ==========================
// State and Greeting Tests
// ==========================

func TestTerminalStates(t *testing.T) {
	for _, s := range []State{StateResponded, StateNoData, StateFailed} {
		assert.True(t, s.Terminal(), s)
	}
	for _, s := range []State{StateIdle, StateSynthesizing, StateValidating, StateRetrieving, StateRetryingRetrieval, StateShaping, StateAnswering} {
		assert.False(t, s.Terminal(), s)
	}
}

func TestGreeting(t *testing.T) {
	g := Greeting()
	assert.True(t, strings.HasPrefix(g, "Hello! 👋 I'm your Intelligent Employee & Billing Analyst."))
	assert.Contains(t, g, `- "Calculate total profit for the organization"`)
	assert.Contains(t, g, "• Financial summaries")
}
