// internal/workers/billing-analyst/synthesize-query/handler.go
package synthesizequery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"workforce-analyst/internal/common/errors"
	"workforce-analyst/internal/common/llm"
	"workforce-analyst/internal/common/metrics"
	"workforce-analyst/internal/common/validation"
	"workforce-analyst/internal/querylang"
)

const TaskType = "synthesize-query"

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config    *Config
	llm       llm.Client
	validator *validation.Validator
	errors    *errors.ErrorHandler
	logger    Logger
	now       func() time.Time
}

func NewHandler(config *Config, client llm.Client, validator *validation.Validator, log Logger) *Handler {
	logger := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:    config,
		llm:       client,
		validator: validator,
		errors:    errors.NewErrorHandler(logger),
		logger:    logger,
		now:       time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	vars, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse variables: %v", err))
	}
	result, err := h.validator.ValidateTask(TaskType, vars)
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}
	if !result.Valid {
		return nil, errors.NewInvalidInputError(result.Error())
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

// Execute synthesizes a query for the question and validates it. It only
// fails on invalid input; every model problem ends in the pass-through query.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, errors.NewInvalidInputError("question is required")
	}
	now := input.Now
	if now.IsZero() {
		now = h.now()
	}

	raw, err := h.generate(ctx, input.Question, now)
	if err != nil {
		h.recordFallback(err)
		return &Output{
			Query:       querylang.PassThroughText,
			PassThrough: true,
			Rejected:    true,
			Reason:      string(querylang.ReasonSynthesis),
		}, nil
	}

	verdict := querylang.Validate(raw)
	if verdict.Rejected {
		h.logger.Warn("synthesized query rejected", map[string]interface{}{
			"rawQuery":  raw,
			"reason":    string(verdict.Reason),
			"detail":    verdict.Detail,
			"errorCode": string(errors.ErrCodeQueryRejected),
		})
		metrics.QueryFallbacks.WithLabelValues(string(verdict.Reason)).Inc()
	}

	h.logger.Info("query synthesized", map[string]interface{}{
		"query":       verdict.Query.Text,
		"passThrough": verdict.Query.PassThrough,
	})

	return &Output{
		RawQuery:    raw,
		Query:       verdict.Query.Text,
		PassThrough: verdict.Query.PassThrough,
		Rejected:    verdict.Rejected,
		Reason:      string(verdict.Reason),
	}, nil
}

// Synthesize returns the model's query text for question. When the call
// fails or yields nothing it returns the pass-through query together with
// the cause, so the text is always usable. The result is not validated.
func (h *Handler) Synthesize(ctx context.Context, question string, now time.Time) (string, error) {
	raw, err := h.generate(ctx, question, now)
	if err != nil {
		h.recordFallback(err)
		return querylang.PassThroughText, err
	}
	return raw, nil
}

func (h *Handler) recordFallback(err error) {
	h.logger.Warn("query synthesis failed, using pass-through query", map[string]interface{}{
		"error":     err.Error(),
		"errorCode": string(errors.ErrCodeQuerySynthesisFailed),
	})
	metrics.QueryFallbacks.WithLabelValues(string(querylang.ReasonSynthesis)).Inc()
}

// generate issues the synthesis call. An empty completion is an error here
// so both callers fall back the same way.
func (h *Handler) generate(ctx context.Context, question string, now time.Time) (string, error) {
	resp, err := h.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: BuildPrompt(now)},
			{Role: llm.RoleUser, Content: question},
		},
		MaxTokens:   h.config.MaxTokens,
		Temperature: h.config.Temperature,
		TopP:        h.config.TopP,
	})
	if err != nil {
		return "", errors.NewQuerySynthesisFailedError(err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.NewQuerySynthesisFailedError(fmt.Errorf("%s returned no query", h.llm.Provider()))
	}
	return text, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}
