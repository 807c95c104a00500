// internal/workers/billing-analyst/synthesize-answer/handler.go
package synthesizeanswer

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
	"workforce-analyst/internal/common/validation"
	"workforce-analyst/internal/models"
)

const TaskType = "synthesize-answer"

// NoContentAnswer is returned when the model produced no completion.
const NoContentAnswer = "I couldn't generate a response. Please try rephrasing your question."

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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, errors.NewInvalidInputError("question is required")
	}
	now := input.Now
	if now.IsZero() {
		now = h.now()
	}

	answer, err := h.Answer(ctx, input.Question, input.Payload, now)
	if err != nil {
		return nil, err
	}
	return &Output{Answer: answer}, nil
}

// Answer asks the model to answer question over p. Call failures are
// returned as LLM_TIMEOUT or LLM_SYNTHESIS_FAILED; a missing or blank
// completion yields NoContentAnswer.
func (h *Handler) Answer(ctx context.Context, question string, p models.Payload, now time.Time) (string, error) {
	resp, err := h.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: SystemPrompt(now)},
			{Role: llm.RoleUser, Content: UserMessage(question, p)},
		},
		MaxTokens:   h.config.MaxTokens,
		Temperature: h.config.Temperature,
		TopP:        h.config.TopP,
	})
	if err != nil {
		stdErr := errors.FromLLMError(err, h.config.Timeout)
		h.logger.Error("answer synthesis failed", map[string]interface{}{
			"error":     err.Error(),
			"errorCode": string(stdErr.Code),
		})
		return "", stdErr
	}

	if strings.TrimSpace(resp.Text()) == "" {
		h.logger.Warn("model returned no content", map[string]interface{}{
			"provider": h.llm.Provider(),
		})
		return NoContentAnswer, nil
	}

	h.logger.Info("answer synthesized", map[string]interface{}{
		"records":   len(p.Records),
		"truncated": p.Truncated,
		"length":    len(resp.Text()),
	})
	return resp.Text(), nil
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
