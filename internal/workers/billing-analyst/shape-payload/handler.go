// internal/workers/billing-analyst/shape-payload/handler.go
package shapepayload

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"workforce-analyst/internal/common/errors"
	"workforce-analyst/internal/common/metrics"
	"workforce-analyst/internal/common/validation"
	"workforce-analyst/internal/models"
)

const TaskType = "shape-payload"

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config    *Config
	validator *validation.Validator
	errors    *errors.ErrorHandler
	logger    Logger
}

func NewHandler(config *Config, validator *validation.Validator, log Logger) *Handler {
	logger := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:    config,
		validator: validator,
		errors:    errors.NewErrorHandler(logger),
		logger:    logger,
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

	h.completeJob(ctx, client, job, h.Execute(input))
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

func (h *Handler) Execute(input *Input) *Output {
	limit := h.config.Cap
	if input.Cap > 0 {
		limit = input.Cap
	}
	p := h.Shape(input.Records, limit)
	return &Output{Payload: p, Rendered: p.Render()}
}

// Shape is the package Shape with logging and the truncation metric.
func (h *Handler) Shape(records []models.Record, limit int) models.Payload {
	p := Shape(records, limit)
	if p.Truncated {
		metrics.PayloadTruncations.Inc()
		h.logger.Info("payload truncated to critical fields", map[string]interface{}{
			"total": p.Total,
			"cap":   p.Cap,
		})
	}
	return p
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
