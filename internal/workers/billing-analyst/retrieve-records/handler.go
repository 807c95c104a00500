// internal/workers/billing-analyst/retrieve-records/handler.go
package retrieverecords

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
	"workforce-analyst/internal/querylang"
)

const (
	TaskType = "retrieve-records"

	attemptFirst    = "first"
	attemptFallback = "fallback"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Querier is the read side of the document store.
type Querier interface {
	Query(ctx context.Context, q querylang.Query) ([]models.Record, error)
}

type Handler struct {
	config    *Config
	store     Querier
	validator *validation.Validator
	errors    *errors.ErrorHandler
	logger    Logger
}

func NewHandler(config *Config, store Querier, validator *validation.Validator, log Logger) *Handler {
	logger := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:    config,
		store:     store,
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

// Execute re-validates the query text before running it. Text that does not
// validate is replaced by the pass-through query.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	verdict := querylang.Validate(input.Query)
	if verdict.Rejected {
		rej := errors.NewQueryRejectedError(string(verdict.Reason))
		h.logger.Warn("query rejected before retrieval", map[string]interface{}{
			"query":     input.Query,
			"errorCode": string(rej.Code),
			"reason":    rej.Details,
			"detail":    verdict.Detail,
		})
	}
	return h.Retrieve(ctx, verdict.Query)
}

// Retrieve runs q. When it fails or matches nothing the pass-through query
// is run exactly once more. An empty second attempt is reported as NoData;
// a failed one as STORE_UNAVAILABLE.
func (h *Handler) Retrieve(ctx context.Context, q querylang.Query) (*Output, error) {
	out := &Output{Attempts: 1}

	records, err := h.store.Query(ctx, q)
	if err == nil && len(records) > 0 {
		metrics.RetrievalAttempts.WithLabelValues(attemptFirst, "records").Inc()
		out.Records = records
		h.logger.Info("records retrieved", map[string]interface{}{
			"query": q.Text,
			"count": len(records),
		})
		return out, nil
	}

	if err != nil {
		metrics.RetrievalAttempts.WithLabelValues(attemptFirst, "error").Inc()
		qerr := errors.NewStoreQueryFailedError(q.Text, err)
		h.logger.Warn("query failed, falling back to pass-through query", map[string]interface{}{
			"errorCode": string(qerr.Code),
			"details":   qerr.Details,
		})
	} else {
		metrics.RetrievalAttempts.WithLabelValues(attemptFirst, "empty").Inc()
		h.logger.Info("no records matched, falling back to pass-through query", map[string]interface{}{
			"query": q.Text,
		})
	}

	out.Attempts = 2
	out.FellBack = true

	pass := querylang.PassThrough()
	records, err = h.store.Query(ctx, pass)
	if err != nil {
		metrics.RetrievalAttempts.WithLabelValues(attemptFallback, "error").Inc()
		return out, errors.NewStoreUnavailableError(err).
			WithMetadata("query", q.Text)
	}
	if len(records) == 0 {
		metrics.RetrievalAttempts.WithLabelValues(attemptFallback, "empty").Inc()
		noData := errors.NewNoDataError()
		h.logger.Info("collection is empty", map[string]interface{}{
			"errorCode": string(noData.Code),
			"details":   noData.Details,
		})
		out.Records = []models.Record{}
		out.NoData = true
		return out, nil
	}

	metrics.RetrievalAttempts.WithLabelValues(attemptFallback, "records").Inc()
	h.logger.Info("records retrieved by fallback", map[string]interface{}{
		"count": len(records),
	})
	out.Records = records
	return out, nil
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
