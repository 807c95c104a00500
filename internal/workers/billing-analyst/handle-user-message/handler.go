// internal/workers/billing-analyst/handle-user-message/handler.go
package handleusermessage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"workforce-analyst/internal/common/errors"
	"workforce-analyst/internal/common/metrics"
	"workforce-analyst/internal/common/observability"
	"workforce-analyst/internal/common/validation"
	"workforce-analyst/internal/models"
	"workforce-analyst/internal/querylang"
	retrieverecords "workforce-analyst/internal/workers/billing-analyst/retrieve-records"
)

const TaskType = "handle-user-message"

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// QuerySynthesizer returns query text for a question. The text is always
// usable: a broken model call yields the pass-through query along with the
// error that caused it.
type QuerySynthesizer interface {
	Synthesize(ctx context.Context, question string, now time.Time) (string, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, q querylang.Query) (*retrieverecords.Output, error)
}

type Shaper interface {
	Shape(records []models.Record, limit int) models.Payload
}

type Answerer interface {
	Answer(ctx context.Context, question string, p models.Payload, now time.Time) (string, error)
}

// Stages are the pipeline steps a turn runs through, in order.
type Stages struct {
	Synthesizer QuerySynthesizer
	Retriever   Retriever
	Shaper      Shaper
	Answerer    Answerer
}

// Handler runs conversation turns. It keeps no state between turns, so
// concurrent turns are independent.
type Handler struct {
	config    *Config
	stages    Stages
	obs       *observability.Observability
	validator *validation.Validator
	errors    *errors.ErrorHandler
	logger    Logger
	now       func() time.Time
}

func NewHandler(config *Config, stages Stages, obs *observability.Observability, validator *validation.Validator, log Logger) *Handler {
	if obs == nil {
		obs = observability.NewNoop()
	}
	logger := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:    config,
		stages:    stages,
		obs:       obs,
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

// HandleUserMessage runs one turn for text at the current time.
func (h *Handler) HandleUserMessage(ctx context.Context, text string) (*Output, error) {
	return h.Execute(ctx, &Input{Message: text})
}

// Execute runs one turn. Only a blank message is an error; every other
// outcome, including store and model failures, is a finished turn with
// exactly one response.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	question := strings.TrimSpace(input.Message)
	if question == "" {
		return nil, errors.NewInvalidInputError("message is required")
	}
	now := input.Now
	if now.IsZero() {
		now = h.now()
	}

	t := &turn{
		h:     h,
		out:   &Output{TurnID: uuid.NewString()},
		start: time.Now(),
	}
	t.logger = h.logger.With(map[string]interface{}{"turnId": t.out.TurnID})
	t.enter(StateIdle)

	ctx, end := h.obs.StartSpan(ctx, "analyst.turn", attribute.String("turn.id", t.out.TurnID))
	t.run(ctx, question, now)
	end(t.err)

	h.obs.RecordTurn(ctx, string(t.out.State), time.Since(t.start))
	t.logger.Info("turn finished", map[string]interface{}{
		"state":     string(t.out.State),
		"query":     t.out.Query,
		"retrieved": t.out.Retrieved,
		"shaped":    t.out.Shaped,
		"duration":  time.Since(t.start).String(),
	})
	return t.out, nil
}

// turn is the per-message state. It is discarded when the turn ends.
type turn struct {
	h      *Handler
	out    *Output
	logger Logger
	start  time.Time
	err    error // set when the turn ends in Failed
}

func (t *turn) enter(s State) {
	t.out.State = s
	t.out.Trace = append(t.out.Trace, s)
}

func (t *turn) respond(s State, text string) {
	t.enter(s)
	t.out.Response = text
}

func (t *turn) fail(err error) {
	code := "INTERNAL_ERROR"
	if stdErr, ok := errors.AsStandard(err); ok {
		code = string(stdErr.Code)
	}
	t.out.ErrorCode = code
	t.err = err
	t.logger.Error("turn failed", map[string]interface{}{
		"error":     err.Error(),
		"errorCode": code,
		"stage":     string(t.out.State),
	})
	t.respond(StateFailed, ApologyMessage)
}

func (t *turn) run(ctx context.Context, question string, now time.Time) {
	s := t.h.stages

	t.enter(StateSynthesizing)
	sctx, end := t.h.obs.StartSpan(ctx, "analyst.synthesize_query")
	raw, synthErr := s.Synthesizer.Synthesize(sctx, question, now)
	end(synthErr)

	t.enter(StateValidating)
	verdict := querylang.Validate(raw)
	if synthErr != nil {
		// The synthesizer already logged and counted the fallback.
		verdict.Rejected = true
		verdict.Reason = querylang.ReasonSynthesis
		verdict.Detail = synthErr.Error()
	} else if verdict.Rejected {
		metrics.QueryFallbacks.WithLabelValues(string(verdict.Reason)).Inc()
		rej := errors.NewQueryRejectedError(string(verdict.Reason))
		t.logger.Warn("synthesized query rejected", map[string]interface{}{
			"rawQuery":  raw,
			"reason":    rej.Details,
			"detail":    verdict.Detail,
			"errorCode": string(rej.Code),
		})
	}
	t.out.Query = verdict.Query.Text
	t.out.PassThrough = verdict.Query.PassThrough
	t.out.Rejected = verdict.Rejected
	t.out.Reason = string(verdict.Reason)

	t.enter(StateRetrieving)
	rctx, end := t.h.obs.StartSpan(ctx, "analyst.retrieve", attribute.String("query", verdict.Query.Text))
	result, err := s.Retriever.Retrieve(rctx, verdict.Query)
	end(err)
	if result != nil {
		t.out.Attempts = result.Attempts
		if result.FellBack {
			t.enter(StateRetryingRetrieval)
		}
	}
	if err != nil {
		t.fail(err)
		return
	}
	if result.NoData || len(result.Records) == 0 {
		t.respond(StateNoData, NoDataMessage)
		return
	}
	t.out.Retrieved = len(result.Records)

	t.enter(StateShaping)
	payload := s.Shaper.Shape(result.Records, t.h.config.PayloadCap)
	t.out.Shaped = len(payload.Records)
	t.out.Truncated = payload.Truncated

	t.enter(StateAnswering)
	actx, end := t.h.obs.StartSpan(ctx, "analyst.synthesize_answer", attribute.Int("payload.records", len(payload.Records)))
	answer, err := s.Answerer.Answer(actx, question, payload, now)
	end(err)
	if err != nil {
		t.fail(err)
		return
	}
	t.respond(StateResponded, answer)
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
