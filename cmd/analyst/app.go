// cmd/analyst/app.go
package main

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"workforce-analyst/internal/common/config"
	"workforce-analyst/internal/common/llm"
	"workforce-analyst/internal/common/logger"
	"workforce-analyst/internal/common/observability"
	"workforce-analyst/internal/common/validation"
	"workforce-analyst/internal/store"
	hum "workforce-analyst/internal/workers/billing-analyst/handle-user-message"
	rr "workforce-analyst/internal/workers/billing-analyst/retrieve-records"
	sp "workforce-analyst/internal/workers/billing-analyst/shape-payload"
	sa "workforce-analyst/internal/workers/billing-analyst/synthesize-answer"
	sq "workforce-analyst/internal/workers/billing-analyst/synthesize-query"
	"workforce-analyst/pkg/registry"
)

// app holds the clients shared by every command. Each command builds one
// and closes it on exit.
type app struct {
	cfg    *config.Config
	zapLog *zap.Logger
	log    logger.Logger
	store  store.Store
	obs    *observability.Observability
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.NewZapAdapter(zapLog)

	s, err := store.Open(ctx, cfg)
	if err != nil {
		_ = zapLog.Sync()
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	log.Info("document store ready", map[string]interface{}{
		"backend":    cfg.Store.Backend,
		"collection": cfg.Store.Collection,
	})

	return &app{
		cfg:    cfg,
		zapLog: zapLog,
		log:    log,
		store:  s,
		obs:    observability.NewNoop(),
	}, nil
}

// handlers are the pipeline workers wired to the app's clients.
type handlers struct {
	synthesizeQuery   *sq.Handler
	retrieveRecords   *rr.Handler
	shapePayload      *sp.Handler
	synthesizeAnswer  *sa.Handler
	handleUserMessage *hum.Handler
}

func (a *app) pipeline(ctx context.Context) (*handlers, error) {
	model, err := llm.New(ctx, a.cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", a.cfg.LLM.Provider, err)
	}

	reg, err := registry.Default()
	if err != nil {
		return nil, err
	}
	validator := validation.NewValidator(reg)

	h := &handlers{
		synthesizeQuery:  sq.NewHandler(sq.ConfigFrom(a.cfg), model, validator, &synthesizeQueryLoggerAdapter{a.log}),
		retrieveRecords:  rr.NewHandler(rr.ConfigFrom(a.cfg), a.store, validator, &retrieveRecordsLoggerAdapter{a.log}),
		shapePayload:     sp.NewHandler(sp.ConfigFrom(a.cfg), validator, &shapePayloadLoggerAdapter{a.log}),
		synthesizeAnswer: sa.NewHandler(sa.ConfigFrom(a.cfg), model, validator, &synthesizeAnswerLoggerAdapter{a.log}),
	}
	h.handleUserMessage = hum.NewHandler(
		hum.ConfigFrom(a.cfg),
		hum.Stages{
			Synthesizer: h.synthesizeQuery,
			Retriever:   h.retrieveRecords,
			Shaper:      h.shapePayload,
			Answerer:    h.synthesizeAnswer,
		},
		a.obs,
		validator,
		&handleUserMessageLoggerAdapter{a.log},
	)
	return h, nil
}

func (a *app) Close() error {
	var result *multierror.Error
	if err := a.store.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close store: %w", err))
	}
	if err := a.obs.Shutdown(); err != nil {
		result = multierror.Append(result, fmt.Errorf("shutdown observability: %w", err))
	}
	_ = a.zapLog.Sync()
	return result.ErrorOrNil()
}
