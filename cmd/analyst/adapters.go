// cmd/analyst/adapters.go
package main

import (
	"workforce-analyst/internal/common/logger"
	hum "workforce-analyst/internal/workers/billing-analyst/handle-user-message"
	rr "workforce-analyst/internal/workers/billing-analyst/retrieve-records"
	sp "workforce-analyst/internal/workers/billing-analyst/shape-payload"
	sa "workforce-analyst/internal/workers/billing-analyst/synthesize-answer"
	sq "workforce-analyst/internal/workers/billing-analyst/synthesize-query"
)

// Logger adapters for workers that declare their own Logger interfaces.

type synthesizeQueryLoggerAdapter struct {
	logger.Logger
}

func (a *synthesizeQueryLoggerAdapter) With(fields map[string]interface{}) sq.Logger {
	return &synthesizeQueryLoggerAdapter{a.Logger.With(fields)}
}

type retrieveRecordsLoggerAdapter struct {
	logger.Logger
}

func (a *retrieveRecordsLoggerAdapter) With(fields map[string]interface{}) rr.Logger {
	return &retrieveRecordsLoggerAdapter{a.Logger.With(fields)}
}

type shapePayloadLoggerAdapter struct {
	logger.Logger
}

func (a *shapePayloadLoggerAdapter) With(fields map[string]interface{}) sp.Logger {
	return &shapePayloadLoggerAdapter{a.Logger.With(fields)}
}

type synthesizeAnswerLoggerAdapter struct {
	logger.Logger
}

func (a *synthesizeAnswerLoggerAdapter) With(fields map[string]interface{}) sa.Logger {
	return &synthesizeAnswerLoggerAdapter{a.Logger.With(fields)}
}

type handleUserMessageLoggerAdapter struct {
	logger.Logger
}

func (a *handleUserMessageLoggerAdapter) With(fields map[string]interface{}) hum.Logger {
	return &handleUserMessageLoggerAdapter{a.Logger.With(fields)}
}
