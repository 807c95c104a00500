// cmd/analyst/serve.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"workforce-analyst/internal/common/camunda"
	"workforce-analyst/internal/common/config"
	"workforce-analyst/internal/common/observability"
	"workforce-analyst/internal/store"
	hum "workforce-analyst/internal/workers/billing-analyst/handle-user-message"
	rr "workforce-analyst/internal/workers/billing-analyst/retrieve-records"
	sp "workforce-analyst/internal/workers/billing-analyst/shape-payload"
	sa "workforce-analyst/internal/workers/billing-analyst/synthesize-answer"
	sq "workforce-analyst/internal/workers/billing-analyst/synthesize-query"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline as zeebe job workers",
	Long: `Connects to the zeebe gateway, opens one job worker per enabled task type
and serves /health, /ready and /metrics until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.zapLog.Error("shutdown failed", zap.Error(err))
		}
	}()
	a.obs = observability.New(a.cfg.App.Name)

	h, err := a.pipeline(ctx)
	if err != nil {
		return err
	}

	zc, err := connectZeebe(ctx, a.cfg.Camunda, a.zapLog)
	if err != nil {
		return err
	}

	workers := startWorkers(zc, a.cfg, h, a.zapLog)
	a.zapLog.Info("workers registered", zap.Int("count", len(workers)))

	srv := &http.Server{
		Addr:              a.cfg.Server.Address,
		Handler:           healthMux(a.store),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.zapLog.Info("Health/Metrics server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	a.zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var result *multierror.Error
	for _, w := range workers {
		w.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("stop http server: %w", err))
	}
	if err := zc.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close zeebe client: %w", err))
	}

	a.zapLog.Info("analyst stopped")
	return result.ErrorOrNil()
}

func connectZeebe(ctx context.Context, cfg config.CamundaConfig, log *zap.Logger) (*camunda.Client, error) {
	var zc *camunda.Client
	err := retry.Do(
		func() error {
			var err error
			zc, err = camunda.NewClient(cfg.BrokerAddress, time.Duration(cfg.RequestTimeout)*time.Millisecond)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(10),
		retry.Delay(2*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(30*time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("Zeebe client initialization failed, retrying...", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("zeebe client failed after retries: %w", err)
	}
	log.Info("Zeebe client connected successfully", zap.String("gateway", cfg.BrokerAddress))
	return zc, nil
}

func startWorkers(zc *camunda.Client, cfg *config.Config, h *handlers, log *zap.Logger) []*camunda.CamundaWorker {
	jobs := []struct {
		taskType string
		handler  camunda.JobHandler
	}{
		{hum.TaskType, h.handleUserMessage},
		{sq.TaskType, h.synthesizeQuery},
		{rr.TaskType, h.retrieveRecords},
		{sp.TaskType, h.shapePayload},
		{sa.TaskType, h.synthesizeAnswer},
	}

	var workers []*camunda.CamundaWorker
	for _, j := range jobs {
		if !config.IsWorkerEnabled(cfg, j.taskType) {
			log.Info("worker disabled", zap.String("taskType", j.taskType))
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, j.taskType)
		w := camunda.NewWorker(
			zc.GetClient(),
			j.taskType,
			wcfg.MaxJobsActive,
			time.Duration(wcfg.Timeout)*time.Millisecond,
			j.handler,
			log,
		)
		workers = append(workers, w)
	}
	return workers
}

func healthMux(s store.Store) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.Ping(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
