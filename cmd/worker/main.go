package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/rebuttal-assistant/internal/bootstrap"
	"github.com/kirillkom/rebuttal-assistant/internal/config"
	"github.com/kirillkom/rebuttal-assistant/internal/observability/logging"
	"github.com/kirillkom/rebuttal-assistant/internal/observability/metrics"
)

const serviceName = "rebuttal-worker"

const (
	indexTimeout   = 5 * time.Minute
	analyzeTimeout = 30 * time.Minute
)

type metricsObserver struct {
	m *metrics.WorkerMetrics
}

func (o metricsObserver) ClaimsExtracted(count int) {
	o.m.ObserveClaimsExtracted(serviceName, count)
}

func (o metricsObserver) Judgment(coverage string) {
	o.m.RecordJudgment(serviceName, coverage)
}

func (o metricsObserver) ClaimFailure(kind string) {
	o.m.RecordClaimFailure(serviceName, kind)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app.AnalyzeUC.SetObserver(metricsObserver{m: workerMetrics})

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		slog.Info("worker_subscribed", "subject", cfg.NATSIndexSubject)
		return app.Queue.SubscribeDocumentUploaded(groupCtx, func(handlerCtx context.Context, documentID string) error {
			taskCtx, cancel := context.WithTimeout(handlerCtx, indexTimeout)
			defer cancel()

			if doc, err := app.EvidenceRepo.GetByID(taskCtx, documentID); err == nil {
				workerMetrics.ObserveQueueLag(serviceName, time.Since(doc.UpdatedAt))
			}

			workerMetrics.StartTask()
			start := time.Now()
			err := app.IndexUC.IndexByID(taskCtx, documentID)
			workerMetrics.FinishTask(serviceName, "index", time.Since(start), err)
			return err
		})
	})

	group.Go(func() error {
		slog.Info("worker_subscribed", "subject", cfg.NATSAnalyzeSubject)
		return app.Queue.SubscribeRunRequested(groupCtx, func(handlerCtx context.Context, runID string) error {
			taskCtx, cancel := context.WithTimeout(handlerCtx, analyzeTimeout)
			defer cancel()

			if run, err := app.RunRepo.GetByID(taskCtx, runID); err == nil {
				workerMetrics.ObserveQueueLag(serviceName, time.Since(run.UpdatedAt))
			}

			workerMetrics.StartTask()
			start := time.Now()
			err := app.AnalyzeUC.AnalyzeByID(taskCtx, runID)
			workerMetrics.FinishTask(serviceName, "analyze", time.Since(start), err)
			return err
		})
	})

	if err := group.Wait(); err != nil {
		log.Fatalf("worker error: %v", err)
	}
}
