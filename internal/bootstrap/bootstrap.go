package bootstrap

import (
	"context"
	"fmt"

	"github.com/kirillkom/rebuttal-assistant/internal/config"
	"github.com/kirillkom/rebuttal-assistant/internal/core/ports"
	"github.com/kirillkom/rebuttal-assistant/internal/core/usecase"
	"github.com/kirillkom/rebuttal-assistant/internal/infrastructure/chunking"
	"github.com/kirillkom/rebuttal-assistant/internal/infrastructure/extractor"
	"github.com/kirillkom/rebuttal-assistant/internal/infrastructure/extractor/pdfpage"
	"github.com/kirillkom/rebuttal-assistant/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/rebuttal-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/rebuttal-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/rebuttal-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/rebuttal-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/rebuttal-assistant/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/rebuttal-assistant/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue        ports.MessageQueue
	EvidenceRepo ports.EvidenceDocumentRepository
	RunRepo      ports.RunRepository

	EvidenceUC ports.EvidenceIngestor
	ReportUC   ports.ReportIngestor
	IndexUC    ports.EvidenceIndexer
	AnalyzeUC  *usecase.AnalyzeRunUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	evidenceRepo := postgres.NewEvidenceRepository(db)
	if err := evidenceRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure evidence schema: %w", err)
	}
	runRepo := postgres.NewRunRepository(db)
	if err := runRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure run schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(executorConfig(cfg))

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSIndexSubject, cfg.NATSAnalyzeSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaChatModel, cfg.OllamaEmbedModel, cfg.Temperature, ollama.Options{
		ResilienceExecutor: executor,
	})
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)

	chunker, err := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("init chunker: %w", err)
	}

	pages := extractor.NewRouter(
		pdfpage.NewExtractor(storage),
		plaintext.NewExtractor(storage),
	)

	extractUC := usecase.NewExtractClaimsUseCase(generator, cfg.MinClaims, cfg.MaxClaims, cfg.SimilarityThreshold)
	retrieveUC := usecase.NewRetrieveEvidenceUseCase(embedder, vectorDB, cfg.TopK)
	judgeUC := usecase.NewJudgeClaimUseCase(generator)

	return &App{
		Config:       cfg,
		Queue:        queue,
		EvidenceRepo: evidenceRepo,
		RunRepo:      runRepo,

		EvidenceUC: usecase.NewIngestEvidenceUseCase(evidenceRepo, storage, queue),
		ReportUC:   usecase.NewIngestReportUseCase(runRepo, storage, queue),
		IndexUC:    usecase.NewIndexEvidenceUseCase(evidenceRepo, pages, chunker, embedder, vectorDB),
		AnalyzeUC:  usecase.NewAnalyzeRunUseCase(runRepo, pages, extractUC, retrieveUC, judgeUC, cfg.AnalysisWorkers, cfg.MaxReportPages),

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// executorConfig overlays the configured outbound rate limit on the default
// retry/breaker policy. The limiter covers every call routed through the
// executor: ollama generate/embed and NATS publish.
func executorConfig(cfg config.Config) resilience.Config {
	rc := resilience.DefaultConfig()
	rc.RateLimitPerSecond = cfg.LLMRateLimitRPS
	rc.RateLimitBurst = cfg.LLMRateLimitBurst
	return rc
}
