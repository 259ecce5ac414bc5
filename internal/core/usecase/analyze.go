package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/rebuttal-assistant/internal/core/domain"
	"github.com/kirillkom/rebuttal-assistant/internal/core/ports"
)

// AnalyzeRunUseCase executes one rebuttal run: extract pages, extract and
// dedupe claims, fan out per-claim retrieve+judge under a bounded worker
// pool, restore original claim order, aggregate, and persist the report.
// A single claim's service failure degrades that claim but never aborts the
// run; the report always covers every claim.
type AnalyzeRunUseCase struct {
	runs      ports.RunRepository
	extractor ports.PageExtractor
	claims    *ExtractClaimsUseCase
	retriever *RetrieveEvidenceUseCase
	judge     *JudgeClaimUseCase
	workers   int
	maxPages  int
	now       func() time.Time
	observer  AnalysisObserver
}

// AnalysisObserver receives pipeline progress signals, typically backed by
// the worker's metrics registry.
type AnalysisObserver interface {
	ClaimsExtracted(count int)
	Judgment(coverage string)
	ClaimFailure(kind string)
}

type noopObserver struct{}

func (noopObserver) ClaimsExtracted(int) {}
func (noopObserver) Judgment(string)     {}
func (noopObserver) ClaimFailure(string) {}

func NewAnalyzeRunUseCase(
	runs ports.RunRepository,
	extractor ports.PageExtractor,
	claims *ExtractClaimsUseCase,
	retriever *RetrieveEvidenceUseCase,
	judge *JudgeClaimUseCase,
	workers int,
	maxPages int,
) *AnalyzeRunUseCase {
	if workers <= 0 {
		workers = 1
	}
	if maxPages <= 0 {
		maxPages = 3
	}
	return &AnalyzeRunUseCase{
		runs:      runs,
		extractor: extractor,
		claims:    claims,
		retriever: retriever,
		judge:     judge,
		workers:   workers,
		maxPages:  maxPages,
		now:       func() time.Time { return time.Now().UTC() },
		observer:  noopObserver{},
	}
}

// SetObserver replaces the no-op progress observer.
func (uc *AnalyzeRunUseCase) SetObserver(observer AnalysisObserver) {
	if observer != nil {
		uc.observer = observer
	}
}

func (uc *AnalyzeRunUseCase) AnalyzeByID(ctx context.Context, runID string) error {
	if err := uc.runs.UpdateStatus(ctx, runID, domain.RunProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	result, err := uc.runPipeline(ctx, runID)
	if err != nil {
		if failErr := uc.runs.UpdateStatus(ctx, runID, domain.RunFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	for _, failure := range result.Failures {
		slog.Warn("claim_analysis_degraded", "run_id", runID, "claim_id", failure.ClaimID, "error", failure.Err)
	}

	if err := uc.runs.UpdateStatus(ctx, runID, domain.RunReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *AnalyzeRunUseCase) runPipeline(ctx context.Context, runID string) (*domain.RunResult, error) {
	run, err := uc.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("fetch run by id: %w", err)
	}

	pages, err := uc.extractor.ExtractReportPages(ctx, run.StoragePath, uc.maxPages)
	if err != nil {
		return nil, fmt.Errorf("extract report pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract report pages", errors.New("report produced no pages"))
	}

	claims, err := uc.claims.Extract(ctx, pages)
	if err != nil {
		return nil, err
	}
	if len(claims) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract claims", errors.New("no usable claims extracted"))
	}
	uc.observer.ClaimsExtracted(len(claims))

	if err := uc.runs.SaveClaims(ctx, run.ID, claims); err != nil {
		return nil, fmt.Errorf("save claims: %w", err)
	}

	analyses, failures := uc.analyzeClaims(ctx, claims)

	report, err := BuildReport(run.ID, claims, analyses, uc.now())
	if err != nil {
		return nil, err
	}
	if err := uc.runs.SaveReport(ctx, run.ID, report); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	return &domain.RunResult{Report: report, Failures: failures}, nil
}

// analyzeClaims fans the per-claim unit of work (retrieve then judge) out to
// a bounded pool and collects results back into original claim order.
// Cancellation is checked between claims; in-flight calls run to completion.
func (uc *AnalyzeRunUseCase) analyzeClaims(ctx context.Context, claims []domain.Claim) ([]domain.ClaimAnalysis, []domain.ClaimFailure) {
	analyses := make([]domain.ClaimAnalysis, len(claims))
	failures := make([]domain.ClaimFailure, 0)

	var mu sync.Mutex
	group := new(errgroup.Group)
	group.SetLimit(uc.workers)

	for i, claim := range claims {
		i, claim := i, claim
		if err := ctx.Err(); err != nil {
			analyses[i] = degradedAnalysis(claim, err)
			mu.Lock()
			failures = append(failures, domain.ClaimFailure{ClaimID: claim.ClaimID, Err: err})
			mu.Unlock()
			uc.observer.ClaimFailure(failureKind(err))
			continue
		}

		group.Go(func() error {
			analysis, err := uc.analyzeClaim(ctx, claim)
			if err != nil {
				mu.Lock()
				failures = append(failures, domain.ClaimFailure{ClaimID: claim.ClaimID, Err: err})
				mu.Unlock()
				uc.observer.ClaimFailure(failureKind(err))
				analysis = degradedAnalysis(claim, err)
			}
			uc.observer.Judgment(string(analysis.Coverage))
			analyses[i] = analysis
			return nil
		})
	}

	_ = group.Wait()

	sort.Slice(failures, func(i, j int) bool { return failures[i].ClaimID < failures[j].ClaimID })
	return analyses, failures
}

func (uc *AnalyzeRunUseCase) analyzeClaim(ctx context.Context, claim domain.Claim) (domain.ClaimAnalysis, error) {
	citations, err := uc.retriever.Retrieve(ctx, claim.ClaimText)
	if err != nil {
		return domain.ClaimAnalysis{}, err
	}
	return uc.judge.Judge(ctx, claim, citations)
}

func failureKind(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrEvidenceUnavailable):
		return "evidence_unavailable"
	case domain.IsKind(err, domain.ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}

// degradedAnalysis marks a claim whose analysis could not run. It is
// visibly distinct from a genuine not_addressed verdict.
func degradedAnalysis(claim domain.Claim, cause error) domain.ClaimAnalysis {
	reason := "the analysis could not be completed"
	switch {
	case domain.IsKind(cause, domain.ErrEvidenceUnavailable):
		reason = "the evidence retrieval service was unreachable"
	case domain.IsKind(cause, domain.ErrModelUnavailable):
		reason = "the text-generation service was unreachable"
	case errors.Is(cause, context.Canceled), errors.Is(cause, context.DeadlineExceeded):
		reason = "the run was canceled before this claim was analyzed"
	}

	return domain.ClaimAnalysis{
		ClaimID:  claim.ClaimID,
		Coverage: domain.CoverageNot,
		Reasoning: reasoningBulletPoint + "Analysis failed: " + reason + ".\n" +
			reasoningBulletPoint + "This claim was not evaluated against internal evidence.",
		Citations:  []domain.Citation{},
		Confidence: 0,
		Gaps:       []string{"Completed analysis for this claim"},
		RecommendedActions: []string{
			"Re-run the analysis once the affected service is reachable",
			"Review this claim manually",
		},
	}
}
