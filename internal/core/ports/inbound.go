package ports

import (
	"context"
	"io"

	"github.com/kirillkom/rebuttal-assistant/internal/core/domain"
)

// EvidenceIngestor is the inbound contract for reference document upload.
type EvidenceIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.EvidenceDocument, error)
}

// EvidenceIndexer is the inbound contract for asynchronous reference
// document indexing.
type EvidenceIndexer interface {
	IndexByID(ctx context.Context, documentID string) error
}

// ReportIngestor is the inbound contract for short report upload.
type ReportIngestor interface {
	Upload(ctx context.Context, filename string, body io.Reader) (*domain.RebuttalRun, error)
	RequestAnalysis(ctx context.Context, runID string) error
}

// RunAnalyzer is the inbound contract for executing a rebuttal run.
type RunAnalyzer interface {
	AnalyzeByID(ctx context.Context, runID string) error
}

// RunReader is the inbound read model for run state and finished reports.
type RunReader interface {
	GetByID(ctx context.Context, id string) (*domain.RebuttalRun, error)
}
