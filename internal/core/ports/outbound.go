package ports

import (
	"context"
	"io"

	"github.com/kirillkom/rebuttal-assistant/internal/core/domain"
)

// RunRepository persists and reads rebuttal run state.
type RunRepository interface {
	Create(ctx context.Context, run *domain.RebuttalRun) error
	GetByID(ctx context.Context, id string) (*domain.RebuttalRun, error)
	UpdateStatus(ctx context.Context, id string, status domain.RunStatus, errMessage string) error
	SaveClaims(ctx context.Context, id string, claims []domain.Claim) error
	SaveReport(ctx context.Context, id string, report *domain.Report) error
}

// EvidenceDocumentRepository persists reference document state.
type EvidenceDocumentRepository interface {
	Create(ctx context.Context, doc *domain.EvidenceDocument) error
	GetByID(ctx context.Context, id string) (*domain.EvidenceDocument, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveChunkCount(ctx context.Context, id string, count int) error
}

// ObjectStorage stores uploaded source files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes pipeline events.
type MessageQueue interface {
	PublishDocumentUploaded(ctx context.Context, documentID string) error
	PublishRunRequested(ctx context.Context, runID string) error
	SubscribeDocumentUploaded(ctx context.Context, handler func(context.Context, string) error) error
	SubscribeRunRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// PageExtractor extracts ordered page text from a stored document. Pages
// with empty text are valid. maxPages <= 0 means no cap.
type PageExtractor interface {
	ExtractPages(ctx context.Context, doc *domain.EvidenceDocument, maxPages int) ([]domain.Page, error)
	ExtractReportPages(ctx context.Context, storagePath string, maxPages int) ([]domain.Page, error)
}

// Chunker splits text into bounded overlapping segments.
type Chunker interface {
	Split(text string) ([]string, error)
}

// Embedder builds vectors for chunks and query text. Unreachable service
// errors carry domain.ErrEvidenceUnavailable.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// EvidenceIndex stores and searches evidence chunks. Search returns an empty
// slice when the index is absent or empty; that is a valid state, not an
// error.
type EvidenceIndex interface {
	IndexChunks(ctx context.Context, doc *domain.EvidenceDocument, chunks []string, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, limit int) ([]domain.EvidenceHit, error)
}

// TextGenerator issues one structured-prompt generation call. The pipeline
// owns response parsing; transport failures carry domain.ErrModelUnavailable.
type TextGenerator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}
