package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/rebuttal-assistant/internal/core/domain"
	"github.com/kirillkom/rebuttal-assistant/internal/core/ports"
)

// IngestEvidenceUseCase accepts reference document uploads and queues them
// for indexing.
type IngestEvidenceUseCase struct {
	docs    ports.EvidenceDocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestEvidenceUseCase(
	docs ports.EvidenceDocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestEvidenceUseCase {
	return &IngestEvidenceUseCase{
		docs:    docs,
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestEvidenceUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (*domain.EvidenceDocument, error) {
	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.EvidenceDocument{
		ID:          id,
		Filename:    filename,
		Title:       documentTitle(filename),
		MimeType:    mimeType,
		StoragePath: storageKey,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishDocumentUploaded(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish indexing event: %w", err)
	}
	return doc, nil
}

// IngestReportUseCase accepts short report uploads and queues analysis runs.
type IngestReportUseCase struct {
	runs    ports.RunRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestReportUseCase(
	runs ports.RunRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestReportUseCase {
	return &IngestReportUseCase{
		runs:    runs,
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestReportUseCase) Upload(ctx context.Context, filename string, body io.Reader) (*domain.RebuttalRun, error) {
	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	run := &domain.RebuttalRun{
		ID:          id,
		Filename:    filename,
		StoragePath: storageKey,
		Status:      domain.RunUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	if err := uc.queue.PublishRunRequested(ctx, run.ID); err != nil {
		return nil, fmt.Errorf("publish run event: %w", err)
	}
	return run, nil
}

// RequestAnalysis re-queues an existing run, regenerating its report.
func (uc *IngestReportUseCase) RequestAnalysis(ctx context.Context, runID string) error {
	if _, err := uc.runs.GetByID(ctx, runID); err != nil {
		return fmt.Errorf("fetch run by id: %w", err)
	}
	if err := uc.queue.PublishRunRequested(ctx, runID); err != nil {
		return fmt.Errorf("publish run event: %w", err)
	}
	return nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	// filepath.Base maps an empty name to ".".
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}

func documentTitle(filename string) string {
	base := filepath.Base(filename)
	if base == "" || base == "." {
		return "Untitled"
	}
	return base
}
