package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/rebuttal-assistant/internal/core/domain"
	"github.com/kirillkom/rebuttal-assistant/internal/core/ports"
)

// IndexEvidenceUseCase processes an uploaded reference document into the
// evidence index: extract page text, chunk, embed, upsert.
type IndexEvidenceUseCase struct {
	docs      ports.EvidenceDocumentRepository
	extractor ports.PageExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	index     ports.EvidenceIndex
}

func NewIndexEvidenceUseCase(
	docs ports.EvidenceDocumentRepository,
	extractor ports.PageExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.EvidenceIndex,
) *IndexEvidenceUseCase {
	return &IndexEvidenceUseCase{
		docs:      docs,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
	}
}

func (uc *IndexEvidenceUseCase) IndexByID(ctx context.Context, documentID string) error {
	if err := uc.docs.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	chunkCount, err := uc.indexPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.docs.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.docs.SaveChunkCount(ctx, documentID, chunkCount); err != nil {
		return fmt.Errorf("save chunk count: %w", err)
	}
	if err := uc.docs.UpdateStatus(ctx, documentID, domain.StatusIndexed, ""); err != nil {
		return fmt.Errorf("set status=indexed: %w", err)
	}
	return nil
}

func (uc *IndexEvidenceUseCase) indexPipeline(ctx context.Context, documentID string) (int, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("fetch document by id: %w", err)
	}

	pages, err := uc.extractor.ExtractPages(ctx, doc, 0)
	if err != nil {
		return 0, fmt.Errorf("extract document text: %w", err)
	}

	text := joinPageText(pages)
	if text == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "extract document text", errors.New("empty extracted text"))
	}

	chunks, err := uc.chunker.Split(text)
	if err != nil {
		return 0, fmt.Errorf("chunk document: %w", err)
	}
	if len(chunks) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}

	vectors, err := uc.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}

	if err := uc.index.IndexChunks(ctx, doc, chunks, vectors); err != nil {
		return 0, fmt.Errorf("index chunks: %w", err)
	}
	return len(chunks), nil
}

func joinPageText(pages []domain.Page) string {
	parts := make([]string, 0, len(pages))
	for _, page := range pages {
		if trimmed := strings.TrimSpace(page.Text); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, "\n\n")
}
