package plaintext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/rebuttal-assistant/internal/core/domain"
	"github.com/kirillkom/rebuttal-assistant/internal/core/ports"
)

// Extractor reads UTF-8 text files from object storage. Form feed characters
// act as page breaks; a file without them is a single page.
type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) ExtractPages(ctx context.Context, doc *domain.EvidenceDocument, maxPages int) ([]domain.Page, error) {
	return e.extract(ctx, doc.StoragePath, maxPages)
}

func (e *Extractor) ExtractReportPages(ctx context.Context, storagePath string, maxPages int) ([]domain.Page, error) {
	return e.extract(ctx, storagePath, maxPages)
}

func (e *Extractor) extract(ctx context.Context, storagePath string, maxPages int) ([]domain.Page, error) {
	reader, err := e.storage.Open(ctx, storagePath)
	if err != nil {
		return nil, fmt.Errorf("open stored file: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read stored file: %w", err)
	}

	if !utf8.Valid(raw) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read text file", errors.New("file is not valid UTF-8"))
	}

	pages := make([]domain.Page, 0, 1)
	for i, part := range strings.Split(string(raw), "\f") {
		if maxPages > 0 && len(pages) == maxPages {
			break
		}
		text := strings.TrimSpace(part)
		if text == "" {
			continue
		}
		pages = append(pages, domain.Page{Number: i + 1, Text: text})
	}
	return pages, nil
}
