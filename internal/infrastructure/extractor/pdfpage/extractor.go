package pdfpage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/rebuttal-assistant/internal/core/domain"
	"github.com/kirillkom/rebuttal-assistant/internal/core/ports"
)

// Extractor pulls per-page plain text out of PDF files kept in object
// storage.
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

	doc, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse pdf", err)
	}

	total := doc.NumPage()
	if maxPages > 0 && total > maxPages {
		total = maxPages
	}

	pages := make([]domain.Page, 0, total)
	for i := 1; i <= total; i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page does not invalidate the document.
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, domain.Page{Number: i, Text: text})
	}
	return pages, nil
}
