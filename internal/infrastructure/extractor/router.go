package extractor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/kirillkom/rebuttal-assistant/internal/core/domain"
	"github.com/kirillkom/rebuttal-assistant/internal/core/ports"
)

// Router dispatches page extraction by file extension: PDFs go to the pdf
// extractor, everything else is treated as plain text.
type Router struct {
	pdf  ports.PageExtractor
	text ports.PageExtractor
}

func NewRouter(pdf, text ports.PageExtractor) *Router {
	return &Router{pdf: pdf, text: text}
}

func (r *Router) ExtractPages(ctx context.Context, doc *domain.EvidenceDocument, maxPages int) ([]domain.Page, error) {
	return r.pick(doc.StoragePath).ExtractPages(ctx, doc, maxPages)
}

func (r *Router) ExtractReportPages(ctx context.Context, storagePath string, maxPages int) ([]domain.Page, error) {
	return r.pick(storagePath).ExtractReportPages(ctx, storagePath, maxPages)
}

func (r *Router) pick(path string) ports.PageExtractor {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return r.pdf
	}
	return r.text
}
