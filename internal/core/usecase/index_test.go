package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/rebuttal-assistant/internal/core/domain"
)

type stubChunker struct {
	chunks []string
	err    error
	text   string
}

func (c *stubChunker) Split(text string) ([]string, error) {
	c.text = text
	if c.err != nil {
		return nil, c.err
	}
	return c.chunks, nil
}

func indexedDoc() *domain.EvidenceDocument {
	return &domain.EvidenceDocument{
		ID:          "doc-1",
		Filename:    "audit.pdf",
		Title:       "audit.pdf",
		StoragePath: "doc-1_audit.pdf",
		Status:      domain.StatusUploaded,
	}
}

func TestIndexByIDHappyPath(t *testing.T) {
	repo := &memDocRepo{doc: indexedDoc()}
	pages := &stubPageSource{pages: []domain.Page{
		{Number: 1, Text: "  first page text  "},
		{Number: 2, Text: ""},
		{Number: 3, Text: "third page text"},
	}}
	chunker := &stubChunker{chunks: []string{"first page text", "third page text"}}
	index := &stubIndex{}
	uc := NewIndexEvidenceUseCase(repo, pages, chunker, &markedEmbedder{}, index)

	if err := uc.IndexByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("IndexByID: %v", err)
	}

	if chunker.text != "first page text\n\nthird page text" {
		t.Fatalf("unexpected joined text: %q", chunker.text)
	}
	if len(index.indexed) != 2 {
		t.Fatalf("expected 2 indexed chunks, got %d", len(index.indexed))
	}
	if repo.chunkCount != 2 {
		t.Fatalf("expected chunk count 2, got %d", repo.chunkCount)
	}
	want := []domain.DocumentStatus{domain.StatusProcessing, domain.StatusIndexed}
	if len(repo.statuses) != 2 || repo.statuses[0] != want[0] || repo.statuses[1] != want[1] {
		t.Fatalf("unexpected status transitions: %v", repo.statuses)
	}
}

func TestIndexByIDEmptyTextFails(t *testing.T) {
	repo := &memDocRepo{doc: indexedDoc()}
	pages := &stubPageSource{pages: []domain.Page{{Number: 1, Text: "   "}}}
	uc := NewIndexEvidenceUseCase(repo, pages, &stubChunker{}, &markedEmbedder{}, &stubIndex{})

	err := uc.IndexByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if repo.statuses[len(repo.statuses)-1] != domain.StatusFailed {
		t.Fatalf("expected final status failed, got %v", repo.statuses)
	}
	if repo.errMsg == "" {
		t.Fatal("failed document must record the error message")
	}
}

func TestIndexByIDIndexFailure(t *testing.T) {
	repo := &memDocRepo{doc: indexedDoc()}
	pages := &stubPageSource{pages: []domain.Page{{Number: 1, Text: "page text"}}}
	chunker := &stubChunker{chunks: []string{"page text"}}
	index := &stubIndex{err: domain.WrapError(domain.ErrEvidenceUnavailable, "upsert points", errors.New("status 500"))}
	uc := NewIndexEvidenceUseCase(repo, pages, chunker, &markedEmbedder{}, index)

	err := uc.IndexByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrEvidenceUnavailable) {
		t.Fatalf("expected ErrEvidenceUnavailable, got %v", err)
	}
	if repo.statuses[len(repo.statuses)-1] != domain.StatusFailed {
		t.Fatalf("expected final status failed, got %v", repo.statuses)
	}
	if !strings.Contains(repo.errMsg, "index chunks") {
		t.Fatalf("error message must name the failed step: %q", repo.errMsg)
	}
}

func TestIndexByIDMissingDocument(t *testing.T) {
	uc := NewIndexEvidenceUseCase(&memDocRepo{}, &stubPageSource{}, &stubChunker{}, &markedEmbedder{}, &stubIndex{})

	err := uc.IndexByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}
