package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/kirillkom/rebuttal-assistant/internal/core/domain"
)

type stubEmbedder struct {
	vector []float32
	err    error
}

func (e *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = e.vector
	}
	return out, nil
}

func (e *stubEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vector, nil
}

type stubIndex struct {
	mu      sync.Mutex
	hits    []domain.EvidenceHit
	err     error
	limit   int
	indexed []string
}

func (s *stubIndex) IndexChunks(_ context.Context, _ *domain.EvidenceDocument, chunks []string, _ [][]float32) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	s.indexed = append(s.indexed, chunks...)
	s.mu.Unlock()
	return nil
}

func (s *stubIndex) Search(_ context.Context, _ []float32, limit int) ([]domain.EvidenceHit, error) {
	s.mu.Lock()
	s.limit = limit
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.hits, nil
}

func TestRetrieveOrdersByScoreThenChunkID(t *testing.T) {
	index := &stubIndex{hits: []domain.EvidenceHit{
		{Citation: domain.Citation{ChunkID: "doc-1_chunk_2", Quote: "b"}, Score: 0.8},
		{Citation: domain.Citation{ChunkID: "doc-1_chunk_1", Quote: "a"}, Score: 0.8},
		{Citation: domain.Citation{ChunkID: "doc-2_chunk_0", Quote: "c"}, Score: 0.9},
	}}
	uc := NewRetrieveEvidenceUseCase(&stubEmbedder{vector: []float32{0.1}}, index, 6)

	citations, err := uc.Retrieve(context.Background(), "claim text")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	got := []string{citations[0].ChunkID, citations[1].ChunkID, citations[2].ChunkID}
	want := []string{"doc-2_chunk_0", "doc-1_chunk_1", "doc-1_chunk_2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: %v", got)
		}
	}
	if index.limit != 6 {
		t.Fatalf("expected configured limit 6, got %d", index.limit)
	}
}

func TestRetrieveTruncatesLongQuotes(t *testing.T) {
	index := &stubIndex{hits: []domain.EvidenceHit{
		{Citation: domain.Citation{ChunkID: "doc-1_chunk_0", Quote: strings.Repeat("ü", 700)}, Score: 0.5},
	}}
	uc := NewRetrieveEvidenceUseCase(&stubEmbedder{vector: []float32{0.1}}, index, 3)

	citations, err := uc.Retrieve(context.Background(), "claim text")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if n := utf8.RuneCountInString(citations[0].Quote); n != maxCitationQuoteLen {
		t.Fatalf("expected quote truncated to %d runes, got %d", maxCitationQuoteLen, n)
	}
	if index.limit != 3 {
		t.Fatalf("expected configured limit 3, got %d", index.limit)
	}
}

func TestRetrieveEmptyIndexIsNotAnError(t *testing.T) {
	uc := NewRetrieveEvidenceUseCase(&stubEmbedder{vector: []float32{0.1}}, &stubIndex{}, 6)

	citations, err := uc.Retrieve(context.Background(), "claim text")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(citations) != 0 {
		t.Fatalf("expected no citations, got %d", len(citations))
	}
}

func TestRetrieveEmbedErrorPropagates(t *testing.T) {
	cause := domain.WrapError(domain.ErrEvidenceUnavailable, "embed texts", errors.New("connection refused"))
	uc := NewRetrieveEvidenceUseCase(&stubEmbedder{err: cause}, &stubIndex{}, 6)

	_, err := uc.Retrieve(context.Background(), "claim text")
	if !domain.IsKind(err, domain.ErrEvidenceUnavailable) {
		t.Fatalf("expected ErrEvidenceUnavailable, got %v", err)
	}
}

func TestRetrieveSearchErrorPropagates(t *testing.T) {
	cause := domain.WrapError(domain.ErrEvidenceUnavailable, "search collection", errors.New("status 500"))
	uc := NewRetrieveEvidenceUseCase(&stubEmbedder{vector: []float32{0.1}}, &stubIndex{err: cause}, 6)

	_, err := uc.Retrieve(context.Background(), "claim text")
	if !domain.IsKind(err, domain.ErrEvidenceUnavailable) {
		t.Fatalf("expected ErrEvidenceUnavailable, got %v", err)
	}
}
