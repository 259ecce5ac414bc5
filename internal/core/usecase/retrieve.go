package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/kirillkom/rebuttal-assistant/internal/core/domain"
	"github.com/kirillkom/rebuttal-assistant/internal/core/ports"
)

// RetrieveEvidenceUseCase maps a claim's text to a ranked list of evidence
// citations. An absent or empty index yields an empty list, not an error.
type RetrieveEvidenceUseCase struct {
	embedder ports.Embedder
	index    ports.EvidenceIndex
	topK     int
}

func NewRetrieveEvidenceUseCase(embedder ports.Embedder, index ports.EvidenceIndex, topK int) *RetrieveEvidenceUseCase {
	if topK <= 0 {
		topK = 6
	}
	return &RetrieveEvidenceUseCase{
		embedder: embedder,
		index:    index,
		topK:     topK,
	}
}

func (uc *RetrieveEvidenceUseCase) Retrieve(ctx context.Context, claimText string) ([]domain.Citation, error) {
	queryVector, err := uc.embedder.EmbedQuery(ctx, claimText)
	if err != nil {
		return nil, fmt.Errorf("embed claim text: %w", err)
	}

	hits, err := uc.index.Search(ctx, queryVector, uc.topK)
	if err != nil {
		return nil, fmt.Errorf("search evidence index: %w", err)
	}

	// Equal scores tie-break on chunk id so retrieval order does not depend
	// on the index store's internal order.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	citations := make([]domain.Citation, 0, len(hits))
	for _, hit := range hits {
		citation := hit.Citation
		citation.Quote = truncateRunes(citation.Quote, maxCitationQuoteLen)
		citations = append(citations, citation)
	}
	return citations, nil
}
