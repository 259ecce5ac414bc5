package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/rebuttal-assistant/internal/core/domain"
	"github.com/kirillkom/rebuttal-assistant/internal/core/ports"
)

const minClaimTextLen = 10

// ExtractClaimsUseCase turns raw short-report pages into a bounded,
// deduplicated list of claims via one text-generation call.
type ExtractClaimsUseCase struct {
	generator ports.TextGenerator
	minClaims int
	maxClaims int
	threshold float64
}

func NewExtractClaimsUseCase(generator ports.TextGenerator, minClaims, maxClaims int, similarityThreshold float64) *ExtractClaimsUseCase {
	if minClaims <= 0 {
		minClaims = 8
	}
	if maxClaims <= 0 {
		maxClaims = 30
	}
	if similarityThreshold <= 0 || similarityThreshold > 1 {
		similarityThreshold = 0.7
	}
	return &ExtractClaimsUseCase{
		generator: generator,
		minClaims: minClaims,
		maxClaims: maxClaims,
		threshold: similarityThreshold,
	}
}

func (uc *ExtractClaimsUseCase) Extract(ctx context.Context, pages []domain.Page) ([]domain.Claim, error) {
	prompt := buildExtractionPrompt(pages, uc.minClaims, uc.maxClaims)

	raw, err := uc.generator.Generate(ctx, extractionSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate claim extraction: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, domain.WrapError(domain.ErrMalformedModelOutput, "extract claims", errors.New("empty model response"))
	}

	candidates, err := parseClaimCandidates(raw)
	if err != nil {
		return nil, err
	}

	validated := validateCandidates(candidates, uc.maxClaims)
	deduped := deduplicateCandidates(validated, uc.threshold)

	if len(deduped) < uc.minClaims {
		slog.Warn("claim_count_below_minimum", "extracted", len(deduped), "minimum", uc.minClaims)
	}
	if len(deduped) > uc.maxClaims {
		deduped = deduped[:uc.maxClaims]
	}

	claims := make([]domain.Claim, 0, len(deduped))
	for i, cand := range deduped {
		claims = append(claims, domain.Claim{
			ClaimID:     claimID(i + 1),
			ClaimText:   cand.ClaimText,
			PageNumbers: cand.PageNumbers,
			ClaimType:   domain.NormalizeClaimType(cand.ClaimType),
		})
	}
	return claims, nil
}

func claimID(index int) string {
	return fmt.Sprintf("C%03d", index)
}

type claimCandidate struct {
	ClaimText   string   `json:"claim_text"`
	PageNumbers pageList `json:"page_numbers"`
	ClaimType   string   `json:"claim_type"`
}

// pageList tolerates a bare number where a list was requested.
type pageList []int

func (p *pageList) UnmarshalJSON(data []byte) error {
	var list []int
	if err := json.Unmarshal(data, &list); err == nil {
		*p = list
		return nil
	}
	var single int
	if err := json.Unmarshal(data, &single); err == nil {
		*p = []int{single}
		return nil
	}
	return fmt.Errorf("page_numbers is neither a list nor a number")
}

var recoverySpanPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[[\s\S]*?\]`),
	regexp.MustCompile(`\{[\s\S]*?\}`),
}

// parseClaimCandidates locates the outermost JSON array in the response and
// decodes it. Parse failure triggers a looser span scan before giving up
// with ErrMalformedModelOutput.
func parseClaimCandidates(raw string) ([]claimCandidate, error) {
	if candidates, ok := decodeCandidateList(outermostArraySpan(raw)); ok && len(candidates) > 0 {
		return candidates, nil
	}

	for _, pattern := range recoverySpanPatterns {
		for _, span := range pattern.FindAllString(raw, -1) {
			if candidates, ok := decodeCandidateList(span); ok && len(candidates) > 0 {
				return candidates, nil
			}
		}
	}

	return nil, domain.WrapError(
		domain.ErrMalformedModelOutput,
		"parse claim extraction",
		fmt.Errorf("no parseable claim list in response: %s", truncateRunes(raw, 500)),
	)
}

func outermostArraySpan(raw string) string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return strings.TrimSpace(raw)
}

// decodeCandidateList parses a list of loosely shaped objects, skipping
// entries that are not objects.
func decodeCandidateList(span string) ([]claimCandidate, bool) {
	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(span), &elements); err != nil {
		var single claimCandidate
		if err := json.Unmarshal([]byte(span), &single); err == nil && single.ClaimText != "" {
			return []claimCandidate{single}, true
		}
		return nil, false
	}

	candidates := make([]claimCandidate, 0, len(elements))
	for _, element := range elements {
		var cand claimCandidate
		if err := json.Unmarshal(element, &cand); err != nil {
			continue
		}
		candidates = append(candidates, cand)
	}
	return candidates, true
}

// validateCandidates filters out unusable candidates and corrects fixable
// ones before they count toward the claim bound.
func validateCandidates(candidates []claimCandidate, maxClaims int) []claimCandidate {
	out := make([]claimCandidate, 0, len(candidates))
	for _, cand := range candidates {
		if len(out) >= maxClaims {
			break
		}

		text := strings.TrimSpace(cand.ClaimText)
		if utf8.RuneCountInString(text) < minClaimTextLen {
			continue
		}

		pages := make([]int, 0, len(cand.PageNumbers))
		for _, p := range cand.PageNumbers {
			if p > 0 {
				pages = append(pages, p)
			}
		}
		if len(pages) == 0 {
			pages = []int{1}
		}

		out = append(out, claimCandidate{
			ClaimText:   text,
			PageNumbers: pages,
			ClaimType:   string(domain.NormalizeClaimType(cand.ClaimType)),
		})
	}
	return out
}
