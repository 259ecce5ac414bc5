package usecase

import (
	"sort"
	"strings"
)

// deduplicateCandidates collapses exact and near-duplicate claims. Exact
// repeats (normalized text) are dropped; near-duplicates above the Jaccard
// threshold merge into the first accepted match, their page numbers unioned
// and re-sorted. Candidates compare only against already-accepted claims, so
// the pass is idempotent and preserves order of first appearance.
func deduplicateCandidates(candidates []claimCandidate, threshold float64) []claimCandidate {
	if len(candidates) == 0 {
		return nil
	}

	accepted := make([]claimCandidate, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))

	for _, cand := range candidates {
		norm := normalizeClaimText(cand.ClaimText)
		if _, ok := seen[norm]; ok {
			continue
		}

		merged := false
		for i := range accepted {
			if jaccardSimilarity(cand.ClaimText, accepted[i].ClaimText) >= threshold {
				accepted[i].PageNumbers = unionPages(accepted[i].PageNumbers, cand.PageNumbers)
				merged = true
				break
			}
		}
		if merged {
			continue
		}

		accepted = append(accepted, cand)
		seen[norm] = struct{}{}
	}
	return accepted
}

func normalizeClaimText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// jaccardSimilarity compares lowercase word sets of two texts.
func jaccardSimilarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for word := range setA {
		if _, ok := setB[word]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	out := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		out[field] = struct{}{}
	}
	return out
}

func unionPages(a, b []int) []int {
	set := make(map[int]struct{}, len(a)+len(b))
	for _, p := range a {
		set[p] = struct{}{}
	}
	for _, p := range b {
		set[p] = struct{}{}
	}

	out := make([]int, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}
