package domain

// ClaimType categorizes an allegation extracted from a short report.
type ClaimType string

const (
	ClaimAccounting    ClaimType = "accounting"
	ClaimBusinessModel ClaimType = "business_model"
	ClaimFraud         ClaimType = "fraud"
	ClaimRelatedParty  ClaimType = "related_party"
	ClaimGuidance      ClaimType = "guidance"
	ClaimMetrics       ClaimType = "metrics"
	ClaimOther         ClaimType = "other"
)

// NormalizeClaimType coerces unknown values to ClaimOther.
func NormalizeClaimType(raw string) ClaimType {
	switch ClaimType(raw) {
	case ClaimAccounting, ClaimBusinessModel, ClaimFraud, ClaimRelatedParty, ClaimGuidance, ClaimMetrics, ClaimOther:
		return ClaimType(raw)
	default:
		return ClaimOther
	}
}

// Claim is an atomic, independently verifiable allegation. Created by the
// extractor; only the deduplicator mutates it (page merge), immutable after.
type Claim struct {
	ClaimID     string    `json:"claim_id"`
	ClaimText   string    `json:"claim_text"`
	PageNumbers []int     `json:"page_numbers"`
	ClaimType   ClaimType `json:"claim_type"`
}

// Page is one page of extracted source text. Empty text is valid.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Citation is an evidence excerpt attributed to a document chunk.
type Citation struct {
	DocID    string `json:"doc_id"`
	DocTitle string `json:"doc_title"`
	ChunkID  string `json:"chunk_id"`
	Quote    string `json:"quote"`
}

// EvidenceHit is a scored citation as returned by the evidence index.
type EvidenceHit struct {
	Citation
	Score float64 `json:"score"`
}

type Coverage string

const (
	CoverageFully     Coverage = "fully_addressed"
	CoveragePartially Coverage = "partially_addressed"
	CoverageNot       Coverage = "not_addressed"
)

// NormalizeCoverage coerces unknown values to CoverageNot.
func NormalizeCoverage(raw string) Coverage {
	switch Coverage(raw) {
	case CoverageFully, CoveragePartially, CoverageNot:
		return Coverage(raw)
	default:
		return CoverageNot
	}
}

// ClampConfidence bounds a confidence score to [0, 100].
func ClampConfidence(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ClaimAnalysis is the verdict for a single claim. Gaps and
// RecommendedActions are nil exactly when Coverage is CoverageFully.
type ClaimAnalysis struct {
	ClaimID            string     `json:"claim_id"`
	Coverage           Coverage   `json:"coverage"`
	Reasoning          string     `json:"reasoning"`
	Citations          []Citation `json:"citations"`
	Confidence         int        `json:"confidence"`
	Gaps               []string   `json:"gaps,omitempty"`
	RecommendedActions []string   `json:"recommended_actions,omitempty"`
}
