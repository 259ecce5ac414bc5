package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/rebuttal-assistant/internal/core/domain"
	"github.com/kirillkom/rebuttal-assistant/internal/core/ports"
)

// JudgeClaimUseCase classifies a claim's evidentiary coverage. Three fixed
// outcomes: a deterministic no-evidence verdict without any model call, a
// model-backed judgment when evidence exists, and a deterministic
// needs-manual-review fallback when the model's output cannot be parsed.
// Only an unreachable generation service surfaces as an error.
type JudgeClaimUseCase struct {
	generator ports.TextGenerator
}

func NewJudgeClaimUseCase(generator ports.TextGenerator) *JudgeClaimUseCase {
	return &JudgeClaimUseCase{generator: generator}
}

func (uc *JudgeClaimUseCase) Judge(ctx context.Context, claim domain.Claim, citations []domain.Citation) (domain.ClaimAnalysis, error) {
	if len(citations) == 0 {
		return noEvidenceAnalysis(claim), nil
	}

	raw, err := uc.generator.Generate(ctx, judgmentSystemPrompt, buildJudgmentPrompt(claim, citations))
	if err != nil {
		return domain.ClaimAnalysis{}, fmt.Errorf("generate judgment for %s: %w", claim.ClaimID, err)
	}

	payload, err := parseJudgmentPayload(raw)
	if err != nil {
		return formatFailureAnalysis(claim, citations), nil
	}

	return validateJudgment(claim, citations, payload), nil
}

type judgmentPayload struct {
	Coverage           string          `json:"coverage"`
	Reasoning          json.RawMessage `json:"reasoning"`
	Confidence         float64         `json:"confidence"`
	Gaps               []string        `json:"gaps"`
	RecommendedActions []string        `json:"recommended_actions"`
}

func parseJudgmentPayload(raw string) (judgmentPayload, error) {
	span := raw
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		span = raw[start : end+1]
	}

	var payload judgmentPayload
	if err := json.Unmarshal([]byte(span), &payload); err != nil {
		return judgmentPayload{}, domain.WrapError(domain.ErrMalformedModelOutput, "parse judgment", err)
	}
	return payload, nil
}

// validateJudgment applies the uniform correction rules: coverage coercion,
// confidence clamping, bullet-joined reasoning, and the gaps/actions
// invariant (nil when fully addressed, non-empty defaults otherwise).
func validateJudgment(claim domain.Claim, citations []domain.Citation, payload judgmentPayload) domain.ClaimAnalysis {
	coverage := domain.NormalizeCoverage(payload.Coverage)

	reasoning := decodeReasoning(payload.Reasoning)
	if reasoning == "" {
		reasoning = reasoningBulletPoint + "The model did not provide an analysis."
	}

	gaps := payload.Gaps
	actions := payload.RecommendedActions
	if coverage == domain.CoverageFully {
		gaps = nil
		actions = nil
	} else {
		if len(gaps) == 0 {
			gaps = []string{"Additional supporting evidence"}
		}
		if len(actions) == 0 {
			actions = []string{"Investigate further", "Collect more evidence"}
		}
	}

	return domain.ClaimAnalysis{
		ClaimID:            claim.ClaimID,
		Coverage:           coverage,
		Reasoning:          reasoning,
		Citations:          citations,
		Confidence:         domain.ClampConfidence(int(payload.Confidence)),
		Gaps:               gaps,
		RecommendedActions: actions,
	}
}

// decodeReasoning accepts either a string or a list of bullet fragments,
// joining the latter into a single bullet-formatted string.
func decodeReasoning(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var items []string
	if err := json.Unmarshal(raw, &items); err == nil {
		lines := make([]string, 0, len(items))
		for _, item := range items {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			if !strings.HasPrefix(item, reasoningBulletPoint) {
				item = reasoningBulletPoint + item
			}
			lines = append(lines, item)
		}
		return strings.Join(lines, "\n")
	}

	return strings.TrimSpace(string(raw))
}

func noEvidenceAnalysis(claim domain.Claim) domain.ClaimAnalysis {
	return domain.ClaimAnalysis{
		ClaimID:  claim.ClaimID,
		Coverage: domain.CoverageNot,
		Reasoning: reasoningBulletPoint + "No relevant internal evidence was found for this claim.\n" +
			reasoningBulletPoint + "Further retrieval or document collection is required.",
		Citations:  []domain.Citation{},
		Confidence: 0,
		Gaps: []string{
			"Internal documents related to the claim",
			"Audit reports, financial statements or contracts covering the alleged facts",
		},
		RecommendedActions: []string{
			"Broaden the retrieval scope",
			"Collect the relevant internal documents",
			"Consult the responsible department",
		},
	}
}

func formatFailureAnalysis(claim domain.Claim, citations []domain.Citation) domain.ClaimAnalysis {
	return domain.ClaimAnalysis{
		ClaimID:  claim.ClaimID,
		Coverage: domain.CoverageNot,
		Reasoning: reasoningBulletPoint + "The model response could not be parsed into a structured judgment.\n" +
			reasoningBulletPoint + "This claim requires manual review.",
		Citations:  citations,
		Confidence: 0,
		Gaps:       []string{"Manual review of the model response"},
		RecommendedActions: []string{
			"Re-run the judgment for this claim",
			"Review the raw model output",
		},
	}
}
