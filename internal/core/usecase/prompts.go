package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/rebuttal-assistant/internal/core/domain"
)

const (
	maxPromptTextChars   = 8000
	maxPageContextPages  = 5
	maxPageContextChars  = 500
	maxCitationQuoteLen  = 500
	reasoningBulletPoint = "• "
)

const extractionSystemPrompt = "You are a financial analyst expert at extracting structured claims from reports. Always return valid JSON."

const judgmentSystemPrompt = "You are a professional financial analyst skilled at assessing evidence quality. Always return valid JSON."

func buildExtractionPrompt(pages []domain.Page, minClaims, maxClaims int) string {
	var full strings.Builder
	for _, page := range pages {
		fmt.Fprintf(&full, "Page %d:\n%s\n\n", page.Number, page.Text)
	}
	text := truncateRunes(full.String(), maxPromptTextChars)

	var pageContext strings.Builder
	for i, page := range pages {
		if i >= maxPageContextPages {
			break
		}
		fmt.Fprintf(&pageContext, "Page %d: %s...\n", page.Number, truncateRunes(page.Text, maxPageContextChars))
	}

	return fmt.Sprintf(`You are an expert financial analyst. Extract independent, testable claims from the following short report.

The report text:
%s

Requirements:
1. Extract %d-%d independent, atomic claims (each claim should contain a single allegation)
2. Each claim must be testable and verifiable
3. Claims should be specific and actionable
4. For each claim, identify:
   - The claim text (concise, 1-3 sentences)
   - Page numbers where it appears (from the page context below)
   - Claim type: accounting, business_model, fraud, related_party, guidance, metrics, or other

Page context:
%s

Output format (JSON array):
[
  {
    "claim_text": "Specific allegation or claim",
    "page_numbers": [1, 2],
    "claim_type": "accounting"
  }
]

Claim types:
- accounting: Accounting irregularities, financial misstatements
- business_model: Business model concerns, sustainability issues
- fraud: Fraud allegations, deception
- related_party: Related party transactions, conflicts of interest
- guidance: Guidance manipulation, forward-looking statements
- metrics: Key metrics manipulation, KPIs
- other: Other types of claims

Return ONLY valid JSON, no additional text.`, text, minClaims, maxClaims, pageContext.String())
}

const judgmentRubric = `## Classification Rules

1. fully_addressed:
   - Internal evidence directly and explicitly rebuts or resolves the claim
   - Specific, verifiable facts and figures are provided
   - Evidence sources are reliable and relevant
   - At least 2 directly relevant evidence excerpts must be cited

2. partially_addressed:
   - Internal evidence is partially relevant but incomplete
   - Some information is provided, but key evidence is missing
   - More information is needed to fully resolve the claim
   - At least 1 relevant evidence excerpt must be cited

3. not_addressed:
   - Internal evidence is irrelevant or very weak
   - No relevant rebuttal evidence was found
   - Evidence quality is insufficient to support any conclusion
   - When evidence is weak or irrelevant, classify as not_addressed

## Citation Requirements
- Cite every evidence excerpt used, with document name and chunk id
- When evidence is missing, name the missing evidence types explicitly

## Output Requirements
- reasoning: 5-10 bullet points grounded in the evidence
- confidence: integer score from 0 to 100
- gaps: missing evidence types when not fully addressed (e.g. "auditor letter", "contracts", "invoice samples")
- recommended_actions: follow-up steps for IR, legal or finance`

func buildJudgmentPrompt(claim domain.Claim, citations []domain.Citation) string {
	var evidence strings.Builder
	for i, cit := range citations {
		fmt.Fprintf(&evidence, "[Evidence %d]\nDocument: %s\nChunk ID: %s\nQuote: %s\n\n", i+1, cit.DocTitle, cit.ChunkID, cit.Quote)
	}

	return fmt.Sprintf(`You are a professional financial analyst assessing whether a short-seller claim is sufficiently rebutted by internal evidence.

%s

## Claim
ID: %s
Type: %s
Text: %s
Pages: %v

## Retrieved Evidence
%s
## Task
Evaluate the claim against the classification rules and return a JSON result.

Output format (JSON):
{
  "coverage": "fully_addressed" | "partially_addressed" | "not_addressed",
  "reasoning": "5-10 bullet points grounded in the evidence",
  "confidence": 0-100,
  "gaps": ["missing evidence type 1", "missing evidence type 2"],
  "recommended_actions": ["action 1", "action 2"]
}

Important:
- Follow the classification rules strictly
- If evidence is weak or irrelevant, classify as not_addressed
- Reference every evidence excerpt you rely on in the reasoning
- If coverage is not fully_addressed, gaps and recommended_actions are required

Return ONLY valid JSON, no additional text.`, judgmentRubric, claim.ClaimID, claim.ClaimType, claim.ClaimText, claim.PageNumbers, evidence.String())
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
