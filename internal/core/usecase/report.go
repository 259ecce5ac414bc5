package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kirillkom/rebuttal-assistant/internal/core/domain"
)

const summaryListCap = 10

// BuildReport computes summary statistics and renders the machine-readable
// and human-readable reports. Rendering is a pure function of its inputs:
// the same (claims, analyses, generatedAt) always produce identical bytes.
func BuildReport(reportID string, claims []domain.Claim, analyses []domain.ClaimAnalysis, generatedAt time.Time) (*domain.Report, error) {
	summary := buildSummary(analyses)

	jsonData, err := renderJSON(reportID, claims, analyses, summary, generatedAt)
	if err != nil {
		return nil, fmt.Errorf("render json report: %w", err)
	}

	return &domain.Report{
		ReportID:      reportID,
		GeneratedAt:   generatedAt,
		Summary:       summary,
		ClaimAnalyses: analyses,
		Markdown:      renderMarkdown(reportID, claims, analyses, summary, generatedAt),
		JSONData:      jsonData,
	}, nil
}

func buildSummary(analyses []domain.ClaimAnalysis) domain.ReportSummary {
	summary := domain.ReportSummary{
		TotalClaims:     len(analyses),
		KeyGaps:         []string{},
		PriorityActions: []string{},
	}

	confidenceSum := 0
	for _, analysis := range analyses {
		switch analysis.Coverage {
		case domain.CoverageFully:
			summary.FullyAddressed++
		case domain.CoveragePartially:
			summary.PartiallyAddressed++
		default:
			summary.NotAddressed++
		}
		confidenceSum += analysis.Confidence
	}

	if summary.TotalClaims > 0 {
		avg := float64(confidenceSum) / float64(summary.TotalClaims)
		summary.AverageConfidence = math.Round(avg*100) / 100
	}

	summary.KeyGaps = uniqueCapped(analyses, func(a domain.ClaimAnalysis) []string { return a.Gaps })
	summary.PriorityActions = uniqueCapped(analyses, func(a domain.ClaimAnalysis) []string { return a.RecommendedActions })
	return summary
}

// uniqueCapped collects set-unique values across analyses in first-appearance
// order, capped at summaryListCap entries.
func uniqueCapped(analyses []domain.ClaimAnalysis, pick func(domain.ClaimAnalysis) []string) []string {
	out := make([]string, 0, summaryListCap)
	seen := make(map[string]struct{})
	for _, analysis := range analyses {
		for _, value := range pick(analysis) {
			if _, ok := seen[value]; ok {
				continue
			}
			seen[value] = struct{}{}
			out = append(out, value)
			if len(out) == summaryListCap {
				return out
			}
		}
	}
	return out
}

type jsonReport struct {
	ReportID    string                 `json:"report_id"`
	GeneratedAt time.Time              `json:"generated_at"`
	Summary     domain.ReportSummary   `json:"summary"`
	Claims      []domain.Claim         `json:"claims"`
	Analyses    []domain.ClaimAnalysis `json:"analyses"`
}

func renderJSON(reportID string, claims []domain.Claim, analyses []domain.ClaimAnalysis, summary domain.ReportSummary, generatedAt time.Time) (json.RawMessage, error) {
	return json.MarshalIndent(jsonReport{
		ReportID:    reportID,
		GeneratedAt: generatedAt,
		Summary:     summary,
		Claims:      claims,
		Analyses:    analyses,
	}, "", "  ")
}

func renderMarkdown(reportID string, claims []domain.Claim, analyses []domain.ClaimAnalysis, summary domain.ReportSummary, generatedAt time.Time) string {
	var md strings.Builder

	fmt.Fprintf(&md, "# Short Report Rebuttal Analysis\n\n")
	fmt.Fprintf(&md, "**Report ID**: %s  \n", reportID)
	fmt.Fprintf(&md, "**Generated**: %s\n\n---\n\n", generatedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(&md, "## Executive Summary\n\n")
	fmt.Fprintf(&md, "This report analyzes %d claims from the short report and assesses how internal evidence covers each of them.\n\n", summary.TotalClaims)

	fmt.Fprintf(&md, "### Coverage Statistics\n\n")
	fmt.Fprintf(&md, "- **Fully addressed**: %d claims (%s)\n", summary.FullyAddressed, percent(summary.FullyAddressed, summary.TotalClaims))
	fmt.Fprintf(&md, "- **Partially addressed**: %d claims (%s)\n", summary.PartiallyAddressed, percent(summary.PartiallyAddressed, summary.TotalClaims))
	fmt.Fprintf(&md, "- **Not addressed**: %d claims (%s)\n", summary.NotAddressed, percent(summary.NotAddressed, summary.TotalClaims))
	fmt.Fprintf(&md, "- **Average confidence**: %.2f/100\n\n", summary.AverageConfidence)

	if len(summary.KeyGaps) > 0 {
		fmt.Fprintf(&md, "**Key evidence gaps**:\n")
		for _, gap := range summary.KeyGaps {
			fmt.Fprintf(&md, "- %s\n", gap)
		}
		md.WriteString("\n")
	}
	if len(summary.PriorityActions) > 0 {
		fmt.Fprintf(&md, "**Priority actions**:\n")
		for _, action := range summary.PriorityActions {
			fmt.Fprintf(&md, "- %s\n", action)
		}
		md.WriteString("\n")
	}

	md.WriteString("---\n\n## Detailed Analysis\n\n")

	claimIndex := make(map[string]domain.Claim, len(claims))
	for _, claim := range claims {
		claimIndex[claim.ClaimID] = claim
	}

	renderCoverageSection(&md, "### Fully Addressed Claims", domain.CoverageFully, analyses, claimIndex)
	renderCoverageSection(&md, "### Partially Addressed Claims", domain.CoveragePartially, analyses, claimIndex)
	renderCoverageSection(&md, "### Unaddressed Claims", domain.CoverageNot, analyses, claimIndex)

	md.WriteString("\n## Appendix\n\n")
	md.WriteString("This report was generated automatically by the rebuttal assistant.\n")
	md.WriteString("A professional analyst should review it before use.\n")

	return md.String()
}

func renderCoverageSection(md *strings.Builder, heading string, coverage domain.Coverage, analyses []domain.ClaimAnalysis, claims map[string]domain.Claim) {
	first := true
	for _, analysis := range analyses {
		if analysis.Coverage != coverage {
			continue
		}
		if first {
			fmt.Fprintf(md, "%s\n\n", heading)
			first = false
		}
		renderAnalysis(md, analysis, claims)
	}
}

func renderAnalysis(md *strings.Builder, analysis domain.ClaimAnalysis, claims map[string]domain.Claim) {
	claim, ok := claims[analysis.ClaimID]
	claimText := "Unknown"
	claimType := "Unknown"
	pages := "N/A"
	if ok {
		claimText = claim.ClaimText
		claimType = string(claim.ClaimType)
		pages = joinPages(claim.PageNumbers)
	}

	fmt.Fprintf(md, "#### %s: %s\n\n", analysis.ClaimID, claimText)
	fmt.Fprintf(md, "**Type**: %s | **Pages**: %s\n\n", claimType, pages)
	fmt.Fprintf(md, "**Analysis**:\n%s\n\n", analysis.Reasoning)
	fmt.Fprintf(md, "**Confidence**: %d/100\n\n", analysis.Confidence)

	if len(analysis.Citations) > 0 {
		md.WriteString("**Citations**:\n")
		for i, cit := range analysis.Citations {
			fmt.Fprintf(md, "%d. %s (chunk: %s)\n", i+1, cit.DocTitle, cit.ChunkID)
			fmt.Fprintf(md, "   > %s...\n\n", truncateRunes(cit.Quote, 200))
		}
	}
	if len(analysis.Gaps) > 0 {
		md.WriteString("**Evidence gaps**:\n")
		for _, gap := range analysis.Gaps {
			fmt.Fprintf(md, "- %s\n", gap)
		}
		md.WriteString("\n")
	}
	if len(analysis.RecommendedActions) > 0 {
		md.WriteString("**Recommended actions**:\n")
		for _, action := range analysis.RecommendedActions {
			fmt.Fprintf(md, "- %s\n", action)
		}
		md.WriteString("\n")
	}
	md.WriteString("---\n\n")
}

func percent(part, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(total)*100)
}

func joinPages(pages []int) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		parts = append(parts, fmt.Sprintf("%d", p))
	}
	return strings.Join(parts, ", ")
}
