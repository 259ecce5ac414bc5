package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/rebuttal-assistant/internal/core/domain"
)

func reportFixture() ([]domain.Claim, []domain.ClaimAnalysis) {
	claims := []domain.Claim{
		{ClaimID: "C001", ClaimText: "Revenue is inflated.", PageNumbers: []int{1}, ClaimType: domain.ClaimAccounting},
		{ClaimID: "C002", ClaimText: "Loans to related parties are undisclosed.", PageNumbers: []int{2}, ClaimType: domain.ClaimRelatedParty},
		{ClaimID: "C003", ClaimText: "Active user counts are redefined each quarter.", PageNumbers: []int{3}, ClaimType: domain.ClaimMetrics},
	}
	analyses := []domain.ClaimAnalysis{
		{
			ClaimID:    "C001",
			Coverage:   domain.CoverageFully,
			Reasoning:  "• The audit confirmed revenue recognition.",
			Citations:  []domain.Citation{{DocID: "doc-1", DocTitle: "FY24 Audit Report", ChunkID: "doc-1_chunk_0", Quote: "Revenue was confirmed."}},
			Confidence: 90,
		},
		{
			ClaimID:            "C002",
			Coverage:           domain.CoveragePartially,
			Reasoning:          "• Loan terms are documented, counterparty ownership is not.",
			Citations:          []domain.Citation{{DocID: "doc-2", DocTitle: "Loan Register", ChunkID: "doc-2_chunk_1", Quote: "Loan schedule attached."}},
			Confidence:         60,
			Gaps:               []string{"Counterparty ownership records"},
			RecommendedActions: []string{"Request the shareholder register"},
		},
		{
			ClaimID:            "C003",
			Coverage:           domain.CoverageNot,
			Reasoning:          "• No internal definition history was found.",
			Citations:          []domain.Citation{},
			Confidence:         10,
			Gaps:               []string{"Metric definition history", "Counterparty ownership records"},
			RecommendedActions: []string{"Collect product analytics documentation"},
		},
	}
	return claims, analyses
}

func TestBuildReportSummary(t *testing.T) {
	claims, analyses := reportFixture()
	generatedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	report, err := BuildReport("run-1", claims, analyses, generatedAt)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	s := report.Summary
	if s.TotalClaims != 3 || s.FullyAddressed != 1 || s.PartiallyAddressed != 1 || s.NotAddressed != 1 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if s.FullyAddressed+s.PartiallyAddressed+s.NotAddressed != s.TotalClaims {
		t.Fatalf("counts must sum to total: %+v", s)
	}
	// (90 + 60 + 10) / 3 = 53.33 rounded to two decimals.
	if s.AverageConfidence != 53.33 {
		t.Fatalf("unexpected average confidence %v", s.AverageConfidence)
	}
	// Duplicate gap appears once, in first-appearance order.
	wantGaps := []string{"Counterparty ownership records", "Metric definition history"}
	if len(s.KeyGaps) != len(wantGaps) || s.KeyGaps[0] != wantGaps[0] || s.KeyGaps[1] != wantGaps[1] {
		t.Fatalf("unexpected key gaps: %v", s.KeyGaps)
	}
	if len(report.ClaimAnalyses) != len(claims) {
		t.Fatalf("report must cover every claim: %d analyses for %d claims", len(report.ClaimAnalyses), len(claims))
	}
}

func TestBuildReportSummaryListCap(t *testing.T) {
	analyses := make([]domain.ClaimAnalysis, 15)
	for i := range analyses {
		analyses[i] = domain.ClaimAnalysis{
			ClaimID:  fmt.Sprintf("C%03d", i+1),
			Coverage: domain.CoverageNot,
			Gaps:     []string{fmt.Sprintf("gap %d", i)},
		}
	}

	report, err := BuildReport("run-1", nil, analyses, time.Now().UTC())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if len(report.Summary.KeyGaps) != summaryListCap {
		t.Fatalf("expected key gaps capped at %d, got %d", summaryListCap, len(report.Summary.KeyGaps))
	}
	if report.Summary.KeyGaps[0] != "gap 0" {
		t.Fatalf("cap must keep first appearances, got %v", report.Summary.KeyGaps)
	}
}

func TestBuildReportIsDeterministic(t *testing.T) {
	claims, analyses := reportFixture()
	generatedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	first, err := BuildReport("run-1", claims, analyses, generatedAt)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	second, err := BuildReport("run-1", claims, analyses, generatedAt)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	if first.Markdown != second.Markdown {
		t.Fatal("markdown rendering is not deterministic")
	}
	if !bytes.Equal(first.JSONData, second.JSONData) {
		t.Fatal("json rendering is not deterministic")
	}
}

func TestBuildReportJSONShape(t *testing.T) {
	claims, analyses := reportFixture()
	report, err := BuildReport("run-1", claims, analyses, time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	var decoded struct {
		ReportID string                 `json:"report_id"`
		Summary  domain.ReportSummary   `json:"summary"`
		Claims   []domain.Claim         `json:"claims"`
		Analyses []domain.ClaimAnalysis `json:"analyses"`
	}
	if err := json.Unmarshal(report.JSONData, &decoded); err != nil {
		t.Fatalf("decode json report: %v", err)
	}
	if decoded.ReportID != "run-1" {
		t.Fatalf("unexpected report id %q", decoded.ReportID)
	}
	if len(decoded.Claims) != 3 || len(decoded.Analyses) != 3 {
		t.Fatalf("unexpected cardinality: %d claims, %d analyses", len(decoded.Claims), len(decoded.Analyses))
	}
	if decoded.Summary.TotalClaims != report.Summary.TotalClaims {
		t.Fatal("embedded summary drifted from the report summary")
	}
}

func TestBuildReportMarkdownSections(t *testing.T) {
	claims, analyses := reportFixture()
	report, err := BuildReport("run-1", claims, analyses, time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	md := report.Markdown
	for _, want := range []string{
		"# Short Report Rebuttal Analysis",
		"**Report ID**: run-1",
		"**Generated**: 2026-03-14 09:30:00",
		"### Coverage Statistics",
		"### Fully Addressed Claims",
		"### Partially Addressed Claims",
		"### Unaddressed Claims",
		"#### C001: Revenue is inflated.",
		"FY24 Audit Report (chunk: doc-1_chunk_0)",
		"- **Fully addressed**: 1 claims (33.3%)",
		"## Appendix",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestBuildReportEmptyAnalyses(t *testing.T) {
	report, err := BuildReport("run-1", nil, nil, time.Now().UTC())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if report.Summary.TotalClaims != 0 || report.Summary.AverageConfidence != 0 {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}
	if !strings.Contains(report.Markdown, "(0.0%)") {
		t.Fatal("zero totals must render as 0.0%")
	}
}
