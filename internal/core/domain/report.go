package domain

import (
	"encoding/json"
	"time"
)

// ReportSummary holds derived aggregate statistics for a run.
type ReportSummary struct {
	TotalClaims        int      `json:"total_claims"`
	FullyAddressed     int      `json:"fully_addressed"`
	PartiallyAddressed int      `json:"partially_addressed"`
	NotAddressed       int      `json:"not_addressed"`
	AverageConfidence  float64  `json:"average_confidence"`
	KeyGaps            []string `json:"key_gaps"`
	PriorityActions    []string `json:"priority_actions"`
}

// Report is the finished rebuttal analysis. Markdown and JSONData are both
// rendered from the same claim/analysis set and stay internally consistent.
type Report struct {
	ReportID      string          `json:"report_id"`
	GeneratedAt   time.Time       `json:"generated_at"`
	Summary       ReportSummary   `json:"summary"`
	ClaimAnalyses []ClaimAnalysis `json:"claim_analyses"`
	Markdown      string          `json:"markdown"`
	JSONData      json.RawMessage `json:"json_data"`
}
