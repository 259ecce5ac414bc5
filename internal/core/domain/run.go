package domain

import "time"

type RunStatus string

const (
	RunUploaded   RunStatus = "uploaded"
	RunProcessing RunStatus = "processing"
	RunReady      RunStatus = "ready"
	RunFailed     RunStatus = "failed"
)

// RebuttalRun tracks one end-to-end analysis of an uploaded short report.
// Claims are populated after extraction, Report after aggregation.
type RebuttalRun struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	StoragePath string    `json:"storage_path"`
	Status      RunStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	Claims      []Claim   `json:"claims,omitempty"`
	Report      *Report   `json:"report,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ClaimFailure records a per-claim service failure surfaced by a run. The
// claim still receives a degraded analysis so report cardinality holds.
type ClaimFailure struct {
	ClaimID string
	Err     error
}

// RunResult pairs the finished report with any per-claim failures.
type RunResult struct {
	Report   *Report
	Failures []ClaimFailure
}
