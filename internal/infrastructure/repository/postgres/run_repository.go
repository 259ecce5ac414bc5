package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/rebuttal-assistant/internal/core/domain"
)

// RunRepository persists rebuttal runs. Extracted claims and the finished
// report are stored as JSONB alongside the run row.
type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026081502)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS rebuttal_runs (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT,
	claims JSONB,
	report JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rebuttal_runs_status ON rebuttal_runs(status);
CREATE INDEX IF NOT EXISTS idx_rebuttal_runs_created_at ON rebuttal_runs(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *RunRepository) Create(ctx context.Context, run *domain.RebuttalRun) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO rebuttal_runs (
	id, filename, storage_path, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7)
`,
		run.ID, run.Filename, run.StoragePath, string(run.Status), run.Error, run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (r *RunRepository) GetByID(ctx context.Context, id string) (*domain.RebuttalRun, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, storage_path, status, error_message, claims, report, created_at, updated_at
FROM rebuttal_runs
WHERE id = $1
`, id)

	var run domain.RebuttalRun
	var status string
	var claimsRaw, reportRaw []byte

	err := row.Scan(
		&run.ID, &run.Filename, &run.StoragePath, &status, &run.Error,
		&claimsRaw, &reportRaw, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrRunNotFound, "get run", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if len(claimsRaw) > 0 {
		if err := json.Unmarshal(claimsRaw, &run.Claims); err != nil {
			return nil, fmt.Errorf("unmarshal claims: %w", err)
		}
	}
	if len(reportRaw) > 0 {
		if err := json.Unmarshal(reportRaw, &run.Report); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
	}
	run.Status = domain.RunStatus(status)
	return &run, nil
}

func (r *RunRepository) UpdateStatus(ctx context.Context, id string, status domain.RunStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE rebuttal_runs
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	return requireRunUpdated(result, "update run status", id)
}

func (r *RunRepository) SaveClaims(ctx context.Context, id string, claims []domain.Claim) error {
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return fmt.Errorf("marshal claims: %w", err)
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE rebuttal_runs
SET claims = $2, updated_at = $3
WHERE id = $1
`, id, claimsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save claims: %w", err)
	}
	return requireRunUpdated(result, "save claims", id)
}

func (r *RunRepository) SaveReport(ctx context.Context, id string, report *domain.Report) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE rebuttal_runs
SET report = $2, updated_at = $3
WHERE id = $1
`, id, reportJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return requireRunUpdated(result, "save report", id)
}

func requireRunUpdated(result sql.Result, operation, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrRunNotFound, operation, fmt.Errorf("id=%s", id))
	}
	return nil
}
