package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"fieldsync/internal/domain/submission"
)

type SubmissionRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewSubmissionRepository(pool *pgxpool.Pool, log *slog.Logger) *SubmissionRepository {
	return &SubmissionRepository{
		pool: pool,
		log:  log.With("component", "submission_repository"),
	}
}

func (r *SubmissionRepository) FindByClientRef(ctx context.Context, userID int, clientRef string) (*submission.Record, error) {
	const query = `
		SELECT id, user_id, client_ref, form_id, case_id, data, version,
		       submitted_by, created_at, updated_at
		FROM submissions
		WHERE user_id = $1 AND client_ref = $2`

	row := r.pool.QueryRow(ctx, query, userID, clientRef)
	rec, err := r.scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, submission.ErrNotFound
		}
		r.log.Error("failed to find by client ref",
			"user_id", userID, "client_ref", clientRef, "error", err)
		return nil, fmt.Errorf("find by client ref: %w", err)
	}
	return rec, nil
}

// LatestForCase returns the highest-versioned record of a case. Used
// by the intake protocol to detect stale client baselines.
func (r *SubmissionRepository) LatestForCase(ctx context.Context, userID int, formID, caseID string) (*submission.Record, error) {
	const query = `
		SELECT id, user_id, client_ref, form_id, case_id, data, version,
		       submitted_by, created_at, updated_at
		FROM submissions
		WHERE user_id = $1 AND form_id = $2 AND case_id = $3
		ORDER BY version DESC
		LIMIT 1`

	row := r.pool.QueryRow(ctx, query, userID, formID, caseID)
	rec, err := r.scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, submission.ErrNotFound
		}
		r.log.Error("failed to get latest for case",
			"user_id", userID, "form_id", formID, "case_id", caseID, "error", err)
		return nil, fmt.Errorf("latest for case: %w", err)
	}
	return rec, nil
}

func (r *SubmissionRepository) Create(ctx context.Context, rec *submission.Record) (string, error) {
	const query = `
		INSERT INTO submissions (user_id, client_ref, form_id, case_id, data, version, submitted_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		rec.UserID, rec.ClientRef, rec.FormID, nullString(rec.CaseID),
		rec.Data, rec.Version, rec.SubmittedBy,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		r.log.Error("failed to create submission",
			"user_id", rec.UserID, "client_ref", rec.ClientRef, "error", err)
		return "", fmt.Errorf("create submission: %w", err)
	}

	return rec.ID, nil
}

func (r *SubmissionRepository) Update(ctx context.Context, rec *submission.Record) error {
	const query = `
		UPDATE submissions
		SET data = $1, version = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4`

	result, err := r.pool.Exec(ctx, query, rec.Data, rec.Version, rec.ID, rec.UserID)
	if err != nil {
		r.log.Error("failed to update submission",
			"id", rec.ID, "user_id", rec.UserID, "error", err)
		return fmt.Errorf("update submission: %w", err)
	}
	if result.RowsAffected() == 0 {
		return submission.ErrNotFound
	}
	return nil
}

func (r *SubmissionRepository) Get(ctx context.Context, userID int, id string) (*submission.Record, error) {
	const query = `
		SELECT id, user_id, client_ref, form_id, case_id, data, version,
		       submitted_by, created_at, updated_at
		FROM submissions
		WHERE id = $1 AND user_id = $2`

	row := r.pool.QueryRow(ctx, query, id, userID)
	rec, err := r.scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, submission.ErrNotFound
		}
		r.log.Error("failed to get submission",
			"id", id, "user_id", userID, "error", err)
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return rec, nil
}

func (r *SubmissionRepository) List(ctx context.Context, userID int) ([]submission.Record, error) {
	const query = `
		SELECT id, user_id, client_ref, form_id, case_id, data, version,
		       submitted_by, created_at, updated_at
		FROM submissions
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("failed to list submissions", "user_id", userID, "error", err)
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var records []submission.Record
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (r *SubmissionRepository) scanRecord(row interface {
	Scan(dest ...interface{}) error
}) (*submission.Record, error) {
	var rec submission.Record
	var caseID, submittedBy *string

	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.ClientRef, &rec.FormID, &caseID,
		&rec.Data, &rec.Version, &submittedBy, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if caseID != nil {
		rec.CaseID = *caseID
	}
	if submittedBy != nil {
		rec.SubmittedBy = *submittedBy
	}
	return &rec, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
