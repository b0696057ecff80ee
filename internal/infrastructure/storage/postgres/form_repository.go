package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"fieldsync/internal/domain/form"
)

type FormRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewFormRepository(pool *pgxpool.Pool, log *slog.Logger) *FormRepository {
	return &FormRepository{
		pool: pool,
		log:  log.With("component", "form_repository"),
	}
}

func (r *FormRepository) Get(ctx context.Context, id string) (*form.Form, error) {
	const query = `
		SELECT id, project_id, title, version, questions, updated_at
		FROM forms
		WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	f, err := r.scanForm(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, form.ErrNotFound
		}
		r.log.Error("failed to get form", "id", id, "error", err)
		return nil, fmt.Errorf("get form: %w", err)
	}
	return f, nil
}

func (r *FormRepository) ListByProject(ctx context.Context, projectID string) ([]form.Form, error) {
	query := `
		SELECT id, project_id, title, version, questions, updated_at
		FROM forms`
	args := []interface{}{}
	if projectID != "" {
		query += ` WHERE project_id = $1`
		args = append(args, projectID)
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to list forms", "project_id", projectID, "error", err)
		return nil, fmt.Errorf("list forms: %w", err)
	}
	defer rows.Close()

	var forms []form.Form
	for rows.Next() {
		f, err := r.scanForm(rows)
		if err != nil {
			return nil, fmt.Errorf("scan form: %w", err)
		}
		forms = append(forms, *f)
	}
	return forms, rows.Err()
}

func (r *FormRepository) Upsert(ctx context.Context, f *form.Form) error {
	const query = `
		INSERT INTO forms (id, project_id, title, version, questions, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			project_id = EXCLUDED.project_id,
			title = EXCLUDED.title,
			version = EXCLUDED.version,
			questions = EXCLUDED.questions,
			updated_at = NOW()
		RETURNING updated_at`

	questions, err := json.Marshal(f.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	err = r.pool.QueryRow(ctx, query,
		f.ID, f.ProjectID, f.Title, f.Version, questions,
	).Scan(&f.UpdatedAt)
	if err != nil {
		r.log.Error("failed to upsert form", "id", f.ID, "error", err)
		return fmt.Errorf("upsert form: %w", err)
	}
	return nil
}

func (r *FormRepository) scanForm(row interface {
	Scan(dest ...interface{}) error
}) (*form.Form, error) {
	var f form.Form
	var questions []byte

	err := row.Scan(&f.ID, &f.ProjectID, &f.Title, &f.Version, &questions, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(questions, &f.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	return &f, nil
}
