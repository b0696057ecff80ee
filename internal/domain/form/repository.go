package form

import "context"

type Repository interface {
	Get(ctx context.Context, id string) (*Form, error)
	ListByProject(ctx context.Context, projectID string) ([]Form, error)
	Upsert(ctx context.Context, f *Form) error
}
