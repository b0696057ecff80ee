package form

import (
	"context"
	"fmt"

	"golang.org/x/exp/slog"
)

type Servicer interface {
	Get(ctx context.Context, id string) (*Form, error)
	ListByProject(ctx context.Context, projectID string) ([]Form, error)
	Upsert(ctx context.Context, f Form) (int, error)
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With("component", "form_service"),
	}
}

func (s *Service) Get(ctx context.Context, id string) (*Form, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: missing form id", ErrInvalidForm)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByProject(ctx context.Context, projectID string) ([]Form, error) {
	return s.repo.ListByProject(ctx, projectID)
}

// Upsert stores a form schema, bumping its version past whatever is
// already published under the same id.
func (s *Service) Upsert(ctx context.Context, f Form) (int, error) {
	if f.ID == "" {
		return 0, fmt.Errorf("%w: missing form id", ErrInvalidForm)
	}
	if len(f.Questions) == 0 {
		return 0, fmt.Errorf("%w: form has no questions", ErrInvalidForm)
	}
	seen := make(map[string]bool, len(f.Questions))
	for _, q := range f.Questions {
		if q.Key == "" {
			return 0, fmt.Errorf("%w: question with empty key", ErrInvalidForm)
		}
		if seen[q.Key] {
			return 0, fmt.Errorf("%w: duplicate question key %q", ErrInvalidForm, q.Key)
		}
		seen[q.Key] = true
	}

	existing, err := s.repo.Get(ctx, f.ID)
	if err == nil && existing != nil {
		f.Version = existing.Version + 1
	} else if f.Version == 0 {
		f.Version = 1
	}

	if err := s.repo.Upsert(ctx, &f); err != nil {
		return 0, fmt.Errorf("upsert form: %w", err)
	}

	s.log.Info("form published", "form_id", f.ID, "version", f.Version)
	return f.Version, nil
}
