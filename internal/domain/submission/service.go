package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"fieldsync/internal/app/server/api/http/middleware/auth"
)

// Servicer is the submission intake service contract.
type Servicer interface {
	// Submit accepts a client submission, deduplicating by client ref
	// and detecting conflicts against newer case state.
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error)

	// Get returns a single record for diagnostics.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns all records of the authenticated user.
	List(ctx context.Context) (ListResponse, error)
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With("component", "submission_service"),
	}
}

// Submit implements the intake protocol:
//  1. a client ref seen before returns the already-assigned id, so a
//     retried request whose response was lost cannot duplicate data;
//  2. a submission against a case whose server version moved past the
//     client's baseline is answered with the current server record
//     instead of being applied, unless Force overrides it;
//  3. everything else is stored as a new version.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, fmt.Errorf("user not authenticated")
	}

	if req.ClientRef == "" {
		return nil, fmt.Errorf("%w: missing client_ref", ErrInvalidData)
	}
	if req.FormID == "" {
		return nil, fmt.Errorf("%w: missing form_id", ErrInvalidData)
	}
	if err := ValidateData(req.Data); err != nil {
		return nil, err
	}

	// Idempotency: a resubmitted ref gets the original id back.
	existing, err := s.repo.FindByClientRef(ctx, userID, req.ClientRef)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lookup client ref: %w", err)
	}
	if existing != nil {
		s.log.Debug("duplicate client ref, returning existing record",
			"client_ref", req.ClientRef, "id", existing.ID)
		return accepted(existing.ID), nil
	}

	version := 1
	if req.CaseID != "" {
		latest, err := s.repo.LatestForCase(ctx, userID, req.FormID, req.CaseID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("lookup case: %w", err)
		}
		if latest != nil {
			if latest.Version > req.BaseVersion && !req.Force && !DataEqual(req.Data, latest.Data) {
				s.log.Info("submission conflicts with newer case state",
					"client_ref", req.ClientRef,
					"case_id", req.CaseID,
					"base_version", req.BaseVersion,
					"server_version", latest.Version)
				return &SubmitResponse{
					Status:       "Ok",
					Conflict:     true,
					ServerRecord: latest,
					ServerTime:   time.Now(),
				}, nil
			}
			version = latest.Version + 1
		}
	}

	rec := &Record{
		UserID:      userID,
		ClientRef:   req.ClientRef,
		FormID:      req.FormID,
		CaseID:      req.CaseID,
		Data:        req.Data,
		Version:     version,
		SubmittedBy: req.SubmittedBy,
	}

	id, err := s.repo.Create(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	return accepted(id), nil
}

func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, fmt.Errorf("user not authenticated")
	}
	return s.repo.Get(ctx, userID, id)
}

func (s *Service) List(ctx context.Context) (ListResponse, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return ListResponse{}, fmt.Errorf("user not authenticated")
	}

	records, err := s.repo.List(ctx, userID)
	if err != nil {
		return ListResponse{}, fmt.Errorf("list records: %w", err)
	}

	return ListResponse{Status: "Ok", Records: records}, nil
}

func accepted(id string) *SubmitResponse {
	return &SubmitResponse{
		Status:     "Ok",
		ID:         id,
		ServerTime: time.Now(),
	}
}
