package submission

import "context"

// Repository is the server-side persistence contract for submissions.
type Repository interface {
	// FindByClientRef returns the record previously created for this
	// user and client ref, or ErrNotFound.
	FindByClientRef(ctx context.Context, userID int, clientRef string) (*Record, error)

	// LatestForCase returns the newest record for a case within a form,
	// or ErrNotFound when the case has no submissions yet.
	LatestForCase(ctx context.Context, userID int, formID, caseID string) (*Record, error)

	Create(ctx context.Context, rec *Record) (string, error)
	Update(ctx context.Context, rec *Record) error
	Get(ctx context.Context, userID int, id string) (*Record, error)
	List(ctx context.Context, userID int) ([]Record, error)
}
