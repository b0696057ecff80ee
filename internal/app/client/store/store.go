package store

import (
	"errors"

	"fieldsync/internal/domain/form"
	"fieldsync/internal/domain/submission"
)

var (
	// ErrQuotaExceeded is returned when a save would push local usage
	// past the configured quota. The caller decides what to do; the
	// store never retries or drops data on its own.
	ErrQuotaExceeded = errors.New("local storage quota exceeded")
)

// MediaBlob is a binary attachment captured with a submission.
type MediaBlob struct {
	Type     string
	Name     string
	Blob     []byte
	Metadata map[string]string
}

// SubmissionPayload is the capture-time input to SaveSubmission. The
// store assigns the local id and the pending status.
type SubmissionPayload struct {
	FormID      string
	CaseID      string
	Data        map[string]any
	GPS         *submission.GPSLocation
	Media       []MediaBlob
	SubmittedBy string
	DeviceInfo  map[string]string
}

// Patch is a partial submission update. Nil fields are left untouched.
type Patch struct {
	Status      *submission.Status
	ServerID    *string
	Data        map[string]any
	BaseVersion *int
}

// Store is the durable client-side record store. It exclusively owns
// persistence of submissions, cached forms and media blobs.
type Store interface {
	SaveSubmission(payload SubmissionPayload) (string, error)
	GetSubmission(localID string) (*submission.Submission, error)

	// GetPendingSubmissions returns every record still waiting to reach
	// the server (pending, failed or conflict), oldest capture first.
	GetPendingSubmissions() ([]*submission.Submission, error)

	UpdateSubmission(localID string, patch Patch) error

	// DeleteSubmission removes a record and its media. Records that are
	// syncing or already synced are left alone.
	DeleteSubmission(localID string) error

	SaveForm(f *form.Form) error
	GetForm(formID string) (*form.Form, error)
	GetFormsByProject(projectID string) ([]*form.Form, error)
	GetAllForms() ([]*form.Form, error)

	SaveMedia(mediaID, ownerLocalID, mediaType string, blob []byte, metadata map[string]string) error
	GetMedia(mediaID string) ([]byte, error)

	GetPendingCount() (int, error)

	// GetStorageEstimate is best effort: a nil estimate means unknown,
	// not empty.
	GetStorageEstimate() (*submission.StorageEstimate, error)

	Close() error
}
