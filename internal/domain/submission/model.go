package submission

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a locally captured submission.
// Legal transitions: pending -> syncing -> {synced | conflict |
// failed | rejected}; failed -> syncing on retry; conflict -> syncing
// after resolution. Rejected records (permanently refused by the
// server) leave the retry queue and can only be deleted.
type Status string

const (
	StatusPending  Status = "pending"
	StatusSyncing  Status = "syncing"
	StatusSynced   Status = "synced"
	StatusConflict Status = "conflict"
	StatusFailed   Status = "failed"
	StatusRejected Status = "rejected"
)

// SyncEligible reports whether a record in this status belongs to the
// pending queue (is still waiting to reach the server).
func (s Status) SyncEligible() bool {
	return s == StatusPending || s == StatusFailed || s == StatusConflict
}

// CanTransition reports whether moving from s to next is a legal
// lifecycle transition.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending, StatusFailed, StatusConflict:
		return next == StatusSyncing
	case StatusSyncing:
		return next == StatusSynced || next == StatusConflict ||
			next == StatusFailed || next == StatusRejected
	case StatusSynced, StatusRejected:
		return false
	}
	return false
}

// GPSLocation is an optional capture-time coordinate pair.
type GPSLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// MediaRef points at a binary blob stored alongside a submission.
type MediaRef struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"` // audio, image
	Name     string            `json:"name,omitempty"`
	Size     int64             `json:"size,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Submission is a locally captured record waiting to be confirmed by
// the server. LocalID is assigned at capture time and doubles as the
// idempotency key on submit.
type Submission struct {
	LocalID     string            `json:"local_id"`
	ServerID    string            `json:"server_id,omitempty"`
	FormID      string            `json:"form_id"`
	CaseID      string            `json:"case_id,omitempty"`
	Data        map[string]any    `json:"data"`
	GPS         *GPSLocation      `json:"gps_location,omitempty"`
	Media       []MediaRef        `json:"media,omitempty"`
	Status      Status            `json:"status"`
	BaseVersion int               `json:"base_version"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	SubmittedBy string            `json:"submitted_by,omitempty"`
	DeviceInfo  map[string]string `json:"device_info,omitempty"`
}

// Record is the server-side authoritative state of a submission.
type Record struct {
	ID          string         `json:"id"`
	UserID      int            `json:"user_id,omitempty"`
	ClientRef   string         `json:"client_ref"`
	FormID      string         `json:"form_id"`
	CaseID      string         `json:"case_id,omitempty"`
	Data        map[string]any `json:"data"`
	Version     int            `json:"version"`
	SubmittedBy string         `json:"submitted_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Conflict pairs a local submission with the server record that
// rejected it. Transient: lives in the sync session's manual queue
// until resolved.
type Conflict struct {
	LocalID    string     `json:"local_id"`
	Local      Submission `json:"local"`
	Server     Record     `json:"server"`
	DetectedAt time.Time  `json:"detected_at"`
}

// StorageEstimate is a best-effort usage snapshot of the local store.
type StorageEstimate struct {
	Usage        int64   `json:"usage"`
	Quota        int64   `json:"quota"`
	UsagePercent float64 `json:"usage_percent"`
}

// ValidateData checks that an answer map only holds the closed set of
// value shapes the wire format supports: strings, numbers, booleans,
// arrays, nested objects and media references. JSON decoding produces
// exactly these, so the check matters mostly for programmatic capture.
func ValidateData(data map[string]any) error {
	for key, value := range data {
		if key == "" {
			return fmt.Errorf("%w: empty question key", ErrInvalidData)
		}
		if err := validateAnswer(key, value); err != nil {
			return err
		}
	}
	return nil
}

func validateAnswer(key string, value any) error {
	switch v := value.(type) {
	case nil, string, bool,
		float64, float32, int, int32, int64:
		return nil
	case []any:
		for _, item := range v {
			if err := validateAnswer(key, item); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		return ValidateData(v)
	case MediaRef, *MediaRef:
		return nil
	default:
		return fmt.Errorf("%w: question %q has unsupported value type %T", ErrInvalidData, key, value)
	}
}

// DataEqual compares two answer maps for conflict detection. Keys in
// ignore are informational and never count as a difference.
func DataEqual(a, b map[string]any, ignore ...string) bool {
	skip := make(map[string]bool, len(ignore))
	for _, k := range ignore {
		skip[k] = true
	}

	for k, av := range a {
		if skip[k] {
			continue
		}
		bv, ok := b[k]
		if !ok || !answerEqual(av, bv) {
			return false
		}
	}
	for k := range b {
		if skip[k] {
			continue
		}
		if _, ok := a[k]; !ok {
			return false
		}
	}
	return true
}

func answerEqual(a, b any) bool {
	switch av := a.(type) {
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !answerEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok {
			return false
		}
		return DataEqual(av, bv)
	default:
		return a == b
	}
}
