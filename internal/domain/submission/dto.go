package submission

import "time"

// SubmitRequest is the wire payload for POST /api/v1/submissions.
// ClientRef carries the client's local id and is the idempotency key:
// resubmitting the same ref never creates a second record.
type SubmitRequest struct {
	ClientRef   string            `json:"client_ref"`
	FormID      string            `json:"form_id"`
	CaseID      string            `json:"case_id,omitempty"`
	Data        map[string]any    `json:"data"`
	GPS         *GPSLocation      `json:"gps_location,omitempty"`
	Media       []MediaRef        `json:"media,omitempty"`
	BaseVersion int               `json:"base_version,omitempty"`
	Force       bool              `json:"force,omitempty"`
	SubmittedBy string            `json:"submitted_by,omitempty"`
	DeviceInfo  map[string]string `json:"device_info,omitempty"`
}

// SubmitResponse reports either acceptance (ID set) or a conflict
// (Conflict true plus the current server record).
type SubmitResponse struct {
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	ID           string    `json:"id,omitempty"`
	Conflict     bool      `json:"conflict,omitempty"`
	ServerRecord *Record   `json:"server_record,omitempty"`
	ServerTime   time.Time `json:"server_time,omitempty"`
}

// ListResponse is the diagnostic listing of a user's records.
type ListResponse struct {
	Status  string   `json:"status"`
	Error   string   `json:"error,omitempty"`
	Records []Record `json:"records,omitempty"`
}
