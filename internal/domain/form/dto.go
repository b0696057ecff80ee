package form

// GetResponse wraps a single form fetch.
type GetResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Form   *Form  `json:"form,omitempty"`
}

// ListResponse wraps a project form listing.
type ListResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Forms  []Form `json:"forms,omitempty"`
}

// UpsertRequest publishes or updates a form schema.
type UpsertRequest struct {
	Form Form `json:"form"`
}

// UpsertResponse reports the stored form version.
type UpsertResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Version int    `json:"version,omitempty"`
}
