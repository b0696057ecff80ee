package form

import "time"

// Form is a survey schema snapshot. The server copy is authoritative;
// clients cache whole forms for offline rendering and overwrite the
// cache on every successful fetch.
type Form struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id"`
	Title     string     `json:"title"`
	Version   int        `json:"version"`
	Questions []Question `json:"questions"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Question is a single item in a form schema.
type Question struct {
	Key      string   `json:"key"`
	Type     string   `json:"type"` // text, number, boolean, select, media
	Label    string   `json:"label"`
	Required bool     `json:"required,omitempty"`
	Options  []string `json:"options,omitempty"`
}
