package submission

import "errors"

var (
	ErrNotFound    = errors.New("submission not found")
	ErrInvalidData = errors.New("invalid submission data")
	ErrVersionGone = errors.New("submission version superseded")
)
