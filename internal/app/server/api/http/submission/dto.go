package submission

import "fieldsync/internal/domain/submission"

type submitInput struct {
	Body submission.SubmitRequest
}

type submitOutput struct {
	Body submission.SubmitResponse
}

type listOutput struct {
	Body submission.ListResponse
}

type getInput struct {
	ID string `path:"id" doc:"Server-side record id"`
}

type getOutput struct {
	Body getResponse
}

type getResponse struct {
	Status string             `json:"status"`
	Error  string             `json:"error,omitempty"`
	Record *submission.Record `json:"record,omitempty"`
}
