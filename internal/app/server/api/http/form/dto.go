package form

import "fieldsync/internal/domain/form"

type getInput struct {
	ID string `path:"id" doc:"Form id"`
}

type getOutput struct {
	Body form.GetResponse
}

type listInput struct {
	ProjectID string `query:"project_id" doc:"Filter by project"`
}

type listOutput struct {
	Body form.ListResponse
}

type upsertInput struct {
	Body form.UpsertRequest
}

type upsertOutput struct {
	Body form.UpsertResponse
}
