package form

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) getOp() huma.Operation {
	return huma.Operation{
		OperationID: "forms-get",
		Method:      http.MethodGet,
		Path:        "/api/v1/forms/{id}",
		Summary:     "Fetch one form schema",
		Tags:        []string{"forms"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "forms-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/forms",
		Summary:     "List form schemas",
		Tags:        []string{"forms"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) upsertOp() huma.Operation {
	return huma.Operation{
		OperationID: "forms-upsert",
		Method:      http.MethodPut,
		Path:        "/api/v1/forms",
		Summary:     "Publish or update a form schema",
		Description: "Publishing under an existing id bumps the stored version.",
		Tags:        []string{"forms"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}
