package submission

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) submitOp() huma.Operation {
	return huma.Operation{
		OperationID: "submissions-submit",
		Method:      http.MethodPost,
		Path:        "/api/v1/submissions",
		Summary:     "Submit a captured record",
		Description: "Accepts a client submission. Resubmitting the same client_ref returns the original id. A submission against newer case state answers with conflict=true and the current server record.",
		Tags:        []string{"submissions"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "submissions-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/submissions",
		Summary:     "List the caller's records",
		Tags:        []string{"submissions"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) getOp() huma.Operation {
	return huma.Operation{
		OperationID: "submissions-get",
		Method:      http.MethodGet,
		Path:        "/api/v1/submissions/{id}",
		Summary:     "Fetch one record",
		Tags:        []string{"submissions"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}
