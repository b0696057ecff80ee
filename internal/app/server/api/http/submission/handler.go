package submission

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"fieldsync/internal/domain/submission"
)

type Handler struct {
	service    submission.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service submission.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.submitOp(), h.submit)
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.getOp(), h.get)
}

// submit answers 200 for both acceptance and conflict; the body tells
// the client which one it got.
func (h *Handler) submit(ctx context.Context, input *submitInput) (*submitOutput, error) {
	resp, err := h.service.Submit(ctx, input.Body)
	if err != nil {
		if errors.Is(err, submission.ErrInvalidData) {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return nil, err
	}

	return &submitOutput{Body: *resp}, nil
}

func (h *Handler) list(ctx context.Context, _ *struct{}) (*listOutput, error) {
	resp, err := h.service.List(ctx)
	if err != nil {
		return nil, err
	}
	return &listOutput{Body: resp}, nil
}

func (h *Handler) get(ctx context.Context, input *getInput) (*getOutput, error) {
	rec, err := h.service.Get(ctx, input.ID)
	if err != nil {
		if errors.Is(err, submission.ErrNotFound) {
			return nil, huma.Error404NotFound("record not found")
		}
		return nil, err
	}

	return &getOutput{
		Body: getResponse{Status: "Ok", Record: rec},
	}, nil
}
