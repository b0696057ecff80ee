package form

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"fieldsync/internal/domain/form"
)

type Handler struct {
	service    form.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service form.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.getOp(), h.get)
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.upsertOp(), h.upsert)
}

func (h *Handler) get(ctx context.Context, input *getInput) (*getOutput, error) {
	f, err := h.service.Get(ctx, input.ID)
	if err != nil {
		if errors.Is(err, form.ErrNotFound) {
			return nil, huma.Error404NotFound("form not found")
		}
		return nil, err
	}

	return &getOutput{
		Body: form.GetResponse{Status: "Ok", Form: f},
	}, nil
}

func (h *Handler) list(ctx context.Context, input *listInput) (*listOutput, error) {
	forms, err := h.service.ListByProject(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}

	return &listOutput{
		Body: form.ListResponse{Status: "Ok", Forms: forms},
	}, nil
}

func (h *Handler) upsert(ctx context.Context, input *upsertInput) (*upsertOutput, error) {
	version, err := h.service.Upsert(ctx, input.Body.Form)
	if err != nil {
		if errors.Is(err, form.ErrInvalidForm) {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return nil, err
	}

	return &upsertOutput{
		Body: form.UpsertResponse{Status: "Ok", Version: version},
	}, nil
}
