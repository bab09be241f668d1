package party

import (
	"context"

	"hayoungplace/domain"
	"hayoungplace/pkg/httperror"
)

type GetPartiesResponse = domain.Page[View]

type GetPartiesHandler struct {
	service *Service
}

func NewGetPartiesHandler(service *Service) *GetPartiesHandler {
	return &GetPartiesHandler{
		service: service,
	}
}

type GetPartiesRequest struct {
	Page int `query:"page" json:"-" validate:"gte=0"`
	Size int `query:"size" json:"-" validate:"gte=0"`
}

func (h *GetPartiesHandler) Handle(ctx context.Context, req *GetPartiesRequest) (*GetPartiesResponse, error) {
	if err := httperror.Validate(req, "party.index"); err != nil {
		return nil, err
	}

	page, err := h.service.List(ctx, domain.NewPageRequest(req.Page, req.Size, DefaultPageSize))
	if err != nil {
		return nil, err
	}

	return &page, nil
}

type GetPartyHandler struct {
	service *Service
}

func NewGetPartyHandler(service *Service) *GetPartyHandler {
	return &GetPartyHandler{
		service: service,
	}
}

type GetPartyRequest struct {
	ID string `params:"id" json:"-"`
}

type GetPartyResponse struct {
	View
}

func (h *GetPartyHandler) Handle(ctx context.Context, req *GetPartyRequest) (*GetPartyResponse, error) {
	view, err := h.service.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	return &GetPartyResponse{View: view}, nil
}
