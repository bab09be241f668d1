package comment

import (
	"context"

	"hayoungplace/domain"
	"hayoungplace/pkg/httperror"
)

type GetCommentsResponse = domain.Page[View]

type GetCommentsHandler struct {
	service *Service
}

func NewGetCommentsHandler(service *Service) *GetCommentsHandler {
	return &GetCommentsHandler{
		service: service,
	}
}

type GetCommentsRequest struct {
	PlaceID string `params:"placeId" json:"-"`
	Page    int    `query:"page" json:"-" validate:"gte=0"`
	Size    int    `query:"size" json:"-" validate:"gte=0"`
}

func (h *GetCommentsHandler) Handle(ctx context.Context, req *GetCommentsRequest) (*GetCommentsResponse, error) {
	if err := httperror.Validate(req, "comment.index"); err != nil {
		return nil, err
	}

	page, err := h.service.List(ctx, req.PlaceID, domain.NewPageRequest(req.Page, req.Size, DefaultPageSize))
	if err != nil {
		return nil, err
	}

	return &page, nil
}

type CountCommentsHandler struct {
	service *Service
}

func NewCountCommentsHandler(service *Service) *CountCommentsHandler {
	return &CountCommentsHandler{
		service: service,
	}
}

type CountCommentsRequest struct {
	PlaceID string `params:"placeId" json:"-"`
}

type CountCommentsResponse struct {
	Count int64 `json:"count"`
}

func (h *CountCommentsHandler) Handle(ctx context.Context, req *CountCommentsRequest) (*CountCommentsResponse, error) {
	count, err := h.service.Count(ctx, req.PlaceID)
	if err != nil {
		return nil, err
	}

	return &CountCommentsResponse{Count: count}, nil
}
