package place

import (
	"context"

	"hayoungplace/domain"
)

// GetPlaceHandler returns one place and counts the visit.
type GetPlaceHandler struct {
	service *Service
}

func NewGetPlaceHandler(service *Service) *GetPlaceHandler {
	return &GetPlaceHandler{
		service: service,
	}
}

type GetPlaceRequest struct {
	ID string `params:"id" json:"-"`
}

type GetPlaceResponse struct {
	domain.Place
}

func (h *GetPlaceHandler) Handle(ctx context.Context, req *GetPlaceRequest) (*GetPlaceResponse, error) {
	place, err := h.service.IncrementViewCount(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	return &GetPlaceResponse{Place: place}, nil
}
