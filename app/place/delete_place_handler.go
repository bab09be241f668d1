package place

import (
	"context"

	"hayoungplace/pkg/httperror"
)

type DeletePlaceHandler struct {
	service *Service
}

func NewDeletePlaceHandler(service *Service) *DeletePlaceHandler {
	return &DeletePlaceHandler{
		service: service,
	}
}

type DeletePlaceRequest struct {
	ID       string `params:"id" json:"-"`
	Password string `json:"password" validate:"required"`
}

type DeletePlaceResponse struct {
}

func (h *DeletePlaceHandler) Handle(ctx context.Context, req *DeletePlaceRequest) (*DeletePlaceResponse, error) {
	if err := httperror.Validate(req, "place.destroy"); err != nil {
		return nil, err
	}

	if err := h.service.Delete(ctx, req.ID, req.Password); err != nil {
		return nil, err
	}

	return nil, httperror.NoContent(
		"place.destroy.success",
		"Place deleted successfully",
		nil,
	)
}
