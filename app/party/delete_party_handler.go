package party

import (
	"context"

	"hayoungplace/pkg/httperror"
)

type DeletePartyHandler struct {
	service *Service
}

func NewDeletePartyHandler(service *Service) *DeletePartyHandler {
	return &DeletePartyHandler{
		service: service,
	}
}

type DeletePartyRequest struct {
	ID       string `params:"id" json:"-"`
	Password string `json:"password" validate:"required"`
}

type DeletePartyResponse struct {
}

func (h *DeletePartyHandler) Handle(ctx context.Context, req *DeletePartyRequest) (*DeletePartyResponse, error) {
	if err := httperror.Validate(req, "party.destroy"); err != nil {
		return nil, err
	}

	if err := h.service.Delete(ctx, req.ID, req.Password); err != nil {
		return nil, err
	}

	return nil, httperror.NoContent(
		"party.destroy.success",
		"Party deleted successfully",
		nil,
	)
}
