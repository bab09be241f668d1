package place

import (
	"context"

	"hayoungplace/pkg/httperror"
)

type VerifyPlacePasswordHandler struct {
	service *Service
}

func NewVerifyPlacePasswordHandler(service *Service) *VerifyPlacePasswordHandler {
	return &VerifyPlacePasswordHandler{
		service: service,
	}
}

type VerifyPlacePasswordRequest struct {
	ID       string `params:"id" json:"-"`
	Password string `json:"password" validate:"required"`
}

type VerifyPlacePasswordResponse struct {
	Message string `json:"message"`
}

func (h *VerifyPlacePasswordHandler) Handle(ctx context.Context, req *VerifyPlacePasswordRequest) (*VerifyPlacePasswordResponse, error) {
	if err := httperror.Validate(req, "place.verify_password"); err != nil {
		return nil, err
	}

	if err := h.service.VerifyPassword(ctx, req.ID, req.Password); err != nil {
		return nil, err
	}

	return &VerifyPlacePasswordResponse{Message: "Password verified."}, nil
}
