package party

import (
	"context"
	"time"

	"hayoungplace/domain"
	"hayoungplace/pkg/httperror"
)

type UpdatePartyHandler struct {
	service *Service
}

func NewUpdatePartyHandler(service *Service) *UpdatePartyHandler {
	return &UpdatePartyHandler{
		service: service,
	}
}

// The password travels in the X-Password header.
type UpdatePartyRequest struct {
	ID          string              `params:"id" json:"-"`
	Password    string              `reqHeader:"X-Password" json:"-" validate:"required"`
	Title       string              `json:"title" validate:"required,max=100"`
	Description string              `json:"description" validate:"max=2000"`
	Location    string              `json:"location" validate:"required,max=200"`
	Date        time.Time           `json:"date" validate:"required"`
	MaxMembers  *int                `json:"maxMembers" validate:"omitempty,min=1"`
	Tags        []string            `json:"tags" validate:"max=10,dive,max=30"`
	Status      *domain.PartyStatus `json:"status" validate:"omitempty,oneof=RECRUITING COMPLETED"`
}

type UpdatePartyResponse struct {
	View
}

func (h *UpdatePartyHandler) Handle(ctx context.Context, req *UpdatePartyRequest) (*UpdatePartyResponse, error) {
	if err := httperror.Validate(req, "party.update"); err != nil {
		return nil, err
	}

	view, err := h.service.Update(ctx, req.ID, UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
		MaxMembers:  req.MaxMembers,
		Tags:        req.Tags,
		Status:      req.Status,
	}, req.Password)
	if err != nil {
		return nil, err
	}

	return &UpdatePartyResponse{View: view}, nil
}
