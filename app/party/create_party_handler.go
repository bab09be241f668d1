package party

import (
	"context"
	"net/http"
	"time"

	"hayoungplace/pkg/httperror"
)

type CreatePartyHandler struct {
	service *Service
}

func NewCreatePartyHandler(service *Service) *CreatePartyHandler {
	return &CreatePartyHandler{
		service: service,
	}
}

type CreatePartyRequest struct {
	Title       string    `json:"title" validate:"required,max=100"`
	Description string    `json:"description" validate:"max=2000"`
	Location    string    `json:"location" validate:"required,max=200"`
	Date        time.Time `json:"date" validate:"required"`
	MaxMembers  *int      `json:"maxMembers" validate:"omitempty,min=1"`
	Tags        []string  `json:"tags" validate:"max=10,dive,max=30"`
	Nickname    string    `json:"nickname" validate:"required,max=50"`
	Password    string    `json:"password" validate:"required,max=100"`
}

type CreatePartyResponse struct {
	View
}

func (CreatePartyResponse) StatusCode() int {
	return http.StatusCreated
}

func (h *CreatePartyHandler) Handle(ctx context.Context, req *CreatePartyRequest) (*CreatePartyResponse, error) {
	if err := httperror.Validate(req, "party.create"); err != nil {
		return nil, err
	}

	view, err := h.service.Create(ctx, CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
		MaxMembers:  req.MaxMembers,
		Tags:        req.Tags,
		Nickname:    req.Nickname,
		Password:    req.Password,
	})
	if err != nil {
		return nil, err
	}

	return &CreatePartyResponse{View: view}, nil
}
