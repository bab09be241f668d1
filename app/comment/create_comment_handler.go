package comment

import (
	"context"
	"net/http"

	"hayoungplace/pkg/httperror"
)

type CreateCommentHandler struct {
	service *Service
}

func NewCreateCommentHandler(service *Service) *CreateCommentHandler {
	return &CreateCommentHandler{
		service: service,
	}
}

type CreateCommentRequest struct {
	PlaceID  string  `params:"placeId" json:"-"`
	ParentID *string `json:"parentId"`
	Nickname string  `json:"nickname" validate:"required,max=50"`
	Password string  `json:"password" validate:"required,max=100"`
	Content  string  `json:"content" validate:"required,max=1000"`
}

type CreateCommentResponse struct {
	View
}

func (CreateCommentResponse) StatusCode() int {
	return http.StatusCreated
}

func (h *CreateCommentHandler) Handle(ctx context.Context, req *CreateCommentRequest) (*CreateCommentResponse, error) {
	if err := httperror.Validate(req, "comment.create"); err != nil {
		return nil, err
	}

	view, err := h.service.Create(ctx, req.PlaceID, CreateInput{
		ParentID: req.ParentID,
		Nickname: req.Nickname,
		Password: req.Password,
		Content:  req.Content,
	})
	if err != nil {
		return nil, err
	}

	return &CreateCommentResponse{View: view}, nil
}
