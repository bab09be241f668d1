package comment

import (
	"context"

	"hayoungplace/pkg/httperror"
)

type UpdateCommentHandler struct {
	service *Service
}

func NewUpdateCommentHandler(service *Service) *UpdateCommentHandler {
	return &UpdateCommentHandler{
		service: service,
	}
}

type UpdateCommentRequest struct {
	PlaceID   string `params:"placeId" json:"-"`
	CommentID string `params:"commentId" json:"-"`
	Password  string `json:"password" validate:"required"`
	Content   string `json:"content" validate:"required,max=1000"`
}

type UpdateCommentResponse struct {
	View
}

func (h *UpdateCommentHandler) Handle(ctx context.Context, req *UpdateCommentRequest) (*UpdateCommentResponse, error) {
	if err := httperror.Validate(req, "comment.update"); err != nil {
		return nil, err
	}

	view, err := h.service.Update(ctx, req.PlaceID, req.CommentID, req.Password, req.Content)
	if err != nil {
		return nil, err
	}

	return &UpdateCommentResponse{View: view}, nil
}
