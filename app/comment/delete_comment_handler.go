package comment

import (
	"context"

	"hayoungplace/pkg/httperror"
)

type DeleteCommentHandler struct {
	service *Service
}

func NewDeleteCommentHandler(service *Service) *DeleteCommentHandler {
	return &DeleteCommentHandler{
		service: service,
	}
}

type DeleteCommentRequest struct {
	PlaceID   string `params:"placeId" json:"-"`
	CommentID string `params:"commentId" json:"-"`
	Password  string `json:"password" validate:"required"`
}

type DeleteCommentResponse struct {
}

func (h *DeleteCommentHandler) Handle(ctx context.Context, req *DeleteCommentRequest) (*DeleteCommentResponse, error) {
	if err := httperror.Validate(req, "comment.destroy"); err != nil {
		return nil, err
	}

	if err := h.service.Delete(ctx, req.PlaceID, req.CommentID, req.Password); err != nil {
		return nil, err
	}

	return nil, httperror.NoContent(
		"comment.destroy.success",
		"Comment deleted successfully",
		nil,
	)
}
