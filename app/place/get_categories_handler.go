package place

import (
	"context"

	"hayoungplace/domain"
)

type GetCategoriesHandler struct {
	service *Service
}

func NewGetCategoriesHandler(service *Service) *GetCategoriesHandler {
	return &GetCategoriesHandler{
		service: service,
	}
}

type GetCategoriesRequest struct {
}

type GetCategoriesResponse struct {
	Categories []CategoryOption `json:"categories"`
}

func (h *GetCategoriesHandler) Handle(_ context.Context, _ *GetCategoriesRequest) (*GetCategoriesResponse, error) {
	return &GetCategoriesResponse{Categories: h.service.Categories()}, nil
}

type GetSubCategoriesHandler struct {
	service *Service
}

func NewGetSubCategoriesHandler(service *Service) *GetSubCategoriesHandler {
	return &GetSubCategoriesHandler{
		service: service,
	}
}

type GetSubCategoriesRequest struct {
	Category string `params:"category" json:"-"`
}

type GetSubCategoriesResponse struct {
	Category      string               `json:"category"`
	SubCategories []domain.SubCategory `json:"subCategories"`
}

func (h *GetSubCategoriesHandler) Handle(_ context.Context, req *GetSubCategoriesRequest) (*GetSubCategoriesResponse, error) {
	subs, err := h.service.SubCategories(req.Category)
	if err != nil {
		return nil, err
	}

	return &GetSubCategoriesResponse{Category: req.Category, SubCategories: subs}, nil
}
