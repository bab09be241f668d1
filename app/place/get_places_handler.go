package place

import (
	"context"

	"hayoungplace/domain"
	"hayoungplace/pkg/httperror"
)

type GetPlacesResponse = domain.Page[domain.Place]

type GetPlacesHandler struct {
	service *Service
}

func NewGetPlacesHandler(service *Service) *GetPlacesHandler {
	return &GetPlacesHandler{
		service: service,
	}
}

type GetPlacesRequest struct {
	Page int `query:"page" json:"-" validate:"gte=0"`
	Size int `query:"size" json:"-" validate:"gte=0"`
}

func (h *GetPlacesHandler) Handle(ctx context.Context, req *GetPlacesRequest) (*GetPlacesResponse, error) {
	if err := httperror.Validate(req, "place.index"); err != nil {
		return nil, err
	}

	page, err := h.service.GetAll(ctx, domain.NewPageRequest(req.Page, req.Size, DefaultListPageSize))
	if err != nil {
		return nil, err
	}

	return &page, nil
}

type SearchPlacesHandler struct {
	service *Service
}

func NewSearchPlacesHandler(service *Service) *SearchPlacesHandler {
	return &SearchPlacesHandler{
		service: service,
	}
}

type SearchPlacesRequest struct {
	Query string `query:"query" json:"-" validate:"required"`
	Page  int    `query:"page" json:"-" validate:"gte=0"`
	Size  int    `query:"size" json:"-" validate:"gte=0"`
}

func (h *SearchPlacesHandler) Handle(ctx context.Context, req *SearchPlacesRequest) (*GetPlacesResponse, error) {
	if err := httperror.Validate(req, "place.search"); err != nil {
		return nil, err
	}

	page, err := h.service.Search(ctx, req.Query, domain.NewPageRequest(req.Page, req.Size, DefaultQueryPageSize))
	if err != nil {
		return nil, err
	}

	return &page, nil
}

type NearbyPlacesHandler struct {
	service *Service
}

func NewNearbyPlacesHandler(service *Service) *NearbyPlacesHandler {
	return &NearbyPlacesHandler{
		service: service,
	}
}

type NearbyPlacesRequest struct {
	Longitude   *float64 `query:"longitude" json:"-" validate:"required"`
	Latitude    *float64 `query:"latitude" json:"-" validate:"required"`
	MaxDistance float64  `query:"maxDistance" json:"-" validate:"gte=0"`
	Page        int      `query:"page" json:"-" validate:"gte=0"`
	Size        int      `query:"size" json:"-" validate:"gte=0"`
}

func (h *NearbyPlacesHandler) Handle(ctx context.Context, req *NearbyPlacesRequest) (*GetPlacesResponse, error) {
	if err := httperror.Validate(req, "place.nearby"); err != nil {
		return nil, err
	}

	page, err := h.service.GetNearby(ctx,
		*req.Longitude,
		*req.Latitude,
		req.MaxDistance,
		domain.NewPageRequest(req.Page, req.Size, DefaultQueryPageSize),
	)
	if err != nil {
		return nil, err
	}

	return &page, nil
}

type CategoryPlacesHandler struct {
	service *Service
}

func NewCategoryPlacesHandler(service *Service) *CategoryPlacesHandler {
	return &CategoryPlacesHandler{
		service: service,
	}
}

// SubCategory is only set on the /subcategory/:subCategory route.
type CategoryPlacesRequest struct {
	Category    string `params:"category" json:"-" validate:"required"`
	SubCategory string `params:"subCategory" json:"-"`
	Page        int    `query:"page" json:"-" validate:"gte=0"`
	Size        int    `query:"size" json:"-" validate:"gte=0"`
}

func (h *CategoryPlacesHandler) Handle(ctx context.Context, req *CategoryPlacesRequest) (*GetPlacesResponse, error) {
	if err := httperror.Validate(req, "place.category"); err != nil {
		return nil, err
	}

	pageRequest := domain.NewPageRequest(req.Page, req.Size, DefaultQueryPageSize)

	var (
		page GetPlacesResponse
		err  error
	)
	if req.SubCategory == "" {
		page, err = h.service.GetByCategory(ctx, req.Category, pageRequest)
	} else {
		page, err = h.service.GetByCategoryAndSubCategory(ctx, req.Category, req.SubCategory, pageRequest)
	}
	if err != nil {
		return nil, err
	}

	return &page, nil
}
