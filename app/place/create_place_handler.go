package place

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"hayoungplace/domain"
	"hayoungplace/pkg/httperror"
)

type CreatePlaceHandler struct {
	service *Service
}

func NewCreatePlaceHandler(service *Service) *CreatePlaceHandler {
	return &CreatePlaceHandler{
		service: service,
	}
}

// Longitude and latitude accept a JSON number or a numeric string.
type CreatePlaceRequest struct {
	Name        string           `json:"name" validate:"required,max=200"`
	Address     string           `json:"address" validate:"required,max=500"`
	PlaceURL    string           `json:"placeUrl" validate:"required,max=2048"`
	Longitude   *decimal.Decimal `json:"longitude" validate:"required"`
	Latitude    *decimal.Decimal `json:"latitude" validate:"required"`
	Category    string           `json:"category" validate:"required"`
	SubCategory *string          `json:"subCategory"`
	Description string           `json:"description" validate:"max=5000"`
	Password    string           `json:"password" validate:"required,max=100"`
}

type CreatePlaceResponse struct {
	domain.Place
}

func (CreatePlaceResponse) StatusCode() int {
	return http.StatusCreated
}

func (h *CreatePlaceHandler) Handle(ctx context.Context, req *CreatePlaceRequest) (*CreatePlaceResponse, error) {
	if err := httperror.Validate(req, "place.create"); err != nil {
		return nil, err
	}

	place, err := h.service.Create(ctx, CreateInput{
		Name:        req.Name,
		Address:     req.Address,
		PlaceURL:    req.PlaceURL,
		Longitude:   req.Longitude.InexactFloat64(),
		Latitude:    req.Latitude.InexactFloat64(),
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Description: req.Description,
		Password:    req.Password,
	})
	if err != nil {
		return nil, err
	}

	return &CreatePlaceResponse{Place: place}, nil
}
