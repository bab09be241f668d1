package place

import (
	"context"

	"github.com/shopspring/decimal"

	"hayoungplace/domain"
	"hayoungplace/pkg/httperror"
)

type UpdatePlaceHandler struct {
	service *Service
}

func NewUpdatePlaceHandler(service *Service) *UpdatePlaceHandler {
	return &UpdatePlaceHandler{
		service: service,
	}
}

type UpdatePlaceRequest struct {
	ID          string           `params:"id" json:"-"`
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Address     *string          `json:"address" validate:"omitempty,min=1,max=500"`
	PlaceURL    *string          `json:"placeUrl" validate:"omitempty,min=1,max=2048"`
	Longitude   *decimal.Decimal `json:"longitude"`
	Latitude    *decimal.Decimal `json:"latitude"`
	Category    string           `json:"category" validate:"required"`
	SubCategory *string          `json:"subCategory"`
	Description string           `json:"description" validate:"max=5000"`
	Password    string           `json:"password" validate:"required"`
}

type UpdatePlaceResponse struct {
	domain.Place
}

func (h *UpdatePlaceHandler) Handle(ctx context.Context, req *UpdatePlaceRequest) (*UpdatePlaceResponse, error) {
	if err := httperror.Validate(req, "place.update"); err != nil {
		return nil, err
	}

	place, err := h.service.Update(ctx, req.ID, UpdateInput{
		Name:        req.Name,
		Address:     req.Address,
		PlaceURL:    req.PlaceURL,
		Longitude:   decimalToFloat(req.Longitude),
		Latitude:    decimalToFloat(req.Latitude),
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Description: req.Description,
	}, req.Password)
	if err != nil {
		return nil, err
	}

	return &UpdatePlaceResponse{Place: place}, nil
}

func decimalToFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}
