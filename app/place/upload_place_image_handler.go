package place

import (
	"context"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"hayoungplace/domain"
	"hayoungplace/pkg/httperror"
	"hayoungplace/pkg/requestctx"
)

const maxImageSize = 5 * 1024 * 1024

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/webp": ".webp",
}

type UploadPlaceImageHandler struct {
	service *Service
}

func NewUploadPlaceImageHandler(service *Service) *UploadPlaceImageHandler {
	return &UploadPlaceImageHandler{
		service: service,
	}
}

// The image travels in the multipart field "image".
type UploadPlaceImageRequest struct {
	ID       string `params:"id" json:"-"`
	Password string `form:"password" json:"-" validate:"required"`
}

type UploadPlaceImageResponse struct {
	domain.Place
}

func (UploadPlaceImageResponse) StatusCode() int {
	return http.StatusCreated
}

func (h *UploadPlaceImageHandler) Handle(ctx context.Context, req *UploadPlaceImageRequest) (*UploadPlaceImageResponse, error) {
	if err := httperror.Validate(req, "place.image"); err != nil {
		return nil, err
	}

	c, ok := requestctx.Fiber(ctx)
	if !ok {
		return nil, httperror.InternalServerError("place.image.no_context", "Fiber context not found", nil)
	}

	file, err := c.FormFile("image")
	if err != nil {
		return nil, httperror.BadRequest("place.image.missing_file", "Image file is required (use 'image' field)", fiber.Map{"error": err.Error()})
	}

	if file.Size > maxImageSize {
		return nil, httperror.BadRequest("place.image.file_too_large", "File size must not exceed 5MB",
			fiber.Map{
				"size_mb": float64(file.Size) / 1024 / 1024,
				"max_mb":  5,
			})
	}

	contentType := file.Header.Get("Content-Type")
	extension, ok := imageExtensions[contentType]
	if !ok {
		return nil, httperror.BadRequest("place.image.invalid_content_type", "Only PNG, JPEG and WEBP images are allowed",
			fiber.Map{"received": contentType})
	}

	reader, err := file.Open()
	if err != nil {
		return nil, httperror.InternalServerError("place.image.file_open_error", "Failed to open uploaded file", nil)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, httperror.InternalServerError("place.image.file_read_error", "Failed to read file content", nil)
	}

	place, err := h.service.AttachImage(ctx, req.ID, req.Password, Image{
		Data:        data,
		ContentType: contentType,
		Extension:   extension,
	})
	if err != nil {
		return nil, err
	}

	return &UploadPlaceImageResponse{Place: place}, nil
}
