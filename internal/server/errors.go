package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"hayoungplace/domain"
	"hayoungplace/pkg/httperror"
)

// toHTTPError maps service and framework errors onto the response status.
// Anything unrecognised becomes a 500 without detail.
func toHTTPError(err error) *httperror.Error {
	var httpErr *httperror.Error
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		switch domainErr.Kind {
		case domain.KindValidation:
			return httperror.BadRequest("validation_error", domainErr.Message, nil)
		case domain.KindNotFound:
			return httperror.NotFound("not_found", domainErr.Message, nil)
		case domain.KindInvalidPassword:
			return httperror.Forbidden("invalid_password", domainErr.Message, nil)
		case domain.KindDuplicate:
			return httperror.Conflict("duplicate", domainErr.Message, nil)
		}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return httperror.New(fiberErr.Code, "request.invalid", fiberErr.Message, nil)
	}

	return httperror.InternalServerError("internal_server_error", "Internal server error.", nil)
}

func writeError(c *fiber.Ctx, err error) error {
	httpErr := toHTTPError(err)

	if httpErr.Status == fiber.StatusNoContent {
		return c.SendStatus(fiber.StatusNoContent)
	}

	switch {
	case httpErr.Status >= fiber.StatusInternalServerError:
		zap.L().Error("Handler returned server error",
			zap.String("code", httpErr.Code),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	default:
		zap.L().Warn("Handler returned client error",
			zap.String("code", httpErr.Code),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	payload := fiber.Map{
		"status":  httpErr.Status,
		"error":   httpErr.StatusText(),
		"code":    httpErr.Code,
		"message": httpErr.Message,
		"path":    c.Path(),
	}
	if httpErr.Details != nil {
		payload["details"] = httpErr.Details
	}

	return c.Status(httpErr.Status).JSON(payload)
}
