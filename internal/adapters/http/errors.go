package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/abgtour/planttour/internal/core/domain"
	"github.com/abgtour/planttour/internal/core/usecases"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, not_found, catalog_unavailable, ...
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errCatalogUnavailable returns a 502: the catalog source could not be read.
func errCatalogUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadGateway, "catalog_unavailable", msg)
}

// PassError is the 502 body of a position update whose catalog load failed.
// Batch still carries the user marker instruction the session recorded.
type PassError struct {
	APIError
	Batch domain.InstructionBatch `json:"batch"`
}

// errPassFailed returns a 502 that keeps the instruction batch.
func errPassFailed(c *fiber.Ctx, msg string, batch domain.InstructionBatch) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(fiber.StatusBadGateway).JSON(PassError{
		APIError: APIError{
			Status:    fiber.StatusBadGateway,
			Code:      "catalog_unavailable",
			Message:   msg,
			RequestID: reqID,
		},
		Batch: batch,
	})
}

// errSessionInUse returns a 409 for a session id that is already live.
func errSessionInUse(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusConflict, "session_in_use", msg)
}

// errUnavailable returns a 503 for optional backends that are not configured.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, "unavailable", msg)
}

// serviceError maps a usecase error onto an API error.
func serviceError(c *fiber.Ctx, err error, what string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, what+" not found")
	case errors.Is(err, domain.ErrFetch):
		return errCatalogUnavailable(c, err.Error())
	case errors.Is(err, domain.ErrInvalidPosition):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrSessionInUse):
		return errSessionInUse(c, err.Error())
	case errors.Is(err, usecases.ErrCalibrationUnavailable):
		return errUnavailable(c, err.Error())
	default:
		LoggerFromCtx(c.UserContext()).Error("request failed", "error", err)
		return errInternal(c, err.Error())
	}
}
