package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/ryanwparks/georeach/internal/adapters/arcgis"
	"github.com/ryanwparks/georeach/internal/core/usecases"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, upstream_error, etc.
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
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, 409, "conflict", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errUpstream returns a 502 error for failures reported by the hosted
// GIS platform.
func errUpstream(c *fiber.Ctx, msg string) error {
	return newError(c, 502, "upstream_error", msg)
}

// solveError maps a solve failure onto the right status: platform error
// envelopes become 502, timeouts 504, failures in our own storage or
// queueing 500, anything else is treated as a bad request since
// parameters are validated before the remote call.
func solveError(c *fiber.Ctx, err error) error {
	var svcErr *arcgis.ServiceError
	if errors.As(err, &svcErr) {
		return errUpstream(c, svcErr.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(c, 504, "solve_timeout", "remote solve did not finish in time")
	}
	var intErr *usecases.InternalError
	if errors.As(err, &intErr) {
		return errInternal(c, intErr.Error())
	}
	return errBadRequest(c, err.Error())
}
