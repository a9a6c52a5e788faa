// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints,
// including the uniform response envelope, error classification, and helpers
// for common HTTP patterns. The goal is to guarantee uniform responses for
// both success and failure cases, making the API predictable and
// machine-friendly.
//
// Conventions:
//   - Every payload is an Envelope with a stable `status` of "success" or
//     "error".
//   - `run()` centralizes error classification, logging, and formatting:
//     internal failures are logged with request context and rendered without
//     detail, client failures echo their category and detail.
//   - `success()` and `successData()` simplify writing success responses in a
//     consistent shape across handlers.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "status": "error",
//	  "message": "not found",
//	  "data": "no such user: 42"
//	}
//
// Example success response:
//
//	HTTP/1.1 200 OK
//	{ "status": "success", "data": { "uid": 1, "account": "alice" } }
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openjudge/go-judge-backend/internal/http/middleware"
	"github.com/openjudge/go-judge-backend/internal/services"
)

// Envelope is the uniform response shape returned by all endpoints.
//
// Fields:
//   - Status: "success" or "error".
//   - Message: error category on failure, empty on success.
//   - Data: operation result on success, error detail on client failures.
//   - RequestID: optional correlation ID echoed from X-Request-ID, used to
//     correlate server logs with client-side errors.
type Envelope struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// success writes a bare success envelope.
func success(c *gin.Context) {
	c.JSON(http.StatusOK, Envelope{Status: "success"})
}

// successData writes a success envelope carrying v.
func successData(c *gin.Context, v any) {
	c.JSON(http.StatusOK, Envelope{Status: "success", Data: v})
}

// httpStatus maps an error category to its transport status code. The mapping
// lives only here; services never see HTTP statuses.
func httpStatus(k services.Kind) int {
	switch k {
	case services.KindMalformedRequest, services.KindValidationFailed:
		return http.StatusBadRequest
	case services.KindMissingCredential, services.KindWrongPassword:
		return http.StatusUnauthorized
	case services.KindInvalidCredential:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// run executes op and renders the envelope for its outcome. Classification
// happens exactly once, here: internal failures are logged at error level with
// full detail and answered with an opaque message, client failures are logged
// at warn level and echo their category and detail to the caller.
func run(c *gin.Context, op func(c *gin.Context) error) {
	err := op(c)
	if err == nil {
		return
	}

	oe := services.AsError(err)
	lg := middleware.LoggerFrom(c)
	reqID := c.Writer.Header().Get("X-Request-ID")

	if oe.Kind.Class() == services.ClassInternal {
		lg.Error().
			Str("kind", oe.Kind.String()).
			Str("detail", oe.Detail).
			Msg("operation failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, Envelope{
			Status:    "error",
			Message:   "internal error",
			RequestID: reqID,
		})
		return
	}

	lg.Warn().
		Str("kind", oe.Kind.String()).
		Str("detail", oe.Detail).
		Msg("operation rejected")
	c.AbortWithStatusJSON(httpStatus(oe.Kind), Envelope{
		Status:    "error",
		Message:   oe.Kind.String(),
		Data:      oe.Detail,
		RequestID: reqID,
	})
}

// Fail writes an error envelope outside the run pipeline. The router uses it
// for fallbacks such as unknown routes and disallowed methods.
func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{
		Status:    "error",
		Message:   message,
		RequestID: c.Writer.Header().Get("X-Request-ID"),
	})
}

// bindJSON decodes the request body into v, mapping decode failures to the
// malformed-request category.
func bindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return services.E(services.KindMalformedRequest, "parse request body: %v", err)
	}
	return nil
}
