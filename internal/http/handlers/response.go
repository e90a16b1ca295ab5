// Package handlers implements the public HTTP API for plate lookups and
// quotes. Every endpoint returns either its documented success payload or the
// ErrorResponse envelope, so clients can branch on a stable `code` instead of
// parsing messages.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dryanez/MrcarCotizacion/internal/http/middleware"
)

// ErrorResponse is the error envelope shared by all endpoints. RequestID is
// echoed from the X-Request-ID header so a client error can be matched to the
// server log line; Code is one of the constants in errors.go.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string `json:"code" example:"not_found"`
	Message   string `json:"message" example:"vehículo no encontrado"`
}

// fail aborts the request with the error envelope. Server-side failures (5xx)
// additionally log through the request-scoped logger; 4xx are the client's
// problem and already appear in the access log.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail lets the router's NoRoute/NoMethod fallbacks reuse the same envelope.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
