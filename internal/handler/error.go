// Package handler is the HTTP edge: thin echo handlers that translate
// between HTTP and the order service.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dukerupert/vanir/internal/domain"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse writes the JSON error envelope for err. Internal errors are
// logged with their cause and returned with a generic message.
func ErrorResponse(c echo.Context, logger zerolog.Logger, err error) error {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)

	body := ErrorBody{
		Code:    code,
		Message: domain.ErrorMessage(err),
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		body.Message = "Validation failed"
		body.Fields = ve.Fields
	}

	if status >= 500 {
		logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	return c.JSON(status, body)
}
