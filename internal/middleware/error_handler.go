package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"borlette/domain"
	"borlette/pkg/logger"
	jsonres "borlette/pkg/response"

	"github.com/labstack/echo/v4"
)

// ErrorHandler translates the domain error taxonomy into HTTP responses.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "error", err, "method", c.Request().Method, "path", c.Path())
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		logger.Error("Failed to write error response", writeErr)
	}
}

func errorResponse(err error) (int, jsonres.ErrorBody) {
	var (
		validationErr *domain.ValidationError
		authErr       *domain.AuthError
		permissionErr *domain.PermissionError
		notFoundErr   *domain.NotFoundError
		conflictErr   *domain.ConflictError
		configErr     *domain.ConfigError
		httpErr       *echo.HTTPError
	)

	switch {
	case errors.As(err, &validationErr):
		var details any
		if validationErr.Field != "" {
			details = map[string]string{"field": validationErr.Field}
		}
		return http.StatusBadRequest, jsonres.Error("VALIDATION_ERROR", validationErr.Error(), details)
	case errors.As(err, &authErr):
		return http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", authErr.Error(), nil)
	case errors.As(err, &permissionErr):
		return http.StatusForbidden, jsonres.Error("FORBIDDEN", permissionErr.Error(), nil)
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, jsonres.Error("NOT_FOUND", notFoundErr.Error(), nil)
	case errors.As(err, &conflictErr):
		return http.StatusConflict, jsonres.Error("CONFLICT", conflictErr.Error(), nil)
	case errors.As(err, &configErr):
		return http.StatusInternalServerError, jsonres.Error("CONFIG_ERROR", "service misconfigured", nil)
	case errors.As(err, &httpErr):
		return httpErr.Code, jsonres.Error(httpCode(httpErr.Code), fmt.Sprint(httpErr.Message), nil)
	default:
		return http.StatusInternalServerError, jsonres.Error("INTERNAL_ERROR", "internal server error", nil)
	}
}

func httpCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		if status >= http.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
