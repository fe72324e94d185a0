package rest

import (
	"context"
	"net/http"
	"time"

	"borlette/business/user"
	"borlette/domain"
	"borlette/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type AuthService interface {
	Login(ctx context.Context, username, password, userType string) (user.Session, error)
}

type AuthHandler struct {
	authService AuthService
	validator   *validator.Validate
	timeout     time.Duration
}

func NewAuthHandler(authService AuthService, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   NewValidator(),
		timeout:     timeout,
	}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	UserType string `json:"userType" validate:"required"`
}

type VerifyResponse struct {
	Valid     bool             `json:"valid"`
	Principal domain.Principal `json:"principal"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	session, err := h.authService.Login(ctx, req.Username, req.Password, req.UserType)
	if err != nil {
		logger.Warn("Login failed", "username", req.Username, "user_type", req.UserType, "ip", c.RealIP())
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(session))
}

// Verify reports the principal decoded by the auth middleware.
func (h *AuthHandler) Verify(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(VerifyResponse{Valid: true, Principal: p}))
}
