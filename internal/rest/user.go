package rest

import (
	"context"
	"net/http"
	"time"

	"borlette/domain"
	"borlette/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type UserService interface {
	CreatePrincipal(ctx context.Context, actor domain.Principal, draft domain.PrincipalDraft) (domain.Principal, error)
	ListAgents(ctx context.Context, actor domain.Principal) ([]domain.Principal, error)
	Deactivate(ctx context.Context, actor domain.Principal, role domain.Role, id uint) (domain.Principal, error)
	ReassignAgent(ctx context.Context, actor domain.Principal, agentID, supervisor1ID uint) (domain.Principal, error)
}

type UserHandler struct {
	userService UserService
	validator   *validator.Validate
	timeout     time.Duration
}

func NewUserHandler(userService UserService, timeout time.Duration) *UserHandler {
	return &UserHandler{
		userService: userService,
		validator:   NewValidator(),
		timeout:     timeout,
	}
}

type CreateUserRequest struct {
	Role     string `json:"role" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name"`
	// ParentID is the parent principal's row id, except for role "subsystem"
	// where it is the subsystem id being administered.
	ParentID uint   `json:"parent_id"`
}

type ReassignAgentRequest struct {
	Supervisor1ID uint `json:"supervisor1_id" validate:"required"`
}

func (h *UserHandler) ListAgents(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	agents, err := h.userService.ListAgents(ctx, actor)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(agents))
}

func (h *UserHandler) Create(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	var req CreateUserRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return &domain.ValidationError{Field: "role", Message: "unknown role"}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	p, err := h.userService.CreatePrincipal(ctx, actor, domain.PrincipalDraft{
		Role:     role,
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		ParentID: req.ParentID,
	})
	if err != nil {
		logger.Warn("Failed to create principal", "actor_id", actor.ID, "role", req.Role, "error", err)
		return err
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(p))
}

func (h *UserHandler) Deactivate(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	role, err := domain.ParseRole(c.Param("role"))
	if err != nil {
		return &domain.ValidationError{Field: "role", Message: "unknown role"}
	}

	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	p, err := h.userService.Deactivate(ctx, actor, role, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(p))
}

func (h *UserHandler) ReassignAgent(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	agentID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req ReassignAgentRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	p, err := h.userService.ReassignAgent(ctx, actor, agentID, req.Supervisor1ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(p))
}
