package rest

import (
	"context"
	"net/http"
	"time"

	"borlette/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type ResultService interface {
	Publish(ctx context.Context, actor domain.Principal, r domain.DrawResult) (domain.DrawResult, error)
	Get(ctx context.Context, draw string, drawTime domain.DrawTime, date string) (domain.DrawResult, error)
	List(ctx context.Context, date string) ([]domain.DrawResult, error)
}

type ResultHandler struct {
	resultService ResultService
	validator     *validator.Validate
	timeout       time.Duration
}

func NewResultHandler(resultService ResultService, timeout time.Duration) *ResultHandler {
	return &ResultHandler{
		resultService: resultService,
		validator:     NewValidator(),
		timeout:       timeout,
	}
}

type PublishResultRequest struct {
	Draw     string `json:"draw" validate:"required"`
	DrawTime string `json:"drawTime" validate:"required"`
	Date     string `json:"date"`
	Lot1     string `json:"lot1" validate:"required"`
	Lot2     string `json:"lot2"`
	Lot3     string `json:"lot3"`
}

func (h *ResultHandler) Publish(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	var req PublishResultRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.resultService.Publish(ctx, actor, domain.DrawResult{
		Draw:     req.Draw,
		DrawTime: domain.DrawTime(req.DrawTime),
		DrawDate: req.Date,
		Lot1:     req.Lot1,
		Lot2:     req.Lot2,
		Lot3:     req.Lot3,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(result))
}

func (h *ResultHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	results, err := h.resultService.List(ctx, c.QueryParam("date"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(results))
}

// Get serves GET /results/:draw/:drawTime?date=YYYY-MM-DD.
func (h *ResultHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.resultService.Get(ctx, c.Param("draw"), domain.DrawTime(c.Param("drawTime")), c.QueryParam("date"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}
