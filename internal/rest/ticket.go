package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"borlette/business/ticket"
	"borlette/domain"
	"borlette/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type TicketService interface {
	Create(ctx context.Context, actor domain.Principal, draft domain.TicketDraft) (domain.Ticket, error)
	Validate(ctx context.Context, actor domain.Principal, id uint) (domain.Ticket, error)
	Get(ctx context.Context, actor domain.Principal, id uint) (domain.Ticket, error)
	MarkPaid(ctx context.Context, actor domain.Principal, id uint) (domain.Ticket, error)
	ListScoped(ctx context.Context, actor domain.Principal, q ticket.ListQuery) ([]domain.Ticket, error)
	Pending(ctx context.Context, actor domain.Principal) ([]domain.Ticket, error)
	CheckWinners(ctx context.Context, actor domain.Principal, q ticket.CheckQuery) (ticket.WinnersReport, error)
}

type TicketHandler struct {
	ticketService TicketService
	validator     *validator.Validate
	timeout       time.Duration
}

func NewTicketHandler(ticketService TicketService, timeout time.Duration) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		validator:     NewValidator(),
		timeout:       timeout,
	}
}

type BetLineRequest struct {
	Type    string          `json:"type" validate:"required"`
	Number  string          `json:"number" validate:"required"`
	Amount  decimal.Decimal `json:"amount"`
	Options []string        `json:"options"`
}

// CreateTicketRequest accepts either a single draw or a list of draws, and
// either "bets" or "lineItems" for the bet lines.
type CreateTicketRequest struct {
	Draw      string           `json:"draw"`
	Draws     []string         `json:"draws"`
	DrawTime  string           `json:"drawTime" validate:"required"`
	Bets      []BetLineRequest `json:"bets" validate:"omitempty,dive"`
	LineItems []BetLineRequest `json:"lineItems" validate:"omitempty,dive"`
}

type ValidateTicketRequest struct {
	TicketID uint `json:"ticketId" validate:"required"`
}

type CheckWinnersRequest struct {
	Draw     string `json:"draw" validate:"required"`
	DrawTime string `json:"drawTime" validate:"required"`
	Date     string `json:"date"`
}

func (r CreateTicketRequest) draft() domain.TicketDraft {
	draws := r.Draws
	if len(draws) == 0 && r.Draw != "" {
		draws = []string{r.Draw}
	}

	lines := r.Bets
	if len(lines) == 0 {
		lines = r.LineItems
	}

	draft := domain.TicketDraft{
		Draws:    draws,
		DrawTime: domain.DrawTime(r.DrawTime),
		Bets:     make([]domain.BetLine, 0, len(lines)),
	}
	for _, l := range lines {
		draft.Bets = append(draft.Bets, domain.BetLine{
			Type:    domain.BetType(l.Type),
			Number:  l.Number,
			Amount:  l.Amount,
			Options: l.Options,
		})
	}
	return draft
}

func (h *TicketHandler) Create(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	var req CreateTicketRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	t, err := h.ticketService.Create(ctx, actor, req.draft())
	if err != nil {
		logger.Warn("Failed to create ticket", "agent_id", actor.ID, "error", err)
		return err
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(t))
}

func (h *TicketHandler) Validate(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	var req ValidateTicketRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	t, err := h.ticketService.Validate(ctx, actor, req.TicketID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(t))
}

func (h *TicketHandler) GetByID(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	t, err := h.ticketService.Get(ctx, actor, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(t))
}

func (h *TicketHandler) MarkPaid(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	t, err := h.ticketService.MarkPaid(ctx, actor, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(t))
}

// List serves GET /tickets with the period, draw, drawTime, status, from,
// to and agentId query filters.
func (h *TicketHandler) List(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	q := ticket.ListQuery{
		Period:   c.QueryParam("period"),
		From:     c.QueryParam("from"),
		To:       c.QueryParam("to"),
		Draw:     c.QueryParam("draw"),
		DrawTime: domain.DrawTime(c.QueryParam("drawTime")),
		Status:   domain.TicketStatus(c.QueryParam("status")),
	}
	if raw := c.QueryParam("agentId"); raw != "" {
		agentID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || agentID == 0 {
			return &domain.ValidationError{Field: "agentId", Message: "must be a positive integer"}
		}
		q.AgentID = uint(agentID)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	tickets, err := h.ticketService.ListScoped(ctx, actor, q)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(tickets))
}

func (h *TicketHandler) Pending(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	tickets, err := h.ticketService.Pending(ctx, actor)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(tickets))
}

func (h *TicketHandler) CheckWinners(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	var req CheckWinnersRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	report, err := h.ticketService.CheckWinners(ctx, actor, ticket.CheckQuery{
		Draw:     req.Draw,
		DrawTime: domain.DrawTime(req.DrawTime),
		Date:     req.Date,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(report))
}
