package ticket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"borlette/business/access"
	"borlette/business/catalog"
	"borlette/business/payout"
	"borlette/domain"
	"borlette/pkg/logger"
	"borlette/pkg/metrics"

	"github.com/google/uuid"
)

// TicketRepository contract interface
type TicketRepository interface {
	Create(ctx context.Context, t *domain.Ticket) error
	GetByID(ctx context.Context, id uint, scope domain.Predicate) (domain.Ticket, error)
	List(ctx context.Context, scope domain.Predicate, filter domain.TicketFilter) ([]domain.Ticket, error)
	MarkValidated(ctx context.Context, id uint, scope domain.Predicate, by domain.Principal, at time.Time) (domain.Ticket, error)
	MarkPaid(ctx context.Context, id uint, scope domain.Predicate) error
}

// ResultRepository contract interface
type ResultRepository interface {
	Get(ctx context.Context, draw string, drawTime domain.DrawTime, date string) (domain.DrawResult, error)
}

// PrincipalRepository contract interface
type PrincipalRepository interface {
	FindByID(ctx context.Context, role domain.Role, id uint) (domain.Principal, error)
}

// Counter hands out ticket numbers. Numbers never repeat.
type Counter interface {
	Next(ctx context.Context) (int64, error)
}

type ticketService struct {
	tickets    TicketRepository
	results    ResultRepository
	principals PrincipalRepository
	counter    Counter
	catalog    *catalog.Catalog
	location   *time.Location
	now        func() time.Time
}

func NewTicketService(
	tickets TicketRepository,
	results ResultRepository,
	principals PrincipalRepository,
	counter Counter,
	cat *catalog.Catalog,
	location *time.Location,
) *ticketService {
	if location == nil {
		location = time.UTC
	}
	return &ticketService{
		tickets:    tickets,
		results:    results,
		principals: principals,
		counter:    counter,
		catalog:    cat,
		location:   location,
		now:        time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *ticketService) WithClock(now func() time.Time) *ticketService {
	s.now = now
	return s
}

func (s *ticketService) today() time.Time {
	return s.now().In(s.location)
}

// Create issues a ticket for the calling agent. The agent's ancestry is
// read from its current record and frozen onto the ticket.
func (s *ticketService) Create(ctx context.Context, actor domain.Principal, draft domain.TicketDraft) (domain.Ticket, error) {
	if actor.Role != domain.RoleAgent {
		return domain.Ticket{}, &domain.PermissionError{Message: "only agents can create tickets"}
	}

	agent, err := s.principals.FindByID(ctx, domain.RoleAgent, actor.ID)
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			return domain.Ticket{}, &domain.AuthError{Message: "agent account not found"}
		}
		logger.Error("Failed to load agent", err)
		return domain.Ticket{}, err
	}
	if !agent.IsActive {
		return domain.Ticket{}, &domain.PermissionError{Message: "agent account is inactive"}
	}

	draws, err := s.checkDraws(draft.Draws, draft.DrawTime)
	if err != nil {
		return domain.Ticket{}, err
	}

	if len(draft.Bets) == 0 {
		return domain.Ticket{}, &domain.ValidationError{Field: "bets", Message: "at least one bet is required"}
	}

	builder := domain.NewTicketBuilder(agent).Draws(draws...).DrawTime(draft.DrawTime)
	for i, line := range draft.Bets {
		checked, err := s.catalog.Validate(fmt.Sprintf("bets[%d]", i), line)
		if err != nil {
			return domain.Ticket{}, err
		}
		builder.Bet(checked)
	}

	n, err := s.counter.Next(ctx)
	if err != nil {
		logger.Error("Failed to allocate ticket number", err)
		return domain.Ticket{}, err
	}

	now := s.today()
	t, err := builder.
		Number(FormatNumber(n)).
		Reference(uuid.NewString()).
		DrawDate(now.Format(domain.DateLayout)).
		CreatedAt(now.UTC()).
		Build()
	if err != nil {
		return domain.Ticket{}, err
	}

	if err := s.tickets.Create(ctx, &t); err != nil {
		logger.Error("Failed to create ticket", err)
		return domain.Ticket{}, err
	}

	for _, d := range t.Draws {
		metrics.TicketsCreated.WithLabelValues(d).Inc()
	}
	logger.Info("Ticket created", "ticket_number", t.TicketNumber, "agent_id", t.AgentID, "total", t.Total.String())

	return t, nil
}

func (s *ticketService) checkDraws(draws []string, drawTime domain.DrawTime) ([]string, error) {
	if !drawTime.Valid() {
		return nil, &domain.ValidationError{Field: "draw_time", Message: "must be morning or evening"}
	}
	if len(draws) == 0 {
		return nil, &domain.ValidationError{Field: "draws", Message: "at least one draw is required"}
	}

	seen := make(map[string]bool, len(draws))
	out := make([]string, 0, len(draws))
	for i, d := range draws {
		if err := s.catalog.ValidateSlot(d, drawTime); err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) && verr.Field == "draw" {
				verr.Field = fmt.Sprintf("draws[%d]", i)
			}
			return nil, err
		}
		if seen[d] {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("draws[%d]", i), Message: fmt.Sprintf("draw %s selected twice", d)}
		}
		seen[d] = true
		out = append(out, d)
	}
	return out, nil
}

// FormatNumber renders a counter value as a ticket number.
func FormatNumber(n int64) string {
	return fmt.Sprintf("%08d", n)
}

// Validate moves a pending ticket to validated. Agents get a
// PermissionError; a ticket that is missing, outside the caller's scope or
// already validated is a NotFoundError.
func (s *ticketService) Validate(ctx context.Context, actor domain.Principal, id uint) (domain.Ticket, error) {
	if !actor.Role.IsSupervisor() {
		metrics.TicketValidations.WithLabelValues("denied").Inc()
		return domain.Ticket{}, &domain.PermissionError{Message: "only supervisors can validate tickets"}
	}

	scope := access.TicketScope(actor)
	current, err := s.tickets.GetByID(ctx, id, scope)
	if err != nil {
		s.recordValidation(err)
		return domain.Ticket{}, err
	}
	if !access.CanValidate(actor, current) {
		metrics.TicketValidations.WithLabelValues("denied").Inc()
		return domain.Ticket{}, &domain.PermissionError{Message: "ticket is outside your scope"}
	}

	t, err := s.tickets.MarkValidated(ctx, id, scope, actor, s.now().UTC())
	if err != nil {
		s.recordValidation(err)
		return domain.Ticket{}, err
	}

	metrics.TicketValidations.WithLabelValues("validated").Inc()
	logger.Info("Ticket validated", "ticket_number", t.TicketNumber, "validated_by", actor.ID, "role", actor.Role.String())
	return t, nil
}

func (s *ticketService) recordValidation(err error) {
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		metrics.TicketValidations.WithLabelValues("not_found").Inc()
		return
	}
	metrics.TicketValidations.WithLabelValues("error").Inc()
	logger.Error("Failed to validate ticket", err)
}

func (s *ticketService) Get(ctx context.Context, actor domain.Principal, id uint) (domain.Ticket, error) {
	return s.tickets.GetByID(ctx, id, access.TicketScope(actor))
}

// MarkPaid flags a winning ticket as paid out. It is a display flag and
// does not change the ticket status.
func (s *ticketService) MarkPaid(ctx context.Context, actor domain.Principal, id uint) (domain.Ticket, error) {
	if !actor.Role.IsSupervisor() {
		return domain.Ticket{}, &domain.PermissionError{Message: "only supervisors can mark tickets paid"}
	}

	scope := access.TicketScope(actor)
	t, err := s.tickets.GetByID(ctx, id, scope)
	if err != nil {
		return domain.Ticket{}, err
	}

	won, err := s.hasWinnings(ctx, t)
	if err != nil {
		return domain.Ticket{}, err
	}
	if !won {
		return domain.Ticket{}, &domain.ConflictError{Message: "ticket has no winnings to pay"}
	}

	if err := s.tickets.MarkPaid(ctx, id, scope); err != nil {
		return domain.Ticket{}, err
	}

	t.Paid = true
	logger.Info("Ticket marked paid", "ticket_number", t.TicketNumber, "by", actor.ID)
	return t, nil
}

func (s *ticketService) hasWinnings(ctx context.Context, t domain.Ticket) (bool, error) {
	for _, d := range t.Draws {
		result, err := s.results.Get(ctx, d, t.DrawTime, t.DrawDate)
		if err != nil {
			var nf *domain.NotFoundError
			if errors.As(err, &nf) {
				continue
			}
			return false, err
		}
		if payout.EvaluateTicket(t, result).Won() {
			return true, nil
		}
	}
	return false, nil
}
