package ticket

import (
	"context"
	"time"

	"borlette/business/access"
	"borlette/domain"
	"borlette/pkg/logger"
)

const (
	PeriodToday     = "today"
	PeriodYesterday = "yesterday"
	PeriodWeek      = "week"
	PeriodMonth     = "month"
)

// ListQuery holds the optional listing filters. Period and From/To are
// mutually exclusive; dates are in domain.DateLayout.
type ListQuery struct {
	Period   string
	From     string
	To       string
	Draw     string
	DrawTime domain.DrawTime
	Status   domain.TicketStatus
	AgentID  uint
}

// ListScoped returns the tickets visible to actor that match q, newest first.
func (s *ticketService) ListScoped(ctx context.Context, actor domain.Principal, q ListQuery) ([]domain.Ticket, error) {
	filter, err := s.buildFilter(q)
	if err != nil {
		return nil, err
	}

	tickets, err := s.tickets.List(ctx, access.TicketScope(actor), filter)
	if err != nil {
		logger.Error("Failed to list tickets", err)
		return nil, err
	}

	return tickets, nil
}

// Pending lists the caller's visible tickets still awaiting validation.
func (s *ticketService) Pending(ctx context.Context, actor domain.Principal) ([]domain.Ticket, error) {
	return s.ListScoped(ctx, actor, ListQuery{Status: domain.TicketPending})
}

func (s *ticketService) buildFilter(q ListQuery) (domain.TicketFilter, error) {
	filter := domain.TicketFilter{
		Draw:     q.Draw,
		DrawTime: q.DrawTime,
		Status:   q.Status,
		AgentID:  q.AgentID,
	}

	if q.DrawTime != "" && !q.DrawTime.Valid() {
		return filter, &domain.ValidationError{Field: "drawTime", Message: "must be morning or evening"}
	}
	if q.Status != "" && q.Status != domain.TicketPending && q.Status != domain.TicketValidated {
		return filter, &domain.ValidationError{Field: "status", Message: "must be pending or validated"}
	}
	if q.Draw != "" {
		if _, ok := s.catalog.Draw(q.Draw); !ok {
			return filter, &domain.ValidationError{Field: "draw", Message: "unknown draw"}
		}
	}

	if q.Period != "" {
		if q.From != "" || q.To != "" {
			return filter, &domain.ValidationError{Field: "period", Message: "cannot be combined with from/to"}
		}
		from, to, err := PeriodRange(q.Period, s.today())
		if err != nil {
			return filter, err
		}
		filter.From, filter.To = from, to
		return filter, nil
	}

	for _, d := range []struct{ field, value string }{{"from", q.From}, {"to", q.To}} {
		if d.value == "" {
			continue
		}
		if _, err := time.Parse(domain.DateLayout, d.value); err != nil {
			return filter, &domain.ValidationError{Field: d.field, Message: "must be a YYYY-MM-DD date"}
		}
	}
	if q.From != "" && q.To != "" && q.From > q.To {
		return filter, &domain.ValidationError{Field: "from", Message: "must not be after to"}
	}
	filter.From, filter.To = q.From, q.To
	return filter, nil
}

// PeriodRange resolves a named period to inclusive draw dates relative to
// today. week is the last seven days; month starts on the first of the
// current month.
func PeriodRange(period string, today time.Time) (string, string, error) {
	day := func(t time.Time) string { return t.Format(domain.DateLayout) }

	switch period {
	case PeriodToday:
		return day(today), day(today), nil
	case PeriodYesterday:
		y := today.AddDate(0, 0, -1)
		return day(y), day(y), nil
	case PeriodWeek:
		return day(today.AddDate(0, 0, -6)), day(today), nil
	case PeriodMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return day(first), day(today), nil
	default:
		return "", "", &domain.ValidationError{Field: "period", Message: "must be today, yesterday, week or month"}
	}
}
