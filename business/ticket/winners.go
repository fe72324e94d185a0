package ticket

import (
	"context"
	"sort"
	"time"

	"borlette/business/access"
	"borlette/business/payout"
	"borlette/domain"
	"borlette/pkg/logger"
	"borlette/pkg/metrics"

	"github.com/shopspring/decimal"
)

type CheckQuery struct {
	Draw     string
	DrawTime domain.DrawTime
	// Date defaults to today in the service timezone.
	Date string
}

type WinningTicket struct {
	Ticket  domain.Ticket        `json:"ticket"`
	Outcome payout.TicketOutcome `json:"outcome"`
}

type WinnersReport struct {
	Result         domain.DrawResult `json:"result"`
	TicketsChecked int               `json:"tickets_checked"`
	Winners        []WinningTicket   `json:"winners"`
	TotalWinnings  decimal.Decimal   `json:"total_winnings"`
}

// CheckWinners evaluates every ticket visible to actor for the draw, slot
// and date against the published result. Losing tickets are left out.
func (s *ticketService) CheckWinners(ctx context.Context, actor domain.Principal, q CheckQuery) (WinnersReport, error) {
	if err := s.catalog.ValidateSlot(q.Draw, q.DrawTime); err != nil {
		return WinnersReport{}, err
	}
	date := q.Date
	if date == "" {
		date = s.today().Format(domain.DateLayout)
	} else if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return WinnersReport{}, &domain.ValidationError{Field: "date", Message: "must be a YYYY-MM-DD date"}
	}

	result, err := s.results.Get(ctx, q.Draw, q.DrawTime, date)
	if err != nil {
		return WinnersReport{}, err
	}

	start := time.Now()
	defer func() {
		metrics.CheckWinnersDuration.Observe(time.Since(start).Seconds())
	}()

	tickets, err := s.tickets.List(ctx, access.TicketScope(actor), domain.TicketFilter{
		Draw:     q.Draw,
		DrawTime: q.DrawTime,
		From:     date,
		To:       date,
	})
	if err != nil {
		logger.Error("Failed to list tickets for check-winners", err)
		return WinnersReport{}, err
	}

	report := WinnersReport{
		Result:         result,
		TicketsChecked: len(tickets),
		Winners:        []WinningTicket{},
		TotalWinnings:  decimal.Zero,
	}
	for _, t := range tickets {
		outcome := payout.EvaluateTicket(t, result)
		if !outcome.Won() {
			continue
		}
		for _, w := range outcome.WinningLines {
			metrics.WinningLines.WithLabelValues(string(w.Line.Type)).Inc()
		}
		report.Winners = append(report.Winners, WinningTicket{Ticket: t, Outcome: outcome})
		report.TotalWinnings = report.TotalWinnings.Add(outcome.TotalWinnings)
	}

	sort.Slice(report.Winners, func(i, j int) bool {
		return report.Winners[i].Ticket.TicketNumber < report.Winners[j].Ticket.TicketNumber
	})

	return report, nil
}
