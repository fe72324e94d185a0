package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"borlette/domain"
)

type TicketRepository struct {
	mu      sync.RWMutex
	tickets map[uint]domain.Ticket
	nextID  uint
}

func NewTicketRepository() *TicketRepository {
	return &TicketRepository{tickets: make(map[uint]domain.Ticket)}
}

func (r *TicketRepository) Create(_ context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.tickets {
		if existing.TicketNumber == t.TicketNumber {
			return &domain.ConflictError{Message: fmt.Sprintf("ticket number %s already issued", t.TicketNumber)}
		}
	}

	r.nextID++
	t.ID = r.nextID
	r.tickets[t.ID] = *t
	return nil
}

func (r *TicketRepository) GetByID(_ context.Context, id uint, scope domain.Predicate) (domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tickets[id]
	if !ok || !scope.MatchesTicket(t) {
		return domain.Ticket{}, &domain.NotFoundError{Entity: "ticket", ID: strconv.FormatUint(uint64(id), 10)}
	}
	return t, nil
}

func (r *TicketRepository) List(_ context.Context, scope domain.Predicate, filter domain.TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Ticket{}
	for _, t := range r.tickets {
		if scope.MatchesTicket(t) && matchesFilter(t, filter) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// MarkValidated is a compare-and-set under the write lock.
func (r *TicketRepository) MarkValidated(_ context.Context, id uint, scope domain.Predicate, by domain.Principal, at time.Time) (domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok || !scope.MatchesTicket(t) || t.Status != domain.TicketPending {
		return domain.Ticket{}, &domain.NotFoundError{Entity: "pending ticket", ID: strconv.FormatUint(uint64(id), 10)}
	}

	t.Status = domain.TicketValidated
	t.ValidatedBy = by.ID
	t.ValidatorRole = by.Role.String()
	t.ValidatedAt = &at
	r.tickets[id] = t
	return t, nil
}

func (r *TicketRepository) MarkPaid(_ context.Context, id uint, scope domain.Predicate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok || !scope.MatchesTicket(t) {
		return &domain.NotFoundError{Entity: "ticket", ID: strconv.FormatUint(uint64(id), 10)}
	}
	if t.Paid {
		return &domain.ConflictError{Message: "ticket already marked paid"}
	}

	t.Paid = true
	r.tickets[id] = t
	return nil
}

func matchesFilter(t domain.Ticket, f domain.TicketFilter) bool {
	switch {
	case f.Draw != "" && !t.HasDraw(f.Draw):
		return false
	case f.DrawTime != "" && t.DrawTime != f.DrawTime:
		return false
	case f.Status != "" && t.Status != f.Status:
		return false
	case f.AgentID != 0 && t.AgentID != f.AgentID:
		return false
	case f.From != "" && t.DrawDate < f.From:
		return false
	case f.To != "" && t.DrawDate > f.To:
		return false
	}
	return true
}
