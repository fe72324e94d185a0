package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"borlette/domain"

	"gorm.io/gorm"
)

type TicketRepository struct {
	DB *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{
		DB: db,
	}
}

func (r *TicketRepository) Create(ctx context.Context, t *domain.Ticket) error {
	if err := r.DB.WithContext(ctx).Create(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &domain.ConflictError{Message: fmt.Sprintf("ticket number %s already issued", t.TicketNumber)}
		}
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	return nil
}

// GetByID returns the ticket only when it falls within scope. Missing and
// out-of-scope tickets produce the same NotFoundError.
func (r *TicketRepository) GetByID(ctx context.Context, id uint, scope domain.Predicate) (domain.Ticket, error) {
	notFound := &domain.NotFoundError{Entity: "ticket", ID: strconv.FormatUint(uint64(id), 10)}
	if scope.MatchesNothing() {
		return domain.Ticket{}, notFound
	}

	var t domain.Ticket
	err := applyTicketScope(r.DB.WithContext(ctx), scope).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Ticket{}, notFound
		}
		return domain.Ticket{}, err
	}

	return t, nil
}

func (r *TicketRepository) List(ctx context.Context, scope domain.Predicate, filter domain.TicketFilter) ([]domain.Ticket, error) {
	if scope.MatchesNothing() {
		return []domain.Ticket{}, nil
	}

	tx := applyTicketScope(r.DB.WithContext(ctx), scope)

	if filter.Draw != "" {
		draws, err := json.Marshal([]string{filter.Draw})
		if err != nil {
			return nil, err
		}
		tx = tx.Where("draws @> ?::jsonb", string(draws))
	}
	if filter.DrawTime != "" {
		tx = tx.Where("draw_time = ?", filter.DrawTime)
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", filter.Status)
	}
	if filter.AgentID != 0 {
		tx = tx.Where("agent_id = ?", filter.AgentID)
	}
	if filter.From != "" {
		tx = tx.Where("draw_date >= ?", filter.From)
	}
	if filter.To != "" {
		tx = tx.Where("draw_date <= ?", filter.To)
	}

	var tickets []domain.Ticket
	if err := tx.Order("created_at DESC, id DESC").Find(&tickets).Error; err != nil {
		return nil, err
	}

	return tickets, nil
}

// MarkValidated performs the pending to validated transition as a single
// conditional UPDATE. Zero affected rows means the ticket is missing, out of
// scope, or no longer pending.
func (r *TicketRepository) MarkValidated(ctx context.Context, id uint, scope domain.Predicate, by domain.Principal, at time.Time) (domain.Ticket, error) {
	notFound := &domain.NotFoundError{Entity: "pending ticket", ID: strconv.FormatUint(uint64(id), 10)}
	if scope.MatchesNothing() {
		return domain.Ticket{}, notFound
	}

	tx := applyTicketScope(r.DB.WithContext(ctx).Model(&domain.Ticket{}), scope)
	result := tx.Where("id = ? AND status = ?", id, domain.TicketPending).Updates(map[string]any{
		"status":         domain.TicketValidated,
		"validated_by":   by.ID,
		"validator_role": by.Role.String(),
		"validated_at":   at,
	})
	if result.Error != nil {
		return domain.Ticket{}, fmt.Errorf("failed to validate ticket: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.Ticket{}, notFound
	}

	var t domain.Ticket
	if err := r.DB.WithContext(ctx).First(&t, id).Error; err != nil {
		return domain.Ticket{}, err
	}

	return t, nil
}

// MarkPaid sets the display-only paid flag. A ticket already marked paid is
// a ConflictError.
func (r *TicketRepository) MarkPaid(ctx context.Context, id uint, scope domain.Predicate) error {
	notFound := &domain.NotFoundError{Entity: "ticket", ID: strconv.FormatUint(uint64(id), 10)}
	if scope.MatchesNothing() {
		return notFound
	}

	tx := applyTicketScope(r.DB.WithContext(ctx).Model(&domain.Ticket{}), scope)
	result := tx.Where("id = ? AND paid = ?", id, false).Update("paid", true)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id, scope); err != nil {
			return err
		}
		return &domain.ConflictError{Message: "ticket already marked paid"}
	}

	return nil
}

func applyTicketScope(tx *gorm.DB, scope domain.Predicate) *gorm.DB {
	if scope.Unrestricted() {
		return tx
	}
	return tx.Where(string(scope.Column())+" IN ?", scope.IDs())
}
