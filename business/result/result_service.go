package result

import (
	"context"
	"time"

	"borlette/business/catalog"
	"borlette/domain"
	"borlette/pkg/logger"

	"github.com/go-playground/validator/v10"
)

// ResultRepository contract interface
type ResultRepository interface {
	Create(ctx context.Context, result *domain.DrawResult) error
	Get(ctx context.Context, draw string, drawTime domain.DrawTime, date string) (domain.DrawResult, error)
	List(ctx context.Context, date string) ([]domain.DrawResult, error)
}

type resultService struct {
	results  ResultRepository
	catalog  *catalog.Catalog
	validate *validator.Validate
	location *time.Location
	now      func() time.Time
}

func NewResultService(results ResultRepository, cat *catalog.Catalog, validate *validator.Validate, location *time.Location) *resultService {
	if location == nil {
		location = time.UTC
	}
	return &resultService{
		results:  results,
		catalog:  cat,
		validate: validate,
		location: location,
		now:      time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *resultService) WithClock(now func() time.Time) *resultService {
	s.now = now
	return s
}

// Publish records the lots of a draw slot. Results are immutable, so a
// second publication for the same draw, slot and date is a ConflictError.
func (s *resultService) Publish(ctx context.Context, actor domain.Principal, r domain.DrawResult) (domain.DrawResult, error) {
	if actor.Role != domain.RoleMaster && actor.Role != domain.RoleSubsystem {
		return domain.DrawResult{}, &domain.PermissionError{Message: "only administrators can publish results"}
	}

	if err := s.catalog.ValidateSlot(r.Draw, r.DrawTime); err != nil {
		return domain.DrawResult{}, err
	}

	date, err := s.resolveDate(r.DrawDate)
	if err != nil {
		return domain.DrawResult{}, err
	}
	r.DrawDate = date

	lots := []struct {
		field, value string
		required     bool
	}{
		{"lot1", r.Lot1, true},
		{"lot2", r.Lot2, false},
		{"lot3", r.Lot3, false},
	}
	for _, lot := range lots {
		rule := "omitempty,number,min=2,max=3"
		if lot.required {
			rule = "required,number,min=2,max=3"
		}
		if err := s.validate.Var(lot.value, rule); err != nil {
			return domain.DrawResult{}, &domain.ValidationError{Field: lot.field, Message: "must be 2 or 3 digits"}
		}
	}
	if r.Lot2 == "" && r.Lot3 != "" {
		return domain.DrawResult{}, &domain.ValidationError{Field: "lot2", Message: "required when lot3 is set"}
	}

	r.ID = 0
	r.PublishedBy = actor.ID
	r.PublisherRole = actor.Role.String()
	r.PublishedAt = s.now().UTC()

	if err := s.results.Create(ctx, &r); err != nil {
		logger.Error("Failed to publish result", err)
		return domain.DrawResult{}, err
	}

	logger.Info("Result published", "draw", r.Draw, "draw_time", string(r.DrawTime), "date", r.DrawDate, "by", actor.ID)
	return r, nil
}

// Get returns the result of one draw slot; an empty date means today.
func (s *resultService) Get(ctx context.Context, draw string, drawTime domain.DrawTime, date string) (domain.DrawResult, error) {
	if err := s.catalog.ValidateSlot(draw, drawTime); err != nil {
		return domain.DrawResult{}, err
	}

	date, err := s.resolveDate(date)
	if err != nil {
		return domain.DrawResult{}, err
	}

	return s.results.Get(ctx, draw, drawTime, date)
}

// List returns the results published for date; an empty date means today.
func (s *resultService) List(ctx context.Context, date string) ([]domain.DrawResult, error) {
	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}

	results, err := s.results.List(ctx, date)
	if err != nil {
		logger.Error("Failed to list results", err)
		return nil, err
	}

	return results, nil
}

func (s *resultService) resolveDate(date string) (string, error) {
	if date == "" {
		return s.now().In(s.location).Format(domain.DateLayout), nil
	}
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return "", &domain.ValidationError{Field: "date", Message: "must be a YYYY-MM-DD date"}
	}
	return date, nil
}
