package postgres

import (
	"context"
	"errors"
	"fmt"

	"borlette/domain"

	"gorm.io/gorm"
)

type ResultRepository struct {
	DB *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{
		DB: db,
	}
}

// Create inserts a result. The unique (draw, draw_time, draw_date) index
// turns a second publication into a ConflictError.
func (r *ResultRepository) Create(ctx context.Context, result *domain.DrawResult) error {
	if err := r.DB.WithContext(ctx).Create(result).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &domain.ConflictError{Message: fmt.Sprintf("result for %s %s %s already published", result.Draw, result.DrawTime, result.DrawDate)}
		}
		return fmt.Errorf("failed to create draw result: %w", err)
	}

	return nil
}

func (r *ResultRepository) Get(ctx context.Context, draw string, drawTime domain.DrawTime, date string) (domain.DrawResult, error) {
	var result domain.DrawResult
	err := r.DB.WithContext(ctx).
		Where("draw = ? AND draw_time = ? AND draw_date = ?", draw, drawTime, date).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.DrawResult{}, &domain.NotFoundError{Entity: "draw result", ID: fmt.Sprintf("%s/%s/%s", draw, drawTime, date)}
		}
		return domain.DrawResult{}, err
	}

	return result, nil
}

// List returns the results of date, or every result when date is empty.
func (r *ResultRepository) List(ctx context.Context, date string) ([]domain.DrawResult, error) {
	tx := r.DB.WithContext(ctx)
	if date != "" {
		tx = tx.Where("draw_date = ?", date)
	}

	var results []domain.DrawResult
	if err := tx.Order("draw_date DESC, draw, draw_time").Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}
