package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"borlette/domain"
)

type resultKey struct {
	draw     string
	drawTime domain.DrawTime
	date     string
}

type ResultRepository struct {
	mu      sync.RWMutex
	results map[resultKey]domain.DrawResult
	nextID  uint
}

func NewResultRepository() *ResultRepository {
	return &ResultRepository{results: make(map[resultKey]domain.DrawResult)}
}

func (r *ResultRepository) Create(_ context.Context, result *domain.DrawResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := resultKey{result.Draw, result.DrawTime, result.DrawDate}
	if _, exists := r.results[key]; exists {
		return &domain.ConflictError{Message: fmt.Sprintf("result for %s %s %s already published", result.Draw, result.DrawTime, result.DrawDate)}
	}

	r.nextID++
	result.ID = r.nextID
	r.results[key] = *result
	return nil
}

func (r *ResultRepository) Get(_ context.Context, draw string, drawTime domain.DrawTime, date string) (domain.DrawResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result, ok := r.results[resultKey{draw, drawTime, date}]
	if !ok {
		return domain.DrawResult{}, &domain.NotFoundError{Entity: "draw result", ID: fmt.Sprintf("%s/%s/%s", draw, drawTime, date)}
	}
	return result, nil
}

func (r *ResultRepository) List(_ context.Context, date string) ([]domain.DrawResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.DrawResult{}
	for _, result := range r.results {
		if date == "" || result.DrawDate == date {
			out = append(out, result)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DrawDate != b.DrawDate {
			return a.DrawDate > b.DrawDate
		}
		if a.Draw != b.Draw {
			return a.Draw < b.Draw
		}
		return a.DrawTime < b.DrawTime
	})
	return out, nil
}
