package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultCounterKey holds the ticket number sequence.
const DefaultCounterKey = "borlette:ticket:counter"

// CounterRepository issues monotonically increasing ticket numbers with
// INCR, so every API instance shares one sequence.
type CounterRepository struct {
	client *redis.Client
	key    string
}

func NewCounterRepository(client *redis.Client, key string) *CounterRepository {
	if key == "" {
		key = DefaultCounterKey
	}
	return &CounterRepository{
		client: client,
		key:    key,
	}
}

func (r *CounterRepository) Next(ctx context.Context) (int64, error) {
	n, err := r.client.Incr(ctx, r.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment ticket counter: %w", err)
	}

	return n, nil
}
