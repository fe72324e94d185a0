package memory

import (
	"context"
	"sync/atomic"
)

// Counter issues ticket numbers from a process-local sequence.
type Counter struct {
	n atomic.Int64
}

func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) Next(context.Context) (int64, error) {
	return c.n.Add(1), nil
}
