package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rl1809/storefront-cart/internal/core/domain"
)

var (
	ErrNotificationQueueFull   = errors.New("notification queue full")
	ErrNotificationQueueClosed = errors.New("notification queue closed")
)

// NotificationQueue hands ingested leads to background workers so the
// ingestion response does not wait on the mail provider.
type NotificationQueue struct {
	mu     sync.RWMutex
	closed bool
	queue  chan domain.Lead
}

func NewNotificationQueue(size int) *NotificationQueue {
	return &NotificationQueue{queue: make(chan domain.Lead, size)}
}

func (q *NotificationQueue) NotifyLead(ctx context.Context, lead domain.Lead) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrNotificationQueueClosed
	}
	select {
	case q.queue <- lead:
		return nil
	default:
		return ErrNotificationQueueFull
	}
}

func (q *NotificationQueue) Queue() <-chan domain.Lead {
	return q.queue
}

// Close stops accepting leads; workers drain what is already queued.
func (q *NotificationQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.queue)
	}
}
