package service

import (
	"sync"

	"go.uber.org/zap"

	"github.com/rl1809/storefront-cart/internal/core/domain"
)

type Subscriber func(domain.Event)

type subscription struct {
	id int
	fn Subscriber
}

// Broadcaster delivers every store event to all subscribers synchronously, in
// subscription order, before the mutating call returns.
type Broadcaster struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
	logger *zap.Logger
}

func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{logger: logger}
}

// Subscribe registers fn and returns a function that removes it. Subscribers
// may read the stores but must not mutate them from inside fn.
func (b *Broadcaster) Subscribe(fn Subscriber) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Broadcaster) Publish(evt domain.Event) {
	if b == nil {
		return
	}

	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, sub := range subs {
		b.deliver(sub, evt)
	}
}

func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broadcaster) deliver(sub subscription, evt domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("subscriber panicked",
				zap.Int("subscriber", sub.id),
				zap.String("event", string(evt.Kind)),
				zap.Any("panic", r),
			)
		}
	}()
	sub.fn(evt)
}

func (b *Broadcaster) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}
