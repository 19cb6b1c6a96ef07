// Package stream provides the in-process broadcast layer that fans engine
// output to independent subscribers.
package stream

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultBufferSize is the per-subscriber delivery buffer capacity.
const DefaultBufferSize = 256

// Hub fans published values out to registered subscribers. Each subscriber
// owns a bounded delivery buffer drained by its own goroutine, so a slow or
// blocked handler never stalls Publish or the other subscribers. When a
// subscriber's buffer fills, its oldest undelivered value is dropped to make
// room for the new one.
type Hub[T any] struct {
	log     *logrus.Logger
	bufSize int

	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber[T]
	closed bool
}

type subscriber[T any] struct {
	ch       chan T
	done     chan struct{}
	stopOnce sync.Once
}

func (s *subscriber[T]) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// NewHub creates a Hub whose subscribers buffer up to bufSize undelivered
// values each. Non-positive bufSize falls back to DefaultBufferSize.
func NewHub[T any](bufSize int, log *logrus.Logger) *Hub[T] {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &Hub[T]{
		log:     log,
		bufSize: bufSize,
		subs:    make(map[int]*subscriber[T]),
	}
}

// Subscribe registers handler and returns an idempotent unsubscribe func.
// Values are delivered in publish order. Unsubscribing excludes the
// subscriber from future publishes; values already queued may be discarded.
// A panicking handler is recovered and logged, and delivery continues.
func (h *Hub[T]) Subscribe(handler func(T)) (unsubscribe func()) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return func() {}
	}
	id := h.nextID
	h.nextID++
	sub := &subscriber[T]{
		ch:   make(chan T, h.bufSize),
		done: make(chan struct{}),
	}
	h.subs[id] = sub
	h.mu.Unlock()

	go sub.run(handler, h.log)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			sub.stop()
		})
	}
}

func (s *subscriber[T]) run(handler func(T), log *logrus.Logger) {
	for {
		select {
		case <-s.done:
			return
		case v := <-s.ch:
			s.deliver(handler, v, log)
		}
	}
}

func (s *subscriber[T]) deliver(handler func(T), v T, log *logrus.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Subscriber handler panicked, continuing")
		}
	}()
	handler(v)
}

// Publish delivers v to every active subscriber without blocking. A full
// subscriber buffer drops its oldest queued value; if the buffer is still
// full after one eviction the new value is dropped for that subscriber.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	subs := make([]*subscriber[T], 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		select {
		case s.ch <- v:
			continue
		default:
		}
		select {
		case <-s.ch:
			h.log.Debug("Subscriber buffer full, dropped oldest undelivered value")
		default:
		}
		select {
		case s.ch <- v:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (h *Hub[T]) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close tears down all subscriptions and rejects future ones. Queued values
// are discarded.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := h.subs
	h.subs = make(map[int]*subscriber[T])
	h.mu.Unlock()

	for _, s := range subs {
		s.stop()
	}
}
