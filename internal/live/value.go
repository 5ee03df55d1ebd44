// Package live provides observable values. A subscriber receives the current
// value as soon as it subscribes and then every later update until it
// unsubscribes.
package live

import (
	"context"
	"sync"
)

// Value holds a value of type T and fans updates out to subscribers.
//
// Each subscriber has a one-slot buffer. When a subscriber has not consumed
// its pending value, the pending value is replaced by the newer one, so Set
// never waits on a slow reader and a reader always catches up to the latest
// value.
type Value[T any] struct {
	mu     sync.Mutex
	cur    T
	clone  func(T) T
	subs   map[*subscriber[T]]struct{}
	closed bool
	done   chan struct{}
}

type subscriber[T any] struct {
	ch chan T
}

// NewValue returns a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		cur:  initial,
		subs: make(map[*subscriber[T]]struct{}),
		done: make(chan struct{}),
	}
}

// NewClonedValue is NewValue for reference-like values such as slices. The
// stored value and every delivery are copies made with clone, so no two
// readers share memory.
func NewClonedValue[T any](initial T, clone func(T) T) *Value[T] {
	v := NewValue(clone(initial))
	v.clone = clone
	return v
}

func (v *Value[T]) copy(x T) T {
	if v.clone == nil {
		return x
	}
	return v.clone(x)
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.copy(v.cur)
}

// Set stores x and delivers it to every subscriber. Set after Close is a no-op.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.cur = v.copy(x)
	for s := range v.subs {
		s.offer(v.copy(x))
	}
}

// Subscribe registers a subscriber. The returned channel yields the current
// value immediately and is closed when ctx is done, when unsubscribe is
// called, or when the Value is closed.
func (v *Value[T]) Subscribe(ctx context.Context) (<-chan T, func()) {
	s := &subscriber[T]{ch: make(chan T, 1)}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		close(s.ch)
		return s.ch, func() {}
	}
	s.ch <- v.copy(v.cur)
	v.subs[s] = struct{}{}
	v.mu.Unlock()

	stop := make(chan struct{})
	var once sync.Once
	unsubscribe := func() { once.Do(func() { close(stop) }) }

	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		case <-v.done:
		}
		v.remove(s)
	}()
	return s.ch, unsubscribe
}

// Len returns the number of active subscribers.
func (v *Value[T]) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}

// Close closes every subscriber channel. Subsequent subscribers receive a
// closed channel.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	close(v.done)
	for s := range v.subs {
		delete(v.subs, s)
		close(s.ch)
	}
}

func (v *Value[T]) remove(s *subscriber[T]) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.subs[s]; ok {
		delete(v.subs, s)
		close(s.ch)
	}
}

// offer must be called with the owning Value's lock held; that makes the
// publisher the only sender on s.ch.
func (s *subscriber[T]) offer(x T) {
	for {
		select {
		case s.ch <- x:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}
