// Package signal provides a typed, synchronous publish/subscribe primitive.
//
// Subscribers are invoked in registration order on the emitting goroutine.
// A subscriber added while an emission is being delivered is not invoked for
// that emission; one removed during delivery is skipped if not yet reached.
package signal

import "sync"

// Signal delivers values of type T to its subscribers
type Signal[T any] struct {
	mu   sync.Mutex
	subs []*Subscription[T]
}

// Subscription is the handle returned by Subscribe
type Subscription[T any] struct {
	fn     func(T)
	mu     sync.Mutex
	active bool
	owner  *Signal[T]
}

// Subscribe registers fn and returns its handle
func (s *Signal[T]) Subscribe(fn func(T)) *Subscription[T] {
	sub := &Subscription[T]{fn: fn, active: true, owner: s}
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
	return sub
}

// Emit delivers v to every active subscriber
func (s *Signal[T]) Emit(v T) {
	s.mu.Lock()
	snapshot := make([]*Subscription[T], len(s.subs))
	copy(snapshot, s.subs)
	s.mu.Unlock()

	for _, sub := range snapshot {
		if !sub.isActive() {
			continue
		}
		sub.fn(v)
	}
}

// Len returns the number of active subscribers
func (s *Signal[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Clear unsubscribes everyone
func (s *Signal[T]) Clear() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()
	for _, sub := range subs {
		sub.deactivate()
	}
}

func (s *Signal[T]) remove(target *Subscription[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub == target {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// Unsubscribe detaches the subscription. Calling it more than once is a no-op.
func (sub *Subscription[T]) Unsubscribe() {
	if sub == nil || !sub.deactivate() {
		return
	}
	sub.owner.remove(sub)
}

// Active reports whether the subscription still receives values
func (sub *Subscription[T]) Active() bool {
	return sub != nil && sub.isActive()
}

func (sub *Subscription[T]) isActive() bool {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.active
}

func (sub *Subscription[T]) deactivate() bool {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	was := sub.active
	sub.active = false
	return was
}
