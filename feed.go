package formsg

import "sync"

// Feed is a synchronous push fan-out of values of type T.
//
// Publish delivers the value to every subscriber registered at the time of
// the call, in subscription order, on the publishing goroutine. Feeds do not
// replay: a subscriber only observes values published after it subscribed.
// The zero value is ready to use. All methods are safe for concurrent use.
type Feed[T any] struct {
	mu     sync.Mutex
	subs   []*feedSub[T]
	nextID uint64
}

type feedSub[T any] struct {
	id     uint64
	fn     func(T)
	active bool
}

// Subscribe registers fn and returns a function that removes it.
// The returned cancel function is idempotent.
func (f *Feed[T]) Subscribe(fn func(T)) func() {
	f.mu.Lock()
	f.nextID++
	sub := &feedSub[T]{id: f.nextID, fn: fn, active: true}
	f.subs = append(f.subs, sub)
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if !sub.active {
			return
		}
		sub.active = false
		for i, s := range f.subs {
			if s.id == sub.id {
				f.subs = append(f.subs[:i:i], f.subs[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers v to all current subscribers.
// Subscribers canceled while a publish is in progress are skipped.
func (f *Feed[T]) Publish(v T) {
	f.mu.Lock()
	subs := make([]*feedSub[T], len(f.subs))
	copy(subs, f.subs)
	f.mu.Unlock()

	for _, sub := range subs {
		f.mu.Lock()
		active := sub.active
		f.mu.Unlock()
		if active {
			sub.fn(v)
		}
	}
}

// Len returns the number of active subscribers.
func (f *Feed[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
